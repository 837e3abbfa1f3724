package service

import (
	"context"
	"fmt"
	"strings"

	"hs-compliance/pkg/config"
	"hs-compliance/pkg/metrics"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

const systemInstruction = `You are a customs compliance assistant specialised in the Harmonized System (HS) and national tariff schedules (HTS).
You work from the tariff schedule the user provides. Be precise with codes, never invent policies, and say so when the schedule does not cover a question.
When asked for structured output, return only the requested JSON without markdown or commentary.`

const explainPromptTemplate = `The HS/HTS code %s was not found in the loaded tariff schedule, and no other code shares its heading or chapter.
In two or three sentences, explain the most likely reasons (for example a typo, an obsolete or national-only subdivision, or a product outside the schedule's scope) and what the importer should verify.`

// LLMService wraps the GigaChat generative model.
type LLMService struct {
	client  *gigago.Client
	model   *gigago.GenerativeModel
	config  *config.GigaChatConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewLLMService(cfg *config.GigaChatConfig, m *metrics.Metrics, logger *zap.Logger) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, ErrCompleterUnavailable
	}

	ctx := context.Background()

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = systemInstruction
	model.Temperature = 0.3

	logger.Info("Using GigaChat model", zap.String("model", cfg.Model))

	return &LLMService{
		client:  client,
		model:   model,
		config:  cfg,
		metrics: m,
		logger:  logger,
	}, nil
}

func (s *LLMService) Complete(ctx context.Context, prompt string) (string, error) {
	return s.generate(ctx, "complete", prompt)
}

func (s *LLMService) ExplainUnknownCode(ctx context.Context, code string) (string, error) {
	return s.generate(ctx, "explain", fmt.Sprintf(explainPromptTemplate, code))
}

func (s *LLMService) generate(ctx context.Context, purpose, prompt string) (string, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := s.model.Generate(ctx, messages)
	if err == nil && len(resp.Choices) == 0 {
		err = fmt.Errorf("no response from LLM")
	}
	s.metrics.RecordCompletion(purpose, err)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.logger.Debug("LLM response received",
		zap.String("purpose", purpose),
		zap.Int("length", len(content)),
	)
	return content, nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

// UnavailableCompleter stands in when no model is configured. Every call
// fails with ErrCompleterUnavailable so callers take their fallback path.
type UnavailableCompleter struct{}

func (UnavailableCompleter) Complete(context.Context, string) (string, error) {
	return "", ErrCompleterUnavailable
}

func (UnavailableCompleter) ExplainUnknownCode(context.Context, string) (string, error) {
	return "", ErrCompleterUnavailable
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hs-compliance/internal/models"
	"hs-compliance/pkg/normalize"

	"go.uber.org/zap"
)

const extractionPromptTemplate = `You are reading a fragment of an import/export tariff schedule.
List every HS/HTS classification code that appears in the fragment together with its description and trade policy.

Return ONLY valid JSON in this exact shape, without markdown or commentary:
{"codes": [{"code": "8471300000", "description": "Laptop computers, notebooks", "policy": "Allowed"}]}

Rules:
- "code" contains digits only, 4 to 10 of them.
- "policy" is the label used in the document, for example %s.
- If the fragment contains no codes, return {"codes": []}.

Fragment:
%s`

// LLMExtractor asks a text completion model to extract codes chunk by chunk.
// Chunk results are merged by key union; a later chunk overwrites a code
// seen in an earlier one.
type LLMExtractor struct {
	completer TextCompleter
	keywords  []string
	chunkSize int
	logger    *zap.Logger
}

func NewLLMExtractor(completer TextCompleter, keywords []string, chunkSize int, logger *zap.Logger) *LLMExtractor {
	if chunkSize <= 0 {
		chunkSize = 4000
	}
	return &LLMExtractor{
		completer: completer,
		keywords:  keywords,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

type extractedCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Policy      string `json:"policy"`
}

func (e *LLMExtractor) Extract(ctx context.Context, text string) (*models.Registry, *models.TermIndex, error) {
	registry := models.NewRegistry()
	terms := models.NewTermIndex()

	chunks := Segment(text, e.chunkSize)
	failed := 0
	var lastErr error

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		content, err := e.completer.Complete(ctx, e.prompt(chunk.Content))
		if err != nil {
			failed++
			lastErr = err
			e.logger.Warn("Chunk extraction failed", zap.Int("chunk", chunk.ID), zap.Error(err))
			continue
		}

		records, err := parseExtractedCodes(content)
		if err != nil {
			failed++
			lastErr = err
			e.logger.Warn("Chunk extraction returned unparsable payload", zap.Int("chunk", chunk.ID), zap.Error(err))
			continue
		}

		for _, record := range records {
			registry.Upsert(record)
			IndexTerms(terms, record)
		}
	}

	if len(chunks) > 0 && failed == len(chunks) {
		return nil, nil, fmt.Errorf("failed to extract codes from any chunk: %w", lastErr)
	}

	e.logger.Info("Model-assisted extraction completed",
		zap.Int("chunks", len(chunks)),
		zap.Int("failed_chunks", failed),
		zap.Int("codes", registry.Len()),
	)
	return registry, terms, nil
}

func (e *LLMExtractor) prompt(fragment string) string {
	quoted := make([]string, len(e.keywords))
	for i, kw := range e.keywords {
		quoted[i] = fmt.Sprintf("%q", kw)
	}
	return fmt.Sprintf(extractionPromptTemplate, strings.Join(quoted, ", "), fragment)
}

func parseExtractedCodes(content string) ([]models.ClassificationCode, error) {
	raw, err := jsonObject(content)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Codes []extractedCode `json:"codes"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	records := make([]models.ClassificationCode, 0, len(payload.Codes))
	for _, c := range payload.Codes {
		code := normalize.Code(c.Code)
		if len(code) < 4 || len(code) > 10 {
			continue
		}
		records = append(records, models.ClassificationCode{
			Code:        code,
			Description: strings.TrimSpace(c.Description),
			Policy:      strings.TrimSpace(c.Policy),
		})
	}
	return records, nil
}

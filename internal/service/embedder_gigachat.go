package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hs-compliance/pkg/config"
	"hs-compliance/pkg/metrics"

	"go.uber.org/zap"
)

const (
	retryBaseDelay = 200 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
)

type tokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// GigaChatEmbedder calls the GigaChat /embeddings endpoint. The generative
// client does not expose embeddings, so the REST API is used directly.
type GigaChatEmbedder struct {
	baseURL    string
	model      string
	maxRetries int
	httpClient *http.Client
	tokens     tokenSource
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// statusError carries a non-2xx response so the retry loop can inspect it.
type statusError struct {
	status     int
	retryAfter time.Duration
	body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("embedding request failed with status %d: %s", e.status, e.body)
}

func (e *statusError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

func NewGigaChatEmbedder(gigaCfg *config.GigaChatConfig, embedCfg *config.EmbeddingConfig, m *metrics.Metrics, logger *zap.Logger) *GigaChatEmbedder {
	httpClient := newGigaChatHTTPClient(gigaCfg, logger)
	return newGigaChatEmbedder(
		gigaCfg.BaseURL,
		embedCfg,
		httpClient,
		newGigaChatTokenSource(gigaCfg, httpClient, logger),
		m,
		logger,
	)
}

func newGigaChatEmbedder(baseURL string, embedCfg *config.EmbeddingConfig, httpClient *http.Client, tokens tokenSource, m *metrics.Metrics, logger *zap.Logger) *GigaChatEmbedder {
	model := embedCfg.Model
	if model == "" {
		model = "Embeddings"
	}
	return &GigaChatEmbedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		maxRetries: max(0, embedCfg.MaxRetries),
		httpClient: httpClient,
		tokens:     tokens,
		metrics:    m,
		logger:     logger,
	}
}

// Embed returns the vector for text. The GigaChat embedding model is
// symmetric, so role is ignored.
func (e *GigaChatEmbedder) Embed(ctx context.Context, text string, _ EmbeddingRole) ([]float32, error) {
	vec, err := e.embedWithRetry(ctx, text)
	e.metrics.RecordEmbedding(err)
	return vec, err
}

func (e *GigaChatEmbedder) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt, lastErr)
			e.logger.Debug("Retrying embedding request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("embedding cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		vec, err := e.embedOnce(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) {
			if se.status == http.StatusUnauthorized {
				e.tokens.Invalidate()
				continue
			}
			if !se.retryable() {
				return nil, err
			}
			continue
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("embedding cancelled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("failed to embed after %d attempts: %w", e.maxRetries+1, lastErr)
}

func (e *GigaChatEmbedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	token, err := e.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send embedding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &statusError{
			status:     resp.StatusCode,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			body:       string(bodyBytes),
		}
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, errEmptyEmbedding
	}
	return out.Data[0].Embedding, nil
}

// retryDelay doubles from retryBaseDelay per attempt, capped at
// retryMaxDelay. A server supplied Retry-After wins when it is longer.
func retryDelay(attempt int, lastErr error) time.Duration {
	delay := retryBaseDelay << (attempt - 1)
	if delay <= 0 || delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	var se *statusError
	if errors.As(lastErr, &se) && se.retryAfter > delay {
		delay = min(se.retryAfter, retryMaxDelay)
	}
	return delay
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

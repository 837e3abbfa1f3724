package service

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"hs-compliance/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tokenRefreshMargin is how long before expiry a cached token is replaced.
const tokenRefreshMargin = time.Minute

// gigaChatTokenSource fetches and caches OAuth access tokens for the
// GigaChat REST API.
type gigaChatTokenSource struct {
	cfg        *config.GigaChatConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newGigaChatHTTPClient(cfg *config.GigaChatConfig, logger *zap.Logger) *http.Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		logger.Warn("HTTP client TLS certificate verification is disabled")
	}
	return httpClient
}

func newGigaChatTokenSource(cfg *config.GigaChatConfig, httpClient *http.Client, logger *zap.Logger) *gigaChatTokenSource {
	return &gigaChatTokenSource{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (s *gigaChatTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Add(tokenRefreshMargin).Before(s.expiresAt) {
		return s.token, nil
	}

	token, expiresAt, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	s.token, s.expiresAt = token, expiresAt
	return token, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (s *gigaChatTokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

func (s *gigaChatTokenSource) fetch(ctx context.Context) (string, time.Time, error) {
	rqUID := uuid.New().String()

	formData := url.Values{}
	formData.Set("scope", s.cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.OAuthURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create OAuth request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	// the API key is issued already Base64-encoded
	req.Header.Set("Authorization", "Basic "+s.cfg.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		s.logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(bodyBytes)),
			zap.String("rq_uid", rqUID),
		)
		return "", time.Time{}, fmt.Errorf("OAuth failed with status %d", resp.StatusCode)
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"` // unix milliseconds
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("empty access token in OAuth response")
	}

	expiresAt := time.Now().Add(25 * time.Minute)
	switch {
	case oauthResp.ExpiresAt > 0:
		expiresAt = time.UnixMilli(oauthResp.ExpiresAt)
	case oauthResp.ExpiresIn > 0:
		expiresAt = time.Now().Add(time.Duration(oauthResp.ExpiresIn) * time.Second)
	}

	s.logger.Info("Access token obtained", zap.Time("expires_at", expiresAt))
	return oauthResp.AccessToken, expiresAt, nil
}

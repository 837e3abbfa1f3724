package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hs-compliance/internal/api/handlers"
	"hs-compliance/internal/dto"
	"hs-compliance/internal/models"
	"hs-compliance/internal/repository"
	"hs-compliance/internal/service"
	"hs-compliance/pkg/auth"
	"hs-compliance/pkg/config"
	"hs-compliance/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSchedule = "8471300000 Laptop computers, notebooks Allowed\n\n" +
		"9303100000 Firearms and similar devices Prohibited\n\n" +
		"Chapter 84 covers machinery and mechanical appliances."

	adminPassword = "s3cret"
)

type scriptedModel struct {
	answer string
}

func (m scriptedModel) Complete(context.Context, string) (string, error) {
	if m.answer == "" {
		return "", service.ErrCompleterUnavailable
	}
	return m.answer, nil
}

func (m scriptedModel) ExplainUnknownCode(_ context.Context, code string) (string, error) {
	return "Code " + code + " is not in the schedule.", nil
}

type testServer struct {
	app       *fiber.App
	knowledge *service.KnowledgeService
}

func newTestServer(t *testing.T, model scriptedModel, initialize bool) *testServer {
	t.Helper()
	logger := zap.NewNop()
	dir := t.TempDir()

	source := filepath.Join(dir, "schedule.txt")
	require.NoError(t, os.WriteFile(source, []byte(testSchedule), 0o644))

	policy := config.DefaultPolicyTable()
	extractor, err := service.NewPatternExtractor(policy.Keywords, logger)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	embedder := service.NewLocalEmbedder(64)
	knowledge := service.NewKnowledgeService(
		&config.KnowledgeConfig{SourcePath: source, PassageMaxLen: 60},
		service.NewPDFService(logger),
		extractor,
		service.NewIndexBuilder(embedder, &config.EmbeddingConfig{Workers: 2, BatchSize: 4}, logger),
		repository.NewFileCache(filepath.Join(dir, "cache"), logger),
		m,
		logger,
	)
	if initialize {
		_, err := knowledge.Init(context.Background())
		require.NoError(t, err)
	}

	hash, err := auth.HashPassword(adminPassword)
	require.NoError(t, err)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	engine := service.NewDecisionEngine(policy.Permitted, model, m, logger)
	compliance := service.NewComplianceService(knowledge, engine, m, logger)
	rag := service.NewRAGService(knowledge, embedder, model, 3, logger)

	app := SetupRouter(Handlers{
		Compliance: handlers.NewComplianceHandler(compliance, logger),
		Knowledge:  handlers.NewKnowledgeHandler(rag, logger),
		Admin:      handlers.NewAdminHandler(knowledge, jwtManager, &config.AdminConfig{Username: "admin", PasswordHash: hash}, logger),
		Health:     handlers.NewHealthHandler(knowledge),
	}, RouterConfig{
		JWTManager: jwtManager,
		Metrics:    m,
		Gatherer:   registry,
	}, logger)

	return &testServer{app: app, knowledge: knowledge}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, scriptedModel{}, true)

	status, body := srv.do(t, fiber.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, status)

	health := decode[map[string]any](t, body)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, true, health["ready"])
	assert.EqualValues(t, 2, health["codes"])
}

func TestCheckCompliance(t *testing.T) {
	srv := newTestServer(t, scriptedModel{}, true)

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		status   int
		tier     models.DecisionTier
		allowed  bool
		resolved bool
	}{
		{"code with dots", fiber.MethodPost, "/api/v1/compliance/check", dto.CheckComplianceRequest{Code: "8471.30.00.00"}, http.StatusOK, models.DecisionTierExact, true, false},
		{"prohibited code", fiber.MethodGet, "/api/v1/compliance/check?code=9303100000", nil, http.StatusOK, models.DecisionTierExact, false, false},
		{"heading inference", fiber.MethodPost, "/api/v1/compliance/check", dto.CheckComplianceRequest{Code: "8471500000"}, http.StatusOK, models.DecisionTierChapter, true, false},
		{"unknown code", fiber.MethodPost, "/api/v1/compliance/check", dto.CheckComplianceRequest{Code: "0000000000"}, http.StatusOK, models.DecisionTierUnknown, false, false},
		{"item name", fiber.MethodGet, "/api/v1/compliance/check?item_name=laptop", nil, http.StatusOK, models.DecisionTierExact, true, true},
		{"unresolved item", fiber.MethodPost, "/api/v1/compliance/check", dto.CheckComplianceRequest{ItemName: "spaceship"}, http.StatusOK, models.DecisionTierUnresolved, false, false},
		{"nothing given", fiber.MethodPost, "/api/v1/compliance/check", dto.CheckComplianceRequest{}, http.StatusBadRequest, "", false, false},
		{"code too long", fiber.MethodPost, "/api/v1/compliance/check", dto.CheckComplianceRequest{Code: strings.Repeat("1", 40)}, http.StatusBadRequest, "", false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := srv.do(t, tc.method, tc.path, tc.body, "")
			require.Equal(t, tc.status, status, string(body))
			if status != http.StatusOK {
				assert.NotEmpty(t, decode[dto.ErrorResponse](t, body).Error)
				return
			}

			result := decode[models.CheckResult](t, body)
			assert.Equal(t, tc.tier, result.Tier)
			assert.Equal(t, tc.allowed, result.Allowed)
			assert.Equal(t, tc.resolved, result.Resolution != nil)
			if tc.tier == models.DecisionTierUnknown {
				assert.Equal(t, "Code 0000000000 is not in the schedule.", result.Reason)
			}
		})
	}
}

func TestCheckCompliance_ValidationNamesField(t *testing.T) {
	srv := newTestServer(t, scriptedModel{}, true)

	status, body := srv.do(t, fiber.MethodPost, "/api/v1/compliance/check",
		dto.CheckComplianceRequest{ItemName: strings.Repeat("x", 300)}, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "item_name", decode[dto.ErrorResponse](t, body).Field)
}

func TestCodes(t *testing.T) {
	srv := newTestServer(t, scriptedModel{}, true)

	status, body := srv.do(t, fiber.MethodGet, "/api/v1/codes", nil, "")
	require.Equal(t, http.StatusOK, status)
	list := decode[dto.CodeListResponse](t, body)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 100, list.Limit)
	require.Len(t, list.Codes, 2)
	assert.Equal(t, "8471300000", list.Codes[0].Code)
	assert.True(t, list.Codes[0].Allowed)
	assert.False(t, list.Codes[1].Allowed)

	status, body = srv.do(t, fiber.MethodGet, "/api/v1/codes?limit=1&offset=1", nil, "")
	require.Equal(t, http.StatusOK, status)
	list = decode[dto.CodeListResponse](t, body)
	require.Len(t, list.Codes, 1)
	assert.Equal(t, "9303100000", list.Codes[0].Code)

	status, _ = srv.do(t, fiber.MethodGet, "/api/v1/codes?limit=5000", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = srv.do(t, fiber.MethodGet, "/api/v1/codes/9303.10.00.00", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Prohibited", decode[dto.CodeResponse](t, body).Policy)

	status, _ = srv.do(t, fiber.MethodGet, "/api/v1/codes/1234567890", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestResolve(t *testing.T) {
	srv := newTestServer(t, scriptedModel{}, true)

	status, body := srv.do(t, fiber.MethodPost, "/api/v1/codes/resolve", dto.ResolveItemRequest{ItemName: "Laptop"}, "")
	require.Equal(t, http.StatusOK, status)
	res := decode[dto.ResolveResponse](t, body)
	assert.True(t, res.Found)
	assert.Equal(t, "8471300000", res.Code)
	assert.Equal(t, models.MatchTierKeyContainsQuery, res.Tier)
	require.NotNil(t, res.Record)
	assert.True(t, res.Record.Allowed)

	status, body = srv.do(t, fiber.MethodPost, "/api/v1/codes/resolve", dto.ResolveItemRequest{ItemName: "I need a laptop"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[dto.ResolveResponse](t, body).Found)

	status, _ = srv.do(t, fiber.MethodPost, "/api/v1/codes/resolve", dto.ResolveItemRequest{}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = srv.do(t, fiber.MethodPost, "/api/v1/codes/resolve-description",
		dto.ResolveDescriptionRequest{Description: "FIREARMS and similar devices"}, "")
	require.Equal(t, http.StatusOK, status)
	res = decode[dto.ResolveResponse](t, body)
	assert.Equal(t, "9303100000", res.Code)
	assert.Equal(t, models.MatchTierExact, res.Tier)
}

func TestKnowledge(t *testing.T) {
	srv := newTestServer(t, scriptedModel{answer: `{"answer":"Laptops are allowed.","codes":["8471.30.00.00"]}`}, true)

	status, body := srv.do(t, fiber.MethodPost, "/api/v1/knowledge/search", dto.SearchRequest{Query: "laptop computers", TopK: 1}, "")
	require.Equal(t, http.StatusOK, status)
	search := decode[dto.SearchResponse](t, body)
	require.Len(t, search.Results, 1)
	assert.Contains(t, search.Results[0].Content, "Laptop")

	status, _ = srv.do(t, fiber.MethodPost, "/api/v1/knowledge/search", dto.SearchRequest{Query: "x", TopK: 99}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = srv.do(t, fiber.MethodPost, "/api/v1/knowledge/ask", dto.AskRequest{Question: "Can I import laptops?"}, "")
	require.Equal(t, http.StatusOK, status)
	answer := decode[models.Answer](t, body)
	assert.Equal(t, "Laptops are allowed.", answer.Answer)
	assert.Equal(t, []string{"8471300000"}, answer.Codes)
	assert.False(t, answer.Fallback)
	assert.NotEmpty(t, answer.Sources)
}

func TestKnowledge_AskFallsBackWithoutModel(t *testing.T) {
	srv := newTestServer(t, scriptedModel{}, true)

	status, body := srv.do(t, fiber.MethodPost, "/api/v1/knowledge/ask", dto.AskRequest{Question: "firearms?"}, "")
	require.Equal(t, http.StatusOK, status)
	answer := decode[models.Answer](t, body)
	assert.True(t, answer.Fallback)
	assert.NotEmpty(t, answer.Sources)
}

func TestKnowledge_SearchBeforeBuild(t *testing.T) {
	srv := newTestServer(t, scriptedModel{}, false)

	status, _ := srv.do(t, fiber.MethodPost, "/api/v1/knowledge/search", dto.SearchRequest{Query: "laptop"}, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, body := srv.do(t, fiber.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, decode[map[string]any](t, body)["ready"])
}

func TestAdmin(t *testing.T) {
	srv := newTestServer(t, scriptedModel{}, false)

	status, _ := srv.do(t, fiber.MethodPost, "/api/v1/admin/regenerate", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = srv.do(t, fiber.MethodPost, "/api/v1/admin/login", dto.LoginRequest{Username: "admin", Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := srv.do(t, fiber.MethodPost, "/api/v1/admin/login", dto.LoginRequest{Username: "admin", Password: adminPassword}, "")
	require.Equal(t, http.StatusOK, status)
	login := decode[dto.LoginResponse](t, body)
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.Equal(t, int64(3600), login.ExpiresIn)

	status, body = srv.do(t, fiber.MethodGet, "/api/v1/admin/status", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[dto.StatusResponse](t, body).Ready)

	status, body = srv.do(t, fiber.MethodPost, "/api/v1/admin/regenerate", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, status, string(body))
	report := decode[service.RegenerationReport](t, body)
	assert.Equal(t, service.TriggerManual, report.Trigger)
	assert.Equal(t, 2, report.Codes)
	assert.False(t, report.FromCache)

	status, body = srv.do(t, fiber.MethodGet, "/api/v1/admin/status", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, status)
	st := decode[dto.StatusResponse](t, body)
	assert.True(t, st.Ready)
	assert.Equal(t, 2, st.Codes)
	assert.Equal(t, srv.knowledge.Snapshot().SourceHash, st.SourceHash)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, scriptedModel{}, true)

	srv.do(t, fiber.MethodGet, "/api/v1/codes/8471300000", nil, "")

	status, body := srv.do(t, fiber.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `hs_http_requests_total{method="GET",route="/api/v1/codes/:code",status="200"} 1`)
	assert.Contains(t, string(body), "hs_registry_codes 2")
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, scriptedModel{}, true)

	status, body := srv.do(t, fiber.MethodGet, "/api/v1/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, decode[map[string]string](t, body)["error"])
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hs-compliance/pkg/config"
	"hs-compliance/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticTokens struct {
	invalidated atomic.Int64
	err         error
}

func (s *staticTokens) Token(context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "test-token", nil
}

func (s *staticTokens) Invalidate() { s.invalidated.Add(1) }

func newTestEmbedder(srv *httptest.Server, tokens tokenSource, retries int) *GigaChatEmbedder {
	return newGigaChatEmbedder(srv.URL, &config.EmbeddingConfig{MaxRetries: retries}, srv.Client(), tokens, nil, zap.NewNop())
}

func TestGigaChatEmbedder_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Embeddings", req.Model)
		assert.Equal(t, []string{"laptops"}, req.Input)

		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3],"index":0}]}`))
	}))
	defer srv.Close()

	vec, err := newTestEmbedder(srv, &staticTokens{}, 0).Embed(context.Background(), "laptops", EmbeddingRoleDocument)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestGigaChatEmbedder_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1]}]}`))
	}))
	defer srv.Close()

	vec, err := newTestEmbedder(srv, &staticTokens{}, 3).Embed(context.Background(), "x", EmbeddingRoleQuery)
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vec)
	assert.Equal(t, int64(3), hits.Load())
}

func TestGigaChatEmbedder_GivesUpAfterMaxRetries(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv, &staticTokens{}, 1).Embed(context.Background(), "x", EmbeddingRoleQuery)
	require.Error(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestGigaChatEmbedder_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv, &staticTokens{}, 3).Embed(context.Background(), "x", EmbeddingRoleQuery)
	var se *statusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.status)
	assert.Equal(t, int64(1), hits.Load())
}

func TestGigaChatEmbedder_UnauthorizedRefreshesToken(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,2]}]}`))
	}))
	defer srv.Close()

	tokens := &staticTokens{}
	_, err := newTestEmbedder(srv, tokens, 1).Embed(context.Background(), "x", EmbeddingRoleQuery)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tokens.invalidated.Load())
}

func TestGigaChatEmbedder_EmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv, &staticTokens{}, 0).Embed(context.Background(), "x", EmbeddingRoleQuery)
	assert.ErrorIs(t, err, errEmptyEmbedding)
}

func TestGigaChatEmbedder_TokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("request must not be sent without a token")
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv, &staticTokens{err: errors.New("oauth down")}, 0).Embed(context.Background(), "x", EmbeddingRoleQuery)
	assert.Error(t, err)
}

func TestGigaChatEmbedder_IndexBuildRecordsEachCallOnce(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,0.5]}]}`))
	}))
	defer srv.Close()

	m := metrics.New(prometheus.NewRegistry())
	embedder := newGigaChatEmbedder(srv.URL, &config.EmbeddingConfig{}, srv.Client(), &staticTokens{}, m, zap.NewNop())
	builder := NewIndexBuilder(embedder, &config.EmbeddingConfig{Workers: 1, BatchSize: 2}, zap.NewNop())

	embedded, report, err := builder.Build(context.Background(), passagesN(3))
	require.NoError(t, err)
	assert.Len(t, embedded, 2)
	assert.Equal(t, 1, report.Failed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EmbeddingCallsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmbeddingCallsTotal.WithLabelValues("error")))
	assert.Equal(t, int64(3), hits.Load())
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, retryDelay(1, nil))
	assert.Equal(t, 400*time.Millisecond, retryDelay(2, nil))
	assert.Equal(t, retryMaxDelay, retryDelay(10, nil))
	assert.Equal(t, 2*time.Second, retryDelay(1, &statusError{status: 429, retryAfter: 2 * time.Second}))
	assert.Equal(t, retryMaxDelay, retryDelay(1, &statusError{status: 429, retryAfter: time.Minute}))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("soon"))
}

func TestGigaChatTokenSource_CachesToken(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "Basic key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("RqUID"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "GIGACHAT_API_PERS", r.PostForm.Get("scope"))
		_, _ = w.Write([]byte(`{"access_token":"abc","expires_in":1800}`))
	}))
	defer srv.Close()

	cfg := &config.GigaChatConfig{APIKey: "key", Scope: "GIGACHAT_API_PERS", OAuthURL: srv.URL}
	ts := newGigaChatTokenSource(cfg, srv.Client(), zap.NewNop())

	for range 3 {
		token, err := ts.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc", token)
	}
	assert.Equal(t, int64(1), hits.Load())

	ts.Invalidate()
	_, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestLocalEmbedder(t *testing.T) {
	e := NewLocalEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Portable laptops and notebooks", EmbeddingRoleDocument)
	require.NoError(t, err)
	require.Len(t, a, 64)

	b, err := e.Embed(ctx, "PORTABLE  laptops, and notebooks!", EmbeddingRoleQuery)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cosineSimilarity(a, b), 1e-6)

	c, err := e.Embed(ctx, "live horses", EmbeddingRoleQuery)
	require.NoError(t, err)
	assert.Less(t, cosineSimilarity(a, c), cosineSimilarity(a, b))

	empty, err := e.Embed(ctx, "  ", EmbeddingRoleQuery)
	require.NoError(t, err)
	assert.Len(t, empty, 64)

	assert.Len(t, mustEmbed(t, NewLocalEmbedder(0), "x"), defaultLocalDimensions)
}

func mustEmbed(t *testing.T, e Embedder, text string) []float32 {
	t.Helper()
	vec, err := e.Embed(context.Background(), text, EmbeddingRoleQuery)
	require.NoError(t, err)
	return vec
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"hs-compliance/internal/models"
)

// fakeEmbedder maps text to a vector through fn and records call counts.
type fakeEmbedder struct {
	fn       func(text string, role EmbeddingRole) ([]float32, error)
	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (f *fakeEmbedder) Embed(_ context.Context, text string, role EmbeddingRole) ([]float32, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return f.fn(text, role)
}

// keywordEmbedder places text on one axis per keyword it contains.
func keywordEmbedder(keywords ...string) *fakeEmbedder {
	return &fakeEmbedder{fn: func(text string, _ EmbeddingRole) ([]float32, error) {
		vec := make([]float32, len(keywords))
		lower := strings.ToLower(text)
		for i, kw := range keywords {
			if strings.Contains(lower, kw) {
				vec[i] = 1
			}
		}
		return vec, nil
	}}
}

type fakeCompleter struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

type fakeExplainer struct {
	reason string
	err    error
	calls  int
}

func (f *fakeExplainer) ExplainUnknownCode(_ context.Context, code string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if !strings.Contains(f.reason, "%s") {
		return f.reason, nil
	}
	return fmt.Sprintf(f.reason, code), nil
}

type fakeTextExtractor struct {
	text string
	err  error
}

func (f *fakeTextExtractor) ExtractText(context.Context, string) (string, error) {
	return f.text, f.err
}

type memoryCache struct {
	mu          sync.Mutex
	snapshot    *models.KnowledgeSnapshot
	saveErr     error
	saves       int
	invalidates int
}

func (m *memoryCache) Load(context.Context) (*models.KnowledgeSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot, m.snapshot != nil
}

func (m *memoryCache) Save(_ context.Context, s *models.KnowledgeSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snapshot = s
	return nil
}

func (m *memoryCache) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidates++
	m.snapshot = nil
	return nil
}

func exampleRegistry(records ...models.ClassificationCode) (*models.Registry, *models.TermIndex) {
	registry := models.NewRegistry()
	terms := models.NewTermIndex()
	for _, r := range records {
		registry.Upsert(r)
		IndexTerms(terms, r)
	}
	return registry, terms
}

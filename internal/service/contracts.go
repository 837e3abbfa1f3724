package service

import (
	"context"
	"errors"

	"hs-compliance/internal/models"
)

var (
	ErrNoStructuralMatches  = errors.New("no structural code matches in document")
	ErrAllEmbeddingsFailed  = errors.New("all passage embeddings failed")
	ErrMissingRequiredField = errors.New("either code or item_name is required")
	ErrCodeNotFound         = errors.New("code not found")
	ErrCompleterUnavailable = errors.New("text completion service unavailable")
	ErrEmptySource          = errors.New("source document has no text")
	ErrKnowledgeNotReady    = errors.New("knowledge index is not built")
)

type EmbeddingRole string

const (
	EmbeddingRoleDocument EmbeddingRole = "document"
	EmbeddingRoleQuery    EmbeddingRole = "query"
)

// Embedder turns text into a fixed-length vector. Calls may fail
// independently of each other.
type Embedder interface {
	Embed(ctx context.Context, text string, role EmbeddingRole) ([]float32, error)
}

type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Explainer produces a human-readable reason for a code that matched
// nothing in the registry.
type Explainer interface {
	ExplainUnknownCode(ctx context.Context, code string) (string, error)
}

type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// CodeExtractor parses document text into a code registry and term index.
type CodeExtractor interface {
	Extract(ctx context.Context, text string) (*models.Registry, *models.TermIndex, error)
}

// KnowledgeCache persists snapshots between runs. Load reports false for a
// missing or unreadable cache; it never fails.
type KnowledgeCache interface {
	Load(ctx context.Context) (*models.KnowledgeSnapshot, bool)
	Save(ctx context.Context, snapshot *models.KnowledgeSnapshot) error
	Invalidate(ctx context.Context) error
}

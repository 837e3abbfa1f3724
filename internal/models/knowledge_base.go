package models

import "time"

// Passage is a bounded slice of the source document. ID is the passage's
// position in document order.
type Passage struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
}

type ScoredPassage struct {
	Passage
	Score float64 `json:"score"`
}

// KnowledgeSnapshot is everything derived from one source document.
// A snapshot is never mutated after it has been published.
type KnowledgeSnapshot struct {
	Codes      *Registry
	Terms      *TermIndex
	Passages   []Passage
	SourceHash string
	BuiltAt    time.Time
}

func NewEmptySnapshot() *KnowledgeSnapshot {
	return &KnowledgeSnapshot{
		Codes: NewRegistry(),
		Terms: NewTermIndex(),
	}
}

func (s *KnowledgeSnapshot) Empty() bool {
	return s == nil || (s.Codes.Len() == 0 && len(s.Passages) == 0)
}

// Answer is a generated reply to a free-text question with the passages it
// was grounded on. Fallback is set when no model reply was available.
type Answer struct {
	Answer   string          `json:"answer"`
	Codes    []string        `json:"codes,omitempty"`
	Sources  []ScoredPassage `json:"sources"`
	Fallback bool            `json:"fallback"`
}

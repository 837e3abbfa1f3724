package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"hs-compliance/internal/models"
)

const DefaultTopK = 5

// Retrieve embeds query and returns the k passages most similar to it by
// cosine similarity, best first. Equal scores keep document order.
func Retrieve(ctx context.Context, query string, passages []models.Passage, embedder Embedder, k int) ([]models.ScoredPassage, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(passages) == 0 {
		return []models.ScoredPassage{}, nil
	}

	queryVec, err := embedder.Embed(ctx, query, EmbeddingRoleQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored := make([]models.ScoredPassage, len(passages))
	for i, p := range passages {
		scored[i] = models.ScoredPassage{Passage: p, Score: cosineSimilarity(queryVec, p.Embedding)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// cosineSimilarity returns 0 when the vectors differ in length or either
// has zero magnitude.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

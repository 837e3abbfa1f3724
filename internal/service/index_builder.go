package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"hs-compliance/internal/models"
	"hs-compliance/pkg/config"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errEmptyEmbedding = errors.New("embedding service returned an empty vector")

type BuildReport struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// IndexBuilder embeds passages with a fixed pool of workers. Work is fed in
// batches; a batch is fully collected before the next one is fed, with a
// pause in between to stay under the embedding service's rate limit.
type IndexBuilder struct {
	embedder   Embedder
	workers    int
	batchSize  int
	batchDelay time.Duration
	logger     *zap.Logger
}

func NewIndexBuilder(embedder Embedder, cfg *config.EmbeddingConfig, logger *zap.Logger) *IndexBuilder {
	workers := cfg.Workers
	if workers <= 0 {
		workers = max(1, runtime.NumCPU()-1)
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	return &IndexBuilder{
		embedder:   embedder,
		workers:    workers,
		batchSize:  batchSize,
		batchDelay: cfg.BatchDelay,
		logger:     logger,
	}
}

type embedResult struct {
	passage models.Passage
	err     error
}

// Build returns the passages that were embedded successfully, sorted by ID.
// Individual failures are only counted; an error is returned when every
// passage failed or ctx ended between batches.
func (b *IndexBuilder) Build(ctx context.Context, passages []models.Passage) ([]models.Passage, BuildReport, error) {
	report := BuildReport{Total: len(passages)}
	if len(passages) == 0 {
		return nil, report, nil
	}

	jobs := make(chan models.Passage)
	results := make(chan embedResult, b.batchSize)

	var g errgroup.Group
	for i := 0; i < b.workers; i++ {
		g.Go(func() error {
			for p := range jobs {
				vec, err := b.embedder.Embed(ctx, p.Content, EmbeddingRoleDocument)
				if err == nil && len(vec) == 0 {
					err = errEmptyEmbedding
				}
				p.Embedding = vec
				results <- embedResult{passage: p, err: err}
			}
			return nil
		})
	}

	embedded := make([]models.Passage, 0, len(passages))
	var stopErr error

	for start := 0; start < len(passages); start += b.batchSize {
		if start > 0 && b.batchDelay > 0 {
			select {
			case <-ctx.Done():
				stopErr = ctx.Err()
			case <-time.After(b.batchDelay):
			}
			if stopErr != nil {
				break
			}
		}

		batch := passages[start:min(start+b.batchSize, len(passages))]
		for _, p := range batch {
			jobs <- p
		}
		for range batch {
			r := <-results
			if r.err != nil {
				report.Failed++
				b.logger.Warn("Passage embedding failed", zap.Int("passage_id", r.passage.ID), zap.Error(r.err))
				continue
			}
			report.Succeeded++
			embedded = append(embedded, r.passage)
		}
	}

	close(jobs)
	_ = g.Wait()

	if stopErr != nil {
		return nil, report, fmt.Errorf("failed to finish embedding: %w", stopErr)
	}

	sort.Slice(embedded, func(i, j int) bool { return embedded[i].ID < embedded[j].ID })

	if report.Succeeded == 0 {
		return nil, report, ErrAllEmbeddingsFailed
	}
	if report.Failed > 0 {
		b.logger.Warn("Some passages were left out of the index",
			zap.Int("failed", report.Failed),
			zap.Int("total", report.Total),
		)
	}

	b.logger.Info("Semantic index built",
		zap.Int("passages", report.Succeeded),
		zap.Int("workers", b.workers),
		zap.Int("batch_size", b.batchSize),
	)
	return embedded, report, nil
}

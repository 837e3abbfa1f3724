package service

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"hs-compliance/internal/models"
	"hs-compliance/pkg/config"
	"hs-compliance/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	TriggerStartup = "startup"
	TriggerManual  = "manual"
)

// SnapshotProvider exposes the knowledge snapshot currently serving requests.
type SnapshotProvider interface {
	Snapshot() *models.KnowledgeSnapshot
}

type RegenerationReport struct {
	RunID             string        `json:"run_id"`
	Trigger           string        `json:"trigger"`
	Source            string        `json:"source"`
	SourceHash        string        `json:"source_hash"`
	Codes             int           `json:"codes"`
	Terms             int           `json:"terms"`
	Passages          int           `json:"passages"`
	EmbeddingFailures int           `json:"embedding_failures"`
	FromCache         bool          `json:"from_cache"`
	Duration          time.Duration `json:"duration_ns"`
}

// KnowledgeService owns the active snapshot. Builds always go into a fresh
// snapshot which is then published with a single pointer swap, so readers
// see either the old or the new state in full.
type KnowledgeService struct {
	sourcePath    string
	passageMaxLen int

	text      TextExtractor
	extractor CodeExtractor
	builder   *IndexBuilder
	cache     KnowledgeCache

	current atomic.Pointer[models.KnowledgeSnapshot]
	group   singleflight.Group

	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewKnowledgeService(
	cfg *config.KnowledgeConfig,
	text TextExtractor,
	extractor CodeExtractor,
	builder *IndexBuilder,
	cache KnowledgeCache,
	m *metrics.Metrics,
	logger *zap.Logger,
) *KnowledgeService {
	passageMaxLen := cfg.PassageMaxLen
	if passageMaxLen <= 0 {
		passageMaxLen = DefaultPassageMaxLen
	}
	s := &KnowledgeService{
		sourcePath:    cfg.SourcePath,
		passageMaxLen: passageMaxLen,
		text:          text,
		extractor:     extractor,
		builder:       builder,
		cache:         cache,
		metrics:       m,
		logger:        logger,
	}
	s.current.Store(models.NewEmptySnapshot())
	return s
}

func (s *KnowledgeService) Snapshot() *models.KnowledgeSnapshot {
	return s.current.Load()
}

// Init publishes the cached snapshot when it was built from the current
// source file, and runs a full build otherwise.
func (s *KnowledgeService) Init(ctx context.Context) (*RegenerationReport, error) {
	start := time.Now()

	hash, err := fileHash(s.sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash source document: %w", err)
	}

	if snapshot, ok := s.cache.Load(ctx); ok {
		if snapshot.SourceHash == hash {
			s.publish(snapshot)
			s.logger.Info("Knowledge snapshot loaded from cache",
				zap.Int("codes", snapshot.Codes.Len()),
				zap.Int("passages", len(snapshot.Passages)),
			)
			return &RegenerationReport{
				Trigger:    TriggerStartup,
				Source:     s.sourcePath,
				SourceHash: hash,
				Codes:      snapshot.Codes.Len(),
				Terms:      snapshot.Terms.Len(),
				Passages:   len(snapshot.Passages),
				FromCache:  true,
				Duration:   time.Since(start),
			}, nil
		}
		s.logger.Info("Cached snapshot is stale, rebuilding",
			zap.String("cached_hash", snapshot.SourceHash),
			zap.String("source_hash", hash),
		)
	}

	return s.run(ctx, TriggerStartup, false)
}

// Regenerate drops the cache and rebuilds everything from the source
// document. Concurrent callers share a single run. A failed run leaves the
// previous snapshot active.
func (s *KnowledgeService) Regenerate(ctx context.Context) (*RegenerationReport, error) {
	v, err, shared := s.group.Do("regenerate", func() (any, error) {
		// a started run is never abandoned halfway
		return s.run(context.WithoutCancel(ctx), TriggerManual, true)
	})
	if shared {
		s.logger.Debug("Joined in-flight regeneration")
	}
	if err != nil {
		return nil, err
	}
	return v.(*RegenerationReport), nil
}

func (s *KnowledgeService) run(ctx context.Context, trigger string, invalidate bool) (*RegenerationReport, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := s.logger.With(zap.String("run_id", runID), zap.String("trigger", trigger))

	log.Info("Knowledge build started", zap.String("source", s.sourcePath))

	report, snapshot, err := s.build(ctx, log, invalidate)
	s.metrics.RecordRegeneration(trigger, time.Since(start), err)
	if err != nil {
		log.Error("Knowledge build failed", zap.Error(err))
		return nil, err
	}

	if err := s.cache.Save(ctx, snapshot); err != nil {
		log.Warn("Failed to save knowledge cache", zap.Error(err))
	}
	s.publish(snapshot)

	report.RunID = runID
	report.Trigger = trigger
	report.Duration = time.Since(start)

	log.Info("Knowledge build completed",
		zap.Int("codes", report.Codes),
		zap.Int("terms", report.Terms),
		zap.Int("passages", report.Passages),
		zap.Int("embedding_failures", report.EmbeddingFailures),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (s *KnowledgeService) build(ctx context.Context, log *zap.Logger, invalidate bool) (*RegenerationReport, *models.KnowledgeSnapshot, error) {
	if invalidate {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Warn("Failed to invalidate knowledge cache", zap.Error(err))
		}
	}

	hash, err := fileHash(s.sourcePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash source document: %w", err)
	}

	text, err := s.text.ExtractText(ctx, s.sourcePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract source text: %w", err)
	}
	text = sanitizeUTF8(text)

	registry, terms, err := s.extractor.Extract(ctx, text)
	if err != nil {
		// extraction failures never fail the build; the index is still useful
		log.Warn("Code extraction failed, continuing with an empty registry", zap.Error(err))
		registry, terms = models.NewRegistry(), models.NewTermIndex()
	}

	passages := Segment(text, s.passageMaxLen)
	embedded, buildReport, err := s.builder.Build(ctx, passages)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build semantic index: %w", err)
	}
	if buildReport.Failed > 0 {
		log.Warn("Some passages were not embedded",
			zap.Int("failed", buildReport.Failed),
			zap.Int("total", buildReport.Total),
		)
	}

	snapshot := &models.KnowledgeSnapshot{
		Codes:      registry,
		Terms:      terms,
		Passages:   embedded,
		SourceHash: hash,
		BuiltAt:    time.Now().UTC(),
	}
	return &RegenerationReport{
		Source:            s.sourcePath,
		SourceHash:        hash,
		Codes:             registry.Len(),
		Terms:             terms.Len(),
		Passages:          len(embedded),
		EmbeddingFailures: buildReport.Failed,
	}, snapshot, nil
}

func (s *KnowledgeService) publish(snapshot *models.KnowledgeSnapshot) {
	s.current.Store(snapshot)
	s.metrics.SetSnapshotSize(snapshot.Codes.Len(), len(snapshot.Passages))
}

// fileHash calculates the MD5 hash of a file
func fileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}
	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

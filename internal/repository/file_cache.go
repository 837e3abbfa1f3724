package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hs-compliance/internal/models"

	"go.uber.org/zap"
)

const (
	codesFile    = "codes.json"
	passagesFile = "passages.json"
)

type codesArtifact struct {
	SourceHash string            `json:"source_hash"`
	BuiltAt    time.Time         `json:"built_at"`
	Codes      *models.Registry  `json:"codes"`
	Terms      *models.TermIndex `json:"terms"`
}

type passagesArtifact struct {
	SourceHash string           `json:"source_hash"`
	Passages   []models.Passage `json:"passages"`
}

// FileCache keeps a snapshot as two JSON files in one directory.
type FileCache struct {
	dir    string
	logger *zap.Logger
}

func NewFileCache(dir string, logger *zap.Logger) *FileCache {
	return &FileCache{dir: dir, logger: logger}
}

// Load returns the cached snapshot. Both artifacts must exist, parse, and
// come from the same source document; anything else is reported as absent.
func (c *FileCache) Load(_ context.Context) (*models.KnowledgeSnapshot, bool) {
	var codes codesArtifact
	if err := c.readJSON(codesFile, &codes); err != nil {
		c.logMiss(codesFile, err)
		return nil, false
	}

	var passages passagesArtifact
	if err := c.readJSON(passagesFile, &passages); err != nil {
		c.logMiss(passagesFile, err)
		return nil, false
	}

	if codes.SourceHash != passages.SourceHash {
		c.logger.Warn("Cache artifacts disagree on source document",
			zap.String("codes_hash", codes.SourceHash),
			zap.String("passages_hash", passages.SourceHash),
		)
		return nil, false
	}

	snapshot := &models.KnowledgeSnapshot{
		Codes:      codes.Codes,
		Terms:      codes.Terms,
		Passages:   passages.Passages,
		SourceHash: codes.SourceHash,
		BuiltAt:    codes.BuiltAt,
	}
	if snapshot.Codes == nil {
		snapshot.Codes = models.NewRegistry()
	}
	if snapshot.Terms == nil {
		snapshot.Terms = models.NewTermIndex()
	}
	if snapshot.Passages == nil {
		snapshot.Passages = []models.Passage{}
	}

	c.logger.Debug("Knowledge cache loaded",
		zap.String("dir", c.dir),
		zap.Int("codes", snapshot.Codes.Len()),
		zap.Int("passages", len(snapshot.Passages)),
	)
	return snapshot, true
}

// Save writes both artifacts. Each file is replaced atomically; passages
// go first so a crash in between leaves mismatched hashes, which Load
// rejects.
func (c *FileCache) Save(_ context.Context, snapshot *models.KnowledgeSnapshot) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	passages := passagesArtifact{SourceHash: snapshot.SourceHash, Passages: snapshot.Passages}
	if passages.Passages == nil {
		passages.Passages = []models.Passage{}
	}
	if err := c.writeJSON(passagesFile, passages); err != nil {
		return err
	}

	codes := codesArtifact{
		SourceHash: snapshot.SourceHash,
		BuiltAt:    snapshot.BuiltAt,
		Codes:      snapshot.Codes,
		Terms:      snapshot.Terms,
	}
	if codes.Codes == nil {
		codes.Codes = models.NewRegistry()
	}
	if codes.Terms == nil {
		codes.Terms = models.NewTermIndex()
	}
	if err := c.writeJSON(codesFile, codes); err != nil {
		return err
	}

	c.logger.Info("Knowledge cache saved", zap.String("dir", c.dir))
	return nil
}

// Invalidate removes both artifacts. Missing files are not an error.
func (c *FileCache) Invalidate(_ context.Context) error {
	var errs []error
	for _, name := range []string{codesFile, passagesFile} {
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (c *FileCache) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (c *FileCache) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(c.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(c.dir, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (c *FileCache) logMiss(name string, err error) {
	if errors.Is(err, os.ErrNotExist) {
		c.logger.Info("Knowledge cache not found", zap.String("file", name))
		return
	}
	c.logger.Warn("Knowledge cache unreadable, ignoring", zap.String("file", name), zap.Error(err))
}

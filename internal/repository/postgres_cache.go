package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hs-compliance/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// insertChunkSize bounds rows per INSERT to stay well under the
// PostgreSQL limit of 65535 bind parameters.
const insertChunkSize = 500

const schemaSQL = `
CREATE TABLE IF NOT EXISTS hs_cache_meta (
	id          SMALLINT PRIMARY KEY CHECK (id = 1),
	source_hash TEXT NOT NULL,
	built_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS hs_codes (
	position    INTEGER NOT NULL,
	code        TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	policy      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS hs_terms (
	position INTEGER NOT NULL,
	term     TEXT PRIMARY KEY,
	code     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS hs_passages (
	id        INTEGER PRIMARY KEY,
	content   TEXT NOT NULL,
	embedding REAL[] NOT NULL
);`

var cacheTables = []string{"hs_cache_meta", "hs_codes", "hs_terms", "hs_passages"}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// PostgresCache stores the snapshot in four tables. Position columns keep
// registry and term index insertion order.
type PostgresCache struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresCache(db *pgxpool.Pool, logger *zap.Logger) *PostgresCache {
	return &PostgresCache{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresCache) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}
	return nil
}

// Load reads the snapshot. A missing meta row or any query error is
// reported as absent.
func (r *PostgresCache) Load(ctx context.Context) (*models.KnowledgeSnapshot, bool) {
	snapshot, err := r.load(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Info("Knowledge cache not found in database")
		} else {
			r.logger.Warn("Knowledge cache unreadable, ignoring", zap.Error(err))
		}
		return nil, false
	}
	return snapshot, true
}

func (r *PostgresCache) load(ctx context.Context) (*models.KnowledgeSnapshot, error) {
	snapshot := models.NewEmptySnapshot()

	sql, args, err := psql.Select("source_hash", "built_at").From("hs_cache_meta").Where(squirrel.Eq{"id": 1}).ToSql()
	if err != nil {
		return nil, err
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&snapshot.SourceHash, &snapshot.BuiltAt); err != nil {
		return nil, err
	}

	if err := r.loadCodes(ctx, snapshot.Codes); err != nil {
		return nil, err
	}
	if err := r.loadTerms(ctx, snapshot.Terms); err != nil {
		return nil, err
	}
	passages, err := r.loadPassages(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.Passages = passages
	return snapshot, nil
}

func (r *PostgresCache) loadCodes(ctx context.Context, registry *models.Registry) error {
	sql, args, err := psql.Select("code", "description", "policy").From("hs_codes").OrderBy("position ASC").ToSql()
	if err != nil {
		return err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to query codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.ClassificationCode
		if err := rows.Scan(&c.Code, &c.Description, &c.Policy); err != nil {
			return fmt.Errorf("failed to scan code: %w", err)
		}
		registry.Upsert(c)
	}
	return rows.Err()
}

func (r *PostgresCache) loadTerms(ctx context.Context, terms *models.TermIndex) error {
	sql, args, err := psql.Select("term", "code").From("hs_terms").OrderBy("position ASC").ToSql()
	if err != nil {
		return err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to query terms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var term, code string
		if err := rows.Scan(&term, &code); err != nil {
			return fmt.Errorf("failed to scan term: %w", err)
		}
		terms.Put(term, code)
	}
	return rows.Err()
}

func (r *PostgresCache) loadPassages(ctx context.Context) ([]models.Passage, error) {
	sql, args, err := psql.Select("id", "content", "embedding").From("hs_passages").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query passages: %w", err)
	}
	defer rows.Close()

	passages := []models.Passage{}
	for rows.Next() {
		var p models.Passage
		var embeddingData pgtype.FlatArray[float32]
		if err := rows.Scan(&p.ID, &p.Content, &embeddingData); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		p.Embedding = []float32(embeddingData)
		passages = append(passages, p)
	}
	return passages, rows.Err()
}

// Save replaces the stored snapshot in a single transaction.
func (r *PostgresCache) Save(ctx context.Context, snapshot *models.KnowledgeSnapshot) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := truncateAll(ctx, tx); err != nil {
		return err
	}

	builtAt := snapshot.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now().UTC()
	}
	if err := execBuilder(ctx, tx, psql.Insert("hs_cache_meta").
		Columns("id", "source_hash", "built_at").
		Values(1, snapshot.SourceHash, builtAt)); err != nil {
		return fmt.Errorf("failed to insert cache meta: %w", err)
	}

	for _, q := range insertCodes(snapshot.Codes) {
		if err := execBuilder(ctx, tx, q); err != nil {
			return fmt.Errorf("failed to insert codes: %w", err)
		}
	}
	for _, q := range insertTerms(snapshot.Terms) {
		if err := execBuilder(ctx, tx, q); err != nil {
			return fmt.Errorf("failed to insert terms: %w", err)
		}
	}
	for _, q := range insertPassages(snapshot.Passages) {
		if err := execBuilder(ctx, tx, q); err != nil {
			return fmt.Errorf("failed to insert passages: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cache: %w", err)
	}

	r.logger.Info("Knowledge cache saved to database",
		zap.Int("codes", snapshot.Codes.Len()),
		zap.Int("terms", snapshot.Terms.Len()),
		zap.Int("passages", len(snapshot.Passages)),
	)
	return nil
}

// Invalidate empties every cache table. Running it on empty tables is a no-op.
func (r *PostgresCache) Invalidate(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := truncateAll(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func truncateAll(ctx context.Context, tx pgx.Tx) error {
	for _, table := range cacheTables {
		if err := execBuilder(ctx, tx, psql.Delete(table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func execBuilder(ctx context.Context, tx pgx.Tx, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, sql, args...)
	return err
}

func insertCodes(registry *models.Registry) []squirrel.InsertBuilder {
	var out []squirrel.InsertBuilder
	var q squirrel.InsertBuilder
	n := 0
	registry.Range(func(c models.ClassificationCode) bool {
		if n%insertChunkSize == 0 {
			if n > 0 {
				out = append(out, q)
			}
			q = psql.Insert("hs_codes").Columns("position", "code", "description", "policy")
		}
		q = q.Values(n, c.Code, c.Description, c.Policy)
		n++
		return true
	})
	if n > 0 {
		out = append(out, q)
	}
	return out
}

func insertTerms(terms *models.TermIndex) []squirrel.InsertBuilder {
	var out []squirrel.InsertBuilder
	var q squirrel.InsertBuilder
	n := 0
	terms.Range(func(term, code string) bool {
		if n%insertChunkSize == 0 {
			if n > 0 {
				out = append(out, q)
			}
			q = psql.Insert("hs_terms").Columns("position", "term", "code")
		}
		q = q.Values(n, term, code)
		n++
		return true
	})
	if n > 0 {
		out = append(out, q)
	}
	return out
}

func insertPassages(passages []models.Passage) []squirrel.InsertBuilder {
	var out []squirrel.InsertBuilder
	for start := 0; start < len(passages); start += insertChunkSize {
		end := min(start+insertChunkSize, len(passages))
		q := psql.Insert("hs_passages").Columns("id", "content", "embedding")
		for _, p := range passages[start:end] {
			embedding := pgtype.FlatArray[float32](p.Embedding)
			if embedding == nil {
				embedding = pgtype.FlatArray[float32]{}
			}
			q = q.Values(p.ID, p.Content, embedding)
		}
		out = append(out, q)
	}
	return out
}

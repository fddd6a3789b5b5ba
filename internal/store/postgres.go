package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/KaramelBytes/csvlens/internal/analysis"
	"github.com/KaramelBytes/csvlens/internal/apperrors"
	"github.com/KaramelBytes/csvlens/internal/logging"
)

// PostgresConfig holds database connection configuration.
type PostgresConfig struct {
	URL             string
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PostgresStore writes one datasets row plus child rows for every column
// profile, relationship and insight.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres creates a connection pool and verifies it with a ping. The
// schema must already be migrated, see RunMigrations.
func NewPostgres(ctx context.Context, cfg *PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 25
	}
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	if poolConfig.MaxConnLifetime == 0 {
		poolConfig.MaxConnLifetime = time.Hour
	}
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	if poolConfig.MaxConnIdleTime == 0 {
		poolConfig.MaxConnIdleTime = time.Minute * 30
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Connected to database", zap.String("url", logging.SanitizeConnectionString(cfg.URL)))
	return &PostgresStore{pool: pool, logger: logger.Named("pgstore")}, nil
}

func (s *PostgresStore) Save(ctx context.Context, filename string, res *analysis.Result) (string, error) {
	sum := newSummary(filename, res)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO datasets (id, filename, row_count, column_count, columns, schema_types, semantic_types, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sum.ID, sum.Filename, sum.RowCount, sum.ColumnCount,
		res.Columns, res.Schema, res.SemanticTypes, sum.CreatedAt,
	); err != nil {
		return "", fmt.Errorf("insert dataset: %w", err)
	}

	batch := &pgx.Batch{}
	for i, name := range res.Columns {
		p := res.Profiles[name]
		batch.Queue(`
			INSERT INTO column_profiles (dataset_id, position, name, inferred_type, semantic_type, stats, sample_values)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			sum.ID, i, p.Name, p.PhysicalType, p.SemanticType, p.Stats, p.SampleValues)
	}
	for i, r := range res.Relationships {
		batch.Queue(`
			INSERT INTO relationships (dataset_id, position, col_a, col_b, relation_type, strength, details)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			sum.ID, i, r.ColA, r.ColB, r.RelationType, r.Strength, r.Details)
	}
	for i, in := range res.Insights {
		batch.Queue(`
			INSERT INTO insights (dataset_id, position, title, detail, severity)
			VALUES ($1, $2, $3, $4, $5)`,
			sum.ID, i, in.Title, in.Detail, in.Severity)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return "", fmt.Errorf("insert children: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("Saved dataset", zap.String("id", sum.ID), zap.Int("columns", sum.ColumnCount))
	return sum.ID, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	rec := &Record{Result: &analysis.Result{}}
	var columns, schema, semantic []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, filename, row_count, column_count, columns, schema_types, semantic_types, created_at
		FROM datasets WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Filename, &rec.RowCount, &rec.ColumnCount, &columns, &schema, &semantic, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("dataset %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select dataset: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	res := rec.Result
	res.RowCount = rec.RowCount
	for _, f := range []struct {
		raw []byte
		dst any
	}{{columns, &res.Columns}, {schema, &res.Schema}, {semantic, &res.SemanticTypes}} {
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode dataset: %w", err)
		}
	}

	if res.Profiles, err = s.profiles(ctx, id); err != nil {
		return nil, err
	}
	if res.Relationships, err = s.relationships(ctx, id); err != nil {
		return nil, err
	}
	if res.Insights, err = s.insights(ctx, id); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) profiles(ctx context.Context, id string) (map[string]analysis.ColumnProfile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, inferred_type, semantic_type, stats, sample_values
		FROM column_profiles WHERE dataset_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("select profiles: %w", err)
	}
	defer rows.Close()
	out := make(map[string]analysis.ColumnProfile)
	for rows.Next() {
		var p analysis.ColumnProfile
		var stats, samples []byte
		if err := rows.Scan(&p.Name, &p.PhysicalType, &p.SemanticType, &stats, &samples); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		if err := json.Unmarshal(stats, &p.Stats); err != nil {
			return nil, fmt.Errorf("decode stats of %s: %w", p.Name, err)
		}
		if err := json.Unmarshal(samples, &p.SampleValues); err != nil {
			return nil, fmt.Errorf("decode samples of %s: %w", p.Name, err)
		}
		out[p.Name] = p
	}
	return out, rows.Err()
}

func (s *PostgresStore) relationships(ctx context.Context, id string) ([]analysis.Relationship, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT col_a, col_b, relation_type, COALESCE(strength, 0), details
		FROM relationships WHERE dataset_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("select relationships: %w", err)
	}
	defer rows.Close()
	out := make([]analysis.Relationship, 0)
	for rows.Next() {
		var r analysis.Relationship
		var details []byte
		if err := rows.Scan(&r.ColA, &r.ColB, &r.RelationType, &r.Strength, &details); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &r.Details); err != nil {
				return nil, fmt.Errorf("decode details: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) insights(ctx context.Context, id string) ([]analysis.Insight, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT title, detail, severity
		FROM insights WHERE dataset_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("select insights: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[analysis.Insight])
	if err != nil {
		return nil, fmt.Errorf("scan insights: %w", err)
	}
	if out == nil {
		out = make([]analysis.Insight, 0)
	}
	return out, nil
}

// List returns datasets newest first.
func (s *PostgresStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, filename, row_count, column_count, created_at
		FROM datasets ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Summary])
	if err != nil {
		return nil, fmt.Errorf("scan datasets: %w", err)
	}
	for i := range out {
		out[i].CreatedAt = out[i].CreatedAt.UTC()
	}
	if out == nil {
		out = make([]Summary, 0)
	}
	return out, nil
}

// Delete removes a dataset; child rows go with it through ON DELETE CASCADE.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dataset %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

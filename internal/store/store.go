// Package store persists analysis results keyed by a generated dataset
// identifier. Identifiers are assigned here and nowhere else.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/csvlens/internal/analysis"
	"github.com/KaramelBytes/csvlens/internal/apperrors"
	"github.com/KaramelBytes/csvlens/internal/config"
)

// Store is implemented by every persistence backend. Lookups of unknown IDs
// return an error wrapping apperrors.ErrNotFound.
type Store interface {
	Save(ctx context.Context, filename string, res *analysis.Result) (string, error)
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close()
}

// Summary is the listing view of a stored dataset.
type Summary struct {
	ID          string    `json:"id" yaml:"id"`
	Filename    string    `json:"filename" yaml:"filename"`
	RowCount    int       `json:"row_count" yaml:"row_count"`
	ColumnCount int       `json:"column_count" yaml:"column_count"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Record is a stored dataset with its full analysis.
type Record struct {
	Summary `yaml:",inline"`
	Result  *analysis.Result `json:"result" yaml:"result"`
}

func newSummary(filename string, res *analysis.Result) Summary {
	return Summary{
		ID:          uuid.NewString(),
		Filename:    filename,
		RowCount:    res.RowCount,
		ColumnCount: len(res.Columns),
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

// validID rejects anything that is not a UUID so IDs never reach a path or
// a typed query unchecked.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("dataset %q: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// Open builds the backend selected by cfg.Store. It returns a nil Store for
// "none".
func Open(ctx context.Context, cfg *config.Global, logger *zap.Logger) (Store, error) {
	switch cfg.Store {
	case config.StoreNone:
		return nil, nil
	case config.StorePostgres:
		s, err := NewPostgres(ctx, &PostgresConfig{URL: cfg.DatabaseURL, MaxConnections: cfg.DBMaxConns}, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreRedis:
		s, err := NewRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreFile, "":
		s, err := NewFileStore(cfg.DataDir, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

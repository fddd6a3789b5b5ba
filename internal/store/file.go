package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/csvlens/internal/analysis"
	"github.com/KaramelBytes/csvlens/internal/apperrors"
	"github.com/KaramelBytes/csvlens/internal/utils"
)

// FileStore keeps one <id>.json file per dataset in a directory.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store directory not set")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, logger: logger.Named("filestore")}, nil
}

func (s *FileStore) path(id string) string { return filepath.Join(s.dir, id+".json") }

func (s *FileStore) Save(ctx context.Context, filename string, res *analysis.Result) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rec := Record{Summary: newSummary(filename, res), Result: res}
	data, err := utils.PrettyJSON(rec)
	if err != nil {
		return "", err
	}
	if err := utils.SafeWriteFile(s.path(rec.ID), data); err != nil {
		return "", fmt.Errorf("save dataset: %w", err)
	}
	s.logger.Debug("Saved dataset", zap.String("id", rec.ID), zap.String("filename", filename))
	return rec.ID, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	return s.read(s.path(id))
}

func (s *FileStore) read(path string) (*Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dataset %s: %w", strings.TrimSuffix(filepath.Base(path), ".json"), apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", filepath.Base(path), err)
	}
	return &rec, nil
}

// List returns datasets newest first. Unreadable files are logged and skipped.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" || validID(strings.TrimSuffix(e.Name(), ".json")) != nil {
			continue
		}
		rec, err := s.read(filepath.Join(s.dir, e.Name()))
		if err != nil {
			s.logger.Warn("Skipping unreadable dataset file", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		out = append(out, rec.Summary)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("dataset %s: %w", id, apperrors.ErrNotFound)
		}
		return fmt.Errorf("delete dataset: %w", err)
	}
	return nil
}

// Ping checks that the directory is still usable.
func (s *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", s.dir)
	}
	return nil
}

func (s *FileStore) Close() {}

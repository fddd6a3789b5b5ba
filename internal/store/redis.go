package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/KaramelBytes/csvlens/internal/analysis"
	"github.com/KaramelBytes/csvlens/internal/apperrors"
	"github.com/KaramelBytes/csvlens/internal/logging"
)

const redisKeyPrefix = "csvlens:"

// RedisStore keeps each record as a JSON string plus a sorted-set index
// scored by creation time.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedis connects to the server at url (redis://[user:pass@]host:port/db)
// and verifies the connection.
func NewRedis(ctx context.Context, url string, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("Connected to Redis", zap.String("url", logging.SanitizeConnectionString(url)))
	return &RedisStore{client: client, prefix: redisKeyPrefix, logger: logger.Named("redisstore")}, nil
}

func (s *RedisStore) key(id string) string { return s.prefix + "dataset:" + id }

func (s *RedisStore) indexKey() string { return s.prefix + "datasets" }

func (s *RedisStore) Save(ctx context.Context, filename string, res *analysis.Result) (string, error) {
	rec := Record{Summary: newSummary(filename, res), Result: res}
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal dataset: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(rec.ID), b, 0)
		p.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(rec.CreatedAt.UnixMicro()), Member: rec.ID})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("save dataset: %w", err)
	}
	return rec.ID, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	b, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("dataset %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", id, err)
	}
	return &rec, nil
}

// List returns datasets newest first. Index entries whose record is gone
// are logged and skipped.
func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	out := make([]Summary, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			s.logger.Warn("Skipping stale index entry", zap.String("id", ids[i]))
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			s.logger.Warn("Skipping unreadable dataset", zap.String("id", ids[i]), zap.Error(err))
			continue
		}
		out = append(out, rec.Summary)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, s.key(id))
		p.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("dataset %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() {
	if err := s.client.Close(); err != nil {
		s.logger.Warn("Failed to close Redis client", zap.Error(err))
	}
}

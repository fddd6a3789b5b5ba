//go:build integration

package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/KaramelBytes/csvlens/internal/apperrors"
)

var (
	sharedURL     string
	sharedURLOnce sync.Once
	sharedURLErr  error
)

// testDatabaseURL starts one PostgreSQL container per test run and migrates
// it.
func testDatabaseURL(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}
	sharedURLOnce.Do(func() {
		sharedURL, sharedURLErr = setupDatabase()
	})
	if sharedURLErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedURLErr)
	}
	return sharedURL
}

func setupDatabase() (string, error) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "csvlens",
			"POSTGRES_USER":     "csvlens",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start test container: %w", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("failed to get container port: %w", err)
	}
	url := fmt.Sprintf("postgres://csvlens:test_password@%s:%s/csvlens?sslmode=disable", host, port.Port())
	if err := RunMigrations(url, zap.NewNop()); err != nil {
		return "", err
	}
	// second run is a no-op
	if err := RunMigrations(url, zap.NewNop()); err != nil {
		return "", err
	}
	return url, nil
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewPostgres(ctx, &PostgresConfig{URL: testDatabaseURL(t), MaxConnections: 5}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	res := sampleResult(t)
	id, err := s.Save(ctx, "orders.csv", res)
	require.NoError(t, err)

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "orders.csv", rec.Filename)
	assert.Equal(t, res.Columns, rec.Result.Columns)
	assert.Equal(t, res.Schema, rec.Result.Schema)
	assert.Equal(t, res.SemanticTypes, rec.Result.SemanticTypes)
	assert.Equal(t, res.Insights, rec.Result.Insights)
	require.Len(t, rec.Result.Relationships, len(res.Relationships))
	for i := range res.Relationships {
		assert.Equal(t, res.Relationships[i].ColA, rec.Result.Relationships[i].ColA)
		assert.InDelta(t, res.Relationships[i].Strength, rec.Result.Relationships[i].Strength, 1e-12)
	}
	require.Len(t, rec.Result.Profiles, 3)
	assert.Equal(t, res.Profiles["tag"].Stats, rec.Result.Profiles["tag"].Stats)

	list, err := s.List(ctx)
	require.NoError(t, err)
	found := false
	for _, sum := range list {
		found = found || sum.ID == id
	}
	assert.True(t, found)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, id), apperrors.ErrNotFound)

	var children int
	require.NoError(t, s.pool.QueryRow(ctx,
		`SELECT count(*) FROM column_profiles WHERE dataset_id = $1`, id).Scan(&children))
	assert.Zero(t, children, "profiles are removed with their dataset")
}

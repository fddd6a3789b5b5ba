package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/csvlens/internal/analysis"
	"github.com/KaramelBytes/csvlens/internal/apperrors"
	"github.com/KaramelBytes/csvlens/internal/config"
	"github.com/KaramelBytes/csvlens/internal/dataset"
)

func sampleResult(t *testing.T) *analysis.Result {
	t.Helper()
	id := dataset.Column{Name: "id", Kind: dataset.KindNumeric, DType: dataset.DTypeInt64}
	ref := dataset.Column{Name: "ref_id", Kind: dataset.KindNumeric, DType: dataset.DTypeInt64}
	tag := dataset.Column{Name: "tag", Kind: dataset.KindText, DType: dataset.DTypeObject}
	for i, r := range []int64{1, 1, 2, 3, 5} {
		id.Values = append(id.Values, dataset.Integer(int64(i+1)))
		ref.Values = append(ref.Values, dataset.Integer(r))
		tag.Values = append(tag.Values, dataset.Text("x"))
	}
	res, err := analysis.Analyze(context.Background(), dataset.MustNew(id, ref, tag), analysis.DefaultOptions())
	require.NoError(t, err)
	return res
}

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "datasets"), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestFileStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)
	res := sampleResult(t)

	id, err := s.Save(ctx, "orders.csv", res)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "orders.csv", rec.Filename)
	assert.Equal(t, 5, rec.RowCount)
	assert.Equal(t, 3, rec.ColumnCount)
	assert.Equal(t, res.Columns, rec.Result.Columns)
	assert.Equal(t, res.Schema, rec.Result.Schema)
	assert.Equal(t, res.SemanticTypes, rec.Result.SemanticTypes)
	assert.Equal(t, res.Relationships[0].ColA, rec.Result.Relationships[0].ColA)
	assert.Equal(t, res.Insights, rec.Result.Insights)
	assert.Equal(t, res.Profiles["tag"].Stats, rec.Result.Profiles["tag"].Stats)
	require.NotNil(t, rec.Result.Profiles["id"].Stats.Numeric)
	assert.Equal(t, *res.Profiles["id"].Stats.Numeric.Mean, *rec.Result.Profiles["id"].Stats.Numeric.Mean)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, id), apperrors.ErrNotFound)
}

func TestFileStore_RejectsNonUUIDs(t *testing.T) {
	s := newFileStore(t)
	_, err := s.Get(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), "nope"), apperrors.ErrNotFound)
}

func TestFileStore_List(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	s, err := NewFileStore(filepath.Join(t.TempDir(), "datasets"), zap.New(core))
	require.NoError(t, err)
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	res := sampleResult(t)
	a, err := s.Save(ctx, "a.csv", res)
	require.NoError(t, err)
	b, err := s.Save(ctx, "b.csv", res)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, uuid.NewString()+".json"), []byte("{broken"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "notes.txt"), []byte("x"), 0o644))

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	ids := []string{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []string{a, b}, ids)
	assert.False(t, list[0].CreatedAt.Before(list[1].CreatedAt))
	assert.Equal(t, 1, logs.FilterMessage("Skipping unreadable dataset file").Len())
}

func TestFileStore_Ping(t *testing.T) {
	s := newFileStore(t)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, os.RemoveAll(s.dir))
	assert.Error(t, s.Ping(context.Background()))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, &config.Global{Store: config.StoreNone}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(ctx, &config.Global{Store: config.StoreFile, DataDir: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	s.Close()

	_, err = Open(ctx, &config.Global{Store: "s3"}, zap.NewNop())
	assert.Error(t, err)
}

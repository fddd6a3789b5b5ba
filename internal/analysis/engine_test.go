package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/csvlens/internal/dataset"
)

func mixedDataset() *dataset.Dataset {
	return dataset.MustNew(
		intCol("id", 1, 2, 3, 4, 5, 6),
		intCol("ref_id", 1, 1, 2, 3, 5, 6),
		floatCol("price", 1.5, 2.5, nan, 4.5, 5.5, 6.5),
		textCol("email", "a@x.io", "b@x.io", "", "d@x.io", "e@x.io", "f@x.io"),
		textCol("color", "red", "red", "red", "red", "red", "blue"),
		timeCol("created", "2024-01-01", "2024-01-02", "", "2024-01-04", "2024-01-05", "2024-01-06"),
	)
}

func TestAnalyze_ProfilesEveryColumn(t *testing.T) {
	ds := mixedDataset()
	res, err := Analyze(context.Background(), ds, Options{Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, ds.Names(), res.Columns)
	assert.Equal(t, 6, res.RowCount)
	require.Len(t, res.Profiles, len(ds.Columns()))
	for _, name := range ds.Names() {
		p, ok := res.Profiles[name]
		require.True(t, ok, name)
		m := p.Stats.Map()
		for _, key := range []string{"count", "missing", "unique", "unique_ratio"} {
			assert.Contains(t, m, key, "%s lacks %s", name, key)
		}
		assert.LessOrEqual(t, p.Stats.Missing, p.Stats.Count)
		assert.GreaterOrEqual(t, p.Stats.UniqueRatio, 0.0)
		assert.LessOrEqual(t, p.Stats.UniqueRatio, 1.0)
		assert.LessOrEqual(t, len(p.SampleValues), SampleValuesLimit)
		assert.Equal(t, res.Schema[name], p.PhysicalType)
		assert.Equal(t, res.SemanticTypes[name], p.SemanticType)
	}

	assert.Equal(t, map[string]string{
		"id": "int64", "ref_id": "int64", "price": "float64",
		"email": "object", "color": "object", "created": "datetime64[ns]",
	}, res.Schema)
	assert.Equal(t, SemanticEmail, res.SemanticTypes["email"])
	assert.Equal(t, SemanticDatetime, res.SemanticTypes["created"])
	assert.Equal(t, SemanticNumeric, res.SemanticTypes["price"])
}

func TestAnalyze_Idempotent(t *testing.T) {
	ds := mixedDataset()
	first, err := Analyze(context.Background(), ds, Options{Workers: 1})
	require.NoError(t, err)
	second, err := Analyze(context.Background(), ds, Options{Workers: 8})
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("results differ (-first +second):\n%s", diff)
	}
	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAnalyze_AmountScenario(t *testing.T) {
	ds := dataset.MustNew(
		intCol("id", 1, 2, 3, 4, 5),
		intCol("amount", 10, 20, 30, 40, 1000),
	)
	res, err := Analyze(context.Background(), ds, DefaultOptions())
	require.NoError(t, err)

	n := res.Profiles["amount"].Stats.Numeric
	require.NotNil(t, n)
	assert.InDelta(t, 1000, *n.Max, 1e-9)
	assert.InDelta(t, 220, *n.Mean, 1e-9)
	assert.Empty(t, ofType(res.Relationships, RelationCorrelation))
	assert.Empty(t, res.Insights)
}

func TestAnalyze_EmptyDataset(t *testing.T) {
	ds := dataset.MustNew(textCol("a"), textCol("b"))
	res, err := Analyze(context.Background(), ds, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Profiles, 2)
	for _, name := range []string{"a", "b"} {
		st := res.Profiles[name].Stats
		assert.Equal(t, 0, st.Count)
		assert.Equal(t, 0, st.Missing)
		assert.Equal(t, 0, st.Unique)
		assert.Equal(t, 0.0, st.UniqueRatio)
		assert.Equal(t, SemanticUnknown, res.SemanticTypes[name])
	}
	assert.Empty(t, res.Relationships)
	assert.Empty(t, res.Insights)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"relationships":[]`)
	assert.Contains(t, string(b), `"insights":[]`)
}

func TestAnalyze_NoColumns(t *testing.T) {
	res, err := Analyze(context.Background(), dataset.MustNew(), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Schema)
	assert.Empty(t, res.Profiles)
}

func TestAnalyze_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Analyze(ctx, mixedDataset(), Options{Workers: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_ManyColumnsKeepOrder(t *testing.T) {
	var cols []dataset.Column
	for i := 0; i < 40; i++ {
		cols = append(cols, intCol(fmt.Sprintf("c%02d", i), int64(i), int64(i*2), int64(i*3)))
	}
	res, err := Analyze(context.Background(), dataset.MustNew(cols...), Options{Workers: 4})
	require.NoError(t, err)
	for i, name := range res.Columns {
		assert.Equal(t, fmt.Sprintf("c%02d", i), name)
	}
}

func TestResult_YAML(t *testing.T) {
	res, err := Analyze(context.Background(), mixedDataset(), DefaultOptions())
	require.NoError(t, err)
	out, err := yaml.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(out), "semantic_types:")
	assert.Contains(t, string(out), "unique_ratio:")
}

package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultMarkdown(t *testing.T) {
	res, err := Analyze(context.Background(), mixedDataset(), DefaultOptions())
	require.NoError(t, err)
	md := res.Markdown("orders.csv")

	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: orders.csv",
		"Rows: 6",
		"Columns: 6",
		"[SCHEMA]",
		"- price: float64/numeric",
		"- color: object/",
		"red(5), blue(1)",
		"- created: datetime64[ns]/datetime",
		"from 2024-01-01T00:00:00 to 2024-01-06T00:00:00",
		"[RELATIONSHIPS]",
		"- id -> ref_id: potential_fk",
		"[INSIGHTS]",
	} {
		assert.True(t, strings.Contains(md, want), "markdown missing %q:\n%s", want, md)
	}
}

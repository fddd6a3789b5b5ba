package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeBatch_OutDirAvoidsCollisions(t *testing.T) {
	home := setupHome(t)

	// Two CSV files with the same basename in different directories
	csv := "col1,col2\nA,1\nB,2\nC,3\n"
	writeFile(t, filepath.Join(home, "d1", "metrics.csv"), csv)
	writeFile(t, filepath.Join(home, "d2", "metrics.csv"), csv)
	outDir := filepath.Join(home, "reports")

	out := runCmd(t, "analyze-batch", filepath.Join(home, "d*", "metrics.csv"), "--out-dir", outDir, "--jobs", "2", "--quiet")
	assert.Contains(t, out, "✓ Wrote 2 reports")

	for _, name := range []string{"metrics.md", "metrics__2.md"} {
		body, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(body), "File: metrics.csv")
		assert.Contains(t, string(body), "[SCHEMA]")
	}

	// A second run never overwrites existing reports
	runCmd(t, "analyze-batch", filepath.Join(home, "d1", "metrics.csv"), "--out-dir", outDir, "--quiet")
	_, err := os.Stat(filepath.Join(outDir, "metrics__3.md"))
	assert.NoError(t, err)
}

func TestAnalyzeBatch_StdoutKeepsInputOrder(t *testing.T) {
	home := setupHome(t)
	writeFile(t, filepath.Join(home, "b.csv"), "x\n1\n2\n")
	writeFile(t, filepath.Join(home, "a.csv"), "y\nfoo\nbar\n")

	out := runCmd(t, "analyze-batch", filepath.Join(home, "*.csv"), "--jobs", "4", "--quiet")
	ia := strings.Index(out, "File: a.csv")
	ib := strings.Index(out, "File: b.csv")
	require.NotEqual(t, -1, ia)
	require.NotEqual(t, -1, ib)
	assert.Less(t, ia, ib)
}

func TestAnalyzeBatch_SavesEveryFile(t *testing.T) {
	home := setupHome(t)
	writeFile(t, filepath.Join(home, "in", "one.csv"), ordersCSV)
	writeFile(t, filepath.Join(home, "in", "two.csv"), ordersCSV)

	runCmd(t, "analyze-batch", filepath.Join(home, "in", "*.csv"), "--save", "--quiet", "--format", "json")
	saved, err := filepath.Glob(filepath.Join(home, ".csvlens", "datasets", "*.json"))
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestAnalyzeBatch_SaveMessagesShareProgressWriter(t *testing.T) {
	home := setupHome(t)
	names := []string{"a.csv", "b.csv", "c.csv", "d.csv"}
	for _, n := range names {
		writeFile(t, filepath.Join(home, "in", n), ordersCSV)
	}

	_, stderr, err := executeWithStderr("analyze-batch", filepath.Join(home, "in", "*.csv"), "--save", "--jobs", "4", "--format", "json")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(stderr, "\n"), "\n")
	var savedLines, processed int
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "✓ Saved "):
			savedLines++
			assert.Contains(t, l, " as dataset ")
		case strings.Contains(l, "] Processed "):
			processed++
		}
	}
	assert.Equal(t, len(names), savedLines, stderr)
	assert.Equal(t, len(names), processed, stderr)
	assert.Contains(t, stderr, "[4/4] Processed ")

	saved, err := filepath.Glob(filepath.Join(home, ".csvlens", "datasets", "*.json"))
	require.NoError(t, err)
	assert.Len(t, saved, len(names))
}

func TestAnalyzeBatch_SaveWithoutStoreFailsBeforeAnalysis(t *testing.T) {
	home := setupHome(t)
	t.Setenv("CSVLENS_STORE", "none")
	writeFile(t, filepath.Join(home, "in", "one.csv"), ordersCSV)
	outDir := filepath.Join(home, "reports")

	_, err := execute("analyze-batch", filepath.Join(home, "in", "*.csv"), "--save", "--out-dir", outDir)
	require.ErrorContains(t, err, "no dataset store configured")

	written, err := filepath.Glob(filepath.Join(outDir, "*"))
	require.NoError(t, err)
	assert.Empty(t, written)
}

func TestAnalyzeBatch_NoMatches(t *testing.T) {
	home := setupHome(t)
	_, err := execute("analyze-batch", filepath.Join(home, "nothing-*.csv"))
	assert.ErrorContains(t, err, "no input files matched")
}

func TestOutputPaths(t *testing.T) {
	dir := t.TempDir()
	got := outputPaths(dir, []string{"a/x.csv", "b/x.csv", "c/y.tsv"}, ".json")
	assert.Equal(t, []string{
		filepath.Join(dir, "x.json"),
		filepath.Join(dir, "x__2.json"),
		filepath.Join(dir, "y.json"),
	}, got)
}

func TestBatchProgress_PlainLines(t *testing.T) {
	var buf strings.Builder
	p := newBatchProgress(&buf, 2, false)
	p.done("a.csv")
	p.done("b.csv")
	assert.Equal(t, "[1/2] Processed a.csv\n[2/2] Processed b.csv\n", buf.String())

	buf.Reset()
	q := newBatchProgress(&buf, 1, true)
	q.done("a.csv")
	assert.Empty(t, buf.String())
}

func TestBatchProgress_Printf(t *testing.T) {
	var buf strings.Builder
	p := newBatchProgress(&buf, 1, false)
	p.printf("✓ Saved %s as dataset %s\n", "a.csv", "abc")
	p.done("a.csv")
	assert.Equal(t, "✓ Saved a.csv as dataset abc\n[1/1] Processed a.csv\n", buf.String())

	buf.Reset()
	q := newBatchProgress(&buf, 1, true)
	q.printf("✓ Saved %s as dataset %s\n", "a.csv", "abc")
	assert.Empty(t, buf.String())
}

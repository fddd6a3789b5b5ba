// Package analysis derives schema, semantic types, column profiles,
// relationships and insights from an in-memory dataset.
package analysis

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/csvlens/internal/dataset"
)

// Options tunes an analysis run.
type Options struct {
	// Workers bounds the per-column fan-out. Zero means runtime.NumCPU().
	Workers int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Workers: runtime.NumCPU()}
}

// Analyze runs every stage over ds. The result depends only on ds; the
// context only cancels the per-column fan-out.
func Analyze(ctx context.Context, ds *dataset.Dataset, opt Options) (*Result, error) {
	if opt.Workers <= 0 {
		opt.Workers = runtime.NumCPU()
	}
	cols := ds.Columns()

	semantic := make([]string, len(cols))
	stats := make([]Stats, len(cols))
	samples := make([][]any, len(cols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opt.Workers)
	for i := range cols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			semantic[i] = ClassifySemanticType(cols[i])
			stats[i] = ProfileColumn(cols[i])
			samples[i] = SampleValues(cols[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		Columns:       ds.Names(),
		RowCount:      ds.Rows(),
		Schema:        InferSchema(ds),
		SemanticTypes: make(map[string]string, len(cols)),
		Profiles:      make(map[string]ColumnProfile, len(cols)),
	}
	for i, c := range cols {
		res.SemanticTypes[c.Name] = semantic[i]
		res.Profiles[c.Name] = ColumnProfile{
			Name:         c.Name,
			PhysicalType: res.Schema[c.Name],
			SemanticType: semantic[i],
			Stats:        stats[i],
			SampleValues: samples[i],
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Relationships = DetectRelationships(ds)
	res.Insights = GenerateInsights(res.Columns, res.Profiles, res.Relationships)
	return res, nil
}

package analysis

import (
	"math"
	"strings"

	"github.com/KaramelBytes/csvlens/internal/dataset"
)

// DetectRelationships returns correlations between numeric columns followed
// by potential foreign keys. An empty slice means nothing qualified.
func DetectRelationships(ds *dataset.Dataset) []Relationship {
	rels := make([]Relationship, 0)
	rels = append(rels, correlations(ds)...)
	rels = append(rels, foreignKeys(ds)...)
	return rels
}

func correlations(ds *dataset.Dataset) []Relationship {
	type series struct {
		name string
		x    []float64
		ok   []bool
	}
	var num []series
	for _, c := range ds.Columns() {
		if c.Kind != dataset.KindNumeric {
			continue
		}
		s := series{name: c.Name, x: make([]float64, c.Len()), ok: make([]bool, c.Len())}
		for i, v := range c.Values {
			if v.Missing || math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
				continue
			}
			s.x[i], s.ok[i] = v.Num, true
		}
		num = append(num, s)
	}
	if len(num) < 2 {
		return nil
	}
	var out []Relationship
	for i := 0; i < len(num); i++ {
		for j := i + 1; j < len(num); j++ {
			r, ok := pearson(num[i].x, num[j].x, num[i].ok, num[j].ok)
			if !ok || math.Abs(r) < CorrelationMinAbs {
				continue
			}
			out = append(out, Relationship{
				ColA:         num[i].name,
				ColB:         num[j].name,
				RelationType: RelationCorrelation,
				Strength:     r,
				Details:      map[string]any{"method": "pearson"},
			})
		}
	}
	return out
}

// foreignKeys checks every ordered pair (A, B): A must look like a key and
// most of B's values must appear in A.
func foreignKeys(ds *dataset.Dataset) []Relationship {
	cols := ds.Columns()
	sets := make([]map[string]struct{}, len(cols))
	for i, c := range cols {
		set := make(map[string]struct{})
		for _, v := range c.Values {
			if !v.Missing {
				set[v.String(c.Kind)] = struct{}{}
			}
		}
		sets[i] = set
	}
	var out []Relationship
	for i, a := range cols {
		if !isCandidateKey(a, len(sets[i])) {
			continue
		}
		for j, b := range cols {
			if i == j {
				continue
			}
			overlap, ok := overlapRatio(b, sets[i])
			if !ok || overlap < ForeignKeyOverlap {
				continue
			}
			out = append(out, Relationship{
				ColA:         a.Name,
				ColB:         b.Name,
				RelationType: RelationPotentialFK,
				Strength:     overlap,
				Details:      map[string]any{"overlap_ratio": overlap},
			})
		}
	}
	return out
}

func isCandidateKey(c dataset.Column, unique int) bool {
	if unique == 0 {
		return false
	}
	if !strings.Contains(strings.ToLower(c.Name), "id") {
		return false
	}
	return float64(unique)/float64(max(c.Len(), 1)) >= CandidateKeyRatio
}

// overlapRatio is the share of b's non-missing values found in keys.
func overlapRatio(b dataset.Column, keys map[string]struct{}) (float64, bool) {
	var total, hits int
	for _, v := range b.Values {
		if v.Missing {
			continue
		}
		total++
		if _, ok := keys[v.String(b.Kind)]; ok {
			hits++
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(hits) / float64(total), true
}

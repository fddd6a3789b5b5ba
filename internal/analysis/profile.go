package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/csvlens/internal/dataset"
)

// ProfileColumn computes the statistics of one column. It never fails:
// statistics that cannot be computed are nil.
func ProfileColumn(col dataset.Column) Stats {
	counts, order := valueCounts(col)
	st := Stats{
		Count:       col.Len(),
		Missing:     col.MissingCount(),
		Unique:      len(order),
		UniqueRatio: float64(len(order)) / float64(max(col.Len(), 1)),
	}
	switch col.Kind {
	case dataset.KindNumeric:
		st.Numeric = numericStats(col)
	case dataset.KindDatetime:
		st.Temporal = temporalStats(col)
	default:
		st.TopValues = topValues(counts, order, TopValuesLimit)
	}
	return st
}

// SampleValues returns up to SampleValuesLimit non-missing values in row
// order as JSON-native values.
func SampleValues(col dataset.Column) []any {
	out := make([]any, 0, SampleValuesLimit)
	for _, v := range col.Values {
		if len(out) >= SampleValuesLimit {
			break
		}
		if v.Missing {
			continue
		}
		out = append(out, v.Native(col.Kind))
	}
	return out
}

// valueCounts counts non-missing values by text form. order lists distinct
// values by first occurrence.
func valueCounts(col dataset.Column) (map[string]int, []string) {
	counts := make(map[string]int)
	var order []string
	for _, v := range col.Values {
		if v.Missing {
			continue
		}
		s := v.String(col.Kind)
		if _, ok := counts[s]; !ok {
			order = append(order, s)
		}
		counts[s]++
	}
	return counts, order
}

func topValues(counts map[string]int, order []string, limit int) []ValueCount {
	out := make([]ValueCount, 0, len(order))
	for _, s := range order {
		out = append(out, ValueCount{Value: s, Count: counts[s]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func numericStats(col dataset.Column) *NumericStats {
	vals := make([]float64, 0, col.Len())
	for _, v := range col.Values {
		if v.Missing || math.IsNaN(v.Num) {
			continue
		}
		vals = append(vals, v.Num)
	}
	ns := &NumericStats{}
	if len(vals) == 0 {
		return ns
	}
	lo, hi := vals[0], vals[0]
	for _, x := range vals[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	mean, std := moments(vals)
	ns.Min = finite(lo)
	ns.Max = finite(hi)
	ns.Mean = finite(mean)
	ns.Median = finite(median(vals))
	ns.Std = finite(std)
	return ns
}

func temporalStats(col dataset.Column) *TemporalStats {
	ts := &TemporalStats{}
	var found bool
	var lo, hi dataset.Value
	for _, v := range col.Values {
		if v.Missing {
			continue
		}
		if !found {
			lo, hi, found = v, v, true
			continue
		}
		if v.Time.Before(lo.Time) {
			lo = v
		}
		if v.Time.After(hi.Time) {
			hi = v
		}
	}
	if !found {
		return ts
	}
	minS := dataset.FormatTimestamp(lo.Time)
	maxS := dataset.FormatTimestamp(hi.Time)
	ts.Min, ts.Max = &minS, &maxS
	return ts
}

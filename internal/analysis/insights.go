package analysis

import (
	"fmt"
	"math"
)

// GenerateInsights derives observations from profiles, in column order, then
// from relationships in the order given.
func GenerateInsights(columns []string, profiles map[string]ColumnProfile, rels []Relationship) []Insight {
	out := make([]Insight, 0)
	for _, name := range columns {
		p, ok := profiles[name]
		if !ok {
			continue
		}
		out = append(out, columnInsights(name, p.Stats)...)
	}
	for _, r := range rels {
		if r.RelationType != RelationCorrelation || math.Abs(r.Strength) < StrongCorrelationAbs {
			continue
		}
		out = append(out, Insight{
			Title:    fmt.Sprintf("Strong correlation between %s and %s", r.ColA, r.ColB),
			Detail:   fmt.Sprintf("Pearson correlation is %.2f.", r.Strength),
			Severity: SeverityInfo,
		})
	}
	return out
}

func columnInsights(name string, st Stats) []Insight {
	var out []Insight
	missRatio := float64(st.Missing) / float64(max(st.Count, 1))
	if st.Count > 0 && missRatio >= HighMissingRatio {
		out = append(out, Insight{
			Title:    "High missing values in " + name,
			Detail:   fmt.Sprintf("%d of %d rows are missing (%.0f%%).", st.Missing, st.Count, missRatio*100),
			Severity: SeverityWarning,
		})
	}
	if st.Count > 0 && st.UniqueRatio <= LowVarianceRatio {
		out = append(out, Insight{
			Title:    "Low variance in " + name,
			Detail:   fmt.Sprintf("%s has very low uniqueness (unique ratio %.2f).", name, st.UniqueRatio),
			Severity: SeverityInfo,
		})
	}
	present := st.Count - st.Missing
	if len(st.TopValues) > 0 && present > 0 {
		top := st.TopValues[0]
		if float64(top.Count)/float64(present) >= DominantCategoryRate {
			out = append(out, Insight{
				Title:    "Dominant category in " + name,
				Detail:   fmt.Sprintf("Value '%s' appears in %d of %d non-missing rows.", top.Value, top.Count, present),
				Severity: SeverityInfo,
			})
		}
	}
	return out
}

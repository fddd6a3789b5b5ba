package analysis

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Result) Markdown(name string) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Rows: %s\n", humanize.Comma(int64(r.RowCount))))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Columns)))

	b.WriteString("[SCHEMA]\n")
	for _, col := range r.Columns {
		p := r.Profiles[col]
		st := p.Stats
		missPct := 0.0
		if st.Count > 0 {
			missPct = float64(st.Missing) * 100.0 / float64(st.Count)
		}
		b.WriteString(fmt.Sprintf("- %s: %s/%s (unique %d, missing %.1f%%)",
			safeName(col), p.PhysicalType, p.SemanticType, st.Unique, missPct))
		switch {
		case st.Numeric != nil && st.Numeric.Mean != nil:
			n := st.Numeric
			b.WriteString(fmt.Sprintf(" — min %s, max %s, mean %s, median %s, std %s",
				fmtNum(n.Min), fmtNum(n.Max), fmtNum(n.Mean), fmtNum(n.Median), fmtNum(n.Std)))
		case st.Temporal != nil && st.Temporal.Min != nil:
			b.WriteString(fmt.Sprintf(" — from %s to %s", *st.Temporal.Min, *st.Temporal.Max))
		case len(st.TopValues) > 0:
			b.WriteString(" — top: ")
			for i, kv := range st.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
		b.WriteString("\n")
	}

	if len(r.Relationships) > 0 {
		b.WriteString("\n[RELATIONSHIPS]\n")
		for _, rel := range r.Relationships {
			switch rel.RelationType {
			case RelationCorrelation:
				b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", rel.ColA, rel.ColB, rel.Strength))
			default:
				b.WriteString(fmt.Sprintf("- %s -> %s: %s (overlap %.0f%%)\n", rel.ColA, rel.ColB, rel.RelationType, rel.Strength*100))
			}
		}
	}

	if len(r.Insights) > 0 {
		b.WriteString("\n[INSIGHTS]\n")
		for _, in := range r.Insights {
			b.WriteString(fmt.Sprintf("- [%s] %s: %s\n", in.Severity, in.Title, in.Detail))
		}
	}
	return b.String()
}

func fmtNum(f *float64) string {
	if f == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", *f)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

package analysis

import (
	"encoding/json"
	"fmt"
)

// Result is the aggregate produced by Analyze.
type Result struct {
	Columns       []string                 `json:"columns" yaml:"columns"`
	RowCount      int                      `json:"row_count" yaml:"row_count"`
	Schema        map[string]string        `json:"schema" yaml:"schema"`
	SemanticTypes map[string]string        `json:"semantic_types" yaml:"semantic_types"`
	Profiles      map[string]ColumnProfile `json:"profiles" yaml:"profiles"`
	Relationships []Relationship           `json:"relationships" yaml:"relationships"`
	Insights      []Insight                `json:"insights" yaml:"insights"`
}

// ColumnProfile describes a single column.
type ColumnProfile struct {
	Name         string `json:"name" yaml:"name"`
	PhysicalType string `json:"physical_type" yaml:"physical_type"`
	SemanticType string `json:"semantic_type" yaml:"semantic_type"`
	Stats        Stats  `json:"stats" yaml:"stats"`
	SampleValues []any  `json:"sample_values" yaml:"sample_values"`
}

// Relationship links two columns. For correlations the pair is unordered and
// emitted once; for potential_fk ColA is the candidate key.
type Relationship struct {
	ColA         string         `json:"col_a" yaml:"col_a"`
	ColB         string         `json:"col_b" yaml:"col_b"`
	RelationType string         `json:"relation_type" yaml:"relation_type"`
	Strength     float64        `json:"strength" yaml:"strength"`
	Details      map[string]any `json:"details" yaml:"details"`
}

// Insight is a human-readable observation.
type Insight struct {
	Title    string `json:"title" yaml:"title"`
	Detail   string `json:"detail" yaml:"detail"`
	Severity string `json:"severity" yaml:"severity"`
}

// ValueCount is one entry of a top-value histogram.
type ValueCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// NumericStats holds moments of a numeric column. Nil means no valid number.
type NumericStats struct {
	Min    *float64 `json:"min" yaml:"min"`
	Max    *float64 `json:"max" yaml:"max"`
	Mean   *float64 `json:"mean" yaml:"mean"`
	Median *float64 `json:"median" yaml:"median"`
	Std    *float64 `json:"std" yaml:"std"`
}

// TemporalStats holds the range of a datetime column as ISO strings.
type TemporalStats struct {
	Min *string `json:"min" yaml:"min"`
	Max *string `json:"max" yaml:"max"`
}

// Stats is the per-column statistics map. At most one of Numeric, Temporal
// and TopValues applies; it is serialized as a single flat object.
type Stats struct {
	Count       int
	Missing     int
	Unique      int
	UniqueRatio float64
	Numeric     *NumericStats
	Temporal    *TemporalStats
	TopValues   []ValueCount
}

// Map returns the flat representation used for JSON, YAML and storage.
func (s Stats) Map() map[string]any {
	m := map[string]any{
		"count":        s.Count,
		"missing":      s.Missing,
		"unique":       s.Unique,
		"unique_ratio": s.UniqueRatio,

		"null_ratio":        s.NullRatio(),
		"cardinality_ratio": s.CardinalityRatio(),
	}
	switch {
	case s.Numeric != nil:
		m["min"] = s.Numeric.Min
		m["max"] = s.Numeric.Max
		m["mean"] = s.Numeric.Mean
		m["median"] = s.Numeric.Median
		m["std"] = s.Numeric.Std
	case s.Temporal != nil:
		m["min"] = s.Temporal.Min
		m["max"] = s.Temporal.Max
	case s.TopValues != nil:
		m["top_values"] = s.TopValues
	}
	return m
}

// NullRatio is missing / count, 0 for an empty column.
func (s Stats) NullRatio() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Missing) / float64(s.Count)
}

// CardinalityRatio is unique / non-missing, 0 when every value is missing.
func (s Stats) CardinalityRatio() float64 {
	present := s.Count - s.Missing
	if present <= 0 {
		return 0
	}
	return float64(s.Unique) / float64(present)
}

func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

func (s Stats) MarshalYAML() (any, error) {
	return s.Map(), nil
}

func (s *Stats) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var out Stats
	for key, dst := range map[string]any{
		"count": &out.Count, "missing": &out.Missing,
		"unique": &out.Unique, "unique_ratio": &out.UniqueRatio,
	} {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("stats %s: %w", key, err)
			}
		}
	}
	_, hasMean := raw["mean"]
	_, hasMin := raw["min"]
	switch {
	case hasMean:
		var n NumericStats
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("numeric stats: %w", err)
		}
		out.Numeric = &n
	case hasMin:
		var t TemporalStats
		if err := json.Unmarshal(b, &t); err != nil {
			return fmt.Errorf("temporal stats: %w", err)
		}
		out.Temporal = &t
	}
	if v, ok := raw["top_values"]; ok {
		out.TopValues = []ValueCount{}
		if err := json.Unmarshal(v, &out.TopValues); err != nil {
			return fmt.Errorf("stats top_values: %w", err)
		}
	}
	*s = out
	return nil
}

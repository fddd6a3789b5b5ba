package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/csvlens/internal/dataset"
)

// naTokens are the cell spellings treated as missing.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

func isNA(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

// timestampLayouts are the ISO-style forms promoted to a datetime column.
var timestampLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339,
	time.RFC3339Nano,
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, l := range timestampLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseNumeric parses a float honoring configured decimal and thousands
// separators. Unlike the spreadsheet-friendly variant it never guesses the
// locale: "1,5" stays text unless DecimalSeparator is ','.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" || strings.ContainsAny(raw, "xX_") {
		return 0, false
	}
	if opt.ThousandsSeparator != 0 && opt.ThousandsSeparator != opt.DecimalSeparator {
		raw = strings.ReplaceAll(raw, string(opt.ThousandsSeparator), "")
	}
	if opt.DecimalSeparator != 0 && opt.DecimalSeparator != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(opt.DecimalSeparator), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseInteger(s string, opt Options) (int64, bool) {
	raw := strings.TrimSpace(s)
	if opt.ThousandsSeparator != 0 {
		raw = strings.ReplaceAll(raw, string(opt.ThousandsSeparator), "")
	}
	i, err := strconv.ParseInt(raw, 10, 64)
	return i, err == nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// inferColumn decides the physical type of raw cells and converts them.
// Order: int64 (no missing) → bool (no missing) → float64 → datetime → object.
// A column with rows but no values is float64, an empty column is object.
func inferColumn(name string, raw []string, opt Options) dataset.Column {
	col := dataset.Column{Name: name, Kind: dataset.KindText, DType: dataset.DTypeObject}
	if len(raw) == 0 {
		return col
	}
	missing := make([]bool, len(raw))
	nMissing := 0
	for i, s := range raw {
		if isNA(s) {
			missing[i] = true
			nMissing++
		}
	}

	if nMissing == len(raw) {
		col.Kind, col.DType = dataset.KindNumeric, dataset.DTypeFloat64
		col.Values = make([]dataset.Value, len(raw))
		for i := range col.Values {
			col.Values[i] = dataset.Missing()
		}
		return col
	}

	if nMissing == 0 {
		if vals, ok := convert(raw, missing, func(s string) (dataset.Value, bool) {
			i, ok := parseInteger(s, opt)
			return dataset.Integer(i), ok
		}); ok {
			col.Kind, col.DType, col.Values = dataset.KindNumeric, dataset.DTypeInt64, vals
			return col
		}
		if vals, ok := convert(raw, missing, func(s string) (dataset.Value, bool) {
			b, ok := parseBool(s)
			return dataset.Boolean(b), ok
		}); ok {
			col.Kind, col.DType, col.Values = dataset.KindBoolean, dataset.DTypeBool, vals
			return col
		}
	}
	if vals, ok := convert(raw, missing, func(s string) (dataset.Value, bool) {
		f, ok := parseNumeric(s, opt)
		return dataset.Float(f), ok
	}); ok {
		col.Kind, col.DType, col.Values = dataset.KindNumeric, dataset.DTypeFloat64, vals
		return col
	}
	if vals, ok := convert(raw, missing, func(s string) (dataset.Value, bool) {
		t, ok := parseTimestamp(strings.TrimSpace(s))
		return dataset.Timestamp(t), ok
	}); ok {
		col.Kind, col.DType, col.Values = dataset.KindDatetime, dataset.DTypeDatetime, vals
		return col
	}

	col.Values = make([]dataset.Value, len(raw))
	for i, s := range raw {
		if missing[i] {
			col.Values[i] = dataset.Missing()
		} else {
			col.Values[i] = dataset.Text(s)
		}
	}
	return col
}

func convert(raw []string, missing []bool, parse func(string) (dataset.Value, bool)) ([]dataset.Value, bool) {
	out := make([]dataset.Value, len(raw))
	for i, s := range raw {
		if missing[i] {
			out[i] = dataset.Missing()
			continue
		}
		v, ok := parse(s)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Package dataset holds the in-memory tabular value produced by ingestion and
// read by the analysis engine. Datasets are immutable once built.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/KaramelBytes/csvlens/internal/apperrors"
)

// Kind is the physical storage kind of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindDatetime
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindDatetime:
		return "datetime"
	case KindBoolean:
		return "boolean"
	default:
		return "text"
	}
}

// Physical dtype names reported by the schema inferrer.
const (
	DTypeInt64    = "int64"
	DTypeFloat64  = "float64"
	DTypeBool     = "bool"
	DTypeDatetime = "datetime64[ns]"
	DTypeObject   = "object"
)

// Value is a single cell. Only the payload matching the column kind is set.
type Value struct {
	Missing bool
	Str     string
	Num     float64
	Int     bool // Num holds an integer (int64 columns)
	Bool    bool
	Time    time.Time
}

// Missing returns the missing marker.
func Missing() Value { return Value{Missing: true} }

// Text returns a text cell.
func Text(s string) Value { return Value{Str: s} }

// Float returns a numeric cell. NaN is stored as missing.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Missing()
	}
	return Value{Num: f}
}

// Integer returns an integral numeric cell.
func Integer(i int64) Value { return Value{Num: float64(i), Int: true} }

// Boolean returns a boolean cell.
func Boolean(b bool) Value { return Value{Bool: b} }

// Timestamp returns a datetime cell.
func Timestamp(t time.Time) Value { return Value{Time: t} }

// String renders the canonical text form of the value for the given kind.
// Missing values render as the empty string.
func (v Value) String(k Kind) string {
	if v.Missing {
		return ""
	}
	switch k {
	case KindNumeric:
		return FormatNumber(v.Num, v.Int)
	case KindBoolean:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindDatetime:
		return FormatTimestamp(v.Time)
	default:
		return v.Str
	}
}

// Native returns the value as a JSON-friendly Go value, or nil when missing.
func (v Value) Native(k Kind) any {
	if v.Missing {
		return nil
	}
	switch k {
	case KindNumeric:
		if v.Int {
			return int64(v.Num)
		}
		if math.IsInf(v.Num, 0) {
			return FormatNumber(v.Num, false)
		}
		return v.Num
	case KindBoolean:
		return v.Bool
	case KindDatetime:
		return FormatTimestamp(v.Time)
	default:
		return v.Str
	}
}

// FormatNumber renders integers without a fractional part and integral
// floats with a trailing ".0".
func FormatNumber(f float64, integer bool) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case integer:
		return strconv.FormatInt(int64(f), 10)
	case f == math.Trunc(f) && math.Abs(f) < 1e16:
		return strconv.FormatFloat(f, 'f', 1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// FormatTimestamp renders t in ISO-8601 form without a zone suffix for UTC.
func FormatTimestamp(t time.Time) string {
	layout := "2006-01-02T15:04:05"
	if t.Nanosecond() != 0 {
		layout = "2006-01-02T15:04:05.999999999"
	}
	if _, off := t.Zone(); off != 0 {
		layout += "Z07:00"
	}
	return t.Format(layout)
}

// Column is a named, physically typed sequence of cells.
type Column struct {
	Name   string
	Kind   Kind
	DType  string
	Values []Value
}

// Len returns the number of rows.
func (c Column) Len() int { return len(c.Values) }

// NonMissing returns the non-missing cells in row order.
func (c Column) NonMissing() []Value {
	out := make([]Value, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.Missing {
			out = append(out, v)
		}
	}
	return out
}

// MissingCount returns the number of missing cells.
func (c Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.Missing {
			n++
		}
	}
	return n
}

// Texts returns the canonical text form of the first limit non-missing
// values; limit <= 0 means all.
func (c Column) Texts(limit int) []string {
	var out []string
	for _, v := range c.Values {
		if v.Missing {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, v.String(c.Kind))
	}
	return out
}

// Dataset is an ordered set of uniquely named columns with equal row counts.
type Dataset struct {
	columns []Column
	rows    int
}

// New validates and wraps columns. Names must be unique and every column
// must have the same number of rows.
func New(columns []Column) (*Dataset, error) {
	seen := make(map[string]struct{}, len(columns))
	rows := 0
	for i, c := range columns {
		if _, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}
		if i == 0 {
			rows = c.Len()
		} else if c.Len() != rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", apperrors.ErrRaggedColumns, c.Name, c.Len(), rows)
		}
	}
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &Dataset{columns: cols, rows: rows}, nil
}

// MustNew is like New but panics on invalid input. Intended for tests and
// fixtures.
func MustNew(columns ...Column) *Dataset {
	ds, err := New(columns)
	if err != nil {
		panic(err)
	}
	return ds
}

// Rows returns the row count.
func (d *Dataset) Rows() int { return d.rows }

// Columns returns the columns in order. Callers must not modify the cells.
func (d *Dataset) Columns() []Column { return d.columns }

// Names returns column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.columns))
	for i, c := range d.columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (Column, bool) {
	for _, c := range d.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

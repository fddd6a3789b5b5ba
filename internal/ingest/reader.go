// Package ingest turns raw CSV bytes into a dataset.Dataset. It sniffs the
// encoding and delimiter, then tries progressively more forgiving parse
// strategies so that messy uploads still produce a best-effort table.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/csvlens/internal/apperrors"
	"github.com/KaramelBytes/csvlens/internal/dataset"
)

// Parse strategy names, in the order they are attempted.
const (
	StrategyStrict      = "strict"
	StrategyLenient     = "lenient"
	StrategySkipBadRows = "skip_bad_rows"
)

// Options controls ingestion.
type Options struct {
	// Encoding forces the input encoding; empty means auto-detect.
	Encoding string
	// Delimiter for CSV. If 0, sniffed from the first SniffBytes bytes.
	Delimiter rune
	// SniffBytes is the sample size used for delimiter detection.
	SniffBytes int
	// Numeric locale. Zero values mean '.' decimal and no thousands grouping.
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// DefaultOptions returns the defaults used by the CLI and the HTTP server.
func DefaultOptions() Options {
	return Options{SniffBytes: 5000}
}

// Report describes how an input was read.
type Report struct {
	Encoding    string `json:"encoding" yaml:"encoding"`
	Delimiter   string `json:"delimiter" yaml:"delimiter"`
	Strategy    string `json:"strategy" yaml:"strategy"`
	SkippedRows int    `json:"skipped_rows" yaml:"skipped_rows"`
	Rows        int    `json:"rows" yaml:"rows"`
	Columns     int    `json:"columns" yaml:"columns"`
}

// Supported reports whether the filename has an accepted tabular extension.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv":
		return true
	}
	return false
}

// Read parses r into a dataset. It fails only when the input has no header
// row at all, or when ctx is cancelled.
func Read(ctx context.Context, r io.Reader, opt Options) (*dataset.Dataset, *Report, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}
	return ReadBytes(ctx, raw, opt)
}

// ReadBytes is Read over an in-memory buffer.
func ReadBytes(ctx context.Context, raw []byte, opt Options) (*dataset.Dataset, *Report, error) {
	rep := &Report{Encoding: opt.Encoding}
	if rep.Encoding == "" {
		rep.Encoding = DetectEncoding(raw)
	}
	text, err := Decode(raw, rep.Encoding)
	if err != nil {
		return nil, nil, err
	}
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, nil, apperrors.ErrEmptyInput
	}

	delim := opt.Delimiter
	if delim == 0 {
		n := opt.SniffBytes
		if n <= 0 {
			n = 5000
		}
		sample := text
		if len(sample) > n {
			sample = sample[:n]
		}
		delim = SniffDelimiter(sample)
	}
	rep.Delimiter = string(delim)

	strategies := []struct {
		name string
		fn   func(string, rune) ([][]string, int, error)
	}{
		{StrategyStrict, readStrict},
		{StrategyLenient, readLenient},
		{StrategySkipBadRows, readSkippingBadRows},
	}
	var records [][]string
	var lastErr error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		recs, skipped, err := s.fn(text, delim)
		if err != nil {
			lastErr = err
			continue
		}
		records = recs
		rep.Strategy = s.name
		rep.SkippedRows = skipped
		lastErr = nil
		break
	}
	if lastErr != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", lastErr)
	}
	if len(records) == 0 {
		return nil, nil, apperrors.ErrEmptyInput
	}

	ds, err := build(records, opt)
	if err != nil {
		return nil, nil, err
	}
	rep.Rows = ds.Rows()
	rep.Columns = len(ds.Columns())
	return ds, rep, nil
}

func newReader(text string, delim rune) *csv.Reader {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	return r
}

// readStrict requires well-formed quoting and a constant field count.
func readStrict(text string, delim rune) ([][]string, int, error) {
	r := newReader(text, delim)
	r.FieldsPerRecord = 0
	recs, err := r.ReadAll()
	return recs, 0, err
}

// readLenient accepts stray quotes and ragged rows.
func readLenient(text string, delim rune) ([][]string, int, error) {
	r := newReader(text, delim)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	recs, err := r.ReadAll()
	return recs, 0, err
}

// readSkippingBadRows drops records the reader cannot parse. It only errors
// when not even a header survives.
func readSkippingBadRows(text string, delim rune) ([][]string, int, error) {
	r := newReader(text, delim)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var recs [][]string
	skipped := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			skipped++
			continue
		}
		if err != nil {
			break
		}
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return nil, skipped, apperrors.ErrEmptyInput
	}
	return recs, skipped, nil
}

func build(records [][]string, opt Options) (*dataset.Dataset, error) {
	header := uniqueHeader(records[0])
	ncol := len(header)
	body := records[1:]
	cols := make([]dataset.Column, ncol)
	for j := 0; j < ncol; j++ {
		cells := make([]string, len(body))
		for i, rec := range body {
			if j < len(rec) {
				cells[i] = rec[j]
			}
		}
		cols[j] = inferColumn(header[j], cells, opt)
	}
	return dataset.New(cols)
}

// uniqueHeader names blank headers "Unnamed: i" and suffixes duplicates
// with ".1", ".2", ...
func uniqueHeader(rec []string) []string {
	out := make([]string, len(rec))
	seen := make(map[string]int, len(rec))
	for i, h := range rec {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if _, dup := seen[name]; dup {
			base := name
			for {
				seen[base]++
				name = base + "." + strconv.Itoa(seen[base])
				if _, taken := seen[name]; !taken {
					break
				}
			}
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

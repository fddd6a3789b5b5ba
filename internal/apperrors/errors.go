package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyInput        = errors.New("no columns to parse from input")
	ErrDuplicateColumn   = errors.New("duplicate column name")
	ErrRaggedColumns     = errors.New("columns have different row counts")
)

package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names reported by DetectEncoding.
const (
	EncUTF8      = "utf-8"
	EncUTF8BOM   = "utf-8-sig"
	EncUTF16LE   = "utf-16le"
	EncUTF16BE   = "utf-16be"
	EncWin1252   = "windows-1252"
	EncISO88591  = "iso-8859-1"
	encSniffSize = 64 << 10
)

// DetectEncoding guesses the text encoding of raw bytes. A byte order mark
// wins; valid UTF-8 is reported as utf-8; anything else is treated as a
// single-byte Western encoding, picking windows-1252 when C1 bytes that are
// printable in cp1252 occur.
func DetectEncoding(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}):
		return EncUTF8BOM
	case bytes.HasPrefix(b, []byte{0xFF, 0xFE}):
		return EncUTF16LE
	case bytes.HasPrefix(b, []byte{0xFE, 0xFF}):
		return EncUTF16BE
	}
	sample := b
	if len(sample) > encSniffSize {
		sample = sample[:encSniffSize]
		// avoid splitting a multi-byte rune at the cut
		for i := 0; i < utf8.UTFMax && len(sample) > 0 && !utf8.Valid(sample); i++ {
			sample = sample[:len(sample)-1]
		}
	}
	// NUL bytes are valid UTF-8, so BOM-less UTF-16 is checked first
	if looksUTF16(sample) {
		return EncUTF16LE
	}
	if utf8.Valid(sample) {
		return EncUTF8
	}
	var c1 int
	for _, c := range sample {
		if c >= 0x80 && c <= 0x9F {
			c1++
		}
	}
	if c1 > 0 {
		return EncWin1252
	}
	return EncISO88591
}

// looksUTF16 reports BOM-less little-endian UTF-16 text: ASCII with every
// odd byte zero.
func looksUTF16(b []byte) bool {
	if len(b) < 4 {
		return false
	}
	zeros := 0
	pairs := len(b) / 2
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] != 0 && b[i+1] == 0 {
			zeros++
		}
	}
	return float64(zeros)/float64(pairs) > 0.9
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncUTF8, "utf8":
		return nil, nil
	case EncUTF8BOM:
		return unicode.UTF8BOM, nil
	case EncUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case EncUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case EncWin1252, "cp1252":
		return charmap.Windows1252, nil
	case EncISO88591, "latin-1", "latin1":
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
}

// Decode converts raw bytes in the named encoding to UTF-8. Invalid
// sequences are replaced rather than reported.
func Decode(b []byte, name string) (string, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return strings.ToValidUTF8(string(b), "\uFFFD"), nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), nil
}

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"console", "json", ""} {
		logger, err := New("debug", format)
		require.NoError(t, err, format)
		assert.NotNil(t, logger)
	}
	_, err := New("loud", "console")
	assert.Error(t, err)
	_, err = New("info", "xml")
	assert.Error(t, err)
}

func TestSanitizeConnectionString(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"postgres://app:s3cret@db:5432/csvlens", "postgres://[REDACTED]@db:5432/csvlens"},
		{"host=db user=app password=s3cret dbname=x", "host=db user=app password=[REDACTED] dbname=x"},
		{"postgres://db:5432/csvlens", "postgres://db:5432/csvlens"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeConnectionString(tc.in), tc.in)
	}
}

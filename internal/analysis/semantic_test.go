package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KaramelBytes/csvlens/internal/dataset"
)

func TestClassifySemanticType(t *testing.T) {
	many := func(n int, f func(i int) string) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = f(i)
		}
		return out
	}

	cases := []struct {
		name string
		col  dataset.Column
		want string
	}{
		{"empty column", textCol("email", "", ""), SemanticUnknown},
		{"no rows", textCol("anything"), SemanticUnknown},
		{"name beats numeric values", intCol("user_email", 1, 2, 3), SemanticEmail},
		{"e-mail token", textCol("E-Mail Address", "x"), SemanticEmail},
		{"website", textCol("Website", "x"), SemanticURL},
		{"mobile", textCol("mobile_no", "x"), SemanticPhone},
		{"zip", textCol("ZIP", "x"), SemanticPostalCode},
		{"city", textCol("city", "Paris"), SemanticAddress},
		{"first name", textCol("first_name", "Ada"), SemanticPersonName},
		{"email pattern", textCol("contact", "a@b.io", "c@d.org", "e@f.com", "g@h.net", "oops"), SemanticEmail},
		{"url pattern", textCol("col", "https://x.io", "http://y.io", "www.z.io", "WWW.q.io"), SemanticURL},
		{"phone pattern", textCol("col", "+1 555 123 4567", "555 123 4567", "555-123-4567"), SemanticPhone},
		{"short digit runs are not phones", textCol("col", "12-34", "56-78", "99-00"), SemanticText},
		{"zip pattern", textCol("col", "12345", "12345-6789", "90210"), SemanticPostalCode},
		{"slashed iso dates", textCol("col", "2024/01/01", "2024/02/03", "2024/03/15"), SemanticDatetime},
		{"day first dates", textCol("col", "31/01/2024", "28/02/2024", "15/03/2024"), SemanticDatetime},
		{"dotted dates", textCol("col", "31.01.2024", "28.02.2024", "15.03.2024"), SemanticDatetime},
		{"datetime kind", timeCol("col", "2024-01-01", ""), SemanticDatetime},
		{"numeric kind", floatCol("col", 1.5, 2.25, nan), SemanticNumeric},
		{"boolean tokens", textCol("col", "Yes", "no", " TRUE ", "0"), SemanticBoolean},
		{"categorical", textCol("col", many(100, func(i int) string { return []string{"red", "green"}[i%2] })...), SemanticCategorical},
		{"fifty distinct values stay categorical", textCol("col", many(1000, func(i int) string { return fmt.Sprintf("v%d", i%50) })...), SemanticCategorical},
		{"sixty distinct values are text", textCol("col", many(1000, func(i int) string { return fmt.Sprintf("v%d", i%60) })...), SemanticText},
		{"free text", textCol("col", many(20, func(i int) string { return fmt.Sprintf("note %d", i) })...), SemanticText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifySemanticType(tc.col))
		})
	}
}

func TestClassifySemanticType_DatetimeNeedsNinetyPercent(t *testing.T) {
	vals := make([]string, 0, 10)
	for i := 1; i <= 8; i++ {
		vals = append(vals, fmt.Sprintf("2024/01/%02d", i))
	}
	vals = append(vals, "soon", "later")
	assert.NotEqual(t, SemanticDatetime, ClassifySemanticType(textCol("col", vals...)))

	vals[8] = "2024/01/09"
	assert.Equal(t, SemanticDatetime, ClassifySemanticType(textCol("col", vals...)))
}

func TestClassifySemanticType_PatternUsesFirstHundred(t *testing.T) {
	vals := make([]string, 0, 200)
	for i := 0; i < 100; i++ {
		vals = append(vals, fmt.Sprintf("u%d@example.com", i))
	}
	for i := 0; i < 100; i++ {
		vals = append(vals, fmt.Sprintf("word%d", i))
	}
	assert.Equal(t, SemanticEmail, ClassifySemanticType(textCol("col", vals...)))
}

func TestClassifySemanticType_Deterministic(t *testing.T) {
	col := textCol("col", "a", "b", "a", "c", "", "a")
	first := ClassifySemanticType(col)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ClassifySemanticType(col))
	}
}

package analysis

import (
	"regexp"
	"strings"
	"time"

	"github.com/KaramelBytes/csvlens/internal/dataset"
)

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	urlRe   = regexp.MustCompile(`(?i)^https?://|^www\.`)
	phoneRe = regexp.MustCompile(`^\+?\d[\d\-\s\(\)]{6,}\d$`)
	zipRe   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// dateLayouts is tried in order; the first layout parsing enough of the
// column wins even if a later one would parse more.
var dateLayouts = []string{
	"2006-1-2",
	"2/1/2006",
	"1/2/2006",
	"2006-1-2 15:04:05",
	"2006/1/2",
	"2-1-2006",
	"1-2-2006",
	"20060102",
	"2.1.2006",
	"1.2.2006",
}

var booleanTokens = map[string]struct{}{
	"true": {}, "false": {}, "0": {}, "1": {}, "yes": {}, "no": {},
}

// columnView caches what the rules look at so each is computed once.
type columnView struct {
	col     dataset.Column
	name    string
	present int
	sample  []string
	unique  int
}

func newColumnView(col dataset.Column) *columnView {
	v := &columnView{
		col:    col,
		name:   strings.ToLower(col.Name),
		sample: col.Texts(SemanticSampleSize),
	}
	seen := make(map[string]struct{})
	for _, val := range col.Values {
		if val.Missing {
			continue
		}
		v.present++
		seen[val.String(col.Kind)] = struct{}{}
	}
	v.unique = len(seen)
	return v
}

type semanticRule struct {
	label string
	match func(*columnView) bool
}

// semanticRules is evaluated top to bottom; the first match wins.
var semanticRules = []semanticRule{
	{SemanticUnknown, func(v *columnView) bool { return v.present == 0 }},

	{SemanticEmail, nameHas("email", "e-mail")},
	{SemanticURL, nameHas("url", "link", "website")},
	{SemanticPhone, nameHas("phone", "mobile", "tel")},
	{SemanticPostalCode, nameHas("zip", "postal")},
	{SemanticAddress, nameHas("address", "street", "city", "state", "country")},
	{SemanticPersonName, nameHas("first_name", "last_name", "fullname", "name")},

	{SemanticEmail, samplePattern(emailRe.MatchString)},
	{SemanticURL, samplePattern(urlRe.MatchString)},
	{SemanticPhone, samplePattern(isPhone)},
	{SemanticPostalCode, samplePattern(zipRe.MatchString)},

	{SemanticDatetime, parsesAsDate},
	{SemanticNumeric, func(v *columnView) bool { return v.col.Kind == dataset.KindNumeric }},
	{SemanticBoolean, sampleAllBoolean},
	{SemanticCategorical, isCategorical},
}

// ClassifySemanticType returns the best-guess semantic label of a column.
// Columns matching no rule are text.
func ClassifySemanticType(col dataset.Column) string {
	v := newColumnView(col)
	for _, r := range semanticRules {
		if r.match(v) {
			return r.label
		}
	}
	return SemanticText
}

func nameHas(tokens ...string) func(*columnView) bool {
	return func(v *columnView) bool {
		for _, t := range tokens {
			if strings.Contains(v.name, t) {
				return true
			}
		}
		return false
	}
}

func samplePattern(match func(string) bool) func(*columnView) bool {
	return func(v *columnView) bool {
		if len(v.sample) == 0 {
			return false
		}
		hits := 0
		for _, s := range v.sample {
			if match(s) {
				hits++
			}
		}
		return float64(hits)/float64(len(v.sample)) >= PatternMatchRatio
	}
}

func isPhone(s string) bool {
	if !phoneRe.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= PhoneMinDigits
}

// parsesAsDate tries every layout against the whole column.
func parsesAsDate(v *columnView) bool {
	if v.col.Kind == dataset.KindDatetime {
		return true
	}
	texts := v.col.Texts(0)
	if len(texts) == 0 {
		return false
	}
	for _, layout := range dateLayouts {
		ok := 0
		for _, s := range texts {
			if _, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				ok++
			}
		}
		if float64(ok)/float64(len(texts)) >= DatetimeParseRatio {
			return true
		}
	}
	return false
}

func sampleAllBoolean(v *columnView) bool {
	if len(v.sample) == 0 {
		return false
	}
	for _, s := range v.sample {
		if _, ok := booleanTokens[strings.ToLower(strings.TrimSpace(s))]; !ok {
			return false
		}
	}
	return true
}

func isCategorical(v *columnView) bool {
	ratio := float64(v.unique) / float64(max(v.col.Len(), 1))
	return ratio <= CategoricalUniqueRatio && v.unique <= CategoricalMaxUnique
}

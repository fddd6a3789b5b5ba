package ingest

import (
	"math"
	"strings"
)

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// SniffDelimiter picks the field delimiter from a text sample. For every
// candidate it counts occurrences outside quotes on each complete line and
// prefers the candidate present on every line with the most consistent
// count. Ties keep candidate order; ',' is the fallback.
func SniffDelimiter(sample string) rune {
	lines := strings.Split(strings.ReplaceAll(sample, "\r\n", "\n"), "\n")
	// the last line may be cut mid-record
	if len(lines) > 1 && !strings.HasSuffix(sample, "\n") {
		lines = lines[:len(lines)-1]
	}
	var kept []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return ','
	}

	best := ','
	bestScore := -1.0
	for _, cand := range delimiterCandidates {
		counts := make([]int, len(kept))
		present := 0
		for i, l := range kept {
			counts[i] = countOutsideQuotes(l, cand)
			if counts[i] > 0 {
				present++
			}
		}
		if present == 0 {
			continue
		}
		mode, modeFreq := modeOf(counts)
		if mode == 0 {
			continue
		}
		// consistency first, then how many lines carry the delimiter at all
		score := float64(modeFreq)/float64(len(kept))*1000 + float64(present)/float64(len(kept))
		if score > bestScore+1e-9 {
			best = cand
			bestScore = score
		}
	}
	return best
}

func countOutsideQuotes(line string, delim rune) int {
	n := 0
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			n++
		}
	}
	return n
}

func modeOf(counts []int) (mode, freq int) {
	freqs := map[int]int{}
	for _, c := range counts {
		freqs[c]++
	}
	freq = math.MinInt
	for _, c := range counts {
		if f := freqs[c]; f > freq || (f == freq && c > mode) {
			mode, freq = c, f
		}
	}
	return mode, freq
}

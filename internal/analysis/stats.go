package analysis

import (
	"math"
	"sort"
)

// moments computes mean and sample standard deviation with Welford's update.
// std is NaN for fewer than two values.
func moments(vals []float64) (mean, std float64) {
	var n int
	var m2 float64
	for _, x := range vals {
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
	}
	if n < 2 {
		return mean, math.NaN()
	}
	return mean, math.Sqrt(m2 / float64(n-1))
}

func median(vals []float64) float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return quantile(cp, 0.5)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// pearson returns the correlation of x and y over rows where both are
// present. ok is false when fewer than two pairs exist or either side is
// constant.
func pearson(x, y []float64, xok, yok []bool) (r float64, ok bool) {
	var n, sumX, sumY float64
	for i := range x {
		if xok[i] && yok[i] {
			n++
			sumX += x[i]
			sumY += y[i]
		}
	}
	if n < 2 {
		return 0, false
	}
	meanX, meanY := sumX/n, sumY/n
	var sxx, syy, sxy float64
	for i := range x {
		if xok[i] && yok[i] {
			dx, dy := x[i]-meanX, y[i]-meanY
			sxx += dx * dx
			syy += dy * dy
			sxy += dx * dy
		}
	}
	denom := math.Sqrt(sxx * syy)
	if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return 0, false
	}
	r = sxy / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	if math.IsNaN(r) {
		return 0, false
	}
	return r, true
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

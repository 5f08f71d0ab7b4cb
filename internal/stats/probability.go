package stats

import (
	"math"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// Percentile returns the q-quantile of the non-missing values using linear
// interpolation between closest ranks at position (n-1)*q. It is NaN when
// no values are present.
func Percentile(values []float64, q float64) (float64, error) {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return nan, ErrInvalidQuantile
	}
	v := sortedValid(values)
	if len(v) == 0 {
		return nan, nil
	}
	return quantileSorted(v, q), nil
}

func quantileSorted(sorted []float64, q float64) float64 {
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

// EmpiricalProbability is the share of non-missing values satisfying pred.
// It returns 0 when every value is missing.
func EmpiricalProbability(values []float64, pred func(float64) bool) float64 {
	var hits, total int
	for _, x := range values {
		if math.IsNaN(x) {
			continue
		}
		total++
		if pred(x) {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// AtLeast matches x >= threshold.
func AtLeast(threshold float64) func(float64) bool {
	return func(x float64) bool { return x >= threshold }
}

// Above matches x > threshold.
func Above(threshold float64) func(float64) bool {
	return func(x float64) bool { return x > threshold }
}

// SymptomPresenceCount counts rows whose text contains target, ignoring
// case. Missing text counts as absent; total is every row. An empty target
// matches nothing.
func SymptomPresenceCount(texts []null.String, target string) (matches, total int) {
	needle := strings.ToLower(strings.TrimSpace(target))
	for _, s := range texts {
		if needle != "" && s.Valid && strings.Contains(strings.ToLower(s.String), needle) {
			matches++
		}
	}
	return matches, len(texts)
}

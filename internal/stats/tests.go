package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Alpha is the fixed significance level used for every Reject decision.
const Alpha = 0.05

// TTestResult is the outcome of Welch's two-sample t-test.
type TTestResult struct {
	T      float64
	DF     float64
	P      float64
	MeanA  float64
	MeanB  float64
	NA     int
	NB     int
	Reject bool
}

// WelchTTest compares the means of a and b without assuming equal
// variances. Missing values are dropped from each sample independently.
// The p-value is two-sided.
func WelchTTest(a, b []float64) (TTestResult, error) {
	va, vb := valid(a), valid(b)
	if len(va) < 2 {
		return TTestResult{}, &InsufficientSampleError{Sample: "a", Size: len(va), Min: 2}
	}
	if len(vb) < 2 {
		return TTestResult{}, &InsufficientSampleError{Sample: "b", Size: len(vb), Min: 2}
	}
	na, nb := float64(len(va)), float64(len(vb))
	ma, sa := stat.MeanVariance(va, nil)
	mb, sb := stat.MeanVariance(vb, nil)
	ea, eb := sa/na, sb/nb
	se := math.Sqrt(ea + eb)
	if se == 0 {
		return TTestResult{}, ErrZeroVariance
	}
	t := (ma - mb) / se
	df := (ea + eb) * (ea + eb) / (ea*ea/(na-1) + eb*eb/(nb-1))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := clampP(2 * dist.CDF(-math.Abs(t)))
	return TTestResult{
		T: t, DF: df, P: p,
		MeanA: ma, MeanB: mb,
		NA: len(va), NB: len(vb),
		Reject: p < Alpha,
	}, nil
}

// ZTestResult is the outcome of a pooled two-proportion z-test.
type ZTestResult struct {
	P1     float64
	P2     float64
	Pooled float64
	SE     float64
	Z      float64
	P      float64
	Reject bool
}

// TwoProportionZTest tests p1 == p2 for x1 successes out of n1 trials
// against x2 out of n2, using the pooled proportion for the standard error.
func TwoProportionZTest(x1, n1, x2, n2 int) (ZTestResult, error) {
	if n1 <= 0 {
		return ZTestResult{}, &InsufficientSampleError{Sample: "a", Size: n1, Min: 1}
	}
	if n2 <= 0 {
		return ZTestResult{}, &InsufficientSampleError{Sample: "b", Size: n2, Min: 1}
	}
	if x1 < 0 || x1 > n1 || x2 < 0 || x2 > n2 {
		return ZTestResult{}, ErrInvalidCount
	}
	f1, f2 := float64(n1), float64(n2)
	p1 := float64(x1) / f1
	p2 := float64(x2) / f2
	pool := float64(x1+x2) / (f1 + f2)
	se := math.Sqrt(pool * (1 - pool) * (1/f1 + 1/f2))
	if se == 0 {
		return ZTestResult{}, ErrZeroVariance
	}
	z := (p1 - p2) / se
	p := clampP(2 * distuv.UnitNormal.CDF(-math.Abs(z)))
	return ZTestResult{P1: p1, P2: p2, Pooled: pool, SE: se, Z: z, P: p, Reject: p < Alpha}, nil
}

func clampP(p float64) float64 {
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

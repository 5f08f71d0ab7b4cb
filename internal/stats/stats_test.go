package stats

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

func TestDescribe(t *testing.T) {
	s := Describe([]float64{4, nan, 1, 3, 2})
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.Std, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.InDelta(t, 1.75, s.Q25, 1e-12)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.InDelta(t, 3.25, s.Q75, 1e-12)
	assert.Equal(t, 4.0, s.Max)
}

func TestDescribeEmptyAndSingle(t *testing.T) {
	empty := Describe([]float64{nan, nan})
	assert.Equal(t, 0, empty.Count)
	for _, v := range []float64{empty.Mean, empty.Std, empty.Min, empty.Q25, empty.Median, empty.Q75, empty.Max} {
		assert.True(t, math.IsNaN(v))
	}
	one := Describe([]float64{7})
	assert.Equal(t, 7.0, one.Mean)
	assert.True(t, math.IsNaN(one.Std))
	assert.Equal(t, 7.0, one.Median)
}

func TestDescribeByYear(t *testing.T) {
	ages := []float64{30, 40, 50, 60}
	years := []int{2023, 2023, 2024, 2024}
	got, err := DescribeBy(context.Background(), ages, years)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2023, got[0].Key)
	assert.InDelta(t, 35, got[0].Mean, 1e-12)
	assert.Equal(t, 2024, got[1].Key)
	assert.InDelta(t, 55, got[1].Mean, 1e-12)
	assert.Equal(t, 2, got[1].Count)
}

func TestDescribeByGroupWithOnlyMissing(t *testing.T) {
	got, err := DescribeBy(context.Background(), []float64{nan, 10}, []int{2022, 2024})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Count)
	assert.True(t, math.IsNaN(got[0].Mean))
}

func TestDescribeByLengthMismatch(t *testing.T) {
	_, err := DescribeBy(context.Background(), []float64{1, 2}, []int{2022})
	require.Error(t, err)
}

func TestWelchTTestKnownValues(t *testing.T) {
	res, err := WelchTTest([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10})
	require.NoError(t, err)
	assert.InDelta(t, -1.8973665961, res.T, 1e-9)
	assert.InDelta(t, 5.8823529412, res.DF, 1e-9)
	assert.InDelta(t, 0.10753, res.P, 1e-3)
	assert.False(t, res.Reject)

	res, err = WelchTTest([]float64{30, 40, 35, nan, 50, 45, 38}, []float64{55, 60, 52, 70, 65, nan})
	require.NoError(t, err)
	assert.Equal(t, 6, res.NA)
	assert.Equal(t, 5, res.NB)
	assert.InDelta(t, -4.7435329699, res.T, 1e-9)
	assert.InDelta(t, 0.0012124, res.P, 1e-4)
	assert.True(t, res.Reject)
}

func TestWelchTTestProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := make([]float64, 2+rng.Intn(30))
		b := make([]float64, 2+rng.Intn(30))
		shift := rng.Float64()*10 - 5
		for j := range a {
			a[j] = rng.NormFloat64()*(1+rng.Float64()) + shift
		}
		for j := range b {
			b[j] = rng.NormFloat64() * (1 + rng.Float64()*3)
		}
		res, err := WelchTTest(a, b)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.P, 0.0)
		assert.LessOrEqual(t, res.P, 1.0)
		diff := res.MeanA - res.MeanB
		if diff != 0 {
			assert.Equal(t, math.Signbit(diff), math.Signbit(res.T), "iteration %d", i)
		}
	}
}

func TestWelchTTestDegenerate(t *testing.T) {
	_, err := WelchTTest([]float64{1}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrInsufficientSample)
	var ise *InsufficientSampleError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "a", ise.Sample)

	_, err = WelchTTest([]float64{1, 2}, []float64{nan, 3})
	assert.ErrorIs(t, err, ErrInsufficientSample)

	_, err = WelchTTest([]float64{2, 2, 2}, []float64{5, 5})
	assert.ErrorIs(t, err, ErrZeroVariance)
}

func TestTwoProportionZTest(t *testing.T) {
	res, err := TwoProportionZTest(50, 100, 70, 100)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.P1, 1e-12)
	assert.InDelta(t, 0.7, res.P2, 1e-12)
	assert.InDelta(t, 0.6, res.Pooled, 1e-12)
	assert.InDelta(t, math.Sqrt(0.6*0.4*0.02), res.SE, 1e-12)
	assert.Greater(t, math.Abs(res.Z), 2.0)
	assert.InDelta(t, -2.8867513459, res.Z, 1e-9)
	assert.InDelta(t, 0.0038924, res.P, 1e-6)
	assert.Less(t, res.P, 0.05)
	assert.True(t, res.Reject)
}

func TestTwoProportionZTestSymmetric(t *testing.T) {
	cases := [][4]int{{50, 100, 70, 100}, {3, 17, 9, 40}, {0, 10, 5, 12}, {12, 12, 1, 30}}
	for _, c := range cases {
		ab, err := TwoProportionZTest(c[0], c[1], c[2], c[3])
		require.NoError(t, err)
		ba, err := TwoProportionZTest(c[2], c[3], c[0], c[1])
		require.NoError(t, err)
		assert.InDelta(t, -ab.Z, ba.Z, 1e-12)
		assert.InDelta(t, ab.P, ba.P, 1e-12)
	}
}

func TestTwoProportionZTestGuards(t *testing.T) {
	_, err := TwoProportionZTest(0, 0, 5, 10)
	assert.ErrorIs(t, err, ErrInsufficientSample)
	_, err = TwoProportionZTest(5, 10, 0, 0)
	assert.ErrorIs(t, err, ErrInsufficientSample)
	_, err = TwoProportionZTest(11, 10, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = TwoProportionZTest(0, 10, 0, 20)
	assert.ErrorIs(t, err, ErrZeroVariance)
	_, err = TwoProportionZTest(10, 10, 20, 20)
	assert.ErrorIs(t, err, ErrZeroVariance)
}

func TestPercentile(t *testing.T) {
	p, err := Percentile([]float64{3, 1, 4, 1, 5, 9, 2, 6}, 0.75)
	require.NoError(t, err)
	assert.InDelta(t, 5.25, p, 1e-12)

	p, err = Percentile([]float64{nan, 10}, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 10.0, p)

	p, err = Percentile([]float64{nan}, 0.5)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(p))

	_, err = Percentile([]float64{1}, 1.01)
	assert.ErrorIs(t, err, ErrInvalidQuantile)
}

func TestPercentileHalfIsMedian(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 100; i++ {
		v := make([]float64, 1+rng.Intn(50))
		for j := range v {
			v[j] = rng.Float64() * 100
		}
		p, err := Percentile(v, 0.5)
		require.NoError(t, err)
		assert.InDelta(t, Describe(v).Median, p, 1e-12)
	}
}

func TestEmpiricalProbability(t *testing.T) {
	ages := []float64{20, 35, nan, 50, 34}
	assert.InDelta(t, 0.5, EmpiricalProbability(ages, AtLeast(35)), 1e-12)
	assert.InDelta(t, 0.25, EmpiricalProbability(ages, Above(35)), 1e-12)
	assert.Equal(t, 0.0, EmpiricalProbability([]float64{nan, nan}, AtLeast(0)))
	assert.Equal(t, 0.0, EmpiricalProbability(nil, AtLeast(0)))
}

func TestSymptomPresenceCount(t *testing.T) {
	texts := []null.String{
		null.StringFrom("Febre, Tosse"),
		null.StringFrom("tosse"),
		null.StringFrom("FEBRE"),
		{},
		null.StringFrom(""),
	}
	m, n := SymptomPresenceCount(texts, "febre")
	assert.Equal(t, 2, m)
	assert.Equal(t, 5, n)
	m, n = SymptomPresenceCount(texts, "  ")
	assert.Equal(t, 0, m)
	assert.Equal(t, 5, n)
}

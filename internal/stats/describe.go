// Package stats holds the statistical core: descriptive summaries,
// hypothesis tests and empirical probabilities. Every function is pure and
// treats NaN as a missing value.
package stats

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary mirrors the usual count/mean/std/min/quartiles/max table.
type Summary struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// GroupSummary is a Summary for one group key.
type GroupSummary struct {
	Key int
	Summary
}

// Describe summarizes the non-missing values. With no values every
// statistic is NaN; with one value Std is NaN (sample deviation).
func Describe(values []float64) Summary {
	v := sortedValid(values)
	s := Summary{Count: len(v)}
	if len(v) == 0 {
		s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	s.Mean = stat.Mean(v, nil)
	s.Std = nan
	if len(v) > 1 {
		s.Std = math.Sqrt(stat.Variance(v, nil))
	}
	s.Min = floats.Min(v)
	s.Max = floats.Max(v)
	s.Q25 = quantileSorted(v, 0.25)
	s.Median = quantileSorted(v, 0.5)
	s.Q75 = quantileSorted(v, 0.75)
	return s
}

// DescribeBy groups values by the aligned keys and describes each group.
// Groups are returned in ascending key order.
func DescribeBy(ctx context.Context, values []float64, keys []int) ([]GroupSummary, error) {
	if len(values) != len(keys) {
		return nil, fmt.Errorf("describe by group: %d values but %d keys", len(values), len(keys))
	}
	groups := map[int][]float64{}
	for i, k := range keys {
		groups[k] = append(groups[k], values[i])
	}
	order := make([]int, 0, len(groups))
	for k := range groups {
		order = append(order, k)
	}
	sort.Ints(order)

	out := make([]GroupSummary, len(order))
	g, ctx := errgroup.WithContext(ctx)
	for i, k := range order {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = GroupSummary{Key: k, Summary: Describe(groups[k])}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

var nan = math.NaN()

// valid returns the non-NaN values, in input order.
func valid(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, x := range values {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

func sortedValid(values []float64) []float64 {
	v := valid(values)
	sort.Float64s(v)
	return v
}

package stats

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientSample indicates a sample too small for the requested test.
	ErrInsufficientSample = errors.New("insufficient sample size")
	// ErrZeroVariance indicates a test statistic with a zero standard error.
	ErrZeroVariance = errors.New("zero variance: test statistic undefined")
	// ErrInvalidCount indicates successes outside [0, trials].
	ErrInvalidCount = errors.New("successes must be within [0, trials]")
	// ErrInvalidQuantile indicates q outside [0, 1].
	ErrInvalidQuantile = errors.New("quantile must be within [0, 1]")
)

// InsufficientSampleError names the sample that was too small.
type InsufficientSampleError struct {
	Sample string
	Size   int
	Min    int
}

func (e *InsufficientSampleError) Error() string {
	return fmt.Sprintf("%s: sample %s has %d observations, need at least %d", ErrInsufficientSample, e.Sample, e.Size, e.Min)
}

func (e *InsufficientSampleError) Unwrap() error { return ErrInsufficientSample }

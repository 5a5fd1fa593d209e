package ensemble

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	ErrInvalidParam = errors.New("invalid parameter")
	ErrNotFitted    = errors.New("estimator is not fitted")
)

// ParamError names a hyperparameter and the value that failed validation.
type ParamError struct {
	Param  string
	Value  any
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s must be %s, got %v", e.Param, e.Reason, e.Value)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParam }

// SizeKind says how a Size is read. The zero kind means everything.
type SizeKind int

const (
	SizeAll SizeKind = iota
	SizeCount
	SizeFraction
)

// Size is a row or column budget given either as a count or as a fraction
// of what is available. Only the zero value means everything: Count(0) and
// Fraction(0) are rejected at fit time.
type Size struct {
	Kind     SizeKind
	Count    int
	Fraction float64
}

func Count(n int) Size { return Size{Kind: SizeCount, Count: n} }

func Fraction(f float64) Size { return Size{Kind: SizeFraction, Fraction: f} }

func (s Size) String() string {
	switch s.Kind {
	case SizeCount:
		return fmt.Sprintf("%d", s.Count)
	case SizeFraction:
		return fmt.Sprintf("%g", s.Fraction)
	}
	return "1.0"
}

func (s Size) resolve(param string, n int) (int, error) {
	switch s.Kind {
	case SizeAll:
		return n, nil
	case SizeCount:
		if s.Count < 1 || s.Count > n {
			return 0, &ParamError{Param: param, Value: s.Count, Reason: fmt.Sprintf("in [1, %d]", n)}
		}
		return s.Count, nil
	case SizeFraction:
		if !(s.Fraction > 0 && s.Fraction <= 1) {
			return 0, &ParamError{Param: param, Value: s.Fraction, Reason: "in (0, 1]"}
		}
		k := int(s.Fraction * float64(n))
		if k < 1 {
			return 0, &ParamError{Param: param, Value: s.Fraction, Reason: fmt.Sprintf("large enough to draw at least one of %d", n)}
		}
		return k, nil
	}
	return 0, &ParamError{Param: param, Value: s.Kind, Reason: "a count or a fraction"}
}

func checkNEstimators(n int) error {
	if n <= 0 {
		return &ParamError{Param: "n_estimators", Value: n, Reason: "greater than zero"}
	}
	return nil
}

// jobs maps NJobs onto a worker count: 0 means 1, -1 all CPUs, -2 all but one.
func jobs(n int) int {
	switch {
	case n > 0:
		return n
	case n == 0:
		return 1
	}
	k := runtime.NumCPU() + 1 + n
	if k < 1 {
		return 1
	}
	return k
}

package sampling

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrInvalidStrategy = errors.New("invalid sampling strategy")
	ErrInvalidTarget   = errors.New("invalid target")
)

type Kind int

const (
	Auto Kind = iota
	Majority
	NotMinority
	NotMajority
	All
	Ratio
	Counts
	Func
)

var kindNames = map[Kind]string{
	Auto:        "auto",
	Majority:    "majority",
	NotMinority: "not minority",
	NotMajority: "not majority",
	All:         "all",
}

// Strategy selects which classes get undersampled and to what size.
// Ratio is n_minority / n_class after resampling and only applies to
// binary targets. Counts and Fn give explicit per-class sizes.
type Strategy struct {
	Kind   Kind
	Ratio  float64
	Counts map[int]int
	Fn     func(counts map[int]int) map[int]int
}

func FromKind(k Kind) Strategy { return Strategy{Kind: k} }
func FromRatio(r float64) Strategy { return Strategy{Kind: Ratio, Ratio: r} }
func FromCounts(m map[int]int) Strategy { return Strategy{Kind: Counts, Counts: m} }
func FromFunc(fn func(map[int]int) map[int]int) Strategy { return Strategy{Kind: Func, Fn: fn} }

func (s Strategy) String() string {
	switch s.Kind {
	case Ratio:
		return strconv.FormatFloat(s.Ratio, 'g', -1, 64)
	case Counts:
		return fmt.Sprint(s.Counts)
	case Func:
		return "func"
	}
	if name, ok := kindNames[s.Kind]; ok {
		return name
	}
	return "unknown"
}

// ParseStrategy builds a Strategy from a decoded config value: a strategy
// name, a number, or a mapping of label to count.
func ParseStrategy(v any) (Strategy, error) {
	switch t := v.(type) {
	case nil:
		return Strategy{Kind: Auto}, nil
	case Strategy:
		return t, nil
	case string:
		name := strings.ToLower(strings.TrimSpace(t))
		for k, n := range kindNames {
			if n == name {
				return Strategy{Kind: k}, nil
			}
		}
		if f, err := strconv.ParseFloat(name, 64); err == nil {
			return FromRatio(f), nil
		}
		return Strategy{}, fmt.Errorf("%w: unknown name %q", ErrInvalidStrategy, t)
	case float64:
		return FromRatio(t), nil
	case float32:
		return FromRatio(float64(t)), nil
	case int:
		return FromRatio(float64(t)), nil
	case int64:
		return FromRatio(float64(t)), nil
	case uint64:
		return FromRatio(float64(t)), nil
	case map[int]int:
		return FromCounts(t), nil
	case map[string]any:
		m := make(map[int]int, len(t))
		for k, raw := range t {
			label, err := strconv.Atoi(k)
			if err != nil {
				return Strategy{}, fmt.Errorf("%w: label %q is not an integer", ErrInvalidStrategy, k)
			}
			n, err := toInt(raw)
			if err != nil {
				return Strategy{}, fmt.Errorf("%w: class %s: %v", ErrInvalidStrategy, k, err)
			}
			m[label] = n
		}
		return FromCounts(m), nil
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, raw := range t {
			m[fmt.Sprint(k)] = raw
		}
		return ParseStrategy(m)
	}
	return Strategy{}, fmt.Errorf("%w: unsupported value %v (%T)", ErrInvalidStrategy, v, v)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("count %v is not an integer", n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("count %v (%T) is not an integer", v, v)
}

// ClassCounts returns the number of rows per label.
func ClassCounts(y []int) map[int]int {
	out := make(map[int]int, 4)
	for _, v := range y {
		out[v]++
	}
	return out
}

func sortedLabels(counts map[int]int) []int {
	out := make([]int, 0, len(counts))
	for k := range counts {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// firstExtremes returns the smallest and largest classes of y. Ties go to
// the label seen first in y.
func firstExtremes(y []int, counts map[int]int) (minority, majority int) {
	minority, majority = y[0], y[0]
	seen := make(map[int]bool, len(counts))
	for _, c := range y {
		if seen[c] {
			continue
		}
		seen[c] = true
		if counts[c] < counts[minority] {
			minority = c
		}
		if counts[c] > counts[majority] {
			majority = c
		}
	}
	return minority, majority
}

// Targets resolves s against y into the number of rows to keep for each
// undersampled class. Classes absent from the result are kept whole.
func Targets(s Strategy, y []int) (map[int]int, error) {
	counts := ClassCounts(y)
	if len(counts) < 2 {
		return nil, fmt.Errorf("%w: the target needs more than 1 class, got %d", ErrInvalidTarget, len(counts))
	}
	labels := sortedLabels(counts)
	minority, majority := firstExtremes(y, counts)
	nMin := counts[minority]
	out := make(map[int]int, len(labels))

	switch s.Kind {
	case Auto, NotMinority:
		for _, c := range labels {
			if c != minority {
				out[c] = nMin
			}
		}
	case Majority:
		out[majority] = nMin
	case NotMajority:
		for _, c := range labels {
			if c != majority {
				out[c] = nMin
			}
		}
	case All:
		for _, c := range labels {
			out[c] = nMin
		}
	case Ratio:
		if len(labels) != 2 {
			return nil, fmt.Errorf("%w: a ratio only applies to binary targets, got %d classes", ErrInvalidStrategy, len(labels))
		}
		if s.Ratio <= 0 || s.Ratio > 1 {
			return nil, fmt.Errorf("%w: ratio must be in (0, 1], got %v", ErrInvalidStrategy, s.Ratio)
		}
		for _, c := range labels {
			if c == minority {
				continue
			}
			n := int(float64(nMin) / s.Ratio)
			if n > counts[c] {
				return nil, fmt.Errorf("%w: ratio %v would need %d samples of class %d, only %d available; increase the ratio",
					ErrInvalidStrategy, s.Ratio, n, c, counts[c])
			}
			out[c] = n
		}
	case Counts, Func:
		req := s.Counts
		if s.Kind == Func {
			if s.Fn == nil {
				return nil, fmt.Errorf("%w: nil strategy func", ErrInvalidStrategy)
			}
			cp := make(map[int]int, len(counts))
			for k, v := range counts {
				cp[k] = v
			}
			req = s.Fn(cp)
		}
		for c, n := range req {
			have, ok := counts[c]
			if !ok {
				return nil, fmt.Errorf("%w: class %d is not present in the target", ErrInvalidStrategy, c)
			}
			if n < 0 {
				return nil, fmt.Errorf("%w: class %d: negative count %d", ErrInvalidStrategy, c, n)
			}
			if n > have {
				return nil, fmt.Errorf("%w: class %d: undersampling cannot ask for %d samples, only %d available",
					ErrInvalidStrategy, c, n, have)
			}
			out[c] = n
		}
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidStrategy, s.Kind)
	}
	return out, nil
}

// Package aggregate reduces groups of measurements to the single number a
// chart row displays.
//
// Four reductions are supported: [Sum], [Average], [Min] and [Max]. All of
// them are total: an empty group reduces to 0 rather than NaN or an error,
// so a chart cell for a key that never occurred simply draws no bar.
//
// [ApplyKey] looks a key up in a bucket map and tracks the running
// [Range] of every applied result; the renderer uses that range to scale
// bar glyphs. [Accumulator] carries mergeable partial state for scans
// that are split across goroutines.
package aggregate

import (
	"fmt"
	"math"
	"strings"

	"github.com/aclements/go-moremath/stats"

	"github.com/matzehuels/flat/pkg/errors"
)

// Aggregate selects how a group of measurements is reduced.
type Aggregate int

const (
	// Sum adds all measurements ([1, 2, 3] -> 6). It is the default.
	Sum Aggregate = iota
	// Average is the arithmetic mean ([1, 2, 3] -> 2).
	Average
	// Min is the smallest measurement ([1, 2, 3] -> 1).
	Min
	// Max is the largest measurement ([1, 2, 3] -> 3).
	Max
)

// All lists every aggregate in display order.
var All = []Aggregate{Sum, Average, Min, Max}

var names = map[Aggregate]string{
	Sum:     "Sum",
	Average: "Average",
	Min:     "Min",
	Max:     "Max",
}

var aliases = map[string]Aggregate{
	"sum":     Sum,
	"average": Average,
	"avg":     Average,
	"mean":    Average,
	"min":     Min,
	"max":     Max,
}

// String returns the display name used in chart headers, e.g. "Sum".
func (a Aggregate) String() string {
	if n, ok := names[a]; ok {
		return n
	}
	return fmt.Sprintf("Aggregate(%d)", int(a))
}

// Parse converts a case-insensitive name ("sum", "Average", "avg", ...)
// into an Aggregate.
func Parse(s string) (Aggregate, error) {
	if a, ok := aliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return a, nil
	}
	return Sum, errors.New(errors.ErrCodeInvalidInput, "unknown aggregate %q (want sum, average, min or max)", s)
}

// MarshalText implements encoding.TextMarshaler so options round-trip
// through TOML and JSON by name.
func (a Aggregate) MarshalText() ([]byte, error) {
	if _, ok := names[a]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown aggregate %d", int(a))
	}
	return []byte(strings.ToLower(a.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Aggregate) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Apply reduces xs. Average, Min and Max of an empty slice are 0.
func (a Aggregate) Apply(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	switch a {
	case Average:
		return stats.Mean(xs)
	case Min:
		lo, _ := stats.Bounds(xs)
		return lo
	case Max:
		_, hi := stats.Bounds(xs)
		return hi
	default:
		return stats.Sample{Xs: xs}.Sum()
	}
}

// Range is the running minimum and maximum of applied aggregates.
// The zero value is empty.
type Range struct {
	Min, Max float64
	seen     bool
}

// Observe widens the range to include v.
func (r *Range) Observe(v float64) {
	if !r.seen {
		r.Min, r.Max, r.seen = v, v, true
		return
	}
	r.Min = math.Min(r.Min, v)
	r.Max = math.Max(r.Max, v)
}

// Empty reports whether nothing has been observed.
func (r Range) Empty() bool { return !r.seen }

// Magnitude returns the largest absolute value in the range, or 0 when
// the range is empty.
func (r Range) Magnitude() float64 {
	if !r.seen {
		return 0
	}
	return math.Max(math.Abs(r.Min), math.Abs(r.Max))
}

// ApplyKey reduces the bucket stored under key and records the result in r.
// A missing key reduces the empty slice, so it yields 0 instead of failing.
func ApplyKey[K comparable](a Aggregate, buckets map[K][]float64, key K, r *Range) float64 {
	v := a.Apply(buckets[key])
	if r != nil {
		r.Observe(v)
	}
	return v
}

// Package bin splits an ordered numeric domain into contiguous,
// equal-width bins for histograms.
//
// One implementation serves every integer and float type. How the bin
// width is derived from the domain span is controlled by a [Rounding]
// policy: [Exact] divides the span as-is, [Ceiling] rounds the width up
// so that integral domains never produce fractional bounds.
//
//	bins, err := bin.New([]int{-1, 0, 1}, 3, bin.Ceiling)
//	// [-1, 0) [0, 1) [1, 2]
//
// Every bin is lower-inclusive and upper-exclusive except the last one,
// whose upper bound is inclusive so the domain maximum always has a home.
package bin

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/exp/constraints"

	"github.com/matzehuels/flat/pkg/errors"
)

// Number is the set of key types the binner accepts.
type Number interface {
	constraints.Integer | constraints.Float
}

// Rounding selects how the bin width is derived from the domain span.
type Rounding int

const (
	// Exact divides the span without rounding (continuous domains).
	Exact Rounding = iota
	// Ceiling rounds the width up to the next whole unit (integral domains).
	Ceiling
)

// String returns "exact" or "ceiling".
func (r Rounding) String() string {
	if r == Ceiling {
		return "ceiling"
	}
	return "exact"
}

// ErrNoData is returned when asked to bin an empty domain.
var ErrNoData = errors.New(errors.ErrCodeNoData, "cannot bin an empty domain")

// PolicyFor returns Ceiling for integral T and Exact otherwise.
func PolicyFor[T Number]() Rounding {
	var one T = 1
	if one/2 == 0 {
		return Ceiling
	}
	return Exact
}

// Bin is one half-open (or, for the last bin, closed) interval.
type Bin[T Number] struct {
	Lower T
	Upper T
	// Closed reports whether Upper belongs to the bin.
	Closed bool
}

// Contains reports whether k falls into the bin.
func (b Bin[T]) Contains(k T) bool {
	if k < b.Lower {
		return false
	}
	if b.Closed {
		return k <= b.Upper
	}
	return k < b.Upper
}

// String renders the bin as "[l, u)" or "[l, u]".
func (b Bin[T]) String() string {
	closing := ")"
	if b.Closed {
		closing = "]"
	}
	return fmt.Sprintf("[%s, %s%s", format(b.Lower), format(b.Upper), closing)
}

// Bins is an ordered list of contiguous bins covering a domain.
type Bins[T Number] struct {
	bins   []Bin[T]
	width  T
	policy Rounding
}

// New computes n bins spanning [min(keys), max(keys)]. n < 1 is treated as
// 1. A domain with a single distinct key yields one closed bin [k, k].
// An empty key set returns [ErrNoData].
func New[T Number](keys []T, n int, policy Rounding) (*Bins[T], error) {
	if len(keys) == 0 {
		return nil, ErrNoData
	}
	n = max(n, 1)

	lo, hi := keys[0], keys[0]
	for _, k := range keys[1:] {
		lo = min(lo, k)
		hi = max(hi, k)
	}

	if lo == hi {
		return &Bins[T]{bins: []Bin[T]{{Lower: lo, Upper: hi, Closed: true}}, policy: policy}, nil
	}

	var (
		bins  []Bin[T]
		width T
		err   error
	)
	if PolicyFor[T]() == Ceiling {
		bins, width, err = integral(lo, hi, n, policy)
	} else {
		bins, width, err = continuous(lo, hi, n, policy)
	}
	if err != nil {
		return nil, err
	}
	last := &bins[n-1]
	last.Upper = max(last.Upper, hi)
	last.Closed = true

	return &Bins[T]{bins: bins, width: width, policy: policy}, nil
}

// continuous builds float bins. The span must be finite.
func continuous[T Number](lo, hi T, n int, policy Rounding) ([]Bin[T], T, error) {
	span := hi - lo
	if math.IsInf(float64(span), 0) || math.IsNaN(float64(span)) {
		return nil, 0, errors.New(errors.ErrCodeInvalidInput, "cannot bin the span [%s, %s]", format(lo), format(hi))
	}
	width := span / T(n)
	if policy == Ceiling {
		width = T(math.Ceil(float64(span) / float64(n)))
	}
	bins := make([]Bin[T], n)
	for i := range bins {
		bins[i] = Bin[T]{Lower: lo + width*T(i), Upper: lo + width*T(i+1)}
	}
	return bins, width, nil
}

// integral builds integer bins. The span and every offset from lo are
// computed in uint64 so they cannot wrap; a bound that T cannot hold is an
// error, except the last upper bound, which is clamped to hi.
func integral[T Number](lo, hi T, n int, policy Rounding) ([]Bin[T], T, error) {
	var zero T
	signed := zero-1 < 0

	var span uint64
	if signed {
		span = uint64(int64(hi)) - uint64(int64(lo))
	} else {
		span = uint64(hi) - uint64(lo)
	}

	parts := uint64(n)
	w := span / parts
	if (policy == Ceiling || w == 0) && span%parts != 0 {
		w++
	}
	width := T(w)
	if uint64(width) != w || width < 0 {
		return nil, 0, errors.New(errors.ErrCodeInvalidInput, "bin width %d of [%s, %s] overflows %T", w, format(lo), format(hi), lo)
	}

	// bound returns lo + w*i when T can represent it.
	bound := func(i int) (T, bool) {
		steps := uint64(i)
		off := w * steps
		if steps != 0 && off/steps != w {
			return 0, false
		}
		if signed {
			room := uint64(math.MaxInt64) - uint64(int64(lo))
			if off > room {
				return 0, false
			}
			v := int64(uint64(int64(lo)) + off)
			t := T(v)
			return t, int64(t) == v
		}
		if off > math.MaxUint64-uint64(lo) {
			return 0, false
		}
		v := uint64(lo) + off
		t := T(v)
		return t, uint64(t) == v
	}

	bins := make([]Bin[T], n)
	for i := range bins {
		lower, ok := bound(i)
		if !ok {
			return nil, 0, errors.New(errors.ErrCodeInvalidInput, "bin %d of [%s, %s] overflows %T", i, format(lo), format(hi), lo)
		}
		upper, ok := bound(i + 1)
		if !ok {
			if i < n-1 {
				return nil, 0, errors.New(errors.ErrCodeInvalidInput, "bin %d of [%s, %s] overflows %T", i+1, format(lo), format(hi), lo)
			}
			upper = hi
		}
		bins[i] = Bin[T]{Lower: lower, Upper: upper}
	}
	return bins, width, nil
}

// Len returns the number of bins.
func (b *Bins[T]) Len() int { return len(b.bins) }

// At returns the i-th bin.
func (b *Bins[T]) At(i int) Bin[T] { return b.bins[i] }

// All returns the bins in ascending order.
func (b *Bins[T]) All() []Bin[T] { return b.bins }

// Width returns the common bin width (0 for a single-point domain).
func (b *Bins[T]) Width() T { return b.width }

// Policy returns the rounding policy the bins were built with.
func (b *Bins[T]) Policy() Rounding { return b.policy }

// Find returns the index of the bin containing k.
// The lookup is a linear scan; histograms have few bins.
func (b *Bins[T]) Find(k T) (int, bool) {
	for i, bin := range b.bins {
		if bin.Contains(k) {
			return i, true
		}
	}
	return -1, false
}

// Locate is Find with clamping: a key outside every bin (floating point
// drift at a boundary) is assigned to the nearest bin and the second result
// is false so the caller can report it.
func (b *Bins[T]) Locate(k T) (int, bool) {
	if i, ok := b.Find(k); ok {
		return i, true
	}
	if k < b.bins[0].Lower {
		return 0, false
	}
	return len(b.bins) - 1, false
}

// Count assigns every key to a bin and returns per-bin counts along with
// the number of keys that had to be clamped.
func (b *Bins[T]) Count(keys []T) (counts []int, clamped int) {
	counts = make([]int, len(b.bins))
	for _, k := range keys {
		i, ok := b.Locate(k)
		if !ok {
			clamped++
		}
		counts[i]++
	}
	return counts, clamped
}

func format[T Number](v T) string {
	switch x := any(v).(type) {
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

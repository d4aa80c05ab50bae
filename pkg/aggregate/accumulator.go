package aggregate

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Accumulator is the mergeable partial state of an aggregation.
// Average is carried as (sum, count) so merged partials never average
// averages.
type Accumulator struct {
	Sum   float64
	Count int
	Min   float64
	Max   float64
}

// Add folds one measurement into the accumulator.
func (a *Accumulator) Add(v float64) {
	if a.Count == 0 {
		a.Min, a.Max = v, v
	} else {
		a.Min = math.Min(a.Min, v)
		a.Max = math.Max(a.Max, v)
	}
	a.Sum += v
	a.Count++
}

// Merge folds another partial into a.
func (a *Accumulator) Merge(o Accumulator) {
	if o.Count == 0 {
		return
	}
	if a.Count == 0 {
		*a = o
		return
	}
	a.Sum += o.Sum
	a.Count += o.Count
	a.Min = math.Min(a.Min, o.Min)
	a.Max = math.Max(a.Max, o.Max)
}

// Result reduces the accumulated state with agg. An empty accumulator
// yields 0 for every aggregate.
func (a Accumulator) Result(agg Aggregate) float64 {
	if a.Count == 0 {
		return 0
	}
	switch agg {
	case Average:
		return a.Sum / float64(a.Count)
	case Min:
		return a.Min
	case Max:
		return a.Max
	default:
		return a.Sum
	}
}

// minChunk keeps tiny inputs on a single goroutine.
const minChunk = 4096

// AccumulateParallel splits xs into contiguous chunks, accumulates each
// chunk on its own goroutine and merges the partials. workers <= 0 uses
// GOMAXPROCS.
func AccumulateParallel(ctx context.Context, xs []float64, workers int) (Accumulator, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(1, min(workers, len(xs)/minChunk))

	partials := make([]Accumulator, workers)
	chunk := (len(xs) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, len(xs))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%minChunk == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				partials[w].Add(xs[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Accumulator{}, err
	}

	var total Accumulator
	for _, p := range partials {
		total.Merge(p)
	}
	return total, nil
}

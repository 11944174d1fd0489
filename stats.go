package funclock

import (
	"math"
	"sort"
)

// FunctionStats are the finished per-function timing statistics. All
// fields except Count are nanoseconds.
type FunctionStats struct {
	Name   string
	Count  uint64
	Mean   float64
	Min    float64
	Max    float64
	Stddev float64
}

// running holds the online state for one function: Welford's update keeps
// the mean and the sum of squared deviations numerically stable across
// millions of samples, in O(1) memory per function.
type running struct {
	count uint64
	mean  float64
	m2    float64
	min   float64
	max   float64
}

func (r *running) observe(x float64) {
	r.count++
	if r.count == 1 {
		r.min, r.max = x, x
	} else {
		if x < r.min {
			r.min = x
		}
		if x > r.max {
			r.max = x
		}
	}
	d := x - r.mean
	r.mean += d / float64(r.count)
	r.m2 += d * (x - r.mean)
}

// stddev returns the sample standard deviation, or 0 when a single sample
// gives no variance estimate.
func (r *running) stddev() float64 {
	if r.count < 2 {
		return 0
	}
	return math.Sqrt(r.m2 / float64(r.count-1))
}

// An Aggregator reduces call intervals into per-function statistics, one
// interval at a time. It belongs to a single pipeline run: created at
// stream start, snapshotted once at stream end, then discarded.
type Aggregator struct {
	fns map[string]*running
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		fns: make(map[string]*running),
	}
}

// Observe folds one completed interval into the statistics for its
// function.
func (a *Aggregator) Observe(iv CallInterval) {
	r, ok := a.fns[iv.Func]
	if !ok {
		r = &running{}
		a.fns[iv.Func] = r
	}
	r.observe(float64(iv.Duration()))
}

// Snapshot returns the statistics for every observed function, sorted by
// name. The snapshot is independent of the aggregator's internal state.
func (a *Aggregator) Snapshot() TotalStats {
	total := make(TotalStats, 0, len(a.fns))
	for fn, r := range a.fns {
		total = append(total, FunctionStats{
			Name:   fn,
			Count:  r.count,
			Mean:   r.mean,
			Min:    r.min,
			Max:    r.max,
			Stddev: r.stddev(),
		})
	}
	sort.Slice(total, func(i, j int) bool {
		return total[i].Name < total[j].Name
	})
	return total
}

package funclock

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStddevSingleSample(t *testing.T) {
	agg := NewAggregator()
	agg.Observe(CallInterval{Func: "libm!f", Start: 0, End: 42})

	stats := agg.Snapshot()
	if stats[0].Count != 1 {
		t.Fatalf("got count %d, want 1", stats[0].Count)
	}
	if stats[0].Stddev != 0.0 {
		t.Errorf("single sample must report stddev 0, got %v", stats[0].Stddev)
	}
	if stats[0].Mean != 42 || stats[0].Min != 42 || stats[0].Max != 42 {
		t.Errorf("unexpected stats %+v", stats[0])
	}
}

// The online update must agree with a textbook two-pass computation on a
// large dataset.
func TestOnlineStatsMatchTwoPass(t *testing.T) {
	const n = 100000
	rng := rand.New(rand.NewSource(42))

	agg := NewAggregator()
	samples := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		// large offset with small spread, the classic catastrophic
		// cancellation shape for naive sum-of-squares
		d := 1e9 + rng.Float64()*1e3
		samples = append(samples, d)
		agg.Observe(CallInterval{Func: "libm!f", Start: 0, End: uint64(d)})
	}

	// two-pass reference, using the truncated durations the aggregator saw
	var sum float64
	for i, d := range samples {
		samples[i] = float64(uint64(d))
		sum += samples[i]
	}
	mean := sum / n
	var sq float64
	for _, d := range samples {
		sq += (d - mean) * (d - mean)
	}
	stddev := math.Sqrt(sq / (n - 1))

	got := agg.Snapshot()[0]
	if rel := math.Abs(got.Mean-mean) / mean; rel > 1e-9 {
		t.Errorf("mean off by %v relative (got %v, want %v)", rel, got.Mean, mean)
	}
	if rel := math.Abs(got.Stddev-stddev) / stddev; rel > 1e-9 {
		t.Errorf("stddev off by %v relative (got %v, want %v)", rel, got.Stddev, stddev)
	}
	if got.Count != n {
		t.Errorf("got count %d, want %d", got.Count, n)
	}
}

func TestAggregationIdempotent(t *testing.T) {
	ivs := []CallInterval{
		{Func: "libm!f", Start: 0, End: 10},
		{Func: "libm!f", Start: 5, End: 25},
		{Func: "libm!g", Start: 1, End: 2},
		{Func: "libm!f", Start: 30, End: 31},
	}

	a, b := NewAggregator(), NewAggregator()
	for _, iv := range ivs {
		a.Observe(iv)
	}
	for _, iv := range ivs {
		b.Observe(iv)
	}

	if diff := cmp.Diff(a.Snapshot(), b.Snapshot()); diff != "" {
		t.Errorf("identical interval sequences produced different stats:\n%s", diff)
	}
}

func TestSnapshotSortedAndStable(t *testing.T) {
	agg := NewAggregator()
	agg.Observe(CallInterval{Func: "libz!c", Start: 0, End: 1})
	agg.Observe(CallInterval{Func: "libm!a", Start: 0, End: 1})
	agg.Observe(CallInterval{Func: "libm!b", Start: 0, End: 1})

	first := agg.Snapshot()
	for i := 1; i < len(first); i++ {
		if first[i-1].Name >= first[i].Name {
			t.Fatalf("snapshot not sorted: %v before %v", first[i-1].Name, first[i].Name)
		}
	}
	if diff := cmp.Diff(first, agg.Snapshot()); diff != "" {
		t.Errorf("repeated snapshots differ:\n%s", diff)
	}
}

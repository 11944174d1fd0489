package funclock

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func pushAll(t *testing.T, c *Correlator, evs []ProbeEvent) []CallInterval {
	t.Helper()
	var ivs []CallInterval
	for _, ev := range evs {
		if iv, ok := c.Push(ev); ok {
			ivs = append(ivs, iv)
		}
	}
	return ivs
}

func TestRecursionMatchesInnermostFirst(t *testing.T) {
	var q Quality
	c := NewCorrelator(&q)

	ivs := pushAll(t, c, []ProbeEvent{
		{Time: 0, Func: "libm!f", Context: 1, Kind: Entry},
		{Time: 1, Func: "libm!f", Context: 1, Kind: Entry},
		{Time: 2, Func: "libm!f", Context: 1, Kind: Exit},
		{Time: 5, Func: "libm!f", Context: 1, Kind: Exit},
	})
	c.Flush()

	want := []CallInterval{
		{Func: "libm!f", Context: 1, Start: 1, End: 2},
		{Func: "libm!f", Context: 1, Start: 0, End: 5},
	}
	if diff := cmp.Diff(want, ivs); diff != "" {
		t.Errorf("intervals mismatch (-want +got):\n%s", diff)
	}

	agg := NewAggregator()
	for _, iv := range ivs {
		agg.Observe(iv)
	}
	stats := agg.Snapshot()
	if len(stats) != 1 || stats[0].Count != 2 || stats[0].Mean != 3.0 {
		t.Errorf("got stats %+v, want count=2 mean=3.0", stats)
	}
	if q.Total() != 0 {
		t.Errorf("clean recursion dropped events: %+v", q)
	}
}

func TestOrphanExit(t *testing.T) {
	var q Quality
	c := NewCorrelator(&q)

	ivs := pushAll(t, c, []ProbeEvent{
		{Time: 10, Func: "libm!f", Context: 1, Kind: Exit},
	})
	c.Flush()

	if len(ivs) != 0 {
		t.Errorf("orphan exit produced intervals: %v", ivs)
	}
	if q.OrphanExits != 1 {
		t.Errorf("got %d orphan exits, want 1", q.OrphanExits)
	}
}

func TestMismatchedExitDiscardsFrames(t *testing.T) {
	var q Quality
	c := NewCorrelator(&q)

	// g's exit was lost; f's exit must discard g's frame and still match
	// f's own entry.
	ivs := pushAll(t, c, []ProbeEvent{
		{Time: 0, Func: "libm!f", Context: 1, Kind: Entry},
		{Time: 1, Func: "libm!g", Context: 1, Kind: Entry},
		{Time: 5, Func: "libm!f", Context: 1, Kind: Exit},
	})
	c.Flush()

	want := []CallInterval{
		{Func: "libm!f", Context: 1, Start: 0, End: 5},
	}
	if diff := cmp.Diff(want, ivs); diff != "" {
		t.Errorf("intervals mismatch (-want +got):\n%s", diff)
	}
	if q.DiscardedFrames != 1 {
		t.Errorf("got %d discarded frames, want 1", q.DiscardedFrames)
	}
}

func TestNegativeDurationRejected(t *testing.T) {
	var q Quality
	c := NewCorrelator(&q)

	ivs := pushAll(t, c, []ProbeEvent{
		{Time: 5, Func: "libm!f", Context: 1, Kind: Entry},
		{Time: 3, Func: "libm!f", Context: 1, Kind: Exit},
	})
	c.Flush()

	if len(ivs) != 0 {
		t.Errorf("negative-duration pair produced intervals: %v", ivs)
	}
	if q.NegativeDurations != 1 {
		t.Errorf("got %d negative durations, want 1", q.NegativeDurations)
	}
}

func TestUnterminatedCallsDroppedAtFlush(t *testing.T) {
	var q Quality
	c := NewCorrelator(&q)

	pushAll(t, c, []ProbeEvent{
		{Time: 0, Func: "libm!f", Context: 1, Kind: Entry},
		{Time: 1, Func: "libm!g", Context: 2, Kind: Entry},
	})
	c.Flush()

	if q.UnterminatedCalls != 2 {
		t.Errorf("got %d unterminated calls, want 2", q.UnterminatedCalls)
	}
}

// Interleaving two disjoint contexts in any time-consistent order must
// produce the same statistics as correlating each context alone.
func TestContextsIndependent(t *testing.T) {
	ctx1 := []ProbeEvent{
		{Time: 0, Func: "libm!f", Context: 1, Kind: Entry},
		{Time: 30, Func: "libm!f", Context: 1, Kind: Exit},
	}
	ctx2 := []ProbeEvent{
		{Time: 10, Func: "libm!f", Context: 2, Kind: Entry},
		{Time: 20, Func: "libm!f", Context: 2, Kind: Exit},
	}
	interleaved := []ProbeEvent{ctx1[0], ctx2[0], ctx2[1], ctx1[1]}

	aggSeparate := NewAggregator()
	for _, evs := range [][]ProbeEvent{ctx1, ctx2} {
		var q Quality
		c := NewCorrelator(&q)
		for _, iv := range pushAll(t, c, evs) {
			aggSeparate.Observe(iv)
		}
		c.Flush()
	}

	var q Quality
	c := NewCorrelator(&q)
	aggPooled := NewAggregator()
	for _, iv := range pushAll(t, c, interleaved) {
		aggPooled.Observe(iv)
	}
	c.Flush()

	if diff := cmp.Diff(aggSeparate.Snapshot(), aggPooled.Snapshot()); diff != "" {
		t.Errorf("pooled stats differ from per-context stats (-separate +pooled):\n%s", diff)
	}
	if q.Total() != 0 {
		t.Errorf("independent contexts dropped events: %+v", q)
	}
}

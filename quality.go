package funclock

import "strconv"

// Quality counts every record or event the pipeline had to drop. None of
// these are fatal; they exist so a caller can judge how trustworthy the
// final statistics are. A noisy trace (lost probe crossings, signal-driven
// non-local exits) degrades min/max/stddev first, while count and mean of
// the intervals that did match stay exact.
type Quality struct {
	// MalformedRecords counts raw records that could not be parsed into a
	// probe event.
	MalformedRecords uint64
	// OutOfOrderEvents counts events whose timestamp skew exceeded the
	// reorder window and were skipped rather than silently reordered.
	OutOfOrderEvents uint64
	// OrphanExits counts exit events that found no open entry in their
	// context.
	OrphanExits uint64
	// UnterminatedCalls counts entries still open at end of stream (the
	// target exited or crashed inside the call).
	UnterminatedCalls uint64
	// NegativeDurations counts matched pairs with end < start, which are
	// rejected outright.
	NegativeDurations uint64
	// DiscardedFrames counts open frames popped without a match while
	// resolving a mismatched exit.
	DiscardedFrames uint64
}

// Total returns the number of dropped records and events across the whole
// taxonomy.
func (q Quality) Total() uint64 {
	return q.MalformedRecords + q.OutOfOrderEvents + q.OrphanExits +
		q.UnterminatedCalls + q.NegativeDurations + q.DiscardedFrames
}

// WriteTo renders the non-zero counters as a two-column table.
func (q Quality) WriteTo(w MetricsWriter) {
	w.SetHeader([]string{"warning", "count"})
	rows := []struct {
		label string
		n     uint64
	}{
		{"malformed-records", q.MalformedRecords},
		{"out-of-order-events", q.OutOfOrderEvents},
		{"orphan-exits", q.OrphanExits},
		{"unterminated-calls", q.UnterminatedCalls},
		{"negative-durations", q.NegativeDurations},
		{"discarded-frames", q.DiscardedFrames},
	}
	for _, r := range rows {
		if r.n == 0 {
			continue
		}
		w.Append([]string{r.label, strconv.FormatUint(r.n, 10)})
	}
	w.Render()
}

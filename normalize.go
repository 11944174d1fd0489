package funclock

import (
	"container/heap"
	"errors"
	"io"
	"strings"
)

// parseEvent maps a perf probe event name to a canonical function id and
// crossing kind. Entry probes are named "probe_<lib>:<sym>" and return
// probes "probe_<lib>:<sym>_ret", mirroring how the probes are installed.
func parseEvent(name string) (fn string, kind Kind, ok bool) {
	if !strings.HasPrefix(name, "probe_") {
		return "", 0, false
	}
	lib, sym, found := strings.Cut(strings.TrimPrefix(name, "probe_"), ":")
	if !found || lib == "" || sym == "" {
		return "", 0, false
	}
	kind = Entry
	if s := strings.TrimSuffix(sym, "_ret"); s != sym {
		if s == "" {
			return "", 0, false
		}
		sym = s
		kind = Exit
	}
	return lib + "!" + sym, kind, true
}

type seqEvent struct {
	ev  ProbeEvent
	seq uint64
}

// eventHeap orders buffered events by timestamp, breaking ties by arrival
// order so that simultaneous entry/exit crossings keep their stream order.
type eventHeap []seqEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].ev.Time != h[j].ev.Time {
		return h[i].ev.Time < h[j].ev.Time
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(seqEvent))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// A Normalizer turns raw records into a strictly time-ordered sequence of
// probe events. Records from independent per-core clocks arrive slightly
// out of order, so the normalizer holds a look-ahead buffer spanning the
// reorder window and releases an event only once every record that could
// still precede it has been seen. An event that would have to move further
// than the window is counted as out of order and skipped, never silently
// reordered. The sequence is finite and non-restartable.
type Normalizer struct {
	src     Source
	window  uint64
	quality *Quality

	buf     eventHeap
	seq     uint64
	maxSeen uint64
	last    uint64
	emitted bool
	drained bool
}

// NewNormalizer wraps src with a reorder window of the given width in
// nanoseconds. Counters for dropped records are added to q.
func NewNormalizer(src Source, window uint64, q *Quality) *Normalizer {
	return &Normalizer{
		src:     src,
		window:  window,
		quality: q,
	}
}

// Next returns the next probe event in timestamp order, or io.EOF at end
// of stream. Malformed records are skipped and counted. Any other source
// error is returned unchanged.
func (n *Normalizer) Next() (ProbeEvent, error) {
	for {
		// Keep reading until the oldest buffered event is out of reach of
		// any future record, i.e. the look-ahead spans the reorder window.
		for !n.drained && (len(n.buf) == 0 || n.maxSeen-n.buf[0].ev.Time < n.window) {
			rec, err := n.src.Next()
			if errors.Is(err, io.EOF) {
				n.drained = true
				break
			}
			var merr *MalformedRecordError
			if errors.As(err, &merr) {
				n.quality.MalformedRecords++
				logger.Debug().Str("input", merr.Input).Str("reason", merr.Reason).Msg("skipping malformed record")
				continue
			}
			if err != nil {
				return ProbeEvent{}, err
			}

			fn, kind, ok := parseEvent(rec.Event)
			if !ok || rec.Context < 0 {
				n.quality.MalformedRecords++
				logger.Debug().Str("event", rec.Event).Msg("skipping unparsable probe event")
				continue
			}
			if rec.Time > n.maxSeen {
				n.maxSeen = rec.Time
			}
			heap.Push(&n.buf, seqEvent{
				ev: ProbeEvent{
					Time:    rec.Time,
					Func:    fn,
					Context: rec.Context,
					Kind:    kind,
				},
				seq: n.seq,
			})
			n.seq++
		}

		if len(n.buf) == 0 {
			return ProbeEvent{}, io.EOF
		}

		ev := heap.Pop(&n.buf).(seqEvent).ev
		if n.emitted && ev.Time < n.last {
			// The event skewed past the reorder window.
			n.quality.OutOfOrderEvents++
			logger.Warn().
				Str("func", ev.Func).
				Uint64("time", ev.Time).
				Uint64("emitted", n.last).
				Msg("event exceeds reorder window, skipping")
			continue
		}
		n.last = ev.Time
		n.emitted = true
		return ev, nil
	}
}

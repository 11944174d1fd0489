package funclock

// A frame is one open, not yet matched function entry.
type frame struct {
	fn    string
	start uint64
}

// A Correlator matches entry events to exit events and produces call
// intervals. Each execution context owns an independent stack of open
// entries: within one context recursive invocations nest LIFO, and
// different contexts never interleave on the same stack, so concurrent
// calls are always timed independently.
//
// Matching is innermost-first. When an exit does not match the top of its
// context's stack (a lost probe crossing or a non-local exit, e.g. via
// longjmp or a signal), frames are popped and discarded until a match is
// found or the stack empties. This recovery is lossy by design: discarded
// frames never bias the duration of intervals that do match, which is why
// count and mean stay exact under event loss while min/max/stddev degrade.
type Correlator struct {
	stacks  map[int][]frame
	quality *Quality
}

// NewCorrelator returns a correlator that records drop counters in q.
func NewCorrelator(q *Quality) *Correlator {
	return &Correlator{
		stacks:  make(map[int][]frame),
		quality: q,
	}
}

// Push feeds one event into the correlator. It returns a completed call
// interval and true when the event closed an open entry.
func (c *Correlator) Push(ev ProbeEvent) (CallInterval, bool) {
	if ev.Kind == Entry {
		c.stacks[ev.Context] = append(c.stacks[ev.Context], frame{
			fn:    ev.Func,
			start: ev.Time,
		})
		return CallInterval{}, false
	}

	stack := c.stacks[ev.Context]
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.fn != ev.Func {
			c.quality.DiscardedFrames++
			logger.Debug().
				Str("open", top.fn).
				Str("exit", ev.Func).
				Int("context", ev.Context).
				Msg("discarding mismatched open frame")
			continue
		}
		c.stacks[ev.Context] = stack
		if ev.Time < top.start {
			c.quality.NegativeDurations++
			logger.Warn().
				Str("func", ev.Func).
				Uint64("start", top.start).
				Uint64("end", ev.Time).
				Msg("rejecting negative-duration interval")
			return CallInterval{}, false
		}
		return CallInterval{
			Func:    ev.Func,
			Context: ev.Context,
			Start:   top.start,
			End:     ev.Time,
		}, true
	}

	// The stack emptied without a match: the exit is an orphan. It is
	// never retroactively matched.
	c.stacks[ev.Context] = stack
	c.quality.OrphanExits++
	logger.Debug().
		Str("func", ev.Func).
		Int("context", ev.Context).
		Msg("exit with no open entry")
	return CallInterval{}, false
}

// Flush drains the correlator at end of stream. Any still-open entry is a
// call that never returned (the target exited or crashed inside it); these
// are counted and dropped, never turned into intervals. The correlator
// must not be used afterwards.
func (c *Correlator) Flush() {
	for ctx, stack := range c.stacks {
		for _, f := range stack {
			c.quality.UnterminatedCalls++
			logger.Debug().
				Str("func", f.fn).
				Int("context", ctx).
				Msg("dropping call with no exit at end of stream")
		}
	}
	c.stacks = nil
}

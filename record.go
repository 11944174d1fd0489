package funclock

import "fmt"

// A Record is one raw probe-crossing record as delivered by the event
// source, before any validation. Event is the perf event name (for example
// "probe_libm:sinf" or "probe_libm:sinf_ret"), Context is the thread id
// that crossed the probe, and Time is a monotonic timestamp in
// nanoseconds.
type Record struct {
	Event   string
	Context int
	Time    uint64
}

// A Source yields raw probe-crossing records. Next returns io.EOF when the
// trace is exhausted. A *MalformedRecordError marks a single unusable
// record and does not invalidate the stream; any other error is fatal to
// the whole trace.
type Source interface {
	Next() (Record, error)
}

// A MalformedRecordError describes a raw record that could not be turned
// into a probe event. The pipeline counts these and moves on.
type MalformedRecordError struct {
	Input  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %q: %s", e.Input, e.Reason)
}

// A Kind distinguishes a function-entry probe crossing from a
// return-address crossing.
type Kind byte

const (
	Entry Kind = iota
	Exit
)

func (k Kind) String() string {
	if k == Entry {
		return "entry"
	}
	return "exit"
}

// A ProbeEvent is a validated, canonical probe crossing. Func identifies
// the function as "library!symbol".
type ProbeEvent struct {
	Time    uint64
	Func    string
	Context int
	Kind    Kind
}

// A CallInterval is one matched entry/exit pair: a single concrete
// invocation of Func on Context. End >= Start always holds; candidate
// intervals that violate it are rejected by the correlator.
type CallInterval struct {
	Func    string
	Context int
	Start   uint64
	End     uint64
}

// Duration returns the length of the interval in nanoseconds.
func (c CallInterval) Duration() uint64 {
	return c.End - c.Start
}

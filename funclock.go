// Package funclock turns a raw trace of function entry/return probe
// crossings into per-function latency statistics. The trace may come from
// a recursive or multithreaded target; within one execution context calls
// nest like a stack, and separate contexts are correlated independently.
//
// The pipeline is a single-threaded, single-pass chain: a Source yields
// raw records, the Normalizer validates and time-orders them, the
// Correlator matches entries to exits, and the Aggregator reduces the
// resulting intervals online. Nothing blocks inside the pipeline itself;
// waiting for trace data is the Source's business.
package funclock

import (
	"errors"
	"io"
	"time"
)

// DefaultReorderWindow bounds how far apart per-core clocks are expected
// to drift. Events that would need to move further are dropped.
const DefaultReorderWindow = 10 * time.Millisecond

// Options configure a pipeline run.
type Options struct {
	// ReorderWindow is the maximum clock skew the normalizer corrects.
	// Zero selects DefaultReorderWindow.
	ReorderWindow time.Duration
}

// A Pipeline owns one end-to-end correlation run over a single trace. It
// is not restartable: create one per trace, run it to end of stream, read
// the results, and discard it.
type Pipeline struct {
	norm    *Normalizer
	corr    *Correlator
	agg     *Aggregator
	quality Quality
	done    bool
}

// NewPipeline assembles a pipeline over the given event source.
func NewPipeline(src Source, opts Options) *Pipeline {
	window := opts.ReorderWindow
	if window == 0 {
		window = DefaultReorderWindow
	}
	p := &Pipeline{
		agg: NewAggregator(),
	}
	p.norm = NewNormalizer(src, uint64(window), &p.quality)
	p.corr = NewCorrelator(&p.quality)
	return p
}

// Run consumes the source to end of stream. Malformed, out-of-order,
// orphaned, unterminated and negative-duration inputs are counted in
// Quality and never abort the run; the only error Run returns is a
// failure to read the source itself, propagated unchanged.
func (p *Pipeline) Run() error {
	if p.done {
		return errors.New("pipeline already ran")
	}
	for {
		ev, err := p.norm.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if iv, ok := p.corr.Push(ev); ok {
			p.agg.Observe(iv)
		}
	}
	p.corr.Flush()
	p.done = true
	return nil
}

// Stats returns the per-function statistics collected so far, sorted by
// function name. Meant to be read once, after Run.
func (p *Pipeline) Stats() TotalStats {
	return p.agg.Snapshot()
}

// Quality reports how much of the trace had to be dropped.
func (p *Pipeline) Quality() Quality {
	return p.quality
}

// Package perfscript reads the text output of `perf script` and yields
// one raw probe-crossing record per sample line. It is the event source
// for the funclock pipeline: parse failures surface as malformed-record
// errors, which the pipeline counts and skips; only a failure of the
// underlying reader is fatal.
package perfscript

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/funclock/funclock"
)

// A Scanner yields records from perf script output produced with
// `-F comm,tid,time,event`, for example:
//
//	matmul  3524  2865.996603:  probe_libblas:dgemm_ret:
type Scanner struct {
	s *bufio.Scanner
}

// NewScanner reads perf script output from r.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Scanner{s: s}
}

// Next returns the next record, io.EOF at end of input, or a
// *funclock.MalformedRecordError for a sample line it cannot parse.
func (s *Scanner) Next() (funclock.Record, error) {
	for s.s.Scan() {
		line := strings.TrimSpace(s.s.Text())
		if line == "" {
			continue
		}
		return parseLine(line)
	}
	if err := s.s.Err(); err != nil {
		return funclock.Record{}, err
	}
	return funclock.Record{}, io.EOF
}

// parseLine splits one sample line into its record. The comm may contain
// spaces, so fields are taken from the right: event, then timestamp, then
// tid.
func parseLine(line string) (funclock.Record, error) {
	malformed := func(reason string) (funclock.Record, error) {
		return funclock.Record{}, &funclock.MalformedRecordError{
			Input:  line,
			Reason: reason,
		}
	}

	fields := strings.Fields(line)
	if len(fields) < 4 {
		return malformed("want comm, tid, time and event fields")
	}

	event := strings.TrimSuffix(fields[len(fields)-1], ":")
	if event == "" {
		return malformed("empty event name")
	}

	ts := strings.TrimSuffix(fields[len(fields)-2], ":")
	ns, err := parseTime(ts)
	if err != nil {
		return malformed(err.Error())
	}

	tid, err := strconv.Atoi(fields[len(fields)-3])
	if err != nil {
		return malformed(fmt.Sprintf("bad tid %q", fields[len(fields)-3]))
	}

	return funclock.Record{
		Event:   event,
		Context: tid,
		Time:    ns,
	}, nil
}

// parseTime converts perf's "seconds.fraction" timestamp to nanoseconds.
// perf prints microsecond precision but the fraction width is not relied
// upon.
func parseTime(ts string) (uint64, error) {
	secStr, fracStr, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseUint(secStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}
	var frac uint64
	if fracStr != "" {
		if len(fracStr) > 9 {
			fracStr = fracStr[:9]
		}
		frac, err = strconv.ParseUint(fracStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad timestamp %q", ts)
		}
		for i := len(fracStr); i < 9; i++ {
			frac *= 10
		}
	}
	return sec*1e9 + frac, nil
}

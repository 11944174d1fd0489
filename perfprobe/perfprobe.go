// Package perfprobe manages dynamic entry/return probes through the
// perf(1) command line tool: creating and deleting uprobes, recording a
// trace of their crossings, and spawning `perf script` to read it back.
// It papers over several version-dependent quirks of perf probe, so most
// commands are more tolerant of failure than usual.
package perfprobe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/blang/semver"
	"golang.org/x/sys/unix"
)

// MinVersion is the oldest perf known to support %return probes on
// user-space binaries the way this package drives them.
var MinVersion = semver.MustParse("3.10.0")

// ErrVersion reports a perf binary too old to use.
type ErrVersion struct {
	Version semver.Version
}

func (e *ErrVersion) Error() string {
	return fmt.Sprintf("perf %s is too old (need >= %s)", e.Version, MinVersion)
}

// A Perf drives one perf binary. Probe management needs root, so commands
// are prefixed with sudo when the current user is not already root.
type Perf struct {
	path    string
	sudo    bool
	version semver.Version
}

// New locates and version-checks the perf binary at path (or on $PATH
// when path is just "perf").
func New(path string) (*Perf, error) {
	p := &Perf{
		path: path,
		sudo: unix.Geteuid() != 0,
	}

	out, err := exec.Command(path, "version").Output()
	if err != nil {
		return nil, fmt.Errorf("perf not runnable: %w", err)
	}
	p.version, err = parseVersion(string(out))
	if err != nil {
		return nil, err
	}
	if p.version.LT(MinVersion) {
		return nil, &ErrVersion{Version: p.version}
	}

	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		logger.Debug().
			Str("kernel", unix.ByteSliceToString(uts.Release[:])).
			Str("perf", p.version.String()).
			Msg("probe environment")
	}
	return p, nil
}

// parseVersion extracts the semantic version from `perf version` output,
// e.g. "perf version 5.15.107" or "perf version 4.9.3.g1234abc".
func parseVersion(out string) (semver.Version, error) {
	fields := strings.Fields(out)
	if len(fields) < 3 || fields[0] != "perf" {
		return semver.Version{}, fmt.Errorf("unrecognized perf version output %q", strings.TrimSpace(out))
	}
	v := fields[2]
	// strip distro suffixes like 6.8.12-amd64
	v, _, _ = strings.Cut(v, "-")
	// strip git suffixes like 4.9.3.g1234abc
	if parts := strings.SplitN(v, ".", 4); len(parts) == 4 {
		v = strings.Join(parts[:3], ".")
	}
	ver, err := semver.ParseTolerant(v)
	if err != nil {
		return semver.Version{}, fmt.Errorf("cannot parse perf version %q: %w", v, err)
	}
	return ver, nil
}

// Version returns the detected perf version.
func (p *Perf) Version() semver.Version {
	return p.version
}

// command builds a perf invocation, prefixed with sudo when required.
func (p *Perf) command(args ...string) *exec.Cmd {
	if p.sudo {
		return exec.Command("sudo", append([]string{"-E", p.path}, args...)...)
	}
	return exec.Command(p.path, args...)
}

// run executes a perf command and returns its combined output. Output is
// combined because old perfs report some results on stderr.
func (p *Perf) run(args ...string) (string, error) {
	cmd := p.command(args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	logger.Debug().Strs("args", args).Err(err).Msg("perf")
	if err != nil {
		return buf.String(), fmt.Errorf("perf %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(buf.String()))
	}
	return buf.String(), nil
}

// DeleteAll removes every installed probe. Old perfs fail this command
// when no probes exist, so failure is ignored.
func (p *Perf) DeleteAll() {
	p.run("probe", "--del", "*")
}

// Add installs a pair of probes on the named function in the given
// binary: one at the entry point and one ("<fn>_ret") at the return. The
// raw mangled name is passed through untouched; perf's own demangling has
// been broken for probe placement for years, so it is disabled.
func (p *Perf) Add(bin, fn string) error {
	if _, err := p.run("probe", "-x", bin, "--no-demangle", "--add", fn); err != nil {
		return err
	}
	_, err := p.run("probe", "-x", bin, "--no-demangle", "--add",
		fmt.Sprintf("%s_ret=%s%%return", fn, fn))
	return err
}

// List returns the names of all installed probe events. Old perfs print
// the list on stderr and exit nonzero even on success, so the output is
// parsed regardless of the exit status.
func (p *Perf) List() ([]string, error) {
	out, err := p.run("probe", "--list")
	if out == "" && err != nil {
		return nil, err
	}
	probes := parseProbeList(out)
	if len(probes) == 0 {
		return nil, errors.New("no probes installed")
	}
	return probes, nil
}

// parseProbeList extracts probe event names from `perf probe --list`
// output, one probe per line with the name as the first token.
func parseProbeList(out string) []string {
	var probes []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || !strings.HasPrefix(fields[0], "probe_") {
			continue
		}
		probes = append(probes, fields[0])
	}
	return probes
}

// Record runs the target command under perf record, tracing the given
// probe events into datafile. The target inherits this process's stdio.
// Every installed probe is traced, not just the ones this run installed:
// perf may have expanded one function into several probe points, and only
// perf knows what it ended up with.
func (p *Perf) Record(events []string, datafile string, target string, args []string) error {
	perfArgs := []string{"record", "-o", datafile}
	for _, ev := range events {
		perfArgs = append(perfArgs, "-e", ev)
	}
	perfArgs = append(perfArgs, "--")
	perfArgs = append(perfArgs, target)
	perfArgs = append(perfArgs, args...)

	cmd := p.command(perfArgs...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("perf record: %w", err)
	}

	if p.sudo {
		// the recording ran as root, so make the data readable again
		if err := exec.Command("sudo", "chmod", "a+r", datafile).Run(); err != nil {
			return fmt.Errorf("chmod %s: %w", datafile, err)
		}
	}
	return nil
}

// Script starts `perf script` over the recorded data and returns its
// stdout for streaming. The caller must drain the reader and then call
// wait.
func (p *Perf) Script(datafile string) (out io.ReadCloser, wait func() error, err error) {
	cmd := p.command("script", "-i", datafile, "-F", "comm,tid,time,event")
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("perf script: %w", err)
	}
	return stdout, cmd.Wait, nil
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/funclock/funclock"
	"github.com/funclock/funclock/perfprobe"
	"github.com/funclock/funclock/perfscript"
	"github.com/funclock/funclock/symbols"
)

func fatal(a ...interface{}) {
	fmt.Fprintln(os.Stderr, a...)
	os.Exit(1)
}

func must(desc string, err error) {
	if err != nil {
		fatal(desc, ":", err)
	}
}

func metricsWriter(w io.Writer) funclock.MetricsWriter {
	if opts.Csv {
		return funclock.NewCSVWriter(w)
	}
	return funclock.NewTableWriter(w)
}

// demangleStats rewrites "lib!mangled" stat names for display.
func demangleStats(total funclock.TotalStats) funclock.TotalStats {
	for i, s := range total {
		lib, sym, ok := strings.Cut(s.Name, "!")
		if !ok {
			continue
		}
		total[i].Name = lib + "!" + symbols.Symbol{Name: sym}.Display()
	}
	return total
}

func main() {
	flagparser := flags.NewParser(&opts, flags.PassDoubleDash|flags.PrintErrors)
	flagparser.Usage = "[OPTIONS] COMMAND [ARGS]"
	args, err := flagparser.Parse()
	if err != nil {
		os.Exit(1)
	}

	if opts.Version {
		fmt.Println("funclock version", Version)
		os.Exit(0)
	}

	if len(args) <= 0 || opts.Help {
		flagparser.WriteHelp(os.Stdout)
		os.Exit(0)
	}

	if len(opts.Funcs) == 0 {
		fatal("no functions given (use -f 'pattern@binary')")
	}

	if opts.Verbose {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
		funclock.SetLogger(logger)
		perfprobe.SetLogger(logger)
	}

	cfg, err := loadConfig()
	must("config", err)

	target := args[0]
	args = args[1:]

	perf, err := perfprobe.New(cfg.Perf)
	must("perf", err)

	var specs []FuncSpec
	for _, f := range opts.Funcs {
		spec, err := ParseFuncSpec(f)
		must("func-spec", err)
		specs = append(specs, spec)
	}

	// Start from a clean slate; stale probes from a previous run would be
	// recorded too and pollute the statistics.
	perf.DeleteAll()

	for _, spec := range specs {
		bin, err := symbols.Open(spec.Binary)
		must("symbols", err)

		syms, err := bin.Match(spec.Pattern)
		must("func-lookup", err)

		for _, sym := range syms {
			if err := perf.Add(spec.Binary, sym.Name); err != nil {
				fmt.Fprintln(os.Stderr, "probe-add :", err)
			}
		}
	}

	probes, err := perf.List()
	must("probe-list", err)

	err = perf.Record(probes, cfg.DataFile, target, args)
	if !opts.KeepProbes {
		defer perf.DeleteAll()
	}
	must("record", err)

	scriptOut, wait, err := perf.Script(cfg.DataFile)
	must("script", err)

	pipeline := funclock.NewPipeline(perfscript.NewScanner(scriptOut), funclock.Options{
		ReorderWindow: cfg.ReorderWindow,
	})
	must("trace", pipeline.Run())
	must("script", wait())

	total := pipeline.Stats()
	if !opts.Mangled {
		total = demangleStats(total)
	}

	var out io.WriteCloser = os.Stdout
	if opts.Output != "" {
		f, err := os.OpenFile(opts.Output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
		must("open-output", err)
		out = f
	}

	mw := metricsWriter(out)
	if opts.NoSort {
		total.WriteTo(mw)
	} else {
		total.WriteToSorted(mw, opts.SortKey, opts.ReverseSort)
	}
	out.Close()

	if q := pipeline.Quality(); q.Total() > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d events dropped; min/max/stddev may be unreliable\n", q.Total())
		q.WriteTo(funclock.NewTableWriter(os.Stderr))
	}
}

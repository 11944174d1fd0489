package main

import (
	"fmt"
	"strings"
)

var opts struct {
	Funcs       []string `short:"f" long:"func" description:"Function(s) to time, as 'pattern@binary'; the pattern is a glob over symbol names"`
	KeepProbes  bool     `short:"k" long:"keep-probes" description:"Leave the probes installed after the run"`
	SortKey     string   `long:"sort-key" default:"mean" description:"Column to sort the summary table with"`
	ReverseSort bool     `long:"reverse-sort" description:"Reverse summary table sorting"`
	NoSort      bool     `long:"no-sort" description:"Don't sort the summary table"`
	Csv         bool     `long:"csv" description:"Write summary output in CSV format"`
	Output      string   `short:"o" long:"output" description:"Write summary output to file"`
	Mangled     bool     `long:"mangled" description:"Report raw mangled symbol names"`
	Verbose     bool     `short:"V" long:"verbose" description:"Show verbose debug information"`
	Version     bool     `short:"v" long:"version" description:"Show version information"`
	Help        bool     `short:"h" long:"help" description:"Show this help message"`
}

// A FuncSpec is one parsed -f argument: a glob over function symbols in
// one binary.
type FuncSpec struct {
	Pattern string
	Binary  string
}

// ParseFuncSpec splits 'pattern@binary'. The split happens at the last
// '@' so C++ patterns containing '@' still work.
func ParseFuncSpec(s string) (FuncSpec, error) {
	i := strings.LastIndex(s, "@")
	if i <= 0 || i == len(s)-1 {
		return FuncSpec{}, fmt.Errorf("invalid function spec %q: want 'pattern@binary'", s)
	}
	return FuncSpec{
		Pattern: s[:i],
		Binary:  s[i+1:],
	}, nil
}

// Package symbols resolves function name patterns against the symbol
// tables of ELF executables and shared libraries. Probes are placed on
// mangled names (perf is told not to demangle), so lookups happen on the
// raw symbol and demangling is only for display.
package symbols

import (
	"debug/elf"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ianlancetaylor/demangle"
)

// A Symbol is one function symbol from the binary.
type Symbol struct {
	// Name is the raw (possibly mangled) symbol name.
	Name string
	// Addr is the symbol value from the symbol table.
	Addr uint64
}

// Display returns a human-readable name: the demangled form for C++
// symbols, the raw name otherwise.
func (s Symbol) Display() string {
	return demangle.Filter(s.Name)
}

// A File holds the function symbols of one ELF binary.
type File struct {
	name  string
	funcs map[string]uint64
}

// Open reads the function symbols of the ELF file at the given path. Both
// the static and the dynamic symbol table are consulted; shared libraries
// frequently carry only the latter.
func Open(binpath string) (*File, error) {
	f, err := elf.Open(binpath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b := &File{
		name:  path.Base(binpath),
		funcs: make(map[string]uint64),
	}

	syms, err := f.Symbols()
	if err != nil && err != elf.ErrNoSymbols {
		return nil, err
	}
	dyns, derr := f.DynamicSymbols()
	if derr != nil && derr != elf.ErrNoSymbols {
		return nil, derr
	}

	for _, s := range append(syms, dyns...) {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Name == "" || s.Value == 0 {
			continue
		}
		b.funcs[s.Name] = s.Value
	}

	if len(b.funcs) == 0 {
		return nil, fmt.Errorf("%s: no function symbols", binpath)
	}
	return b, nil
}

// Name returns the base name of the binary this file was read from.
func (f *File) Name() string {
	return f.name
}

// Match returns all function symbols matching the glob pattern, sorted by
// name. PLT stubs and compiler-generated OpenMP outlined bodies are never
// matched; probing those only produces noise. A pattern that matches
// nothing is an error, since it means no probes would be placed.
func (f *File) Match(pattern string) ([]Symbol, error) {
	names := make([]string, 0, len(f.funcs))
	for name := range f.funcs {
		names = append(names, name)
	}
	matched := matchFuncs(names, pattern)
	if len(matched) == 0 {
		return nil, fmt.Errorf("%s: no functions match pattern %q", f.name, pattern)
	}

	syms := make([]Symbol, 0, len(matched))
	for _, name := range matched {
		syms = append(syms, Symbol{
			Name: name,
			Addr: f.funcs[name],
		})
	}
	return syms, nil
}

// matchFuncs filters names through the glob pattern, dropping PLT and
// OpenMP noise, and returns the survivors sorted.
func matchFuncs(names []string, pattern string) []string {
	var matched []string
	for _, name := range names {
		ok, err := path.Match(pattern, name)
		if err != nil || !ok {
			continue
		}
		if strings.HasSuffix(name, "@plt") || strings.Contains(name, "_omp_fn") {
			continue
		}
		matched = append(matched, name)
	}
	sort.Strings(matched)
	return matched
}

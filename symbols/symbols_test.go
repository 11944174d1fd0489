package symbols

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMatchFuncs(t *testing.T) {
	names := []string{
		"dgemm_",
		"dgemv_",
		"sgemm_",
		"dgemm_@plt",
		"dgemm_._omp_fn.0",
		"main",
	}
	tests := []struct {
		pattern string
		want    []string
	}{
		{"dgem*", []string{"dgemm_", "dgemv_"}},
		{"*gemm_", []string{"dgemm_", "sgemm_"}},
		{"main", []string{"main"}},
		{"missing*", nil},
	}
	for _, tt := range tests {
		got := matchFuncs(names, tt.pattern)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("matchFuncs(%q) mismatch (-want +got):\n%s", tt.pattern, diff)
		}
	}
}

func TestSymbolDisplay(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"_Z3addii", "add(int, int)"},
		{"plain_c_function", "plain_c_function"},
	}
	for _, tt := range tests {
		got := Symbol{Name: tt.name}.Display()
		if got != tt.want {
			t.Errorf("Display(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

package funclock

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// TotalStats is the finished statistics table for a whole run.
type TotalStats []FunctionStats

func fmtNs(ns float64) string {
	return time.Duration(math.Round(ns)).String()
}

func (t TotalStats) header() []string {
	return []string{"function", "calls", "mean", "min", "max", "stddev"}
}

func (t TotalStats) row(s FunctionStats) []string {
	return []string{
		s.Name,
		strconv.FormatUint(s.Count, 10),
		fmtNs(s.Mean),
		fmtNs(s.Min),
		fmtNs(s.Max),
		fmtNs(s.Stddev),
	}
}

// WriteTo writes the table in its current (name-sorted) order.
func (t TotalStats) WriteTo(w MetricsWriter) {
	w.SetHeader(t.header())
	for _, s := range t {
		w.Append(t.row(s))
	}
	w.Render()
}

// WriteToSorted writes the table sorted by the given column. Valid keys
// are the column headers; an unknown key leaves the order unchanged.
// Numeric columns sort descending by default so the slowest functions come
// first; reverse flips the direction.
func (t TotalStats) WriteToSorted(w MetricsWriter, key string, reverse bool) {
	sorted := make(TotalStats, len(t))
	copy(sorted, t)

	num := func(s FunctionStats) float64 { return -1 }
	switch key {
	case "calls":
		num = func(s FunctionStats) float64 { return float64(s.Count) }
	case "mean":
		num = func(s FunctionStats) float64 { return s.Mean }
	case "min":
		num = func(s FunctionStats) float64 { return s.Min }
	case "max":
		num = func(s FunctionStats) float64 { return s.Max }
	case "stddev":
		num = func(s FunctionStats) float64 { return s.Stddev }
	case "function":
		sort.SliceStable(sorted, func(i, j int) bool {
			if reverse {
				return sorted[j].Name < sorted[i].Name
			}
			return sorted[i].Name < sorted[j].Name
		})
		sorted.WriteTo(w)
		return
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if reverse {
			return num(sorted[i]) < num(sorted[j])
		}
		return num(sorted[j]) < num(sorted[i])
	})
	sorted.WriteTo(w)
}

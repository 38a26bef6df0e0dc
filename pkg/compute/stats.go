package compute

import (
	"fmt"
	"math"
	"slices"

	"github.com/cazuela/gasmonitor/pkg/types"
)

// Summarize computes descriptive statistics and threshold-breach counts over
// every reading in ds.
func Summarize(ds types.Dataset, th types.Thresholds) (types.StatsSummary, error) {
	if ds.Empty() {
		return types.StatsSummary{}, fmt.Errorf("compute: summarize: %w", types.ErrEmptyDataset)
	}

	values := ds.Values()
	n := len(values)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	var std float64
	if n > 1 {
		std = math.Sqrt(sq / float64(n-1))
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	out := types.StatsSummary{
		Count:  n,
		Mean:   mean,
		Std:    std,
		Min:    sorted[0],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.50),
		Q3:     quantile(sorted, 0.75),
		Max:    sorted[n-1],
	}

	for _, v := range values {
		if v > th.Critical {
			out.HighCount++
		}
		if v > th.Warning {
			out.WarnCount++
		}
		if v > th.Alert {
			out.AlertCount++
		}
	}

	out.HighPercent = percentOf(out.HighCount, n)
	out.WarnPercent = percentOf(out.WarnCount, n)
	out.AlertPercent = percentOf(out.AlertCount, n)
	out.SafeOperationPercent = percentOf(n-out.HighCount, n)
	return out, nil
}

// AlertCount returns how many readings are strictly above alert.
func AlertCount(ds types.Dataset, alert float64) int {
	var n int
	for _, r := range ds.Readings {
		if r.Value > alert {
			n++
		}
	}
	return n
}

// MinMax returns the smallest and largest value in ds.
func MinMax(ds types.Dataset) (lo, hi float64, err error) {
	if ds.Empty() {
		return 0, 0, fmt.Errorf("compute: min/max: %w", types.ErrEmptyDataset)
	}
	lo, hi = ds.Readings[0].Value, ds.Readings[0].Value
	for _, r := range ds.Readings[1:] {
		lo = math.Min(lo, r.Value)
		hi = math.Max(hi, r.Value)
	}
	return lo, hi, nil
}

// Mean returns the arithmetic mean of ds.
func Mean(ds types.Dataset) (float64, error) {
	if ds.Empty() {
		return 0, fmt.Errorf("compute: mean: %w", types.ErrEmptyDataset)
	}
	var sum float64
	for _, r := range ds.Readings {
		sum += r.Value
	}
	return sum / float64(len(ds.Readings)), nil
}

// quantile returns the p-th quantile of an ascending slice by linear
// interpolation between the two closest ranks. sorted must be non-empty.
func quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// percentOf returns part/total*100. total must be positive.
func percentOf(part, total int) float64 {
	return float64(part) / float64(total) * 100
}

package filter

import (
	"fmt"

	"github.com/cazuela/gasmonitor/pkg/compute"
	"github.com/cazuela/gasmonitor/pkg/types"
)

// Epsilon is the widest value spread still treated as "no variation".
// The comparison is absolute: sensor values are percentages, so anything
// below a billionth of a percent is measurement noise.
const Epsilon = 1e-9

// Above returns the readings with value > lower.
func Above(ds types.Dataset, lower float64) (types.FilteredView, error) {
	if err := checkVariation(ds); err != nil {
		return types.FilteredView{}, fmt.Errorf("filter: above %v: %w", lower, err)
	}
	return types.FilteredView{
		Dataset: keep(ds, func(v float64) bool { return v > lower }),
		Lower:   &lower,
	}, nil
}

// Below returns the readings with value < upper.
func Below(ds types.Dataset, upper float64) (types.FilteredView, error) {
	if err := checkVariation(ds); err != nil {
		return types.FilteredView{}, fmt.Errorf("filter: below %v: %w", upper, err)
	}
	return types.FilteredView{
		Dataset: keep(ds, func(v float64) bool { return v < upper }),
		Upper:   &upper,
	}, nil
}

// Between returns the readings with lower < value < upper.
func Between(ds types.Dataset, lower, upper float64) (types.FilteredView, error) {
	if err := checkVariation(ds); err != nil {
		return types.FilteredView{}, fmt.Errorf("filter: between %v and %v: %w", lower, upper, err)
	}
	return types.FilteredView{
		Dataset: keep(ds, func(v float64) bool { return v > lower && v < upper }),
		Lower:   &lower,
		Upper:   &upper,
	}, nil
}

// HasVariation reports whether ds can be range-filtered.
func HasVariation(ds types.Dataset) bool {
	return checkVariation(ds) == nil
}

func checkVariation(ds types.Dataset) error {
	lo, hi, err := compute.MinMax(ds)
	if err != nil {
		return err
	}
	if hi-lo <= Epsilon {
		return types.ErrNoVariation
	}
	return nil
}

func keep(ds types.Dataset, pred func(float64) bool) types.Dataset {
	out := make([]types.SensorReading, 0, len(ds.Readings))
	for _, r := range ds.Readings {
		if pred(r.Value) {
			out = append(out, r)
		}
	}
	return ds.Subset(out)
}

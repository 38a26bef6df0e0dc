package filter

import (
	"errors"
	"fmt"
	"math"

	"github.com/cazuela/gasmonitor/pkg/compute"
	"github.com/cazuela/gasmonitor/pkg/types"
)

// Bounds is the slider range offered to the operator and its starting point.
type Bounds struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// Suggest returns [min, max] of ds and the dataset mean clamped to that range
// as the default for both range sliders.
func Suggest(ds types.Dataset) (Bounds, error) {
	lo, hi, err := compute.MinMax(ds)
	if err != nil {
		return Bounds{}, fmt.Errorf("filter: suggest: %w", err)
	}
	mean, err := compute.Mean(ds)
	if err != nil {
		return Bounds{}, fmt.Errorf("filter: suggest: %w", err)
	}
	return Bounds{
		Min:     lo,
		Max:     hi,
		Default: math.Min(math.Max(mean, lo), hi),
	}, nil
}

// Request is one filtering interaction. Nil bounds fall back to the
// suggested default.
type Request struct {
	Lower *float64
	Upper *float64
}

// Result is everything the filters tab shows for one Request.
type Result struct {
	Bounds     Bounds  `json:"bounds"`
	Alert      float64 `json:"alert"`
	AlertCount int     `json:"alert_count"`

	// NoVariation is set when the dataset cannot be filtered. Notice then
	// explains why and Full carries the unfiltered dataset.
	NoVariation bool           `json:"no_variation"`
	Notice      string         `json:"notice,omitempty"`
	Full        *types.Dataset `json:"full,omitempty"`

	Above *types.FilteredView `json:"above,omitempty"`
	Below *types.FilteredView `json:"below,omitempty"`
}

// Apply runs one filtering interaction against ds. The only error is
// types.ErrEmptyDataset; a dataset without variation yields a Result with
// NoVariation set.
func Apply(ds types.Dataset, th types.Thresholds, req Request) (Result, error) {
	bounds, err := Suggest(ds)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Bounds:     bounds,
		Alert:      th.Alert,
		AlertCount: compute.AlertCount(ds, th.Alert),
	}

	lower, upper := bounds.Default, bounds.Default
	if req.Lower != nil {
		lower = *req.Lower
	}
	if req.Upper != nil {
		upper = *req.Upper
	}

	above, err := Above(ds, lower)
	if errors.Is(err, types.ErrNoVariation) {
		full := ds
		res.NoVariation = true
		res.Notice = fmt.Sprintf("all readings are %.2f%%; filters need variation in the data", bounds.Min)
		res.Full = &full
		return res, nil
	}
	if err != nil {
		return Result{}, err
	}
	below, err := Below(ds, upper)
	if err != nil {
		return Result{}, err
	}

	res.Above = &above
	res.Below = &below
	return res, nil
}

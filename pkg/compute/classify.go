package compute

import (
	"fmt"

	"github.com/cazuela/gasmonitor/pkg/types"
)

// Classify maps a gas level to its safety state. First match wins:
// value > Critical, then value > Warning, otherwise Normal.
func Classify(value float64, th types.Thresholds) types.Classification {
	switch {
	case value > th.Critical:
		return types.Critical
	case value > th.Warning:
		return types.Warning
	default:
		return types.Normal
	}
}

// Overview is the headline status of a dataset: the latest reading and its
// state, plus the mean and peak levels shown next to it.
type Overview struct {
	Current        types.SensorReading  `json:"current"`
	Classification types.Classification `json:"classification"`
	Mean           float64              `json:"mean"`
	Max            float64              `json:"max"`
	Count          int                  `json:"count"`
}

// Current returns the chronologically last reading and its classification.
func Current(ds types.Dataset, th types.Thresholds) (types.SensorReading, types.Classification, error) {
	last, ok := ds.Last()
	if !ok {
		return types.SensorReading{}, "", fmt.Errorf("compute: current: %w", types.ErrEmptyDataset)
	}
	return last, Classify(last.Value, th), nil
}

// OverviewOf computes the headline status of ds.
func OverviewOf(ds types.Dataset, th types.Thresholds) (Overview, error) {
	last, class, err := Current(ds, th)
	if err != nil {
		return Overview{}, err
	}
	mean, err := Mean(ds)
	if err != nil {
		return Overview{}, err
	}
	_, peak, err := MinMax(ds)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		Current:        last,
		Classification: class,
		Mean:           mean,
		Max:            peak,
		Count:          ds.Len(),
	}, nil
}

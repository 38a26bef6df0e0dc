package compute

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cazuela/gasmonitor/pkg/types"
)

func TestSummarize_ThreeReadingScenario(t *testing.T) {
	s, err := Summarize(series(50, 65, 85), types.DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 66.67, s.Mean, 0.01)
	assert.Equal(t, 50.0, s.Min)
	assert.Equal(t, 85.0, s.Max)
	assert.Equal(t, 1, s.HighCount)
	assert.Equal(t, 2, s.WarnCount)
	assert.Equal(t, 1, s.AlertCount) // 85 > 75

	// Sample standard deviation: sqrt(616.67 / 2)
	assert.InDelta(t, 17.559, s.Std, 0.001)

	assert.InDelta(t, 57.5, s.Q1, 1e-9)
	assert.InDelta(t, 65.0, s.Median, 1e-9)
	assert.InDelta(t, 75.0, s.Q3, 1e-9)

	assert.InDelta(t, 33.33, s.HighPercent, 0.01)
	assert.InDelta(t, 66.67, s.WarnPercent, 0.01)
	assert.InDelta(t, 66.67, s.SafeOperationPercent, 0.01)
}

func TestSummarize_SingleReading(t *testing.T) {
	s, err := Summarize(series(42), types.DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, 1, s.Count)
	assert.Equal(t, 42.0, s.Mean)
	assert.Equal(t, 0.0, s.Std)
	assert.Equal(t, 42.0, s.Q1)
	assert.Equal(t, 42.0, s.Q3)
	assert.Equal(t, 100.0, s.SafeOperationPercent)
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(types.Dataset{}, types.DefaultThresholds())
	assert.True(t, errors.Is(err, types.ErrEmptyDataset), "got %v", err)
}

func TestSummarize_AlertThresholdIsParameter(t *testing.T) {
	ds := series(10, 20, 30, 40)
	tests := []struct {
		alert float64
		want  int
	}{
		{0, 4},
		{20, 2},
		{39.9, 1},
		{40, 0},
		{75, 0},
	}
	for _, tc := range tests {
		s, err := Summarize(ds, types.DefaultThresholds().WithAlert(tc.alert))
		require.NoError(t, err)
		assert.Equal(t, tc.want, s.AlertCount, "alert=%v", tc.alert)
		assert.Equal(t, tc.want, AlertCount(ds, tc.alert), "AlertCount(%v)", tc.alert)
	}
}

func TestSummarize_BreachCountsOrdered(t *testing.T) {
	// Property: HighCount <= WarnCount <= Count for any non-empty dataset.
	rng := rand.New(rand.NewSource(7))
	th := types.DefaultThresholds()
	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(50)
		values := make([]float64, n)
		for j := range values {
			values[j] = rng.Float64()*140 - 20
		}
		s, err := Summarize(series(values...), th)
		require.NoError(t, err)

		assert.LessOrEqual(t, s.HighCount, s.WarnCount)
		assert.LessOrEqual(t, s.WarnCount, s.Count)
		assert.LessOrEqual(t, s.Min, s.Q1)
		assert.LessOrEqual(t, s.Q1, s.Median)
		assert.LessOrEqual(t, s.Median, s.Q3)
		assert.LessOrEqual(t, s.Q3, s.Max)
	}
}

func TestSummarize_OrderIndependent(t *testing.T) {
	th := types.DefaultThresholds()
	a, err := Summarize(series(12, 70, 33, 91, 58), th)
	require.NoError(t, err)
	b, err := Summarize(series(91, 58, 12, 33, 70), th)
	require.NoError(t, err)

	assert.Equal(t, a.Min, b.Min)
	assert.Equal(t, a.Max, b.Max)
	assert.Equal(t, a.Median, b.Median)
	assert.InDelta(t, a.Mean, b.Mean, 1e-9)
	assert.InDelta(t, a.Std, b.Std, 1e-9)
	assert.Equal(t, a.HighCount, b.HighCount)
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	tests := []struct{ p, want float64 }{
		{0, 1}, {0.25, 1.75}, {0.5, 2.5}, {0.75, 3.25}, {1, 4},
	}
	for _, tc := range tests {
		assert.InDelta(t, tc.want, quantile(sorted, tc.p), 1e-9, "p=%v", tc.p)
	}
}

func TestMinMaxAndMean(t *testing.T) {
	lo, hi, err := MinMax(series(5, -3, 12))
	require.NoError(t, err)
	assert.Equal(t, -3.0, lo)
	assert.Equal(t, 12.0, hi)

	m, err := Mean(series(5, -3, 13))
	require.NoError(t, err)
	assert.Equal(t, 5.0, m)

	_, _, err = MinMax(types.Dataset{})
	assert.ErrorIs(t, err, types.ErrEmptyDataset)
	_, err = Mean(types.Dataset{})
	assert.ErrorIs(t, err, types.ErrEmptyDataset)
}

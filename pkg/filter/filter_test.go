package filter

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cazuela/gasmonitor/pkg/types"
)

// plain builds an untimed dataset in input order.
func plain(values ...float64) types.Dataset {
	ds := types.Dataset{SourceColumn: "sensor1"}
	for i, v := range values {
		ds.Readings = append(ds.Readings, types.SensorReading{Index: i, Value: v})
	}
	return ds
}

func TestAbove_Strict(t *testing.T) {
	v, err := Above(plain(10, 50, 51, 90, 50), 50)
	require.NoError(t, err)

	assert.Equal(t, []float64{51, 90}, v.Dataset.Values())
	require.NotNil(t, v.Lower)
	assert.Equal(t, 50.0, *v.Lower)
	assert.Nil(t, v.Upper)
	assert.Equal(t, "sensor1", v.Dataset.SourceColumn)
}

func TestBelow_Strict(t *testing.T) {
	v, err := Below(plain(10, 50, 51, 90, 50), 50)
	require.NoError(t, err)

	assert.Equal(t, []float64{10}, v.Dataset.Values())
	require.NotNil(t, v.Upper)
	assert.Nil(t, v.Lower)
}

func TestBetween(t *testing.T) {
	v, err := Between(plain(10, 50, 51, 90, 60), 50, 90)
	require.NoError(t, err)
	assert.Equal(t, []float64{51, 60}, v.Dataset.Values())
}

func TestFilters_KeepOrderAndIndex(t *testing.T) {
	v, err := Above(plain(70, 5, 80, 6, 75), 50)
	require.NoError(t, err)

	require.Len(t, v.Dataset.Readings, 3)
	assert.Equal(t, []int{0, 2, 4}, []int{
		v.Dataset.Readings[0].Index,
		v.Dataset.Readings[1].Index,
		v.Dataset.Readings[2].Index,
	})
}

func TestFilters_NoVariation(t *testing.T) {
	ds := plain(42, 42, 42, 42)

	_, err := Above(ds, 10)
	assert.True(t, errors.Is(err, types.ErrNoVariation), "Above: %v", err)
	_, err = Below(ds, 50)
	assert.True(t, errors.Is(err, types.ErrNoVariation), "Below: %v", err)
	_, err = Between(ds, 0, 100)
	assert.True(t, errors.Is(err, types.ErrNoVariation), "Between: %v", err)
	assert.False(t, HasVariation(ds))
}

func TestFilters_EpsilonBoundary(t *testing.T) {
	assert.False(t, HasVariation(plain(42, 42+Epsilon/2)), "spread below epsilon")
	assert.True(t, HasVariation(plain(42, 42.000001)), "spread above epsilon")
	assert.False(t, HasVariation(plain(7)), "single reading")
}

func TestFilters_Empty(t *testing.T) {
	_, err := Above(types.Dataset{}, 10)
	assert.True(t, errors.Is(err, types.ErrEmptyDataset), "got %v", err)
}

func TestFilters_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	values := make([]float64, 300)
	for i := range values {
		values[i] = rng.Float64() * 100
	}
	ds := plain(values...)

	prevAbove, prevBelow := len(values)+1, -1
	for b := -5.0; b <= 105; b += 0.5 {
		above, err := Above(ds, b)
		require.NoError(t, err)
		below, err := Below(ds, b)
		require.NoError(t, err)

		assert.LessOrEqual(t, above.Dataset.Len(), prevAbove, "Above grew at b=%v", b)
		assert.GreaterOrEqual(t, below.Dataset.Len(), prevBelow, "Below shrank at b=%v", b)
		prevAbove, prevBelow = above.Dataset.Len(), below.Dataset.Len()
	}
}

func TestFilters_DoNotAliasSource(t *testing.T) {
	ds := plain(10, 90)
	v, err := Above(ds, 50)
	require.NoError(t, err)

	v.Dataset.Readings[0].Value = -1
	assert.Equal(t, 90.0, ds.Readings[1].Value)
}

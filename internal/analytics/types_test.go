package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func createTestSeries(values []float64) TimeSeriesData {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := make(TimeSeriesData, len(values))
	for i, v := range values {
		data[i] = TimeSeriesPoint{Time: base.AddDate(0, i, 0), Value: v}
	}
	return data
}

func TestTimeSeriesData_Values(t *testing.T) {
	data := createTestSeries([]float64{1, 2, 3})

	assert.Equal(t, []float64{1, 2, 3}, data.Values())
	assert.Empty(t, TimeSeriesData{}.Values())
}

func TestTimeSeriesData_Mean(t *testing.T) {
	assert.Equal(t, 0.0, TimeSeriesData{}.Mean())
	assert.Equal(t, 20.0, createTestSeries([]float64{10, 20, 30}).Mean())
}

func TestMean_EqualValuesAreExact(t *testing.T) {
	for _, v := range []float64{0.7, 123.456, 0.1, -3.3, 1e-9} {
		values := make([]float64, 20)
		for i := range values {
			values[i] = v
		}
		assert.Equal(t, v, Mean(values), "mean of 20 x %v", v)
	}
}

func TestMean_Compensated(t *testing.T) {
	values := make([]float64, 0, 1001)
	values = append(values, 1e8)
	for i := 0; i < 1000; i++ {
		values = append(values, 0.1)
	}

	assert.InDelta(t, (1e8+100)/1001, Mean(values), 1e-9)
	assert.Equal(t, 0.0, Mean(nil))
}

func TestAllEqual(t *testing.T) {
	assert.True(t, AllEqual(nil))
	assert.True(t, AllEqual([]float64{4}))
	assert.True(t, AllEqual([]float64{0.7, 0.7, 0.7}))
	assert.False(t, AllEqual([]float64{0.7, 0.7, 0.70000001}))
}

func TestTimeSeriesData_Finite(t *testing.T) {
	data := createTestSeries([]float64{1, math.NaN(), 2, math.Inf(1), 3, math.Inf(-1)})

	finite := data.Finite()

	assert.Equal(t, []float64{1, 2, 3}, finite.Values())
	assert.Len(t, data, 6, "input is untouched")
}

func TestTimeSeriesData_IsSorted(t *testing.T) {
	data := createTestSeries([]float64{1, 2, 3})
	assert.True(t, data.IsSorted())

	data[0], data[2] = data[2], data[0]
	assert.False(t, data.IsSorted())

	assert.True(t, TimeSeriesData{}.IsSorted())
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(0))
	assert.True(t, IsFinite(-1e300))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(1)))
	assert.False(t, IsFinite(math.Inf(-1)))
}

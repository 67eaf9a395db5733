package xmr

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_FlatSeries(t *testing.T) {
	data := createTestObservations(repeat(100, 10))

	result, err := Analyze(data, DefaultOptions())

	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Limits.AvgMovement)
	assert.Equal(t, 100.0, result.Limits.UNPL)
	assert.Equal(t, 100.0, result.Limits.LNPL)
	assert.Len(t, result.Points, 10)
	assert.Len(t, result.Movements, 9)
	for _, p := range result.Points {
		assert.False(t, p.Has(SignalLimit))
	}
	assert.Equal(t, 0, result.SignalCount())
	assert.Nil(t, result.Trend)
	assert.Nil(t, result.Seasonality)
}

func TestAnalyze_FlatSeriesInexactValue(t *testing.T) {
	for _, v := range []float64{0.7, 123.456, 0.1} {
		data := createTestObservations(repeat(v, 20))

		result, err := Analyze(data, Options{IncludeTrend: true, IncludeSeasonality: true})

		require.NoError(t, err)
		assert.Equal(t, v, result.Limits.AvgX)
		assert.Equal(t, v, result.Limits.UNPL)
		assert.Equal(t, v, result.Limits.LNPL)
		assert.False(t, result.Sloped(), "value %v", v)
		assert.Equal(t, 0, result.SignalCount(), "value %v", v)
		require.NotNil(t, result.Trend)
		assert.False(t, result.Trend.IsSignificant)
	}
}

func TestAnalyze_Overflow(t *testing.T) {
	data := createTestObservations([]float64{1e308, -1e308, 1e308, -1e308, 1e308, -1e308})

	_, err := Analyze(data, Options{IncludeTrend: true})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOverflow))

	_, err = Analyze(createTestObservations([]float64{1e300, 2e300, 1e300}), DefaultOptions())
	assert.NoError(t, err, "large values that stay in range are accepted")
}

func TestAnalyze_SingleOutlier(t *testing.T) {
	values := repeat(100, 20)
	values[10] = 200
	data := createTestObservations(values)

	result, err := Analyze(data, DefaultOptions())

	require.NoError(t, err)
	// avgX = 105, avgMovement = 200/19, UNPL ≈ 133
	assert.InDelta(t, 105.0, result.Limits.AvgX, 1e-9)
	assert.InDelta(t, 200.0/19, result.Limits.AvgMovement, 1e-9)

	for i, p := range result.Points {
		if i == 10 {
			assert.True(t, p.Has(SignalLimit), "outlier must be flagged")
			primary, ok := p.Primary()
			assert.True(t, ok)
			assert.Equal(t, SignalLimit, primary)
			continue
		}
		assert.False(t, p.Has(SignalLimit), "point %d", i)
	}

	// Both moving ranges touching the outlier exceed the upper range limit
	exceeding := 0
	for _, m := range result.Movements {
		if result.Limits.MovementExceeds(m) {
			exceeding++
		}
	}
	assert.Equal(t, 2, exceeding)
}

func TestAnalyze_RunOfEight(t *testing.T) {
	values := append(repeat(10, 8), repeat(0, 12)...)
	data := createTestObservations(values)

	result, err := Analyze(data, DefaultOptions())

	require.NoError(t, err)
	require.InDelta(t, 4.0, result.Limits.AvgX, 1e-9)

	for i := 0; i < 7; i++ {
		assert.False(t, result.Points[i].Has(SignalRun8), "index %d", i)
	}
	assert.True(t, result.Points[7].Has(SignalRun8), "eighth point above center")
	for i := 8; i < 15; i++ {
		assert.False(t, result.Points[i].Has(SignalRun8), "index %d", i)
	}
	for i := 15; i < 20; i++ {
		assert.True(t, result.Points[i].Has(SignalRun8), "index %d", i)
	}
}

func TestAnalyze_Trend(t *testing.T) {
	data := createTestObservations([]float64{10, 20, 30, 40, 50, 60, 70, 80})

	t.Run("not requested", func(t *testing.T) {
		result, err := Analyze(data, Options{})
		require.NoError(t, err)
		assert.Nil(t, result.Trend)
		assert.False(t, result.Sloped())
	})

	t.Run("significant", func(t *testing.T) {
		result, err := Analyze(data, Options{IncludeTrend: true})
		require.NoError(t, err)
		require.NotNil(t, result.Trend)
		assert.True(t, result.Trend.IsSignificant)
		assert.Equal(t, DirectionIncreasing, result.Trend.Direction)
		assert.True(t, result.Sloped())

		// Every point sits on the fitted line, so none is out of the sloped limits
		for i, p := range result.Points {
			assert.False(t, p.Has(SignalLimit), "point %d", i)
		}
	})

	t.Run("too short", func(t *testing.T) {
		result, err := Analyze(data[:5], Options{IncludeTrend: true})
		require.NoError(t, err)
		assert.Nil(t, result.Trend)
	})
}

func TestAnalyze_TrendFlattensFalseSignals(t *testing.T) {
	values := make([]float64, 24)
	for i := range values {
		values[i] = 100 + 5*float64(i) + float64(i%2)
	}
	data := createTestObservations(values)

	flat, err := Analyze(data, Options{})
	require.NoError(t, err)
	sloped, err := Analyze(data, Options{IncludeTrend: true})
	require.NoError(t, err)

	assert.Greater(t, flat.SignalCount(), 0, "a steady climb looks special against flat lines")
	assert.Equal(t, 0, sloped.SignalCount())
}

func TestAnalyze_Seasonality(t *testing.T) {
	data := createTestObservations([]float64{1, 2, 3, 4, 5, 6, 7, 8})

	result, err := Analyze(data, Options{IncludeSeasonality: true, SeasonalPeriod: 4})
	require.NoError(t, err)
	require.NotNil(t, result.Seasonality)
	assert.Len(t, result.Seasonality.Buckets, 4)

	// Zero period falls back to 12, which needs 24 points
	result, err = Analyze(data, Options{IncludeSeasonality: true})
	require.NoError(t, err)
	assert.Nil(t, result.Seasonality)
}

func TestAnalyze_Idempotent(t *testing.T) {
	values := []float64{12, 15, 11, 18, 30, 14, 13, 12, 16, 15, 14, 40, 13, 12, 11, 10}
	data := createTestObservations(values)
	opts := Options{IncludeTrend: true, IncludeSeasonality: true, SeasonalPeriod: 4}

	first, err := Analyze(data, opts)
	require.NoError(t, err)
	second, err := Analyze(data, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyze_DoesNotMutateInput(t *testing.T) {
	data := createTestObservations([]float64{3, math.NaN(), 5, 7})
	snapshot := make([]Observation, len(data))
	copy(snapshot, data)

	_, err := Analyze(data, DefaultOptions())
	require.NoError(t, err)

	for i := range data {
		assert.Equal(t, snapshot[i].Time, data[i].Time)
	}
	assert.True(t, math.IsNaN(data[1].Value))
}

func TestAnalyze_DropsNonFinite(t *testing.T) {
	data := createTestObservations([]float64{10, math.NaN(), 20, math.Inf(1), 30, math.Inf(-1)})

	result, err := Analyze(data, DefaultOptions())

	require.NoError(t, err)
	require.Len(t, result.Points, 3)
	assert.Equal(t, 10.0, result.Points[0].Value)
	assert.Equal(t, 20.0, result.Points[1].Value)
	assert.Equal(t, 30.0, result.Points[2].Value)
	assert.InDelta(t, 20.0, result.Limits.AvgX, 1e-9)
	assert.InDelta(t, 10.0, result.Limits.AvgMovement, 1e-9)
}

func TestAnalyze_Empty(t *testing.T) {
	result, err := Analyze(nil, Options{IncludeTrend: true, IncludeSeasonality: true})

	require.NoError(t, err)
	assert.Empty(t, result.Points)
	assert.Empty(t, result.Movements)
	assert.Equal(t, Limits{}, result.Limits)
	assert.Nil(t, result.Trend)
	assert.Nil(t, result.Seasonality)
	assert.Nil(t, result.Labels())

	_, ok := result.Latest()
	assert.False(t, ok)
}

func TestAnalyze_MissingDate(t *testing.T) {
	data := createTestObservations([]float64{1, 2, 3})
	data[1].Time = time.Time{}

	_, err := Analyze(data, DefaultOptions())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingDate))
	assert.Contains(t, err.Error(), "index 1")
}

func TestAnalyze_InvalidPeriod(t *testing.T) {
	data := createTestObservations([]float64{1, 2, 3})

	_, err := Analyze(data, Options{SeasonalPeriod: -1, IncludeSeasonality: true})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPeriod))
}

func TestResult_ReferenceLinesAndLabels(t *testing.T) {
	t.Run("flat", func(t *testing.T) {
		data := createTestObservations([]float64{10, 20, 30})
		result, err := Analyze(data, DefaultOptions())
		require.NoError(t, err)

		refs := result.ReferenceLines()
		require.Len(t, refs, 3)
		for i, ref := range refs {
			assert.Equal(t, data[i].Time, ref.Time)
			assert.Equal(t, result.Limits.AvgX, ref.CL)
			assert.Equal(t, result.Limits.UNPL, ref.UCL)
			assert.Equal(t, result.Limits.LNPL, ref.LCL)
		}

		labels := result.Labels()
		require.Len(t, labels, 3)
		assert.Equal(t, LabelUCL, labels[0].Kind)
		assert.Equal(t, LabelCL, labels[1].Kind)
		assert.Equal(t, LabelLCL, labels[2].Kind)
		for _, l := range labels {
			assert.Equal(t, data[2].Time, l.Time)
			assert.Equal(t, l.Value, l.Y)
		}
	})

	t.Run("sloped", func(t *testing.T) {
		data := createTestObservations([]float64{10, 20, 30, 40, 50, 60})
		result, err := Analyze(data, Options{IncludeTrend: true})
		require.NoError(t, err)
		require.True(t, result.Sloped())

		refs := result.ReferenceLines()
		require.Len(t, refs, 6)
		assert.InDelta(t, 10.0, refs[0].CL, 1e-9)
		assert.InDelta(t, 60.0, refs[5].CL, 1e-9)

		labels := result.Labels()
		require.Len(t, labels, 3)
		// Text carries the flat scalars, position follows the sloped line
		assert.Equal(t, result.Limits.AvgX, labels[1].Value)
		assert.InDelta(t, 60.0, labels[1].Y, 1e-9)
		assert.InDelta(t, refs[5].UCL, labels[0].Y, 1e-9)
	})
}

func TestResult_Latest(t *testing.T) {
	data := createTestObservations([]float64{1, 2, 3})
	result, err := Analyze(data, DefaultOptions())
	require.NoError(t, err)

	latest, ok := result.Latest()
	require.True(t, ok)
	assert.Equal(t, 3.0, latest.Value)
}

type fixedLimits struct{ limits Limits }

func (f fixedLimits) Limits([]Observation, []Movement) Limits { return f.limits }

func TestNewAnalyzer_Options(t *testing.T) {
	data := createTestObservations([]float64{1, 2, 3, 4})
	analyzer := NewAnalyzer(
		WithLimitEstimator(fixedLimits{Limits{AvgX: 0, UNPL: 2.5, LNPL: -2.5}}),
		WithSignalDetector(NewRuleDetector(LimitRule{})),
	)

	result, err := analyzer.Analyze(data, DefaultOptions())

	require.NoError(t, err)
	assert.False(t, result.Points[1].HasSignal)
	assert.True(t, result.Points[2].Has(SignalLimit))
	assert.True(t, result.Points[3].Has(SignalLimit))
}

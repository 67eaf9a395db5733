// Package analytics provides the common time-series types shared by the
// charting engine and its data providers.
package analytics

import (
	"math"
	"time"
)

// TimeSeriesPoint represents a single observation of a business metric.
type TimeSeriesPoint struct {
	Time  time.Time
	Value float64
}

// TimeSeriesData represents a date-ordered collection of observations
type TimeSeriesData []TimeSeriesPoint

// Values extracts just the values from the time series
func (ts TimeSeriesData) Values() []float64 {
	values := make([]float64, len(ts))
	for i, p := range ts {
		values[i] = p.Value
	}
	return values
}

// Mean calculates the arithmetic mean of all values, 0 for an empty series
func (ts TimeSeriesData) Mean() float64 {
	return Mean(ts.Values())
}

// Finite returns a copy of the series without NaN or infinite values.
// Order is preserved.
func (ts TimeSeriesData) Finite() TimeSeriesData {
	out := make(TimeSeriesData, 0, len(ts))
	for _, p := range ts {
		if IsFinite(p.Value) {
			out = append(out, p)
		}
	}
	return out
}

// IsSorted reports whether the series is in non-decreasing time order
func (ts TimeSeriesData) IsSorted() bool {
	for i := 1; i < len(ts); i++ {
		if ts[i].Time.Before(ts[i-1].Time) {
			return false
		}
	}
	return true
}

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Mean returns the arithmetic mean of values, 0 when empty. A series of equal
// values returns that value exactly; otherwise the sum is compensated
// (Neumaier) so rounding does not drift with length.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if AllEqual(values) {
		return values[0]
	}

	sum, comp := 0.0, 0.0
	for _, v := range values {
		t := sum + v
		if math.Abs(sum) >= math.Abs(v) {
			comp += (sum - t) + v
		} else {
			comp += (v - t) + sum
		}
		sum = t
	}
	return (sum + comp) / float64(len(values))
}

// AllEqual reports whether every value equals the first. True when empty.
func AllEqual(values []float64) bool {
	if len(values) == 0 {
		return true
	}
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

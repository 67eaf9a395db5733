package xmr

import (
	"math"

	"github.com/soltixdb/xmrchart/internal/analytics"
)

// TrendEstimator fits a trend line to a series
type TrendEstimator interface {
	// Trend returns nil when the series is too short to fit
	Trend(data []Observation) *Trend
}

// LeastSquaresTrend fits value against 0-based sequence index. Gaps in time
// are not weighted; the i-th observation is simply x = i.
type LeastSquaresTrend struct {
	MinPoints int // Default MinTrendPoints

	// Threshold is the R² a fit must exceed to be significant. Zero or
	// negative selects TrendSignificance; use math.SmallestNonzeroFloat64 to
	// accept any fit that explains some variance.
	Threshold float64
}

// noiseFloor bounds the total variation that float64 rounding alone can
// produce around a mean of meanY
func noiseFloor(n, meanY float64) float64 {
	const eps = 2.220446049250313e-16
	return 64 * eps * eps * n * meanY * meanY
}

// Trend fits the series, or returns nil below the minimum length
func (e LeastSquaresTrend) Trend(data []Observation) *Trend {
	minPoints := e.MinPoints
	if minPoints <= 0 {
		minPoints = MinTrendPoints
	}
	threshold := e.Threshold
	if threshold <= 0 {
		threshold = TrendSignificance
	}

	if len(data) < minPoints || len(data) < 2 {
		return nil
	}

	values := analytics.TimeSeriesData(data).Values()
	n := float64(len(values))
	meanX := (n - 1) / 2
	meanY := analytics.Mean(values)

	if analytics.AllEqual(values) {
		return flatTrend(meanY)
	}

	var sxx, sxy, ssTotal float64
	for i, v := range values {
		dx := float64(i) - meanX
		dy := v - meanY
		sxx += dx * dx
		sxy += dx * dy
		ssTotal += dy * dy
	}

	// A series with no variance beyond rounding has nothing to explain
	if ssTotal <= noiseFloor(n, meanY) {
		return flatTrend(meanY)
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	var ssResidual float64
	for i, v := range values {
		r := v - (slope*float64(i) + intercept)
		ssResidual += r * r
	}

	// Least squares with an intercept keeps R² in [0, 1]; clamp rounding
	rSquared := 1 - ssResidual/ssTotal
	if rSquared < 0 {
		rSquared = 0
	} else if rSquared > 1 {
		rSquared = 1
	}

	return &Trend{
		Slope:         slope,
		Intercept:     intercept,
		RSquared:      rSquared,
		IsSignificant: math.Abs(rSquared) > threshold,
		Direction:     directionOf(slope),
	}
}

// flatTrend is the fit of a constant series
func flatTrend(level float64) *Trend {
	return &Trend{
		Intercept: level,
		Direction: DirectionStable,
	}
}

func directionOf(slope float64) Direction {
	switch {
	case slope > 0:
		return DirectionIncreasing
	case slope < 0:
		return DirectionDecreasing
	default:
		return DirectionStable
	}
}

// Package xmr implements the individuals / moving-range (XmR) control chart
// engine: moving ranges, natural process limits, linear trend and seasonal
// estimates, and per-point special-cause detection.
//
// Every function in this package is pure. The same input always yields the
// same output and nothing is retained between calls, so an Analyzer may be
// shared freely between goroutines.
package xmr

import (
	"errors"
	"fmt"

	"github.com/soltixdb/xmrchart/internal/analytics"
)

// Standard XmR scaling constants.
const (
	// NPLScaling converts the average moving range into the distance between
	// the center line and the natural process limits.
	NPLScaling = 2.66

	// URLScaling converts the average moving range into the upper range limit.
	URLScaling = 3.268
)

const (
	// MinTrendPoints is the smallest series a trend is fitted to
	MinTrendPoints = 6

	// TrendSignificance is the R² a trend must exceed to slope the limits
	TrendSignificance = 0.3

	// DefaultSeasonalPeriod buckets monthly data by calendar month
	DefaultSeasonalPeriod = 12
)

var (
	// ErrMissingDate is returned for an observation without a timestamp
	ErrMissingDate = errors.New("observation has no date")

	// ErrInvalidPeriod is returned for a seasonal period below 1
	ErrInvalidPeriod = errors.New("seasonal period must be positive")

	// ErrOverflow is returned when finite inputs produce an infinite or NaN
	// estimate, e.g. values near the float64 limits
	ErrOverflow = errors.New("series values overflow float64 range")
)

// Observation is an alias to the shared analytics.TimeSeriesPoint type.
type Observation = analytics.TimeSeriesPoint

// Movement is an observation extended with its moving range, the absolute
// difference from the preceding observation.
type Movement struct {
	Observation
	MovingRange float64
}

// Limits holds the scalars computed once per series.
type Limits struct {
	AvgX        float64
	AvgMovement float64
	UNPL        float64 // Upper natural process limit
	LNPL        float64 // Lower natural process limit
	URL         float64 // Upper range limit for the moving-range chart
}

// QuarterUpper returns the guide line halfway between the center line and UNPL
func (l Limits) QuarterUpper() float64 {
	return l.AvgX + (l.UNPL-l.AvgX)/2
}

// QuarterLower returns the guide line halfway between LNPL and the center line
func (l Limits) QuarterLower() float64 {
	return l.AvgX - (l.AvgX-l.LNPL)/2
}

// MovementExceeds reports whether a moving range lies above the upper range limit
func (l Limits) MovementExceeds(m Movement) bool {
	return m.MovingRange > l.URL
}

// Direction is the sign of a fitted trend
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"
)

// Trend is an ordinary least-squares fit of value against sequence index.
type Trend struct {
	Slope         float64
	Intercept     float64
	RSquared      float64
	IsSignificant bool
	Direction     Direction
}

// At returns the fitted value at sequence index i
func (t Trend) At(i int) float64 {
	return t.Slope*float64(i) + t.Intercept
}

// SeasonalBucket summarises every observation sharing one cyclic position.
type SeasonalBucket struct {
	Period   int
	Average  float64
	Variance float64
}

// Seasonality is the per-position breakdown of a series, ordered by position.
type Seasonality struct {
	Period  int
	Buckets []SeasonalBucket
}

// Options controls which optional estimates an analysis includes.
type Options struct {
	SeasonalPeriod     int
	IncludeTrend       bool
	IncludeSeasonality bool
}

// DefaultOptions returns flat limits with a 12-point seasonal period
func DefaultOptions() Options {
	return Options{
		SeasonalPeriod: DefaultSeasonalPeriod,
	}
}

// Validate checks the options. A zero period means DefaultSeasonalPeriod.
func (o Options) Validate() error {
	if o.SeasonalPeriod < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPeriod, o.SeasonalPeriod)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.SeasonalPeriod == 0 {
		o.SeasonalPeriod = DefaultSeasonalPeriod
	}
	return o
}

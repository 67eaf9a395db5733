package xmr

import "github.com/soltixdb/xmrchart/internal/analytics"

// LimitEstimator computes the center line and natural process limits
type LimitEstimator interface {
	Limits(data []Observation, movements []Movement) Limits
}

// NaturalLimits is the default LimitEstimator. Means are population means;
// an empty movement series gives AvgMovement 0, collapsing UNPL and LNPL onto
// the center line.
type NaturalLimits struct{}

// Limits computes the limit scalars for a series
func (NaturalLimits) Limits(data []Observation, movements []Movement) Limits {
	ranges := make([]float64, len(movements))
	for i, m := range movements {
		ranges[i] = m.MovingRange
	}

	avgX := analytics.TimeSeriesData(data).Mean()
	avgMovement := analytics.Mean(ranges)
	delta := NPLScaling * avgMovement

	return Limits{
		AvgX:        avgX,
		AvgMovement: avgMovement,
		UNPL:        avgX + delta,
		LNPL:        avgX - delta,
		URL:         URLScaling * avgMovement,
	}
}

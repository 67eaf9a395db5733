package xmr

import "github.com/soltixdb/xmrchart/internal/analytics"

// SeasonalityEstimator buckets a series by cyclic position
type SeasonalityEstimator interface {
	// Seasonality returns nil when the series covers fewer than two periods
	Seasonality(data []Observation, period int) *Seasonality
}

// PeriodBuckets is the default SeasonalityEstimator. Observation i falls into
// bucket i mod period; buckets are reported in position order.
type PeriodBuckets struct{}

// Seasonality computes the mean and population variance of every bucket
func (PeriodBuckets) Seasonality(data []Observation, period int) *Seasonality {
	if period <= 0 || len(data) < 2*period {
		return nil
	}

	buckets := make([]SeasonalBucket, 0, period)
	for i := 0; i < period; i++ {
		values := make([]float64, 0, len(data)/period+1)
		for j := i; j < len(data); j += period {
			values = append(values, data[j].Value)
		}

		buckets = append(buckets, SeasonalBucket{
			Period:   i,
			Average:  analytics.Mean(values),
			Variance: populationVariance(values),
		})
	}

	return &Seasonality{
		Period:  period,
		Buckets: buckets,
	}
}

// populationVariance is 0 for fewer than two values
func populationVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := analytics.Mean(values)
	sumSq := 0.0
	for _, v := range values {
		diff := v - m
		sumSq += diff * diff
	}
	return sumSq / float64(len(values))
}

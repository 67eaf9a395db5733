package xmr

import "time"

var testBaseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// createTestObservations creates one observation per month starting January 2024
func createTestObservations(values []float64) []Observation {
	points := make([]Observation, len(values))
	for i, v := range values {
		points[i] = Observation{
			Time:  testBaseTime.AddDate(0, i, 0),
			Value: v,
		}
	}
	return points
}

// repeat returns n copies of v
func repeat(v float64, n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = v
	}
	return values
}

package xmr

import "math"

// MovementCalculator derives point-to-point moving ranges
type MovementCalculator interface {
	Movements(data []Observation) []Movement
}

// RangeCalculator is the default MovementCalculator.
type RangeCalculator struct{}

// Movements returns one movement per observation after the first. Fewer than
// two observations yield an empty, non-nil slice.
func (RangeCalculator) Movements(data []Observation) []Movement {
	if len(data) < 2 {
		return []Movement{}
	}

	movements := make([]Movement, 0, len(data)-1)
	for i := 1; i < len(data); i++ {
		movements = append(movements, Movement{
			Observation: data[i],
			MovingRange: math.Abs(data[i].Value - data[i-1].Value),
		})
	}
	return movements
}

package xmr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_Priority(t *testing.T) {
	assert.Less(t, SignalLimit.Priority(), SignalQuartile.Priority())
	assert.Less(t, SignalQuartile.Priority(), SignalRun8.Priority())
	assert.Less(t, SignalRun8.Priority(), Signal("unknown").Priority())
}

func TestAnnotatedPoint_Primary(t *testing.T) {
	tests := []struct {
		name    string
		signals []Signal
		want    Signal
		ok      bool
	}{
		{name: "no signals", signals: nil, ok: false},
		{name: "run8 only", signals: []Signal{SignalRun8}, want: SignalRun8, ok: true},
		{name: "quartile beats run8", signals: []Signal{SignalRun8, SignalQuartile}, want: SignalQuartile, ok: true},
		{name: "limit beats all", signals: []Signal{SignalQuartile, SignalRun8, SignalLimit}, want: SignalLimit, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := AnnotatedPoint{Signals: tt.signals, HasSignal: len(tt.signals) > 0}
			got, ok := p.Primary()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnnotatedPoint_Has(t *testing.T) {
	p := AnnotatedPoint{Signals: []Signal{SignalLimit, SignalRun8}, HasSignal: true}

	assert.True(t, p.Has(SignalLimit))
	assert.True(t, p.Has(SignalRun8))
	assert.False(t, p.Has(SignalQuartile))
}

func TestLimitRule(t *testing.T) {
	lines := NewControlLines(Limits{AvgX: 10, UNPL: 20, LNPL: 0}, nil)
	values := []float64{20, 20.01, -0.01, 0, 10}
	rule := LimitRule{}

	assert.False(t, rule.Evaluate(values, 0, lines), "on the limit is inside")
	assert.True(t, rule.Evaluate(values, 1, lines))
	assert.True(t, rule.Evaluate(values, 2, lines))
	assert.False(t, rule.Evaluate(values, 3, lines))
	assert.False(t, rule.Evaluate(values, 4, lines))
}

func TestQuartileRule_Flat(t *testing.T) {
	lines := NewControlLines(Limits{AvgX: 10, UNPL: 20, LNPL: 0}, nil)
	rule := QuartileRule{Window: 4, MinHits: 3}

	// Upper quartile line is 15
	values := []float64{10, 16, 17, 11, 18, 9, 9, 9}

	assert.False(t, rule.Evaluate(values, 2, lines), "window not yet full")
	assert.False(t, rule.Evaluate(values, 3, lines), "two hits of four")
	assert.True(t, rule.Evaluate(values, 4, lines), "three hits of four")
	assert.False(t, rule.Evaluate(values, 6, lines))
	assert.False(t, rule.Evaluate(values, 7, lines))
}

func TestQuartileRule_MixedSides(t *testing.T) {
	lines := NewControlLines(Limits{AvgX: 10, UNPL: 20, LNPL: 0}, nil)
	rule := QuartileRule{Window: 4, MinHits: 3}

	// Hits near either limit count toward the same window
	values := []float64{18, 2, 17, 10}

	assert.True(t, rule.Evaluate(values, 3, lines))
}

func TestRunRule_Flat(t *testing.T) {
	lines := NewControlLines(Limits{AvgX: 0, UNPL: 100, LNPL: -100}, nil)
	rule := RunRule{Length: 8}

	values := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, -1, 1}
	for i := 0; i < 7; i++ {
		assert.False(t, rule.Evaluate(values, i, lines), "index %d", i)
	}
	assert.True(t, rule.Evaluate(values, 7, lines))
	assert.True(t, rule.Evaluate(values, 8, lines), "run persists")
	assert.False(t, rule.Evaluate(values, 9, lines))
	assert.False(t, rule.Evaluate(values, 10, lines))
}

func TestRunRule_PointOnCenterBreaksRun(t *testing.T) {
	lines := NewControlLines(Limits{AvgX: 0, UNPL: 100, LNPL: -100}, nil)
	rule := RunRule{Length: 8}

	values := []float64{-1, -1, -1, 0, -1, -1, -1, -1}

	assert.False(t, rule.Evaluate(values, 7, lines))
}

func TestRules_SlopedLinesUsePerIndexBounds(t *testing.T) {
	limits := Limits{AvgX: 3.5, UNPL: 5.5, LNPL: 1.5}
	trend := &Trend{Slope: 1, Intercept: 0, IsSignificant: true, Direction: DirectionIncreasing}
	sloped := NewControlLines(limits, trend)
	require.True(t, sloped.Sloped())

	t.Run("run8", func(t *testing.T) {
		// Each value sits just above its own center line j; against the
		// center line at index 7 most of them would be below.
		values := make([]float64, 8)
		for j := range values {
			values[j] = float64(j) + 0.5
		}
		assert.True(t, RunRule{Length: 8}.Evaluate(values, 7, sloped))
	})

	t.Run("quartile", func(t *testing.T) {
		// Each value sits 0.2 below its own upper limit j+2
		values := make([]float64, 8)
		for j := range values {
			values[j] = float64(j) + 1.8
		}
		assert.True(t, QuartileRule{Window: 4, MinHits: 3}.Evaluate(values, 7, sloped))
	})

	t.Run("limit", func(t *testing.T) {
		values := []float64{0, 1, 2, 3, 4, 5, 6, 9.5}
		assert.True(t, LimitRule{}.Evaluate(values, 7, sloped))
		assert.False(t, LimitRule{}.Evaluate(values, 6, sloped))
	})
}

func TestRuleDetector_FlatSeriesHasNoSignals(t *testing.T) {
	data := createTestObservations(repeat(100, 10))
	limits := NaturalLimits{}.Limits(data, RangeCalculator{}.Movements(data))

	points := NewRuleDetector().Detect(data, limits, nil)

	require.Len(t, points, 10)
	for i, p := range points {
		assert.False(t, p.HasSignal, "point %d", i)
		assert.Empty(t, p.Signals)
	}
}

func TestRuleDetector_InsignificantTrendUsesFlatLines(t *testing.T) {
	data := createTestObservations([]float64{1, 1, 1, 1, 1, 1, 1, 1})
	limits := Limits{AvgX: 0, UNPL: 10, LNPL: -10}
	trend := &Trend{Slope: 5, Intercept: 0, IsSignificant: false}

	points := NewRuleDetector(RunRule{Length: 8}).Detect(data, limits, trend)

	// Against the unused slope the late points would be far below center
	assert.True(t, points[7].Has(SignalRun8))
}

func TestRuleDetector_RecordsSignalsInRuleOrder(t *testing.T) {
	data := createTestObservations([]float64{50, 50, 50, 50, 50, 50, 50, 50})
	limits := Limits{AvgX: 0, UNPL: 10, LNPL: -10}

	points := NewRuleDetector().Detect(data, limits, nil)

	last := points[7]
	assert.Equal(t, []Signal{SignalLimit, SignalQuartile, SignalRun8}, last.Signals)
	assert.True(t, last.HasSignal)

	first := points[0]
	assert.Equal(t, []Signal{SignalLimit}, first.Signals)
}

func TestRuleDetector_CustomRules(t *testing.T) {
	data := createTestObservations([]float64{50, 50, 50, 50, 50, 50, 50, 50})
	limits := Limits{AvgX: 0, UNPL: 10, LNPL: -10}

	points := NewRuleDetector(LimitRule{}).Detect(data, limits, nil)

	for _, p := range points {
		assert.Equal(t, []Signal{SignalLimit}, p.Signals)
	}
}

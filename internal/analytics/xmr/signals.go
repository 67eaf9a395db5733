package xmr

import (
	"math"

	"github.com/soltixdb/xmrchart/internal/analytics"
)

// Signal names a special-cause detection rule
type Signal string

const (
	SignalLimit    Signal = "limit"    // Point outside the process limits
	SignalQuartile Signal = "quartile" // 3 of 4 points nearer a limit than the center
	SignalRun8     Signal = "run8"     // 8 consecutive points on one side of the center
)

// Priority orders signals for display, lower first. It has no effect on
// which signals are recorded.
func (s Signal) Priority() int {
	switch s {
	case SignalLimit:
		return 0
	case SignalQuartile:
		return 1
	case SignalRun8:
		return 2
	default:
		return math.MaxInt
	}
}

// AnnotatedPoint is an observation with the signals that fired on it.
type AnnotatedPoint struct {
	Observation
	Signals   []Signal
	HasSignal bool
}

// Primary returns the highest-priority signal on the point
func (p AnnotatedPoint) Primary() (Signal, bool) {
	if len(p.Signals) == 0 {
		return "", false
	}
	best := p.Signals[0]
	for _, s := range p.Signals[1:] {
		if s.Priority() < best.Priority() {
			best = s
		}
	}
	return best, true
}

// Has reports whether signal s fired on the point
func (p AnnotatedPoint) Has(s Signal) bool {
	for _, got := range p.Signals {
		if got == s {
			return true
		}
	}
	return false
}

// Rule is a single special-cause test evaluated at one index of a series.
type Rule interface {
	Signal() Signal

	// Evaluate reports whether the rule fires at index. Implementations must
	// compare every point in their window against lines.At of that point's
	// own index.
	Evaluate(values []float64, index int, lines ControlLines) bool
}

// DefaultRules returns the limit, quartile and run-of-eight rules in
// priority order
func DefaultRules() []Rule {
	return []Rule{
		LimitRule{},
		QuartileRule{Window: 4, MinHits: 3},
		RunRule{Length: 8},
	}
}

// LimitRule fires when a value lies strictly outside [LCL, UCL].
type LimitRule struct{}

// Signal returns SignalLimit
func (LimitRule) Signal() Signal { return SignalLimit }

// Evaluate tests the point at index
func (LimitRule) Evaluate(values []float64, index int, lines ControlLines) bool {
	b := lines.At(index)
	v := values[index]
	return v > b.UCL || v < b.LCL
}

// QuartileRule fires when at least MinHits of the last Window points lie
// closer to one of their limits than to their center line.
type QuartileRule struct {
	Window  int
	MinHits int
}

// Signal returns SignalQuartile
func (QuartileRule) Signal() Signal { return SignalQuartile }

// Evaluate tests the window ending at index
func (r QuartileRule) Evaluate(values []float64, index int, lines ControlLines) bool {
	start := index - r.Window + 1
	if start < 0 {
		return false
	}

	hits := 0
	for j := start; j <= index; j++ {
		b := lines.At(j)
		v := values[j]
		toCenter := math.Abs(v - b.CL)
		if math.Abs(v-b.UCL) < toCenter || math.Abs(v-b.LCL) < toCenter {
			hits++
		}
	}
	return hits >= r.MinHits
}

// RunRule fires when the last Length points all lie strictly above, or all
// strictly below, their center line.
type RunRule struct {
	Length int
}

// Signal returns SignalRun8
func (RunRule) Signal() Signal { return SignalRun8 }

// Evaluate tests the window ending at index
func (r RunRule) Evaluate(values []float64, index int, lines ControlLines) bool {
	start := index - r.Length + 1
	if start < 0 {
		return false
	}

	allAbove, allBelow := true, true
	for j := start; j <= index; j++ {
		cl := lines.At(j).CL
		if values[j] <= cl {
			allAbove = false
		}
		if values[j] >= cl {
			allBelow = false
		}
		if !allAbove && !allBelow {
			return false
		}
	}
	return true
}

// SignalDetector classifies every point of a series
type SignalDetector interface {
	Detect(data []Observation, limits Limits, trend *Trend) []AnnotatedPoint
}

// RuleDetector evaluates a fixed rule set against trend-adjusted or flat lines.
type RuleDetector struct {
	rules []Rule
}

// NewRuleDetector creates a detector. With no rules it uses DefaultRules.
func NewRuleDetector(rules ...Rule) *RuleDetector {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &RuleDetector{rules: rules}
}

// Detect annotates every point. The lines are sloped only when trend is
// non-nil and significant. Signals are recorded in rule order.
func (d *RuleDetector) Detect(data []Observation, limits Limits, trend *Trend) []AnnotatedPoint {
	lines := NewControlLines(limits, trend)
	values := analytics.TimeSeriesData(data).Values()

	points := make([]AnnotatedPoint, len(data))
	for i, p := range data {
		signals := make([]Signal, 0, len(d.rules))
		for _, rule := range d.rules {
			if rule.Evaluate(values, i, lines) {
				signals = append(signals, rule.Signal())
			}
		}
		points[i] = AnnotatedPoint{
			Observation: p,
			Signals:     signals,
			HasSignal:   len(signals) > 0,
		}
	}
	return points
}

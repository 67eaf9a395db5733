package xmr

import (
	"fmt"

	"github.com/soltixdb/xmrchart/internal/analytics"
)

// Result is the fully annotated output of one analysis.
type Result struct {
	Points      []AnnotatedPoint
	Movements   []Movement
	Limits      Limits
	Trend       *Trend       // nil when not requested or too few points
	Seasonality *Seasonality // nil when not requested or too few points
}

// Lines returns the control lines the points were classified against
func (r *Result) Lines() ControlLines {
	return NewControlLines(r.Limits, r.Trend)
}

// Sloped reports whether a significant trend slopes the control lines
func (r *Result) Sloped() bool {
	return r.Lines().Sloped()
}

// SignalCount returns the number of points carrying at least one signal
func (r *Result) SignalCount() int {
	count := 0
	for _, p := range r.Points {
		if p.HasSignal {
			count++
		}
	}
	return count
}

// Latest returns the last analysed point
func (r *Result) Latest() (AnnotatedPoint, bool) {
	if len(r.Points) == 0 {
		return AnnotatedPoint{}, false
	}
	return r.Points[len(r.Points)-1], true
}

// ReferenceLines returns the center and limit lines at every point's date
func (r *Result) ReferenceLines() []ReferencePoint {
	lines := r.Lines()
	refs := make([]ReferencePoint, len(r.Points))
	for i, p := range r.Points {
		refs[i] = ReferencePoint{Time: p.Time, Bounds: lines.At(i)}
	}
	return refs
}

// Labels returns the UCL, CL and LCL captions anchored at the latest date.
// Empty for an empty series.
func (r *Result) Labels() []Label {
	if len(r.Points) == 0 {
		return nil
	}

	last := r.Points[0].Time
	for _, p := range r.Points[1:] {
		if p.Time.After(last) {
			last = p.Time
		}
	}

	end := r.Lines().At(len(r.Points) - 1)
	return []Label{
		{Kind: LabelUCL, Time: last, Value: r.Limits.UNPL, Y: end.UCL},
		{Kind: LabelCL, Time: last, Value: r.Limits.AvgX, Y: end.CL},
		{Kind: LabelLCL, Time: last, Value: r.Limits.LNPL, Y: end.LCL},
	}
}

// Analyzer sequences the engine components. The zero value is not usable;
// create one with NewAnalyzer.
type Analyzer struct {
	movements   MovementCalculator
	limits      LimitEstimator
	trend       TrendEstimator
	seasonality SeasonalityEstimator
	detector    SignalDetector
}

// AnalyzerOption replaces one component of an Analyzer
type AnalyzerOption func(*Analyzer)

// WithMovementCalculator replaces the moving-range calculator
func WithMovementCalculator(m MovementCalculator) AnalyzerOption {
	return func(a *Analyzer) { a.movements = m }
}

// WithLimitEstimator replaces the limit estimator
func WithLimitEstimator(l LimitEstimator) AnalyzerOption {
	return func(a *Analyzer) { a.limits = l }
}

// WithTrendEstimator replaces the trend estimator
func WithTrendEstimator(t TrendEstimator) AnalyzerOption {
	return func(a *Analyzer) { a.trend = t }
}

// WithSeasonalityEstimator replaces the seasonality estimator
func WithSeasonalityEstimator(s SeasonalityEstimator) AnalyzerOption {
	return func(a *Analyzer) { a.seasonality = s }
}

// WithSignalDetector replaces the signal detector
func WithSignalDetector(d SignalDetector) AnalyzerOption {
	return func(a *Analyzer) { a.detector = d }
}

// NewAnalyzer creates an Analyzer from the default components
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		movements:   RangeCalculator{},
		limits:      NaturalLimits{},
		trend:       LeastSquaresTrend{},
		seasonality: PeriodBuckets{},
		detector:    NewRuleDetector(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAnalyzer = NewAnalyzer()

// Analyze runs the default Analyzer
func Analyze(data []Observation, opts Options) (*Result, error) {
	return defaultAnalyzer.Analyze(data, opts)
}

// Analyze runs movements, limits, the optional trend, signal detection and
// the optional seasonality over data, which must already be in date order.
// Non-finite values are dropped first. A series too short for the optional
// estimates is not an error; those fields are left nil. Inputs whose
// estimates overflow float64 return ErrOverflow.
func (a *Analyzer) Analyze(data []Observation, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	for i, p := range data {
		if p.Time.IsZero() {
			return nil, fmt.Errorf("%w: index %d", ErrMissingDate, i)
		}
	}

	series := []Observation(analytics.TimeSeriesData(data).Finite())

	movements := a.movements.Movements(series)
	limits := a.limits.Limits(series, movements)

	var trend *Trend
	if opts.IncludeTrend {
		trend = a.trend.Trend(series)
	}

	points := a.detector.Detect(series, limits, trend)

	var seasonality *Seasonality
	if opts.IncludeSeasonality {
		seasonality = a.seasonality.Seasonality(series, opts.SeasonalPeriod)
	}

	result := &Result{
		Points:      points,
		Movements:   movements,
		Limits:      limits,
		Trend:       trend,
		Seasonality: seasonality,
	}
	if err := result.checkFinite(); err != nil {
		return nil, err
	}
	return result, nil
}

// checkFinite rejects results whose estimates overflowed
func (r *Result) checkFinite() error {
	finite := analytics.IsFinite
	for i, m := range r.Movements {
		if !finite(m.MovingRange) {
			return fmt.Errorf("%w: moving range at index %d", ErrOverflow, i+1)
		}
	}

	l := r.Limits
	for _, v := range []float64{l.AvgX, l.AvgMovement, l.UNPL, l.LNPL, l.URL} {
		if !finite(v) {
			return fmt.Errorf("%w: limits", ErrOverflow)
		}
	}

	if t := r.Trend; t != nil {
		if !finite(t.Slope) || !finite(t.Intercept) || !finite(t.RSquared) {
			return fmt.Errorf("%w: trend", ErrOverflow)
		}
	}

	if s := r.Seasonality; s != nil {
		for _, b := range s.Buckets {
			if !finite(b.Average) || !finite(b.Variance) {
				return fmt.Errorf("%w: seasonal bucket %d", ErrOverflow, b.Period)
			}
		}
	}
	return nil
}

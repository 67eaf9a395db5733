package models

import (
	"strings"
	"time"

	"github.com/soltixdb/xmrchart/internal/analytics/xmr"
)

// DateFormat is the layout of every date in a chart response
const DateFormat = time.RFC3339

// Point colours by highest-priority signal
const (
	ColorLimit    = "red"
	ColorQuartile = "orange"
	ColorRun8     = "yellow"
	ColorNormal   = "steelblue"
)

// NormalDescription is the tooltip of a point without signals
const NormalDescription = "Normal variation"

// ChartResponse is everything a renderer needs to draw an XmR chart.
type ChartResponse struct {
	Metric      string           `json:"metric"`
	Title       string           `json:"title,omitempty"`
	Sloped      bool             `json:"sloped"`
	Points      []ChartPoint     `json:"points"`
	Movements   []MovementPoint  `json:"movements"`
	Limits      LimitsView       `json:"limits"`
	Trend       *TrendView       `json:"trend"`
	Seasonality *SeasonalityView `json:"seasonality"`
	Labels      []LabelView      `json:"labels"`
	Legend      []LegendEntry    `json:"legend"`
	Cached      bool             `json:"cached"`
}

// ChartPoint is one plotted observation with its signals and the control
// lines at its position.
type ChartPoint struct {
	Date        string   `json:"date"`
	Value       float64  `json:"value"`
	Signals     []string `json:"signals"`
	HasSignal   bool     `json:"has_signal"`
	Color       string   `json:"color"`
	Description string   `json:"description"`
	Center      float64  `json:"center"`
	Upper       float64  `json:"upper"`
	Lower       float64  `json:"lower"`
}

// MovementPoint is one point of the moving-range chart
type MovementPoint struct {
	Date        string  `json:"date"`
	Value       float64 `json:"value"`
	MovingRange float64 `json:"moving_range"`
	ExceedsURL  bool    `json:"exceeds_url"`
}

// LimitsView carries the flat process limits and quartile guide lines
type LimitsView struct {
	AvgX         float64 `json:"avg_x"`
	AvgMovement  float64 `json:"avg_movement"`
	UNPL         float64 `json:"unpl"`
	LNPL         float64 `json:"lnpl"`
	URL          float64 `json:"url"`
	QuarterUpper float64 `json:"quarter_upper"`
	QuarterLower float64 `json:"quarter_lower"`
}

// TrendView is the fitted linear trend
type TrendView struct {
	Slope         float64 `json:"slope"`
	Intercept     float64 `json:"intercept"`
	RSquared      float64 `json:"r_squared"`
	IsSignificant bool    `json:"is_significant"`
	Direction     string  `json:"direction"`
}

// SeasonalityView is the per-position breakdown
type SeasonalityView struct {
	Period  int                  `json:"period"`
	Buckets []SeasonalBucketView `json:"buckets"`
}

// SeasonalBucketView is one cyclic position
type SeasonalBucketView struct {
	Period   int     `json:"period"`
	Average  float64 `json:"average"`
	Variance float64 `json:"variance"`
}

// LabelView anchors a line caption at the end of the chart. Value is the
// caption text, Y the position.
type LabelView struct {
	Label string  `json:"label"`
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	Y     float64 `json:"y"`
}

// LegendEntry explains one point colour
type LegendEntry struct {
	Signal      string `json:"signal"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// Legend lists the point colours in priority order
func Legend() []LegendEntry {
	return []LegendEntry{
		{Signal: string(xmr.SignalLimit), Color: ColorLimit, Description: "Outside the natural process limits"},
		{Signal: string(xmr.SignalQuartile), Color: ColorQuartile, Description: "3 of 4 points beyond a quartile line"},
		{Signal: string(xmr.SignalRun8), Color: ColorRun8, Description: "8 points in a row on one side of the center line"},
		{Signal: "none", Color: ColorNormal, Description: NormalDescription},
	}
}

// SignalColor returns the point colour for the highest-priority signal
func SignalColor(p xmr.AnnotatedPoint) string {
	primary, ok := p.Primary()
	if !ok {
		return ColorNormal
	}
	switch primary {
	case xmr.SignalLimit:
		return ColorLimit
	case xmr.SignalQuartile:
		return ColorQuartile
	case xmr.SignalRun8:
		return ColorRun8
	default:
		return ColorNormal
	}
}

// SignalDescription returns the tooltip text of a point
func SignalDescription(p xmr.AnnotatedPoint) string {
	if !p.HasSignal {
		return NormalDescription
	}
	names := make([]string, len(p.Signals))
	for i, s := range p.Signals {
		names[i] = string(s)
	}
	return "Special cause: " + strings.Join(names, ", ")
}

// NewChartResponse renders an analysis result
func NewChartResponse(metric string, result *xmr.Result) *ChartResponse {
	lines := result.Lines()

	points := make([]ChartPoint, len(result.Points))
	for i, p := range result.Points {
		bounds := lines.At(i)
		signals := make([]string, len(p.Signals))
		for j, s := range p.Signals {
			signals[j] = string(s)
		}
		points[i] = ChartPoint{
			Date:        p.Time.Format(DateFormat),
			Value:       p.Value,
			Signals:     signals,
			HasSignal:   p.HasSignal,
			Color:       SignalColor(p),
			Description: SignalDescription(p),
			Center:      bounds.CL,
			Upper:       bounds.UCL,
			Lower:       bounds.LCL,
		}
	}

	movements := make([]MovementPoint, len(result.Movements))
	for i, m := range result.Movements {
		movements[i] = MovementPoint{
			Date:        m.Time.Format(DateFormat),
			Value:       m.Value,
			MovingRange: m.MovingRange,
			ExceedsURL:  result.Limits.MovementExceeds(m),
		}
	}

	labels := make([]LabelView, 0, 3)
	for _, l := range result.Labels() {
		labels = append(labels, LabelView{
			Label: string(l.Kind),
			Date:  l.Time.Format(DateFormat),
			Value: l.Value,
			Y:     l.Y,
		})
	}

	resp := &ChartResponse{
		Metric:    metric,
		Sloped:    lines.Sloped(),
		Points:    points,
		Movements: movements,
		Limits: LimitsView{
			AvgX:         result.Limits.AvgX,
			AvgMovement:  result.Limits.AvgMovement,
			UNPL:         result.Limits.UNPL,
			LNPL:         result.Limits.LNPL,
			URL:          result.Limits.URL,
			QuarterUpper: result.Limits.QuarterUpper(),
			QuarterLower: result.Limits.QuarterLower(),
		},
		Labels: labels,
		Legend: Legend(),
	}

	if t := result.Trend; t != nil {
		resp.Trend = &TrendView{
			Slope:         t.Slope,
			Intercept:     t.Intercept,
			RSquared:      t.RSquared,
			IsSignificant: t.IsSignificant,
			Direction:     string(t.Direction),
		}
	}

	if s := result.Seasonality; s != nil {
		buckets := make([]SeasonalBucketView, len(s.Buckets))
		for i, b := range s.Buckets {
			buckets[i] = SeasonalBucketView{Period: b.Period, Average: b.Average, Variance: b.Variance}
		}
		resp.Seasonality = &SeasonalityView{Period: s.Period, Buckets: buckets}
	}

	return resp
}

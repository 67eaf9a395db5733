package xmr

import "time"

// Bounds are the center line and control limits at one index.
type Bounds struct {
	CL  float64
	UCL float64
	LCL float64
}

// ControlLines yields the control lines for any index of a series. With a
// significant trend the lines follow the fitted slope, keeping the natural
// process limit distance from the center; otherwise they are flat.
type ControlLines struct {
	limits Limits
	trend  *Trend
}

// NewControlLines builds the lines. A nil or insignificant trend gives flat lines.
func NewControlLines(limits Limits, trend *Trend) ControlLines {
	lines := ControlLines{limits: limits}
	if trend != nil && trend.IsSignificant {
		t := *trend
		lines.trend = &t
	}
	return lines
}

// Sloped reports whether the lines follow a trend
func (c ControlLines) Sloped() bool {
	return c.trend != nil
}

// At returns the bounds at sequence index i
func (c ControlLines) At(i int) Bounds {
	if c.trend == nil {
		return Bounds{
			CL:  c.limits.AvgX,
			UCL: c.limits.UNPL,
			LCL: c.limits.LNPL,
		}
	}

	cl := c.trend.At(i)
	return Bounds{
		CL:  cl,
		UCL: cl + (c.limits.UNPL - c.limits.AvgX),
		LCL: cl + (c.limits.LNPL - c.limits.AvgX),
	}
}

// ReferencePoint is one vertex of the center and limit lines.
type ReferencePoint struct {
	Time time.Time
	Bounds
}

// LabelKind identifies a line label
type LabelKind string

const (
	LabelUCL LabelKind = "UCL"
	LabelCL  LabelKind = "CL"
	LabelLCL LabelKind = "LCL"
)

// Label anchors a line caption at the end of the chart. Value is the flat
// limit scalar shown in the text; Y is where the caption sits, which follows
// the sloped line when a trend applies.
type Label struct {
	Kind  LabelKind
	Time  time.Time
	Value float64
	Y     float64
}

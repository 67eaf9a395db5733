package models

import (
	"fmt"

	"github.com/soltixdb/xmrchart/internal/analytics"
	"github.com/soltixdb/xmrchart/internal/ingest"
)

// PointInput is one posted observation. A null value is dropped before analysis.
type PointInput struct {
	Date  string   `json:"date" validate:"required"`
	Value *float64 `json:"value"`
}

// AnalyzeRequest represents a chart request for a posted series
type AnalyzeRequest struct {
	Metric             string       `json:"metric" default:"adhoc" validate:"max=128"`
	Points             []PointInput `json:"points" validate:"required,max=100000,dive"`
	SeasonalPeriod     int          `json:"seasonal_period,omitempty" validate:"gte=0,lte=1000"`
	IncludeTrend       *bool        `json:"include_trend,omitempty"`
	IncludeSeasonality *bool        `json:"include_seasonality,omitempty"`
}

// Series converts the posted points into a time series, in request order.
// Points with a null value are skipped.
func (r *AnalyzeRequest) Series() (analytics.TimeSeriesData, error) {
	series := make(analytics.TimeSeriesData, 0, len(r.Points))
	for i, p := range r.Points {
		t, err := ingest.ParseDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("points[%d]: %w", i, err)
		}
		if p.Value == nil {
			continue
		}
		series = append(series, analytics.TimeSeriesPoint{Time: t, Value: *p.Value})
	}
	return series, nil
}

// SourceChartQuery represents the query string of a source chart request
type SourceChartQuery struct {
	SeasonalPeriod     int   `query:"seasonal_period" validate:"gte=0,lte=1000"`
	IncludeTrend       *bool `query:"include_trend"`
	IncludeSeasonality *bool `query:"include_seasonality"`
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/xmrchart/internal/middleware"
	"github.com/soltixdb/xmrchart/internal/models"
	"github.com/soltixdb/xmrchart/internal/services"
)

// Analyze charts a posted series
// POST /v1/xmr/analyze
func (h *Handler) Analyze(c *fiber.Ctx) error {
	var body models.AnalyzeRequest
	if err := middleware.BindJSON(c, &body); err != nil {
		return err
	}

	series, err := body.Series()
	if err != nil {
		return services.NewServiceError(services.CodeInvalidInput, err.Error())
	}

	resp, err := h.chartService.Analyze(c.UserContext(), &services.AnalyzeRequest{
		Metric: body.Metric,
		Series: series,
		AnalysisOverrides: services.AnalysisOverrides{
			SeasonalPeriod:     body.SeasonalPeriod,
			IncludeTrend:       body.IncludeTrend,
			IncludeSeasonality: body.IncludeSeasonality,
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListSources lists the configured sources
// GET /v1/sources
func (h *Handler) ListSources(c *fiber.Ctx) error {
	return c.JSON(models.SourceListResponse{
		Sources: h.chartService.ListSources(),
	})
}

// SourceChart charts a configured source
// GET /v1/sources/:source/xmr
func (h *Handler) SourceChart(c *fiber.Ctx) error {
	var query models.SourceChartQuery
	if err := middleware.BindQuery(c, &query); err != nil {
		return err
	}

	resp, err := h.chartService.ChartSource(c.UserContext(), &services.SourceChartRequest{
		Source: c.Params("source"),
		AnalysisOverrides: services.AnalysisOverrides{
			SeasonalPeriod:     query.SeasonalPeriod,
			IncludeTrend:       query.IncludeTrend,
			IncludeSeasonality: query.IncludeSeasonality,
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

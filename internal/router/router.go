package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/soltixdb/xmrchart/internal/config"
	"github.com/soltixdb/xmrchart/internal/handlers"
	"github.com/soltixdb/xmrchart/internal/logging"
	"github.com/soltixdb/xmrchart/internal/metrics"
	"github.com/soltixdb/xmrchart/internal/middleware"
	"github.com/soltixdb/xmrchart/internal/services"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, chartService *services.ChartService,
	recorder *metrics.Recorder, cfg config.Config, version string,
) *handlers.Handler {
	h := handlers.New(logger, chartService, version)

	// Global middlewares
	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check and metrics (no auth required)
	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(recorder.Handler()))

	// API v1 routes (protected by API key)
	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, cfg.Auth))

	v1.Post("/xmr/analyze", h.Analyze)
	v1.Get("/sources", h.ListSources)
	v1.Get("/sources/:source/xmr", h.SourceChart)

	// 404 handler
	app.Use(middleware.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, chartService *services.ChartService,
	recorder *metrics.Recorder, cfg config.Config, version string,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "xmrchart",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		BodyLimit:             cfg.Server.BodyLimit,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, chartService, recorder, cfg, version)

	return app
}

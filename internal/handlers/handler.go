package handlers

import (
	"github.com/soltixdb/xmrchart/internal/logging"
	"github.com/soltixdb/xmrchart/internal/services"
)

// Handler contains all HTTP handlers
type Handler struct {
	logger  *logging.Logger
	version string
	// Services
	chartService *services.ChartService
}

// New creates a new handler instance
func New(logger *logging.Logger, chartService *services.ChartService, version string) *Handler {
	return &Handler{
		logger:       logger,
		version:      version,
		chartService: chartService,
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soltixdb/xmrchart/internal/analytics"
	"github.com/soltixdb/xmrchart/internal/analytics/xmr"
	"github.com/soltixdb/xmrchart/internal/cache"
	"github.com/soltixdb/xmrchart/internal/config"
	"github.com/soltixdb/xmrchart/internal/ingest"
	"github.com/soltixdb/xmrchart/internal/logging"
	"github.com/soltixdb/xmrchart/internal/metrics"
	"github.com/soltixdb/xmrchart/internal/models"
	"github.com/soltixdb/xmrchart/internal/notify"
)

// Analysis origins reported to metrics
const (
	originPosted = "posted"
	originSource = "source"
)

// SourceProvider resolves named series
type SourceProvider interface {
	List() []ingest.Source
	Get(name string) (ingest.Source, error)
	Load(ctx context.Context, name string) (analytics.TimeSeriesData, error)
}

// ChartService handles XmR chart business logic
type ChartService struct {
	logger   *logging.Logger
	sources  SourceProvider
	analyzer *xmr.Analyzer
	defaults xmr.Options

	cache    cache.Cache
	codec    cache.Codec
	cacheTTL time.Duration

	notifier *notify.Notifier
	metrics  *metrics.Recorder
}

// ChartOption configures a ChartService
type ChartOption func(*ChartService)

// WithCache memoises chart responses in c
func WithCache(c cache.Cache, codec cache.Codec, ttl time.Duration) ChartOption {
	return func(s *ChartService) {
		s.cache = c
		s.codec = codec
		s.cacheTTL = ttl
	}
}

// WithNotifier publishes an event whenever the latest point carries a signal
func WithNotifier(n *notify.Notifier) ChartOption {
	return func(s *ChartService) { s.notifier = n }
}

// WithMetrics records analyses on r
func WithMetrics(r *metrics.Recorder) ChartOption {
	return func(s *ChartService) { s.metrics = r }
}

// WithEngineDefaults sets the options used when a request leaves them unset
func WithEngineDefaults(cfg config.EngineConfig) ChartOption {
	return func(s *ChartService) {
		s.defaults = xmr.Options{
			SeasonalPeriod:     cfg.SeasonalPeriod,
			IncludeTrend:       cfg.IncludeTrend,
			IncludeSeasonality: cfg.IncludeSeasonality,
		}
	}
}

// WithAnalyzer replaces the engine
func WithAnalyzer(a *xmr.Analyzer) ChartOption {
	return func(s *ChartService) { s.analyzer = a }
}

// NewChartService creates a new ChartService. sources may be nil when no
// sources are configured.
func NewChartService(logger *logging.Logger, sources SourceProvider, opts ...ChartOption) *ChartService {
	s := &ChartService{
		logger:   logger,
		sources:  sources,
		analyzer: xmr.NewAnalyzer(),
		defaults: xmr.DefaultOptions(),
		codec:    cache.NewCodec(true),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalysisOverrides are per-request engine options. Zero or nil fields fall
// back to the service defaults.
type AnalysisOverrides struct {
	SeasonalPeriod     int
	IncludeTrend       *bool
	IncludeSeasonality *bool
}

// AnalyzeRequest represents a chart request for a posted series
type AnalyzeRequest struct {
	Metric string
	Series analytics.TimeSeriesData
	AnalysisOverrides
}

// SourceChartRequest represents a chart request for a configured source
type SourceChartRequest struct {
	Source string
	AnalysisOverrides
}

// options merges overrides onto the defaults
func (s *ChartService) options(o AnalysisOverrides) xmr.Options {
	opts := s.defaults
	if o.SeasonalPeriod != 0 {
		opts.SeasonalPeriod = o.SeasonalPeriod
	}
	if o.IncludeTrend != nil {
		opts.IncludeTrend = *o.IncludeTrend
	}
	if o.IncludeSeasonality != nil {
		opts.IncludeSeasonality = *o.IncludeSeasonality
	}
	return opts
}

// Analyze charts a posted series
func (s *ChartService) Analyze(ctx context.Context, req *AnalyzeRequest) (*models.ChartResponse, error) {
	return s.chart(ctx, originPosted, req.Metric, "", req.Series, s.options(req.AnalysisOverrides))
}

// ChartSource loads a configured source and charts it
func (s *ChartService) ChartSource(ctx context.Context, req *SourceChartRequest) (*models.ChartResponse, error) {
	if s.sources == nil {
		return nil, NewServiceError(CodeSourceNotFound, fmt.Sprintf("source %q is not configured", req.Source))
	}

	src, err := s.sources.Get(req.Source)
	if err != nil {
		return nil, NewServiceError(CodeSourceNotFound, fmt.Sprintf("source %q is not configured", req.Source))
	}

	series, err := s.sources.Load(ctx, req.Source)
	if err != nil {
		s.metrics.RecordError("source_read")
		if errors.Is(err, ingest.ErrUnknownSource) {
			return nil, NewServiceError(CodeSourceNotFound, err.Error())
		}
		return nil, NewServiceErrorWithDetails(CodeSourceReadFailed, "Failed to read source data",
			map[string]interface{}{"source": req.Source, "error": err.Error()})
	}

	return s.chart(ctx, originSource, src.Name, src.Title, series, s.options(req.AnalysisOverrides))
}

// ListSources returns the configured sources in configuration order
func (s *ChartService) ListSources() []models.SourceResponse {
	if s.sources == nil {
		return []models.SourceResponse{}
	}
	list := s.sources.List()
	out := make([]models.SourceResponse, len(list))
	for i, src := range list {
		out[i] = models.SourceResponse{
			Name:       src.Name,
			Title:      src.Title,
			DateField:  src.DateField,
			ValueField: src.ValueField,
			Scale:      src.Scale,
		}
	}
	return out
}

// chart runs one analysis. Cache and notification failures are logged and
// never fail the request.
func (s *ChartService) chart(
	ctx context.Context,
	origin, metric, title string,
	series analytics.TimeSeriesData,
	opts xmr.Options,
) (*models.ChartResponse, error) {
	startExec := time.Now()
	logger := s.logger.WithContext(logging.WithMetric(ctx, metric))

	if err := opts.Validate(); err != nil {
		return nil, NewServiceErrorWithDetails(CodeInvalidOptions, err.Error(),
			map[string]interface{}{"seasonal_period": opts.SeasonalPeriod})
	}

	key := cache.AnalysisKey(metric, series, opts)
	if resp, ok := s.lookup(ctx, logger, key); ok {
		resp.Title = title
		s.metrics.RecordAnalysis(origin, len(resp.Points), true)
		s.metrics.RecordLatency("analyze", time.Since(startExec).Seconds())
		logger.Info("Chart completed",
			"origin", origin,
			"points", len(resp.Points),
			"signals", countSignals(resp),
			"sloped", resp.Sloped,
			"cache_hit", true,
			"latency_ms", time.Since(startExec).Milliseconds())
		return resp, nil
	}

	result, err := s.analyzer.Analyze(series, opts)
	if err != nil {
		s.metrics.RecordError("analysis")
		switch {
		case errors.Is(err, xmr.ErrMissingDate), errors.Is(err, xmr.ErrOverflow):
			return nil, NewServiceError(CodeInvalidInput, err.Error())
		case errors.Is(err, xmr.ErrInvalidPeriod):
			return nil, NewServiceError(CodeInvalidOptions, err.Error())
		default:
			return nil, NewServiceErrorWithDetails(CodeAnalysisFailed, "Failed to analyze series",
				map[string]interface{}{"error": err.Error()})
		}
	}

	resp := models.NewChartResponse(metric, result)
	s.store(ctx, logger, key, resp)
	resp.Title = title

	s.metrics.RecordAnalysis(origin, len(result.Points), false)
	s.metrics.RecordSignals(signalCounts(result))
	if latest, ok := result.Latest(); ok && metric != "" {
		s.metrics.RecordLatestSignal(metric, latest.HasSignal)
	}
	s.publish(ctx, logger, metric, result)

	latency := time.Since(startExec)
	s.metrics.RecordLatency("analyze", latency.Seconds())
	logger.Info("Chart completed",
		"origin", origin,
		"points", len(result.Points),
		"signals", result.SignalCount(),
		"sloped", resp.Sloped,
		"cache_hit", false,
		"latency_ms", latency.Milliseconds())

	return resp, nil
}

func (s *ChartService) lookup(ctx context.Context, logger *logging.Logger, key string) (*models.ChartResponse, bool) {
	if s.cache == nil {
		return nil, false
	}

	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.RecordCache("error")
			logger.Warn("Cache read failed", "key", key, "error", err)
			return nil, false
		}
		s.metrics.RecordCache("miss")
		return nil, false
	}

	var resp models.ChartResponse
	if err := s.codec.Decode(payload, &resp); err != nil {
		s.metrics.RecordCache("error")
		logger.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		if delErr := s.cache.Delete(ctx, key); delErr != nil {
			logger.Warn("Cache delete failed", "key", key, "error", delErr)
		}
		return nil, false
	}

	s.metrics.RecordCache("hit")
	resp.Cached = true
	return &resp, true
}

func (s *ChartService) store(ctx context.Context, logger *logging.Logger, key string, resp *models.ChartResponse) {
	if s.cache == nil {
		return
	}

	payload, err := s.codec.Encode(resp)
	if err != nil {
		logger.Warn("Cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.metrics.RecordCache("error")
		logger.Warn("Cache write failed", "key", key, "error", err)
	}
}

func (s *ChartService) publish(ctx context.Context, logger *logging.Logger, metric string, result *xmr.Result) {
	if s.notifier == nil {
		return
	}

	event, err := s.notifier.Notify(ctx, metric, result)
	switch {
	case err != nil:
		s.metrics.RecordNotification("failed")
		logger.Warn("Signal notification failed", "subject", s.notifier.Subject(metric), "error", err)
	case event != nil:
		s.metrics.RecordNotification("sent")
		logger.Debug("Signal notification sent",
			"subject", s.notifier.Subject(metric),
			"event_id", event.ID,
			"primary", event.Primary)
	}
}

func signalCounts(result *xmr.Result) map[string]int {
	counts := make(map[string]int)
	for _, p := range result.Points {
		for _, sig := range p.Signals {
			counts[string(sig)]++
		}
	}
	return counts
}

func countSignals(resp *models.ChartResponse) int {
	count := 0
	for _, p := range resp.Points {
		if p.HasSignal {
			count++
		}
	}
	return count
}

package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/xmrchart/internal/analytics"
	"github.com/soltixdb/xmrchart/internal/cache"
	"github.com/soltixdb/xmrchart/internal/config"
	"github.com/soltixdb/xmrchart/internal/ingest"
	"github.com/soltixdb/xmrchart/internal/logging"
	"github.com/soltixdb/xmrchart/internal/metrics"
	"github.com/soltixdb/xmrchart/internal/models"
	"github.com/soltixdb/xmrchart/internal/notify"
)

var spike = []float64{10, 11, 10, 12, 11, 10, 11, 60}

func series(values ...float64) analytics.TimeSeriesData {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := make(analytics.TimeSeriesData, len(values))
	for i, v := range values {
		data[i] = analytics.TimeSeriesPoint{Time: base.AddDate(0, i, 0), Value: v}
	}
	return data
}

func boolPtr(b bool) *bool { return &b }

type serviceFixture struct {
	service   *ChartService
	publisher *notify.MemoryPublisher
	cache     *cache.MemoryCache
	registry  *prometheus.Registry
}

func newFixture(t *testing.T, sources SourceProvider, opts ...ChartOption) *serviceFixture {
	t.Helper()

	reg := prometheus.NewRegistry()
	f := &serviceFixture{
		publisher: notify.NewMemoryPublisher(),
		cache:     cache.NewMemoryCache(),
		registry:  reg,
	}
	t.Cleanup(func() { _ = f.cache.Close() })

	base := []ChartOption{
		WithCache(f.cache, cache.NewCodec(true), time.Minute),
		WithNotifier(notify.NewNotifier(f.publisher, "xmr.signals", time.Second)),
		WithMetrics(metrics.NewWithRegistry(reg, reg)),
	}
	f.service = NewChartService(logging.NewNop(), sources, append(base, opts...)...)
	return f
}

func newTestCatalog(t *testing.T) *ingest.Catalog {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "visits.csv")
	content := "date,value\n2024-01,10\n2024-02,11\n2024-03,10\n2024-04,12\n2024-05,11\n2024-06,10\n2024-07,11\n2024-08,60\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	catalog, err := ingest.NewCatalog([]ingest.Source{
		{Name: "visits", Title: "Monthly visits", Path: path},
		{Name: "broken", Path: filepath.Join(dir, "missing.csv")},
	})
	require.NoError(t, err)
	return catalog
}

func TestNewChartService(t *testing.T) {
	s := NewChartService(logging.NewNop(), nil)

	assert.NotNil(t, s.analyzer)
	assert.Nil(t, s.cache)
	assert.Nil(t, s.notifier)
	assert.Equal(t, 12, s.defaults.SeasonalPeriod)
	assert.Empty(t, s.ListSources())
}

func TestChartService_Analyze(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.service.Analyze(context.Background(), &AnalyzeRequest{
		Metric: "visits",
		Series: series(spike...),
	})
	require.NoError(t, err)

	require.Len(t, resp.Points, len(spike))
	last := resp.Points[len(resp.Points)-1]
	assert.True(t, last.HasSignal)
	assert.Equal(t, models.ColorLimit, last.Color)
	assert.False(t, resp.Cached)

	published := f.publisher.Published()
	require.Len(t, published, 1)
	assert.Equal(t, "xmr.signals.visits", published[0].Subject)

	assert.Equal(t, 1.0, counterValue(t, f.registry, "xmrchart_analyses_total",
		map[string]string{"origin": "posted", "cached": "false"}))
}

func TestChartService_AnalyzeCacheHit(t *testing.T) {
	f := newFixture(t, nil)
	req := &AnalyzeRequest{Metric: "visits", Series: series(spike...)}

	first, err := f.service.Analyze(context.Background(), req)
	require.NoError(t, err)
	second, err := f.service.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Points, second.Points)
	assert.Equal(t, 1, f.cache.Len())
	assert.Len(t, f.publisher.Published(), 1, "cache hits do not notify again")
}

func TestChartService_Options(t *testing.T) {
	f := newFixture(t, nil, WithEngineDefaults(config.EngineConfig{
		SeasonalPeriod:     4,
		IncludeTrend:       true,
		IncludeSeasonality: true,
	}))
	values := make([]float64, 12)
	for i := range values {
		values[i] = float64(i * 3)
	}

	resp, err := f.service.Analyze(context.Background(), &AnalyzeRequest{Metric: "growth", Series: series(values...)})
	require.NoError(t, err)
	require.NotNil(t, resp.Trend)
	require.NotNil(t, resp.Seasonality)
	assert.Equal(t, 4, resp.Seasonality.Period)

	resp, err = f.service.Analyze(context.Background(), &AnalyzeRequest{
		Metric: "growth",
		Series: series(values...),
		AnalysisOverrides: AnalysisOverrides{
			SeasonalPeriod:     6,
			IncludeTrend:       boolPtr(false),
			IncludeSeasonality: boolPtr(true),
		},
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Trend)
	require.NotNil(t, resp.Seasonality)
	assert.Equal(t, 6, resp.Seasonality.Period)
}

func TestChartService_AnalyzeErrors(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		req  *AnalyzeRequest
		code string
	}{
		{
			name: "negative period",
			req: &AnalyzeRequest{
				Series:            series(1, 2, 3),
				AnalysisOverrides: AnalysisOverrides{SeasonalPeriod: -1},
			},
			code: CodeInvalidOptions,
		},
		{
			name: "missing date",
			req: &AnalyzeRequest{
				Series: analytics.TimeSeriesData{{Value: 1}},
			},
			code: CodeInvalidInput,
		},
		{
			name: "overflowing values",
			req: &AnalyzeRequest{
				Series: series(1e308, -1e308, 1e308),
			},
			code: CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Analyze(context.Background(), tt.req)
			require.Error(t, err)
			se, ok := AsServiceError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, se.Code)
		})
	}
}

func TestChartService_AnalyzeEmpty(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.service.Analyze(context.Background(), &AnalyzeRequest{Metric: "empty"})
	require.NoError(t, err)
	assert.Empty(t, resp.Points)
	assert.Empty(t, resp.Labels)
	assert.Empty(t, f.publisher.Published())
}

func TestChartService_ChartSource(t *testing.T) {
	f := newFixture(t, newTestCatalog(t))

	resp, err := f.service.ChartSource(context.Background(), &SourceChartRequest{Source: "visits"})
	require.NoError(t, err)
	assert.Equal(t, "visits", resp.Metric)
	assert.Equal(t, "Monthly visits", resp.Title)
	assert.Len(t, resp.Points, 8)

	cached, err := f.service.ChartSource(context.Background(), &SourceChartRequest{Source: "visits"})
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, "Monthly visits", cached.Title)
}

func TestChartService_ChartSourceErrors(t *testing.T) {
	f := newFixture(t, newTestCatalog(t))

	_, err := f.service.ChartSource(context.Background(), &SourceChartRequest{Source: "nope"})
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeSourceNotFound, se.Code)

	_, err = f.service.ChartSource(context.Background(), &SourceChartRequest{Source: "broken"})
	se, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeSourceReadFailed, se.Code)
	assert.Equal(t, "broken", se.Details["source"])

	noSources := newFixture(t, nil)
	_, err = noSources.service.ChartSource(context.Background(), &SourceChartRequest{Source: "visits"})
	se, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeSourceNotFound, se.Code)
}

func TestChartService_ListSources(t *testing.T) {
	f := newFixture(t, newTestCatalog(t))

	sources := f.service.ListSources()
	require.Len(t, sources, 2)
	assert.Equal(t, "visits", sources[0].Name)
	assert.Equal(t, "broken", sources[1].Title)
}

// brokenCache fails every operation
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("cache down")
}
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}
func (brokenCache) Delete(context.Context, ...string) error { return errors.New("cache down") }
func (brokenCache) Close() error                            { return nil }

// brokenPublisher fails every publish
type brokenPublisher struct{}

func (brokenPublisher) Publish(context.Context, string, []byte) error {
	return errors.New("broker down")
}
func (brokenPublisher) Close() error { return nil }

func TestChartService_DegradedMode(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := metrics.NewWithRegistry(reg, reg)
	s := NewChartService(logging.NewNop(), nil,
		WithCache(brokenCache{}, cache.NewCodec(false), time.Minute),
		WithNotifier(notify.NewNotifier(brokenPublisher{}, "xmr.signals", time.Second)),
		WithMetrics(recorder),
	)

	resp, err := s.Analyze(context.Background(), &AnalyzeRequest{Metric: "visits", Series: series(spike...)})
	require.NoError(t, err)
	assert.Len(t, resp.Points, len(spike))
	assert.False(t, resp.Cached)

	assert.Equal(t, 1.0, counterValue(t, reg, "xmrchart_notifications_total",
		map[string]string{"outcome": "failed"}))
}

func TestChartService_CorruptCacheEntryIsDiscarded(t *testing.T) {
	f := newFixture(t, nil)
	req := &AnalyzeRequest{Metric: "visits", Series: series(spike...)}
	key := cache.AnalysisKey("visits", req.Series, f.service.options(req.AnalysisOverrides))

	require.NoError(t, f.cache.Set(context.Background(), key, []byte{0x7f, 0x00}, time.Minute))

	resp, err := f.service.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Cached)
}

// counterValue reads one labelled counter from a registry
func counterValue(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := g.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want == lp.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("counter %s%v not found", name, labels)
	return 0
}

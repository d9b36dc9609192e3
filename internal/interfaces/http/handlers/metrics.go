package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/entity"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/metrics"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/cache"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/interfaces/http/response"
)

// MetricsProvider is the slice of the metrics service the handlers use.
type MetricsProvider interface {
	Overview(ctx context.Context) (*entity.Overview, error)
	MRREvolution(ctx context.Context, start, end time.Time) ([]metrics.MRRPoint, error)
	ChurnRate(ctx context.Context, interval metrics.Interval) ([]metrics.ChurnPoint, error)
	TrialConversion(ctx context.Context, start, end time.Time) ([]metrics.ConversionPoint, error)
	RevenueByCurrency(ctx context.Context, start, end time.Time) ([]metrics.CurrencyRevenue, error)
	ARPU(ctx context.Context) (*metrics.ARPUPoint, error)
	LTV(ctx context.Context) (*metrics.LTVEstimate, error)
	Summary(ctx context.Context, start, end time.Time) *metrics.Summary
}

// MetricsHandler serves the dashboard metric endpoints. Each endpoint
// fails independently so the UI can degrade one chart at a time.
type MetricsHandler struct {
	provider MetricsProvider
	cache    *cache.TTLCache
	logger   *zap.Logger
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(provider MetricsProvider, c *cache.TTLCache, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		provider: provider,
		cache:    c,
		logger:   logger,
	}
}

// dateRange parses optional ?start / ?end (YYYY-MM-DD) query params.
// Absent params mean an unbounded window.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	var start, end time.Time
	if s := c.Query("start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			response.BadRequest(c, "start must be YYYY-MM-DD")
			return start, end, false
		}
		start = t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			response.BadRequest(c, "end must be YYYY-MM-DD")
			return start, end, false
		}
		// Inclusive end: cover the whole day.
		end = t.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return start, end, true
}

func (h *MetricsHandler) upstreamError(c *gin.Context, metric string, err error) {
	h.logger.Error("metric computation failed", zap.String("metric", metric), zap.Error(err))
	response.BadGateway(c, "Failed to compute "+metric)
}

// GetOverview returns the billing vendor's live snapshot.
func (h *MetricsHandler) GetOverview(c *gin.Context) {
	ov, err := h.provider.Overview(c.Request.Context())
	if err != nil {
		h.upstreamError(c, "overview", err)
		return
	}
	response.OK(c, ov)
}

// GetMRR returns the reconstructed MRR evolution series.
func (h *MetricsHandler) GetMRR(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	series, err := h.provider.MRREvolution(c.Request.Context(), start, end)
	if err != nil {
		h.upstreamError(c, "mrr", err)
		return
	}
	response.OK(c, series)
}

// GetChurn returns the churn-rate series. ?interval=weekly|monthly,
// monthly by default.
func (h *MetricsHandler) GetChurn(c *gin.Context) {
	interval := metrics.Interval(c.DefaultQuery("interval", string(metrics.IntervalMonthly)))
	if interval != metrics.IntervalWeekly && interval != metrics.IntervalMonthly {
		response.BadRequest(c, "interval must be weekly or monthly")
		return
	}
	series, err := h.provider.ChurnRate(c.Request.Context(), interval)
	if err != nil {
		h.upstreamError(c, "churn", err)
		return
	}
	response.OK(c, series)
}

// GetConversion returns the trial-to-paid conversion series.
func (h *MetricsHandler) GetConversion(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	series, err := h.provider.TrialConversion(c.Request.Context(), start, end)
	if err != nil {
		h.upstreamError(c, "conversion", err)
		return
	}
	response.OK(c, series)
}

// GetRevenueByCurrency returns the revenue breakdown by currency.
func (h *MetricsHandler) GetRevenueByCurrency(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	breakdown, err := h.provider.RevenueByCurrency(c.Request.Context(), start, end)
	if err != nil {
		h.upstreamError(c, "revenue-by-currency", err)
		return
	}
	response.OK(c, breakdown)
}

// GetARPU returns the current ARPU data point.
func (h *MetricsHandler) GetARPU(c *gin.Context) {
	point, err := h.provider.ARPU(c.Request.Context())
	if err != nil {
		h.upstreamError(c, "arpu", err)
		return
	}
	response.OK(c, point)
}

// GetLTV returns the LTV estimate.
func (h *MetricsHandler) GetLTV(c *gin.Context) {
	estimate, err := h.provider.LTV(c.Request.Context())
	if err != nil {
		h.upstreamError(c, "ltv", err)
		return
	}
	response.OK(c, estimate)
}

// GetSummary returns the landing-page metrics fetched concurrently.
// Always 200: per-metric failures ride along in the payload.
func (h *MetricsHandler) GetSummary(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	response.OK(c, h.provider.Summary(c.Request.Context(), start, end))
}

// Refresh drops every cached metric so the next reads hit the vendors.
func (h *MetricsHandler) Refresh(c *gin.Context) {
	removed := h.cache.InvalidatePrefix("metrics:")
	h.logger.Info("metrics cache invalidated", zap.Int("entries", removed))
	response.OK(c, gin.H{"invalidated": removed})
}

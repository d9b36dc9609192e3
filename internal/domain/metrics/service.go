package metrics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/entity"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/event"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/repository"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/cache"
)

// Cache key formats. Route handlers rely on the "metrics:" prefix to
// invalidate everything after a manual refresh.
const (
	KeyMRR        = "metrics:mrr:%s:%s"
	KeyChurn      = "metrics:churn:%s"
	KeyConversion = "metrics:conversion:%s:%s"
	KeyRevenue    = "metrics:revenue-by-currency:%s:%s"
	KeyARPU       = "metrics:arpu"
	KeyLTV        = "metrics:ltv"
	KeyOverview   = "metrics:overview"
)

// Cache TTLs. Event-derived series are expensive to rebuild and move
// slowly; the vendor overview is cheap and fresher.
const (
	TTLSeries   = 30 * time.Minute
	TTLOverview = 5 * time.Minute
)

// Interval selects the churn bucketing period.
type Interval string

const (
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
)

// Service reconstructs time-series metrics from the subscription
// lifecycle event stream, filling in the history the billing vendor
// does not provide natively. Every method is cached; on a miss it
// queries only the event fields it needs, runs its aggregation over
// the ascending-ordered stream, and caches the result.
//
// I/O failures are not retried and not cached — they propagate so the
// caller can degrade that one metric while others still render.
type Service struct {
	events   repository.EventRepository
	overview repository.OverviewProvider
	cache    *cache.TTLCache
	logger   *zap.Logger
}

// NewService creates a metrics service.
func NewService(events repository.EventRepository, overview repository.OverviewProvider, c *cache.TTLCache, logger *zap.Logger) *Service {
	return &Service{
		events:   events,
		overview: overview,
		cache:    c,
		logger:   logger,
	}
}

// MRRPoint is one day of the MRR evolution series. MRR is in USD cents.
type MRRPoint struct {
	Date        string `json:"date"`
	MRR         int64  `json:"mrr"`
	Subscribers int    `json:"subscribers"`
}

// ChurnPoint is one period of the churn series.
type ChurnPoint struct {
	Date      string  `json:"date"`
	ChurnRate float64 `json:"churnRate"`
	Active    int     `json:"activeSubscribers"`
	Churned   int     `json:"churnedSubscribers"`
}

// ConversionPoint is one month of the trial-to-paid conversion series.
type ConversionPoint struct {
	Date            string  `json:"date"`
	ConversionRate  float64 `json:"conversionRate"`
	TrialsStarted   int     `json:"trialsStarted"`
	TrialsConverted int     `json:"trialsConverted"`
}

// CurrencyRevenue is one currency's share of total revenue. Revenue is
// in USD cents. The JSON key for the currency code is "country": the
// revenue chart predates multi-currency support and keeps its original
// field name.
type CurrencyRevenue struct {
	Currency     string  `json:"country"`
	Revenue      int64   `json:"revenue"`
	Transactions int     `json:"transactions"`
	Percentage   float64 `json:"percentage"`
}

// ARPUPoint is the current average revenue per user, keyed by month.
type ARPUPoint struct {
	Date string `json:"date"`
	ARPU int64  `json:"arpu"`
}

// LTVEstimate combines vendor ARPU with event-derived average tenure.
type LTVEstimate struct {
	ARPU              int64   `json:"arpu"`
	AvgDurationMonths float64 `json:"avgDurationMonths"`
	EstimatedLTV      int64   `json:"estimatedLTV"`
}

// Overview returns the billing vendor's live snapshot, cached briefly.
func (s *Service) Overview(ctx context.Context) (*entity.Overview, error) {
	return cache.GetOrCompute(ctx, s.cache, KeyOverview, TTLOverview, func(ctx context.Context) (*entity.Overview, error) {
		return s.overview.FetchOverview(ctx)
	})
}

// rangeKey renders an optional date window for use in cache keys.
func rangeKey(start, end time.Time) (string, string) {
	from, to := "all", "all"
	if !start.IsZero() {
		from = start.UTC().Format(dayFormat)
	}
	if !end.IsZero() {
		to = end.UTC().Format(dayFormat)
	}
	return from, to
}

func (s *Service) listEvents(ctx context.Context, start, end time.Time, fields []string) ([]event.Event, error) {
	evs, err := s.events.ListEvents(ctx, repository.EventQuery{Start: start, End: end, Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return evs, nil
}

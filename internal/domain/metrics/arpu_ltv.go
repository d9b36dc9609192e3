package metrics

import (
	"context"
	"math"
	"time"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/event"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/cache"
)

const msPerDay = 24 * 60 * 60 * 1000

// ARPU returns the current average revenue per user as a single point
// keyed by the current month. It is derived from the vendor's live
// snapshot rather than event replay: the vendor's own subscriber count
// is authoritative, and a historical ARPU series is future work.
func (s *Service) ARPU(ctx context.Context) (*ARPUPoint, error) {
	return cache.GetOrCompute(ctx, s.cache, KeyARPU, TTLOverview, func(ctx context.Context) (*ARPUPoint, error) {
		ov, err := s.overview.FetchOverview(ctx)
		if err != nil {
			return nil, err
		}

		var arpu int64
		if ov.ActiveSubscriptions > 0 {
			arpu = int64(math.Round(float64(ov.MRR) / float64(ov.ActiveSubscriptions)))
		}
		return &ARPUPoint{
			Date: time.Now().UTC().Format("2006-01"),
			ARPU: arpu,
		}, nil
	})
}

// LTV estimates lifetime value as ARPU times the average subscription
// duration in months. Duration is reconstructed from events: per user,
// the span from the first INITIAL_PURCHASE to the furthest expiration
// seen across later renewals.
func (s *Service) LTV(ctx context.Context) (*LTVEstimate, error) {
	return cache.GetOrCompute(ctx, s.cache, KeyLTV, TTLSeries, func(ctx context.Context) (*LTVEstimate, error) {
		arpu, err := s.ARPU(ctx)
		if err != nil {
			return nil, err
		}

		evs, err := s.listEvents(ctx, time.Time{}, time.Time{}, []string{
			"type", "timestampMs", "userId", "expirationAtMs",
		})
		if err != nil {
			return nil, err
		}

		type tenure struct {
			startMs int64
			endMs   int64
		}
		tenures := make(map[string]*tenure)
		for _, ev := range evs {
			switch ev.Type {
			case event.TypeInitialPurchase:
				t, ok := tenures[ev.UserID]
				if !ok {
					t = &tenure{startMs: ev.TimestampMs}
					tenures[ev.UserID] = t
				}
				if ev.ExpirationAtMs > t.endMs {
					t.endMs = ev.ExpirationAtMs
				}
			case event.TypeRenewal:
				if t, ok := tenures[ev.UserID]; ok && ev.ExpirationAtMs > t.endMs {
					t.endMs = ev.ExpirationAtMs
				}
			}
		}

		var totalDays float64
		counted := 0
		for _, t := range tenures {
			if t.endMs <= t.startMs {
				continue
			}
			totalDays += float64(t.endMs-t.startMs) / msPerDay
			counted++
		}

		est := &LTVEstimate{ARPU: arpu.ARPU}
		if counted > 0 {
			est.AvgDurationMonths = round2(totalDays / float64(counted) / 30)
			est.EstimatedLTV = int64(math.Round(est.AvgDurationMonths * float64(arpu.ARPU)))
		}
		return est, nil
	})
}

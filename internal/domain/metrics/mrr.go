package metrics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/event"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/valueobject"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/cache"
)

// subscriptionState tracks one user's currently active subscription
// while replaying the event stream.
type subscriptionState struct {
	productID      string
	expirationAtMs int64
	monthlyCents   int64
}

// MRREvolution replays the subscription lifecycle events in the window
// and reconstructs the MRR and subscriber-count series day by day.
//
// Purchases and renewals insert or overwrite the user's subscription
// record; cancellations and expirations remove it. After every event
// the day's totals are recomputed over records whose expiration is
// strictly later than the event's own timestamp, so a subscription that
// lapsed without an explicit expiration event stops counting as soon as
// any later event lands. Silent days between events carry the last
// known values forward.
func (s *Service) MRREvolution(ctx context.Context, start, end time.Time) ([]MRRPoint, error) {
	from, to := rangeKey(start, end)
	key := fmt.Sprintf(KeyMRR, from, to)

	return cache.GetOrCompute(ctx, s.cache, key, TTLSeries, func(ctx context.Context) ([]MRRPoint, error) {
		evs, err := s.listEvents(ctx, start, end, []string{
			"type", "timestampMs", "userId", "productId",
			"priceInPurchasedCurrency", "currency", "expirationAtMs",
		})
		if err != nil {
			return nil, err
		}
		return s.buildMRRSeries(evs), nil
	})
}

func (s *Service) buildMRRSeries(evs []event.Event) []MRRPoint {
	states := make(map[string]subscriptionState)
	var series []MRRPoint
	index := make(map[string]int) // day -> position in series

	for _, ev := range evs {
		switch ev.Type {
		case event.TypeInitialPurchase, event.TypeRenewal:
			states[ev.UserID] = subscriptionState{
				productID:      ev.ProductID,
				expirationAtMs: ev.ExpirationAtMs,
				monthlyCents:   s.monthlyValueCents(ev),
			}
		case event.TypeCancellation, event.TypeExpiration:
			delete(states, ev.UserID)
		default:
			continue
		}

		var mrr int64
		subscribers := 0
		for _, st := range states {
			if st.expirationAtMs > ev.TimestampMs {
				mrr += st.monthlyCents
				subscribers++
			}
		}

		day := ev.Day().Format(dayFormat)
		point := MRRPoint{Date: day, MRR: mrr, Subscribers: subscribers}
		if i, ok := index[day]; ok {
			series[i] = point
		} else {
			index[day] = len(series)
			series = append(series, point)
		}
	}

	if len(series) > 1 {
		series = FillDailyGaps(series,
			func(p MRRPoint) time.Time { return parseDay(p.Date) },
			func(p MRRPoint, d time.Time) MRRPoint {
				p.Date = d.Format(dayFormat)
				return p
			},
		)
	}
	return series
}

// monthlyValueCents is the event's monthly-equivalent contribution to
// MRR: monthly plans count their full normalized price, yearly plans a
// twelfth of it, everything else (lifetime, trials, one-offs) zero.
func (s *Service) monthlyValueCents(ev event.Event) int64 {
	plan := valueobject.ClassifyProduct(ev.ProductID)
	if !plan.CountsTowardMRR() {
		return 0
	}
	cents := ToUSDCents(ev.Price, ev.Currency, s.logger)
	if plan == valueobject.PlanYearly {
		return int64(math.Round(float64(cents) / 12))
	}
	return cents
}

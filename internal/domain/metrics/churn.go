package metrics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/event"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/cache"
)

type churnBucket struct {
	active  map[string]struct{}
	churned map[string]struct{}
}

// ChurnRate buckets lifecycle events into weekly (Monday-anchored) or
// monthly periods and reports, per period, the churned-user count as a
// percentage of users with purchase activity.
//
// Known approximation, kept on purpose: the denominator is the set of
// users with a purchase or renewal event inside the period, not a true
// snapshot of everyone active when the period began. Long-tenured
// subscribers with no event that period are invisible to it, which
// overstates the rate for quiet periods. Product has signed off on this
// reading; do not silently "fix" it into a cohort-survival measure.
func (s *Service) ChurnRate(ctx context.Context, interval Interval) ([]ChurnPoint, error) {
	key := fmt.Sprintf(KeyChurn, interval)

	return cache.GetOrCompute(ctx, s.cache, key, TTLSeries, func(ctx context.Context) ([]ChurnPoint, error) {
		evs, err := s.listEvents(ctx, time.Time{}, time.Time{}, []string{"type", "timestampMs", "userId"})
		if err != nil {
			return nil, err
		}
		return buildChurnSeries(evs, interval), nil
	})
}

func buildChurnSeries(evs []event.Event, interval Interval) []ChurnPoint {
	buckets := make(map[string]*churnBucket)

	for _, ev := range evs {
		period := periodKey(ev.Day(), interval)
		b, ok := buckets[period]
		if !ok {
			b = &churnBucket{
				active:  make(map[string]struct{}),
				churned: make(map[string]struct{}),
			}
			buckets[period] = b
		}

		switch ev.Type {
		case event.TypeInitialPurchase, event.TypeRenewal:
			b.active[ev.UserID] = struct{}{}
		case event.TypeCancellation, event.TypeExpiration:
			b.churned[ev.UserID] = struct{}{}
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	series := make([]ChurnPoint, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		rate := 0.0
		if len(b.active) > 0 {
			rate = round2(float64(len(b.churned)) / float64(len(b.active)) * 100)
		}
		series = append(series, ChurnPoint{
			Date:      k,
			ChurnRate: rate,
			Active:    len(b.active),
			Churned:   len(b.churned),
		})
	}
	return series
}

// periodKey maps a day to its bucket label: the Monday of its week for
// weekly buckets, "YYYY-MM" for monthly.
func periodKey(day time.Time, interval Interval) string {
	if interval == IntervalWeekly {
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset).Format(dayFormat)
	}
	return day.Format("2006-01")
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/event"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/cache"
)

type conversionBucket struct {
	started   map[string]struct{}
	converted map[string]struct{}
}

// TrialConversion reports, per calendar month, how many users started a
// trial and how many converted to paid.
//
// A conversion is read as "a non-trial RENEWAL in the month": the first
// paid renewal after a trial. There is no cross-month linkage back to
// the originating trial, so a trial started in January converting in
// February counts toward February's conversions and January's starts.
func (s *Service) TrialConversion(ctx context.Context, start, end time.Time) ([]ConversionPoint, error) {
	from, to := rangeKey(start, end)
	key := fmt.Sprintf(KeyConversion, from, to)

	return cache.GetOrCompute(ctx, s.cache, key, TTLSeries, func(ctx context.Context) ([]ConversionPoint, error) {
		evs, err := s.listEvents(ctx, start, end, []string{"type", "timestampMs", "userId", "isTrialPeriod"})
		if err != nil {
			return nil, err
		}
		return buildConversionSeries(evs), nil
	})
}

func buildConversionSeries(evs []event.Event) []ConversionPoint {
	buckets := make(map[string]*conversionBucket)

	for _, ev := range evs {
		month := ev.Day().Format("2006-01")
		b, ok := buckets[month]
		if !ok {
			b = &conversionBucket{
				started:   make(map[string]struct{}),
				converted: make(map[string]struct{}),
			}
			buckets[month] = b
		}

		switch {
		case ev.Type == event.TypeInitialPurchase && ev.IsTrialPeriod:
			b.started[ev.UserID] = struct{}{}
		case ev.Type == event.TypeRenewal && !ev.IsTrialPeriod:
			b.converted[ev.UserID] = struct{}{}
		}
	}

	months := make([]string, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Strings(months)

	series := make([]ConversionPoint, 0, len(months))
	for _, m := range months {
		b := buckets[m]
		rate := 0.0
		if len(b.started) > 0 {
			rate = round2(float64(len(b.converted)) / float64(len(b.started)) * 100)
		}
		series = append(series, ConversionPoint{
			Date:            m,
			ConversionRate:  rate,
			TrialsStarted:   len(b.started),
			TrialsConverted: len(b.converted),
		})
	}
	return series
}

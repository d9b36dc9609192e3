package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/cache"
)

// RevenueByCurrency accumulates revenue-producing events (purchases,
// renewals, one-off purchases) per transaction currency, normalized to
// USD cents, with each currency's percentage share of the total.
// Sorted descending by revenue.
func (s *Service) RevenueByCurrency(ctx context.Context, start, end time.Time) ([]CurrencyRevenue, error) {
	from, to := rangeKey(start, end)
	key := fmt.Sprintf(KeyRevenue, from, to)

	return cache.GetOrCompute(ctx, s.cache, key, TTLSeries, func(ctx context.Context) ([]CurrencyRevenue, error) {
		evs, err := s.listEvents(ctx, start, end, []string{
			"type", "timestampMs", "priceInPurchasedCurrency", "currency",
		})
		if err != nil {
			return nil, err
		}

		byCurrency := make(map[string]*CurrencyRevenue)
		var total int64
		for _, ev := range evs {
			if !ev.IsRevenue() {
				continue
			}
			cents := ToUSDCents(ev.Price, ev.Currency, s.logger)
			r, ok := byCurrency[ev.Currency]
			if !ok {
				r = &CurrencyRevenue{Currency: ev.Currency}
				byCurrency[ev.Currency] = r
			}
			r.Revenue += cents
			r.Transactions++
			total += cents
		}

		out := make([]CurrencyRevenue, 0, len(byCurrency))
		for _, r := range byCurrency {
			if total > 0 {
				r.Percentage = float64(r.Revenue) / float64(total) * 100
			}
			out = append(out, *r)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Revenue != out[j].Revenue {
				return out[i].Revenue > out[j].Revenue
			}
			return out[i].Currency < out[j].Currency
		})
		return out, nil
	})
}

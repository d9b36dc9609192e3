package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/entity"
)

// Summary bundles the metrics the dashboard landing page renders in one
// call. Metrics that failed are absent from the payload and listed in
// Errors instead.
type Summary struct {
	Overview   *entity.Overview  `json:"overview,omitempty"`
	MRR        []MRRPoint        `json:"mrr,omitempty"`
	Churn      []ChurnPoint      `json:"churn,omitempty"`
	Conversion []ConversionPoint `json:"conversion,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// Summary fetches the landing-page metrics concurrently. Each metric
// succeeds or fails on its own: one vendor outage degrades one chart,
// it never cancels or blocks the rest of the page.
func (s *Service) Summary(ctx context.Context, start, end time.Time) *Summary {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = &Summary{Errors: make(map[string]string)}
	)

	fail := func(name string, err error) {
		mu.Lock()
		out.Errors[name] = err.Error()
		mu.Unlock()
		s.logger.Warn("summary metric failed", zap.String("metric", name), zap.Error(err))
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		ov, err := s.Overview(ctx)
		if err != nil {
			fail("overview", err)
			return
		}
		mu.Lock()
		out.Overview = ov
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		series, err := s.MRREvolution(ctx, start, end)
		if err != nil {
			fail("mrr", err)
			return
		}
		mu.Lock()
		out.MRR = series
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		series, err := s.ChurnRate(ctx, IntervalMonthly)
		if err != nil {
			fail("churn", err)
			return
		}
		mu.Lock()
		out.Churn = series
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		series, err := s.TrialConversion(ctx, start, end)
		if err != nil {
			fail("conversion", err)
			return
		}
		mu.Lock()
		out.Conversion = series
		mu.Unlock()
	}()
	wg.Wait()

	if len(out.Errors) == 0 {
		out.Errors = nil
	}
	return out
}

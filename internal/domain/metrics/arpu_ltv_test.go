package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/entity"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/event"
)

func TestARPU(t *testing.T) {
	ctx := context.Background()

	t.Run("divides MRR by active subscriptions, rounded", func(t *testing.T) {
		ov := &stubOverview{overview: &entity.Overview{MRR: 50000, ActiveSubscriptions: 7}}
		svc := newTestService(nil, ov)

		point, err := svc.ARPU(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(7143), point.ARPU)
		assert.Equal(t, time.Now().UTC().Format("2006-01"), point.Date)
	})

	t.Run("returns zero when there are no active subscriptions", func(t *testing.T) {
		ov := &stubOverview{overview: &entity.Overview{MRR: 50000}}
		svc := newTestService(nil, ov)

		point, err := svc.ARPU(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), point.ARPU)
	})

	t.Run("vendor errors propagate", func(t *testing.T) {
		ov := &stubOverview{err: errors.New("vendor down")}
		svc := newTestService(nil, ov)

		_, err := svc.ARPU(ctx)
		assert.Error(t, err)
	})
}

func TestLTV(t *testing.T) {
	ctx := context.Background()

	t.Run("multiplies ARPU by average tenure in months", func(t *testing.T) {
		start := ts(1, 0)
		repo := &stubEventRepo{events: []event.Event{
			// u1: 60 days of tenure across an initial purchase and a renewal.
			{Type: event.TypeInitialPurchase, TimestampMs: start, UserID: "u1",
				ExpirationAtMs: start + 30*msPerDay},
			{Type: event.TypeRenewal, TimestampMs: start + 30*msPerDay, UserID: "u1",
				ExpirationAtMs: start + 60*msPerDay},
		}}
		ov := &stubOverview{overview: &entity.Overview{MRR: 2000, ActiveSubscriptions: 2}}
		svc := newTestService(repo, ov)

		est, err := svc.LTV(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(1000), est.ARPU)
		assert.Equal(t, 2.0, est.AvgDurationMonths)
		assert.Equal(t, int64(2000), est.EstimatedLTV)
	})

	t.Run("ignores renewals with no preceding initial purchase", func(t *testing.T) {
		start := ts(1, 0)
		repo := &stubEventRepo{events: []event.Event{
			{Type: event.TypeRenewal, TimestampMs: start, UserID: "orphan",
				ExpirationAtMs: start + 30*msPerDay},
			{Type: event.TypeInitialPurchase, TimestampMs: start, UserID: "u1",
				ExpirationAtMs: start + 30*msPerDay},
		}}
		ov := &stubOverview{overview: &entity.Overview{MRR: 1000, ActiveSubscriptions: 1}}
		svc := newTestService(repo, ov)

		est, err := svc.LTV(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1.0, est.AvgDurationMonths)
	})

	t.Run("returns a zero estimate with no measurable tenures", func(t *testing.T) {
		repo := &stubEventRepo{events: []event.Event{
			// No expiration recorded: tenure is not measurable.
			{Type: event.TypeInitialPurchase, TimestampMs: ts(1, 0), UserID: "u1"},
		}}
		ov := &stubOverview{overview: &entity.Overview{MRR: 1000, ActiveSubscriptions: 1}}
		svc := newTestService(repo, ov)

		est, err := svc.LTV(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(1000), est.ARPU)
		assert.Equal(t, 0.0, est.AvgDurationMonths)
		assert.Equal(t, int64(0), est.EstimatedLTV)
	})
}

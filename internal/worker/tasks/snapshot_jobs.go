package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/entity"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/metrics"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/repository"
)

// Task names
const (
	TypeDailySnapshot = "snapshot:daily"
)

// SnapshotJobHandler computes and persists the daily metric rollup.
type SnapshotJobHandler struct {
	metrics   *metrics.Service
	events    repository.EventRepository
	snapshots repository.SnapshotRepository
	logger    *zap.Logger
}

// NewSnapshotJobHandler creates a new snapshot job handler
func NewSnapshotJobHandler(
	metricsService *metrics.Service,
	events repository.EventRepository,
	snapshots repository.SnapshotRepository,
	logger *zap.Logger,
) *SnapshotJobHandler {
	return &SnapshotJobHandler{
		metrics:   metricsService,
		events:    events,
		snapshots: snapshots,
		logger:    logger,
	}
}

// RegisterHandlers registers all task handlers with the server mux.
func RegisterHandlers(mux *asynq.ServeMux, h *SnapshotJobHandler) {
	mux.HandleFunc(TypeDailySnapshot, h.HandleDailySnapshot)
}

// RegisterScheduledTasks registers all scheduled (cron) tasks.
func RegisterScheduledTasks(scheduler *asynq.Scheduler, logger *zap.Logger) {
	// Roll up yesterday's metrics every morning, after the billing
	// vendor has settled the previous day.
	if _, err := scheduler.Register("0 6 * * *", asynq.NewTask(TypeDailySnapshot, nil)); err != nil {
		logger.Error("Failed to schedule daily snapshot", zap.Error(err))
	}
}

// HandleDailySnapshot fetches the vendor overview plus yesterday's event
// count and upserts the rollup row for yesterday. Re-running the task
// for the same day overwrites that day's row.
func (h *SnapshotJobHandler) HandleDailySnapshot(ctx context.Context, t *asynq.Task) error {
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	overview, err := h.metrics.Overview(ctx)
	if err != nil {
		return fmt.Errorf("fetch overview: %w", err)
	}

	eventCount, err := h.events.CountEvents(ctx, day, day.AddDate(0, 0, 1).Add(-time.Millisecond))
	if err != nil {
		return fmt.Errorf("count events: %w", err)
	}

	snapshot := &entity.DailySnapshot{
		Date:                day,
		MRR:                 overview.MRR,
		ActiveSubscriptions: overview.ActiveSubscriptions,
		Revenue28d:          overview.Revenue28d,
		NewCustomers28d:     overview.NewCustomers28d,
		ActiveTrials:        overview.ActiveTrials,
		EventCount:          eventCount,
	}
	if err := h.snapshots.Upsert(ctx, snapshot); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	h.logger.Info("daily snapshot persisted",
		zap.String("date", day.Format("2006-01-02")),
		zap.Int64("mrr", snapshot.MRR),
		zap.Int64("active_subscriptions", snapshot.ActiveSubscriptions),
		zap.Int64("event_count", eventCount),
	)
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/entity"
	domainRepo "github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/repository"
)

// SnapshotRepositoryImpl implements SnapshotRepository using pgxpool
type SnapshotRepositoryImpl struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new snapshot repository implementation
func NewSnapshotRepository(pool *pgxpool.Pool) domainRepo.SnapshotRepository {
	return &SnapshotRepositoryImpl{
		pool: pool,
	}
}

// Upsert inserts or replaces the rollup row for the snapshot's day.
func (r *SnapshotRepositoryImpl) Upsert(ctx context.Context, s *entity.DailySnapshot) error {
	query := `
		INSERT INTO daily_snapshots (
			snapshot_date, mrr, active_subscriptions, revenue_28d,
			new_customers_28d, active_trials, event_count, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (snapshot_date) DO UPDATE SET
			mrr = EXCLUDED.mrr,
			active_subscriptions = EXCLUDED.active_subscriptions,
			revenue_28d = EXCLUDED.revenue_28d,
			new_customers_28d = EXCLUDED.new_customers_28d,
			active_trials = EXCLUDED.active_trials,
			event_count = EXCLUDED.event_count,
			updated_at = now()
	`
	_, err := r.pool.Exec(ctx, query,
		s.Date.UTC().Truncate(24*time.Hour),
		s.MRR,
		s.ActiveSubscriptions,
		s.Revenue28d,
		s.NewCustomers28d,
		s.ActiveTrials,
		s.EventCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily snapshot: %w", err)
	}
	return nil
}

// ListRange returns snapshots in [start, end], ascending by day.
func (r *SnapshotRepositoryImpl) ListRange(ctx context.Context, start, end time.Time) ([]entity.DailySnapshot, error) {
	query := `
		SELECT snapshot_date, mrr, active_subscriptions, revenue_28d,
		       new_customers_28d, active_trials, event_count
		FROM daily_snapshots
		WHERE snapshot_date >= $1 AND snapshot_date <= $2
		ORDER BY snapshot_date ASC
	`
	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily snapshots: %w", err)
	}
	defer rows.Close()

	var out []entity.DailySnapshot
	for rows.Next() {
		var s entity.DailySnapshot
		if err := rows.Scan(
			&s.Date,
			&s.MRR,
			&s.ActiveSubscriptions,
			&s.Revenue28d,
			&s.NewCustomers28d,
			&s.ActiveTrials,
			&s.EventCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"time"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/entity"
)

// SnapshotRepository persists the daily metric rollups. Upsert is keyed
// by calendar day: re-running the rollup for a day replaces that day's
// row.
type SnapshotRepository interface {
	Upsert(ctx context.Context, s *entity.DailySnapshot) error
	ListRange(ctx context.Context, start, end time.Time) ([]entity.DailySnapshot, error)
}

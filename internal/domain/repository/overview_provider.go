package repository

import (
	"context"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/entity"
)

// OverviewProvider fetches the billing vendor's live metrics snapshot.
type OverviewProvider interface {
	FetchOverview(ctx context.Context) (*entity.Overview, error)
}

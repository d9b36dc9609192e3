package repository

import (
	"context"
	"time"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/event"
)

// EventQuery narrows an event scan. Zero Start/End mean unbounded; Fields
// limits the projection to what the caller's aggregation actually reads.
type EventQuery struct {
	Start  time.Time
	End    time.Time
	Fields []string
}

// EventRepository reads subscription lifecycle events from the document
// store.
//
// ListEvents returns events ordered ascending by timestamp. That ordering
// is a hard precondition of the per-user state machines in the metrics
// service, not a best-effort property; implementations must request it
// from the store and verify it on the way out.
type EventRepository interface {
	ListEvents(ctx context.Context, q EventQuery) ([]event.Event, error)
	CountEvents(ctx context.Context, start, end time.Time) (int64, error)
}

package docstore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/event"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/repository"
)

// EventRepository reads subscription lifecycle events out of the
// document store. It always requests ascending timestamp order and
// re-checks it after decoding: the per-user state machines downstream
// are only correct over an ordered stream, so an out-of-order response
// is an error, never something to paper over.
type EventRepository struct {
	client     *Client
	collection string
	logger     *zap.Logger
}

// NewEventRepository creates an event repository over the given
// collection.
func NewEventRepository(client *Client, collection string, logger *zap.Logger) *EventRepository {
	return &EventRepository{
		client:     client,
		collection: collection,
		logger:     logger,
	}
}

var _ repository.EventRepository = (*EventRepository)(nil)

// ListEvents returns the events in the query window, ascending by
// timestamp.
func (r *EventRepository) ListEvents(ctx context.Context, q repository.EventQuery) ([]event.Event, error) {
	records, err := r.client.RunQuery(ctx, Query{
		Collection: r.collection,
		Where:      timeFilters(q.Start, q.End),
		OrderBy:    []Order{{Field: "timestampMs", Direction: Ascending}},
		Select:     q.Fields,
	})
	if err != nil {
		return nil, err
	}

	events := make([]event.Event, len(records))
	for i, rec := range records {
		events[i] = event.FromRecord(rec)
	}

	for i := 1; i < len(events); i++ {
		if events[i].TimestampMs < events[i-1].TimestampMs {
			return nil, fmt.Errorf("event stream out of order at index %d (%d < %d)",
				i, events[i].TimestampMs, events[i-1].TimestampMs)
		}
	}

	return events, nil
}

// CountEvents returns the number of events in the window without
// transferring them.
func (r *EventRepository) CountEvents(ctx context.Context, start, end time.Time) (int64, error) {
	return r.client.RunAggregation(ctx, r.collection, timeFilters(start, end))
}

func timeFilters(start, end time.Time) []Filter {
	var where []Filter
	if !start.IsZero() {
		where = append(where, Filter{Field: "timestampMs", Op: OpGreaterThanOrEqual, Value: start.UnixMilli()})
	}
	if !end.IsZero() {
		where = append(where, Filter{Field: "timestampMs", Op: OpLessThanOrEqual, Value: end.UnixMilli()})
	}
	return where
}

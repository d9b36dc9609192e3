package metrics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/entity"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/event"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/repository"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/cache"
)

type stubEventRepo struct {
	events    []event.Event
	err       error
	listCalls int
	lastQuery repository.EventQuery
}

func (s *stubEventRepo) ListEvents(_ context.Context, q repository.EventQuery) ([]event.Event, error) {
	s.listCalls++
	s.lastQuery = q
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func (s *stubEventRepo) CountEvents(_ context.Context, _, _ time.Time) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return int64(len(s.events)), nil
}

type stubOverview struct {
	overview *entity.Overview
	err      error
	calls    int
}

func (s *stubOverview) FetchOverview(_ context.Context) (*entity.Overview, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.overview, nil
}

func newTestService(events *stubEventRepo, overview *stubOverview) *Service {
	if events == nil {
		events = &stubEventRepo{}
	}
	if overview == nil {
		overview = &stubOverview{overview: &entity.Overview{}}
	}
	return NewService(events, overview, cache.New(), zap.NewNop())
}

// ts builds a millisecond timestamp for a day in March 2024.
func ts(day, hour int) int64 {
	return time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC).UnixMilli()
}

func assertJSONKey(t *testing.T, v any, key string, want any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, want, m[key])
}

package metrics

import (
	"time"
)

// dayFormat is the calendar-day key used throughout the series types.
const dayFormat = "2006-01-02"

// FillDailyGaps densifies a sparse, date-ascending series into one point
// per calendar day between the first and last entries, inclusive. Days
// missing from the input are synthesized by carrying forward the last
// known point re-dated to the missing day — snapshot-style metrics like
// MRR keep their value on days with no events, they do not drop to zero.
//
// day extracts a point's day; carry re-dates a point to a given day.
// Inputs with fewer than two points are returned as-is. The input slice
// is never mutated, and the function is idempotent: filling a dense
// series returns an equal series.
func FillDailyGaps[T any](series []T, day func(T) time.Time, carry func(T, time.Time) T) []T {
	if len(series) < 2 {
		return series
	}

	first := truncateDay(day(series[0]))
	last := truncateDay(day(series[len(series)-1]))

	out := make([]T, 0, len(series))
	next := 0
	prev := series[0]
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if next < len(series) && truncateDay(day(series[next])).Equal(d) {
			prev = series[next]
			out = append(out, prev)
			next++
			continue
		}
		out = append(out, carry(prev, d))
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDay(s string) time.Time {
	t, err := time.Parse(dayFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromRecord(t *testing.T) {
	t.Run("decodes a full record", func(t *testing.T) {
		ev := FromRecord(map[string]any{
			"type":                     "INITIAL_PURCHASE",
			"timestampMs":              int64(1709290800000),
			"userId":                   "u1",
			"productId":                "premium_monthly",
			"priceInPurchasedCurrency": 9.99,
			"currency":                 "USD",
			"expirationAtMs":           int64(1711969200000),
			"isTrialPeriod":            true,
		})

		assert.Equal(t, Event{
			Type:           TypeInitialPurchase,
			TimestampMs:    1709290800000,
			UserID:         "u1",
			ProductID:      "premium_monthly",
			Price:          9.99,
			Currency:       "USD",
			ExpirationAtMs: 1711969200000,
			IsTrialPeriod:  true,
		}, ev)
	})

	t.Run("missing or mistyped fields default to zero values", func(t *testing.T) {
		ev := FromRecord(map[string]any{
			"type":                     "RENEWAL",
			"timestampMs":              "not a number",
			"priceInPurchasedCurrency": nil,
		})

		assert.Equal(t, TypeRenewal, ev.Type)
		assert.Zero(t, ev.TimestampMs)
		assert.Zero(t, ev.Price)
		assert.Empty(t, ev.UserID)
		assert.False(t, ev.IsTrialPeriod)
	})

	t.Run("accepts timestamps stored as datetimes or doubles", func(t *testing.T) {
		when := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)

		asTime := FromRecord(map[string]any{"timestampMs": when})
		assert.Equal(t, when.UnixMilli(), asTime.TimestampMs)

		asDouble := FromRecord(map[string]any{"timestampMs": float64(when.UnixMilli())})
		assert.Equal(t, when.UnixMilli(), asDouble.TimestampMs)
	})
}

func TestDay(t *testing.T) {
	ev := Event{TimestampMs: time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC).UnixMilli()}
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ev.Day())
}

func TestIsRevenue(t *testing.T) {
	assert.True(t, Event{Type: TypeInitialPurchase}.IsRevenue())
	assert.True(t, Event{Type: TypeRenewal}.IsRevenue())
	assert.True(t, Event{Type: TypeNonRenewingPurchase}.IsRevenue())
	assert.False(t, Event{Type: TypeCancellation}.IsRevenue())
	assert.False(t, Event{Type: TypeExpiration}.IsRevenue())
	assert.False(t, Event{Type: "BILLING_ISSUE"}.IsRevenue())
}

package event

import (
	"time"
)

// Type identifies a subscription lifecycle event emitted by the billing
// vendor. The set is extensible upstream; aggregators ignore types they
// do not recognize.
type Type string

const (
	TypeInitialPurchase     Type = "INITIAL_PURCHASE"
	TypeRenewal             Type = "RENEWAL"
	TypeCancellation        Type = "CANCELLATION"
	TypeExpiration          Type = "EXPIRATION"
	TypeNonRenewingPurchase Type = "NON_RENEWING_PURCHASE"
)

// Event is a subscription lifecycle event as stored in the document
// store. It is the sole input of the metric reconstructors besides the
// vendor overview snapshots.
//
// Events for the same UserID must be consumed in ascending TimestampMs
// order; the event repository requests and asserts that ordering.
type Event struct {
	Type           Type
	TimestampMs    int64
	UserID         string
	ProductID      string
	Price          float64
	Currency       string
	ExpirationAtMs int64
	IsTrialPeriod  bool
}

// Day returns the UTC calendar day the event falls on.
func (e Event) Day() time.Time {
	t := time.UnixMilli(e.TimestampMs).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsRevenue reports whether the event represents money changing hands.
func (e Event) IsRevenue() bool {
	switch e.Type {
	case TypeInitialPurchase, TypeRenewal, TypeNonRenewingPurchase:
		return true
	default:
		return false
	}
}

// FromRecord decodes a document-store record into an Event, defaulting
// missing or mistyped fields rather than failing: partial vendor data
// keeps flowing instead of breaking a whole series.
func FromRecord(r map[string]any) Event {
	return Event{
		Type:           Type(stringField(r, "type")),
		TimestampMs:    intField(r, "timestampMs"),
		UserID:         stringField(r, "userId"),
		ProductID:      stringField(r, "productId"),
		Price:          floatField(r, "priceInPurchasedCurrency"),
		Currency:       stringField(r, "currency"),
		ExpirationAtMs: intField(r, "expirationAtMs"),
		IsTrialPeriod:  boolField(r, "isTrialPeriod"),
	}
}

func stringField(r map[string]any, key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func intField(r map[string]any, key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case time.Time:
		return v.UnixMilli()
	default:
		return 0
	}
}

func floatField(r map[string]any, key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func boolField(r map[string]any, key string) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return false
}

package entity

import (
	"time"
)

// DailySnapshot is one row of persisted metric history, keyed by UTC
// calendar day. The worker upserts it once a day so trend charts reach
// further back than the vendor APIs expose live.
type DailySnapshot struct {
	Date                time.Time `json:"date"`
	MRR                 int64     `json:"mrr"`
	ActiveSubscriptions int64     `json:"activeSubscriptions"`
	Revenue28d          int64     `json:"revenueTrailing28d"`
	NewCustomers28d     int64     `json:"newCustomersTrailing28d"`
	ActiveTrials        int64     `json:"activeTrials"`
	EventCount          int64     `json:"eventCount"`
}

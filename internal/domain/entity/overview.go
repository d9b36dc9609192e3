package entity

// Overview is the billing vendor's current-state snapshot. The vendor
// exposes no history for these, so trend charts are reconstructed from
// the event stream and the daily snapshot table instead.
type Overview struct {
	MRR                 int64 `json:"mrr"`
	ActiveSubscriptions int64 `json:"activeSubscriptions"`
	Revenue28d          int64 `json:"revenueTrailing28d"`
	ActiveUsers28d      int64 `json:"activeUsersTrailing28d"`
	NewCustomers28d     int64 `json:"newCustomersTrailing28d"`
	ActiveTrials        int64 `json:"activeTrials"`
	Transactions28d     int64 `json:"transactionsTrailing28d"`
}

// CrashOverview is the crash-reporting vendor's current-state snapshot.
type CrashOverview struct {
	CrashFreeSessions float64 `json:"crashFreeSessions"`
	Events24h         int64   `json:"events24h"`
}

package valueobject

import (
	"strings"
)

// PlanType classifies a vendor product identifier into a billing plan
// category.
type PlanType string

const (
	PlanMonthly  PlanType = "monthly"
	PlanYearly   PlanType = "yearly"
	PlanLifetime PlanType = "lifetime"
	PlanTrial    PlanType = "trial"
	PlanWelcome  PlanType = "welcome"
	PlanUnknown  PlanType = "unknown"
)

// ClassifyProduct infers the plan type from a product identifier by
// case-insensitive substring match. The matching is intentionally tied
// to the billing vendor's product naming scheme ("app_monthly_799",
// "premium.yearly", ...); downstream plan breakdowns depend on it, so
// it must not be replaced by a stricter taxonomy.
func ClassifyProduct(productID string) PlanType {
	id := strings.ToLower(productID)
	switch {
	case strings.Contains(id, "lifetime"):
		return PlanLifetime
	case strings.Contains(id, "yearly"), strings.Contains(id, "annual"):
		return PlanYearly
	case strings.Contains(id, "monthly"):
		return PlanMonthly
	case strings.Contains(id, "trial"):
		return PlanTrial
	case strings.Contains(id, "welcome"):
		return PlanWelcome
	default:
		return PlanUnknown
	}
}

// String returns the string representation of the plan type
func (p PlanType) String() string {
	return string(p)
}

// CountsTowardMRR reports whether subscriptions on this plan contribute
// recurring revenue.
func (p PlanType) CountsTowardMRR() bool {
	return p == PlanMonthly || p == PlanYearly
}

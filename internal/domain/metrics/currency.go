package metrics

import (
	"math"
	"strings"

	"go.uber.org/zap"
)

// usdCentsPerUnit maps a currency code to how many USD cents one unit of
// that currency is worth. Static by design: the dashboard shows trends,
// not accounting-grade figures, and a live FX feed is explicitly out of
// scope. Rates are refreshed by hand when they drift too far.
var usdCentsPerUnit = map[string]float64{
	"USD": 100,
	"EUR": 110,
	"GBP": 127,
	"CAD": 74,
	"AUD": 66,
	"NZD": 61,
	"CHF": 113,
	"JPY": 0.67,
	"CNY": 14,
	"HKD": 12.8,
	"TWD": 3.1,
	"KRW": 0.075,
	"INR": 1.2,
	"IDR": 0.0064,
	"MYR": 21,
	"PHP": 1.8,
	"SGD": 74,
	"THB": 2.8,
	"VND": 0.004,
	"BRL": 18,
	"MXN": 5.9,
	"COP": 0.025,
	"CLP": 0.11,
	"PEN": 27,
	"ARS": 0.11,
	"RUB": 1.1,
	"TRY": 3.0,
	"PLN": 25,
	"CZK": 4.3,
	"HUF": 0.28,
	"RON": 22,
	"BGN": 56,
	"SEK": 9.5,
	"NOK": 9.4,
	"DKK": 14.7,
	"ILS": 27,
	"AED": 27,
	"SAR": 27,
	"QAR": 27,
	"EGP": 2.1,
	"ZAR": 5.4,
	"NGN": 0.065,
	"KES": 0.77,
	"UAH": 2.5,
}

// ToUSDCents converts an amount in the given currency to whole USD cents.
//
// Codes are free-form vendor strings, not validated ISO 4217; anything
// unknown falls back to a magnitude heuristic: amounts over 1000 are
// assumed to already be minor units scaled by 100, over 100 scaled by
// 10, otherwise whole major-currency units. Approximate on purpose —
// the unknown long tail is a rounding error of total revenue, and a
// warning is logged so new codes get added to the table.
func ToUSDCents(amount float64, code string, logger *zap.Logger) int64 {
	if rate, ok := usdCentsPerUnit[strings.ToUpper(code)]; ok {
		return int64(math.Round(amount * rate))
	}

	if logger != nil {
		logger.Warn("unknown currency, using magnitude heuristic",
			zap.String("currency", code),
			zap.Float64("amount", amount),
		)
	}

	switch {
	case amount > 1000:
		return int64(math.Round(amount * 0.01))
	case amount > 100:
		return int64(math.Round(amount * 0.1))
	default:
		return int64(math.Round(amount * 100))
	}
}

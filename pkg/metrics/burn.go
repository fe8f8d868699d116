// Package metrics computes burn, runway, and vendor-spike figures from
// in-memory transaction lists. All functions are pure.
package metrics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsight-hq/burnwatch/pkg/model"
)

// CalculateBurnRate aggregates outflow over [start, end) and normalizes it to
// a monthly-equivalent rate. Gross burn is total debit outflow; net burn is
// outflow minus credit inflow, so a cash-positive window yields a negative
// net burn. An empty window returns zero burn.
//
// Normalization uses fractional calendar months (see monthsBetween) rather
// than a fixed 30-day divisor, so a Feb 1 - Mar 1 window counts as exactly
// one month.
func CalculateBurnRate(txns []model.Transaction, start, end time.Time) model.BurnMetrics {
	months := monthsBetween(start, end)
	if months <= 0 {
		return model.BurnMetrics{GrossBurn: decimal.Zero, NetBurn: decimal.Zero}
	}

	gross := decimal.Zero
	inflow := decimal.Zero
	for _, t := range txns {
		if t.Date.Before(start) || !t.Date.Before(end) {
			continue
		}
		gross = gross.Add(t.Outflow())
		inflow = inflow.Add(t.Inflow())
	}

	scale := decimal.NewFromFloat(months)
	return model.BurnMetrics{
		GrossBurn: gross.Div(scale),
		NetBurn:   gross.Sub(inflow).Div(scale),
	}
}

// monthsBetween returns the span of [start, end) in fractional calendar
// months: whole months are stepped with AddDate, and the remainder scales by
// the length of the calendar month it falls in.
func monthsBetween(start, end time.Time) float64 {
	if !end.After(start) {
		return 0
	}

	whole := 0.0
	cursor := start
	for {
		next := cursor.AddDate(0, 1, 0)
		if next.After(end) {
			break
		}
		whole++
		cursor = next
	}

	remainingDays := end.Sub(cursor).Hours() / 24
	monthDays := cursor.AddDate(0, 1, 0).Sub(cursor).Hours() / 24
	return whole + remainingDays/monthDays
}

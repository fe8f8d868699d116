package metrics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsight-hq/burnwatch/pkg/model"
)

// CalculateRunway divides current cash by the monthly net burn. A zero or
// negative net burn (break-even or profitable) yields indefinite runway:
// Months is +Inf and ZeroDate nil. Months is never negative; negative cash
// clamps to zero runway with the zero date at now.
func CalculateRunway(burn model.BurnMetrics, currentCash decimal.Decimal, now time.Time) model.RunwayMetrics {
	if burn.NetBurn.LessThanOrEqual(decimal.Zero) {
		return model.RunwayMetrics{Months: math.Inf(1)}
	}

	months, _ := currentCash.Div(burn.NetBurn).Float64()
	if months < 0 {
		months = 0
	}

	zero := addMonths(now, months)
	return model.RunwayMetrics{Months: months, ZeroDate: &zero}
}

// addMonths advances t by a fractional number of calendar months: whole
// months via AddDate, the fraction scaled by the length of the month it
// lands in.
func addMonths(t time.Time, months float64) time.Time {
	whole := int(months)
	frac := months - float64(whole)

	base := t.AddDate(0, whole, 0)
	monthLen := base.AddDate(0, 1, 0).Sub(base)
	return base.Add(time.Duration(frac * float64(monthLen)))
}

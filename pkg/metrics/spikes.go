package metrics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsight-hq/burnwatch/pkg/model"
)

// DetectVendorSpikes compares per-vendor debit spend in the trailing period
// [end-period, end) against the prior period of equal length. Vendors whose
// current spend clears the materiality floor and whose percent change is at
// least minChangePct are returned sorted descending by change percent.
//
// A vendor with zero prior-period spend has an undefined percent change and
// is never divided by: it is flagged as a NewVendor instead (appended after
// the spikes, largest current spend first) when it clears the floor.
func DetectVendorSpikes(txns []model.Transaction, end time.Time, period time.Duration, minChangePct float64, floor decimal.Decimal) []model.VendorSpike {
	currentStart := end.Add(-period)
	prevStart := currentStart.Add(-period)

	type window struct {
		previous decimal.Decimal
		current  decimal.Decimal
	}
	byVendor := make(map[string]*window)

	for _, t := range txns {
		if t.Type != model.TxnDebit || t.Vendor == "" {
			continue
		}
		if t.Date.Before(prevStart) || !t.Date.Before(end) {
			continue
		}
		w := byVendor[t.Vendor]
		if w == nil {
			w = &window{previous: decimal.Zero, current: decimal.Zero}
			byVendor[t.Vendor] = w
		}
		if t.Date.Before(currentStart) {
			w.previous = w.previous.Add(t.Outflow())
		} else {
			w.current = w.current.Add(t.Outflow())
		}
	}

	var spikes, newVendors []model.VendorSpike
	for vendor, w := range byVendor {
		if w.current.LessThan(floor) {
			continue
		}
		if w.previous.IsZero() {
			newVendors = append(newVendors, model.VendorSpike{
				Vendor:    vendor,
				Previous:  decimal.Zero,
				Current:   w.current,
				NewVendor: true,
			})
			continue
		}

		change, _ := w.current.Sub(w.previous).Div(w.previous).Mul(decimal.NewFromInt(100)).Float64()
		if change < minChangePct {
			continue
		}
		spikes = append(spikes, model.VendorSpike{
			Vendor:        vendor,
			Previous:      w.previous,
			Current:       w.current,
			ChangePercent: change,
		})
	}

	sort.Slice(spikes, func(i, j int) bool {
		return spikes[i].ChangePercent > spikes[j].ChangePercent
	})
	sort.Slice(newVendors, func(i, j int) bool {
		return newVendors[i].Current.GreaterThan(newVendors[j].Current)
	})

	return append(spikes, newVendors...)
}

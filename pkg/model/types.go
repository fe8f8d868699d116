package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// TxnType distinguishes inflows from outflows.
type TxnType string

const (
	TxnDebit  TxnType = "debit"  // Cash out
	TxnCredit TxnType = "credit" // Cash in
)

// Transaction is a single bank transaction. Amount is signed: credits are
// positive, debits negative. Sources that store an unsigned amount plus a
// type should go through NormalizeAmount.
type Transaction struct {
	ID         string          `json:"id" db:"id"`
	OrgID      string          `json:"org_id" db:"org_id"`
	Date       time.Time       `json:"date" db:"date"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Type       TxnType         `json:"type" db:"type"`
	Vendor     string          `json:"vendor" db:"vendor"`
	CategoryID string          `json:"category_id,omitempty" db:"category_id"`
	Recurring  bool            `json:"recurring" db:"recurring"`
	Payroll    bool            `json:"payroll" db:"payroll"`
}

// NormalizeAmount converts an unsigned amount plus a transaction type into
// the signed convention (credit positive, debit negative).
func NormalizeAmount(amount decimal.Decimal, t TxnType) decimal.Decimal {
	abs := amount.Abs()
	if t == TxnDebit {
		return abs.Neg()
	}
	return abs
}

// Outflow returns the positive magnitude of a debit, or zero for a credit.
func (t Transaction) Outflow() decimal.Decimal {
	if t.Type == TxnDebit {
		return t.Amount.Abs()
	}
	return decimal.Zero
}

// Inflow returns the positive magnitude of a credit, or zero for a debit.
func (t Transaction) Inflow() decimal.Decimal {
	if t.Type == TxnCredit {
		return t.Amount.Abs()
	}
	return decimal.Zero
}

// BurnMetrics holds monthly-equivalent burn rates for a window.
type BurnMetrics struct {
	GrossBurn decimal.Decimal `json:"gross_burn"` // Outflow per month, >= 0
	NetBurn   decimal.Decimal `json:"net_burn"`   // Outflow minus inflow per month; negative means net growth
}

// RunwayMetrics describes how long current cash lasts at the current net
// burn. Months is +Inf (and ZeroDate nil) when net burn is zero or negative.
type RunwayMetrics struct {
	Months   float64    `json:"months"`
	ZeroDate *time.Time `json:"zero_date,omitempty"`
}

// Indefinite reports whether the runway never runs out.
func (r RunwayMetrics) Indefinite() bool {
	return math.IsInf(r.Months, 1)
}

// VendorSpike is a period-over-period spend comparison for one vendor.
// NewVendor marks a vendor with zero prior-period spend; ChangePercent is
// left at zero for those since the percent change is undefined.
type VendorSpike struct {
	Vendor        string          `json:"vendor"`
	Previous      decimal.Decimal `json:"previous"`
	Current       decimal.Decimal `json:"current"`
	ChangePercent float64         `json:"change_percent"`
	NewVendor     bool            `json:"new_vendor,omitempty"`
}

// Severity is the ordinal alert importance: info < warning < critical.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordinal position of a severity. Unknown severities rank
// below info so they never satisfy a minimum-severity gate.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityWarning:
		return 1
	case SeverityCritical:
		return 2
	default:
		return -1
	}
}

// AtLeast reports whether s is at or above min on the ordinal scale.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// AlertType identifies the condition that produced an alert.
type AlertType string

const (
	AlertRunwayCritical   AlertType = "runway_critical"
	AlertRunwayWarning    AlertType = "runway_warning"
	AlertVendorSpike      AlertType = "vendor_spike"
	AlertNewVendor        AlertType = "new_vendor"
	AlertBurnAcceleration AlertType = "burn_acceleration"
	AlertLargeTransaction AlertType = "large_transaction"
)

// ThresholdAlert is one finding from an evaluation pass. Alerts are built
// fresh on each pass and are immutable once constructed; persistence and
// deduplication belong to the caller.
type ThresholdAlert struct {
	Type     AlertType         `json:"type"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Severity Severity          `json:"severity"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

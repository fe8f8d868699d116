package threshold

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsight-hq/burnwatch/pkg/metrics"
	"github.com/finsight-hq/burnwatch/pkg/model"
)

// Vendor spike alert tiering. The configured VendorSpikePct controls what the
// detector considers material; only spikes at or above the reporting floor
// become alerts, warning-severity once the spend has doubled.
const (
	spikeReportPct  = 50
	spikeWarningPct = 100
	maxSpikeAlerts  = 3
)

// Burn acceleration above this percentage escalates from info to warning.
const accelWarningPct = 40

// Large transactions above this multiple of the threshold escalate to warning.
const largeTxnWarningMultiple = 5

// TransactionSource provides transactions for an organization in [start, end).
type TransactionSource interface {
	TransactionsInRange(ctx context.Context, orgID string, start, end time.Time) ([]model.Transaction, error)
}

// BalanceSource provides the summed balance of an organization's linked
// bank accounts.
type BalanceSource interface {
	TotalCash(ctx context.Context, orgID string) (decimal.Decimal, error)
}

// Evaluator runs threshold checks over an organization's recent transactions.
type Evaluator struct {
	cfg      Config
	txns     TransactionSource
	balances BalanceSource
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes an Evaluator.
type Option func(*Evaluator)

// WithClock overrides the evaluation clock.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// NewEvaluator creates an evaluator with the given threshold policy.
func NewEvaluator(cfg Config, txns TransactionSource, balances BalanceSource, logger *slog.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{
		cfg:      cfg,
		txns:     txns,
		balances: balances,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check evaluates all thresholds for one organization and returns at most
// cfg.MaxAlerts alerts, runway checks first. It never returns an error:
// fetch or computation failures are logged and degrade to whatever alerts
// were already collected, so a metrics failure cannot block the caller.
func (e *Evaluator) Check(ctx context.Context, orgID string) (alerts []model.ThresholdAlert) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("threshold evaluation panicked", "org", orgID, "panic", r)
			alerts = truncate(alerts, e.cfg.MaxAlerts)
		}
	}()

	now := e.now()

	txns, err := e.txns.TransactionsInRange(ctx, orgID, now.AddDate(0, -6, 0), now)
	if err != nil {
		e.logger.Error("fetch transactions", "org", orgID, "error", err)
		return nil
	}
	if len(txns) == 0 {
		// No data, no alerts.
		return nil
	}

	burn := metrics.CalculateBurnRate(txns, now.AddDate(0, -3, 0), now)

	if cash, err := e.balances.TotalCash(ctx, orgID); err != nil {
		e.logger.Error("fetch balances, skipping runway checks", "org", orgID, "error", err)
	} else {
		alerts = append(alerts, e.runwayAlerts(burn, cash, now)...)
	}

	alerts = append(alerts, e.vendorAlerts(txns, now)...)
	alerts = append(alerts, e.accelerationAlerts(txns, now)...)
	alerts = append(alerts, e.largeTransactionAlerts(txns, now)...)

	return truncate(alerts, e.cfg.MaxAlerts)
}

func (e *Evaluator) runwayAlerts(burn model.BurnMetrics, cash decimal.Decimal, now time.Time) []model.ThresholdAlert {
	runway := metrics.CalculateRunway(burn, cash, now)
	if runway.Indefinite() {
		return nil
	}

	meta := map[string]string{
		"runway_months": fmt.Sprintf("%.1f", runway.Months),
		"net_burn":      burn.NetBurn.StringFixed(2),
		"cash":          cash.StringFixed(2),
	}
	if runway.ZeroDate != nil {
		meta["zero_date"] = runway.ZeroDate.Format("2006-01-02")
	}

	switch {
	case runway.Months < e.cfg.RunwayCriticalMonths:
		return []model.ThresholdAlert{{
			Type:     model.AlertRunwayCritical,
			Title:    "Runway critically low",
			Message:  fmt.Sprintf("Runway is %.1f months at the current net burn of $%s/mo.", runway.Months, burn.NetBurn.StringFixed(0)),
			Severity: model.SeverityCritical,
			Metadata: meta,
		}}
	case runway.Months < e.cfg.RunwayWarningMonths:
		return []model.ThresholdAlert{{
			Type:     model.AlertRunwayWarning,
			Title:    "Runway below target",
			Message:  fmt.Sprintf("Runway is %.1f months at the current net burn of $%s/mo.", runway.Months, burn.NetBurn.StringFixed(0)),
			Severity: model.SeverityWarning,
			Metadata: meta,
		}}
	}
	return nil
}

func (e *Evaluator) vendorAlerts(txns []model.Transaction, now time.Time) []model.ThresholdAlert {
	spikes := metrics.DetectVendorSpikes(txns, now, 30*24*time.Hour, e.cfg.VendorSpikePct, decimal.NewFromFloat(e.cfg.VendorFloorUSD))

	var alerts []model.ThresholdAlert
	spikeCount := 0
	for _, s := range spikes {
		if s.NewVendor {
			alerts = append(alerts, model.ThresholdAlert{
				Type:     model.AlertNewVendor,
				Title:    fmt.Sprintf("New vendor: %s", s.Vendor),
				Message:  fmt.Sprintf("%s appeared this period with $%s in spend and no prior history.", s.Vendor, s.Current.StringFixed(2)),
				Severity: model.SeverityInfo,
				Metadata: map[string]string{
					"vendor":  s.Vendor,
					"current": s.Current.StringFixed(2),
				},
			})
			continue
		}

		if s.ChangePercent < spikeReportPct || spikeCount >= maxSpikeAlerts {
			continue
		}
		spikeCount++

		severity := model.SeverityInfo
		if s.ChangePercent >= spikeWarningPct {
			severity = model.SeverityWarning
		}
		alerts = append(alerts, model.ThresholdAlert{
			Type:     model.AlertVendorSpike,
			Title:    fmt.Sprintf("Spend spike: %s", s.Vendor),
			Message:  fmt.Sprintf("%s spend rose %.0f%% period over period ($%s → $%s).", s.Vendor, s.ChangePercent, s.Previous.StringFixed(2), s.Current.StringFixed(2)),
			Severity: severity,
			Metadata: map[string]string{
				"vendor":         s.Vendor,
				"previous":       s.Previous.StringFixed(2),
				"current":        s.Current.StringFixed(2),
				"change_percent": fmt.Sprintf("%.1f", s.ChangePercent),
			},
		})
	}
	return alerts
}

func (e *Evaluator) accelerationAlerts(txns []model.Transaction, now time.Time) []model.ThresholdAlert {
	const window = 30 * 24 * time.Hour

	current := sumOutflow(txns, now.Add(-window), now)
	previous := sumOutflow(txns, now.Add(-2*window), now.Add(-window))
	if previous.LessThanOrEqual(decimal.Zero) {
		// No prior burn, no meaningful percent change.
		return nil
	}

	change, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Float64()
	if change <= e.cfg.BurnAccelerationPct {
		return nil
	}

	severity := model.SeverityInfo
	if change > accelWarningPct {
		severity = model.SeverityWarning
	}
	return []model.ThresholdAlert{{
		Type:     model.AlertBurnAcceleration,
		Title:    "Burn accelerating",
		Message:  fmt.Sprintf("Gross burn rose %.0f%% month over month ($%s → $%s).", change, previous.StringFixed(0), current.StringFixed(0)),
		Severity: severity,
		Metadata: map[string]string{
			"previous":       previous.StringFixed(2),
			"current":        current.StringFixed(2),
			"change_percent": fmt.Sprintf("%.1f", change),
		},
	}}
}

func (e *Evaluator) largeTransactionAlerts(txns []model.Transaction, now time.Time) []model.ThresholdAlert {
	threshold := decimal.NewFromFloat(e.cfg.LargeTransactionUSD)
	warnAt := threshold.Mul(decimal.NewFromInt(largeTxnWarningMultiple))
	start := now.Add(-30 * 24 * time.Hour)

	var alerts []model.ThresholdAlert
	for _, t := range txns {
		if t.Type != model.TxnDebit || t.Date.Before(start) || !t.Date.Before(now) {
			continue
		}
		amount := t.Outflow()
		if amount.LessThanOrEqual(threshold) {
			continue
		}

		severity := model.SeverityInfo
		if amount.GreaterThan(warnAt) {
			severity = model.SeverityWarning
		}
		alerts = append(alerts, model.ThresholdAlert{
			Type:     model.AlertLargeTransaction,
			Title:    fmt.Sprintf("Large transaction: %s", t.Vendor),
			Message:  fmt.Sprintf("$%s paid to %s on %s.", amount.StringFixed(2), t.Vendor, t.Date.Format("Jan 2")),
			Severity: severity,
			Metadata: map[string]string{
				"transaction_id": t.ID,
				"vendor":         t.Vendor,
				"amount":         amount.StringFixed(2),
				"date":           t.Date.Format("2006-01-02"),
			},
		})
	}
	return alerts
}

func sumOutflow(txns []model.Transaction, start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if t.Date.Before(start) || !t.Date.Before(end) {
			continue
		}
		total = total.Add(t.Outflow())
	}
	return total
}

func truncate(alerts []model.ThresholdAlert, max int) []model.ThresholdAlert {
	if max > 0 && len(alerts) > max {
		return alerts[:max]
	}
	return alerts
}

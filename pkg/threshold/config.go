// Package threshold evaluates financial metrics against configurable
// thresholds and produces severity-tagged alerts.
package threshold

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the threshold policy for one evaluation pass. Zero values are
// not meaningful; start from Default or LoadFile.
type Config struct {
	// RunwayWarningMonths triggers a warning when finite runway drops below it.
	RunwayWarningMonths float64 `yaml:"runway_warning_months"`
	// RunwayCriticalMonths triggers a critical alert; it supersedes the warning.
	RunwayCriticalMonths float64 `yaml:"runway_critical_months"`
	// VendorSpikePct is the materiality cut for period-over-period vendor
	// spend changes fed into spike detection.
	VendorSpikePct float64 `yaml:"vendor_spike_pct"`
	// BurnAccelerationPct triggers an alert when month-over-month gross burn
	// grows by more than this percentage.
	BurnAccelerationPct float64 `yaml:"burn_acceleration_pct"`
	// LargeTransactionUSD flags individual debits above this amount.
	LargeTransactionUSD float64 `yaml:"large_transaction_usd"`
	// VendorFloorUSD excludes vendors with less current-period spend from
	// spike and new-vendor detection.
	VendorFloorUSD float64 `yaml:"vendor_floor_usd"`
	// MaxAlerts truncates the combined alert list per evaluation pass.
	MaxAlerts int `yaml:"max_alerts"`
}

// Default returns the documented default thresholds.
func Default() Config {
	return Config{
		RunwayWarningMonths:  6,
		RunwayCriticalMonths: 3,
		VendorSpikePct:       30,
		BurnAccelerationPct:  20,
		LargeTransactionUSD:  10000,
		VendorFloorUSD:       100,
		MaxAlerts:            5,
	}
}

// LoadFile reads a YAML threshold policy, overlaying it on the defaults so a
// partial file only overrides what it names.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read threshold policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse threshold policy: %w", err)
	}

	if cfg.MaxAlerts <= 0 {
		return cfg, fmt.Errorf("threshold policy: max_alerts must be positive, got %d", cfg.MaxAlerts)
	}
	if cfg.RunwayCriticalMonths > cfg.RunwayWarningMonths {
		return cfg, fmt.Errorf("threshold policy: runway_critical_months (%.1f) exceeds runway_warning_months (%.1f)",
			cfg.RunwayCriticalMonths, cfg.RunwayWarningMonths)
	}
	return cfg, nil
}

package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsight-hq/burnwatch/pkg/model"
	"github.com/finsight-hq/burnwatch/pkg/notify"
)

// Account is one linked bank account with its last known balance.
type Account struct {
	ID        string          `json:"id" db:"id"`
	OrgID     string          `json:"org_id" db:"org_id"`
	Name      string          `json:"name" db:"name"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// LoggedAlert is a dispatched alert recorded for history. The log is
// append-only; deduplication is left to callers.
type LoggedAlert struct {
	ID        string               `json:"id" db:"id"`
	OrgID     string               `json:"org_id" db:"org_id"`
	Alert     model.ThresholdAlert `json:"alert"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
}

// Storage defines the persistence layer for transactions, balances,
// notification preferences, and alert history.
type Storage interface {
	// AddTransactions persists a batch of transactions.
	AddTransactions(ctx context.Context, txns []model.Transaction) error

	// TransactionsInRange returns an organization's transactions with
	// dates in [start, end), newest first.
	TransactionsInRange(ctx context.Context, orgID string, start, end time.Time) ([]model.Transaction, error)

	// SetAccountBalance creates or updates a named account's balance.
	SetAccountBalance(ctx context.Context, orgID, name string, balance decimal.Decimal) error

	// ListAccounts returns an organization's linked accounts.
	ListAccounts(ctx context.Context, orgID string) ([]Account, error)

	// TotalCash sums all linked account balances for an organization.
	TotalCash(ctx context.Context, orgID string) (decimal.Decimal, error)

	// SavePreferences creates or replaces a user's notification preferences.
	SavePreferences(ctx context.Context, userID, orgID string, prefs notify.Preferences) error

	// GetPreferences retrieves a user's notification preferences.
	GetPreferences(ctx context.Context, userID string) (notify.Preferences, error)

	// LogAlert appends a dispatched alert to the history log.
	LogAlert(ctx context.Context, orgID string, alert model.ThresholdAlert) error

	// RecentAlerts returns the newest logged alerts, most recent first.
	RecentAlerts(ctx context.Context, orgID string, limit int) ([]LoggedAlert, error)

	// Close releases resources.
	Close() error
}

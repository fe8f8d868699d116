package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-hq/burnwatch/pkg/model"
	"github.com/finsight-hq/burnwatch/pkg/notify"
	"github.com/finsight-hq/burnwatch/pkg/storage"
)

func newStore(t *testing.T) *storage.SQLite {
	t.Helper()
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "burnwatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTransactionsRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	txns := []model.Transaction{
		{
			OrgID:      "org-1",
			Date:       time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
			Amount:     decimal.RequireFromString("1250.75"), // unsigned, normalized on insert
			Type:       model.TxnDebit,
			Vendor:     "aws",
			CategoryID: "cloud",
			Recurring:  true,
		},
		{
			OrgID:  "org-1",
			Date:   time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC),
			Amount: decimal.RequireFromString("50000"),
			Type:   model.TxnCredit,
		},
		{
			OrgID:  "org-2",
			Date:   time.Date(2025, time.May, 11, 0, 0, 0, 0, time.UTC),
			Amount: decimal.RequireFromString("99"),
			Type:   model.TxnDebit,
			Vendor: "other-org",
		},
	}
	require.NoError(t, store.AddTransactions(ctx, txns))

	got, err := store.TransactionsInRange(ctx, "org-1",
		time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first, amounts signed and exact.
	assert.Equal(t, model.TxnCredit, got[0].Type)
	assert.Equal(t, "50000", got[0].Amount.String())
	assert.Equal(t, "aws", got[1].Vendor)
	assert.Equal(t, "-1250.75", got[1].Amount.String())
	assert.True(t, got[1].Recurring)
}

func TestTransactionsInRange_EndExclusive(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	boundary := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.AddTransactions(ctx, []model.Transaction{
		{OrgID: "org-1", Date: boundary, Amount: decimal.RequireFromString("10"), Type: model.TxnDebit},
	}))

	got, err := store.TransactionsInRange(ctx, "org-1", boundary.AddDate(0, -1, 0), boundary)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAccountBalances(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetAccountBalance(ctx, "org-1", "operating", decimal.RequireFromString("150000")))
	require.NoError(t, store.SetAccountBalance(ctx, "org-1", "savings", decimal.RequireFromString("60000")))
	require.NoError(t, store.SetAccountBalance(ctx, "org-2", "operating", decimal.RequireFromString("999")))

	total, err := store.TotalCash(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, "210000", total.String())

	// Upsert replaces the balance for an existing account.
	require.NoError(t, store.SetAccountBalance(ctx, "org-1", "operating", decimal.RequireFromString("100000")))
	total, err = store.TotalCash(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, "160000", total.String())

	accounts, err := store.ListAccounts(ctx, "org-1")
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestTotalCash_NoAccounts(t *testing.T) {
	store := newStore(t)
	total, err := store.TotalCash(context.Background(), "org-1")
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestPreferencesRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	start, end := 22, 7
	prefs := notify.Preferences{
		Channels: []notify.ChannelConfig{
			{Type: notify.ChannelEmail, Enabled: true, Destination: "founder@example.com"},
			{Type: notify.ChannelSlack, Enabled: true, Destination: "https://hooks.slack.com/x"},
			{Type: notify.ChannelSMS, Enabled: false, Destination: "+15550100"},
		},
		MinSeverity:     model.SeverityWarning,
		QuietHoursStart: &start,
		QuietHoursEnd:   &end,
		Timezone:        "America/New_York",
	}
	require.NoError(t, store.SavePreferences(ctx, "user-1", "org-1", prefs))

	got, err := store.GetPreferences(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, model.SeverityWarning, got.MinSeverity)
	assert.Equal(t, "America/New_York", got.Timezone)
	require.NotNil(t, got.QuietHoursStart)
	require.NotNil(t, got.QuietHoursEnd)
	assert.Equal(t, 22, *got.QuietHoursStart)
	assert.Equal(t, 7, *got.QuietHoursEnd)
	require.Len(t, got.Channels, 3)
	assert.Equal(t, "founder@example.com", got.Channels[0].Destination)
	assert.False(t, got.Channels[2].Enabled)
}

func TestGetPreferences_NotFound(t *testing.T) {
	store := newStore(t)
	_, err := store.GetPreferences(context.Background(), "ghost")
	assert.ErrorContains(t, err, "not found")
}

func TestAlertLog(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	alert := model.ThresholdAlert{
		Type:     model.AlertRunwayWarning,
		Title:    "Runway below target",
		Message:  "Runway is 5.1 months.",
		Severity: model.SeverityWarning,
		Metadata: map[string]string{"runway_months": "5.1"},
	}
	require.NoError(t, store.LogAlert(ctx, "org-1", alert))
	require.NoError(t, store.LogAlert(ctx, "org-2", alert))

	alerts, err := store.RecentAlerts(ctx, "org-1", 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertRunwayWarning, alerts[0].Alert.Type)
	assert.Equal(t, "5.1", alerts[0].Alert.Metadata["runway_months"])
	assert.NotEmpty(t, alerts[0].ID)
}

// Package storage persists transactions, account balances, notification
// preferences, and alert history in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finsight-hq/burnwatch/pkg/model"
	"github.com/finsight-hq/burnwatch/pkg/notify"

	_ "modernc.org/sqlite"
)

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) AddTransactions(ctx context.Context, txns []model.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (id, org_id, date, amount, type, vendor, category_id, recurring, payroll)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range txns {
		t := &txns[i]
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		t.Amount = model.NormalizeAmount(t.Amount, t.Type)

		if _, err := stmt.ExecContext(ctx,
			t.ID, t.OrgID, t.Date.UTC(), t.Amount.String(), t.Type,
			t.Vendor, t.CategoryID, t.Recurring, t.Payroll,
		); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLite) TransactionsInRange(ctx context.Context, orgID string, start, end time.Time) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, org_id, date, amount, type, vendor, category_id, recurring, payroll
		 FROM transactions
		 WHERE org_id = ? AND date >= ? AND date < ?
		 ORDER BY date DESC`,
		orgID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var amount string
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Date, &amount, &t.Type,
			&t.Vendor, &t.CategoryID, &t.Recurring, &t.Payroll); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (s *SQLite) SetAccountBalance(ctx context.Context, orgID, name string, balance decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, org_id, name, balance, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(org_id, name) DO UPDATE SET
		   balance = excluded.balance,
		   updated_at = excluded.updated_at`,
		uuid.New().String(), orgID, name, balance.String(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set account balance: %w", err)
	}
	return nil
}

func (s *SQLite) ListAccounts(ctx context.Context, orgID string) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, org_id, name, balance, updated_at FROM accounts WHERE org_id = ? ORDER BY name`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		var balance string
		if err := rows.Scan(&a.ID, &a.OrgID, &a.Name, &balance, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		if a.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("parse balance %q: %w", balance, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *SQLite) TotalCash(ctx context.Context, orgID string) (decimal.Decimal, error) {
	accounts, err := s.ListAccounts(ctx, orgID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total, nil
}

func (s *SQLite) SavePreferences(ctx context.Context, userID, orgID string, prefs notify.Preferences) error {
	channels := map[notify.Channel]notify.ChannelConfig{}
	for _, c := range prefs.Channels {
		channels[c.Type] = c
	}
	email := channels[notify.ChannelEmail]
	slack := channels[notify.ChannelSlack]
	sms := channels[notify.ChannelSMS]

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO notification_prefs
		 (user_id, org_id, email_enabled, email_to, slack_enabled, slack_webhook,
		  sms_enabled, sms_number, min_severity, quiet_start, quiet_end, timezone, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, orgID,
		email.Enabled, email.Destination,
		slack.Enabled, slack.Destination,
		sms.Enabled, sms.Destination,
		string(prefs.MinSeverity), prefs.QuietHoursStart, prefs.QuietHoursEnd,
		prefs.Timezone, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func (s *SQLite) GetPreferences(ctx context.Context, userID string) (notify.Preferences, error) {
	var (
		p                    notify.Preferences
		emailOn, slackOn     bool
		smsOn                bool
		emailTo, slackHook   string
		smsNumber, severity  string
		quietStart, quietEnd sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT email_enabled, email_to, slack_enabled, slack_webhook,
		        sms_enabled, sms_number, min_severity, quiet_start, quiet_end, timezone
		 FROM notification_prefs WHERE user_id = ?`, userID,
	).Scan(&emailOn, &emailTo, &slackOn, &slackHook, &smsOn, &smsNumber,
		&severity, &quietStart, &quietEnd, &p.Timezone)
	if err == sql.ErrNoRows {
		return p, fmt.Errorf("preferences for user %q not found", userID)
	}
	if err != nil {
		return p, fmt.Errorf("get preferences: %w", err)
	}

	p.Channels = []notify.ChannelConfig{
		{Type: notify.ChannelEmail, Enabled: emailOn, Destination: emailTo},
		{Type: notify.ChannelSlack, Enabled: slackOn, Destination: slackHook},
		{Type: notify.ChannelSMS, Enabled: smsOn, Destination: smsNumber},
	}
	p.MinSeverity = model.Severity(severity)
	if quietStart.Valid {
		v := int(quietStart.Int64)
		p.QuietHoursStart = &v
	}
	if quietEnd.Valid {
		v := int(quietEnd.Int64)
		p.QuietHoursEnd = &v
	}
	return p, nil
}

func (s *SQLite) LogAlert(ctx context.Context, orgID string, alert model.ThresholdAlert) error {
	meta := "{}"
	if len(alert.Metadata) > 0 {
		data, err := json.Marshal(alert.Metadata)
		if err != nil {
			return fmt.Errorf("marshal alert metadata: %w", err)
		}
		meta = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alert_log (id, org_id, type, severity, title, message, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), orgID, alert.Type, alert.Severity,
		alert.Title, alert.Message, meta, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("log alert: %w", err)
	}
	return nil
}

func (s *SQLite) RecentAlerts(ctx context.Context, orgID string, limit int) ([]LoggedAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, org_id, type, severity, title, message, metadata, created_at
		 FROM alert_log WHERE org_id = ?
		 ORDER BY created_at DESC LIMIT ?`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("query alert log: %w", err)
	}
	defer rows.Close()

	var alerts []LoggedAlert
	for rows.Next() {
		var la LoggedAlert
		var meta string
		if err := rows.Scan(&la.ID, &la.OrgID, &la.Alert.Type, &la.Alert.Severity,
			&la.Alert.Title, &la.Alert.Message, &meta, &la.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		if meta != "" && meta != "{}" {
			if err := json.Unmarshal([]byte(meta), &la.Alert.Metadata); err != nil {
				return nil, fmt.Errorf("parse alert metadata: %w", err)
			}
		}
		alerts = append(alerts, la)
	}
	return alerts, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

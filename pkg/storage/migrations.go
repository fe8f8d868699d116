package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: Initial schema. Money columns are TEXT holding decimal
	// strings so amounts round-trip without float drift.
	`CREATE TABLE IF NOT EXISTS transactions (
		id          TEXT PRIMARY KEY,
		org_id      TEXT NOT NULL,
		date        DATETIME NOT NULL,
		amount      TEXT NOT NULL,
		type        TEXT NOT NULL CHECK(type IN ('debit', 'credit')),
		vendor      TEXT NOT NULL DEFAULT '',
		category_id TEXT NOT NULL DEFAULT '',
		recurring   INTEGER NOT NULL DEFAULT 0,
		payroll     INTEGER NOT NULL DEFAULT 0,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_txn_org_date ON transactions(org_id, date);
	CREATE INDEX IF NOT EXISTS idx_txn_vendor ON transactions(vendor);

	CREATE TABLE IF NOT EXISTS accounts (
		id         TEXT PRIMARY KEY,
		org_id     TEXT NOT NULL,
		name       TEXT NOT NULL,
		balance    TEXT NOT NULL DEFAULT '0',
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(org_id, name)
	);

	CREATE TABLE IF NOT EXISTS notification_prefs (
		user_id       TEXT PRIMARY KEY,
		org_id        TEXT NOT NULL,
		email_enabled INTEGER NOT NULL DEFAULT 0,
		email_to      TEXT NOT NULL DEFAULT '',
		slack_enabled INTEGER NOT NULL DEFAULT 0,
		slack_webhook TEXT NOT NULL DEFAULT '',
		sms_enabled   INTEGER NOT NULL DEFAULT 0,
		sms_number    TEXT NOT NULL DEFAULT '',
		min_severity  TEXT NOT NULL DEFAULT 'info',
		quiet_start   INTEGER,
		quiet_end     INTEGER,
		timezone      TEXT NOT NULL DEFAULT '',
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS alert_log (
		id         TEXT PRIMARY KEY,
		org_id     TEXT NOT NULL,
		type       TEXT NOT NULL,
		severity   TEXT NOT NULL,
		title      TEXT NOT NULL,
		message    TEXT NOT NULL,
		metadata   TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_alert_org_created ON alert_log(org_id, created_at);

	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

// runMigrations applies pending schema migrations.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	for i := currentVersion; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("run migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}

	return nil
}

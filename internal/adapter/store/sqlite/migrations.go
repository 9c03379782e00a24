package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

const (
	// maxMigrationAttempts bounds how often a failing migration is retried
	// before startup is aborted.
	maxMigrationAttempts = 3
	migrationBackoffBase = 500 * time.Millisecond
)

// migration is a named, ordered schema change. Names must be unique and
// sort in application order.
type migration struct {
	name string
	stmt string
}

// migrations are applied in slice order inside individual transactions.
var migrations = []migration{
	{
		name: "0001_create_pull_requests",
		stmt: `
		CREATE TABLE IF NOT EXISTS pull_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			github_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL,
			repository TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			comment_id INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_pull_requests_github ON pull_requests(github_id);
		`,
	},
	{
		name: "0002_create_code_analyses",
		stmt: `
		CREATE TABLE IF NOT EXISTS code_analyses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pr_id INTEGER NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			score INTEGER NOT NULL,
			security_issues TEXT NOT NULL,
			performance_issues TEXT NOT NULL,
			maintainability_issues TEXT NOT NULL,
			summary TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (pr_id) REFERENCES pull_requests(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_code_analyses_pr ON code_analyses(pr_id);
		`,
	},
	{
		name: "0003_create_settings",
		stmt: `
		CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			github_token TEXT NOT NULL,
			webhook_secret TEXT NOT NULL,
			repositories TEXT NOT NULL DEFAULT '[]'
		);
		`,
	},
}

// applyMigrations brings the schema up to date. Each pending migration runs
// in its own transaction and is retried up to maxMigrationAttempts with
// backoff; the retry re-executes the migration statement itself, never the
// surrounding runner.
func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedMigrations(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.name] {
			continue
		}
		if err := applyWithRetry(db, m); err != nil {
			return err
		}
	}
	return nil
}

func appliedMigrations(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan migration name: %w", err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func applyWithRetry(db *sql.DB, m migration) error {
	var lastErr error
	for attempt := 1; attempt <= maxMigrationAttempts; attempt++ {
		if lastErr = applyOne(db, m); lastErr == nil {
			return nil
		}
		if attempt < maxMigrationAttempts {
			backoff := migrationBackoffBase * time.Duration(1<<(attempt-1))
			log.Printf("migration %s failed (attempt %d/%d), retrying in %s: %v",
				m.name, attempt, maxMigrationAttempts, backoff, lastErr)
			time.Sleep(backoff)
		}
	}
	return fmt.Errorf("migration %s failed after %d attempts: %w", m.name, maxMigrationAttempts, lastErr)
}

func applyOne(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if _, err := tx.Exec(m.stmt); err != nil {
		tx.Rollback()
		return fmt.Errorf("exec: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
		m.name, time.Now().Unix()); err != nil {
		tx.Rollback()
		return fmt.Errorf("record: %w", err)
	}

	return tx.Commit()
}

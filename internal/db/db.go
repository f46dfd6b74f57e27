package db

import (
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

// Connect opens the SQLite database at dbPath and verifies the schema.
func Connect(dbPath string) (*sqlx.DB, error) {
	pool, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := initializeSchema(pool); err != nil {
		return nil, err
	}
	slog.Info("DB connection initialized and schema verified.", "path", dbPath)
	return pool, nil
}

func initializeSchema(pool *sqlx.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			br INTEGER NOT NULL DEFAULT 0,
			blobcoins INTEGER NOT NULL DEFAULT 0,
			role INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			last_daily_usage TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sessionids (
			username TEXT NOT NULL,
			sessionid TEXT NOT NULL UNIQUE,
			expires TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS recent_promotions (
			user TEXT NOT NULL,
			new_tier TEXT NOT NULL,
			drop_promotion INTEGER NOT NULL DEFAULT 0,
			promoted_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS news (
			headline TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bans (
			username TEXT NOT NULL,
			reason TEXT,
			banned_at TEXT NOT NULL,
			expires TEXT,
			moderator TEXT
		)`,
	}

	for _, schema := range schemas {
		if _, err := pool.Exec(schema); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/blobs-io/blobs.live/internal/api/models"
)

// AccountRepository defines the interface for account data operations. The
// rating increment is the persistence half of the elimination payout and must
// never block a tick loop; callers invoke it fire-and-forget.
type AccountRepository interface {
	CreateAccount(ctx context.Context, username, passwordHash string) error
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	IncrementRating(ctx context.Context, username string, n int) error
	UpdateDailyBonus(ctx context.Context, username string, usedAt time.Time, coins int) error
	IsBanned(ctx context.Context, username string) (bool, error)
}

type sqliteAccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new SQLite-based AccountRepository.
func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &sqliteAccountRepository{db: db}
}

// CreateAccount inserts a new account with zeroed progress.
func (r *sqliteAccountRepository) CreateAccount(ctx context.Context, username, passwordHash string) error {
	query := `INSERT INTO accounts (username, password_hash, br, blobcoins, role, created_at) VALUES (?, ?, 0, 0, 0, ?)`
	_, err := r.db.ExecContext(ctx, query, username, passwordHash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByUsername retrieves an account by username. A missing account returns
// (nil, nil); that is not an application error.
func (r *sqliteAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	query := `SELECT username, password_hash, br, blobcoins, role, created_at, last_daily_usage FROM accounts WHERE username = ?`
	err := r.db.GetContext(ctx, &account, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by username: %w", err)
	}
	return &account, nil
}

// IncrementRating adds n to the account's persisted BR.
func (r *sqliteAccountRepository) IncrementRating(ctx context.Context, username string, n int) error {
	query := `UPDATE accounts SET br = br + ? WHERE username = ?`
	if _, err := r.db.ExecContext(ctx, query, n, username); err != nil {
		return fmt.Errorf("failed to increment rating: %w", err)
	}
	return nil
}

// UpdateDailyBonus records a daily-bonus claim and credits the coins.
func (r *sqliteAccountRepository) UpdateDailyBonus(ctx context.Context, username string, usedAt time.Time, coins int) error {
	query := `UPDATE accounts SET blobcoins = blobcoins + ?, last_daily_usage = ? WHERE username = ?`
	if _, err := r.db.ExecContext(ctx, query, coins, usedAt.UTC().Format(time.RFC3339), username); err != nil {
		return fmt.Errorf("failed to update daily bonus: %w", err)
	}
	return nil
}

// IsBanned reports whether the account has an unexpired ban.
func (r *sqliteAccountRepository) IsBanned(ctx context.Context, username string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM bans WHERE username = ? AND (expires IS NULL OR expires > ?)`
	err := r.db.GetContext(ctx, &count, query, username, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("failed to check ban status: %w", err)
	}
	return count > 0, nil
}

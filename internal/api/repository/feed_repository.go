package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/blobs-io/blobs.live/internal/api/models"
)

// FeedRepository defines the interface for the promotion and news feeds shown
// in the lobby.
type FeedRepository interface {
	RecordPromotion(ctx context.Context, user, newTier string, drop bool) error
	RecentPromotions(ctx context.Context, limit int) ([]models.Promotion, error)
	CreateNews(ctx context.Context, headline, content string) error
	ListNews(ctx context.Context, limit int) ([]models.News, error)
}

type sqliteFeedRepository struct {
	db *sqlx.DB
}

// NewFeedRepository creates a new SQLite-based FeedRepository.
func NewFeedRepository(db *sqlx.DB) FeedRepository {
	return &sqliteFeedRepository{db: db}
}

// RecordPromotion stores a tier change for the recent-promotions feed.
func (r *sqliteFeedRepository) RecordPromotion(ctx context.Context, user, newTier string, drop bool) error {
	query := `INSERT INTO recent_promotions (user, new_tier, drop_promotion, promoted_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, user, newTier, drop, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record promotion: %w", err)
	}
	return nil
}

// RecentPromotions returns the newest promotions, most recent first.
func (r *sqliteFeedRepository) RecentPromotions(ctx context.Context, limit int) ([]models.Promotion, error) {
	var promotions []models.Promotion
	query := `SELECT user, new_tier, drop_promotion, promoted_at FROM recent_promotions ORDER BY promoted_at DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &promotions, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent promotions: %w", err)
	}
	return promotions, nil
}

// CreateNews publishes a news item.
func (r *sqliteFeedRepository) CreateNews(ctx context.Context, headline, content string) error {
	query := `INSERT INTO news (headline, content, created_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, headline, content, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create news: %w", err)
	}
	return nil
}

// ListNews returns the newest news items, most recent first.
func (r *sqliteFeedRepository) ListNews(ctx context.Context, limit int) ([]models.News, error) {
	var news []models.News
	query := `SELECT headline, content, created_at FROM news ORDER BY created_at DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &news, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	return news, nil
}

package service

import (
	"context"

	"github.com/blobs-io/blobs.live/internal/api/models"
	"github.com/blobs-io/blobs.live/internal/api/repository"
)

const feedLimit = 10

// FeedService exposes the lobby feeds.
type FeedService interface {
	RecentPromotions(ctx context.Context) ([]models.Promotion, error)
	RecentNews(ctx context.Context) ([]models.News, error)
}

type feedService struct {
	feed repository.FeedRepository
}

// NewFeedService creates a new FeedService.
func NewFeedService(feed repository.FeedRepository) FeedService {
	return &feedService{feed: feed}
}

func (s *feedService) RecentPromotions(ctx context.Context) ([]models.Promotion, error) {
	return s.feed.RecentPromotions(ctx, feedLimit)
}

func (s *feedService) RecentNews(ctx context.Context) ([]models.News, error) {
	return s.feed.ListNews(ctx, feedLimit)
}

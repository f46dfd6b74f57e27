package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blobs-io/blobs.live/internal/api/response"
	"github.com/blobs-io/blobs.live/internal/api/service"
)

// FeedController serves the lobby feeds.
type FeedController struct {
	feedService service.FeedService
}

// NewFeedController creates a new FeedController.
func NewFeedController(feedService service.FeedService) *FeedController {
	return &FeedController{feedService: feedService}
}

// Promotions returns the recent-promotions feed.
func (fc *FeedController) Promotions(c *gin.Context) {
	promotions, err := fc.feedService.RecentPromotions(c.Request.Context())
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.SuccessResponse(c, gin.H{"promotions": promotions})
}

// News returns the recent news items.
func (fc *FeedController) News(c *gin.Context) {
	news, err := fc.feedService.RecentNews(c.Request.Context())
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.SuccessResponse(c, gin.H{"news": news})
}

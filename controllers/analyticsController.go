package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"civease-be/models"
)

type analyticsService interface {
	Summary(ctx context.Context) (models.AnalyticsSummary, error)
}

type AnalyticsController struct {
	analytics analyticsService
	log       zerolog.Logger
}

func NewAnalyticsController(analytics analyticsService, logger zerolog.Logger) *AnalyticsController {
	return &AnalyticsController{analytics: analytics, log: logger}
}

// GetIssueAnalytics recomputes the dashboard summary from the stored issues
// and users. The timeRange query parameter is accepted and ignored.
func (ac *AnalyticsController) GetIssueAnalytics(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	summary, err := ac.analytics.Summary(ctx)
	if err != nil {
		internalError(c, ac.log, err, "failed to compute analytics")
		return
	}

	c.JSON(http.StatusOK, summary)
}

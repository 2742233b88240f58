package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"civease-be/analytics"
	"civease-be/models"
	"civease-be/storage"
)

// AnalyticsService loads both collections and aggregates them on every call.
type AnalyticsService struct {
	collections  *storage.Collections
	placeholders analytics.PlaceholderMetrics
	now          func() time.Time
}

func NewAnalyticsService(collections *storage.Collections, placeholders analytics.PlaceholderMetrics) *AnalyticsService {
	return &AnalyticsService{
		collections:  collections,
		placeholders: placeholders,
		now:          time.Now,
	}
}

// Summary computes the analytics summary as of now.
func (s *AnalyticsService) Summary(ctx context.Context) (models.AnalyticsSummary, error) {
	var issues []models.Issue
	var users []models.User

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		issues, err = s.collections.Issues(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.collections.Users(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.AnalyticsSummary{}, err
	}

	return analytics.Aggregate(issues, users, s.now(), s.placeholders), nil
}

package storage

import (
	"context"
	"errors"
	"time"

	"civease-be/models"
)

// DemoUsers are the accounts the web client has always shipped with.
// Their passwords are plaintext on purpose; they predate hashing.
func DemoUsers(now time.Time) []models.User {
	created := models.NewTimestamp(now)
	return []models.User{
		{
			ID:         "1",
			Email:      "authority@example.com",
			Password:   "password",
			Name:       "John Doe",
			Role:       models.RoleAuthority,
			Department: "Public Works",
			CreatedAt:  created,
		},
		{
			ID:        "2",
			Email:     "citizen@example.com",
			Password:  "password",
			Name:      "Jane Smith",
			Role:      models.RoleCitizen,
			CreatedAt: created,
		},
	}
}

// DemoIssues is the single open report seeded alongside DemoUsers.
func DemoIssues(now time.Time) []models.Issue {
	created := models.NewTimestamp(now)
	return []models.Issue{
		{
			ID:          "1",
			Title:       "Pothole on Main Street",
			Description: "Large pothole causing traffic hazards",
			Category:    "infrastructure",
			Priority:    "high",
			Status:      models.Pending,
			CitizenID:   "2",
			Location:    models.Location{Address: "123 Main St"},
			CreatedAt:   created,
			UpdatedAt:   created,
		},
	}
}

// Seed writes the demo users, and the demo issue when there are no issues,
// if the users collection is empty. It reports whether anything was written.
// Collections that already hold data are only read.
func Seed(ctx context.Context, c *Collections, now time.Time) (bool, error) {
	users, err := c.Users(ctx)
	if err != nil || len(users) > 0 {
		return false, err
	}

	seeded := false
	err = c.UpdateUsers(ctx, func(users []models.User) ([]models.User, error) {
		if len(users) > 0 {
			return users, errSeedSkipped
		}
		seeded = true
		return DemoUsers(now), nil
	})
	if errors.Is(err, errSeedSkipped) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	issues, err := c.Issues(ctx)
	if err != nil || len(issues) > 0 {
		return seeded, err
	}
	err = c.UpdateIssues(ctx, func(issues []models.Issue) ([]models.Issue, error) {
		if len(issues) > 0 {
			return issues, errSeedSkipped
		}
		return DemoIssues(now), nil
	})
	if errors.Is(err, errSeedSkipped) {
		err = nil
	}
	return seeded, err
}

// errSeedSkipped aborts a seed write when another writer filled the
// collection first.
var errSeedSkipped = errors.New("collection already seeded")

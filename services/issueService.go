package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"civease-be/models"
	"civease-be/storage"
)

// fields of an issue that a partial update cannot change
var serverOwnedIssueFields = map[string]bool{
	"id":        true,
	"createdAt": true,
	"updatedAt": true,
}

// IssueService implements issue listing, creation, partial update and votes
// on top of the stored collections.
type IssueService struct {
	collections *storage.Collections
	now         func() time.Time
}

func NewIssueService(collections *storage.Collections) *IssueService {
	return &IssueService{collections: collections, now: time.Now}
}

// List returns the issues matching every set field of filter.
func (s *IssueService) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	issues, err := s.collections.Issues(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if filter.Match(issue) {
			matched = append(matched, issue)
		}
	}
	return matched, nil
}

// Get returns the issue with the given id or ErrIssueNotFound.
func (s *IssueService) Get(ctx context.Context, id string) (models.Issue, error) {
	issues, err := s.collections.Issues(ctx)
	if err != nil {
		return models.Issue{}, err
	}
	for _, issue := range issues {
		if issue.ID == id {
			return issue, nil
		}
	}
	return models.Issue{}, ErrIssueNotFound
}

// Create stores a new issue. The id, status and timestamps supplied by the
// caller are replaced: new issues are always pending.
func (s *IssueService) Create(ctx context.Context, issue models.Issue) (models.Issue, error) {
	now := models.NewTimestamp(s.now().UTC())

	issue.ID = uuid.NewString()
	issue.Status = models.Pending
	issue.CreatedAt = now
	issue.UpdatedAt = now
	issue.ResolvedAt = nil

	err := s.collections.UpdateIssues(ctx, func(issues []models.Issue) ([]models.Issue, error) {
		return append(issues, issue), nil
	})
	if err != nil {
		return models.Issue{}, err
	}
	return issue, nil
}

// Update merges patch into the issue with the given id. Keys present in
// patch overwrite the stored values; id and createdAt are kept and updatedAt
// is always advanced, even for an empty patch.
func (s *IssueService) Update(ctx context.Context, id string, patch map[string]json.RawMessage) (models.Issue, error) {
	now := models.NewTimestamp(s.now().UTC())

	var updated models.Issue
	err := s.collections.UpdateIssues(ctx, func(issues []models.Issue) ([]models.Issue, error) {
		for i, existing := range issues {
			if existing.ID != id {
				continue
			}

			merged, err := mergeIssue(existing, patch)
			if err != nil {
				return nil, err
			}
			if !merged.Status.Valid() {
				return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, merged.Status)
			}

			merged.ID = existing.ID
			merged.CreatedAt = existing.CreatedAt
			merged.UpdatedAt = now
			merged.NormalizeResolution(now)

			issues[i] = merged
			updated = merged
			return issues, nil
		}
		return nil, ErrIssueNotFound
	})
	if err != nil {
		return models.Issue{}, err
	}
	return updated, nil
}

func mergeIssue(existing models.Issue, patch map[string]json.RawMessage) (models.Issue, error) {
	raw, err := json.Marshal(existing)
	if err != nil {
		return models.Issue{}, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Issue{}, err
	}

	for key, value := range patch {
		if serverOwnedIssueFields[key] {
			continue
		}
		fields[key] = value
	}

	raw, err = json.Marshal(fields)
	if err != nil {
		return models.Issue{}, err
	}
	var merged models.Issue
	if err := json.Unmarshal(raw, &merged); err != nil {
		return models.Issue{}, fmt.Errorf("%w: %v", ErrInvalidIssue, err)
	}
	return merged, nil
}

// ToggleVote adds the user's vote on an issue, or removes it if present. It
// returns whether the user now has a vote and the issue's vote count.
func (s *IssueService) ToggleVote(ctx context.Context, issueID, userID string) (bool, int, error) {
	if _, err := s.Get(ctx, issueID); err != nil {
		return false, 0, err
	}

	var voted bool
	var count int
	err := s.collections.UpdateVotes(ctx, func(votes []models.Vote) ([]models.Vote, error) {
		kept := votes[:0]
		removed := false
		for _, vote := range votes {
			if vote.IssueID == issueID && vote.UserID == userID {
				removed = true
				continue
			}
			kept = append(kept, vote)
		}

		if !removed {
			kept = append(kept, models.Vote{
				ID:        uuid.NewString(),
				IssueID:   issueID,
				UserID:    userID,
				CreatedAt: models.NewTimestamp(s.now().UTC()),
			})
		}
		voted = !removed

		for _, vote := range kept {
			if vote.IssueID == issueID {
				count++
			}
		}
		return kept, nil
	})
	if err != nil {
		return false, 0, err
	}
	return voted, count, nil
}

// VoteCount returns how many votes an issue has and whether userID is among
// them. userID may be empty.
func (s *IssueService) VoteCount(ctx context.Context, issueID, userID string) (int, bool, error) {
	votes, err := s.collections.Votes(ctx)
	if err != nil {
		return 0, false, err
	}

	count, hasVoted := 0, false
	for _, vote := range votes {
		if vote.IssueID != issueID {
			continue
		}
		count++
		if userID != "" && vote.UserID == userID {
			hasVoted = true
		}
	}
	return count, hasVoted, nil
}

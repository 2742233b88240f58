package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"civease-be/middlewares"
	"civease-be/models"
	"civease-be/services"
)

type issueService interface {
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error)
	Get(ctx context.Context, id string) (models.Issue, error)
	Create(ctx context.Context, issue models.Issue) (models.Issue, error)
	Update(ctx context.Context, id string, patch map[string]json.RawMessage) (models.Issue, error)
	ToggleVote(ctx context.Context, issueID, userID string) (bool, int, error)
	VoteCount(ctx context.Context, issueID, userID string) (int, bool, error)
}

// IssueController serves the issue endpoints.
type IssueController struct {
	issues issueService
	log    zerolog.Logger
}

func NewIssueController(issues issueService, logger zerolog.Logger) *IssueController {
	return &IssueController{issues: issues, log: logger}
}

// GetAllIssues lists issues, filtered by citizenId, status and category.
func (ic *IssueController) GetAllIssues(c *gin.Context) {
	var query struct {
		CitizenID string `form:"citizenId"`
		Status    string `form:"status"`
		Category  string `form:"category"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issues, err := ic.issues.List(ctx, models.IssueFilter{
		CitizenID: query.CitizenID,
		Status:    query.Status,
		Category:  query.Category,
	})
	if err != nil {
		internalError(c, ic.log, err, "failed to list issues")
		return
	}

	c.JSON(http.StatusOK, issues)
}

// GetIssue returns a single issue.
func (ic *IssueController) GetIssue(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ic.issues.Get(ctx, c.Param("id"))
	if errors.Is(err, services.ErrIssueNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}
	if err != nil {
		internalError(c, ic.log, err, "failed to get issue")
		return
	}

	c.JSON(http.StatusOK, issue)
}

// CreateIssue stores a new pending issue from whatever fields the body
// carries; only malformed JSON is rejected. An authenticated caller becomes
// the reporting citizen unless the body names one.
func (ic *IssueController) CreateIssue(c *gin.Context) {
	var input struct {
		Title       string          `json:"title" binding:"max=200"`
		Description string          `json:"description" binding:"max=2000"`
		Category    string          `json:"category"`
		Priority    string          `json:"priority"`
		AssignedTo  string          `json:"assignedTo"`
		CitizenID   string          `json:"citizenId"`
		Location    models.Location `json:"location"`
		ImageURL    *string         `json:"imageUrl"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	citizenID := input.CitizenID
	if citizenID == "" {
		citizenID = c.GetString(middlewares.UserIDKey)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ic.issues.Create(ctx, models.Issue{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Priority:    input.Priority,
		AssignedTo:  input.AssignedTo,
		CitizenID:   citizenID,
		Location:    input.Location,
		ImageURL:    input.ImageURL,
	})
	if err != nil {
		internalError(c, ic.log, err, "failed to create issue")
		return
	}

	ic.log.Info().Str("issue_id", issue.ID).Str("citizen_id", issue.CitizenID).Msg("issue created")
	c.JSON(http.StatusCreated, issue)
}

// UpdateIssue merges the fields present in the body into the stored issue.
func (ic *IssueController) UpdateIssue(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	patch := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ic.issues.Update(ctx, c.Param("id"), patch)
	switch {
	case errors.Is(err, services.ErrIssueNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	case errors.Is(err, services.ErrInvalidStatus), errors.Is(err, services.ErrInvalidIssue):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		internalError(c, ic.log, err, "failed to update issue")
		return
	}

	c.JSON(http.StatusOK, issue)
}

// HandleVoteOnIssue casts the caller's vote, or withdraws it if already cast.
func (ic *IssueController) HandleVoteOnIssue(c *gin.Context) {
	userID := c.GetString(middlewares.UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	voted, votes, err := ic.issues.ToggleVote(ctx, c.Param("id"), userID)
	if errors.Is(err, services.ErrIssueNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}
	if err != nil {
		internalError(c, ic.log, err, "failed to toggle vote")
		return
	}

	message := "Vote removed successfully"
	if voted {
		message = "Vote cast successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      message,
		"voted":        voted,
		"votes":        votes,
		"userHasVoted": voted,
	})
}

// GetIssueVotes reports an issue's vote count and, for an authenticated
// caller, whether they voted.
func (ic *IssueController) GetIssueVotes(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	issueID := c.Param("id")
	if _, err := ic.issues.Get(ctx, issueID); err != nil {
		if errors.Is(err, services.ErrIssueNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
			return
		}
		internalError(c, ic.log, err, "failed to get issue")
		return
	}

	votes, userHasVoted, err := ic.issues.VoteCount(ctx, issueID, c.GetString(middlewares.UserIDKey))
	if err != nil {
		internalError(c, ic.log, err, "failed to count votes")
		return
	}

	c.JSON(http.StatusOK, gin.H{"votes": votes, "userHasVoted": userHasVoted})
}

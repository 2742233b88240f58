package models

// Vote represents a user's upvote on an issue. At most one per (issue, user).
type Vote struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issueId"`
	UserID    string    `json:"userId"`
	CreatedAt Timestamp `json:"createdAt"`
}

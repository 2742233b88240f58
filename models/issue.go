package models

import (
	"bytes"
	"encoding/json"
)

// IssueStatus enum
type IssueStatus string

const (
	Pending    IssueStatus = "pending"
	InProgress IssueStatus = "in_progress"
	Resolved   IssueStatus = "resolved"
	Closed     IssueStatus = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s IssueStatus) Valid() bool {
	switch s {
	case Pending, InProgress, Resolved, Closed:
		return true
	}
	return false
}

// IsResolved reports whether s counts as resolved for reporting.
func (s IssueStatus) IsResolved() bool {
	return s == Resolved || s == Closed
}

// Location is where an issue was reported. Older records store the address
// as a bare string, which decodes into Address.
type Location struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = Location{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var address string
		if err := json.Unmarshal(data, &address); err != nil {
			return err
		}
		*l = Location{Address: address}
		return nil
	}

	type plain Location
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = Location(p)
	return nil
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Priority    string      `json:"priority"`
	Status      IssueStatus `json:"status"`
	AssignedTo  string      `json:"assignedTo,omitempty"`
	CitizenID   string      `json:"citizenId"`
	Location    Location    `json:"location"`
	ImageURL    *string     `json:"imageUrl,omitempty"`
	CreatedAt   Timestamp   `json:"createdAt"`
	UpdatedAt   Timestamp   `json:"updatedAt"`
	ResolvedAt  *Timestamp  `json:"resolvedAt,omitempty"`
}

// ResolutionTime returns when the issue was resolved, if it was and the
// timestamp is usable.
func (i Issue) ResolutionTime() (Timestamp, bool) {
	if !i.Status.IsResolved() || i.ResolvedAt == nil || !i.ResolvedAt.Valid() {
		return Timestamp{}, false
	}
	return *i.ResolvedAt, true
}

// NormalizeResolution keeps ResolvedAt consistent with Status: it is cleared
// for open issues and stamped with now for resolved issues that lack one.
func (i *Issue) NormalizeResolution(now Timestamp) {
	if !i.Status.IsResolved() {
		i.ResolvedAt = nil
		return
	}
	if i.ResolvedAt == nil || !i.ResolvedAt.Valid() {
		stamp := now
		i.ResolvedAt = &stamp
	}
}

// IssueFilter selects issues by exact match. Empty fields match everything.
type IssueFilter struct {
	CitizenID string
	Status    string
	Category  string
}

// Match reports whether the issue satisfies every set field of the filter.
func (f IssueFilter) Match(issue Issue) bool {
	if f.CitizenID != "" && issue.CitizenID != f.CitizenID {
		return false
	}
	if f.Status != "" && string(issue.Status) != f.Status {
		return false
	}
	if f.Category != "" && issue.Category != f.Category {
		return false
	}
	return true
}

package models

import "time"

// MonthlyTrend counts issues created in one calendar month.
type MonthlyTrend struct {
	Month    string `json:"month"`
	Year     int    `json:"year"`
	Issues   int    `json:"issues"`
	Resolved int    `json:"resolved"`
}

// DepartmentPerformance summarises the issues assigned to one department.
type DepartmentPerformance struct {
	Department       string  `json:"department"`
	TotalIssues      int     `json:"totalIssues"`
	IssuesResolved   int     `json:"issuesResolved"`
	AvgResponseTime  float64 `json:"avgResponseTime"`
	SatisfactionRate float64 `json:"satisfactionRate"`
}

// DailyResponseTime is the average response time for a weekday.
type DailyResponseTime struct {
	Day      string  `json:"day"`
	AvgHours float64 `json:"avgHours"`
}

// KeyInsights are short human-readable observations for the dashboard.
type KeyInsights struct {
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
}

// AnalyticsSummary is derived from the issue and user collections on every
// request and never stored. Fields listed in PlaceholderFields carry mock
// values, not measurements.
type AnalyticsSummary struct {
	TotalIssues           int                     `json:"totalIssues"`
	ResolvedIssues        int                     `json:"resolvedIssues"`
	PendingIssues         int                     `json:"pendingIssues"`
	AvgResolutionTime     float64                 `json:"avgResolutionTime"`
	SatisfactionRate      float64                 `json:"satisfactionRate"`
	IssuesByCategory      map[string]int          `json:"issuesByCategory"`
	IssuesByPriority      map[string]int          `json:"issuesByPriority"`
	MonthlyTrends         []MonthlyTrend          `json:"monthlyTrends"`
	DepartmentPerformance []DepartmentPerformance `json:"departmentPerformance"`
	DailyResponseTime     []DailyResponseTime     `json:"dailyResponseTime"`
	KeyInsights           KeyInsights             `json:"keyInsights"`
	PlaceholderFields     []string                `json:"placeholderFields"`
	GeneratedAt           time.Time               `json:"generatedAt"`
}

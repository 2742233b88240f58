// Package analytics derives the dashboard summary from the issue and user
// collections. Aggregate is pure: everything it cannot measure is delegated
// to a PlaceholderMetrics provider and labelled in the result.
package analytics

import (
	"time"

	"civease-be/models"
)

const (
	msPerDay    = 86_400_000.0
	trendMonths = 6
)

// Aggregate computes the analytics summary for the given collections as of now.
func Aggregate(issues []models.Issue, users []models.User, now time.Time, placeholders PlaceholderMetrics) models.AnalyticsSummary {
	if placeholders == nil {
		placeholders = NoPlaceholders{}
	}

	summary := models.AnalyticsSummary{
		TotalIssues:       len(issues),
		IssuesByCategory:  make(map[string]int),
		IssuesByPriority:  make(map[string]int),
		PlaceholderFields: placeholders.Fields(),
		GeneratedAt:       now,
	}
	if summary.PlaceholderFields == nil {
		summary.PlaceholderFields = []string{}
	}

	var totalResolutionMs float64
	var resolutionSamples int
	for _, issue := range issues {
		summary.IssuesByCategory[issue.Category]++
		summary.IssuesByPriority[issue.Priority]++

		if !issue.Status.IsResolved() {
			continue
		}
		summary.ResolvedIssues++

		resolvedAt, ok := issue.ResolutionTime()
		if !ok || !issue.CreatedAt.Valid() {
			continue
		}
		totalResolutionMs += float64(resolvedAt.Sub(issue.CreatedAt.Time).Milliseconds())
		resolutionSamples++
	}
	summary.PendingIssues = summary.TotalIssues - summary.ResolvedIssues

	if resolutionSamples > 0 {
		summary.AvgResolutionTime = totalResolutionMs / float64(resolutionSamples) / msPerDay
	}

	summary.MonthlyTrends = monthlyTrends(issues, now)
	summary.DepartmentPerformance = departmentPerformance(issues, users, placeholders)
	summary.SatisfactionRate = placeholders.SatisfactionRate()
	summary.DailyResponseTime = placeholders.DailyResponseTime()
	if summary.DailyResponseTime == nil {
		summary.DailyResponseTime = []models.DailyResponseTime{}
	}
	summary.KeyInsights = keyInsights(summary, issues)

	return summary
}

// monthlyTrends buckets issues into the six calendar months ending with the
// month of now, oldest first. Buckets compare month and year in now's
// location, so an issue created on the 31st lands in its own month.
func monthlyTrends(issues []models.Issue, now time.Time) []models.MonthlyTrend {
	loc := now.Location()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	trends := make([]models.MonthlyTrend, trendMonths)
	index := make(map[int]int, trendMonths)
	for i := 0; i < trendMonths; i++ {
		month := current.AddDate(0, i-(trendMonths-1), 0)
		trends[i] = models.MonthlyTrend{
			Month: month.Month().String()[:3],
			Year:  month.Year(),
		}
		index[monthKey(month)] = i
	}

	for _, issue := range issues {
		if !issue.CreatedAt.Valid() {
			continue
		}
		i, ok := index[monthKey(issue.CreatedAt.In(loc))]
		if !ok {
			continue
		}
		trends[i].Issues++
		if issue.Status.IsResolved() {
			trends[i].Resolved++
		}
	}
	return trends
}

func monthKey(t time.Time) int {
	return t.Year()*12 + int(t.Month())
}

// departmentPerformance groups issues by the department of the authority user
// they are assigned to. Departments appear in the order they are first seen
// among authority users.
func departmentPerformance(issues []models.Issue, users []models.User, placeholders PlaceholderMetrics) []models.DepartmentPerformance {
	var departments []string
	members := make(map[string]map[string]struct{})
	for _, user := range users {
		if user.Role != models.RoleAuthority || user.Department == "" {
			continue
		}
		if _, seen := members[user.Department]; !seen {
			departments = append(departments, user.Department)
			members[user.Department] = make(map[string]struct{})
		}
		members[user.Department][user.ID] = struct{}{}
	}

	result := make([]models.DepartmentPerformance, 0, len(departments))
	for _, department := range departments {
		perf := models.DepartmentPerformance{Department: department}
		for _, issue := range issues {
			if issue.AssignedTo == "" {
				continue
			}
			if _, ok := members[department][issue.AssignedTo]; !ok {
				continue
			}
			perf.TotalIssues++
			if issue.Status.IsResolved() {
				perf.IssuesResolved++
			}
		}
		perf.AvgResponseTime = placeholders.DepartmentResponseTime(department)
		perf.SatisfactionRate = placeholders.DepartmentSatisfaction(department)
		result = append(result, perf)
	}
	return result
}

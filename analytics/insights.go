package analytics

import (
	"fmt"
	"sort"

	"civease-be/models"
)

const slowResolutionDays = 7.0

func keyInsights(summary models.AnalyticsSummary, issues []models.Issue) models.KeyInsights {
	insights := models.KeyInsights{
		Strengths:           []string{},
		AreasForImprovement: []string{},
	}

	if summary.TotalIssues == 0 {
		insights.AreasForImprovement = append(insights.AreasForImprovement, "No issues have been reported yet.")
		return insights
	}

	rate := float64(summary.ResolvedIssues) / float64(summary.TotalIssues) * 100
	if rate >= 50 {
		insights.Strengths = append(insights.Strengths,
			fmt.Sprintf("%.0f%% of reported issues are resolved or closed.", rate))
	} else {
		insights.AreasForImprovement = append(insights.AreasForImprovement,
			fmt.Sprintf("Only %.0f%% of reported issues are resolved or closed.", rate))
	}

	switch {
	case summary.AvgResolutionTime > slowResolutionDays:
		insights.AreasForImprovement = append(insights.AreasForImprovement,
			fmt.Sprintf("Issues take %.1f days to resolve on average.", summary.AvgResolutionTime))
	case summary.AvgResolutionTime > 0:
		insights.Strengths = append(insights.Strengths,
			fmt.Sprintf("Issues are resolved in %.1f days on average.", summary.AvgResolutionTime))
	}

	if category, count := busiest(summary.IssuesByCategory); category != "" {
		insights.AreasForImprovement = append(insights.AreasForImprovement,
			fmt.Sprintf("Most reports concern %q (%d issues).", category, count))
	}

	unassigned := 0
	for _, issue := range issues {
		if !issue.Status.IsResolved() && issue.AssignedTo == "" {
			unassigned++
		}
	}
	if unassigned > 0 {
		insights.AreasForImprovement = append(insights.AreasForImprovement,
			fmt.Sprintf("%d open issues have no assignee.", unassigned))
	}

	for _, dept := range summary.DepartmentPerformance {
		switch {
		case dept.TotalIssues == 0:
		case dept.IssuesResolved == dept.TotalIssues:
			insights.Strengths = append(insights.Strengths,
				fmt.Sprintf("%s has resolved all %d assigned issues.", dept.Department, dept.TotalIssues))
		case dept.IssuesResolved == 0:
			insights.AreasForImprovement = append(insights.AreasForImprovement,
				fmt.Sprintf("%s has %d assigned issues and none resolved.", dept.Department, dept.TotalIssues))
		}
	}

	return insights
}

// busiest returns the key with the highest count, ties broken alphabetically.
func busiest(counts map[string]int) (string, int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestCount := "", 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best, bestCount
}

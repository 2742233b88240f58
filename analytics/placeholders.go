package analytics

import (
	"fmt"
	"math/rand"

	"civease-be/models"
)

// Names of summary fields that a placeholder provider fills in.
const (
	FieldSatisfactionRate           = "satisfactionRate"
	FieldDepartmentAvgResponseTime  = "departmentPerformance.avgResponseTime"
	FieldDepartmentSatisfactionRate = "departmentPerformance.satisfactionRate"
	FieldDailyResponseTime          = "dailyResponseTime"
)

var weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// PlaceholderMetrics supplies the summary values that the stored data cannot
// back yet: there is no feedback or response-time tracking. Fields lists the
// summary fields the provider fills, so clients can tell them apart from
// measured values.
type PlaceholderMetrics interface {
	SatisfactionRate() float64
	DepartmentResponseTime(department string) float64
	DepartmentSatisfaction(department string) float64
	DailyResponseTime() []models.DailyResponseTime
	Fields() []string
}

// RandomPlaceholders returns random values in plausible ranges for the
// dashboard demo: satisfaction 80–100%, department response 0–5 days and
// daily response 10–30 hours.
type RandomPlaceholders struct{}

func (RandomPlaceholders) SatisfactionRate() float64 {
	return 80 + rand.Float64()*20
}

func (RandomPlaceholders) DepartmentResponseTime(string) float64 {
	return rand.Float64() * 5
}

func (RandomPlaceholders) DepartmentSatisfaction(string) float64 {
	return 80 + rand.Float64()*20
}

func (RandomPlaceholders) DailyResponseTime() []models.DailyResponseTime {
	out := make([]models.DailyResponseTime, len(weekdays))
	for i, day := range weekdays {
		out[i] = models.DailyResponseTime{Day: day, AvgHours: 10 + rand.Float64()*20}
	}
	return out
}

func (RandomPlaceholders) Fields() []string {
	return []string{
		FieldSatisfactionRate,
		FieldDepartmentAvgResponseTime,
		FieldDepartmentSatisfactionRate,
		FieldDailyResponseTime,
	}
}

// NoPlaceholders leaves every unmeasurable field at zero.
type NoPlaceholders struct{}

func (NoPlaceholders) SatisfactionRate() float64                     { return 0 }
func (NoPlaceholders) DepartmentResponseTime(string) float64         { return 0 }
func (NoPlaceholders) DepartmentSatisfaction(string) float64         { return 0 }
func (NoPlaceholders) DailyResponseTime() []models.DailyResponseTime { return nil }
func (NoPlaceholders) Fields() []string                              { return nil }

// NewPlaceholders picks a provider by name: "random" (or empty) or "none".
func NewPlaceholders(mode string) (PlaceholderMetrics, error) {
	switch mode {
	case "", "random":
		return RandomPlaceholders{}, nil
	case "none":
		return NoPlaceholders{}, nil
	default:
		return nil, fmt.Errorf("unknown analytics placeholder mode %q", mode)
	}
}

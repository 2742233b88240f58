package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"civease-be/models"
)

type summarizer interface {
	Summary(ctx context.Context) (models.AnalyticsSummary, error)
}

// Digest periodically logs a summary of the issue backlog.
type Digest struct {
	log zerolog.Logger
	svc summarizer
	c   *cron.Cron
}

// NewDigest schedules the digest on spec, a standard five-field cron
// expression or a descriptor such as @weekly, evaluated in loc.
func NewDigest(spec string, loc *time.Location, log zerolog.Logger, svc summarizer) (*Digest, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)))
	d := &Digest{log: log, svc: svc, c: c}
	if _, err := c.AddFunc(spec, d.run); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	return d, nil
}

func (d *Digest) Start() { d.c.Start() }

// Stop halts the scheduler and waits for a running digest to finish.
func (d *Digest) Stop() { <-d.c.Stop().Done() }

func (d *Digest) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := d.Run(ctx); err != nil {
		d.log.Error().Err(err).Msg("cron: digest failed")
	}
}

// Run computes the summary once and logs it. Placeholder values are left
// out.
func (d *Digest) Run(ctx context.Context) error {
	summary, err := d.svc.Summary(ctx)
	if err != nil {
		return err
	}

	d.log.Info().
		Int("total", summary.TotalIssues).
		Int("resolved", summary.ResolvedIssues).
		Int("backlog", summary.PendingIssues).
		Float64("avg_resolution_days", summary.AvgResolutionTime).
		Interface("by_category", summary.IssuesByCategory).
		Msg("cron: weekly digest")

	for _, dept := range summary.DepartmentPerformance {
		d.log.Info().
			Str("department", dept.Department).
			Int("assigned", dept.TotalIssues).
			Int("resolved", dept.IssuesResolved).
			Int("open", dept.TotalIssues-dept.IssuesResolved).
			Msg("cron: department digest")
	}
	for _, area := range summary.KeyInsights.AreasForImprovement {
		d.log.Info().Str("area", area).Msg("cron: needs attention")
	}
	return nil
}

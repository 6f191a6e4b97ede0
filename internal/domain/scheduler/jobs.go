// Package scheduler runs the time-triggered batch jobs: the daily sweep of
// stale tickets and the monthly quota rollover.
package scheduler

import (
	"context"
	"time"

	"fueldesk/internal/core/clock"
	"fueldesk/internal/domain/quota"
	"fueldesk/internal/domain/ticket"
	"fueldesk/internal/observability/metrics"
	"fueldesk/pkg/logger"
)

// Job names, used for metrics and logs.
const (
	JobDailySweep      = "daily_sweep"
	JobMonthlyRollover = "monthly_rollover"
	JobRecover         = "recover"
)

// TicketSweeper expires stale tickets.
type TicketSweeper interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (ticket.ExpireResult, error)
}

// QuotaRoller closes past quota periods and opens the current one.
type QuotaRoller interface {
	RolloverMonth(ctx context.Context) (quota.RolloverResult, error)
}

// Jobs are the scheduler entry points. They are also exposed to admins for
// manual runs.
type Jobs struct {
	tickets TicketSweeper
	quota   QuotaRoller
	clock   clock.Clock
}

func NewJobs(tickets TicketSweeper, roller QuotaRoller, clk clock.Clock) *Jobs {
	return &Jobs{tickets: tickets, quota: roller, clock: clk}
}

// DailySweep expires active tickets created at or before cutoff. A nil cutoff
// means the end of yesterday.
func (j *Jobs) DailySweep(ctx context.Context, cutoff *time.Time) (ticket.ExpireResult, error) {
	at := clock.EndOfPreviousDay(j.clock.Now())
	if cutoff != nil {
		at = *cutoff
	}

	start := time.Now()
	res, err := j.tickets.ExpireStale(ctx, at)
	metrics.SchedulerRun(JobDailySweep, err, time.Since(start))
	if err != nil {
		logger.Error(ctx, "daily sweep failed", "cutoff", at, "error", err)
		return ticket.ExpireResult{}, err
	}
	return res, nil
}

// MonthlyRollover runs the quota rollover. Redundant runs are no-ops.
func (j *Jobs) MonthlyRollover(ctx context.Context) (quota.RolloverResult, error) {
	start := time.Now()
	res, err := j.quota.RolloverMonth(ctx)
	metrics.SchedulerRun(JobMonthlyRollover, err, time.Since(start))
	if err != nil {
		logger.Error(ctx, "monthly rollover failed", "error", err)
		return quota.RolloverResult{}, err
	}
	return res, nil
}

// RecoveryResult reports what a startup recovery caught up on.
type RecoveryResult struct {
	Rollover quota.RolloverResult `json:"rollover"`
	Sweep    ticket.ExpireResult  `json:"sweep"`
}

// Recover catches up on triggers missed while the process was down. Tickets
// from before today are expired while their periods are still open, then past
// periods are rolled over. Same-day tickets are never touched.
func (j *Jobs) Recover(ctx context.Context) (RecoveryResult, error) {
	start := time.Now()
	var (
		out RecoveryResult
		err error
	)
	defer func() { metrics.SchedulerRun(JobRecover, err, time.Since(start)) }()

	if out.Sweep, err = j.DailySweep(ctx, nil); err != nil {
		return out, err
	}
	if out.Rollover, err = j.MonthlyRollover(ctx); err != nil {
		return out, err
	}

	logger.Info(ctx, "scheduler recovery completed",
		"periods_closed", out.Rollover.Closed,
		"periods_created", out.Rollover.Created,
		"tickets_expired", out.Sweep.Expired,
	)
	return out, nil
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fueldesk/internal/core/clock"
	"fueldesk/pkg/logger"
)

// Config is the trigger schedule. Times are "15:04" in Location.
type Config struct {
	Location         *time.Location
	DailyAt          string
	MonthlyDay       int
	MonthlyAt        string
	RecoverOnStartup bool
}

// DefaultConfig sweeps shortly after midnight and rolls over on the 1st.
func DefaultConfig() Config {
	return Config{
		Location:         time.UTC,
		DailyAt:          "00:05",
		MonthlyDay:       1,
		MonthlyAt:        "00:10",
		RecoverOnStartup: true,
	}
}

// Validate parses the configured times.
func (c Config) Validate() error {
	if _, _, err := parseClock(c.DailyAt); err != nil {
		return fmt.Errorf("daily_at: %w", err)
	}
	if _, _, err := parseClock(c.MonthlyAt); err != nil {
		return fmt.Errorf("monthly_at: %w", err)
	}
	if c.MonthlyDay < 1 || c.MonthlyDay > 28 {
		return fmt.Errorf("monthly_day must be between 1 and 28, got %d", c.MonthlyDay)
	}
	return nil
}

func parseClock(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// NextDaily returns the first hh:mm strictly after now, in now's location.
func NextDaily(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NextMonthly returns the first day-of-month hh:mm strictly after now.
func NextMonthly(now time.Time, day, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), day, hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month()+1, day, hour, minute, 0, 0, now.Location())
	}
	return next
}

// Runner fires Jobs on their schedule until stopped.
type Runner struct {
	jobs  *Jobs
	clock clock.Clock
	cfg   Config
	log   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(jobs *Jobs, clk clock.Clock, cfg Config) (*Runner, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		jobs:  jobs,
		clock: clk,
		cfg:   cfg,
		log:   logger.Default().WithComponent("scheduler"),
	}, nil
}

func (r *Runner) now() time.Time {
	return r.clock.Now().In(r.cfg.Location)
}

// NextDaily returns the next daily sweep time.
func (r *Runner) NextDaily() time.Time {
	h, m, _ := parseClock(r.cfg.DailyAt)
	return NextDaily(r.now(), h, m)
}

// NextMonthly returns the next rollover time.
func (r *Runner) NextMonthly() time.Time {
	h, m, _ := parseClock(r.cfg.MonthlyAt)
	return NextMonthly(r.now(), r.cfg.MonthlyDay, h, m)
}

// Start runs recovery (when configured) and then the trigger loop in the
// background. Calling Start twice is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	go r.run(ctx)

	r.log.Infow("scheduler started",
		"timezone", r.cfg.Location.String(),
		"next_daily", r.NextDaily(),
		"next_monthly", r.NextMonthly(),
	)
}

// Stop cancels the loop and waits for a running job to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
	r.log.Infow("scheduler stopped")
}

func (r *Runner) run(ctx context.Context) {
	defer r.wg.Done()

	if r.cfg.RecoverOnStartup {
		if _, err := r.jobs.Recover(ctx); err != nil {
			r.log.Errorw("startup recovery failed", "error", err)
		}
	}

	for {
		daily, monthly := r.NextDaily(), r.NextMonthly()
		next := daily
		if monthly.Before(next) {
			next = monthly
		}

		timer := time.NewTimer(next.Sub(r.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		// Rollover runs before the sweep when both are due.
		if monthly.Equal(next) {
			r.fire(ctx, JobMonthlyRollover)
		}
		if daily.Equal(next) {
			r.fire(ctx, JobDailySweep)
		}
	}
}

// fire runs one job. Failures are logged; the next trigger catches up.
func (r *Runner) fire(ctx context.Context, job string) {
	var err error
	switch job {
	case JobMonthlyRollover:
		_, err = r.jobs.MonthlyRollover(ctx)
	default:
		_, err = r.jobs.DailySweep(ctx, nil)
	}
	if err != nil {
		r.log.Errorw("scheduled job failed", "job", job, "error", err)
	}
}

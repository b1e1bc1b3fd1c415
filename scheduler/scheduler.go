// Package scheduler runs the two recurring background jobs: cache refresh and
// alert evaluation.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"fujin.app/config"
)

// RefreshJob refreshes the snapshot cache for every tracked location
type RefreshJob interface {
	RefreshAll(ctx context.Context) error
}

// AlertJob evaluates every alert rule against the cached snapshots
type AlertJob interface {
	EvaluateAll(ctx context.Context) error
}

// Scheduler owns the two recurring jobs. The jobs may overlap each other but
// never themselves: singleton mode makes a tick that arrives while the
// previous run is still going get skipped instead of stacking.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresh   RefreshJob
	alerts    AlertJob
	cfg       config.SchedulerConfig
}

// New creates a scheduler for the refresh and alert jobs
func New(cfg config.SchedulerConfig, refresh RefreshJob, alerts AlertJob) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresh:   refresh,
		alerts:    alerts,
		cfg:       cfg,
	}
}

// Start registers both jobs and starts the scheduler asynchronously. The
// refresh job also runs once immediately so caches are warm before the first
// scheduled tick; the alert job waits for its first interval.
//
// Jobs carry no deadline of their own: a run that outlasts its interval is
// allowed to finish while singleton mode skips the ticks it overlaps. The
// per-call HTTP timeouts inside the providers bound how long any single step
// can block.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.cfg.RefreshInterval).
		SingletonMode().
		StartImmediately().
		Do(func() {
			if err := s.refresh.RefreshAll(context.Background()); err != nil {
				slog.Error("cache refresh job failed", "error", err)
			}
		})
	if err != nil {
		return err
	}

	_, err = s.scheduler.Every(s.cfg.AlertInterval).
		SingletonMode().
		WaitForSchedule().
		Do(func() {
			if err := s.alerts.EvaluateAll(context.Background()); err != nil {
				slog.Error("alert evaluation job failed", "error", err)
			}
		})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	slog.Info("scheduler started",
		"refresh_interval", s.cfg.RefreshInterval,
		"alert_interval", s.cfg.AlertInterval)
	return nil
}

// Stop halts the scheduler; a job mid-run is allowed to finish
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	slog.Info("scheduler stopped")
}

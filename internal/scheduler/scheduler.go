// Package scheduler drives the recurring background work: sensor sampling,
// fan re-checks, the nightly retention sweep and weather cache refreshes.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/Christian-SuMePa/hausserver/internal/config"
)

// jobTimeout bounds a single run of any scheduled job.
const jobTimeout = 2 * time.Minute

// Jobs carries the callbacks the scheduler drives. All four must be set.
type Jobs struct {
	Sample         func(ctx context.Context) error
	FanCheck       func(ctx context.Context) error
	RetentionSweep func(ctx context.Context) error
	WeatherRefresh func(ctx context.Context) error
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       config.Config
	jobs      Jobs
	logger    *slog.Logger
}

// New builds a scheduler whose day boundaries follow the configured timezone.
func New(cfg config.Config, jobs Jobs, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(cfg.Location),
		cfg:       cfg,
		jobs:      jobs,
		logger:    logger,
	}
}

// Start registers all jobs and launches the scheduler in the background.
// Sampling and the weather refresh fire once right away so the dashboard
// has data before the first interval elapses.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.cfg.SampleInterval).
		StartImmediately().
		SingletonMode().
		Tag("sample").
		Do(s.run("sample", s.jobs.Sample)); err != nil {
		return fmt.Errorf("scheduling sample job: %w", err)
	}

	if _, err := s.scheduler.Every(s.cfg.FanCheckInterval).
		SingletonMode().
		Tag("fan-check").
		Do(s.run("fan-check", s.jobs.FanCheck)); err != nil {
		return fmt.Errorf("scheduling fan check job: %w", err)
	}

	if _, err := s.scheduler.Every(1).Day().
		At(s.cfg.RetentionSweepAt).
		Tag("retention-sweep").
		Do(s.run("retention-sweep", s.jobs.RetentionSweep)); err != nil {
		return fmt.Errorf("scheduling retention sweep job: %w", err)
	}

	if _, err := s.scheduler.Every(s.cfg.WeatherCacheTTL).
		StartImmediately().
		SingletonMode().
		Tag("weather-refresh").
		Do(s.run("weather-refresh", s.jobs.WeatherRefresh)); err != nil {
		return fmt.Errorf("scheduling weather refresh job: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started",
		"jobs", len(s.scheduler.Jobs()),
		"sample_interval", s.cfg.SampleInterval,
		"retention_sweep_at", s.cfg.RetentionSweepAt,
	)
	return nil
}

// Stop waits for running jobs to finish and cancels all future runs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) run(name string, job func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Debug("scheduled job finished", "job", name, "duration_ms", time.Since(start).Milliseconds())
	}
}

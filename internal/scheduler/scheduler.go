package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Updater runs one update cycle over every registered entity.
type Updater interface {
	UpdateAll(ctx context.Context)
}

// Scheduler periodically polls ARSO for all registered entities.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	updater      Updater
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *slog.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, updater Updater, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	// A slow cycle must never overlap with the next one.
	s.SingletonModeAll()

	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler:    s,
		updater:      updater,
		interval:     interval,
		cycleTimeout: interval,
		logger:       logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first cycle runs immediately.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).StartImmediately().Do(s.runCycle)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) runCycle() {
	s.logger.Info("scheduler: running update cycle")
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.cycleTimeout)
	defer cancel()

	s.updater.UpdateAll(ctx)
	s.logger.Info("scheduler: completed update cycle", "duration", time.Since(start))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

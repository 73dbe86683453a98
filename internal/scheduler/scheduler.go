// Package scheduler drives the two periodic background jobs this control
// plane runs for itself: SSDP rescans to pick up players that missed
// startup discovery, and pruning of cached player state that's gone stale
// without an active UPnP subscription to refresh it.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler owns a cron runner driving the control plane's background
// maintenance jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *log.Logger
}

// New builds a Scheduler with second-level precision disabled, matching
// the teacher's use of robfig/cron's default (minute-level) parser for
// human-authored schedules; rescans and pruning here use @every instead.
func New(logger *log.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// ScheduleRescan registers a periodic SSDP rediscovery. interval is
// expressed as a Go duration and translated into cron's "@every" syntax.
func (s *Scheduler) ScheduleRescan(interval time.Duration, rescan func(ctx context.Context)) error {
	if interval <= 0 {
		s.logger.Print("scheduler: periodic rescan disabled")
		return nil
	}
	spec := "@every " + interval.String()
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		rescan(ctx)
	})
	return err
}

// SchedulePrune registers a periodic sweep of cached state for players
// whose last update is older than maxAge, typically because their
// subscription lapsed without renewal.
func (s *Scheduler) SchedulePrune(interval, maxAge time.Duration, prune func(maxAge time.Duration)) error {
	if interval <= 0 {
		return nil
	}
	spec := "@every " + interval.String()
	_, err := s.cron.AddFunc(spec, func() {
		prune(maxAge)
	})
	return err
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron runner, waiting for any in-flight job to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		s.logger.Print("scheduler: stop timed out waiting for jobs to finish")
	}
}

// Package scheduler runs the periodic background jobs: publishing due
// social posts and sweeping elapsed conversation pauses.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/convobase/convobase/pkg/eventbus"
	"github.com/convobase/convobase/pkg/messaging"
	"github.com/convobase/convobase/pkg/persistence"
	"github.com/convobase/convobase/pkg/services"
)

const (
	publishSchedule = "@every 1m"
	sweepSchedule   = "@every 5m"
)

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron        *cron.Cron
	persistence persistence.Persistence
	provider    messaging.Provider
	gate        *services.Gate
	eventBus    eventbus.EventBus
	logger      *slog.Logger
	now         func() time.Time
}

// NewScheduler creates a scheduler. eventBus may be nil when lifecycle
// events are not wanted.
func NewScheduler(
	p persistence.Persistence,
	provider messaging.Provider,
	gate *services.Gate,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		persistence: p,
		provider:    provider,
		gate:        gate,
		eventBus:    eventBus,
		logger:      logger.With("module", "scheduler"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the jobs and begins the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(publishSchedule, func() {
		s.PublishDuePosts(ctx)
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(sweepSchedule, func() {
		s.SweepPausedConversations(ctx)
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Scheduler started",
		"publish_schedule", publishSchedule,
		"sweep_schedule", sweepSchedule)

	return nil
}

// Stop halts the cron loop and waits for running jobs to finish or the
// context to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()

	select {
	case <-stopped.Done():
	case <-ctx.Done():
		s.logger.Warn("Shutdown deadline reached before jobs finished")
	}
}

package app

import (
	"context"
	"log/slog"
	"time"
)

// Syncer runs one sync.
type Syncer interface {
	Sync(ctx context.Context, trigger Trigger) (*SyncResult, error)
}

// SyncScheduler triggers a sync once after a startup delay and then on a
// fixed interval until its context is canceled.
type SyncScheduler struct {
	syncer       Syncer
	startupDelay time.Duration
	interval     time.Duration
	logger       *slog.Logger
}

// NewSyncScheduler creates a scheduler. A non-positive interval disables
// the recurring trigger; a negative startup delay disables the startup one.
func NewSyncScheduler(syncer Syncer, startupDelay, interval time.Duration, logger *slog.Logger) *SyncScheduler {
	if syncer == nil {
		panic("app: SyncScheduler requires a syncer")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SyncScheduler{
		syncer:       syncer,
		startupDelay: startupDelay,
		interval:     interval,
		logger:       logger.With(slog.String("component", "sync_scheduler")),
	}
}

// Run blocks until ctx is canceled. Sync errors are logged and the next
// tick retries.
func (s *SyncScheduler) Run(ctx context.Context) {
	var startup <-chan time.Time

	if s.startupDelay >= 0 {
		timer := time.NewTimer(s.startupDelay)
		defer timer.Stop()

		startup = timer.C
	}

	var tick <-chan time.Time

	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		tick = ticker.C
	}

	s.logger.InfoContext(ctx, "sync scheduler started",
		slog.Duration("startup_delay", s.startupDelay),
		slog.Duration("interval", s.interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sync scheduler stopped")
			return
		case <-startup:
			startup = nil
			s.run(ctx, TriggerStartup)
		case <-tick:
			s.run(ctx, TriggerInterval)
		}
	}
}

func (s *SyncScheduler) run(ctx context.Context, trigger Trigger) {
	result, err := s.syncer.Sync(ctx, trigger)
	if err != nil {
		// SyncService already logged the failure with its step.
		return
	}

	s.logger.DebugContext(ctx, "scheduled sync completed",
		slog.String("trigger", string(trigger)),
		slog.String("outcome", string(result.Outcome)),
	)
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/quotebook/internal/app/txn"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// Trigger names what started a sync.
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerStartup  Trigger = "startup"
	TriggerInterval Trigger = "interval"
	TriggerFocus    Trigger = "focus"
	TriggerResolve  Trigger = "resolve"
)

// SyncState is the coarse state of the sync service.
type SyncState string

const (
	SyncIdle     SyncState = "idle"
	SyncSyncing  SyncState = "syncing"
	SyncResolved SyncState = "resolved"
	SyncFailed   SyncState = "failed"
)

// Outcome describes what a sync did to the store.
type Outcome string

const (
	// OutcomeInSync means local and remote were identical.
	OutcomeInSync Outcome = "in_sync"

	// OutcomeResolved means differences were found and a policy applied.
	OutcomeResolved Outcome = "resolved"
)

// SyncResult describes one completed sync or resolution.
type SyncResult struct {
	Trigger  Trigger                 `json:"trigger"`
	Outcome  Outcome                 `json:"outcome"`
	Policy   domain.ResolutionPolicy `json:"policy,omitempty"`
	Diff     domain.DiffResult       `json:"diff"`
	Total    int                     `json:"total"`
	SyncedAt time.Time               `json:"syncedAt"`
}

// DiffCounts summarises a DiffResult.
type DiffCounts struct {
	Modified   int `json:"modified"`
	ServerOnly int `json:"serverOnly"`
	LocalOnly  int `json:"localOnly"`
}

// SyncStatus is a point-in-time view of the sync service.
type SyncStatus struct {
	// State is "syncing" while any run is in flight and "idle" otherwise.
	State         SyncState   `json:"state"`
	// LastOutcome is "resolved" or "failed" for the most recent completed
	// run, empty before the first one.
	LastOutcome   SyncState   `json:"lastOutcome,omitempty"`
	Source        string      `json:"source"`
	InFlight      int         `json:"inFlight"`
	Pending       bool        `json:"pending"`
	LastAttemptAt *time.Time  `json:"lastAttemptAt,omitempty"`
	LastSyncAt    *time.Time  `json:"lastSyncAt,omitempty"`
	LastError     string      `json:"lastError,omitempty"`
	LastDiff      *DiffCounts `json:"lastDiff,omitempty"`
}

// SyncService fetches the remote snapshot, diffs it against the store and
// resolves differences. Overlapping runs are not serialised: each run
// writes whole snapshots, so the last writer wins.
type SyncService struct {
	store   *QuoteStore
	remote  ports.RemoteQuoteSource
	durable ports.DurableStore
	source  string
	exec    *Executor
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time

	mu            sync.Mutex
	inFlight      int
	lastOutcome   SyncState
	lastAttemptAt time.Time
	lastError     string
	lastDiff      *DiffCounts

	// pending is the last fetched remote snapshot, kept until a manual
	// resolution consumes it or a newer sync replaces it.
	pending []domain.Quote
}

// SyncServiceConfig holds the sync dependencies.
type SyncServiceConfig struct {
	Store   *QuoteStore
	Remote  ports.RemoteQuoteSource
	Durable ports.DurableStore

	// SourceName labels the remote in status output.
	SourceName string

	Logger  *slog.Logger
	Metrics *Metrics
	Now     func() time.Time
}

// NewSyncService creates a sync service.
func NewSyncService(cfg SyncServiceConfig) *SyncService {
	switch {
	case cfg.Store == nil:
		panic("app: SyncService requires a quote store")
	case cfg.Remote == nil:
		panic("app: SyncService requires a remote quote source")
	case cfg.Durable == nil:
		panic("app: SyncService requires a durable store")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "sync"))

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &SyncService{
		store:   cfg.Store,
		remote:  cfg.Remote,
		durable: cfg.Durable,
		source:  cfg.SourceName,
		exec:    NewExecutor(logger),
		logger:  logger,
		metrics: cfg.Metrics,
		now:     now,
	}
}

type snapshots struct {
	local  []domain.Quote
	remote []domain.Quote
}

type syncPlan struct {
	snapshots
	diff domain.DiffResult
}

// Sync fetches the remote snapshot once and compares it with the store.
// Identical snapshots leave the store as is. Otherwise the remote policy
// applies automatically and the store becomes the remote snapshot.
// A failed fetch leaves the store unchanged and returns an error that
// satisfies domain.IsUnavailable.
func (s *SyncService) Sync(ctx context.Context, trigger Trigger) (*SyncResult, error) {
	start := s.begin()

	op := Operation[Trigger, snapshots, syncPlan, *SyncResult]{
		Name: "sync",
		Perform: func(ctx context.Context, _ Trigger) (snapshots, error) {
			return collectSnapshots(ctx,
				s.fetchRemote,
				func(context.Context) ([]domain.Quote, error) { return s.store.Snapshot(), nil },
			)
		},
		Verify: func(_ context.Context, _ Trigger, snaps snapshots) (syncPlan, error) {
			return syncPlan{snapshots: snaps, diff: domain.Diff(snaps.local, snaps.remote)}, nil
		},
		Archive: func(ctx context.Context, _ Trigger, plan syncPlan) error {
			s.setPending(plan.remote)

			u := txn.New(ctx)
			if plan.diff.HasConflicts() {
				if err := u.Stage(s.replaceAction(plan.local, plan.remote)); err != nil {
					return err
				}
			}

			if err := u.Stage(s.recordSyncAction(start)); err != nil {
				return err
			}

			return u.Commit(ctx)
		},
		Respond: func(_ context.Context, trigger Trigger, plan syncPlan) (*SyncResult, error) {
			result := &SyncResult{
				Trigger:  trigger,
				Outcome:  OutcomeInSync,
				Diff:     plan.diff,
				Total:    s.store.Len(),
				SyncedAt: start,
			}

			if plan.diff.HasConflicts() {
				result.Outcome = OutcomeResolved
				result.Policy = domain.PolicyRemote
			}

			return result, nil
		},
	}

	ctx = logging.With(ctx, slog.String("trigger", string(trigger)))
	result, err := Execute(ctx, s.exec, op, trigger)

	s.finish(ctx, trigger, start, result, err)

	return result, err
}

type resolveInput struct {
	policy domain.ResolutionPolicy
	unit   *txn.Unit
}

// Resolve applies policy to the pending remote snapshot, fetching a fresh
// one when none is cached:
//
//   - remote replaces the store with the remote snapshot
//   - local pushes the store to the remote and keeps it
//   - merge appends remote records whose text is not present locally
func (s *SyncService) Resolve(ctx context.Context, policy string) (*SyncResult, error) {
	parsed, err := domain.ParsePolicy(policy)
	if err != nil {
		return nil, err
	}

	start := s.begin()
	in := resolveInput{policy: parsed, unit: txn.New(ctx)}

	op := Operation[resolveInput, snapshots, syncPlan, *SyncResult]{
		Name: "resolve",
		Perform: func(_ context.Context, in resolveInput) (snapshots, error) {
			remote, err := txn.Fetch(in.unit, "remote", func(ctx context.Context) ([]domain.Quote, error) {
				if pending := s.takePending(); pending != nil {
					return pending, nil
				}

				return s.fetchRemote(ctx)
			})
			if err != nil {
				return snapshots{}, err
			}

			return snapshots{local: s.store.Snapshot(), remote: remote}, nil
		},
		Verify: func(_ context.Context, _ resolveInput, snaps snapshots) (syncPlan, error) {
			return syncPlan{snapshots: snaps, diff: domain.Diff(snaps.local, snaps.remote)}, nil
		},
		Archive: func(ctx context.Context, in resolveInput, plan syncPlan) error {
			var action txn.Action

			switch in.policy {
			case domain.PolicyRemote:
				action = s.replaceAction(plan.local, plan.remote)
			case domain.PolicyMerge:
				action = s.replaceAction(plan.local, domain.Merge(plan.local, plan.remote))
			case domain.PolicyLocal:
				local := plan.local
				action = txn.Func("push local quotes", func(ctx context.Context) error {
					return s.remote.Push(ctx, local)
				}, nil)
			}

			if err := in.unit.Stage(action); err != nil {
				return err
			}

			if err := in.unit.Stage(s.recordSyncAction(start)); err != nil {
				return err
			}

			if err := in.unit.Commit(ctx); err != nil {
				// The snapshot was not consumed; keep it for a retry.
				s.restorePending(plan.remote)
				return err
			}

			return nil
		},
		Respond: func(_ context.Context, in resolveInput, plan syncPlan) (*SyncResult, error) {
			return &SyncResult{
				Trigger:  TriggerResolve,
				Outcome:  OutcomeResolved,
				Policy:   in.policy,
				Diff:     plan.diff,
				Total:    s.store.Len(),
				SyncedAt: start,
			}, nil
		},
	}

	ctx = logging.With(ctx, slog.String("policy", string(parsed)))
	result, err := Execute(ctx, s.exec, op, in)

	s.finish(ctx, TriggerResolve, start, result, err)

	return result, err
}

// Status reports the current state. LastSyncAt comes from the durable
// store so it survives restarts.
func (s *SyncService) Status(ctx context.Context) (SyncStatus, error) {
	s.mu.Lock()

	status := SyncStatus{
		State:       SyncIdle,
		LastOutcome: s.lastOutcome,
		Source:      s.source,
		InFlight:    s.inFlight,
		Pending:     s.pending != nil,
		LastError:   s.lastError,
		LastDiff:    s.lastDiff,
	}

	if s.inFlight > 0 {
		status.State = SyncSyncing
	}

	if !s.lastAttemptAt.IsZero() {
		t := s.lastAttemptAt
		status.LastAttemptAt = &t
	}

	s.mu.Unlock()

	raw, err := s.durable.Get(ctx, ports.KeyLastSyncAt)

	switch {
	case domain.IsNotFound(err):
	case err != nil:
		return status, fmt.Errorf("reading last sync time: %w", err)
	default:
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			status.LastSyncAt = &t
		}
	}

	return status, nil
}

func (s *SyncService) fetchRemote(ctx context.Context) ([]domain.Quote, error) {
	quotes, err := s.remote.Fetch(ctx)
	if err != nil {
		if domain.IsUnavailable(err) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", domain.NewUnavailableError(s.sourceLabel(), "fetch failed"), err)
	}

	return quotes, nil
}

func (s *SyncService) sourceLabel() string {
	if s.source == "" {
		return "remote"
	}

	return s.source
}

// replaceAction swaps the store to next and restores previous on rollback.
func (s *SyncService) replaceAction(previous, next []domain.Quote) txn.Action {
	return txn.Func("replace quotes",
		func(ctx context.Context) error { return s.store.Replace(ctx, next) },
		func(ctx context.Context) error { return s.store.Replace(ctx, previous) },
	)
}

func (s *SyncService) recordSyncAction(at time.Time) txn.Action {
	return txn.Func("record last sync", func(ctx context.Context) error {
		return s.durable.Set(ctx, ports.KeyLastSyncAt, at.UTC().Format(time.RFC3339Nano))
	}, nil)
}

func (s *SyncService) begin() time.Time {
	now := s.now()

	s.mu.Lock()
	s.inFlight++
	s.lastAttemptAt = now
	s.mu.Unlock()

	return now
}

func (s *SyncService) finish(ctx context.Context, trigger Trigger, start time.Time, result *SyncResult, err error) {
	elapsed := s.now().Sub(start)

	var diff *domain.DiffResult
	if result != nil {
		diff = &result.Diff
	}

	s.mu.Lock()
	s.inFlight--

	if err != nil {
		s.lastOutcome = SyncFailed
		s.lastError = err.Error()
	} else {
		s.lastOutcome = SyncResolved
		s.lastError = ""
		s.lastDiff = &DiffCounts{
			Modified:   len(result.Diff.Modified),
			ServerOnly: len(result.Diff.ServerOnly),
			LocalOnly:  len(result.Diff.LocalOnly),
		}
	}
	s.mu.Unlock()

	s.metrics.synced(trigger, err, elapsed.Seconds(), diff)

	if err != nil {
		logging.FromContextOr(ctx, s.logger).WarnContext(ctx, "sync failed",
			slog.String("trigger", string(trigger)),
			slog.Any("error", err),
		)
	}
}

func (s *SyncService) setPending(remote []domain.Quote) {
	s.mu.Lock()
	s.pending = domain.CloneQuotes(remote)
	s.mu.Unlock()
}

func (s *SyncService) takePending() []domain.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pending
	s.pending = nil

	return p
}

// restorePending puts back a snapshot unless a newer sync already cached one.
func (s *SyncService) restorePending(remote []domain.Quote) {
	s.mu.Lock()
	if s.pending == nil {
		s.pending = remote
	}
	s.mu.Unlock()
}

package txn

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadyCommitted is returned when staging or committing after Commit.
var ErrAlreadyCommitted = errors.New("unit already committed")

// Action is a staged write.
type Action interface {
	Execute(ctx context.Context) error

	// Rollback undoes a successful Execute where possible.
	Rollback(ctx context.Context) error

	Description() string
}

// Unit memoizes reads and stages writes for one operation.
type Unit struct {
	ctx       context.Context
	cache     sync.Map
	mu        sync.Mutex
	actions   []Action
	committed bool
}

// New creates a unit bound to ctx. Fetch callbacks receive ctx.
func New(ctx context.Context) *Unit {
	return &Unit{ctx: ctx}
}

// GetOrFetch returns the cached value for key, calling fetch on a miss.
// Errors are not cached.
func (u *Unit) GetOrFetch(key string, fetch func(ctx context.Context) (any, error)) (any, error) {
	if cached, ok := u.cache.Load(key); ok {
		return cached, nil
	}

	value, err := fetch(u.ctx)
	if err != nil {
		return nil, err
	}

	actual, _ := u.cache.LoadOrStore(key, value)

	return actual, nil
}

// Fetch is the typed form of GetOrFetch.
func Fetch[T any](u *Unit, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := u.GetOrFetch(key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return v.(T), nil
}

// Stage appends an action to run on Commit.
func (u *Unit) Stage(action Action) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.committed {
		return ErrAlreadyCommitted
	}

	u.actions = append(u.actions, action)

	return nil
}

// Commit executes the staged actions in order. On failure the executed
// actions are rolled back in reverse and the returned error joins any
// rollback failures to the original one.
func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.committed {
		return ErrAlreadyCommitted
	}

	for i, action := range u.actions {
		if err := action.Execute(ctx); err != nil {
			errs := []error{fmt.Errorf("action %q failed: %w", action.Description(), err)}

			for j := i - 1; j >= 0; j-- {
				if rbErr := u.actions[j].Rollback(ctx); rbErr != nil {
					errs = append(errs, fmt.Errorf("rollback %q: %w", u.actions[j].Description(), rbErr))
				}
			}

			return errors.Join(errs...)
		}
	}

	u.committed = true

	return nil
}

// Actions returns a copy of the staged actions.
func (u *Unit) Actions() []Action {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]Action, len(u.actions))
	copy(out, u.actions)

	return out
}

type funcAction struct {
	desc     string
	execute  func(ctx context.Context) error
	rollback func(ctx context.Context) error
}

// Func builds an Action from closures. A nil rollback is a no-op.
func Func(desc string, execute, rollback func(ctx context.Context) error) Action {
	return &funcAction{desc: desc, execute: execute, rollback: rollback}
}

func (a *funcAction) Execute(ctx context.Context) error { return a.execute(ctx) }

func (a *funcAction) Rollback(ctx context.Context) error {
	if a.rollback == nil {
		return nil
	}

	return a.rollback(ctx)
}

func (a *funcAction) Description() string { return a.desc }

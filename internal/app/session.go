package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// SessionRecorder writes view metadata into a session's ephemeral store.
type SessionRecorder struct {
	store ports.EphemeralStore
	now   func() time.Time
}

// NewSessionRecorder creates a recorder. A nil now uses time.Now.
func NewSessionRecorder(store ports.EphemeralStore, now func() time.Time) *SessionRecorder {
	if store == nil {
		panic("app: SessionRecorder requires an ephemeral store")
	}

	if now == nil {
		now = time.Now
	}

	return &SessionRecorder{store: store, now: now}
}

// RecordView stores the rendering, the view time and the active filter.
// The session start time is written once and never overwritten.
func (r *SessionRecorder) RecordView(ctx context.Context, session string, view domain.Rendering, filter string) error {
	b, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encoding rendering: %w", err)
	}

	now := r.now().UTC().Format(time.RFC3339Nano)

	if err := r.ensureStarted(ctx, session, now); err != nil {
		return err
	}

	for _, kv := range [][2]string{
		{ports.KeyLastViewedQuote, string(b)},
		{ports.KeyLastViewedAt, now},
		{ports.KeyActiveFilter, filter},
	} {
		if err := r.store.Set(ctx, session, kv[0], kv[1]); err != nil {
			return fmt.Errorf("recording %s: %w", kv[0], err)
		}
	}

	return nil
}

// RecordFilter stores the active filter.
func (r *SessionRecorder) RecordFilter(ctx context.Context, session, filter string) error {
	if err := r.ensureStarted(ctx, session, r.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	if err := r.store.Set(ctx, session, ports.KeyActiveFilter, filter); err != nil {
		return fmt.Errorf("recording %s: %w", ports.KeyActiveFilter, err)
	}

	return nil
}

func (r *SessionRecorder) ensureStarted(ctx context.Context, session, now string) error {
	_, err := r.store.Get(ctx, session, ports.KeySessionStartedAt)
	if err == nil {
		return nil
	}

	if !domain.IsNotFound(err) {
		return fmt.Errorf("reading session start: %w", err)
	}

	if err := r.store.Set(ctx, session, ports.KeySessionStartedAt, now); err != nil {
		return fmt.Errorf("recording %s: %w", ports.KeySessionStartedAt, err)
	}

	return nil
}

// SessionInfo is everything recorded for one session. Zero values mean
// the corresponding key was never written.
type SessionInfo struct {
	ID           string
	StartedAt    time.Time
	LastViewedAt time.Time
	LastViewed   *domain.Rendering
	ActiveFilter string
}

// Session reads the recorded metadata. An unknown session yields an empty
// SessionInfo rather than an error.
func (r *SessionRecorder) Session(ctx context.Context, session string) (SessionInfo, error) {
	info := SessionInfo{ID: session}

	values := make(map[string]string, 4)

	for _, key := range []string{
		ports.KeySessionStartedAt,
		ports.KeyLastViewedAt,
		ports.KeyLastViewedQuote,
		ports.KeyActiveFilter,
	} {
		v, err := r.store.Get(ctx, session, key)
		if domain.IsNotFound(err) {
			continue
		}

		if err != nil {
			return info, fmt.Errorf("reading %s: %w", key, err)
		}

		values[key] = v
	}

	info.StartedAt = parseTime(values[ports.KeySessionStartedAt])
	info.LastViewedAt = parseTime(values[ports.KeyLastViewedAt])
	info.ActiveFilter = values[ports.KeyActiveFilter]

	if raw := values[ports.KeyLastViewedQuote]; raw != "" {
		var view domain.Rendering
		if err := json.Unmarshal([]byte(raw), &view); err == nil {
			info.LastViewed = &view
		}
	}

	return info, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}

	return t
}

// Summary renders info as one human-readable line relative to now, e.g.
// "session started 5 minutes ago, last quote viewed 10 seconds ago (filter: Life)".
func Summary(info SessionInfo, now time.Time) string {
	if info.StartedAt.IsZero() {
		return "new session, no quotes viewed yet"
	}

	var b strings.Builder

	b.WriteString("session started ")
	b.WriteString(humanize.RelTime(info.StartedAt, now, "ago", "from now"))

	if info.LastViewedAt.IsZero() {
		b.WriteString(", no quotes viewed yet")
	} else {
		b.WriteString(", last quote viewed ")
		b.WriteString(humanize.RelTime(info.LastViewedAt, now, "ago", "from now"))
	}

	if info.ActiveFilter != "" {
		fmt.Fprintf(&b, " (filter: %s)", info.ActiveFilter)
	}

	return b.String()
}

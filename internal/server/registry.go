package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/covergrid/docqa-console/pkg/metrics"
	"github.com/covergrid/docqa-console/pkg/resources"
	"github.com/covergrid/docqa-console/pkg/session"
	"github.com/covergrid/docqa-console/pkg/tokens"
)

// consoleSession is the per-browser-session stack: one credential namespace,
// one upstream client (wrapped by the sign-in state machine), one cache
// catalog.
type consoleSession struct {
	id      string
	creds   *tokens.Manager
	manager *session.Manager
	catalog *resources.Catalog

	createdAt    time.Time
	lastActiveAt time.Time
	expiresAt    time.Time
}

// sessionFactory builds the stack for a new console session ID.
type sessionFactory func(id string) (*consoleSession, error)

// Registry holds live console sessions keyed by the cookie value, with
// TTL-based expiry. Expired sessions are rebuilt from persisted tokens on
// the next request carrying their cookie, so a restart does not force a
// re-login.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*consoleSession
	ttl      time.Duration
	build    sessionFactory
	log      *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(ttl time.Duration, build sessionFactory, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*consoleSession),
		ttl:      ttl,
		build:    build,
		log:      log,
	}
}

// Create builds a session under a fresh ID.
func (r *Registry) Create() (*consoleSession, error) {
	return r.Resume(uuid.NewString())
}

// Resume returns the live session for id, rebuilding it from persisted state
// when the registry no longer holds it (expired, or the process restarted).
// Callers must only pass trusted ids: ones minted by Create or backed by
// stored credentials. An arbitrary id would allocate a full session stack.
func (r *Registry) Resume(id string) (*consoleSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cs, ok := r.sessions[id]; ok && time.Now().Before(cs.expiresAt) {
		r.touchLocked(cs)
		return cs, nil
	}

	cs, err := r.build(id)
	if err != nil {
		return nil, err
	}
	if old, ok := r.sessions[id]; ok {
		old.catalog.Close()
	}
	r.sessions[id] = cs
	metrics.ConsoleSessions.Set(float64(len(r.sessions)))
	return cs, nil
}

// Lookup returns the live session for id, or nil when none exists.
func (r *Registry) Lookup(id string) *consoleSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.sessions[id]
	if !ok || time.Now().After(cs.expiresAt) {
		return nil
	}
	r.touchLocked(cs)
	return cs
}

func (r *Registry) touchLocked(cs *consoleSession) {
	now := time.Now()
	cs.lastActiveAt = now
	cs.expiresAt = now.Add(r.ttl)
}

// Delete removes a session and stops its background polling.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cs, ok := r.sessions[id]; ok {
		cs.catalog.Close()
		delete(r.sessions, id)
		metrics.ConsoleSessions.Set(float64(len(r.sessions)))
	}
}

// Cleanup drops expired sessions.
func (r *Registry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, cs := range r.sessions {
		if now.After(cs.expiresAt) {
			cs.catalog.Close()
			delete(r.sessions, id)
		}
	}
	metrics.ConsoleSessions.Set(float64(len(r.sessions)))
}

// StartCleanupRoutine drops expired sessions at the given interval until
// Close is called.
func (r *Registry) StartCleanupRoutine(interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Cleanup()
			}
		}
	}()
}

// Close stops the cleanup goroutine and releases every session.
func (r *Registry) Close() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cs := range r.sessions {
		cs.catalog.Close()
		delete(r.sessions, id)
	}
	metrics.ConsoleSessions.Set(0)
}

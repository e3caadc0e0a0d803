// Package session implements the sign-in lifecycle of a console user.
//
// The lifecycle is a small state machine:
//
//	Anonymous -> TokenNoUser -> Authenticated
//
// with LoggedOut reachable from every state. A login only yields tokens;
// the session counts as authenticated solely once the profile fetch for
// that token succeeds. Authenticating on the token alone is deliberately
// avoided: it produced redirect loops in the system this replaces.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/covergrid/docqa-console/pkg/metrics"
	"github.com/covergrid/docqa-console/pkg/tokens"
	"github.com/covergrid/docqa-console/pkg/upstream"
)

// State is a position in the sign-in lifecycle.
type State int

// Lifecycle states.
const (
	StateAnonymous State = iota
	StateTokenNoUser
	StateAuthenticated
	StateLoggedOut
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateTokenNoUser:
		return "token_no_user"
	case StateAuthenticated:
		return "authenticated"
	case StateLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time view of the session.
type Snapshot struct {
	State State
	User  *upstream.User

	// IsAuthenticated is derived: it is true only when the state machine
	// reached Authenticated and a user profile is held.
	IsAuthenticated bool
}

// API is the subset of the upstream client the session drives.
type API interface {
	Login(ctx context.Context, username, password string) (upstream.TokenPair, error)
	Me(ctx context.Context) (upstream.User, error)
	Logout(ctx context.Context) error
}

// Manager owns one user's session state. It is safe for concurrent use.
type Manager struct {
	api   API
	creds *tokens.Manager
	log   *slog.Logger

	mu       sync.Mutex
	state    State
	user     *upstream.User
	inflight chan struct{} // non-nil while a profile fetch is running
	fetchErr error
}

// NewManager creates a session manager over the given client and credential
// store. The initial state is Anonymous; call Bootstrap to resume a session
// from persisted tokens.
func NewManager(api API, creds *tokens.Manager, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{api: api, creds: creds, log: log}
}

// Snapshot returns the current session view.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var user *upstream.User
	if m.user != nil {
		u := *m.user
		user = &u
	}
	return Snapshot{
		State:           m.state,
		User:            user,
		IsAuthenticated: m.state == StateAuthenticated && m.user != nil,
	}
}

// Login exchanges credentials for a token pair. On success both tokens are
// persisted and the state advances to TokenNoUser; the session is not
// authenticated until Bootstrap fetches the profile.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	if _, err := m.api.Login(ctx, username, password); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = StateTokenNoUser
	m.user = nil
	m.fetchErr = nil
	m.mu.Unlock()

	m.log.Info("login succeeded", "username", username)
	return nil
}

// Bootstrap advances the session to Authenticated when a token is present
// by fetching the user profile. It is idempotent and collapses concurrent
// calls onto a single in-flight fetch. A failed fetch clears the tokens and
// ends the session.
func (m *Manager) Bootstrap(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateAuthenticated && m.user != nil {
		m.mu.Unlock()
		return nil
	}
	if ch := m.inflight; ch != nil {
		m.mu.Unlock()
		return m.waitForFetch(ctx, ch)
	}
	ch := make(chan struct{})
	m.inflight = ch
	m.mu.Unlock()

	err := m.fetchProfile(ctx)

	m.mu.Lock()
	m.inflight = nil
	m.fetchErr = err
	m.mu.Unlock()
	close(ch)

	return err
}

// waitForFetch blocks until the in-flight profile fetch settles and reports
// its outcome.
func (m *Manager) waitForFetch(ctx context.Context, ch chan struct{}) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticated && m.user != nil {
		return nil
	}
	return m.fetchErr
}

// fetchProfile performs the single profile fetch and applies the resulting
// transition.
func (m *Manager) fetchProfile(ctx context.Context) error {
	pair, err := m.creds.Pair(ctx)
	if err != nil {
		return err
	}
	if pair.Access == "" {
		m.mu.Lock()
		if m.state != StateLoggedOut {
			m.state = StateAnonymous
		}
		m.user = nil
		m.mu.Unlock()
		return nil
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		metrics.ProfileFetches.WithLabelValues(metrics.OutcomeError).Inc()
		m.log.Warn("profile fetch failed, ending session", "error", err)
		if clearErr := m.creds.ClearPair(ctx); clearErr != nil {
			m.log.Error("clearing tokens after failed profile fetch", "error", clearErr)
		}
		m.mu.Lock()
		m.state = StateLoggedOut
		m.user = nil
		m.mu.Unlock()
		return err
	}

	metrics.ProfileFetches.WithLabelValues(metrics.OutcomeOK).Inc()
	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = &user
	m.mu.Unlock()

	m.log.Info("session authenticated", "username", user.Username, "role", user.Role)
	return nil
}

// Logout clears the persisted tokens and ends the session.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.api.Logout(ctx)

	m.mu.Lock()
	m.state = StateLoggedOut
	m.user = nil
	m.fetchErr = nil
	m.mu.Unlock()

	m.log.Info("logged out")
	return err
}

// Expire ends the session after an irrecoverable authorization failure.
// The upstream client has already cleared the stored tokens; this applies
// the state transition only. Wire it via upstream.Client.OnSessionExpired.
func (m *Manager) Expire() {
	m.mu.Lock()
	m.state = StateLoggedOut
	m.user = nil
	m.mu.Unlock()

	m.log.Warn("session expired")
}

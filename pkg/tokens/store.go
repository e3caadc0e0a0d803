// Package tokens persists the console's client state: the access/refresh
// token pair and the selected UI language, stored under fixed keys. It plays
// the role browser local storage plays for the web dashboard.
package tokens

import "context"

// Fixed storage keys. These match the keys the web dashboard uses in
// browser local storage.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUILanguage   = "ui_language"
)

// Store is a small key-value store for client state.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or "" when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases store resources.
	Close() error
}

// Pair is the access/refresh credential pair.
type Pair struct {
	Access  string
	Refresh string
}

// Manager provides typed access to one session's client state. Keys are
// namespaced so several sessions can share a Store.
type Manager struct {
	store Store
	ns    string
}

// NewManager wraps store. A non-empty namespace isolates this manager's keys
// from other sessions sharing the store.
func NewManager(store Store, namespace string) *Manager {
	return &Manager{store: store, ns: namespace}
}

func (m *Manager) key(k string) string {
	if m.ns == "" {
		return k
	}
	return m.ns + ":" + k
}

// Pair returns the stored token pair. Absent tokens are empty strings.
func (m *Manager) Pair(ctx context.Context) (Pair, error) {
	access, err := m.store.Get(ctx, m.key(KeyAccessToken))
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.store.Get(ctx, m.key(KeyRefreshToken))
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// SetPair stores both tokens.
func (m *Manager) SetPair(ctx context.Context, p Pair) error {
	if err := m.store.Set(ctx, m.key(KeyAccessToken), p.Access); err != nil {
		return err
	}
	return m.store.Set(ctx, m.key(KeyRefreshToken), p.Refresh)
}

// ClearPair removes both tokens.
func (m *Manager) ClearPair(ctx context.Context) error {
	if err := m.store.Delete(ctx, m.key(KeyAccessToken)); err != nil {
		return err
	}
	return m.store.Delete(ctx, m.key(KeyRefreshToken))
}

// Language returns the persisted UI language, or "" when unset.
func (m *Manager) Language(ctx context.Context) (string, error) {
	return m.store.Get(ctx, m.key(KeyUILanguage))
}

// SetLanguage persists the UI language preference.
func (m *Manager) SetLanguage(ctx context.Context, lang string) error {
	return m.store.Set(ctx, m.key(KeyUILanguage), lang)
}

// Tokens implements upstream.TokenSource.
func (m *Manager) Tokens(ctx context.Context) (string, string, error) {
	p, err := m.Pair(ctx)
	if err != nil {
		return "", "", err
	}
	return p.Access, p.Refresh, nil
}

// StorePair implements upstream.TokenSource.
func (m *Manager) StorePair(ctx context.Context, access, refresh string) error {
	return m.SetPair(ctx, Pair{Access: access, Refresh: refresh})
}

// StoreAccess implements upstream.TokenSource.
func (m *Manager) StoreAccess(ctx context.Context, access string) error {
	return m.store.Set(ctx, m.key(KeyAccessToken), access)
}

// ClearTokens implements upstream.TokenSource.
func (m *Manager) ClearTokens(ctx context.Context) error {
	return m.ClearPair(ctx)
}

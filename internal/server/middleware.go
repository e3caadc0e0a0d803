package server

import (
	"context"
	"net/http"

	"github.com/covergrid/docqa-console/pkg/guard"
	"github.com/covergrid/docqa-console/pkg/session"
	"github.com/covergrid/docqa-console/pkg/upstream"
)

// ctxKey is a private type for request context keys.
type ctxKey string

const sessionCtxKey ctxKey = "console_session"

// withConsoleSession resolves the session cookie into a live console
// session and, when tokens are present, runs the bootstrap effect so a
// resumed session re-authenticates before any guard decision.
func (s *Server) withConsoleSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.cfg.Session.CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		cs := s.registry.Lookup(cookie.Value)
		if cs == nil {
			// Rebuild only sessions that left credentials behind (the
			// registry was dropped by a restart or TTL cleanup). Cookie
			// values that never logged in stay anonymous; minting a
			// session stack per unknown value would let a client grow
			// the registry without bound.
			if !s.hasPersistedTokens(r.Context(), cookie.Value) {
				next.ServeHTTP(w, r)
				return
			}
			var err error
			cs, err = s.registry.Resume(cookie.Value)
			if err != nil {
				s.log.Error("resuming console session", "error", err)
				next.ServeHTTP(w, r)
				return
			}
		}

		// Bootstrap is idempotent and collapses concurrent calls; a fetch
		// failure surfaces through the snapshot as an unauthenticated
		// session, which the guards turn into a 401.
		_ = cs.manager.Bootstrap(r.Context())

		ctx := context.WithValue(r.Context(), sessionCtxKey, cs)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// consoleSessionFrom returns the request's console session, or nil.
func consoleSessionFrom(r *http.Request) *consoleSession {
	cs, _ := r.Context().Value(sessionCtxKey).(*consoleSession)
	return cs
}

// snapshotFrom resolves the session snapshot the guards consume.
func snapshotFrom(r *http.Request) session.Snapshot {
	if cs := consoleSessionFrom(r); cs != nil {
		return cs.manager.Snapshot()
	}
	return session.Snapshot{State: session.StateAnonymous}
}

// requireAuth admits any authenticated user.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return guard.RequireRoles(snapshotFrom)
}

// requireAdmin admits admins only.
func (s *Server) requireAdmin() func(http.Handler) http.Handler {
	return guard.RequireRoles(snapshotFrom, upstream.RoleAdmin)
}

// setSessionCookie writes the console session cookie.
func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the console session cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

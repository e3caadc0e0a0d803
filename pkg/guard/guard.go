// Package guard gates console routes on session state and role.
package guard

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/covergrid/docqa-console/pkg/session"
	"github.com/covergrid/docqa-console/pkg/upstream"
)

// Verdict is the outcome of a guard check.
type Verdict int

const (
	// Allow renders the guarded route.
	Allow Verdict = iota

	// RedirectEntry sends an unauthenticated visitor to the entry page.
	RedirectEntry

	// RedirectHome sends an authenticated visitor without the required
	// role back home.
	RedirectHome
)

// Check is the pure guard decision. An empty allowed list admits any
// authenticated user.
func Check(authenticated bool, role upstream.Role, allowed []upstream.Role) Verdict {
	if !authenticated {
		return RedirectEntry
	}
	if len(allowed) > 0 && !slices.Contains(allowed, role) {
		return RedirectHome
	}
	return Allow
}

// SessionFunc resolves the session snapshot for a request.
type SessionFunc func(r *http.Request) session.Snapshot

// Pages holds the redirect targets for page guards.
type Pages struct {
	Entry string // login page, for unauthenticated visitors
	Home  string // landing page, for role mismatches
}

// PageGuard returns middleware that redirects per the guard verdict. Use it
// on routes that render views.
func PageGuard(sess SessionFunc, pages Pages, allowed ...upstream.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := sess(r)
			var role upstream.Role
			if snap.User != nil {
				role = snap.User.Role
			}
			switch Check(snap.IsAuthenticated, role, allowed) {
			case RedirectEntry:
				http.Redirect(w, r, pages.Entry, http.StatusFound)
			case RedirectHome:
				http.Redirect(w, r, pages.Home, http.StatusFound)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireRoles returns middleware for JSON endpoints: 401 when the session
// is unauthenticated, 403 when the role is not allowed.
func RequireRoles(sess SessionFunc, allowed ...upstream.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := sess(r)
			var role upstream.Role
			if snap.User != nil {
				role = snap.User.Role
			}
			switch Check(snap.IsAuthenticated, role, allowed) {
			case RedirectEntry:
				writeError(w, http.StatusUnauthorized, "authentication required")
			case RedirectHome:
				writeError(w, http.StatusForbidden, "insufficient role")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

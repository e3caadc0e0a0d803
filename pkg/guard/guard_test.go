package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covergrid/docqa-console/pkg/session"
	"github.com/covergrid/docqa-console/pkg/upstream"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		role          upstream.Role
		allowed       []upstream.Role
		want          Verdict
	}{
		{"unauthenticated", false, "", nil, RedirectEntry},
		{"unauthenticated with role filter", false, upstream.RoleAdmin, []upstream.Role{upstream.RoleAdmin}, RedirectEntry},
		{"authenticated open route", true, upstream.RoleUser, nil, Allow},
		{"admin on admin route", true, upstream.RoleAdmin, []upstream.Role{upstream.RoleAdmin}, Allow},
		{"user on admin route", true, upstream.RoleUser, []upstream.Role{upstream.RoleAdmin}, RedirectHome},
		{"user on shared route", true, upstream.RoleUser, []upstream.Role{upstream.RoleAdmin, upstream.RoleUser}, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.authenticated, tt.role, tt.allowed))
		})
	}
}

func snapshotFunc(snap session.Snapshot) SessionFunc {
	return func(*http.Request) session.Snapshot { return snap }
}

func adminSnapshot() session.Snapshot {
	return session.Snapshot{
		State:           session.StateAuthenticated,
		User:            &upstream.User{ID: 1, Username: "alice", Role: upstream.RoleAdmin},
		IsAuthenticated: true,
	}
}

func userSnapshot() session.Snapshot {
	return session.Snapshot{
		State:           session.StateAuthenticated,
		User:            &upstream.User{ID: 2, Username: "bob", Role: upstream.RoleUser},
		IsAuthenticated: true,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("page"))
	})
}

func TestPageGuard_RedirectsAnonymousToEntry(t *testing.T) {
	pages := Pages{Entry: "/login", Home: "/"}
	h := PageGuard(snapshotFunc(session.Snapshot{}), pages, upstream.RoleAdmin)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestPageGuard_RedirectsWrongRoleHome(t *testing.T) {
	pages := Pages{Entry: "/login", Home: "/"}
	h := PageGuard(snapshotFunc(userSnapshot()), pages, upstream.RoleAdmin)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestPageGuard_AllowsMatchingRole(t *testing.T) {
	pages := Pages{Entry: "/login", Home: "/"}
	h := PageGuard(snapshotFunc(adminSnapshot()), pages, upstream.RoleAdmin)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "page", rec.Body.String())
}

func TestRequireRoles_Unauthenticated401(t *testing.T) {
	h := RequireRoles(snapshotFunc(session.Snapshot{}))(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication required")
}

func TestRequireRoles_WrongRole403(t *testing.T) {
	h := RequireRoles(snapshotFunc(userSnapshot()), upstream.RoleAdmin)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil))

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient role")
}

func TestRequireRoles_TokenWithoutProfileIsUnauthenticated(t *testing.T) {
	// A session holding tokens but no fetched profile must not pass the
	// guard; authentication requires a resolved user.
	snap := session.Snapshot{State: session.StateTokenNoUser}
	h := RequireRoles(snapshotFunc(snap))(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package server

import (
	"net/http"

	"github.com/covergrid/docqa-console/pkg/session"
	"github.com/covergrid/docqa-console/pkg/upstream"
)

// loginRequest is the console login body.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// sessionResponse is the session view returned to the frontend.
type sessionResponse struct {
	State           string         `json:"state"`
	IsAuthenticated bool           `json:"is_authenticated"`
	User            *upstream.User `json:"user,omitempty"`
}

func toSessionResponse(snap session.Snapshot) sessionResponse {
	return sessionResponse{
		State:           snap.State.String(),
		IsAuthenticated: snap.IsAuthenticated,
		User:            snap.User,
	}
}

// handleLogin signs the visitor in against the upstream platform and binds
// the resulting session to a cookie. The response carries the bootstrapped
// session: tokens alone never count as authenticated.
//
// @Summary      Sign in
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {string}  string  "invalid credentials"
// @Router       /auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	cs := consoleSessionFrom(r)
	if cs == nil {
		var err error
		cs, err = s.registry.Create()
		if err != nil {
			s.log.Error("creating console session", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	if err := cs.manager.Login(r.Context(), req.Username, req.Password); err != nil {
		writeUpstreamError(w, err)
		return
	}

	// The bootstrap effect: fetch the profile for the fresh token. Only
	// its success authenticates the session.
	if err := cs.manager.Bootstrap(r.Context()); err != nil {
		writeUpstreamError(w, err)
		return
	}

	s.setSessionCookie(w, cs.id)
	writeJSON(w, http.StatusOK, toSessionResponse(cs.manager.Snapshot()))
}

// handleLogout ends the session: tokens leave the store, the cookie is
// expired, and the registry entry is dropped.
//
// @Summary      Sign out
// @Tags         Auth
// @Success      204
// @Router       /auth/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cs := consoleSessionFrom(r); cs != nil {
		if err := cs.manager.Logout(r.Context()); err != nil {
			s.log.Error("logging out", "error", err)
		}
		s.registry.Delete(cs.id)
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the authenticated session view.
//
// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /me [get]
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSessionResponse(snapshotFrom(r)))
}

// languageResponse carries the persisted UI language preference.
type languageResponse struct {
	Language string `json:"language"`
}

func (s *Server) handleGetLanguage(w http.ResponseWriter, r *http.Request) {
	cs := consoleSessionFrom(r)
	lang, err := cs.creds.Language(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading preferences")
		return
	}
	writeJSON(w, http.StatusOK, languageResponse{Language: lang})
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageResponse
	if err := decodeBody(r, &req); err != nil || req.Language == "" {
		writeError(w, http.StatusBadRequest, "language is required")
		return
	}
	cs := consoleSessionFrom(r)
	if err := cs.creds.SetLanguage(r.Context(), req.Language); err != nil {
		writeError(w, http.StatusInternalServerError, "saving preferences")
		return
	}
	writeJSON(w, http.StatusOK, req)
}

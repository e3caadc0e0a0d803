package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/covergrid/docqa-console/pkg/upstream"
)

// companyID extracts the {companyID} route parameter.
func companyID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	return id, err == nil && id > 0
}

// handleListCompanies serves the cached company list. A fetch failure with
// cached data present still renders the stale list, flagged for the
// frontend's fallback panel.
//
// @Summary      List companies
// @Tags         Companies
// @Produce      json
// @Success      200  {array}  upstream.Company
// @Router       /companies [get]
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	cs := consoleSessionFrom(r)
	companies, err := cs.catalog.Companies.Get(r.Context())
	if err != nil {
		if companies == nil {
			writeUpstreamError(w, err)
			return
		}
		w.Header().Set("X-Cache-Stale", "true")
	}
	writeJSON(w, http.StatusOK, companies)
}

// handleCreateCompany creates a company upstream and invalidates the list.
//
// @Summary      Create company
// @Tags         Companies
// @Accept       json
// @Produce      json
// @Success      201  {object}  upstream.Company
// @Router       /companies [post]
func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var p upstream.CompanyParams
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cs := consoleSessionFrom(r)
	created, err := cs.catalog.CreateCompany(r.Context(), p)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	var p upstream.CompanyParams
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cs := consoleSessionFrom(r)
	updated, err := cs.catalog.UpdateCompany(r.Context(), id, p)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	cs := consoleSessionFrom(r)
	if err := cs.catalog.DeleteCompany(r.Context(), id); err != nil {
		writeUpstreamError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	cs := consoleSessionFrom(r)
	users, err := cs.catalog.AdminUsers.Get(r.Context())
	if err != nil {
		if users == nil {
			writeUpstreamError(w, err)
			return
		}
		w.Header().Set("X-Cache-Stale", "true")
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var p upstream.UserParams
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !p.Role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be admin or user")
		return
	}
	cs := consoleSessionFrom(r)
	created, err := cs.catalog.CreateUser(r.Context(), p)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	cs := consoleSessionFrom(r)
	if err := cs.catalog.DeleteUser(r.Context(), id); err != nil {
		writeUpstreamError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQALogs(w http.ResponseWriter, r *http.Request) {
	cs := consoleSessionFrom(r)
	logs, err := cs.catalog.QALogs.Get(r.Context())
	if err != nil {
		if logs == nil {
			writeUpstreamError(w, err)
			return
		}
		w.Header().Set("X-Cache-Stale", "true")
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleAgentsStatus(w http.ResponseWriter, r *http.Request) {
	cs := consoleSessionFrom(r)
	status, err := cs.catalog.AgentsStatus.Get(r.Context())
	if err != nil && status.Agents == nil {
		writeUpstreamError(w, err)
		return
	}
	if err != nil {
		w.Header().Set("X-Cache-Stale", "true")
	}
	writeJSON(w, http.StatusOK, status)
}

// handleSystemStatus serves the cached platform component report.
//
// @Summary      Platform component status
// @Tags         System
// @Produce      json
// @Success      200  {object}  upstream.SystemStatus
// @Router       /admin/system/status [get]
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cs := consoleSessionFrom(r)
	status, err := cs.catalog.SystemStatus.Get(r.Context())
	if err != nil && status.Status == "" {
		writeUpstreamError(w, err)
		return
	}
	if err != nil {
		w.Header().Set("X-Cache-Stale", "true")
	}
	writeJSON(w, http.StatusOK, status)
}

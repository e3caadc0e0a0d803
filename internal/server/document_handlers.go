package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Upload size cap. The platform rejects larger PDFs anyway; failing here
// avoids buffering them.
const maxUploadBytes = 50 << 20

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	cs := consoleSessionFrom(r)
	docs, err := cs.catalog.Documents.Get(r.Context(), strconv.FormatInt(id, 10))
	if err != nil {
		if docs == nil {
			writeUpstreamError(w, err)
			return
		}
		w.Header().Set("X-Cache-Stale", "true")
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleUploadDocument forwards a multipart PDF upload to the platform and
// invalidates the company's document and agent-status views.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	cs := consoleSessionFrom(r)
	doc, err := cs.catalog.UploadDocument(r.Context(), id, header.Filename, file)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	docID, err := strconv.ParseInt(chi.URLParam(r, "documentID"), 10, 64)
	if err != nil || docID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	cs := consoleSessionFrom(r)
	if err := cs.catalog.DeleteDocument(r.Context(), id, docID); err != nil {
		writeUpstreamError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// askRequest is the console question body.
type askRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// handleAsk submits a question against a company's documents.
//
// @Summary      Ask a question
// @Tags         QA
// @Accept       json
// @Produce      json
// @Success      200  {object}  upstream.Answer
// @Router       /companies/{id}/ask [post]
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	var req askRequest
	if err := decodeBody(r, &req); err != nil || req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	cs := consoleSessionFrom(r)
	answer, err := cs.catalog.Ask(r.Context(), id, req.Question, req.ConversationID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	cs := consoleSessionFrom(r)
	status, err := cs.catalog.AgentStatus.Get(r.Context(), strconv.FormatInt(id, 10))
	if err != nil && status.State == "" {
		writeUpstreamError(w, err)
		return
	}
	if err != nil {
		w.Header().Set("X-Cache-Stale", "true")
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleRebuildAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	cs := consoleSessionFrom(r)
	status, err := cs.catalog.RebuildAgent(r.Context(), id)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, status)
}

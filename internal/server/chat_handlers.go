package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// createConversationRequest starts a chat thread.
type createConversationRequest struct {
	Title     string `json:"title,omitempty"`
	CompanyID int64  `json:"company_id,omitempty"`
}

// sendMessageRequest posts a chat message.
type sendMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	cs := consoleSessionFrom(r)
	conversations, err := cs.catalog.Conversations.Get(r.Context())
	if err != nil {
		if conversations == nil {
			writeUpstreamError(w, err)
			return
		}
		w.Header().Set("X-Cache-Stale", "true")
	}
	writeJSON(w, http.StatusOK, conversations)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cs := consoleSessionFrom(r)
	conv, err := cs.catalog.CreateConversation(r.Context(), req.Title, req.CompanyID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	cs := consoleSessionFrom(r)
	conv, err := cs.catalog.Conversation(r.Context(), id)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	cs := consoleSessionFrom(r)
	if err := cs.catalog.DeleteConversation(r.Context(), id); err != nil {
		writeUpstreamError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	var req sendMessageRequest
	if err := decodeBody(r, &req); err != nil || req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	cs := consoleSessionFrom(r)
	msg, err := cs.catalog.SendMessage(r.Context(), id, req.Content)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

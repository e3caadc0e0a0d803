package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/covergrid/docqa-console/pkg/upstream"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeUpstreamError maps a classified upstream error onto the console's
// response. Errors never crash a view: every failure becomes a JSON body
// the frontend renders as a notification or fallback panel.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var ue *upstream.Error
	if !errors.As(err, &ue) {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch ue.Kind {
	case upstream.KindAuth:
		writeError(w, http.StatusUnauthorized, "session expired")
	case upstream.KindNotFound:
		writeError(w, http.StatusNotFound, "not found")
	case upstream.KindValidation:
		status := ue.StatusCode
		if status == 0 {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, ue.Flatten())
	case upstream.KindNetwork:
		writeError(w, http.StatusGatewayTimeout, "document platform unreachable, try again later")
	default: // KindServer, KindDecode
		writeError(w, http.StatusBadGateway, "document platform error, try again later")
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

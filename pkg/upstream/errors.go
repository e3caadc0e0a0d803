package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies client errors into the categories the console reacts to.
type Kind string

const (
	// KindNetwork covers transport failures and request timeouts. Retryable.
	KindNetwork Kind = "network"

	// KindAuth means the request could not be (re)authorized. The owning
	// session must be treated as ended.
	KindAuth Kind = "auth"

	// KindValidation covers 4xx responses describing rejected input.
	KindValidation Kind = "validation"

	// KindNotFound covers 404 responses.
	KindNotFound Kind = "not_found"

	// KindServer covers 5xx responses.
	KindServer Kind = "server"

	// KindDecode means a response body did not match the expected shape.
	KindDecode Kind = "decode"
)

// FieldError is one entry of a structured validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the error type returned by every Client operation.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Fields     []FieldError
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if msg := e.Flatten(); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Flatten renders structured validation entries as "field: message" strings
// joined with "; ". When no structured entries exist it returns Message.
func (e *Error) Flatten() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

// Retryable reports whether the operation may be retried as-is.
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindServer
}

// ErrorKind extracts the Kind from err, or "" when err is not an *Error.
func ErrorKind(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}

// IsAuth reports whether err means the session can no longer be authorized.
func IsAuth(err error) bool { return ErrorKind(err) == KindAuth }

// IsNotFound reports whether err is a 404 from the upstream API.
func IsNotFound(err error) bool { return ErrorKind(err) == KindNotFound }

// errorBody is the wire shape of upstream error responses. The detail field
// is either a plain string or a list of location/message entries.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// parseErrorBody extracts a message and structured field errors from an
// upstream error payload. Unparseable bodies yield an empty result; the
// status code alone still classifies the error.
func parseErrorBody(data []byte) (string, []FieldError) {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return "", nil
	}

	var msg string
	if err := json.Unmarshal(body.Detail, &msg); err == nil {
		return msg, nil
	}

	var entries []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &entries); err != nil {
		return "", nil
	}

	fields := make([]FieldError, 0, len(entries))
	for _, e := range entries {
		fields = append(fields, FieldError{Field: fieldFromLoc(e.Loc), Message: e.Msg})
	}
	return "", fields
}

// fieldFromLoc renders a validation location path as a field name, skipping
// the leading request-section segment ("body", "query").
func fieldFromLoc(loc []any) string {
	parts := make([]string, 0, len(loc))
	for i, seg := range loc {
		s := fmt.Sprint(seg)
		if i == 0 && (s == "body" || s == "query" || s == "path") {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ".")
}

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Envelope error codes. Grouped by concern: 1xxx authentication,
// 2xxx permission, 3xxx limits, 4xxx validation, 5xxx internal.
const (
	codeOK                = 0
	codeTokenMissing      = 1001
	codeTokenInvalid      = 1002
	codeUserNotFound      = 1003
	codeUserInactive      = 1004
	codeBadCredentials    = 1005
	codeInsufficientRole  = 2001
	codeClassRoleDenied   = 2002
	codeRateLimited       = 3001
	codeBadRequest        = 4001
	codeResourceIDInvalid = 4002
	codeInternal          = 5001
)

// envelope is the uniform response body. data is null on rejections.
type envelope struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData wraps a successful payload in the envelope.
func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{
		Code:      codeOK,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError emits a rejection envelope with a null data field.
func writeError(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, envelope{
		Code:      code,
		Message:   message,
		Data:      nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return errors.New("invalid request body")
	}
	return nil
}

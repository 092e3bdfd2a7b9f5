// Package render writes JSON responses and maps domain errors onto the
// {"message","code"} error body.
package render

import (
	"encoding/json"
	"errors"
	"net/http"

	"cleanCity/pkg/e"
)

const (
	CodeInvalidInput = "invalid_input"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeInternal     = "internal"
	CodeRateLimited  = "rate_limited"
)

type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type MessageBody struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, code, message string) error {
	return JSON(w, status, ErrorBody{Message: message, Code: code})
}

// FromError picks the status and body for err. Only validation messages are
// passed through to the client.
func FromError(err error) (int, ErrorBody) {
	var verr *e.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorBody{Message: verr.Message, Code: CodeInvalidInput}
	case errors.Is(err, e.ErrInvalidInput):
		return http.StatusBadRequest, ErrorBody{Message: "invalid input", Code: CodeInvalidInput}
	case errors.Is(err, e.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorBody{Message: "invalid credentials", Code: CodeUnauthorized}
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorBody{Message: "unauthorized", Code: CodeUnauthorized}
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Message: "not found", Code: CodeNotFound}
	case errors.Is(err, e.ErrConflict):
		return http.StatusConflict, ErrorBody{Message: "conflict", Code: CodeConflict}
	default:
		return http.StatusInternalServerError, ErrorBody{Message: "internal error", Code: CodeInternal}
	}
}

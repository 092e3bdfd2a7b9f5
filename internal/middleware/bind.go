package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"cleanCity/pkg/e"
)

const maxJSONBody = 1 << 20

// DecodeJSON reads exactly one JSON object from the request body into dst.
// Fields dst does not declare are ignored.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))

	if err := dec.Decode(dst); err != nil {
		return e.NewValidationError("invalid JSON")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return e.NewValidationError("invalid JSON")
	}
	return nil
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// APIError is the single error shape returned by every endpoint:
// {"success": false, "error": "<message>"}.
type APIError struct {
	status  int
	Success bool   `json:"success"`
	Message string `json:"error"`
}

func (e *APIError) Error() string  { return e.Message }
func (e *APIError) GetStatus() int { return e.status }

// newAPIError replaces huma's default error model. Schema validation
// failures are reported as 400 like every other malformed input.
func newAPIError(status int, msg string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			details = append(details, err.Error())
		}
	}
	if len(details) > 0 {
		msg = msg + ": " + strings.Join(details, "; ")
	}
	return &APIError{status: status, Message: msg}
}

func init() {
	huma.NewError = newAPIError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, &APIError{status: status, Message: msg})
}

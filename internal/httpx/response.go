package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/ahmedhesham6/invoice/internal/apperr"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Hint    string `json:"hint,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error writes a taxonomy error as JSON, mapping it to the right HTTP status
// and surfacing a user-facing hint when one was attached.
func Error(w http.ResponseWriter, err error) {
	JSON(w, apperr.HTTPStatusFromErr(err), ErrorResponse{
		Error: apperr.Code(err),
		Hint:  errors.FlattenHints(err),
	})
}

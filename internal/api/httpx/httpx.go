package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/smipay/smipay-backend/internal/apperr"
)

// Envelope is the uniform response shape of every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func WriteJSON(w http.ResponseWriter, status int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: status < 400, Message: msg, Data: data})
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, msg, nil)
}

// WriteAppError maps the error taxonomy onto HTTP statuses. Internal
// errors surface a generic message; their detail is logged where they
// occur, never leaked here.
func WriteAppError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		WriteError(w, http.StatusBadRequest, err.Error())
	case apperr.KindNotFound:
		WriteError(w, http.StatusNotFound, err.Error())
	case apperr.KindConflict:
		WriteError(w, http.StatusBadRequest, err.Error())
	case apperr.KindRateLimited:
		WriteError(w, http.StatusForbidden, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}

package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"relpchain/core"
	"relpchain/native/relp"
)

var errBadRequest = errors.New("bad request")

// statusFor maps ledger errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, relp.ErrInvalidAmount),
		errors.Is(err, relp.ErrUnknownPool),
		errors.Is(err, relp.ErrOverflow),
		errors.Is(err, relp.ErrUnderflow):
		return http.StatusBadRequest
	case errors.Is(err, relp.ErrIndexOutOfRange),
		errors.Is(err, core.ErrJournalDisabled):
		return http.StatusNotFound
	case errors.Is(err, relp.ErrInsufficientBalance),
		errors.Is(err, relp.ErrInsufficientAllowance),
		errors.Is(err, relp.ErrBalanceLocked),
		errors.Is(err, relp.ErrStaleBlock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := strings.TrimSpace(err.Error())
	if status == http.StatusInternalServerError || message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

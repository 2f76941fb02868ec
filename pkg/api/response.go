package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"bank-ledger/pkg/auth"
	"bank-ledger/pkg/ledger"
	"bank-ledger/pkg/logging"
)

// envelope is the uniform response shape: a success flag, a human message, and
// the payload (null on failure).
type envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, envelope{Status: true, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{Status: false, Message: message, Data: nil})
}

// writeError maps a domain error to a status code. Expected rejections carry
// their specifics to the client; anything else is logged and reported
// generically.
func writeError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "not authorized")
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case ledger.IsConflict(err):
		respondError(w, http.StatusConflict, err.Error())
	case ledger.IsRejection(err):
		// Remaining rejections: owner not found, invalid amount, same
		// account, insufficient funds.
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/rwa-leads/internal/usecase"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success     bool   `json:"success"`
	Msg         string `json:"msg,omitempty"`
	Field       string `json:"field,omitempty"`
	Restart     bool   `json:"restart,omitempty"`
	Maintenance bool   `json:"maintenance,omitempty"`
	Data        any    `json:"data,omitempty"`
}

const retryAfterSeconds = "5"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps a use case error onto the HTTP contract. Validation and
// draft-state failures are expected traffic and are not logged as errors.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr usecase.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, Response{Msg: verr.Message, Field: verr.Field})
		return
	}

	if usecase.NeedsRestart(err) {
		writeJSON(w, http.StatusOK, Response{Msg: err.Error(), Restart: true})
		return
	}

	var de *usecase.DomainError
	if errors.As(err, &de) {
		status := http.StatusBadRequest
		if de.Code == usecase.CodeLeadNotFound {
			status = http.StatusNotFound
		}
		writeJSON(w, status, Response{Msg: de.Message})
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) && te.Retryable {
		w.Header().Set("Retry-After", retryAfterSeconds)
		writeJSON(w, http.StatusServiceUnavailable, Response{Msg: te.Message, Maintenance: true})
		return
	}

	log.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, Response{Msg: "internal error, please try again later"})
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"millionaire-service/internal/app"
	"millionaire-service/internal/domain"
)

type errorPayload struct {
	Message      string `json:"message"`
	ActiveGameID string `json:"activeGameId,omitempty"`
}

// statusFor maps use-case errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotGameOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrGameInProgress),
		errors.Is(err, domain.ErrGameFinished),
		errors.Is(err, domain.ErrTimeLimitExceeded),
		errors.Is(err, domain.ErrNothingToCashOut),
		errors.Is(err, domain.ErrLifelineUsed),
		errors.Is(err, domain.ErrLockNotAcquired):
		return http.StatusConflict
	case errors.Is(err, errInvalidRequest), errors.Is(err, domain.ErrUnknownLifeline):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientQuestions):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func newErrorPayload(err error) errorPayload {
	if statusFor(err) == http.StatusInternalServerError {
		return errorPayload{Message: "internal error"}
	}
	payload := errorPayload{Message: err.Error()}
	var active *app.ActiveGameError
	if errors.As(err, &active) {
		payload.ActiveGameID = active.GameID
	}
	return payload
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), newErrorPayload(err))
}

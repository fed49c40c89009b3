// Package handlers implements the public JSON API: book generation dispatch,
// job status polling, and the gallery reads.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"colorbook/internal/domain"
	"colorbook/internal/queue"
	"colorbook/internal/quota"
)

// maxBodyBytes bounds request bodies; generation requests are tiny.
const maxBodyBytes = 64 * 1024

// App carries the collaborators shared by all handlers.
type App struct {
	Queue  queue.Queue
	Quota  *quota.Service
	Logger zerolog.Logger
}

// NewApp builds the handler set.
func NewApp(q queue.Queue, quotaSvc *quota.Service, logger zerolog.Logger) *App {
	return &App{Queue: q, Quota: quotaSvc, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// fail maps domain errors onto HTTP statuses. Unknown errors are logged and
// reported as 500 without internal detail.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		a.json(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrQuotaExceeded):
		a.json(w, http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		a.json(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrUnauthorized):
		a.json(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("handler error")
		a.json(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

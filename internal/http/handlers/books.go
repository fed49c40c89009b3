package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"colorbook/internal/domain"
	"colorbook/internal/middleware"
)

type generateResponse struct {
	JobID  string           `json:"job_id"`
	Status domain.JobStatus `json:"status"`
}

// GenerateBook accepts a book request, checks the caller's daily quota, and
// enqueues a background job. It returns 202 immediately; clients poll
// JobStatus for the outcome.
func (a *App) GenerateBook(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}

	var req domain.BookRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.fail(w, r, fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidRequest))
		return
	}

	req.Sanitize()
	if err := req.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}

	if _, err := a.Quota.Check(r.Context(), userID); err != nil {
		a.fail(w, r, err)
		return
	}

	jobID, err := a.Queue.Enqueue(r.Context(), userID, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.Logger.Info().Str("job_id", jobID).Str("uid", userID).Int("pages", req.PageCount).
		Msg("book generation enqueued")
	a.json(w, http.StatusAccepted, generateResponse{JobID: jobID, Status: domain.JobStatusPending})
}

// JobStatus returns the current state of a generation job, including the
// result payload once complete.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	state, err := a.Queue.Status(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, state)
}

// ListBooks returns the caller's completed books, most recent first.
func (a *App) ListBooks(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}

	books, err := a.Queue.ListBooks(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if books == nil {
		books = []domain.BookSummary{}
	}
	a.json(w, http.StatusOK, books)
}

// GetBook returns one completed book. Books belonging to other users read as
// not found.
func (a *App) GetBook(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}

	book, err := a.Queue.GetBook(r.Context(), chi.URLParam(r, "bookID"), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, book)
}

// Package queue provides the background job queue and the status store that
// callers poll by job identifier. The orchestrator is the only writer of job
// state; readers never mutate it.
package queue

import (
	"context"
	"errors"
	"time"

	"colorbook/internal/domain"
)

// ErrNoJob is returned by Claim when no pending job is available.
var ErrNoJob = errors.New("queue: no job available")

// Job is one dispatched unit of background work.
type Job struct {
	ID        string
	UserID    string
	Request   domain.BookRequest
	CreatedAt time.Time
}

// Reporter is the orchestrator-facing write surface. Progress is monotonic;
// writes against a terminal job are ignored so a job terminates exactly once.
type Reporter interface {
	Progress(ctx context.Context, jobID string, progress int, message string) error
	Complete(ctx context.Context, jobID string, book *domain.BookResponse) error
	Fail(ctx context.Context, jobID string, message string) error
}

// Queue is the full queue contract: dispatch, worker claim, status polling,
// and the gallery reads backed by completed job results.
type Queue interface {
	Reporter

	Enqueue(ctx context.Context, userID string, req domain.BookRequest) (string, error)
	Claim(ctx context.Context) (*Job, error)
	Status(ctx context.Context, jobID string) (domain.JobState, error)
	ListBooks(ctx context.Context, userID string) ([]domain.BookSummary, error)
	GetBook(ctx context.Context, bookID, userID string) (*domain.BookResponse, error)
}

const enqueueMessage = "Queued for generation..."

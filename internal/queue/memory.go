package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"colorbook/internal/domain"
)

// Memory is an in-process queue for tests and single-process deployments.
// It enforces the same state-machine rules as the durable implementation.
type Memory struct {
	mu      sync.Mutex
	jobs    map[string]*memoryJob
	pending []string
}

type memoryJob struct {
	userID  string
	request domain.BookRequest
	state   domain.JobState
}

// NewMemory creates an empty in-memory queue.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]*memoryJob)}
}

func (q *Memory) Enqueue(ctx context.Context, userID string, req domain.BookRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	id := uuid.NewString()
	now := time.Now().UTC()
	q.jobs[id] = &memoryJob{
		userID:  userID,
		request: req,
		state: domain.JobState{
			JobID:     id,
			Status:    domain.JobStatusPending,
			Progress:  0,
			Message:   enqueueMessage,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	q.pending = append(q.pending, id)
	return id, nil
}

func (q *Memory) Claim(ctx context.Context) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil, ErrNoJob
	}
	id := q.pending[0]
	q.pending = q.pending[1:]
	j := q.jobs[id]
	return &Job{ID: id, UserID: j.userID, Request: j.request, CreatedAt: j.state.CreatedAt}, nil
}

func (q *Memory) Status(ctx context.Context, jobID string) (domain.JobState, error) {
	if err := ctx.Err(); err != nil {
		return domain.JobState{}, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.jobs[jobID]
	if !ok {
		return domain.JobState{}, domain.ErrNotFound
	}
	return j.state, nil
}

func (q *Memory) Progress(ctx context.Context, jobID string, progress int, message string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	// Ignore writes that would regress the state machine.
	if j.state.Status.Terminal() || progress < j.state.Progress {
		return nil
	}
	j.state.Status = domain.JobStatusGenerating
	j.state.Progress = progress
	j.state.Message = message
	j.state.UpdatedAt = time.Now().UTC()
	return nil
}

func (q *Memory) Complete(ctx context.Context, jobID string, book *domain.BookResponse) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if j.state.Status.Terminal() {
		return nil
	}
	j.state.Status = domain.JobStatusComplete
	j.state.Progress = 100
	j.state.Message = "Complete!"
	j.state.Result = book
	j.state.UpdatedAt = time.Now().UTC()
	return nil
}

func (q *Memory) Fail(ctx context.Context, jobID string, message string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if j.state.Status.Terminal() {
		return nil
	}
	// Progress freezes at its last reported value.
	j.state.Status = domain.JobStatusFailed
	j.state.Message = message
	j.state.UpdatedAt = time.Now().UTC()
	return nil
}

func (q *Memory) ListBooks(ctx context.Context, userID string) ([]domain.BookSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	var books []domain.BookSummary
	for _, j := range q.jobs {
		if j.userID != userID || j.state.Status != domain.JobStatusComplete || j.state.Result == nil {
			continue
		}
		books = append(books, j.state.Result.Summary())
	}
	sort.Slice(books, func(i, k int) bool { return books[i].CreatedAt.After(books[k].CreatedAt) })
	return books, nil
}

func (q *Memory) GetBook(ctx context.Context, bookID, userID string) (*domain.BookResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, j := range q.jobs {
		if j.userID != userID || j.state.Result == nil {
			continue
		}
		if j.state.Status == domain.JobStatusComplete && j.state.Result.BookID == bookID {
			return j.state.Result, nil
		}
	}
	return nil, domain.ErrNotFound
}

var _ Queue = (*Memory)(nil)

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"colorbook/internal/domain"
)

// Postgres implements Queue on a jobs table:
//
//	id uuid primary key, user_id text, status text, progress int,
//	message text, request_json jsonb, result_json jsonb,
//	claimed_at timestamptz, created_at timestamptz, updated_at timestamptz
//
// Claiming uses FOR UPDATE SKIP LOCKED so multiple workers never pick the
// same job; state-machine rules (monotonic progress, immutable terminal
// states) are enforced in the WHERE clauses so a late writer silently
// no-ops instead of corrupting a terminal job.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a queue backed by PostgreSQL.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (q *Postgres) Enqueue(ctx context.Context, userID string, req domain.BookRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("queue: encode request: %w", err)
	}
	query := `
INSERT INTO jobs (id, user_id, status, progress, message, request_json)
VALUES (gen_random_uuid(), $1, 'pending', 0, $2, $3)
RETURNING id;
`
	var id string
	if err := q.pool.QueryRow(ctx, query, userID, enqueueMessage, payload).Scan(&id); err != nil {
		return "", fmt.Errorf("queue: enqueue: %w", err)
	}
	return id, nil
}

func (q *Postgres) Claim(ctx context.Context) (*Job, error) {
	query := `
UPDATE jobs SET claimed_at = NOW()
WHERE id = (
    SELECT id FROM jobs
    WHERE status = 'pending' AND claimed_at IS NULL
    ORDER BY created_at
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING id, user_id, request_json, created_at;
`
	var (
		job     Job
		payload []byte
	)
	if err := q.pool.QueryRow(ctx, query).Scan(&job.ID, &job.UserID, &payload, &job.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoJob
		}
		return nil, fmt.Errorf("queue: claim: %w", err)
	}
	if err := json.Unmarshal(payload, &job.Request); err != nil {
		return nil, fmt.Errorf("queue: decode request: %w", err)
	}
	return &job, nil
}

func (q *Postgres) Status(ctx context.Context, jobID string) (domain.JobState, error) {
	query := `
SELECT status, progress, message, result_json, created_at, updated_at
FROM jobs
WHERE id = $1;
`
	state := domain.JobState{JobID: jobID}
	var result []byte
	err := q.pool.QueryRow(ctx, query, jobID).Scan(
		&state.Status,
		&state.Progress,
		&state.Message,
		&result,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.JobState{}, domain.ErrNotFound
		}
		return domain.JobState{}, fmt.Errorf("queue: status: %w", err)
	}
	if len(result) > 0 {
		var book domain.BookResponse
		if err := json.Unmarshal(result, &book); err != nil {
			return domain.JobState{}, fmt.Errorf("queue: decode result: %w", err)
		}
		state.Result = &book
	}
	return state, nil
}

func (q *Postgres) Progress(ctx context.Context, jobID string, progress int, message string) error {
	query := `
UPDATE jobs
SET status = 'generating', progress = $2, message = $3, updated_at = NOW()
WHERE id = $1
  AND status IN ('pending', 'generating')
  AND progress <= $2;
`
	_, err := q.pool.Exec(ctx, query, jobID, progress, message)
	return err
}

func (q *Postgres) Complete(ctx context.Context, jobID string, book *domain.BookResponse) error {
	payload, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("queue: encode result: %w", err)
	}
	query := `
UPDATE jobs
SET status = 'complete', progress = 100, message = 'Complete!', result_json = $2, updated_at = NOW()
WHERE id = $1
  AND status IN ('pending', 'generating');
`
	_, err = q.pool.Exec(ctx, query, jobID, payload)
	return err
}

func (q *Postgres) Fail(ctx context.Context, jobID string, message string) error {
	query := `
UPDATE jobs
SET status = 'failed', message = $2, updated_at = NOW()
WHERE id = $1
  AND status IN ('pending', 'generating');
`
	_, err := q.pool.Exec(ctx, query, jobID, message)
	return err
}

func (q *Postgres) ListBooks(ctx context.Context, userID string) ([]domain.BookSummary, error) {
	query := `
SELECT result_json
FROM jobs
WHERE user_id = $1 AND status = 'complete' AND result_json IS NOT NULL
ORDER BY updated_at DESC;
`
	rows, err := q.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("queue: list books: %w", err)
	}
	defer rows.Close()

	var books []domain.BookSummary
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("queue: scan book: %w", err)
		}
		var book domain.BookResponse
		if err := json.Unmarshal(payload, &book); err != nil {
			return nil, fmt.Errorf("queue: decode book: %w", err)
		}
		books = append(books, book.Summary())
	}
	return books, rows.Err()
}

func (q *Postgres) GetBook(ctx context.Context, bookID, userID string) (*domain.BookResponse, error) {
	query := `
SELECT result_json
FROM jobs
WHERE status = 'complete' AND user_id = $2 AND result_json->>'book_id' = $1;
`
	var payload []byte
	if err := q.pool.QueryRow(ctx, query, bookID, userID).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("queue: get book: %w", err)
	}
	var book domain.BookResponse
	if err := json.Unmarshal(payload, &book); err != nil {
		return nil, fmt.Errorf("queue: decode book: %w", err)
	}
	return &book, nil
}

var _ Queue = (*Postgres)(nil)

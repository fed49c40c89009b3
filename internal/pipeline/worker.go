package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"colorbook/internal/queue"
)

// DefaultPollInterval is how often an idle worker checks for pending jobs.
const DefaultPollInterval = 2 * time.Second

// Claimer is the queue surface a worker needs.
type Claimer interface {
	Claim(ctx context.Context) (*queue.Job, error)
}

// Worker claims pending jobs and runs them until the context is cancelled.
// Jobs run one at a time; rendering inside a job is where fan-out happens.
type Worker struct {
	queue  Claimer
	orch   *Orchestrator
	logger zerolog.Logger
	poll   time.Duration
}

// NewWorker builds a claim-loop worker.
func NewWorker(q Claimer, orch *Orchestrator, logger zerolog.Logger, poll time.Duration) *Worker {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Worker{queue: q, orch: orch, logger: logger, poll: poll}
}

// Run loops until ctx is cancelled. Claim errors are logged and retried
// after the poll interval; they never stop the worker.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		job, err := w.queue.Claim(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrNoJob) && ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("worker: claim failed")
			}
			if !w.sleep(ctx) {
				return ctx.Err()
			}
			continue
		}

		w.orch.Run(ctx, job)
	}
}

func (w *Worker) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.poll):
		return true
	}
}

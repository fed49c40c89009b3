// Package pipeline drives one generation job end to end: safety gate, scene
// planning, rendering, composition, publishing, and the terminal state
// transition. It is the single point that converts stage failures into a
// terminal JobState and the only writer of job status.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"colorbook/internal/compose"
	"colorbook/internal/domain"
	"colorbook/internal/planner"
	"colorbook/internal/publish"
	"colorbook/internal/queue"
	"colorbook/internal/render"
	"colorbook/internal/safety"
)

// JobTimeout is the hard wall-clock ceiling for one job. Exceeding it
// abandons in-flight external calls locally and fails the job.
const JobTimeout = 5 * time.Minute

// Progress checkpoints, in stage order.
const (
	progressPlanning   = 10
	progressRendering  = 20
	progressComposing  = 80
	progressPublishing = 90
)

const (
	msgContentRejected = "Content unsafe: %s"
	msgTimeout         = "Generation timed out."
	msgGenericFailure  = "Generation failed. Please try again."
)

// UsageRecorder credits one generation slot after a successful job.
type UsageRecorder interface {
	Increment(ctx context.Context, userID string) error
}

// Options wires an Orchestrator's collaborators.
type Options struct {
	Filter   *safety.Filter
	Renderer *render.Renderer
	Store    publish.Store
	Reporter queue.Reporter
	Usage    UsageRecorder
	Logger   zerolog.Logger
	Timeout  time.Duration
}

// Orchestrator executes jobs. Stages run strictly sequentially; only the
// renderer fans out internally.
type Orchestrator struct {
	filter   *safety.Filter
	renderer *render.Renderer
	store    publish.Store
	reporter queue.Reporter
	usage    UsageRecorder
	logger   zerolog.Logger
	timeout  time.Duration
	newID    func() string
}

// New constructs an Orchestrator.
func New(opts Options) *Orchestrator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = JobTimeout
	}
	return &Orchestrator{
		filter:   opts.Filter,
		renderer: opts.Renderer,
		store:    opts.Store,
		reporter: opts.Reporter,
		usage:    opts.Usage,
		logger:   opts.Logger,
		timeout:  timeout,
		newID:    uuid.NewString,
	}
}

// rejectionError is the expected, user-facing outcome of the safety gate.
type rejectionError struct {
	reason string
}

func (e *rejectionError) Error() string { return "content rejected: " + e.reason }

func (e *rejectionError) Is(target error) bool { return target == domain.ErrContentRejected }

// Run executes one job to a terminal state. Every failure mode ends in a
// Fail write; nothing is silently swallowed past this boundary.
func (o *Orchestrator) Run(ctx context.Context, job *queue.Job) {
	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	logger := o.logger.With().Str("job_id", job.ID).Str("uid", job.UserID).Logger()
	logger.Info().Msg("job: started")

	err := o.generate(runCtx, logger, job)
	if err == nil {
		logger.Info().Msg("job: complete")
		return
	}

	var rejection *rejectionError
	switch {
	case errors.As(err, &rejection):
		// Expected and user-facing, not an infrastructure error.
		logger.Warn().Str("reason", rejection.reason).Msg("job: content rejected")
		o.fail(job.ID, fmt.Sprintf(msgContentRejected, rejection.reason))
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error().Err(err).Msg("job: timed out")
		o.fail(job.ID, msgTimeout)
	default:
		// Full context goes to the log; the caller gets a generic message
		// with no internal detail.
		logger.Error().Err(err).Msg("job: failed")
		o.fail(job.ID, msgGenericFailure)
	}
}

func (o *Orchestrator) generate(ctx context.Context, logger zerolog.Logger, job *queue.Job) error {
	req := job.Request

	// Safety gate runs before the first progress report, so a rejected job
	// fails with its progress still at zero.
	verdict := o.filter.Check(ctx, req.Title+" "+req.Theme)
	if !verdict.Safe {
		return &rejectionError{reason: verdict.Reason}
	}

	o.progress(ctx, logger, job.ID, progressPlanning, "Planning scenes...")
	scenes := planner.Plan(req.Theme, req.PageCount, req.ArtStyle, req.AgeRange, req.CharacterName)

	o.progress(ctx, logger, job.ID, progressRendering, "Drawing pages...")
	pages, err := o.renderer.Render(ctx, scenes)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	o.progress(ctx, logger, job.ID, progressComposing, "Assembling book...")
	pdf, err := compose.BuildPDF(req.Title, pages)
	if err != nil {
		return err
	}

	o.progress(ctx, logger, job.ID, progressPublishing, "Publishing...")
	bookID := o.newID()
	results := make([]domain.PageResult, 0, len(pages))
	for _, page := range pages {
		imageKey := publish.BuildKey(job.UserID, bookID, fmt.Sprintf("page_%02d.png", page.Scene.PageNumber))
		imageURL, err := o.store.Put(ctx, page.Image, imageKey, "image/png")
		if err != nil {
			return fmt.Errorf("publish page %d: %w", page.Scene.PageNumber, err)
		}
		thumbKey := publish.BuildKey(job.UserID, bookID, fmt.Sprintf("page_%02d_thumb.jpg", page.Scene.PageNumber))
		thumbURL, err := o.store.Put(ctx, page.Thumbnail, thumbKey, "image/jpeg")
		if err != nil {
			return fmt.Errorf("publish thumbnail %d: %w", page.Scene.PageNumber, err)
		}
		results = append(results, domain.PageResult{
			PageNumber:       page.Scene.PageNumber,
			SceneDescription: page.Scene.Description,
			ImageURL:         imageURL,
			ThumbnailURL:     thumbURL,
		})
	}
	pdfURL, err := o.store.Put(ctx, pdf, publish.BuildKey(job.UserID, bookID, "book.pdf"), "application/pdf")
	if err != nil {
		return fmt.Errorf("publish pdf: %w", err)
	}

	book := &domain.BookResponse{
		BookID:    bookID,
		Title:     req.Title,
		Theme:     req.Theme,
		PageCount: req.PageCount,
		Pages:     results,
		PDFURL:    pdfURL,
		CreatedAt: time.Now().UTC(),
		UserID:    job.UserID,
	}

	// Usage is credited once per successful job, never on failure.
	if err := o.usage.Increment(ctx, job.UserID); err != nil {
		return err
	}
	if err := o.reporter.Complete(ctx, job.ID, book); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// progress reports a checkpoint. Reporter errors are logged but never abort
// the job; the pipeline's own stages decide success.
func (o *Orchestrator) progress(ctx context.Context, logger zerolog.Logger, jobID string, value int, message string) {
	if err := o.reporter.Progress(ctx, jobID, value, message); err != nil {
		logger.Error().Err(err).Int("progress", value).Msg("job: progress update failed")
	}
}

// fail records the terminal failure. The run context may already be expired,
// so the write gets its own deadline.
func (o *Orchestrator) fail(jobID, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.reporter.Fail(ctx, jobID, message); err != nil {
		o.logger.Error().Err(err).Str("job_id", jobID).Msg("job: failed to record failure")
	}
}

// Package render turns planned scenes into print-ready pages: it fans out
// remote image generation under a bounded semaphore, retries transient
// failures, and post-processes every result into line art plus a thumbnail.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"colorbook/internal/domain"
)

// MaxConcurrentRenders caps in-flight remote calls. The bound exists to cap
// peak memory from concurrently held raw image buffers, not throughput.
const MaxConcurrentRenders = 3

// MaxImageBytes rejects abnormally large downloads before full buffering.
const MaxImageBytes = 10 * 1024 * 1024

const (
	maxRenderAttempts    = 3
	retryInitialInterval = 2 * time.Second
	retryMaxInterval     = 10 * time.Second
	downloadTimeout      = 30 * time.Second
)

// Generator is the external image-generation collaborator: one prompt in,
// one image URL out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options configures a Renderer.
type Options struct {
	Generator   Generator
	HTTPClient  *http.Client
	Concurrency int64
	Logger      zerolog.Logger
}

type processFunc func(raw []byte) (page, thumb []byte, err error)

// Renderer renders batches of scenes. A single Renderer is shared by all
// jobs in the process so the semaphore bounds remote calls globally.
type Renderer struct {
	generator  Generator
	httpClient *http.Client
	slots      *semaphore.Weighted
	logger     zerolog.Logger

	process      processFunc
	retryInitial time.Duration
	retryMax     time.Duration
}

// New constructs a Renderer. The semaphore is sized once here and never
// resized.
func New(opts Options) *Renderer {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = MaxConcurrentRenders
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}
	return &Renderer{
		generator:    opts.Generator,
		httpClient:   client,
		slots:        semaphore.NewWeighted(concurrency),
		logger:       opts.Logger,
		process:      cleanAndThumbnail,
		retryInitial: retryInitialInterval,
		retryMax:     retryMaxInterval,
	}
}

// cleanAndThumbnail is the standard post-processing chain: binarized print
// page plus a proportional preview.
func cleanAndThumbnail(raw []byte) ([]byte, []byte, error) {
	img, err := CleanLineArt(raw)
	if err != nil {
		return nil, nil, err
	}
	thumb, err := MakeThumbnail(img)
	if err != nil {
		return nil, nil, err
	}
	return img, thumb, nil
}

// Render generates every scene concurrently and returns pages in scene
// order regardless of completion order. Any scene that ultimately fails
// fails the whole batch; partial books are never produced.
func (r *Renderer) Render(ctx context.Context, scenes []domain.Scene) ([]domain.RenderedPage, error) {
	pages := make([]domain.RenderedPage, len(scenes))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, scene := range scenes {
		i, scene := i, scene
		eg.Go(func() error {
			r.logger.Info().Int("page", scene.PageNumber).Msg("render: generating page")
			raw, err := r.fetchWithRetry(egCtx, scene)
			if err != nil {
				return fmt.Errorf("page %d: %w", scene.PageNumber, err)
			}

			// CPU-bound post-processing runs outside the semaphore so it
			// cannot block other scenes' remote calls.
			img, thumb, err := r.process(raw)
			if err != nil {
				return fmt.Errorf("page %d: %w", scene.PageNumber, err)
			}

			pages[i] = domain.RenderedPage{Scene: scene, Image: img, Thumbnail: thumb}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

// fetchWithRetry holds a semaphore slot for the remote call and retries
// transient failures with exponential backoff. Terminal failures (oversized
// response, rejected prompt) propagate immediately.
func (r *Renderer) fetchWithRetry(ctx context.Context, scene domain.Scene) ([]byte, error) {
	if err := r.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.slots.Release(1)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.retryInitial
	policy.MaxInterval = r.retryMax

	attempt := 0
	operation := func() ([]byte, error) {
		attempt++
		data, err := r.fetchOnce(ctx, scene)
		if err != nil {
			if !errors.Is(err, domain.ErrProviderFailure) {
				return nil, backoff.Permanent(err)
			}
			r.logger.Warn().Err(err).Int("page", scene.PageNumber).Int("attempt", attempt).
				Msg("render: transient failure, retrying")
		}
		return data, err
	}
	return backoff.RetryWithData(operation, backoff.WithContext(backoff.WithMaxRetries(policy, maxRenderAttempts-1), ctx))
}

func (r *Renderer) fetchOnce(ctx context.Context, scene domain.Scene) ([]byte, error) {
	url, err := r.generator.Generate(ctx, scene.ImagePrompt)
	if err != nil {
		return nil, err
	}
	return r.download(ctx, url)
}

// download fetches the generated image, enforcing the response-size ceiling
// before the payload is fully buffered.
func (r *Renderer) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download image: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: download status %d", domain.ErrProviderFailure, resp.StatusCode)
		}
		return nil, fmt.Errorf("download status %d", resp.StatusCode)
	}
	if resp.ContentLength > MaxImageBytes {
		return nil, fmt.Errorf("%w: image is %d bytes (max %d)", domain.ErrResponseTooLarge, resp.ContentLength, MaxImageBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read image: %v", domain.ErrProviderFailure, err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrResponseTooLarge, MaxImageBytes)
	}
	return data, nil
}

package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"colorbook/internal/domain"
	"colorbook/internal/queue"
	"colorbook/internal/render"
	"colorbook/internal/safety"
)

type stubModerator struct{}

func (stubModerator) Classify(ctx context.Context, text string) (string, error) {
	return "SAFE", nil
}

type stubGenerator struct {
	url   string
	err   error
	block bool
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if g.err != nil {
		return "", g.err
	}
	return g.url, nil
}

type fakeStore struct {
	mu   sync.Mutex
	keys []string
}

func (s *fakeStore) Put(ctx context.Context, data []byte, key, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return "https://cdn.test/" + key, nil
}

type fakeUsage struct {
	calls atomic.Int64
}

func (u *fakeUsage) Increment(ctx context.Context, userID string) error {
	u.calls.Add(1)
	return nil
}

// recordingReporter captures progress checkpoints while delegating to the
// real in-memory queue.
type recordingReporter struct {
	queue.Reporter

	mu       sync.Mutex
	progress []int
}

func (r *recordingReporter) Progress(ctx context.Context, jobID string, progress int, message string) error {
	r.mu.Lock()
	r.progress = append(r.progress, progress)
	r.mu.Unlock()
	return r.Reporter.Progress(ctx, jobID, progress, message)
}

func (r *recordingReporter) seen() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.progress...)
}

func pagePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 8; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

type fixture struct {
	orch     *Orchestrator
	queue    *queue.Memory
	reporter *recordingReporter
	store    *fakeStore
	usage    *fakeUsage
}

func newFixture(t *testing.T, gen render.Generator, timeout time.Duration) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	mem := queue.NewMemory()
	reporter := &recordingReporter{Reporter: mem}
	store := &fakeStore{}
	usage := &fakeUsage{}
	orch := New(Options{
		Filter:   safety.NewFilter(stubModerator{}, logger),
		Renderer: render.New(render.Options{Generator: gen, Logger: logger}),
		Store:    store,
		Reporter: reporter,
		Usage:    usage,
		Logger:   logger,
		Timeout:  timeout,
	})
	return &fixture{orch: orch, queue: mem, reporter: reporter, store: store, usage: usage}
}

func enqueueAndClaim(t *testing.T, q *queue.Memory, req domain.BookRequest) *queue.Job {
	t.Helper()
	ctx := context.Background()
	if _, err := q.Enqueue(ctx, "user-1", req); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	job, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	return job
}

func TestRunCompletesJob(t *testing.T) {
	img := pagePNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(img)
	}))
	defer srv.Close()

	f := newFixture(t, &stubGenerator{url: srv.URL}, 0)
	job := enqueueAndClaim(t, f.queue, domain.BookRequest{
		Title:     "Luna's Garden",
		Theme:     "a cat exploring a magical garden",
		PageCount: 2,
		AgeRange:  domain.AgeRangeKids,
		ArtStyle:  domain.ArtStyleStandard,
	})

	f.orch.Run(context.Background(), job)

	state, err := f.queue.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if state.Status != domain.JobStatusComplete {
		t.Fatalf("status = %q (%s), want complete", state.Status, state.Message)
	}
	if state.Progress != 100 {
		t.Fatalf("progress = %d, want 100", state.Progress)
	}
	if state.Result == nil {
		t.Fatal("completed job has no result")
	}
	if got := len(state.Result.Pages); got != 2 {
		t.Fatalf("result has %d pages, want 2", got)
	}
	for i, page := range state.Result.Pages {
		if page.PageNumber != i+1 {
			t.Errorf("page %d numbered %d", i, page.PageNumber)
		}
		if !strings.HasPrefix(page.ImageURL, "https://cdn.test/users/user-1/books/") {
			t.Errorf("page %d image URL = %q", i, page.ImageURL)
		}
	}
	if !strings.HasSuffix(state.Result.PDFURL, "/book.pdf") {
		t.Errorf("pdf URL = %q", state.Result.PDFURL)
	}

	want := []int{10, 20, 80, 90}
	got := f.reporter.seen()
	if len(got) != len(want) {
		t.Fatalf("progress checkpoints = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("progress checkpoints = %v, want %v", got, want)
		}
	}

	// 2 images, 2 thumbnails, 1 pdf.
	if got := len(f.store.keys); got != 5 {
		t.Fatalf("published %d artifacts, want 5", got)
	}
	if got := f.usage.calls.Load(); got != 1 {
		t.Fatalf("usage incremented %d times, want 1", got)
	}
}

func TestRunRejectsUnsafeContent(t *testing.T) {
	f := newFixture(t, &stubGenerator{err: context.Canceled}, 0)
	job := enqueueAndClaim(t, f.queue, domain.BookRequest{
		Title:     "Pirate Battle",
		Theme:     "pirates fighting with guns",
		PageCount: 2,
		AgeRange:  domain.AgeRangeKids,
		ArtStyle:  domain.ArtStyleStandard,
	})

	f.orch.Run(context.Background(), job)

	state, err := f.queue.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if state.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", state.Status)
	}
	if !strings.HasPrefix(state.Message, "Content unsafe:") {
		t.Fatalf("message = %q, want content rejection", state.Message)
	}
	if state.Progress != 0 {
		t.Fatalf("progress = %d, want 0 for a rejected job", state.Progress)
	}
	if len(f.reporter.seen()) != 0 {
		t.Fatalf("rejected job reported progress %v", f.reporter.seen())
	}
	if got := f.usage.calls.Load(); got != 0 {
		t.Fatalf("usage incremented %d times on rejection", got)
	}
}

func TestRunTimesOut(t *testing.T) {
	f := newFixture(t, &stubGenerator{block: true}, 50*time.Millisecond)
	job := enqueueAndClaim(t, f.queue, domain.BookRequest{
		Title:     "Slow Book",
		Theme:     "a very slow turtle crossing a meadow",
		PageCount: 2,
		AgeRange:  domain.AgeRangeKids,
		ArtStyle:  domain.ArtStyleStandard,
	})

	f.orch.Run(context.Background(), job)

	state, err := f.queue.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if state.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", state.Status)
	}
	if state.Message != "Generation timed out." {
		t.Fatalf("message = %q", state.Message)
	}
	if got := f.usage.calls.Load(); got != 0 {
		t.Fatalf("usage incremented %d times on timeout", got)
	}
}

func TestRunHidesInternalErrors(t *testing.T) {
	f := newFixture(t, &stubGenerator{err: domain.ErrInvalidRequest}, 0)
	job := enqueueAndClaim(t, f.queue, domain.BookRequest{
		Title:     "Broken Book",
		Theme:     "a friendly robot in a workshop",
		PageCount: 2,
		AgeRange:  domain.AgeRangeKids,
		ArtStyle:  domain.ArtStyleStandard,
	})

	f.orch.Run(context.Background(), job)

	state, err := f.queue.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if state.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", state.Status)
	}
	if state.Message != "Generation failed. Please try again." {
		t.Fatalf("message = %q, internal detail must not leak", state.Message)
	}
	if got := f.usage.calls.Load(); got != 0 {
		t.Fatalf("usage incremented %d times on failure", got)
	}
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// ArtStyle selects the line complexity of generated pages.
type ArtStyle string

const (
	ArtStyleSimple   ArtStyle = "simple"   // ages 3-5: thick lines, large shapes
	ArtStyleStandard ArtStyle = "standard" // ages 6-9: normal coloring book lines
	ArtStyleDetailed ArtStyle = "detailed" // ages 10+: fine lines, more complexity
)

// AgeRange is the target reader band printed into every render prompt.
type AgeRange string

const (
	AgeRangeToddler AgeRange = "3-5"
	AgeRangeKids    AgeRange = "6-9"
	AgeRangeTweens  AgeRange = "10-12"
)

const (
	MinPageCount = 2
	MaxPageCount = 12
)

// BookRequest is the caller-supplied description of the book to generate.
// All free-text fields must pass through Sanitize before any downstream use.
type BookRequest struct {
	Title         string   `json:"title"`
	Theme         string   `json:"theme"`
	PageCount     int      `json:"page_count"`
	AgeRange      AgeRange `json:"age_range"`
	ArtStyle      ArtStyle `json:"art_style"`
	CharacterName string   `json:"character_name,omitempty"`
}

// Sanitize strips markup from every free-text field in place. It must run
// before the request is enqueued so no raw HTML ever reaches a render prompt
// or a persisted record.
func (r *BookRequest) Sanitize() {
	r.Title = SanitizeText(r.Title)
	r.Theme = SanitizeText(r.Theme)
	r.CharacterName = SanitizeText(r.CharacterName)
}

// Validate applies defaults and checks field bounds. It assumes Sanitize has
// already run.
func (r *BookRequest) Validate() error {
	if r.PageCount == 0 {
		r.PageCount = 6
	}
	if r.AgeRange == "" {
		r.AgeRange = AgeRangeKids
	}
	if r.ArtStyle == "" {
		r.ArtStyle = ArtStyleStandard
	}

	if n := len(strings.TrimSpace(r.Title)); n < 2 || n > 80 {
		return fmt.Errorf("%w: title must be 2-80 characters", ErrInvalidRequest)
	}
	if n := len(strings.TrimSpace(r.Theme)); n < 5 || n > 300 {
		return fmt.Errorf("%w: theme must be 5-300 characters", ErrInvalidRequest)
	}
	if r.PageCount < MinPageCount || r.PageCount > MaxPageCount {
		return fmt.Errorf("%w: page_count must be %d-%d", ErrInvalidRequest, MinPageCount, MaxPageCount)
	}
	switch r.AgeRange {
	case AgeRangeToddler, AgeRangeKids, AgeRangeTweens:
	default:
		return fmt.Errorf("%w: unknown age_range %q", ErrInvalidRequest, r.AgeRange)
	}
	switch r.ArtStyle {
	case ArtStyleSimple, ArtStyleStandard, ArtStyleDetailed:
	default:
		return fmt.Errorf("%w: unknown art_style %q", ErrInvalidRequest, r.ArtStyle)
	}
	if len(r.CharacterName) > 50 {
		return fmt.Errorf("%w: character_name must be at most 50 characters", ErrInvalidRequest)
	}
	return nil
}

// Scene is one planned page: a human-readable description plus the
// fully-formed render prompt. Immutable once planned.
type Scene struct {
	PageNumber  int    `json:"page_number"`
	Description string `json:"description"`
	ImagePrompt string `json:"image_prompt"`
}

// RenderedPage carries the post-processed print image and its thumbnail for
// one scene. A page is either fully rendered or the job has failed; it is
// never partially populated.
type RenderedPage struct {
	Scene     Scene
	Image     []byte
	Thumbnail []byte
}

// PageResult is the published location of one rendered page.
type PageResult struct {
	PageNumber       int    `json:"page_number"`
	SceneDescription string `json:"scene_description"`
	ImageURL         string `json:"image_url"`
	ThumbnailURL     string `json:"thumbnail_url"`
}

// BookResponse is the terminal success payload of a generation job.
type BookResponse struct {
	BookID    string       `json:"book_id"`
	Title     string       `json:"title"`
	Theme     string       `json:"theme"`
	PageCount int          `json:"page_count"`
	Pages     []PageResult `json:"pages"`
	PDFURL    string       `json:"pdf_url"`
	CreatedAt time.Time    `json:"created_at"`
	UserID    string       `json:"user_id"`
}

// BookSummary is the lightweight gallery listing shape.
type BookSummary struct {
	BookID         string    `json:"book_id"`
	Title          string    `json:"title"`
	CoverThumbnail string    `json:"cover_thumbnail"`
	PageCount      int       `json:"page_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Summary derives the gallery listing from a completed book. The cover
// thumbnail is the first page's thumbnail.
func (b *BookResponse) Summary() BookSummary {
	s := BookSummary{
		BookID:    b.BookID,
		Title:     b.Title,
		PageCount: b.PageCount,
		CreatedAt: b.CreatedAt,
	}
	if len(b.Pages) > 0 {
		s.CoverThumbnail = b.Pages[0].ThumbnailURL
	}
	return s
}

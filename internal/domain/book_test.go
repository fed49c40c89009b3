package domain

import (
	"strings"
	"testing"
)

func validRequest() BookRequest {
	return BookRequest{
		Title:     "Luna's Big Adventure",
		Theme:     "a bunny explores a magical forest",
		PageCount: 6,
		AgeRange:  AgeRangeKids,
		ArtStyle:  ArtStyleStandard,
	}
}

func TestBookRequestValidate(t *testing.T) {
	req := validRequest()
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestBookRequestValidateDefaults(t *testing.T) {
	req := BookRequest{Title: "My Book", Theme: "dinosaurs in space"}
	if err := req.Validate(); err != nil {
		t.Fatalf("request with defaults rejected: %v", err)
	}
	if req.PageCount != 6 {
		t.Fatalf("default page count = %d, want 6", req.PageCount)
	}
	if req.AgeRange != AgeRangeKids {
		t.Fatalf("default age range = %q", req.AgeRange)
	}
	if req.ArtStyle != ArtStyleStandard {
		t.Fatalf("default art style = %q", req.ArtStyle)
	}
}

func TestBookRequestValidateBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*BookRequest)
	}{
		{"short title", func(r *BookRequest) { r.Title = "x" }},
		{"long title", func(r *BookRequest) { r.Title = strings.Repeat("a", 81) }},
		{"short theme", func(r *BookRequest) { r.Theme = "cats" }},
		{"long theme", func(r *BookRequest) { r.Theme = strings.Repeat("b", 301) }},
		{"too few pages", func(r *BookRequest) { r.PageCount = 1 }},
		{"too many pages", func(r *BookRequest) { r.PageCount = 13 }},
		{"bad age range", func(r *BookRequest) { r.AgeRange = "13-18" }},
		{"bad art style", func(r *BookRequest) { r.ArtStyle = "photoreal" }},
		{"long character name", func(r *BookRequest) { r.CharacterName = strings.Repeat("c", 51) }},
	}
	for _, tc := range cases {
		req := validRequest()
		tc.mutate(&req)
		if err := req.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestSanitizeTextStripsMarkup(t *testing.T) {
	got := SanitizeText(`<script>alert("x")</script>dragons & <b>castles</b>`)
	if strings.Contains(got, "<") || strings.Contains(got, ">") {
		t.Fatalf("markup survived sanitization: %q", got)
	}
	if !strings.Contains(got, "dragons &amp; castles") {
		t.Fatalf("unexpected sanitized text: %q", got)
	}
}

func TestBookRequestSanitize(t *testing.T) {
	req := BookRequest{
		Title:         "<h1>My Book</h1>",
		Theme:         "a <img src=x> pirate story on the sea",
		CharacterName: "<i>Max</i>",
	}
	req.Sanitize()
	if req.Title != "My Book" {
		t.Fatalf("title = %q", req.Title)
	}
	if strings.Contains(req.Theme, "<") {
		t.Fatalf("theme still has markup: %q", req.Theme)
	}
	if req.CharacterName != "Max" {
		t.Fatalf("character name = %q", req.CharacterName)
	}
}

func TestSummaryUsesFirstPageThumbnail(t *testing.T) {
	book := BookResponse{
		BookID:    "b1",
		Title:     "My Book",
		PageCount: 2,
		Pages: []PageResult{
			{PageNumber: 1, ThumbnailURL: "https://cdn/thumb1.jpg"},
			{PageNumber: 2, ThumbnailURL: "https://cdn/thumb2.jpg"},
		},
	}
	s := book.Summary()
	if s.CoverThumbnail != "https://cdn/thumb1.jpg" {
		t.Fatalf("cover thumbnail = %q", s.CoverThumbnail)
	}
}

func TestJobStatusTerminal(t *testing.T) {
	for status, want := range map[JobStatus]bool{
		JobStatusPending:    false,
		JobStatusGenerating: false,
		JobStatusComplete:   true,
		JobStatusFailed:     true,
	} {
		if got := status.Terminal(); got != want {
			t.Fatalf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

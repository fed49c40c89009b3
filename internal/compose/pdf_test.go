package compose

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"colorbook/internal/domain"
)

func pagePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 26))
	for y := 0; y < 26; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestBuildPDF(t *testing.T) {
	data := pagePNG(t)
	pages := []domain.RenderedPage{
		{Scene: domain.Scene{PageNumber: 1, Description: "Page 1"}, Image: data},
		{Scene: domain.Scene{PageNumber: 2, Description: "Page 2"}, Image: data},
	}

	out, err := BuildPDF("Luna's Big Adventure", pages)
	if err != nil {
		t.Fatalf("BuildPDF error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF: %q", out[:min(16, len(out))])
	}
	if len(out) < 1024 {
		t.Fatalf("suspiciously small PDF: %d bytes", len(out))
	}
}

func TestBuildPDFNoPages(t *testing.T) {
	out, err := BuildPDF("Empty", nil)
	if err != nil {
		t.Fatalf("BuildPDF error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("cover-only document is not a PDF")
	}
}

func TestBuildPDFBadImage(t *testing.T) {
	pages := []domain.RenderedPage{
		{Scene: domain.Scene{PageNumber: 1}, Image: []byte("not a png")},
	}
	if _, err := BuildPDF("Broken", pages); err == nil {
		t.Fatal("expected error for undecodable page image")
	}
}

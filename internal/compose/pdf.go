// Package compose assembles rendered pages into a single print-ready PDF.
package compose

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"

	"colorbook/internal/domain"
)

// US Letter layout, inches.
const (
	pageMargin  = 0.5
	imageWidth  = 7.5
	labelY      = 10.4
	coverTitleY = 3.5
)

// BuildPDF builds the final document: a cover with the book title followed
// by one page per rendered image in page-number order, each scaled to the
// print margin. The document goes through a temporary file, which is removed
// on every exit path.
func BuildPDF(title string, pages []domain.RenderedPage) ([]byte, error) {
	pdf := fpdf.New("P", "in", "Letter", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Cover page.
	pdf.AddPage()
	pdf.SetY(coverTitleY)
	pdf.SetFont("Helvetica", "B", 48)
	pdf.SetTextColor(34, 34, 34)
	pdf.MultiCell(imageWidth, 0.9, tr(title), "", "C", false)
	pdf.Ln(0.2)
	pdf.SetFont("Helvetica", "", 18)
	pdf.SetTextColor(85, 85, 85)
	pdf.MultiCell(imageWidth, 0.4, "My Personal Coloring Book", "", "C", false)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	for _, page := range pages {
		pdf.AddPage()
		name := fmt.Sprintf("page-%02d", page.Scene.PageNumber)
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(page.Image))
		pdf.ImageOptions(name, pageMargin, pageMargin, imageWidth, 0, false, opts, 0, "")
		pdf.SetY(labelY)
		pdf.SetFont("Helvetica", "", 12)
		pdf.SetTextColor(136, 136, 136)
		pdf.CellFormat(imageWidth, 0.25, fmt.Sprintf("Page %d", page.Scene.PageNumber), "", 0, "C", false, 0, "")
	}

	if pdf.Err() {
		return nil, fmt.Errorf("compose: %w", pdf.Error())
	}

	tmp, err := os.CreateTemp("", "colorbook-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("compose: temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("compose: close temp file: %w", err)
	}

	if err := pdf.OutputFileAndClose(tmpPath); err != nil {
		return nil, fmt.Errorf("compose: write pdf: %w", err)
	}
	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("compose: read pdf: %w", err)
	}
	return data, nil
}

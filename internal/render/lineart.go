package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// 300 DPI is professional print standard.
const (
	printDPI       = 300
	letterWidthPx  = 2550 // 8.5in at 300 DPI (US Letter)
	letterHeightPx = 3300 // 11in at 300 DPI
)

// 128 is 50% gray. Lower makes more black (harder to color), higher makes
// more white (lost detail). A tunable constant, never derived per image.
const thresholdBinary = 128

// Thumbnail bounds keep the US Letter aspect ratio.
const (
	thumbMaxWidth  = 400
	thumbMaxHeight = 518
	thumbQuality   = 85
)

// CleanLineArt post-processes a raw generated image into true black/white
// line art at print resolution: grayscale, binary threshold so whites are
// pure #FFFFFF, then a high-quality upscale to US Letter at 300 DPI.
func CleanLineArt(raw []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	bw := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
			if g.Y < thresholdBinary {
				bw.SetGray(x, y, color.Gray{Y: 0})
			} else {
				bw.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, letterWidthPx, letterHeightPx))
	draw.CatmullRom.Scale(dst, dst.Bounds(), bw, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}
	return buf.Bytes(), nil
}

// MakeThumbnail derives a small proportional JPEG preview from a cleaned page.
func MakeThumbnail(cleaned []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	scale := minFloat(float64(thumbMaxWidth)/float64(w), float64(thumbMaxHeight)/float64(h))
	if scale > 1 {
		scale = 1
	}
	tw, th := int(float64(w)*scale), int(float64(h)*scale)
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Package ocr turns a rendered browser page into plain text: full-page
// screenshot → image preprocessing → Tesseract.
package ocr

import (
	"bytes"
	"image"
	"image/color"
	"log/slog"
	"os"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/otiai10/gosseract/v2"

	"github.com/siddarth24/joblo/config"
)

// Extractor captures and recognizes page text. OCR failure is "no signal",
// not an error: every failure path returns the empty string and the caller's
// empty-extraction handling takes over.
type Extractor struct {
	cfg config.OCRConfig
}

// NewExtractor creates an Extractor with the given preprocessing settings.
func NewExtractor(cfg config.OCRConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// TextFromPage screenshots the full page and runs the OCR chain over it.
// The screenshot is written to a transient temp file for Tesseract and
// removed before returning, success or failure — no images persist.
func (e *Extractor) TextFromPage(page *rod.Page) string {
	shot, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		slog.Warn("screenshot capture failed", "error", err)
		return ""
	}

	img, err := imaging.Decode(bytes.NewReader(shot))
	if err != nil {
		slog.Warn("screenshot decode failed", "error", err)
		return ""
	}

	processed := e.Preprocess(img)

	tmp, err := os.CreateTemp("", "joblo-shot-*.png")
	if err != nil {
		slog.Warn("temp screenshot file creation failed", "error", err)
		return ""
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	encodeErr := imaging.Encode(tmp, processed, imaging.PNG)
	closeErr := tmp.Close()
	if encodeErr != nil || closeErr != nil {
		slog.Warn("processed screenshot encode failed",
			"encodeError", encodeErr, "closeError", closeErr)
		return ""
	}

	text, err := e.recognize(tmpPath)
	if err != nil {
		slog.Warn("OCR recognition failed", "error", err)
		return ""
	}
	return text
}

// Preprocess applies the OCR-accuracy pipeline in order: grayscale,
// contrast boost, sharpen, upscale, binary threshold.
func (e *Extractor) Preprocess(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, e.cfg.ContrastBoost)
	gray = imaging.Sharpen(gray, 1.0)

	w := int(float64(gray.Bounds().Dx()) * e.cfg.UpscaleFactor)
	h := int(float64(gray.Bounds().Dy()) * e.cfg.UpscaleFactor)
	if w > 0 && h > 0 {
		gray = imaging.Resize(gray, w, h, imaging.Lanczos)
	}

	return Binarize(gray, e.cfg.BinaryThreshold)
}

// Binarize maps every pixel to pure black or white around the cutoff,
// maximizing text/background separation for Tesseract.
func Binarize(img image.Image, cutoff uint8) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// Luma from 16-bit channels, scaled back to 8 bits.
			luma := uint8(((299*r + 587*g + 114*b) / 1000) >> 8)
			if luma >= cutoff {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// recognize runs Tesseract over the processed image, configured for a
// single uniform block of text (PSM 6).
func (e *Extractor) recognize(path string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if e.cfg.Language != "" {
		if err := client.SetLanguage(e.cfg.Language); err != nil {
			return "", err
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", err
	}
	if err := client.SetImage(path); err != nil {
		return "", err
	}
	return client.Text()
}

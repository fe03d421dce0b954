// Package ocr reads the text of a corrected document with Tesseract.
package ocr

import (
	"fmt"
	"image"
	"strings"

	"doc-rectifier/internal/raster"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// minTextHeight is the smallest page dimension passed to Tesseract; smaller
// pages are upscaled first.
const minTextHeight = 150

// Engine provides OCR functionality using Tesseract.
type Engine struct {
	client    *gosseract.Client
	binarize  bool
	pageSeg   gosseract.PageSegMode
	languages []string
}

// NewEngine creates an OCR engine for the given Tesseract languages
// ("eng" when none are given).
func NewEngine(languages ...string) (*Engine, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	return &Engine{
		client:    client,
		binarize:  true,
		pageSeg:   gosseract.PSM_AUTO,
		languages: languages,
	}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// SetBinarize enables/disables Otsu binarization before recognition.
func (e *Engine) SetBinarize(enabled bool) {
	e.binarize = enabled
}

// SetPageSegMode sets the Tesseract page segmentation mode.
func (e *Engine) SetPageSegMode(mode gosseract.PageSegMode) {
	e.pageSeg = mode
}

// Languages returns the configured Tesseract languages.
func (e *Engine) Languages() []string {
	return e.languages
}

// Recognize returns the text of a corrected page with whitespace collapsed
// within each line.
func (e *Engine) Recognize(page *raster.Buffer) (string, error) {
	if err := e.load(page); err != nil {
		return "", err
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return cleanText(text), nil
}

// Word is one recognized word.
type Word struct {
	Text       string
	Bounds     image.Rectangle // in preprocessed page pixels
	Confidence float64
}

// Words returns every recognized word with its bounding box.
func (e *Engine) Words(page *raster.Buffer) ([]Word, error) {
	if err := e.load(page); err != nil {
		return nil, err
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get boxes: %w", err)
	}

	var words []Word
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		words = append(words, Word{Text: text, Bounds: box.Box, Confidence: box.Confidence})
	}
	return words, nil
}

func (e *Engine) load(page *raster.Buffer) error {
	if page == nil || page.Width == 0 || page.Height == 0 {
		return fmt.Errorf("empty image")
	}

	src, err := gocv.NewMatFromBytes(page.Height, page.Width, gocv.MatTypeCV8UC4, page.Pix)
	if err != nil {
		return fmt.Errorf("failed to wrap image: %w", err)
	}
	defer src.Close()

	processed := preprocessForOCR(src, e.binarize)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetPageSegMode(e.pageSeg); err != nil {
		return fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return fmt.Errorf("failed to set image: %w", err)
	}
	return nil
}

// preprocessForOCR converts an RGBA page to grayscale, upscales small pages
// and optionally binarizes with dark text on a light background.
func preprocessForOCR(rgba gocv.Mat, binarize bool) gocv.Mat {
	gray := gocv.NewMat()
	gocv.CvtColor(rgba, &gray, gocv.ColorRGBAToGray)

	if minDim := min(gray.Rows(), gray.Cols()); minDim < minTextHeight {
		scale := float64(minTextHeight) / float64(minDim)
		scaled := gocv.NewMat()
		gocv.Resize(gray, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
		gray.Close()
		gray = scaled
	}

	if !binarize {
		return gray
	}

	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	gray.Close()

	// Tesseract expects dark text on a light page.
	if white := gocv.CountNonZero(binary); white*2 < binary.Rows()*binary.Cols() {
		gocv.BitwiseNot(binary, &binary)
	}
	return binary
}

// cleanText trims each line, collapses runs of spaces and drops blank lines.
func cleanText(s string) string {
	var lines []string
	for _, l := range splitLines(s) {
		lines = append(lines, strings.Join(strings.Fields(l), " "))
	}
	return strings.Join(lines, "\n")
}

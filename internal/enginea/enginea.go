// Package enginea wraps Tesseract (Engine-A), the fast CPU-only OCR pass
// run in Phase-1 over pages whose existing text is missing or flagged
// (spec.md §4.7). Grounded on the
// teacher's TesseractOCR processor, backed by
// github.com/otiai10/gosseract/v2 and reading page images through
// internal/pdfdoc since gosseract operates on raster images, not PDFs.
package enginea

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/scholardoc/scholarocr/internal/types"
)

const renderDPI = 200

// Config configures the Tesseract client.
type Config struct {
	Languages []string // gosseract language codes, e.g. "eng", "deu", "fra", "lat", "grc"
	DataPath  string    // tessdata directory; empty uses gosseract's default search
}

// OCR runs Tesseract over rendered page images.
type OCR struct {
	cfg Config
}

// New constructs an Engine-A OCR wrapper.
func New(cfg Config) *OCR {
	return &OCR{cfg: cfg}
}

// PageSource renders a single page to an image, decoupling this package
// from internal/pdfdoc's concrete type so it can be faked in tests.
type PageSource interface {
	RenderPageImage(index int, dpi int) (image.Image, error)
}

// PageOutput is one page's Engine-A result: recognized text and the
// per-token confidences the engine-confidence quality signal consumes.
type PageOutput struct {
	Text       string
	Confidence []types.TokenConfidence
}

// ProcessPage renders pageIndex from src and OCRs it with Tesseract.
func (o *OCR) ProcessPage(ctx context.Context, src PageSource, pageIndex int) (*PageOutput, error) {
	img, err := src.RenderPageImage(pageIndex, renderDPI)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", pageIndex, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page %d image: %w", pageIndex, err)
	}

	return o.processImage(ctx, buf.Bytes())
}

func (o *OCR) processImage(ctx context.Context, imageData []byte) (*PageOutput, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if o.cfg.DataPath != "" {
		client.TessdataPrefix = &o.cfg.DataPath
	}
	if len(o.cfg.Languages) > 0 {
		if err := client.SetLanguage(o.cfg.Languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}

	if err := client.SetImageFromBytes(imageData); err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	// Word-level extraction requires HOCR parsing; gosseract's plain
	// Text() call (matching the teacher's tesseract_ocr.go usage) gives us
	// no per-word boxes, so confidence is estimated heuristically instead.
	confidence := calculateFallbackConfidence(text)

	return &PageOutput{Text: strings.TrimSpace(text), Confidence: confidence}, nil
}

// calculateFallbackConfidence approximates per-token confidence when
// gosseract's bounding-box API is unavailable, assigning every token the
// same heuristic score derived from the proportion of recognizable
// characters (teacher's calculateTesseractConfidence heuristic, adapted
// to per-token output instead of a single page-level figure).
func calculateFallbackConfidence(text string) []types.TokenConfidence {
	fields := strings.Fields(text)
	out := make([]types.TokenConfidence, 0, len(fields))
	for _, w := range fields {
		out = append(out, types.TokenConfidence{Text: w, Confidence: heuristicWordConfidence(w)})
	}
	return out
}

func heuristicWordConfidence(word string) int {
	if word == "" {
		return 0
	}
	alnum := 0
	for _, r := range word {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			alnum++
		}
	}
	ratio := float64(alnum) / float64(len([]rune(word)))
	return int(ratio * 85) // heuristic ceiling below genuine engine confidence
}

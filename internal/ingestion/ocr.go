package ingestion

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractOCR runs OCR on images and scanned PDFs using a local Tesseract
// install. PDFs are converted to PNGs with pdftoppm (poppler).
type TesseractOCR struct{}

func NewTesseractOCR() *TesseractOCR { return &TesseractOCR{} }

func (t *TesseractOCR) ExtractImage(ctx context.Context, path string) (string, error) {
	return runTesseract(path)
}

func (t *TesseractOCR) ExtractPDF(ctx context.Context, path string) (string, error) {
	// a fresh directory per call keeps concurrent conversions apart and
	// stops stale pages of a longer document bleeding into this one
	dir, err := os.MkdirTemp("", "docqa_pdfimg")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	cmd := exec.CommandContext(ctx, "pdftoppm", "-png", path, filepath.Join(dir, "page"))
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftoppm convert failed: %w", err)
	}
	matches, err := pageImages(dir)
	if err != nil {
		return "", err
	}
	var combined strings.Builder
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := runTesseract(m)
		if err != nil {
			continue
		}
		combined.WriteString(text)
		combined.WriteString("\n")
	}
	return strings.TrimSpace(combined.String()), nil
}

// pageImages returns the rendered page images of one conversion directory in
// page order (pdftoppm zero-pads page numbers, so the sorted glob is ordered).
func pageImages(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "page-*.png"))
}

func runTesseract(imgPath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetImage(imgPath); err != nil {
		return "", err
	}
	text, err := client.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// MockOCR is the no-op fallback used when no OCR backend is available. It
// returns placeholder text so ingestion of a batch never aborts on OCR.
type MockOCR struct{}

func NewMockOCR() *MockOCR { return &MockOCR{} }

func (m *MockOCR) ExtractImage(ctx context.Context, path string) (string, error) {
	return fmt.Sprintf("[mock ocr] %s", filepath.Base(path)), nil
}

func (m *MockOCR) ExtractPDF(ctx context.Context, path string) (string, error) {
	return fmt.Sprintf("[mock ocr] %s", filepath.Base(path)), nil
}

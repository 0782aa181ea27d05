package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docqa/agent/internal/domain"
)

// OCREngine extracts text from images and scanned PDFs.
type OCREngine interface {
	ExtractImage(ctx context.Context, path string) (string, error)
	ExtractPDF(ctx context.Context, path string) (string, error)
}

// FileExtractor detects file type and returns text via direct extraction or OCR.
type FileExtractor struct {
	OCR OCREngine
}

func NewFileExtractor(ocr OCREngine) *FileExtractor {
	return &FileExtractor{OCR: ocr}
}

func (e *FileExtractor) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
		}
		return string(b), nil
	case ".pdf":
		// try the text layer first, OCR only scanned documents
		text, err := ExtractTextFromPDF(path)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		return e.OCR.ExtractPDF(ctx, path)
	case ".png", ".jpg", ".jpeg":
		return e.OCR.ExtractImage(ctx, path)
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", domain.ErrExtraction, ext)
	}
}

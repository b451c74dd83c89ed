package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"code.sajari.com/docconv"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// fitzTextStrategy reads the PDF text layer page by page.
type fitzTextStrategy struct{}

func (fitzTextStrategy) Name() string { return "fitz" }

func (fitzTextStrategy) Extract(ctx context.Context, content []byte) (string, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", n+1, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// ocrStrategy renders each page with fitz and runs tesseract on the image.
// Used for scanned resumes without a text layer.
type ocrStrategy struct {
	runner    Runner
	tesseract string
	languages string
	maxPages  int
	logger    *zap.Logger
}

func (s *ocrStrategy) Name() string { return "ocr" }

func (s *ocrStrategy) Extract(ctx context.Context, content []byte) (string, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if s.maxPages > 0 && pages > s.maxPages {
		s.logger.Info("ocr page limit applied", zap.Int("pages", pages), zap.Int("max_pages", s.maxPages))
		pages = s.maxPages
	}

	var fullText bytes.Buffer
	var lastErr error

	for n := 0; n < pages; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		img, err := doc.Image(n)
		if err != nil {
			lastErr = fmt.Errorf("page %d: failed to extract image: %w", n+1, err)
			continue
		}

		pageText, err := s.recognize(ctx, img)
		if err != nil {
			lastErr = fmt.Errorf("page %d: %w", n+1, err)
			s.logger.Debug("ocr page failed", zap.Int("page", n+1), zap.Error(err))
			continue
		}

		if pageText != "" {
			fullText.WriteString(pageText)
			fullText.WriteString("\n\n")
		}
	}

	result := strings.TrimSpace(fullText.String())
	if result == "" && lastErr != nil {
		return "", fmt.Errorf("failed to extract text via OCR: %w", lastErr)
	}
	return result, nil
}

func (s *ocrStrategy) recognize(ctx context.Context, img image.Image) (string, error) {
	tmpFile, err := os.CreateTemp("", "page-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmpFile, img); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to write PNG: %w", err)
	}

	args := []string{tmpPath, "stdout"}
	if s.languages != "" {
		args = append(args, "-l", s.languages)
	}
	out, stderr, err := s.runner.Run(ctx, s.tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract error: %w, output: %s", err, strings.TrimSpace(string(stderr)))
	}
	return strings.TrimSpace(string(out)), nil
}

// docconvStrategy adapts a docconv converter.
type docconvStrategy struct {
	name    string
	convert func(content []byte) (string, error)
}

func (s docconvStrategy) Name() string { return s.name }

func (s docconvStrategy) Extract(ctx context.Context, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.convert(content)
}

// convertPDF uses pdftotext through docconv, which keeps the page layout.
func convertPDF(content []byte) (string, error) {
	text, _, err := docconv.ConvertPDF(bytes.NewReader(content))
	return text, err
}

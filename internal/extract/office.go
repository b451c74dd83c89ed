package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"code.sajari.com/docconv"
)

// DOCX and PPTX text comes out in document order: paragraphs for DOCX,
// slide shapes for PPTX.
func convertDocx(content []byte) (string, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(content))
	return text, err
}

func convertPptx(content []byte) (string, error) {
	text, _, err := docconv.ConvertPptx(bytes.NewReader(content))
	return text, err
}

func convertDoc(content []byte) (string, error) {
	text, _, err := docconv.ConvertDoc(bytes.NewReader(content))
	return text, err
}

// antiwordStrategy reads legacy .doc files with the antiword binary.
type antiwordStrategy struct {
	runner Runner
	bin    string
}

func (s *antiwordStrategy) Name() string { return "antiword" }

func (s *antiwordStrategy) Extract(ctx context.Context, content []byte) (string, error) {
	tmpFile, err := os.CreateTemp("", "resume-*.doc")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	out, stderr, err := s.runner.Run(ctx, s.bin, tmpPath)
	if err != nil {
		return "", fmt.Errorf("antiword error: %w, output: %s", err, strings.TrimSpace(string(stderr)))
	}
	return string(out), nil
}

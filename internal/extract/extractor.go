package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/config"
	"github.com/fadilmartias/resume-pipeline/internal/logger"
	"go.uber.org/zap"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOC  Format = "doc"
	FormatDOCX Format = "docx"
	FormatPPTX Format = "pptx"
	FormatTXT  Format = "txt"
)

var supportedFormats = map[Format]struct{}{
	FormatPDF:  {},
	FormatDOC:  {},
	FormatDOCX: {},
	FormatPPTX: {},
	FormatTXT:  {},
}

// FormatFromFilename returns the format implied by the file extension.
func FormatFromFilename(name string) (Format, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	f := Format(ext)
	_, ok := supportedFormats[f]
	return f, ok
}

// RawDocument is a stored upload. The extractor never modifies Content.
type RawDocument struct {
	Name    string
	Format  Format
	Content []byte
}

// Text is normalized document text and the strategy that produced it.
type Text struct {
	Content  string
	Source   string
	Format   Format
	Strategy string
}

// Strategy turns document bytes into raw text.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, content []byte) (string, error)
}

// FailedError aggregates the error of every strategy tried for one document.
type FailedError struct {
	Format Format
	Errors []string
}

func (e *FailedError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("failed to extract text from %s: no strategy produced text", e.Format)
	}
	return fmt.Sprintf("failed to extract text from %s using available strategies. errors: %s",
		e.Format, strings.Join(e.Errors, "; "))
}

type Extractor struct {
	strategies map[Format][]Strategy
	logger     *zap.Logger
}

type Option func(*Extractor)

// WithStrategies replaces the ordered strategy list for a format.
func WithStrategies(f Format, strategies ...Strategy) Option {
	return func(e *Extractor) {
		e.strategies[f] = strategies
	}
}

func New(cfg *config.ExtractorConfig, log *zap.Logger, opts ...Option) *Extractor {
	return NewWithRunner(cfg, ExecRunner{Logger: log}, log, opts...)
}

func NewWithRunner(cfg *config.ExtractorConfig, runner Runner, log *zap.Logger, opts ...Option) *Extractor {
	log = logger.OrNop(log)
	ocr := &ocrStrategy{
		runner:    runner,
		tesseract: cfg.Tesseract,
		languages: cfg.OCRLanguages,
		maxPages:  cfg.MaxOCRPages,
		logger:    log,
	}
	e := &Extractor{
		strategies: map[Format][]Strategy{
			FormatPDF:  {fitzTextStrategy{}, docconvStrategy{name: "pdftotext", convert: convertPDF}, ocr},
			FormatDOCX: {docconvStrategy{name: "docx", convert: convertDocx}},
			FormatPPTX: {docconvStrategy{name: "pptx", convert: convertPptx}},
			FormatDOC:  {&antiwordStrategy{runner: runner, bin: cfg.Antiword}, docconvStrategy{name: "wvtext", convert: convertDoc}},
			FormatTXT:  {plainTextStrategy{}},
		},
		logger: log,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract tries each strategy for the document's format in order and returns
// the first non-empty normalized result.
func (e *Extractor) Extract(ctx context.Context, doc RawDocument) (*Text, error) {
	const op = "extract.Extract"

	strategies, ok := e.strategies[doc.Format]
	if !ok {
		return nil, apperror.Wrap(apperror.KindUnsupportedFormat, op, apperror.ErrUnsupportedFormat,
			fmt.Sprintf("format %q of %s", doc.Format, doc.Name))
	}

	failed := &FailedError{Format: doc.Format}
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, apperror.Wrap(apperror.KindExtraction, op, err, "extraction cancelled")
		}

		raw, err := s.Extract(ctx, doc.Content)
		if err != nil {
			e.logger.Debug("extraction strategy failed",
				zap.String("document", doc.Name),
				zap.String("strategy", s.Name()),
				zap.Error(err),
			)
			failed.Errors = append(failed.Errors, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}

		text := Normalize(raw)
		if text == "" {
			failed.Errors = append(failed.Errors, fmt.Sprintf("%s: %v", s.Name(), apperror.ErrEmptyText))
			continue
		}

		e.logger.Info("document extracted",
			zap.String("document", doc.Name),
			zap.String("strategy", s.Name()),
			zap.Int("chars", len([]rune(text))),
		)
		return &Text{Content: text, Source: doc.Name, Format: doc.Format, Strategy: s.Name()}, nil
	}

	e.logger.Warn("document extraction failed", zap.String("document", doc.Name), zap.Error(failed))
	return nil, apperror.Wrap(apperror.KindExtraction, op, failed, doc.Name)
}

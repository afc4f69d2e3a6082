package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gardar/ocrchestra/pkg/hocr"
	"github.com/rs/zerolog"

	"github.com/lexvault/lexvault/pkg/logging"
)

// Config carries every knob the pipeline needs. It is passed in explicitly so
// the engine never reads ambient process state and can run against fakes.
type Config struct {
	// Languages is the ordered Tesseract language list (joined for
	// multi-language recognition). Default: French then English.
	Languages []string
	// TessdataPrefix optionally overrides where the recognition engine looks
	// for its trained data.
	TessdataPrefix string
	// DPI is the rasterization resolution for recognition. 300 is the sweet
	// spot for Tesseract accuracy on office documents.
	DPI float64
	// LinesPerPage controls pagination when synthesizing a PDF from plain
	// text, sized for the fixed A4 geometry and font below.
	LinesPerPage int
	// TempDir is where temporary artifacts are written ("" = os.TempDir).
	TempDir string
	// Recognizer overrides the page recognizer; nil selects Tesseract.
	Recognizer Recognizer
}

// DefaultConfig returns the production pipeline settings.
func DefaultConfig() Config {
	return Config{
		Languages:    []string{"fra", "eng"},
		DPI:          300,
		LinesPerPage: 55,
	}
}

// PageRecognition is the outcome of recognizing a single page image: the
// plain transcript plus the positioned word layout used to build the
// invisible text layer of the searchable PDF.
type PageRecognition struct {
	Text string
	Page hocr.Page
}

// Recognizer turns one encoded page image into recognized text. Implemented
// by Tesseract in production and by fakes in tests.
type Recognizer interface {
	Recognize(ctx context.Context, pngImage []byte, pageNumber int) (PageRecognition, error)
}

// Engine routes files to the right extraction strategy and produces the
// uniform (text, artifact, error) result for every format.
type Engine struct {
	cfg Config
	rec Recognizer
	log zerolog.Logger
}

// NewEngine builds an engine from the given configuration.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if len(cfg.Languages) == 0 {
		cfg.Languages = def.Languages
	}
	if cfg.DPI <= 0 {
		cfg.DPI = def.DPI
	}
	if cfg.LinesPerPage <= 0 {
		cfg.LinesPerPage = def.LinesPerPage
	}
	rec := cfg.Recognizer
	if rec == nil {
		rec = NewTesseractRecognizer(cfg.Languages, cfg.TessdataPrefix)
	}
	return &Engine{
		cfg: cfg,
		rec: rec,
		log: logging.GetLogger("extractor"),
	}
}

// Extract runs the pipeline for one file. It never panics or returns partial
// text together with a fatal error: every failure mode is folded into the
// Result contract.
func (e *Engine) Extract(ctx context.Context, path string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("path", path).Interface("panic", r).Msg("extraction panicked")
			res = Result{Err: fmt.Sprintf("system error during extraction: %v", r)}
		}
	}()

	switch DetectFormat(path) {
	case FormatPDF:
		return e.extractPDF(ctx, path)
	case FormatDOCX:
		return e.withSynthesizedArtifact(extractDOCX(path))
	case FormatDOC:
		return Result{Err: "legacy .doc format is not supported; convert the file to .docx before uploading"}
	case FormatImage:
		return e.extractImage(ctx, path)
	case FormatText:
		return e.withSynthesizedArtifact(readTextFile(path))
	default:
		return Result{Err: unsupportedFormatError(strings.ToLower(filepath.Ext(path))).Error()}
	}
}

// extractPDF tries the cheap direct-text path first, then always runs the
// rasterize+recognize pass: even text-bearing PDFs get a fresh searchable
// rendition, because their embedded text layer is not guaranteed to survive
// downstream viewers. Direct text wins as the transcript when both exist.
func (e *Engine) extractPDF(ctx context.Context, path string) Result {
	direct, directErr := extractPDFText(path)
	if directErr != nil {
		// A malformed PDF may still render as images, so parse failures fall
		// through to recognition instead of failing here.
		e.log.Warn().Err(directErr).Str("path", path).Msg("direct PDF text extraction failed, falling back to recognition")
	}

	recognized, artifact, recErr := e.rasterizeAndRecognize(ctx, path)

	if directErr == nil && strings.TrimSpace(direct) != "" {
		if recErr != nil {
			e.log.Warn().Err(recErr).Str("path", path).Msg("recognition pass failed, keeping direct text without artifact")
		}
		return Result{Text: direct, Artifact: artifact}
	}

	if recErr != nil {
		return Result{Err: recErr.Error()}
	}
	return Result{Text: recognized, Artifact: artifact}
}

// withSynthesizedArtifact finishes the text and Word paths: the extracted
// text has no scan to rasterize, so the searchable rendition is synthesized.
// Artifact synthesis failure is secondary and never fails the run.
func (e *Engine) withSynthesizedArtifact(text string, err error) Result {
	if err != nil {
		return Result{Err: err.Error()}
	}
	artifact, synthErr := e.SynthesizePDF(text)
	if synthErr != nil {
		e.log.Warn().Err(synthErr).Msg("searchable PDF synthesis failed, keeping plain text")
		return Result{Text: text}
	}
	return Result{Text: text, Artifact: artifact}
}

// Languages returns the configured recognition language list.
func (e *Engine) Languages() []string {
	return append([]string(nil), e.cfg.Languages...)
}

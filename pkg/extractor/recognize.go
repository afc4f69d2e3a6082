//go:build ocr
// +build ocr

package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/gardar/ocrchestra/pkg/hocr"
	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer recognizes page images with a locally linked Tesseract.
// A fresh client per page keeps the recognizer safe for concurrent pages and
// avoids Tesseract's cross-image state.
type TesseractRecognizer struct {
	Languages      []string
	TessdataPrefix string
}

// NewTesseractRecognizer creates the production recognizer. The language list
// is ordered and joined for multi-language recognition.
func NewTesseractRecognizer(languages []string, tessdataPrefix string) *TesseractRecognizer {
	if len(languages) == 0 {
		languages = []string{"fra", "eng"}
	}
	return &TesseractRecognizer{
		Languages:      languages,
		TessdataPrefix: tessdataPrefix,
	}
}

// Recognize runs Tesseract over one page image and returns both the plain
// transcript and the positioned hOCR page for the searchable overlay.
func (r *TesseractRecognizer) Recognize(ctx context.Context, pngImage []byte, pageNumber int) (PageRecognition, error) {
	if err := ctx.Err(); err != nil {
		return PageRecognition{}, err
	}
	if len(pngImage) == 0 {
		return PageRecognition{}, &ProcessingError{Message: "no image content provided for recognition"}
	}

	client := gosseract.NewClient()
	defer client.Close()

	if r.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(r.TessdataPrefix); err != nil {
			return PageRecognition{}, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(r.Languages...); err != nil {
		return PageRecognition{}, fmt.Errorf("set recognition languages %q: %w", strings.Join(r.Languages, "+"), err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return PageRecognition{}, fmt.Errorf("set page segmentation mode: %w", err)
	}
	// Layout mode that keeps inter-word spacing intact in the transcript.
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		return PageRecognition{}, fmt.Errorf("set recognition variables: %w", err)
	}
	if err := client.SetImageFromBytes(pngImage); err != nil {
		return PageRecognition{}, fmt.Errorf("set page image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return PageRecognition{}, fmt.Errorf("recognize page %d: %w", pageNumber, err)
	}
	text = normalizeLineEndings(strings.TrimSpace(text))

	hocrHTML, err := client.HOCRText()
	if err != nil {
		return PageRecognition{}, fmt.Errorf("generate hOCR for page %d: %w", pageNumber, err)
	}
	parsed, err := hocr.ParseHOCR([]byte(hocrHTML))
	if err != nil {
		return PageRecognition{}, fmt.Errorf("parse hOCR for page %d: %w", pageNumber, err)
	}
	if len(parsed.Pages) == 0 {
		return PageRecognition{}, &ProcessingError{Message: fmt.Sprintf("hOCR output for page %d contains no page element", pageNumber)}
	}

	page := parsed.Pages[0]
	page.PageNumber = pageNumber
	return PageRecognition{Text: text, Page: page}, nil
}

//go:build !ocr
// +build !ocr

package extractor

import (
	"context"
)

// TesseractRecognizer is the no-OCR build of the page recognizer, compiled
// when the ocr build tag is absent so the server still builds on machines
// without the Tesseract libraries. Direct text, Word, and plain-text paths
// keep working; only recognition itself is unavailable.
type TesseractRecognizer struct {
	Languages      []string
	TessdataPrefix string
}

// NewTesseractRecognizer creates the fallback recognizer.
func NewTesseractRecognizer(languages []string, tessdataPrefix string) *TesseractRecognizer {
	return &TesseractRecognizer{
		Languages:      languages,
		TessdataPrefix: tessdataPrefix,
	}
}

// Recognize reports that recognition support is not compiled in.
func (r *TesseractRecognizer) Recognize(ctx context.Context, pngImage []byte, pageNumber int) (PageRecognition, error) {
	return PageRecognition{}, &ProcessingError{
		Message: "optical character recognition requires a build with the ocr tag and Tesseract installed (apt install tesseract-ocr tesseract-ocr-fra)",
	}
}

package extractor

import (
	"fmt"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Fixed page geometry for synthesized PDFs: A4 portrait, 15mm margins,
// Helvetica 10pt, 55 lines per page.
const (
	synthMarginMM    = 15.0
	synthPageHeight  = 297.0
	synthFontSize    = 10.0
	synthLineHeight  = (synthPageHeight - 2*synthMarginMM) / 55
	synthPlaceholder = "No text could be extracted from this document.\n\n" +
		"Likely causes: the file is an image-only scan whose content could not be recognized, " +
		"the file is empty, or the source format carries no machine-readable text."
)

// SynthesizePDF paginates arbitrary plain text into an A4 PDF so that text
// and Word sources, which have no native page concept, still yield a
// searchable rendition. Empty or whitespace-only input produces a fixed
// placeholder page instead of a blank-looking document. This function does
// not panic; any internal failure is returned as an error.
func (e *Engine) SynthesizePDF(text string) (artifact *Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			artifact = nil
			err = fmt.Errorf("PDF synthesis failed: %v", r)
		}
	}()

	if strings.TrimSpace(text) == "" {
		text = synthPlaceholder
	}
	lines := strings.Split(normalizeLineEndings(text), "\n")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(synthMarginMM, synthMarginMM, synthMarginMM)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", synthFontSize)
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	perPage := e.cfg.LinesPerPage
	for start := 0; start < len(lines); start += perPage {
		end := start + perPage
		if end > len(lines) {
			end = len(lines)
		}
		pdf.AddPage()
		y := synthMarginMM + synthLineHeight
		for _, line := range lines[start:end] {
			pdf.Text(synthMarginMM, y, translate(line))
			y += synthLineHeight
		}
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("lay out synthesized PDF: %w", err)
	}

	out, err := os.CreateTemp(e.cfg.TempDir, "ocr-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create artifact file: %w", err)
	}
	path := out.Name()
	if err := out.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close artifact file: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write synthesized PDF: %w", err)
	}
	return &Artifact{Path: path}, nil
}

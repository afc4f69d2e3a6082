package extractor

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDFText reads the embedded text layer of a PDF without rasterizing.
// Cheap and exact when the PDF carries real text objects; returns an error
// for corrupt structures so the caller can fall back to recognition. The pdf
// library panics on some malformed inputs, so the panic is converted to an
// error at this boundary.
func extractPDFText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ProcessingError{Message: fmt.Sprintf("PDF text layer parsing failed: %v", r)}
		}
	}()

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read PDF file: %w", err)
	}
	if len(content) < 4 || string(content[:4]) != "%PDF" {
		return "", &ProcessingError{Message: "not a valid PDF file: missing %PDF header"}
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", &ProcessingError{Message: fmt.Sprintf("failed to parse PDF: %v", err)}
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// One unreadable page must not sink the direct path.
			continue
		}
		builder.WriteString(pageText)
		builder.WriteString("\n\n")
	}

	return strings.TrimSpace(builder.String()), nil
}

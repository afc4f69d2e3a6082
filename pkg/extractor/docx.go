package extractor

import (
	"fmt"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// extractDOCX pulls text out of a Word (.docx) container, including table
// cell content, which the document body XML interleaves with paragraphs.
func extractDOCX(path string) (string, error) {
	reader, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", &ProcessingError{Message: fmt.Sprintf("failed to open Word document: %v", err)}
	}
	defer reader.Close()

	content := reader.Editable().GetContent()
	text := strings.TrimSpace(flattenDocumentXML(content))
	return normalizeLineEndings(text), nil
}

// flattenDocumentXML reduces word/document.xml markup to plain text. Paragraph
// and row boundaries become newlines so the reading order survives.
func flattenDocumentXML(markup string) string {
	markup = strings.ReplaceAll(markup, "</w:p>", "\n")
	markup = strings.ReplaceAll(markup, "</w:tr>", "\n")
	markup = strings.ReplaceAll(markup, "<w:tab/>", "\t")
	markup = strings.ReplaceAll(markup, "<w:br/>", "\n")

	var builder strings.Builder
	inTag := false
	for _, ch := range markup {
		switch {
		case ch == '<':
			inTag = true
		case ch == '>':
			inTag = false
		case !inTag:
			builder.WriteRune(ch)
		}
	}
	return builder.String()
}

func normalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

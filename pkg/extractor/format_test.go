package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"contrat.pdf", FormatPDF},
		{"CONTRAT.PDF", FormatPDF},
		{"conclusions.docx", FormatDOCX},
		{"ancien.doc", FormatDOC},
		{"note.txt", FormatText},
		{"scan.jpg", FormatImage},
		{"scan.JPEG", FormatImage},
		{"scan.png", FormatImage},
		{"scan.tiff", FormatImage},
		{"scan.bmp", FormatImage},
		{"scan.gif", FormatImage},
		{"archive.zip", FormatUnknown},
		{"sans_extension", FormatUnknown},
		{"/un/chemin/vers/piece.pdf", FormatPDF},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.path))
		})
	}
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "pdf", FormatPDF.String())
	assert.Equal(t, "docx", FormatDOCX.String())
	assert.Equal(t, "doc", FormatDOC.String())
	assert.Equal(t, "image", FormatImage.String())
	assert.Equal(t, "text", FormatText.String())
	assert.Equal(t, "unknown", FormatUnknown.String())
}

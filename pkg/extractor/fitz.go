package extractor

import (
	"github.com/gen2brain/go-fitz"
)

// openRasterizer opens a document for page rendering. MuPDF handles both real
// PDFs and many almost-PDF byte streams, which is what makes the corrupt-PDF
// fallback path viable.
func openRasterizer(path string) (*fitz.Document, error) {
	return fitz.New(path)
}

package extractor

import (
	"path/filepath"
	"strings"
)

// Format identifies the extraction strategy chosen for an input file.
// Dispatch is a closed enum so adding a format forces every switch over
// Format to be revisited.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatDOCX
	// FormatDOC is the legacy binary Word format. It is recognized so the
	// router can report a precise error, but never extracted.
	FormatDOC
	FormatImage
	FormatText
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".tiff": {},
	".bmp":  {},
	".gif":  {},
}

// DetectFormat classifies a file path by its lowercase extension.
func DetectFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".doc":
		return FormatDOC
	case ".txt":
		return FormatText
	}
	if _, ok := imageExtensions[ext]; ok {
		return FormatImage
	}
	return FormatUnknown
}

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	case FormatDOC:
		return "doc"
	case FormatImage:
		return "image"
	case FormatText:
		return "text"
	default:
		return "unknown"
	}
}

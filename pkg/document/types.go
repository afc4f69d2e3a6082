package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SearchablePrefix marks version files that were produced by the OCR pipeline
// rather than uploaded by a user. Downstream tooling relies on this name to
// locate the searchable rendition of a document, so it must not change.
const SearchablePrefix = "Searchable_"

// OCRVersionComment is stored on every pipeline-generated version so it can be
// told apart from user uploads in version history views.
const OCRVersionComment = "Searchable PDF rendition generated by the OCR pipeline"

// Document is an uploaded file under management, together with the state of
// its text-extraction run. OCRProcessed is true once a pipeline run has
// completed regardless of outcome; OCRError is non-empty only on failure.
type Document struct {
	ID          string `json:"id" gorm:"primaryKey"`
	CaseID      string `json:"case_id" gorm:"index"`
	Title       string `json:"title"`
	Description string `json:"description"`

	FilePath string `json:"-"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	FileExt  string `json:"file_ext"`

	OCRText      string `json:"ocr_text"`
	OCRProcessed bool   `json:"ocr_processed"`
	OCRError     string `json:"ocr_error"`
	// OCRRunID is the token of the most recently dispatched pipeline run.
	// Only the run holding the current token may publish its results.
	OCRRunID string `json:"-"`

	// SearchText is the denormalized haystack for full-text search, rebuilt
	// from title, description, file name and extracted text on every publish.
	SearchText string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Version is an immutable, append-only snapshot of a document's file.
// Version numbers are unique per document and strictly increasing.
type Version struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	DocumentID    string    `json:"document_id" gorm:"index;uniqueIndex:idx_document_version,priority:1"`
	VersionNumber int       `json:"version_number" gorm:"uniqueIndex:idx_document_version,priority:2"`
	FilePath      string    `json:"-"`
	FileName      string    `json:"file_name"`
	FileSize      int64     `json:"file_size"`
	Comment       string    `json:"comment"`
	UploadedBy    string    `json:"uploaded_by"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// SearchableVersionName derives the file name for an OCR-generated version
// from the original file name, forcing the extension to .pdf.
func SearchableVersionName(originalName string) string {
	base := strings.TrimSuffix(originalName, filepath.Ext(originalName))
	if base == "" {
		base = "document"
	}
	return SearchablePrefix + base + ".pdf"
}

// IsSearchableVersion reports whether a version file name follows the
// OCR-rendition naming convention.
func IsSearchableVersion(fileName string) bool {
	return strings.HasPrefix(fileName, SearchablePrefix)
}

// RefreshFileMetadata recomputes the derived file fields from the stored file.
// Called on every save so metadata never drifts from the file on disk.
func (d *Document) RefreshFileMetadata() error {
	if d.FilePath == "" {
		return fmt.Errorf("document %s has no stored file", d.ID)
	}
	info, err := os.Stat(d.FilePath)
	if err != nil {
		return fmt.Errorf("stat document file: %w", err)
	}
	d.FileName = filepath.Base(d.FilePath)
	d.FileSize = info.Size()
	d.FileExt = strings.ToLower(strings.TrimPrefix(filepath.Ext(d.FilePath), "."))
	return nil
}

// RefreshSearchText rebuilds the denormalized search haystack.
func (d *Document) RefreshSearchText() {
	parts := []string{d.Title, d.Description, d.FileName, d.OCRText}
	d.SearchText = strings.ToLower(strings.Join(parts, "\n"))
}

// Validate checks that the document carries the fields every consumer assumes.
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	if d.Title == "" {
		return fmt.Errorf("document title cannot be empty")
	}
	if d.FilePath == "" {
		return fmt.Errorf("document must have a stored file")
	}
	return nil
}

// Validate checks version integrity before persistence.
func (v *Version) Validate() error {
	if v.DocumentID == "" {
		return fmt.Errorf("version must reference a document")
	}
	if v.VersionNumber < 0 {
		return fmt.Errorf("version number cannot be negative")
	}
	if v.FilePath == "" {
		return fmt.Errorf("version must have a stored file")
	}
	return nil
}

// Package ocr drives a single extraction run end to end: extract text from the
// stored file, publish the outcome onto the document, and attach the
// searchable PDF rendition as a new version.
package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lexvault/lexvault/internal/store"
	"github.com/lexvault/lexvault/pkg/document"
	"github.com/lexvault/lexvault/pkg/extractor"
	"github.com/lexvault/lexvault/pkg/logging"
)

// Extractor is the part of the extraction engine the runner needs. The
// concrete engine lives in pkg/extractor; tests substitute a fake.
type Extractor interface {
	Extract(ctx context.Context, path string) extractor.Result
}

// Runner executes extraction runs against the document store.
type Runner struct {
	store       store.DocumentStore
	extractor   Extractor
	versionsDir string
}

// NewRunner wires a runner to its store and extraction engine. versionsDir is
// where searchable renditions are copied before being registered as versions.
func NewRunner(s store.DocumentStore, e Extractor, versionsDir string) *Runner {
	return &Runner{store: s, extractor: e, versionsDir: versionsDir}
}

// Process runs extraction for one document. The outcome, success or failure,
// is always written back to the document as long as runID is still the
// document's current run token. Version-append problems are logged and never
// fail the run.
func (r *Runner) Process(ctx context.Context, documentID, runID string) error {
	log := logging.GetPipelineLogger(documentID, "process")

	doc, err := r.store.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", documentID, err)
	}

	result := r.extractor.Extract(ctx, doc.FilePath)
	defer result.Artifact.Cleanup()

	current, err := r.store.PublishExtraction(ctx, documentID, runID, result.Text, result.Err)
	if err != nil {
		return fmt.Errorf("publish extraction for %s: %w", documentID, err)
	}
	if !current {
		log.Info().Str("run_id", runID).Msg("Run token superseded, dropping extraction result")
		return nil
	}

	if result.Err != "" {
		log.Warn().Str("error", result.Err).Msg("Extraction failed, document marked processed")
		return nil
	}
	log.Info().Int("text_length", len(result.Text)).Msg("Extraction published")

	if result.Artifact != nil {
		if err := r.attachSearchableVersion(ctx, doc, result.Artifact); err != nil {
			// The extracted text is already published; losing the
			// rendition must not fail the run.
			log.Error().Err(err).Msg("Failed to attach searchable rendition")
		}
	}
	return nil
}

// attachSearchableVersion copies the temporary artifact into the versions
// directory and registers it as the document's next version.
func (r *Runner) attachSearchableVersion(ctx context.Context, doc *document.Document, artifact *extractor.Artifact) error {
	versionName := document.SearchableVersionName(doc.FileName)

	if err := os.MkdirAll(r.versionsDir, 0o755); err != nil {
		return fmt.Errorf("create versions directory: %w", err)
	}
	// UUID-prefixed on disk so renditions of same-named documents never collide.
	destPath := filepath.Join(r.versionsDir, uuid.New().String()+"_"+versionName)
	size, err := copyFile(artifact.Path, destPath)
	if err != nil {
		return fmt.Errorf("copy rendition: %w", err)
	}

	version := &document.Version{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		FilePath:   destPath,
		FileName:   versionName,
		FileSize:   size,
		Comment:    document.OCRVersionComment,
		UploadedBy: "system",
	}
	if err := r.store.AppendVersion(ctx, version); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("append version: %w", err)
	}

	logger := logging.GetPipelineLogger(doc.ID, "publish")
	logger.Info().
		Str("version_file", versionName).
		Int("version_number", version.VersionNumber).
		Msg("Searchable rendition attached")
	return nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	size, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return 0, err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return 0, err
	}
	return size, nil
}

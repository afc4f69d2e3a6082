// Package merge combines several documents into one PDF, preferring each
// document's searchable rendition over its original file so the merged output
// keeps its text layer.
package merge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/lexvault/lexvault/internal/store"
	"github.com/lexvault/lexvault/pkg/document"
	"github.com/lexvault/lexvault/pkg/logging"
)

// Merger builds merged PDFs from stored documents.
type Merger struct {
	store   store.DocumentStore
	tempDir string
}

// NewMerger creates a merger writing its output under tempDir.
func NewMerger(s store.DocumentStore, tempDir string) *Merger {
	return &Merger{store: s, tempDir: tempDir}
}

// SelectSource picks the file to merge for one document: the newest
// OCR-generated searchable version when one exists, otherwise the original
// file. Only PDF sources can be merged.
func (m *Merger) SelectSource(ctx context.Context, documentID string) (string, error) {
	doc, err := m.store.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}

	versions, err := m.store.ListVersions(ctx, documentID)
	if err != nil {
		return "", err
	}
	// Versions are listed newest first.
	for _, v := range versions {
		if document.IsSearchableVersion(v.FileName) {
			return v.FilePath, nil
		}
	}

	if !strings.EqualFold(filepath.Ext(doc.FilePath), ".pdf") {
		return "", fmt.Errorf("document %s has no searchable rendition and its original %q is not a PDF", documentID, doc.FileName)
	}
	return doc.FilePath, nil
}

// MergeDocuments merges the given documents, in order, into a single PDF and
// returns the path of the merged file. The caller owns the returned file.
func (m *Merger) MergeDocuments(ctx context.Context, documentIDs []string) (string, error) {
	if len(documentIDs) < 2 {
		return "", fmt.Errorf("merging requires at least two documents, got %d", len(documentIDs))
	}

	sources := make([]string, 0, len(documentIDs))
	for _, id := range documentIDs {
		src, err := m.SelectSource(ctx, id)
		if err != nil {
			return "", err
		}
		sources = append(sources, src)
	}

	if err := os.MkdirAll(m.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("create merge directory: %w", err)
	}
	outPath := filepath.Join(m.tempDir, "merged_"+uuid.New().String()+".pdf")

	if err := api.MergeCreateFile(sources, outPath, false, nil); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("merge %d documents: %w", len(documentIDs), err)
	}

	logger := logging.GetLogger("merge")
	logger.Info().
		Int("documents", len(documentIDs)).
		Str("output", filepath.Base(outPath)).
		Msg("Documents merged")
	return outPath, nil
}

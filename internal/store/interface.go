package store

import (
	"context"
	"errors"

	"github.com/lexvault/lexvault/pkg/document"
)

// ErrNotFound is returned when a document or version does not exist.
var ErrNotFound = errors.New("not found")

// Filter narrows ListDocuments.
type Filter struct {
	CaseID string
}

// DocumentStore is the persistence boundary of the pipeline. The OCR runner
// only ever reads one document and writes back to that document plus at most
// one appended version; everything else (cases, clients) lives behind other
// services.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *document.Document) error
	GetDocument(ctx context.Context, id string) (*document.Document, error)
	ListDocuments(ctx context.Context, filter Filter) ([]*document.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// UpdateDocumentFile swaps the stored file of a document (replacement
	// upload), refreshes derived file metadata and resets the extraction
	// state so the UI shows "not yet attempted" until the new run completes.
	UpdateDocumentFile(ctx context.Context, id, filePath string) error

	// Search matches the denormalized search text built from title,
	// description, file name and extracted text.
	Search(ctx context.Context, query string) ([]*document.Document, error)

	// SetOCRRun records runID as the document's current pipeline run token.
	SetOCRRun(ctx context.Context, id, runID string) error

	// PublishExtraction writes the pipeline outcome (text, processed flag,
	// error) onto the document and refreshes its search text, but only if
	// runID is still the document's current run token. Returns false when the
	// run was fenced off by a newer dispatch.
	PublishExtraction(ctx context.Context, id, runID, text, ocrErr string) (bool, error)

	// AppendVersion assigns the next gapless version number for the
	// referenced document (max+1, or 1 when none exist) and persists the
	// version. The version's number field is set on return.
	AppendVersion(ctx context.Context, v *document.Version) error
	ListVersions(ctx context.Context, documentID string) ([]*document.Version, error)

	Health(ctx context.Context) error
}

// Metric captures telemetry for one store operation.
type Metric struct {
	Operation string
	Backend   string
	Duration  int64 // nanoseconds
	Success   bool
	Error     error
}

// MetricsCollector receives store operation metrics.
type MetricsCollector interface {
	RecordMetric(metric Metric)
}

package store

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lexvault/lexvault/pkg/document"
	"github.com/lexvault/lexvault/pkg/logging"
)

// MemoryStore is the in-memory DocumentStore used by tests and local
// development. It implements the same fencing and versioning semantics as the
// relational backend.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]*document.Document
	versions  map[string][]*document.Version
	collector MetricsCollector
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(collector MetricsCollector) *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]*document.Document),
		versions:  make(map[string][]*document.Version),
		collector: collector,
	}
}

func (m *MemoryStore) CreateDocument(ctx context.Context, doc *document.Document) (err error) {
	defer record(m.collector, "memory", "create_document", time.Now(), &err)

	if err = doc.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.documents[doc.ID]; exists {
		return fmt.Errorf("document %s already exists", doc.ID)
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	doc.RefreshSearchText()
	m.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (m *MemoryStore) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (m *MemoryStore) ListDocuments(ctx context.Context, filter Filter) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*document.Document
	for _, doc := range m.documents {
		if filter.CaseID != "" && doc.CaseID != filter.CaseID {
			continue
		}
		out = append(out, cloneDocument(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) DeleteDocument(ctx context.Context, id string) (err error) {
	defer record(m.collector, "memory", "delete_document", time.Now(), &err)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return ErrNotFound
	}
	delete(m.documents, id)
	// Versions are cascade-deleted with their document.
	for _, v := range m.versions[id] {
		if rmErr := os.Remove(v.FilePath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger := logging.GetStorageLogger("delete_document", "memory")
			logger.Warn().
				Err(rmErr).Str("path", v.FilePath).Msg("could not remove version file")
		}
	}
	delete(m.versions, id)
	return nil
}

func (m *MemoryStore) UpdateDocumentFile(ctx context.Context, id, filePath string) (err error) {
	defer record(m.collector, "memory", "update_document_file", time.Now(), &err)

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.documents[id]
	if !ok {
		return ErrNotFound
	}
	// Update a clone and swap it in on success, so a metadata failure leaves
	// the stored record untouched.
	doc := cloneDocument(stored)
	doc.FilePath = filePath
	if err = doc.RefreshFileMetadata(); err != nil {
		return err
	}
	doc.OCRText = ""
	doc.OCRProcessed = false
	doc.OCRError = ""
	doc.UpdatedAt = time.Now()
	doc.RefreshSearchText()
	m.documents[id] = doc
	return nil
}

func (m *MemoryStore) Search(ctx context.Context, query string) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}
	var out []*document.Document
	for _, doc := range m.documents {
		if strings.Contains(doc.SearchText, needle) {
			out = append(out, cloneDocument(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) SetOCRRun(ctx context.Context, id, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return ErrNotFound
	}
	doc.OCRRunID = runID
	doc.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) PublishExtraction(ctx context.Context, id, runID, text, ocrErr string) (current bool, err error) {
	defer record(m.collector, "memory", "publish_extraction", time.Now(), &err)

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return false, ErrNotFound
	}
	if doc.OCRRunID != runID {
		return false, nil
	}
	doc.OCRText = text
	doc.OCRProcessed = true
	doc.OCRError = ocrErr
	doc.UpdatedAt = time.Now()
	doc.RefreshSearchText()
	return true, nil
}

func (m *MemoryStore) AppendVersion(ctx context.Context, v *document.Version) (err error) {
	defer record(m.collector, "memory", "append_version", time.Now(), &err)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[v.DocumentID]; !ok {
		return ErrNotFound
	}
	next := 1
	for _, existing := range m.versions[v.DocumentID] {
		if existing.VersionNumber >= next {
			next = existing.VersionNumber + 1
		}
	}
	v.VersionNumber = next
	if v.UploadedAt.IsZero() {
		v.UploadedAt = time.Now()
	}
	if err = v.Validate(); err != nil {
		return err
	}
	clone := *v
	m.versions[v.DocumentID] = append(m.versions[v.DocumentID], &clone)
	return nil
}

func (m *MemoryStore) ListVersions(ctx context.Context, documentID string) ([]*document.Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := m.versions[documentID]
	out := make([]*document.Version, 0, len(versions))
	for _, v := range versions {
		clone := *v
		out = append(out, &clone)
	}
	// Newest first, matching the document detail view.
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}

func (m *MemoryStore) Health(ctx context.Context) error {
	return nil
}

func cloneDocument(doc *document.Document) *document.Document {
	clone := *doc
	return &clone
}

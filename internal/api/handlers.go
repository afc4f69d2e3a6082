package api

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/lexvault/lexvault/internal/merge"
	"github.com/lexvault/lexvault/internal/store"
	"github.com/lexvault/lexvault/internal/temporal/workflows"
	"github.com/lexvault/lexvault/pkg/document"
	"github.com/lexvault/lexvault/pkg/logging"
	"github.com/lexvault/lexvault/pkg/pipeline"
)

// Dispatcher starts workflows. client.Client satisfies it; tests substitute a
// fake so handlers can be exercised without a Temporal server.
type Dispatcher interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Handlers contains the HTTP handlers for the API
type Handlers struct {
	store    store.DocumentStore
	temporal Dispatcher
	merger   *merge.Merger
	cfg      *pipeline.PipelineConfig
}

// NewHandlers creates a new handlers instance
func NewHandlers(s store.DocumentStore, temporal Dispatcher, merger *merge.Merger, cfg *pipeline.PipelineConfig) *Handlers {
	return &Handlers{
		store:    s,
		temporal: temporal,
		merger:   merger,
		cfg:      cfg,
	}
}

// Health returns the service health status
func (h *Handlers) Health(c *fiber.Ctx) error {
	status := "healthy"
	code := fiber.StatusOK
	if err := h.store.Health(c.Context()); err != nil {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"service":   "lexvault",
		"version":   "0.1.0",
		"timestamp": time.Now().UTC(),
	})
}

// DocumentResponse is the upload/reprocess response.
type DocumentResponse struct {
	Document   *document.Document `json:"document"`
	WorkflowID string             `json:"workflow_id,omitempty"`
	RunID      string             `json:"ocr_run_id,omitempty"`
}

// UploadDocument accepts a multipart upload, stores the file and dispatches an
// extraction run. The response is 202: extraction completes asynchronously.
func (h *Handlers) UploadDocument(c *fiber.Ctx) error {
	log := logging.GetLogger("api")

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "No file uploaded or invalid file format",
			"details": err.Error(),
		})
	}

	if err := h.validateUpload(file.Filename, file.Size); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		title = file.Filename
	}

	doc := &document.Document{
		ID:          uuid.New().String(),
		CaseID:      strings.TrimSpace(c.FormValue("case_id")),
		Title:       title,
		Description: strings.TrimSpace(c.FormValue("description")),
	}

	storedPath, err := h.saveUpload(c, file, doc.ID)
	if err != nil {
		log.Error().Err(err).Str("filename", file.Filename).Msg("Failed to store upload")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store uploaded file",
		})
	}
	doc.FilePath = storedPath
	if err := doc.RefreshFileMetadata(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read stored file",
		})
	}

	if err := h.store.CreateDocument(c.Context(), doc); err != nil {
		log.Error().Err(err).Msg("Failed to create document")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create document",
		})
	}

	workflowID, runID, err := h.dispatchOCR(c, doc.ID)
	if err != nil {
		// The document exists; extraction can be retried via reprocess.
		log.Error().Err(err).Str("document_id", doc.ID).Msg("Failed to dispatch extraction")
	}

	log.Info().Str("document_id", doc.ID).Str("filename", file.Filename).Int64("size", file.Size).Msg("Document uploaded")
	return c.Status(fiber.StatusAccepted).JSON(DocumentResponse{
		Document:   doc,
		WorkflowID: workflowID,
		RunID:      runID,
	})
}

// ReplaceDocument swaps a document's stored file and re-runs extraction.
func (h *Handlers) ReplaceDocument(c *fiber.Ctx) error {
	id := c.Params("id")

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded or invalid file format",
		})
	}
	if err := h.validateUpload(file.Filename, file.Size); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if _, err := h.store.GetDocument(c.Context(), id); err != nil {
		return h.storeError(c, err)
	}

	storedPath, err := h.saveUpload(c, file, id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store uploaded file",
		})
	}
	if err := h.store.UpdateDocumentFile(c.Context(), id, storedPath); err != nil {
		return h.storeError(c, err)
	}

	workflowID, runID, err := h.dispatchOCR(c, id)
	if err != nil {
		logger := logging.GetLogger("api")
		logger.Error().Err(err).Str("document_id", id).Msg("Failed to dispatch extraction")
	}

	doc, err := h.store.GetDocument(c.Context(), id)
	if err != nil {
		return h.storeError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(DocumentResponse{
		Document:   doc,
		WorkflowID: workflowID,
		RunID:      runID,
	})
}

// ReprocessDocument dispatches a fresh extraction run for an existing
// document. The new run token supersedes any in-flight run.
func (h *Handlers) ReprocessDocument(c *fiber.Ctx) error {
	id := c.Params("id")

	doc, err := h.store.GetDocument(c.Context(), id)
	if err != nil {
		return h.storeError(c, err)
	}

	workflowID, runID, err := h.dispatchOCR(c, doc.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to start extraction",
			"details": err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(DocumentResponse{
		Document:   doc,
		WorkflowID: workflowID,
		RunID:      runID,
	})
}

// GetDocument retrieves a document by ID
func (h *Handlers) GetDocument(c *fiber.Ctx) error {
	doc, err := h.store.GetDocument(c.Context(), c.Params("id"))
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(doc)
}

// ListDocuments returns documents, optionally filtered by case.
func (h *Handlers) ListDocuments(c *fiber.Ctx) error {
	docs, err := h.store.ListDocuments(c.Context(), store.Filter{
		CaseID: c.Query("case_id"),
	})
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"documents": docs,
		"count":     len(docs),
	})
}

// SearchDocuments runs a full-text search over titles, descriptions, file
// names and extracted text.
func (h *Handlers) SearchDocuments(c *fiber.Ctx) error {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter 'q' is required",
		})
	}
	docs, err := h.store.Search(c.Context(), query)
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"documents": docs,
		"count":     len(docs),
		"query":     query,
	})
}

// DeleteDocument removes a document and its versions.
func (h *Handlers) DeleteDocument(c *fiber.Ctx) error {
	if err := h.store.DeleteDocument(c.Context(), c.Params("id")); err != nil {
		return h.storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadVersion attaches a user-supplied file as the document's next version.
func (h *Handlers) UploadVersion(c *fiber.Ctx) error {
	id := c.Params("id")

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded or invalid file format",
		})
	}
	if err := h.validateUpload(file.Filename, file.Size); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if _, err := h.store.GetDocument(c.Context(), id); err != nil {
		return h.storeError(c, err)
	}

	storedPath, err := h.saveVersionFile(c, file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store uploaded file",
		})
	}

	version := &document.Version{
		ID:         uuid.New().String(),
		DocumentID: id,
		FilePath:   storedPath,
		FileName:   file.Filename,
		FileSize:   file.Size,
		Comment:    strings.TrimSpace(c.FormValue("comment")),
		UploadedBy: strings.TrimSpace(c.FormValue("uploaded_by")),
	}
	if err := h.store.AppendVersion(c.Context(), version); err != nil {
		return h.storeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(version)
}

// ListVersions returns a document's versions, newest first.
func (h *Handlers) ListVersions(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.store.GetDocument(c.Context(), id); err != nil {
		return h.storeError(c, err)
	}
	versions, err := h.store.ListVersions(c.Context(), id)
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"versions": versions,
		"count":    len(versions),
	})
}

// MergeRequest asks for several documents to be combined into one PDF.
type MergeRequest struct {
	DocumentIDs []string `json:"document_ids"`
}

// MergeDocuments merges the requested documents and streams back the PDF.
// Searchable renditions are preferred so the output keeps its text layer.
func (h *Handlers) MergeDocuments(c *fiber.Ctx) error {
	var req MergeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}
	if len(req.DocumentIDs) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least two document IDs are required",
		})
	}

	outPath, err := h.merger.MergeDocuments(c.Context(), req.DocumentIDs)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "One or more documents not found",
			})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "Failed to merge documents",
			"details": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="merged.pdf"`)
	return c.SendFile(outPath)
}

// dispatchOCR claims the document with a fresh run token and starts the
// extraction workflow under it.
func (h *Handlers) dispatchOCR(c *fiber.Ctx, documentID string) (workflowID, runID string, err error) {
	runID = uuid.New().String()
	if err = h.store.SetOCRRun(c.Context(), documentID, runID); err != nil {
		return "", "", err
	}

	workflowID = fmt.Sprintf("ocr-%s-%s", documentID, runID[:8])
	_, err = h.temporal.ExecuteWorkflow(c.Context(), client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: workflows.DocumentOCRTaskQueue,
	}, workflows.DocumentOCRWorkflow, workflows.DocumentOCRInput{
		DocumentID: documentID,
		RunID:      runID,
	})
	if err != nil {
		return "", "", err
	}
	return workflowID, runID, nil
}

func (h *Handlers) validateUpload(filename string, size int64) error {
	if size > h.cfg.Processing.MaxFileSize {
		return fmt.Errorf("file too large: %d bytes, maximum is %d bytes", size, h.cfg.Processing.MaxFileSize)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return fmt.Errorf("file must have a valid extension")
	}
	if !h.cfg.Processing.AllowsExtension(ext) {
		return fmt.Errorf("unsupported file type: %s. Supported types: %s",
			ext, strings.Join(h.cfg.Processing.AllowedExtensions, ", "))
	}
	return nil
}

// saveUpload stores an uploaded document file in a per-document directory so
// the base name on disk stays the original file name.
func (h *Handlers) saveUpload(c *fiber.Ctx, file *multipart.FileHeader, documentID string) (string, error) {
	dir := filepath.Join(h.cfg.DataPaths.UploadDir, documentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, filepath.Base(file.Filename))
	if err := c.SaveFile(file, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (h *Handlers) saveVersionFile(c *fiber.Ctx, file *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.cfg.DataPaths.VersionDir, 0o755); err != nil {
		return "", err
	}
	name := uuid.New().String() + "_" + filepath.Base(file.Filename)
	dest := filepath.Join(h.cfg.DataPaths.VersionDir, name)
	if err := c.SaveFile(file, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (h *Handlers) storeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	logger := logging.GetLogger("api")
	logger.Error().Err(err).Msg("Store operation failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal error",
	})
}

package extractor

import (
	"fmt"
	"os"
)

// Result is the uniform outcome of routing one file through the pipeline.
// Invariant: Err is non-empty only on fatal failure, and then Text is empty
// and Artifact is nil. Partial page failures are not fatal.
type Result struct {
	// Text is the best-effort plain-text transcript of the document.
	Text string
	// Artifact is the searchable-PDF rendition, when one was produced.
	// Ownership passes to the caller, who must Cleanup after consuming it.
	Artifact *Artifact
	// Err reports a fatal extraction failure in user-readable form.
	Err string
}

// Artifact is an owned temporary file handed from extraction to publishing.
// It exists so the handoff is an explicit resource with a cleanup obligation
// instead of a bare path string.
type Artifact struct {
	Path string
}

// Cleanup removes the temporary file. Safe to call on a nil artifact and
// after the file has already been consumed.
func (a *Artifact) Cleanup() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ProcessingError represents a non-retryable extraction error: the input
// itself cannot be processed, so retrying the same bytes cannot succeed.
type ProcessingError struct {
	Message string
}

func (e *ProcessingError) Error() string {
	return e.Message
}

func unsupportedFormatError(ext string) *ProcessingError {
	if ext == "" {
		ext = "(none)"
	}
	return &ProcessingError{Message: fmt.Sprintf("unsupported file type for text extraction: %s", ext)}
}

// writeArtifact persists assembled PDF bytes to a temporary file in dir
// (os.TempDir when empty) and wraps it as an owned Artifact.
func writeArtifact(dir string, data []byte) (*Artifact, error) {
	f, err := os.CreateTemp(dir, "ocr-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create artifact file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write artifact file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close artifact file: %w", err)
	}
	return &Artifact{Path: f.Name()}, nil
}

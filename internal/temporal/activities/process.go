package activities

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/lexvault/lexvault/internal/ocr"
	"github.com/lexvault/lexvault/internal/store"
	"github.com/lexvault/lexvault/internal/temporal/workflows"
)

// Global runner instance - should be injected via dependency injection in production
var globalRunner *ocr.Runner

// SetRunner sets the global OCR runner used by activities.
func SetRunner(runner *ocr.Runner) {
	globalRunner = runner
}

// ProcessDocumentActivity executes one extraction run. Document-level
// extraction failures are written onto the document by the runner and do not
// surface here; only infrastructure errors (store unreachable, unknown
// document) fail the activity.
func ProcessDocumentActivity(ctx context.Context, input workflows.DocumentOCRInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Processing document", "documentID", input.DocumentID, "runID", input.RunID)

	if globalRunner == nil {
		return fmt.Errorf("ocr runner not initialized")
	}

	if err := globalRunner.Process(ctx, input.DocumentID, input.RunID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The document was deleted after dispatch; no retry can succeed.
			return temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("document %s not found", input.DocumentID), "DocumentNotFound", err)
		}
		return fmt.Errorf("failed to process document %s: %w", input.DocumentID, err)
	}

	logger.Info("Document processed", "documentID", input.DocumentID)
	return nil
}

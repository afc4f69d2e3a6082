package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// DocumentOCRTaskQueue is the task queue the OCR workers poll.
const DocumentOCRTaskQueue = "lexvault-ocr"

// ProcessDocumentActivityName is registered by the worker and referenced here
// by name so the workflow package does not import the activity package.
const ProcessDocumentActivityName = "ProcessDocumentActivity"

// DocumentOCRInput identifies one extraction run. RunID is the token stored on
// the document at dispatch time; a run whose token has been superseded
// publishes nothing.
type DocumentOCRInput struct {
	DocumentID string `json:"document_id"`
	RunID      string `json:"run_id"`
}

// DocumentOCRWorkflow runs text extraction for a single document.
func DocumentOCRWorkflow(ctx workflow.Context, input DocumentOCRInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting document OCR", "documentID", input.DocumentID, "runID", input.RunID)

	ao := workflow.ActivityOptions{
		// OCR of large scans is slow; rasterization alone can take minutes.
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    2 * time.Minute,
		// Terminal failures, such as a document deleted after dispatch,
		// arrive as non-retryable application errors from the activity.
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    1 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	if err := workflow.ExecuteActivity(ctx, ProcessDocumentActivityName, input).Get(ctx, nil); err != nil {
		logger.Error("Document OCR failed", "documentID", input.DocumentID, "error", err)
		return err
	}

	logger.Info("Document OCR completed", "documentID", input.DocumentID)
	return nil
}

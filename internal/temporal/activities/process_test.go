package activities

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/lexvault/lexvault/internal/ocr"
	"github.com/lexvault/lexvault/internal/store"
	"github.com/lexvault/lexvault/internal/temporal/workflows"
	"github.com/lexvault/lexvault/pkg/document"
	"github.com/lexvault/lexvault/pkg/extractor"
)

type stubExtractor struct{ text string }

func (s stubExtractor) Extract(ctx context.Context, path string) extractor.Result {
	return extractor.Result{Text: s.text}
}

func setupActivity(t *testing.T) (*testsuite.TestActivityEnvironment, store.DocumentStore) {
	t.Helper()
	s := store.NewMemoryStore(nil)
	SetRunner(ocr.NewRunner(s, stubExtractor{text: "transcription"}, t.TempDir()))
	t.Cleanup(func() { SetRunner(nil) })

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(ProcessDocumentActivity)
	return env, s
}

func TestProcessDocumentActivityPublishesText(t *testing.T) {
	env, s := setupActivity(t)

	path := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 scanned"), 0o644))
	doc := &document.Document{ID: uuid.New().String(), Title: "Scanned exhibit", FilePath: path}
	require.NoError(t, doc.RefreshFileMetadata())
	require.NoError(t, s.CreateDocument(context.Background(), doc))

	runID := uuid.New().String()
	require.NoError(t, s.SetOCRRun(context.Background(), doc.ID, runID))

	_, err := env.ExecuteActivity(ProcessDocumentActivity, workflows.DocumentOCRInput{DocumentID: doc.ID, RunID: runID})
	require.NoError(t, err)

	stored, err := s.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.OCRProcessed)
	assert.Equal(t, "transcription", stored.OCRText)
}

func TestProcessDocumentActivityUnknownDocumentIsNonRetryable(t *testing.T) {
	env, _ := setupActivity(t)

	_, err := env.ExecuteActivity(ProcessDocumentActivity, workflows.DocumentOCRInput{
		DocumentID: uuid.New().String(),
		RunID:      uuid.New().String(),
	})

	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "DocumentNotFound", appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

func TestProcessDocumentActivityRequiresRunner(t *testing.T) {
	SetRunner(nil)

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(ProcessDocumentActivity)

	_, err := env.ExecuteActivity(ProcessDocumentActivity, workflows.DocumentOCRInput{DocumentID: "doc-1", RunID: "run-1"})
	require.Error(t, err)
}

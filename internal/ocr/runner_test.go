package ocr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexvault/lexvault/internal/store"
	"github.com/lexvault/lexvault/pkg/document"
	"github.com/lexvault/lexvault/pkg/extractor"
)

// fakeExtractor returns a canned result and, when artifactData is set, writes
// a fresh temp artifact per call the way the real engine does.
type fakeExtractor struct {
	text         string
	errMessage   string
	artifactData []byte
	calls        int
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) extractor.Result {
	f.calls++
	res := extractor.Result{Text: f.text, Err: f.errMessage}
	if f.artifactData != nil {
		tmp, err := os.CreateTemp("", "ocr-*.pdf")
		if err != nil {
			panic(err)
		}
		if _, err := tmp.Write(f.artifactData); err != nil {
			panic(err)
		}
		tmp.Close()
		res.Artifact = &extractor.Artifact{Path: tmp.Name()}
	}
	return res
}

func setupRunner(t *testing.T, fake *fakeExtractor) (*Runner, store.DocumentStore, *document.Document, string) {
	t.Helper()
	s := store.NewMemoryStore(nil)

	path := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 scanned"), 0o644))
	doc := &document.Document{
		ID:       uuid.New().String(),
		Title:    "Scanned exhibit",
		FilePath: path,
	}
	require.NoError(t, doc.RefreshFileMetadata())
	require.NoError(t, s.CreateDocument(context.Background(), doc))

	runID := uuid.New().String()
	require.NoError(t, s.SetOCRRun(context.Background(), doc.ID, runID))

	return NewRunner(s, fake, filepath.Join(t.TempDir(), "versions")), s, doc, runID
}

func TestProcessPublishesTextAndVersion(t *testing.T) {
	fake := &fakeExtractor{text: "recognized text", artifactData: []byte("%PDF-1.4 searchable")}
	runner, s, doc, runID := setupRunner(t, fake)
	ctx := context.Background()

	require.NoError(t, runner.Process(ctx, doc.ID, runID))

	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, got.OCRProcessed)
	assert.Equal(t, "recognized text", got.OCRText)
	assert.Empty(t, got.OCRError)

	versions, err := s.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	v := versions[0]
	assert.Equal(t, 1, v.VersionNumber)
	assert.Equal(t, "Searchable_scan.pdf", v.FileName)
	assert.Equal(t, document.OCRVersionComment, v.Comment)
	assert.Equal(t, "system", v.UploadedBy)

	data, err := os.ReadFile(v.FilePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 searchable"), data)
}

func TestProcessCleansUpTempArtifact(t *testing.T) {
	fake := &fakeExtractor{text: "text", artifactData: []byte("%PDF-1.4")}
	runner, _, doc, runID := setupRunner(t, fake)

	res := fake.Extract(context.Background(), doc.FilePath)
	tmpDirEntry := res.Artifact.Path
	res.Artifact.Cleanup()
	_, err := os.Stat(tmpDirEntry)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, runner.Process(context.Background(), doc.ID, runID))

	// No ocr-*.pdf temp files may survive the run.
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "ocr-*.pdf"))
	require.NoError(t, err)
	for _, m := range matches {
		data, readErr := os.ReadFile(m)
		if readErr == nil {
			assert.NotEqual(t, []byte("%PDF-1.4"), data, "temp artifact %s leaked", m)
		}
	}
}

func TestProcessReprocessAppendsSecondVersion(t *testing.T) {
	fake := &fakeExtractor{text: "first pass", artifactData: []byte("%PDF-1.4 one")}
	runner, s, doc, runID := setupRunner(t, fake)
	ctx := context.Background()

	require.NoError(t, runner.Process(ctx, doc.ID, runID))

	secondRun := uuid.New().String()
	require.NoError(t, s.SetOCRRun(ctx, doc.ID, secondRun))
	fake.text = "second pass"
	fake.artifactData = []byte("%PDF-1.4 two")
	require.NoError(t, runner.Process(ctx, doc.ID, secondRun))

	versions, err := s.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].VersionNumber)

	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "second pass", got.OCRText)
}

func TestProcessExtractionFailureStillMarksProcessed(t *testing.T) {
	fake := &fakeExtractor{errMessage: "cannot rasterize document"}
	runner, s, doc, runID := setupRunner(t, fake)
	ctx := context.Background()

	require.NoError(t, runner.Process(ctx, doc.ID, runID))

	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, got.OCRProcessed)
	assert.Equal(t, "cannot rasterize document", got.OCRError)
	assert.Empty(t, got.OCRText)

	versions, err := s.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestProcessStaleRunTokenDropsResult(t *testing.T) {
	fake := &fakeExtractor{text: "stale result", artifactData: []byte("%PDF-1.4 stale")}
	runner, s, doc, runID := setupRunner(t, fake)
	ctx := context.Background()

	// A newer run claimed the document while this one was extracting.
	require.NoError(t, s.SetOCRRun(ctx, doc.ID, uuid.New().String()))

	require.NoError(t, runner.Process(ctx, doc.ID, runID))

	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, got.OCRProcessed)
	assert.Empty(t, got.OCRText)

	versions, err := s.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, versions, "stale runs must not attach versions")
}

func TestProcessMissingArtifactFileDoesNotFail(t *testing.T) {
	fake := &fakeExtractor{text: "text only"}
	runner, s, doc, runID := setupRunner(t, fake)
	ctx := context.Background()

	// Artifact points at a file that no longer exists.
	brokenExtractor := extractorFunc(func(ctx context.Context, path string) extractor.Result {
		return extractor.Result{
			Text:     "text only",
			Artifact: &extractor.Artifact{Path: filepath.Join(t.TempDir(), "gone.pdf")},
		}
	})
	runner = NewRunner(s, brokenExtractor, t.TempDir())
	_ = fake

	require.NoError(t, runner.Process(ctx, doc.ID, runID))

	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "text only", got.OCRText)

	versions, err := s.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestProcessUnknownDocumentFails(t *testing.T) {
	fake := &fakeExtractor{text: "irrelevant"}
	runner, _, _, _ := setupRunner(t, fake)

	err := runner.Process(context.Background(), "no-such-id", uuid.New().String())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, fake.calls)
}

type extractorFunc func(ctx context.Context, path string) extractor.Result

func (f extractorFunc) Extract(ctx context.Context, path string) extractor.Result {
	return f(ctx, path)
}

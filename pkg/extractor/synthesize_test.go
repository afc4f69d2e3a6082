package extractor

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageCount(t *testing.T, path string) int {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	require.NoError(t, err)
	return reader.NumPage()
}

func TestSynthesizePDFSinglePage(t *testing.T) {
	e := newTestEngine(t, nil)

	artifact, err := e.SynthesizePDF("Première ligne\nDeuxième ligne")
	require.NoError(t, err)
	require.NotNil(t, artifact)
	defer artifact.Cleanup()

	data, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Equal(t, 1, pageCount(t, artifact.Path))
}

func TestSynthesizePDFPagination(t *testing.T) {
	e := newTestEngine(t, nil)

	// 120 lines at 55 lines per page must span 3 pages.
	lines := make([]string, 120)
	for i := range lines {
		lines[i] = "ligne"
	}
	artifact, err := e.SynthesizePDF(strings.Join(lines, "\n"))
	require.NoError(t, err)
	defer artifact.Cleanup()

	assert.Equal(t, 3, pageCount(t, artifact.Path))
}

func TestSynthesizePDFExactPageBoundary(t *testing.T) {
	e := newTestEngine(t, nil)

	lines := make([]string, 55)
	for i := range lines {
		lines[i] = "ligne"
	}
	artifact, err := e.SynthesizePDF(strings.Join(lines, "\n"))
	require.NoError(t, err)
	defer artifact.Cleanup()

	assert.Equal(t, 1, pageCount(t, artifact.Path))
}

func TestSynthesizePDFEmptyTextPlaceholder(t *testing.T) {
	e := newTestEngine(t, nil)

	for _, input := range []string{"", "   \n\t\n  "} {
		artifact, err := e.SynthesizePDF(input)
		require.NoError(t, err)
		require.NotNil(t, artifact)

		assert.Equal(t, 1, pageCount(t, artifact.Path))

		content, err := os.ReadFile(artifact.Path)
		require.NoError(t, err)
		reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
		require.NoError(t, err)
		page := reader.Page(1)
		require.False(t, page.V.IsNull())
		text, err := page.GetPlainText(nil)
		require.NoError(t, err)
		assert.Contains(t, text, "No text could be extracted")

		artifact.Cleanup()
	}
}

func TestArtifactCleanupNilSafe(t *testing.T) {
	var artifact *Artifact
	assert.NoError(t, artifact.Cleanup())
	assert.NoError(t, (&Artifact{}).Cleanup())
	assert.NoError(t, (&Artifact{Path: "/tmp/does-not-exist-ocr-test.pdf"}).Cleanup())
}

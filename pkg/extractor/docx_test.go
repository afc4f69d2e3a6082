package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

// makeDocx writes a minimal Word container with the given document body XML.
func makeDocx(t *testing.T, body string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"word/document.xml":            body,
		"word/_rels/document.xml.rels": minimalRels,
	} {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "contrat.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestExtractDOCXParagraphsAndTable(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Premier paragraphe</w:t></w:r></w:p>
<w:p><w:r><w:t>Article</w:t></w:r><w:r><w:tab/><w:t>1.2</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Partie</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Dupont</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
</w:body></w:document>`
	path := makeDocx(t, body)

	e := newTestEngine(t, nil)
	res := e.Extract(context.Background(), path)

	require.Empty(t, res.Err)
	assert.Contains(t, res.Text, "Premier paragraphe")
	assert.Contains(t, res.Text, "Article\t1.2", "tabs must survive flattening")
	assert.Contains(t, res.Text, "Partie")
	assert.Contains(t, res.Text, "Dupont", "table cell content must be extracted")
	require.NotNil(t, res.Artifact, "Word documents get a synthesized rendition")
	res.Artifact.Cleanup()
}

func TestExtractDOCXCorruptContainer(t *testing.T) {
	path := writeTestFile(t, "casse.docx", []byte("not a zip archive"))

	e := newTestEngine(t, nil)
	res := e.Extract(context.Background(), path)

	assert.Contains(t, res.Err, "failed to open Word document")
	assert.Empty(t, res.Text)
	assert.Nil(t, res.Artifact)
}

func TestFlattenDocumentXML(t *testing.T) {
	markup := `<w:p><w:r><w:t>ligne un</w:t></w:r></w:p><w:p><w:r><w:t>ligne</w:t></w:r><w:r><w:br/><w:t>coupee</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cellule</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`

	flat := flattenDocumentXML(markup)

	assert.Contains(t, flat, "ligne un\n")
	assert.Contains(t, flat, "ligne\ncoupee")
	assert.Contains(t, flat, "cellule\n")
	assert.NotContains(t, flat, "<", "no markup may survive")
}

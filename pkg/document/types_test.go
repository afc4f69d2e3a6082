package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchableVersionName(t *testing.T) {
	tests := []struct {
		name     string
		original string
		want     string
	}{
		{"pdf source", "contrat_bail.pdf", "Searchable_contrat_bail.pdf"},
		{"image source", "scan_audience.jpeg", "Searchable_scan_audience.pdf"},
		{"no extension", "assignation", "Searchable_assignation.pdf"},
		{"only extension", ".pdf", "Searchable_document.pdf"},
		{"dotted base", "conclusions.v2.docx", "Searchable_conclusions.v2.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SearchableVersionName(tt.original))
		})
	}
}

func TestIsSearchableVersion(t *testing.T) {
	assert.True(t, IsSearchableVersion("Searchable_contrat.pdf"))
	assert.False(t, IsSearchableVersion("contrat.pdf"))
	assert.False(t, IsSearchableVersion("searchable_contrat.pdf"))
}

func TestRefreshFileMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Jugement_TGI.PDF")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644))

	doc := &Document{ID: "doc-1", FilePath: path}
	require.NoError(t, doc.RefreshFileMetadata())

	assert.Equal(t, "Jugement_TGI.PDF", doc.FileName)
	assert.Equal(t, int64(13), doc.FileSize)
	assert.Equal(t, "pdf", doc.FileExt)
}

func TestRefreshFileMetadata_MissingFile(t *testing.T) {
	doc := &Document{ID: "doc-1", FilePath: filepath.Join(t.TempDir(), "absent.pdf")}
	assert.Error(t, doc.RefreshFileMetadata())

	doc = &Document{ID: "doc-2"}
	assert.Error(t, doc.RefreshFileMetadata())
}

func TestRefreshSearchText(t *testing.T) {
	doc := &Document{
		Title:       "Bail Commercial",
		Description: "Renouvellement",
		FileName:    "bail.pdf",
		OCRText:     "Article 1 - Objet du contrat",
	}
	doc.RefreshSearchText()

	assert.Contains(t, doc.SearchText, "bail commercial")
	assert.Contains(t, doc.SearchText, "article 1 - objet du contrat")
	assert.Contains(t, doc.SearchText, "bail.pdf")
}

func TestDocumentValidate(t *testing.T) {
	doc := &Document{ID: "d1", Title: "Conclusions", FilePath: "/tmp/conclusions.pdf"}
	assert.NoError(t, doc.Validate())

	assert.Error(t, (&Document{Title: "x", FilePath: "y"}).Validate())
	assert.Error(t, (&Document{ID: "x", FilePath: "y"}).Validate())
	assert.Error(t, (&Document{ID: "x", Title: "y"}).Validate())
}

func TestVersionValidate(t *testing.T) {
	v := &Version{ID: "v1", DocumentID: "d1", VersionNumber: 1, FilePath: "/tmp/f.pdf"}
	assert.NoError(t, v.Validate())

	assert.Error(t, (&Version{ID: "v1", VersionNumber: 1, FilePath: "x"}).Validate())
	assert.Error(t, (&Version{ID: "v1", DocumentID: "d1", VersionNumber: -1, FilePath: "x"}).Validate())
	assert.Error(t, (&Version{ID: "v1", DocumentID: "d1", VersionNumber: 1}).Validate())
}

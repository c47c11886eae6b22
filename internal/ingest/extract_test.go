package ingest

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agdesk/agdesk/internal/model"
	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
)

func TestFileTypeOf(t *testing.T) {
	assert.Equal(t, "spreadsheet", FileTypeOf("Parts.CSV"))
	assert.Equal(t, "text", FileTypeOf("notes.txt"))
	assert.Equal(t, "markdown", FileTypeOf("guide.md"))
	assert.Equal(t, "document", FileTypeOf("manual.docx"))
	assert.Equal(t, "", FileTypeOf("scan.pdf"))
}

func TestExtractCSV(t *testing.T) {
	content := []byte("Part Number,Description\nRE504836,Oil filter\nAM125424,Air filter\n")
	doc, err := Extract("parts.csv", content)
	require.NoError(t, err)
	assert.Equal(t, model.SourceKindTabular, doc.Kind)
	assert.Equal(t, []string{"Part Number", "Description"}, doc.Columns)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, []string{"RE504836", "Oil filter"}, doc.Rows[0])
}

func TestExtractCSVRaggedRows(t *testing.T) {
	content := []byte("a,b,c\n1,2\n3,4,5,6\n")
	doc, err := Extract("ragged.csv", content)
	require.NoError(t, err)
	require.Len(t, doc.Rows, 2)
	assert.Len(t, doc.Rows[0], 2)
	assert.Len(t, doc.Rows[1], 4)
}

func TestExtractText(t *testing.T) {
	doc, err := Extract("readme.md", []byte("# Maintenance\nChange oil every 100h."))
	require.NoError(t, err)
	assert.Equal(t, model.SourceKindFreeform, doc.Kind)
	assert.Contains(t, doc.Text, "Change oil")
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract("scan.pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, appErr.ErrUnsupportedFormat)
}

func buildDocx(t *testing.T, paragraphs []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0"?><document><body>`)
	for _, p := range paragraphs {
		body.WriteString("<p><r><t>" + p + "</t></r></p>")
	}
	body.WriteString(`</body></document>`)
	_, err = f.Write(body.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractDocx(t *testing.T) {
	content := buildDocx(t, []string{"Operator safety", "Wear hearing protection."})
	doc, err := Extract("manual.docx", content)
	require.NoError(t, err)
	assert.Equal(t, model.SourceKindFreeform, doc.Kind)
	assert.Equal(t, "Operator safety\nWear hearing protection.", doc.Text)
}

func TestExtractDocxNotAZip(t *testing.T) {
	_, err := Extract("manual.docx", []byte("plain text pretending"))
	assert.ErrorIs(t, err, appErr.ErrUnsupportedFormat)
}

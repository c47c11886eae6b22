package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/agdesk/agdesk/internal/model"
	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
)

// FileTypeOf maps a file name to the stored fileType tag, or "" when the
// extension is not supported.
func FileTypeOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "spreadsheet"
	case ".txt":
		return "text"
	case ".md":
		return "markdown"
	case ".docx":
		return "document"
	default:
		return ""
	}
}

// Extract converts raw file content into an extracted document based on the
// file extension. Unsupported extensions are rejected before any parsing.
func Extract(name string, content []byte) (model.ExtractedDocument, error) {
	fileType := FileTypeOf(name)
	doc := model.ExtractedDocument{
		SourceName: name,
		FileType:   fileType,
	}
	switch fileType {
	case "spreadsheet":
		columns, rows, err := parseCSV(content)
		if err != nil {
			return doc, err
		}
		doc.Kind = model.SourceKindTabular
		doc.Columns = columns
		doc.Rows = rows
	case "text", "markdown":
		doc.Kind = model.SourceKindFreeform
		doc.Text = string(content)
	case "document":
		text, err := parseDocx(content)
		if err != nil {
			return doc, err
		}
		doc.Kind = model.SourceKindFreeform
		doc.Text = text
	default:
		return doc, fmt.Errorf("extract %s: %w", name, appErr.ErrUnsupportedFormat)
	}
	return doc, nil
}

// parseCSV reads the header row as column names and the rest as data rows.
// Ragged rows are tolerated, matching how hand-edited exports usually look.
func parseCSV(content []byte) ([]string, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

// parseDocx pulls the paragraph text out of word/document.xml inside the
// docx zip container. Formatting and embedded objects are discarded.
func parseDocx(content []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", appErr.ErrUnsupportedFormat)
	}
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		var doc docxDocument
		if err := xml.Unmarshal(raw, &doc); err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}
		var sb strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				sb.WriteString("\n")
			}
			for _, run := range para.Runs {
				for _, text := range run.Text {
					sb.WriteString(text.Content)
				}
			}
		}
		return strings.TrimSpace(sb.String()), nil
	}
	return "", fmt.Errorf("docx missing document.xml: %w", appErr.ErrUnsupportedFormat)
}

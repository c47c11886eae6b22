package rag

import (
	"strings"

	"github.com/agdesk/agdesk/internal/model"
	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
)

const (
	// FreeformChunkRunes bounds one freeform chunk. Slicing is blind to
	// sentence boundaries; that coarseness is intended.
	FreeformChunkRunes = 32000
	// TabularBatchRows is the number of rows grouped into one chunk.
	TabularBatchRows = 100
)

// ChunkRows groups ordered tabular rows into fixed-size batches. Each row's
// values are joined with spaces, rows within a batch joined with a single
// space; the last batch may be short.
func ChunkRows(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	batches := make([]string, 0, (len(rows)+TabularBatchRows-1)/TabularBatchRows)
	for start := 0; start < len(rows); start += TabularBatchRows {
		end := start + TabularBatchRows
		if end > len(rows) {
			end = len(rows)
		}
		flat := make([]string, 0, end-start)
		for _, row := range rows[start:end] {
			flat = append(flat, strings.Join(row, " "))
		}
		batches = append(batches, strings.Join(flat, " "))
	}
	return batches
}

// ChunkText splits text into fixed-size rune slices with no overlap. The
// concatenation of the result reproduces the input exactly.
func ChunkText(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+FreeformChunkRunes-1)/FreeformChunkRunes)
	for start := 0; start < len(runes); start += FreeformChunkRunes {
		end := start + FreeformChunkRunes
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Split converts an extracted document into its ordered chunk sequence.
// Empty input yields zero chunks; an unknown source kind is an error.
func Split(doc model.ExtractedDocument) ([]model.Chunk, error) {
	var parts []string
	switch doc.Kind {
	case model.SourceKindTabular:
		parts = ChunkRows(doc.Rows)
	case model.SourceKindFreeform:
		parts = ChunkText(doc.Text)
	default:
		return nil, appErr.ErrUnsupportedFormat
	}
	chunks := make([]model.Chunk, 0, len(parts))
	for i, text := range parts {
		chunks = append(chunks, model.Chunk{
			SourceName: doc.SourceName,
			Index:      i,
			Text:       text,
		})
	}
	return chunks, nil
}

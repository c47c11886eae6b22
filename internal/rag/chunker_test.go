package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agdesk/agdesk/internal/model"
	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
)

func makeRows(n int) [][]string {
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, []string{"part", "desc"})
	}
	return rows
}

func TestChunkRowsBatching(t *testing.T) {
	batches := ChunkRows(makeRows(250))
	require.Len(t, batches, 3)

	// 100 rows, each "part desc", space joined
	first := strings.Split(batches[0], " ")
	assert.Len(t, first, 200)
	last := strings.Split(batches[2], " ")
	assert.Len(t, last, 100)
}

func TestChunkRowsExactMultiple(t *testing.T) {
	assert.Len(t, ChunkRows(makeRows(200)), 2)
	assert.Len(t, ChunkRows(makeRows(1)), 1)
	assert.Nil(t, ChunkRows(nil))
}

func TestChunkTextSingleChunk(t *testing.T) {
	text := strings.Repeat("a", FreeformChunkRunes)
	chunks := ChunkText(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkTextConcatReproducesInput(t *testing.T) {
	text := strings.Repeat("x", FreeformChunkRunes*2+17)
	chunks := ChunkText(text)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 17)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestChunkTextRuneBoundaries(t *testing.T) {
	// multi-byte runes must never be split mid-sequence
	text := strings.Repeat("日", FreeformChunkRunes+5)
	chunks := ChunkText(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, FreeformChunkRunes, len([]rune(chunks[0])))
	assert.Equal(t, 5, len([]rune(chunks[1])))
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitAssignsStableIDs(t *testing.T) {
	doc := model.ExtractedDocument{
		SourceName: "parts.csv",
		Kind:       model.SourceKindTabular,
		Rows:       makeRows(150),
	}
	chunks, err := Split(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "parts.csv-0", chunks[0].ID())
	assert.Equal(t, "parts.csv-1", chunks[1].ID())
}

func TestSplitEmptyDocument(t *testing.T) {
	chunks, err := Split(model.ExtractedDocument{Kind: model.SourceKindFreeform})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitUnknownKind(t *testing.T) {
	_, err := Split(model.ExtractedDocument{Kind: model.SourceKind("pdf")})
	assert.ErrorIs(t, err, appErr.ErrUnsupportedFormat)
}

package model

import "fmt"

type SourceKind string

const (
	SourceKindTabular  SourceKind = "tabular"
	SourceKindFreeform SourceKind = "freeform"
)

// ExtractedDocument is the output of a file extractor: either freeform text
// or ordered tabular rows, never both.
type ExtractedDocument struct {
	SourceName string
	Kind       SourceKind
	FileType   string
	Text       string
	Columns    []string
	Rows       [][]string
}

// Chunk is one bounded unit of a document, identified by source name and
// sequence index. Re-ingesting the same source overwrites chunk ids in place.
type Chunk struct {
	SourceName string
	Index      int
	Text       string
}

func (c Chunk) ID() string {
	return fmt.Sprintf("%s-%d", c.SourceName, c.Index)
}

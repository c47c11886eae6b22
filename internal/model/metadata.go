package model

import "encoding/json"

const (
	FileTypeSpreadsheet = "spreadsheet"
)

// PartRecord is the structured payload carried by parts-catalog sources. The
// JSON keys match the stored index records, spaces included.
type PartRecord struct {
	Breadcrumb  string `json:"Breadcrumb,omitempty"`
	Description string `json:"Description,omitempty"`
	PartNumber  string `json:"Part Number,omitempty"`
	Quantity    string `json:"Quantity,omitempty"`
	Remarks     string `json:"Remarks,omitempty"`
}

// ChunkMetadata is the provenance record stored alongside each vector. The
// FileType field tags which optional section applies: spreadsheet sources
// carry batch row ranges, structured part sources carry Model and
// OriginalData. Resolved once at ingestion and carried typed from then on.
type ChunkMetadata struct {
	FileName   string `json:"fileName"`
	ChunkIndex int    `json:"chunkIndex"`
	Content    string `json:"content,omitempty"`
	UploadedBy string `json:"uploadedBy"`
	UploadedAt string `json:"uploadedAt"`
	FileType   string `json:"fileType"`

	// spreadsheet sources only
	BatchStart int `json:"batchStart,omitempty"`
	BatchEnd   int `json:"batchEnd,omitempty"`
	TotalRows  int `json:"totalRows,omitempty"`

	// structured part sources only
	Model        string      `json:"model,omitempty"`
	OriginalData *PartRecord `json:"original_data,omitempty"`
}

func (m *ChunkMetadata) IsSpreadsheet() bool {
	return m.FileType == FileTypeSpreadsheet
}

// ToMap renders the metadata as the generic map the vector store expects.
func (m *ChunkMetadata) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeChunkMetadata resolves the loosely typed metadata map returned by a
// similarity query back into the tagged form. Unknown keys are dropped.
func DecodeChunkMetadata(raw map[string]interface{}) (*ChunkMetadata, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var meta ChunkMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

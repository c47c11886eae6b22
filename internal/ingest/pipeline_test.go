package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agdesk/agdesk/internal/embedding"
	"github.com/agdesk/agdesk/internal/model"
	"github.com/agdesk/agdesk/internal/vectorstore"
)

type noopPacer struct{ waits int }

func (n *noopPacer) Wait(ctx context.Context) error {
	n.waits++
	return nil
}

type scriptedEmbedder struct {
	failOn map[string]bool
}

func (s *scriptedEmbedder) ModelName() string { return "scripted" }

func (s *scriptedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.failOn[text] {
		return nil, fmt.Errorf("upstream down")
	}
	vec := make([]float32, embedding.DefaultDimension)
	vec[0] = 1
	return vec, nil
}

type recordingStore struct {
	upserts []vectorstore.UpsertRequest
	failIDs map[string]error
}

func (r *recordingStore) Upsert(ctx context.Context, req vectorstore.UpsertRequest) error {
	if err := r.failIDs[req.ID]; err != nil {
		return err
	}
	r.upserts = append(r.upserts, req)
	return nil
}

func (r *recordingStore) Query(ctx context.Context, req vectorstore.QueryRequest) ([]vectorstore.Match, error) {
	return nil, nil
}

func newTestPipeline(emb *scriptedEmbedder, store *recordingStore, pacer Pacer) *Pipeline {
	adapter := embedding.NewAdapter(emb, embedding.WithAttempts(1))
	return NewPipeline(adapter, store, pacer, WithUpsertAttempts(1), WithUpsertBaseDelay(0))
}

func freeformDoc(name string, texts ...string) model.ExtractedDocument {
	all := ""
	for _, t := range texts {
		all += t
	}
	return model.ExtractedDocument{
		SourceName: name,
		Kind:       model.SourceKindFreeform,
		FileType:   "text",
		Text:       all,
	}
}

func TestPipelineAllChunksSucceed(t *testing.T) {
	store := &recordingStore{}
	pacer := &noopPacer{}
	p := newTestPipeline(&scriptedEmbedder{}, store, pacer)

	doc := model.ExtractedDocument{
		SourceName: "parts.csv",
		Kind:       model.SourceKindTabular,
		FileType:   "spreadsheet",
		Columns:    []string{"Model", "Part Number"},
		Rows: [][]string{
			{"450K", "RE504836"},
			{"450K", "AM125424"},
		},
	}
	res, err := p.Run(context.Background(), doc, "admin@agdesk.io", nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Succeeded: 1, Total: 1}, res)
	assert.Equal(t, 1, pacer.waits)

	require.Len(t, store.upserts, 1)
	req := store.upserts[0]
	assert.Equal(t, "parts.csv-0", req.ID)
	assert.Len(t, req.Vector, embedding.DefaultDimension)
	assert.Equal(t, "450K", req.Metadata["model"])
	assert.Equal(t, "admin@agdesk.io", req.Metadata["uploadedBy"])
	assert.Equal(t, float64(2), req.Metadata["totalRows"])
}

func TestPipelineFailedChunkIsIsolated(t *testing.T) {
	store := &recordingStore{failIDs: map[string]error{
		"notes.txt-0": fmt.Errorf("index write refused"),
	}}
	p := newTestPipeline(&scriptedEmbedder{}, store, &noopPacer{})

	doc := model.ExtractedDocument{
		SourceName: "notes.txt",
		Kind:       model.SourceKindFreeform,
		FileType:   "text",
		Text:       makeText(2),
	}
	var lastProcessed, lastSucceeded int
	res, err := p.Run(context.Background(), doc, "admin@agdesk.io", func(processed, succeeded, total int) {
		lastProcessed, lastSucceeded = processed, succeeded
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Succeeded: 1, Total: 2}, res)
	assert.Equal(t, 2, lastProcessed)
	assert.Equal(t, 1, lastSucceeded)

	require.Len(t, store.upserts, 1)
	assert.Equal(t, "notes.txt-1", store.upserts[0].ID)
}

func TestPipelineZeroSuccessesFails(t *testing.T) {
	store := &recordingStore{}
	emb := &scriptedEmbedder{failOn: map[string]bool{makeText(1): true}}
	p := newTestPipeline(emb, store, &noopPacer{})

	res, err := p.Run(context.Background(), freeformDoc("notes.txt", makeText(1)), "admin@agdesk.io", nil)
	assert.Error(t, err)
	assert.Equal(t, Result{Succeeded: 0, Total: 1}, res)
	assert.Empty(t, store.upserts)
}

func TestPipelineEmptyDocument(t *testing.T) {
	p := newTestPipeline(&scriptedEmbedder{}, &recordingStore{}, &noopPacer{})
	res, err := p.Run(context.Background(), freeformDoc("empty.txt"), "admin@agdesk.io", nil)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestPipelinePacedPerChunk(t *testing.T) {
	pacer := &noopPacer{}
	p := newTestPipeline(&scriptedEmbedder{}, &recordingStore{}, pacer)

	doc := freeformDoc("big.txt", makeText(3))
	_, err := p.Run(context.Background(), doc, "admin@agdesk.io", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, pacer.waits)
}

// makeText returns text that splits into exactly n freeform chunks.
func makeText(n int) string {
	out := make([]byte, 0, n*32000)
	for i := 0; i < n; i++ {
		for j := 0; j < 32000; j++ {
			out = append(out, 'a')
		}
	}
	return string(out)
}

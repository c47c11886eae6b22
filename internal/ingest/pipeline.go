package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/agdesk/agdesk/internal/embedding"
	"github.com/agdesk/agdesk/internal/model"
	"github.com/agdesk/agdesk/internal/pkg/retry"
	"github.com/agdesk/agdesk/internal/rag"
	"github.com/agdesk/agdesk/internal/vectorstore"
)

const (
	defaultUpsertAttempts  = 5
	defaultUpsertBaseDelay = time.Second
)

// Pacer gates the start of each chunk. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Progress receives cumulative counters after every processed chunk.
type Progress func(processed, succeeded, total int)

// Result summarizes one document ingestion.
type Result struct {
	Succeeded int
	Total     int
}

// Pipeline pushes one document through chunking, embedding and indexing.
// Processing is strictly sequential; a failed chunk is logged and skipped
// while the rest of the document continues.
type Pipeline struct {
	adapter   *embedding.Adapter
	store     vectorstore.Store
	pacer     Pacer
	attempts  int
	baseDelay time.Duration
	now       func() time.Time
}

type PipelineOption func(*Pipeline)

func WithUpsertAttempts(attempts int) PipelineOption {
	return func(p *Pipeline) {
		if attempts > 0 {
			p.attempts = attempts
		}
	}
}

func WithUpsertBaseDelay(delay time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if delay >= 0 {
			p.baseDelay = delay
		}
	}
}

func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
	}
}

func NewPipeline(adapter *embedding.Adapter, store vectorstore.Store, pacer Pacer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		adapter:   adapter,
		store:     store,
		pacer:     pacer,
		attempts:  defaultUpsertAttempts,
		baseDelay: defaultUpsertBaseDelay,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ingests the extracted document under uploadedBy's name. Zero successful
// chunks on non-empty input is a hard failure; anything partial is reported
// through Result and the progress callback.
func (p *Pipeline) Run(ctx context.Context, doc model.ExtractedDocument, uploadedBy string, progress Progress) (Result, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("source", doc.SourceName))

	chunks, err := rag.Split(doc)
	if err != nil {
		return Result{}, err
	}
	res := Result{Total: len(chunks)}
	if res.Total == 0 {
		logger.Info("document produced no chunks, nothing to index")
		return res, nil
	}

	uploadedAt := p.now().UTC().Format(time.RFC3339)
	for i, chunk := range chunks {
		if err := p.pacer.Wait(ctx); err != nil {
			return res, err
		}
		if err := p.processChunk(ctx, doc, chunk, uploadedBy, uploadedAt); err != nil {
			logger.Error("chunk failed, continuing",
				zap.String("chunk_id", chunk.ID()),
				zap.Error(err),
			)
		} else {
			res.Succeeded++
		}
		if progress != nil {
			progress(i+1, res.Succeeded, res.Total)
		}
	}

	logger.Info("document ingested",
		zap.Int("succeeded", res.Succeeded),
		zap.Int("total", res.Total),
	)
	if res.Succeeded == 0 {
		return res, fmt.Errorf("ingest %s: all %d chunks failed", doc.SourceName, res.Total)
	}
	return res, nil
}

func (p *Pipeline) processChunk(ctx context.Context, doc model.ExtractedDocument, chunk model.Chunk, uploadedBy, uploadedAt string) error {
	vec, err := p.adapter.Embed(ctx, chunk.Text)
	if err != nil {
		return err
	}
	if vec == nil {
		return fmt.Errorf("no embedding after retries")
	}
	raw, err := buildMetadata(doc, chunk, uploadedBy, uploadedAt).ToMap()
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return retry.Do(ctx, p.attempts, retry.UpstreamClassifier(p.baseDelay), func(ctx context.Context) error {
		return p.store.Upsert(ctx, vectorstore.UpsertRequest{
			ID:       chunk.ID(),
			Vector:   vec,
			Metadata: raw,
		})
	})
}

// buildMetadata resolves the typed provenance record once per chunk.
// Spreadsheet sources carry the covered row range; when the sheet has a
// Model column and the whole batch shares one value, that value becomes the
// chunk's equipment model tag.
func buildMetadata(doc model.ExtractedDocument, chunk model.Chunk, uploadedBy, uploadedAt string) *model.ChunkMetadata {
	meta := &model.ChunkMetadata{
		FileName:   doc.SourceName,
		ChunkIndex: chunk.Index,
		Content:    chunk.Text,
		UploadedBy: uploadedBy,
		UploadedAt: uploadedAt,
		FileType:   doc.FileType,
	}
	if doc.Kind != model.SourceKindTabular {
		return meta
	}
	start := chunk.Index * rag.TabularBatchRows
	end := start + rag.TabularBatchRows
	if end > len(doc.Rows) {
		end = len(doc.Rows)
	}
	meta.BatchStart = start
	meta.BatchEnd = end
	meta.TotalRows = len(doc.Rows)
	meta.Model = batchModel(doc.Columns, doc.Rows[start:end])
	return meta
}

func batchModel(columns []string, rows [][]string) string {
	col := -1
	for i, name := range columns {
		if strings.EqualFold(strings.TrimSpace(name), "model") {
			col = i
			break
		}
	}
	if col < 0 {
		return ""
	}
	value := ""
	for _, row := range rows {
		if col >= len(row) {
			return ""
		}
		v := strings.ToUpper(strings.TrimSpace(row[col]))
		if v == "" {
			return ""
		}
		if value == "" {
			value = v
		} else if v != value {
			return ""
		}
	}
	return value
}

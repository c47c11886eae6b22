package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/agdesk/agdesk/internal/filestore"
	"github.com/agdesk/agdesk/internal/ingest"
	"github.com/agdesk/agdesk/internal/model"
	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
	"github.com/agdesk/agdesk/internal/repo"
)

const pendingBatchSize = 5

// IngestService accepts document uploads as jobs and drives them through the
// paced indexing pipeline. Upload and processing are decoupled: Submit only
// persists the raw file and a pending job row, the scheduler calls
// ProcessPending to do the work.
type IngestService struct {
	jobRepo  *repo.IngestJobRepo
	files    filestore.Store
	pipeline *ingest.Pipeline
}

func NewIngestService(jobRepo *repo.IngestJobRepo, files filestore.Store, pipeline *ingest.Pipeline) *IngestService {
	return &IngestService{jobRepo: jobRepo, files: files, pipeline: pipeline}
}

// Submit validates the upload and queues it. An active job for the same
// source name is a conflict: the chunk ids of one source must not be written
// by two jobs at once.
func (s *IngestService) Submit(ctx context.Context, uploadedBy, fileName string, r filestore.ReadSeekCloser, size int64) (*model.IngestJob, error) {
	fileType := ingest.FileTypeOf(fileName)
	if fileType == "" {
		return nil, appErr.ErrUnsupportedFormat
	}
	active, err := s.jobRepo.FindActiveBySource(ctx, fileName)
	if err != nil && !errors.Is(err, appErr.ErrNotFound) {
		return nil, err
	}
	if active != nil {
		return nil, appErr.ErrConflict
	}

	fileKey := newID()
	if err := s.files.Save(ctx, fileKey, r, size); err != nil {
		return nil, fmt.Errorf("persist upload: %w", err)
	}

	now := time.Now().Unix()
	job := &model.IngestJob{
		ID:         newID(),
		SourceName: fileName,
		FileKey:    fileKey,
		FileType:   fileType,
		UploadedBy: uploadedBy,
		Status:     model.IngestStatusPending,
		Ctime:      now,
		Mtime:      now,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *IngestService) Status(ctx context.Context, jobID string) (*model.IngestJob, error) {
	return s.jobRepo.Get(ctx, jobID)
}

// ProcessPending claims and runs queued jobs one at a time. The compare-and-
// swap on the status column decides ownership, so overlapping workers never
// process the same job twice.
func (s *IngestService) ProcessPending(ctx context.Context) error {
	jobs, err := s.jobRepo.ListPending(ctx, pendingBatchSize)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		claimed, err := s.jobRepo.UpdateStatusIf(ctx, job.ID, model.IngestStatusPending, model.IngestStatusRunning, time.Now().Unix())
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}
		s.runJob(ctx, &job)
	}
	return nil
}

func (s *IngestService) runJob(ctx context.Context, job *model.IngestJob) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("job_id", job.ID),
		zap.String("source", job.SourceName),
	)

	doc, err := s.loadDocument(ctx, job)
	if err != nil {
		logger.Error("load document failed", zap.Error(err))
		_ = s.jobRepo.MarkFailed(ctx, job.ID, 0, 0, err.Error(), time.Now().Unix())
		return
	}

	res, err := s.pipeline.Run(ctx, doc, job.UploadedBy, func(processed, succeeded, total int) {
		_ = s.jobRepo.UpdateProgress(ctx, job.ID, processed, succeeded, total, time.Now().Unix())
	})
	if err != nil {
		logger.Error("ingestion failed", zap.Error(err))
		_ = s.jobRepo.MarkFailed(ctx, job.ID, res.Succeeded, res.Total, err.Error(), time.Now().Unix())
		return
	}
	logger.Info("ingestion finished",
		zap.Int("succeeded", res.Succeeded),
		zap.Int("total", res.Total),
	)
	_ = s.jobRepo.MarkDone(ctx, job.ID, res.Succeeded, res.Total, time.Now().Unix())
}

func (s *IngestService) loadDocument(ctx context.Context, job *model.IngestJob) (model.ExtractedDocument, error) {
	file, err := s.files.Open(ctx, job.FileKey)
	if err != nil {
		return model.ExtractedDocument{}, fmt.Errorf("open stored file: %w", err)
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		return model.ExtractedDocument{}, fmt.Errorf("read stored file: %w", err)
	}
	return ingest.Extract(job.SourceName, content)
}

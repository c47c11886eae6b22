package job

import (
	"context"

	"github.com/agdesk/agdesk/internal/service"
)

// IngestWorkerJob drains the pending ingest queue on each tick. Overlap
// suppression in the scheduler keeps a long-running document from stacking
// worker runs.
type IngestWorkerJob struct {
	ingest *service.IngestService
}

func NewIngestWorkerJob(ingest *service.IngestService) *IngestWorkerJob {
	return &IngestWorkerJob{ingest: ingest}
}

func (j *IngestWorkerJob) Name() string {
	return "ingest_worker"
}

func (j *IngestWorkerJob) Run(ctx context.Context) error {
	if j.ingest == nil {
		return nil
	}
	return j.ingest.ProcessPending(ctx)
}

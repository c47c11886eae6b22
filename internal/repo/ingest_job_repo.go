package repo

import (
	"context"
	"database/sql"

	"github.com/agdesk/agdesk/internal/model"
	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
)

type IngestJobRepo struct {
	db *sql.DB
}

func NewIngestJobRepo(db *sql.DB) *IngestJobRepo {
	return &IngestJobRepo{db: db}
}

func (r *IngestJobRepo) Create(ctx context.Context, job *model.IngestJob) error {
	const query = `
		INSERT INTO ingest_jobs (id, source_name, file_key, file_type, uploaded_by, status, processed, succeeded, total, error, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.SourceName,
		job.FileKey,
		job.FileType,
		job.UploadedBy,
		job.Status,
		job.Processed,
		job.Succeeded,
		job.Total,
		job.Error,
		job.Ctime,
		job.Mtime,
	)
	return err
}

func (r *IngestJobRepo) Get(ctx context.Context, jobID string) (*model.IngestJob, error) {
	const query = `
		SELECT id, source_name, file_key, file_type, uploaded_by, status, processed, succeeded, total, error, ctime, mtime
		FROM ingest_jobs
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, jobID)
	return scanIngestJob(row)
}

// FindActiveBySource reports whether a pending or running job already claims
// the source name. Used as the per-source upload lock.
func (r *IngestJobRepo) FindActiveBySource(ctx context.Context, sourceName string) (*model.IngestJob, error) {
	const query = `
		SELECT id, source_name, file_key, file_type, uploaded_by, status, processed, succeeded, total, error, ctime, mtime
		FROM ingest_jobs
		WHERE source_name = $1 AND status IN ($2, $3)
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, sourceName, model.IngestStatusPending, model.IngestStatusRunning)
	return scanIngestJob(row)
}

// ListPending returns the oldest pending jobs first.
func (r *IngestJobRepo) ListPending(ctx context.Context, limit int) ([]model.IngestJob, error) {
	const query = `
		SELECT id, source_name, file_key, file_type, uploaded_by, status, processed, succeeded, total, error, ctime, mtime
		FROM ingest_jobs
		WHERE status = $1
		ORDER BY ctime ASC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, model.IngestStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	jobs := make([]model.IngestJob, 0)
	for rows.Next() {
		var job model.IngestJob
		if err := rows.Scan(
			&job.ID,
			&job.SourceName,
			&job.FileKey,
			&job.FileType,
			&job.UploadedBy,
			&job.Status,
			&job.Processed,
			&job.Succeeded,
			&job.Total,
			&job.Error,
			&job.Ctime,
			&job.Mtime,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpdateStatusIf flips the status only when it still holds fromStatus, so
// exactly one worker wins a pending job.
func (r *IngestJobRepo) UpdateStatusIf(ctx context.Context, jobID, fromStatus, toStatus string, mtime int64) (bool, error) {
	const query = `
		UPDATE ingest_jobs
		SET status = $1, mtime = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query, toStatus, mtime, jobID, fromStatus)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *IngestJobRepo) UpdateProgress(ctx context.Context, jobID string, processed, succeeded, total int, mtime int64) error {
	const query = `
		UPDATE ingest_jobs
		SET processed = $1, succeeded = $2, total = $3, mtime = $4
		WHERE id = $5
	`
	res, err := r.db.ExecContext(ctx, query, processed, succeeded, total, mtime, jobID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *IngestJobRepo) MarkDone(ctx context.Context, jobID string, succeeded, total int, mtime int64) error {
	return r.finish(ctx, jobID, model.IngestStatusDone, succeeded, total, "", mtime)
}

func (r *IngestJobRepo) MarkFailed(ctx context.Context, jobID string, succeeded, total int, errMsg string, mtime int64) error {
	return r.finish(ctx, jobID, model.IngestStatusFailed, succeeded, total, errMsg, mtime)
}

func (r *IngestJobRepo) finish(ctx context.Context, jobID, status string, succeeded, total int, errMsg string, mtime int64) error {
	const query = `
		UPDATE ingest_jobs
		SET status = $1, succeeded = $2, total = $3, error = $4, mtime = $5
		WHERE id = $6
	`
	res, err := r.db.ExecContext(ctx, query, status, succeeded, total, errMsg, mtime, jobID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// DeleteFinishedBefore prunes done and failed jobs older than the cutoff.
func (r *IngestJobRepo) DeleteFinishedBefore(ctx context.Context, cutoff int64) (int64, error) {
	const query = `DELETE FROM ingest_jobs WHERE ctime < $1 AND status IN ($2, $3)`
	res, err := r.db.ExecContext(ctx, query, cutoff, model.IngestStatusDone, model.IngestStatusFailed)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanIngestJob(row *sql.Row) (*model.IngestJob, error) {
	var job model.IngestJob
	if err := row.Scan(
		&job.ID,
		&job.SourceName,
		&job.FileKey,
		&job.FileType,
		&job.UploadedBy,
		&job.Status,
		&job.Processed,
		&job.Succeeded,
		&job.Total,
		&job.Error,
		&job.Ctime,
		&job.Mtime,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

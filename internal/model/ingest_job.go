package model

const (
	IngestStatusPending = "pending"
	IngestStatusRunning = "running"
	IngestStatusDone    = "done"
	IngestStatusFailed  = "failed"
)

// IngestJob tracks one uploaded document through the paced embedding loop.
// The raw file lives in the file store under FileKey; progress fields are
// updated by the worker so callers can poll.
type IngestJob struct {
	ID         string
	SourceName string
	FileKey    string
	FileType   string
	UploadedBy string
	Status     string
	Processed  int
	Succeeded  int
	Total      int
	Error      string
	Ctime      int64
	Mtime      int64
}

func (j *IngestJob) Active() bool {
	return j.Status == IngestStatusPending || j.Status == IngestStatusRunning
}

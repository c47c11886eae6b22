package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/agdesk/agdesk/internal/pkg/errcode"
	"github.com/agdesk/agdesk/internal/pkg/response"
	"github.com/agdesk/agdesk/internal/service"
)

type DocumentHandler struct {
	ingest        *service.IngestService
	maxUploadSize int64
}

func NewDocumentHandler(ingest *service.IngestService, maxUploadSize int64) *DocumentHandler {
	return &DocumentHandler{ingest: ingest, maxUploadSize: maxUploadSize}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()

	job, err := h.ingest.Submit(c.Request.Context(), getUserID(c), file.Filename, opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"job_id": job.ID})
}

func (h *DocumentHandler) JobStatus(c *gin.Context) {
	job, err := h.ingest.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"job_id":    job.ID,
		"source":    job.SourceName,
		"status":    job.Status,
		"processed": job.Processed,
		"succeeded": job.Succeeded,
		"total":     job.Total,
		"error":     job.Error,
	})
}

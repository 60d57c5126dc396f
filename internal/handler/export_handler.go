package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annoforge/annotator-api/internal/dto"
	"github.com/annoforge/annotator-api/internal/service"
	appErrors "github.com/annoforge/annotator-api/pkg/errors"
	"github.com/annoforge/annotator-api/pkg/response"
)

type exportService interface {
	GenerateBundle(ctx context.Context, sessionID string, fileIDs []string) ([]byte, string, error)
}

type exportJobService interface {
	CreateJob(ctx context.Context, sessionID string, fileIDs []string) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, sessionID, jobID string) (*dto.ExportJobResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler exposes synchronous and asynchronous export endpoints.
type ExportHandler struct {
	exports exportService
	jobs    exportJobService
}

// NewExportHandler builds a new handler.
func NewExportHandler(exports exportService, jobs exportJobService) *ExportHandler {
	return &ExportHandler{exports: exports, jobs: jobs}
}

// CreateBundle godoc
// @Summary Export selected templates as a PDF bundle
// @Tags Exports
// @Accept json
// @Produce application/zip
// @Param payload body dto.ExportRequest true "File selection"
// @Success 200 {file} binary
// @Router /exports [post]
func (h *ExportHandler) CreateBundle(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	archive, filename, err := h.exports.GenerateBundle(c.Request.Context(), sessionFromContext(c), req.FileIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/zip", archive)
}

// CreateJob godoc
// @Summary Queue an asynchronous export
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "File selection"
// @Success 202 {object} response.Envelope
// @Router /exports/jobs [post]
func (h *ExportHandler) CreateJob(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	job, err := h.jobs.CreateJob(c.Request.Context(), sessionFromContext(c), req.FileIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// GetJob godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/jobs/{id} [get]
func (h *ExportHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.GetStatus(c.Request.Context(), sessionFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Exports
// @Produce application/zip
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}
	download, err := h.jobs.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Header("Content-Type", "application/zip")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, download.File); err != nil {
		c.Abort()
	}
}

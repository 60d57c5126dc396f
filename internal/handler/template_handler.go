package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/annoforge/annotator-api/internal/dto"
	"github.com/annoforge/annotator-api/internal/service"
	appErrors "github.com/annoforge/annotator-api/pkg/errors"
	"github.com/annoforge/annotator-api/pkg/response"
)

type templateService interface {
	Upload(ctx context.Context, sessionID string, files []service.UploadedFile) ([]dto.FileSummary, error)
	ListFiles(ctx context.Context, sessionID string) ([]dto.FileSummary, error)
	GetFile(ctx context.Context, sessionID, fileID string) (*dto.FileDetail, error)
}

// TemplateHandler exposes upload and template browsing endpoints.
type TemplateHandler struct {
	templates templateService
}

// NewTemplateHandler builds a new handler.
func NewTemplateHandler(templates templateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// Upload godoc
// @Summary Upload HTML templates
// @Tags Templates
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "HTML template files"
// @Success 201 {object} response.Envelope
// @Router /upload [post]
func (h *TemplateHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "multipart form required"))
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "no files provided"))
		return
	}

	files := make([]service.UploadedFile, 0, len(headers))
	for _, header := range headers {
		src, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload"))
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload"))
			return
		}
		files = append(files, service.UploadedFile{
			Filename: header.Filename,
			Size:     header.Size,
			Data:     data,
		})
	}

	summaries, err := h.templates.Upload(c.Request.Context(), sessionFromContext(c), files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, summaries)
}

// List godoc
// @Summary List uploaded templates
// @Tags Templates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /files [get]
func (h *TemplateHandler) List(c *gin.Context) {
	summaries, err := h.templates.ListFiles(c.Request.Context(), sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// Get godoc
// @Summary Annotated template preview
// @Tags Templates
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} response.Envelope
// @Router /files/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	start := time.Now()
	detail, err := h.templates.GetFile(c.Request.Context(), sessionFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{
		"processing_time_ms": time.Since(start).Milliseconds(),
		"highlighted":        detail.Render.Highlighted,
		"not_found":          detail.Render.NotFound,
	}
	response.JSON(c, http.StatusOK, detail, nil, meta)
}

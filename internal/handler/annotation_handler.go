package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annoforge/annotator-api/internal/dto"
	"github.com/annoforge/annotator-api/internal/models"
	appErrors "github.com/annoforge/annotator-api/pkg/errors"
	"github.com/annoforge/annotator-api/pkg/response"
)

type annotationService interface {
	Add(ctx context.Context, sessionID, fileID string, req dto.AddAnnotationRequest) (*models.Annotation, error)
	AddSelection(ctx context.Context, sessionID, fileID string, req dto.AddSelectionRequest) (*models.Annotation, error)
	Update(ctx context.Context, sessionID, fileID, annotationID string, req dto.UpdateAnnotationRequest) (*models.Annotation, error)
	Delete(ctx context.Context, sessionID, fileID, annotationID string) error
	Reorder(ctx context.Context, sessionID, fileID string, ids []string) ([]models.Annotation, error)
	Replace(ctx context.Context, sessionID, fileID string, list []models.Annotation) ([]models.Annotation, error)
}

// AnnotationHandler exposes annotation CRUD and ordering endpoints.
type AnnotationHandler struct {
	annotations annotationService
}

// NewAnnotationHandler builds a new handler.
func NewAnnotationHandler(annotations annotationService) *AnnotationHandler {
	return &AnnotationHandler{annotations: annotations}
}

// Add godoc
// @Summary Add an annotation
// @Tags Annotations
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param payload body dto.AddAnnotationRequest true "Annotation"
// @Success 201 {object} response.Envelope
// @Router /files/{id}/annotations [post]
func (h *AnnotationHandler) Add(c *gin.Context) {
	var req dto.AddAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	created, err := h.annotations.Add(c.Request.Context(), sessionFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// AddSelection godoc
// @Summary Annotate selected text
// @Tags Annotations
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param payload body dto.AddSelectionRequest true "Selection"
// @Success 201 {object} response.Envelope
// @Router /files/{id}/annotations/selection [post]
func (h *AnnotationHandler) AddSelection(c *gin.Context) {
	var req dto.AddSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	created, err := h.annotations.AddSelection(c.Request.Context(), sessionFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Update godoc
// @Summary Update annotation metadata
// @Tags Annotations
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param annotationId path string true "Annotation ID"
// @Param payload body dto.UpdateAnnotationRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /files/{id}/annotations/{annotationId} [patch]
func (h *AnnotationHandler) Update(c *gin.Context) {
	var req dto.UpdateAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	updated, err := h.annotations.Update(c.Request.Context(), sessionFromContext(c), c.Param("id"), c.Param("annotationId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete godoc
// @Summary Delete an annotation
// @Tags Annotations
// @Produce json
// @Param id path string true "File ID"
// @Param annotationId path string true "Annotation ID"
// @Success 204
// @Router /files/{id}/annotations/{annotationId} [delete]
func (h *AnnotationHandler) Delete(c *gin.Context) {
	if err := h.annotations.Delete(c.Request.Context(), sessionFromContext(c), c.Param("id"), c.Param("annotationId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reorder godoc
// @Summary Reorder annotations
// @Tags Annotations
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param payload body dto.ReorderRequest true "New id order"
// @Success 200 {object} response.Envelope
// @Router /files/{id}/annotations/order [put]
func (h *AnnotationHandler) Reorder(c *gin.Context) {
	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	ordered, err := h.annotations.Reorder(c.Request.Context(), sessionFromContext(c), c.Param("id"), req.AnnotationIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ordered, nil)
}

// Replace godoc
// @Summary Replace the annotation collection
// @Tags Annotations
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param payload body dto.ReplaceAnnotationsRequest true "Edited collection"
// @Success 200 {object} response.Envelope
// @Router /files/{id}/annotations [put]
func (h *AnnotationHandler) Replace(c *gin.Context) {
	var req dto.ReplaceAnnotationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	replaced, err := h.annotations.Replace(c.Request.Context(), sessionFromContext(c), c.Param("id"), req.Annotations)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, replaced, nil)
}

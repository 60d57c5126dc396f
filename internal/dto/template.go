package dto

import (
	"time"

	"github.com/annoforge/annotator-api/internal/dom"
	"github.com/annoforge/annotator-api/internal/models"
)

// FileSummary lists an uploaded template without its content.
type FileSummary struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	AnnotationCount int       `json:"annotation_count"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

// FileDetail carries the annotation-injected HTML for the editor preview
// plus the raw annotation list and the outcome of the highlight pass.
type FileDetail struct {
	ID          string              `json:"id"`
	Filename    string              `json:"filename"`
	HTML        string              `json:"html"`
	Annotations []models.Annotation `json:"annotations"`
	Render      dom.Summary         `json:"render"`
}

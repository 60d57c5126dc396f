package dto

import "github.com/annoforge/annotator-api/internal/models"

// AddAnnotationRequest covers click-to-add and fully manual additions. A
// missing locator is allowed: the record renders in the list but is skipped
// by the highlighter.
type AddAnnotationRequest struct {
	Type         string  `json:"type" validate:"required"`
	ElementType  string  `json:"element_type"`
	Locator      *string `json:"locator"`
	Label        string  `json:"label" validate:"required"`
	URL          string  `json:"url"`
	Name         string  `json:"name"`
	VariableName string  `json:"variable_name"`
	CustomColor  string  `json:"custom_color" validate:"omitempty,hexcolor"`
	Comments     string  `json:"comments"`
}

// AddSelectionRequest adds an annotation from an active text selection.
type AddSelectionRequest struct {
	Text        string `json:"text" validate:"required"`
	Label       string `json:"label"`
	CustomColor string `json:"custom_color" validate:"omitempty,hexcolor"`
	Comments    string `json:"comments"`
}

// UpdateAnnotationRequest is a partial update of display metadata.
type UpdateAnnotationRequest struct {
	Label       *string `json:"label"`
	URL         *string `json:"url"`
	Name        *string `json:"name"`
	Comments    *string `json:"comments"`
	CustomColor *string `json:"custom_color" validate:"omitempty"`
}

// ReorderRequest replaces the annotation ordering wholesale.
type ReorderRequest struct {
	AnnotationIDs []string `json:"annotation_ids" validate:"required,min=1"`
}

// ReplaceAnnotationsRequest is the legacy bulk update: the full edited list
// in its new order.
type ReplaceAnnotationsRequest struct {
	Annotations []models.Annotation `json:"annotations" validate:"required"`
}

package models

// AnnotationType enumerates the semantic categories an annotation can carry.
// The set is closed: editor fields, highlight styling and PDF layout all
// switch over it exhaustively.
type AnnotationType string

const (
	TypeFormField        AnnotationType = "form_field"
	TypeHyperlink        AnnotationType = "hyperlink"
	TypeTemplateVariable AnnotationType = "template_variable"
	TypeCustomText       AnnotationType = "custom_text"
)

// Valid reports whether t is one of the known annotation types.
func (t AnnotationType) Valid() bool {
	switch t {
	case TypeFormField, TypeHyperlink, TypeTemplateVariable, TypeCustomText:
		return true
	}
	return false
}

// Element type values for template variables; form fields carry the input
// type or tag name, hyperlinks carry "a".
const (
	ElementBracketVariable = "bracketVariable"
	ElementHashVariable    = "hashVariable"
)

// DefaultCustomColor is applied to custom-text highlights when the user did
// not pick a color.
const DefaultCustomColor = "#9b59b6"

// Annotation is the unit of user-visible metadata attached to template
// content. Sequence order within a file's collection is the authoritative
// rendering and export order.
type Annotation struct {
	ID           string         `json:"id"`
	Type         AnnotationType `json:"type"`
	ElementType  string         `json:"element_type"`
	Locator      *string        `json:"locator"`
	Label        string         `json:"label"`
	URL          string         `json:"url,omitempty"`
	Name         string         `json:"name,omitempty"`
	VariableName string         `json:"variable_name,omitempty"`
	CustomColor  string         `json:"custom_color,omitempty"`
	Comments     string         `json:"comments,omitempty"`
}

// AnnotationUpdate carries a partial update. ID, locator and type are
// immutable after creation; only display metadata may change.
type AnnotationUpdate struct {
	Label       *string `json:"label,omitempty"`
	URL         *string `json:"url,omitempty"`
	Name        *string `json:"name,omitempty"`
	Comments    *string `json:"comments,omitempty"`
	CustomColor *string `json:"custom_color,omitempty"`
}

// HighlightClass returns the CSS class painted for this annotation, or
// ok=false when the highlight is an inline custom color instead of a class.
func (a Annotation) HighlightClass() (class string, ok bool) {
	switch a.Type {
	case TypeFormField:
		return "annotation-highlight-element", true
	case TypeHyperlink:
		return "annotation-highlight-link", true
	case TypeTemplateVariable:
		if a.ElementType == ElementBracketVariable {
			return "annotation-highlight-bracket", true
		}
		return "annotation-highlight-variable", true
	case TypeCustomText:
		return "", false
	}
	return "", false
}

// EffectiveColor resolves the inline highlight color for custom-text
// annotations.
func (a Annotation) EffectiveColor() string {
	if a.CustomColor != "" {
		return a.CustomColor
	}
	return DefaultCustomColor
}

// HasLocator reports whether the annotation can be resolved against a
// document. Records without a locator still render in lists and exports but
// are skipped by the highlighter.
func (a Annotation) HasLocator() bool {
	return a.Locator != nil && *a.Locator != ""
}

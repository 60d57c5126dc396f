package dom

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/annoforge/annotator-api/internal/models"
)

const styleTagID = "annotator-highlight-styles"

const highlightCSS = `
.annotation-highlight-element {
    outline: 3px solid #3498db !important;
    outline-offset: 2px;
    box-shadow: 0 0 10px rgba(52, 152, 219, 0.5) !important;
}
.annotation-highlight-link {
    outline: 3px solid #e74c3c !important;
    outline-offset: 2px;
    box-shadow: 0 0 10px rgba(231, 76, 60, 0.5) !important;
}
.annotation-highlight-bracket {
    background: rgba(230, 126, 34, 0.35);
    outline: 2px solid #e67e22;
}
.annotation-highlight-variable {
    background: rgba(39, 174, 96, 0.35);
    outline: 2px solid #27ae60;
}
`

// Summary reports the outcome of one highlight pass. Partial failure is
// normal: annotations whose locators no longer resolve are counted and
// skipped, never fatal.
type Summary struct {
	Highlighted int `json:"highlighted"`
	Skipped     int `json:"skipped"`
	NotFound    int `json:"not_found"`
}

// Highlighter paints annotation markup onto a live document.
type Highlighter struct {
	logger *zap.Logger
}

// NewHighlighter constructs a highlighter.
func NewHighlighter(logger *zap.Logger) *Highlighter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Highlighter{logger: logger}
}

// Apply resolves every annotation in store order against the document and
// tags the targets with the annotation id plus a highlight class (or an
// inline color for custom text). Occurrence counters start at zero for the
// pass, so annotation sequence order decides which repeated-text occurrence
// each annotation binds to. Re-running on a fresh parse of the same source
// with the same annotations produces identical output.
func (h *Highlighter) Apply(doc *Document, annotations []models.Annotation) Summary {
	h.injectStyles(doc)

	resolver := NewResolver(doc)
	occ := NewOccurrenceContext()
	var summary Summary

	for _, a := range annotations {
		if !a.HasLocator() {
			summary.Skipped++
			continue
		}
		loc, err := ParseLocator(*a.Locator)
		if err != nil {
			summary.NotFound++
			h.logger.Warn("unparseable locator", zap.String("annotation_id", a.ID), zap.String("locator", *a.Locator), zap.Error(err))
			continue
		}
		node, err := resolver.Resolve(loc, occ)
		if err != nil {
			summary.NotFound++
			if !errors.Is(err, ErrNotFound) {
				h.logger.Warn("locator resolution failed", zap.String("annotation_id", a.ID), zap.Error(err))
			} else {
				h.logger.Debug("locator target missing", zap.String("annotation_id", a.ID), zap.String("locator", *a.Locator))
			}
			continue
		}

		SetAttr(node, "data-annotation-id", a.ID)
		if class, ok := a.HighlightClass(); ok {
			AddClass(node, class)
		} else {
			AppendStyle(node, fmt.Sprintf("background-color: %s; color: #ffffff;", a.EffectiveColor()))
			AddClass(node, "annotation-highlight-custom")
		}
		summary.Highlighted++
	}
	return summary
}

// injectStyles installs the highlight stylesheet, removing any block left by
// a previous pass first so repeated renders stay idempotent.
func (h *Highlighter) injectStyles(doc *Document) {
	head := doc.Head()

	var stale []*html.Node
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "style" {
			if id, ok := Attr(c, "id"); ok && id == styleTagID {
				stale = append(stale, c)
			}
		}
	}
	for _, n := range stale {
		head.RemoveChild(n)
	}

	style := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	SetAttr(style, "id", styleTagID)
	style.AppendChild(&html.Node{Type: html.TextNode, Data: highlightCSS})
	head.AppendChild(style)
}

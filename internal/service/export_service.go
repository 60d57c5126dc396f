package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/annoforge/annotator-api/internal/dom"
	"github.com/annoforge/annotator-api/internal/models"
	appErrors "github.com/annoforge/annotator-api/pkg/errors"
	"github.com/annoforge/annotator-api/pkg/export"
)

const badgeAttr = "data-export-badge"

// BundleName is the download filename for every generated archive.
const BundleName = "annotated_email_templates.zip"

type pdfRenderer interface {
	Render(doc export.TemplateDocument) ([]byte, error)
}

type archiveBundler interface {
	Bundle(entries []export.BundleEntry) ([]byte, error)
}

// ExportService turns annotated templates into a zip of per-file PDFs. Each
// PDF carries the flattened template text with numbered badges plus a margin
// column describing the annotation behind each badge.
type ExportService struct {
	sessions sessionStore
	pdf      pdfRenderer
	bundler  archiveBundler
	logger   *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(sessions sessionStore, pdf pdfRenderer, bundler archiveBundler, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{sessions: sessions, pdf: pdf, bundler: bundler, logger: logger}
}

// GenerateBundle renders the selected files and packs them into one archive.
// Unknown file ids fail the whole request; an empty selection is invalid.
func (s *ExportService) GenerateBundle(ctx context.Context, sessionID string, fileIDs []string) ([]byte, string, error) {
	if len(fileIDs) == 0 {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "no files selected")
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrSessionExpired.Code {
			return nil, "", appErrors.ErrSessionExpired
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load session")
	}

	entries := make([]export.BundleEntry, 0, len(fileIDs))
	for _, fileID := range fileIDs {
		file := session.File(fileID)
		if file == nil {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("file %s not found", fileID))
		}
		doc, err := s.buildDocument(*file)
		if err != nil {
			return nil, "", err
		}
		data, err := s.pdf.Render(doc)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to render %s", file.Filename))
		}
		entries = append(entries, export.BundleEntry{Name: pdfName(file.Filename), Data: data})
		s.logger.Info("template exported",
			zap.String("file_id", file.ID),
			zap.String("filename", file.Filename),
			zap.Int("annotations", len(file.Annotations)))
	}

	archive, err := s.bundler.Bundle(entries)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build archive")
	}
	return archive, BundleName, nil
}

// buildDocument resolves the annotations in sequence order against a fresh
// parse, stamps badge numbers onto resolved targets and flattens the result
// into the print model. Resolution failures become a margin note remark, not
// an error.
func (s *ExportService) buildDocument(file models.FileRecord) (export.TemplateDocument, error) {
	parsed, err := dom.Parse(file.HTML)
	if err != nil {
		return export.TemplateDocument{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to parse stored template")
	}

	resolver := dom.NewResolver(parsed)
	occ := dom.NewOccurrenceContext()
	notes := make([]export.MarginNote, 0, len(file.Annotations))

	for i, a := range file.Annotations {
		number := i + 1
		note := export.MarginNote{
			Number:  number,
			Kind:    noteKind(a.Type),
			Label:   a.Label,
			Details: noteDetails(a),
		}
		resolved := false
		if a.HasLocator() {
			if loc, err := dom.ParseLocator(*a.Locator); err == nil {
				if node, err := resolver.Resolve(loc, occ); err == nil {
					dom.SetAttr(node, badgeAttr, strconv.Itoa(number))
					resolved = true
				}
			}
		}
		if !resolved {
			note.Details = append(note.Details, "not located in current document")
		}
		notes = append(notes, note)
	}

	return export.TemplateDocument{
		Title: file.Filename,
		Lines: collectLines(parsed),
		Notes: notes,
	}, nil
}

func noteKind(t models.AnnotationType) string {
	switch t {
	case models.TypeFormField:
		return "Form Field"
	case models.TypeHyperlink:
		return "Hyperlink"
	case models.TypeTemplateVariable:
		return "Template Variable"
	case models.TypeCustomText:
		return "Custom Text"
	}
	return string(t)
}

func noteDetails(a models.Annotation) []string {
	var details []string
	if a.URL != "" {
		details = append(details, "URL: "+a.URL)
	}
	if a.Name != "" {
		details = append(details, "Field: "+a.Name)
	}
	if a.VariableName != "" {
		details = append(details, "Variable: "+a.VariableName)
	}
	if a.Comments != "" {
		details = append(details, "Note: "+a.Comments)
	}
	return details
}

func pdfName(filename string) string {
	base := filename
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return "annotated_" + base + ".pdf"
}

var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "blockquote": true, "section": true,
	"article": true, "header": true, "footer": true, "form": true,
}

// collectLines flattens the document body into text lines. Badge-stamped
// elements contribute an inline [n] marker so the margin notes can be matched
// back to the content.
func collectLines(doc *dom.Document) []string {
	var body *html.Node
	doc.Walk(func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return false
		}
		return true
	})
	if body == nil {
		body = doc.Root()
	}

	var lines []string
	var current strings.Builder

	flush := func() {
		line := strings.Join(strings.Fields(current.String()), " ")
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			case "br":
				flush()
				return
			}
			block := blockTags[n.Data]
			if block {
				flush()
			}
			if badge, ok := dom.Attr(n, badgeAttr); ok {
				current.WriteString("[" + badge + "] ")
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c)
			}
			if block {
				flush()
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(body)
	flush()
	return lines
}

package service

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annoforge/annotator-api/internal/models"
	appErrors "github.com/annoforge/annotator-api/pkg/errors"
	"github.com/annoforge/annotator-api/pkg/export"
)

func newExportSessionStub() *sessionStoreStub {
	store := newSessionStoreStub()
	store.sessions["s1"] = &models.SessionData{
		ID:        "s1",
		CreatedAt: time.Now().UTC(),
		Files: []models.FileRecord{{
			ID:       "f1",
			Filename: "newsletter.html",
			HTML: `<html><body>
				<p>Hello [[first_name]], please Submit your reply.</p>
				<a href="mailto:support@example.com">Contact</a>
			</body></html>`,
			Annotations: []models.Annotation{
				{ID: "a1", Type: models.TypeTemplateVariable, ElementType: models.ElementBracketVariable,
					Label: "first_name", VariableName: "first_name", Locator: locatorPtr(`:textvariable("[[first_name]]")`)},
				{ID: "a2", Type: models.TypeHyperlink, Label: "Contact", URL: "mailto:support@example.com",
					Locator: locatorPtr(`:linktext("Contact")`), Comments: "confirm address"},
				{ID: "a3", Type: models.TypeCustomText, Label: "stale", Locator: locatorPtr(`:textselection("vanished copy")`)},
			},
		}},
	}
	return store
}

func newExportServiceForTest(t *testing.T) (*ExportService, *sessionStoreStub) {
	t.Helper()
	store := newExportSessionStub()
	svc := NewExportService(store, export.NewPDFExporter(), export.NewZipBundler(), nil)
	return svc, store
}

func TestExportServiceGenerateBundle(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	archive, filename, err := svc.GenerateBundle(context.Background(), "s1", []string{"f1"})
	require.NoError(t, err)
	assert.Equal(t, BundleName, filename)

	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	require.Len(t, reader.File, 1)
	assert.Equal(t, "annotated_newsletter.pdf", reader.File[0].Name)
	assert.Greater(t, reader.File[0].UncompressedSize64, uint64(0))
}

func TestExportServiceGenerateBundleUnknownFile(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	_, _, err := svc.GenerateBundle(context.Background(), "s1", []string{"f1", "ghost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceGenerateBundleEmptySelection(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	_, _, err := svc.GenerateBundle(context.Background(), "s1", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceGenerateBundleExpiredSession(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	_, _, err := svc.GenerateBundle(context.Background(), "other", []string{"f1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSessionExpired.Code, appErrors.FromError(err).Code)
}

func TestExportServiceBuildDocument(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	file := store.sessions["s1"].Files[0]

	doc, err := svc.buildDocument(file)
	require.NoError(t, err)
	assert.Equal(t, "newsletter.html", doc.Title)
	require.Len(t, doc.Notes, 3)

	// Badge numbers follow annotation sequence order.
	assert.Equal(t, 1, doc.Notes[0].Number)
	assert.Equal(t, "Template Variable", doc.Notes[0].Kind)
	assert.Contains(t, doc.Notes[0].Details, "Variable: first_name")

	assert.Equal(t, "Hyperlink", doc.Notes[1].Kind)
	assert.Contains(t, doc.Notes[1].Details, "URL: mailto:support@example.com")
	assert.Contains(t, doc.Notes[1].Details, "Note: confirm address")

	// The unresolvable annotation keeps its slot and gets a remark.
	assert.Equal(t, 3, doc.Notes[2].Number)
	assert.Contains(t, doc.Notes[2].Details, "not located in current document")

	// Resolved targets surface as inline badges in the flattened text.
	joined := ""
	for _, line := range doc.Lines {
		joined += line + "\n"
	}
	assert.Contains(t, joined, "[1] [[first_name]]")
	assert.Contains(t, joined, "[2] Contact")
	assert.NotContains(t, joined, "[3]")
}

func TestPDFNameDerivation(t *testing.T) {
	assert.Equal(t, "annotated_promo.pdf", pdfName("promo.html"))
	assert.Equal(t, "annotated_raw.pdf", pdfName("raw"))
	assert.Equal(t, "annotated_a.b.pdf", pdfName("a.b.html"))
}

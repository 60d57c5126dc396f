package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annoforge/annotator-api/internal/dto"
	"github.com/annoforge/annotator-api/internal/models"
	appErrors "github.com/annoforge/annotator-api/pkg/errors"
)

func locatorPtr(s string) *string { return &s }

func strPtr(s string) *string { return &s }

func newAnnotationServiceForTest(t *testing.T) (*AnnotationService, *sessionStoreStub, string) {
	t.Helper()
	store := newSessionStoreStub()
	store.sessions["s1"] = &models.SessionData{
		ID:        "s1",
		CreatedAt: time.Now().UTC(),
		Files: []models.FileRecord{{
			ID:       "f1",
			Filename: "newsletter.html",
			HTML:     "<html><body><p>Submit</p></body></html>",
			Annotations: []models.Annotation{
				{ID: "a1", Type: models.TypeFormField, Label: "input: email", Locator: locatorPtr(`input[name="email"]`)},
				{ID: "a2", Type: models.TypeHyperlink, Label: "Contact", Locator: locatorPtr(`:linktext("Contact")`)},
			},
		}},
	}
	return NewAnnotationService(store, nil, nil), store, "f1"
}

func TestAnnotationServiceAdd(t *testing.T) {
	svc, store, fileID := newAnnotationServiceForTest(t)

	created, err := svc.Add(context.Background(), "s1", fileID, dto.AddAnnotationRequest{
		Type:    "custom_text",
		Label:   "call out pricing",
		Locator: locatorPtr(`:textselection("pricing")`),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.TypeCustomText, created.Type)
	assert.Equal(t, models.DefaultCustomColor, created.CustomColor)

	saved := store.sessions["s1"].Files[0].Annotations
	require.Len(t, saved, 3)
	assert.Equal(t, created.ID, saved[2].ID)
}

func TestAnnotationServiceAddWithoutLocator(t *testing.T) {
	svc, _, fileID := newAnnotationServiceForTest(t)

	created, err := svc.Add(context.Background(), "s1", fileID, dto.AddAnnotationRequest{
		Type:  "custom_text",
		Label: "general note",
	})
	require.NoError(t, err)
	assert.Nil(t, created.Locator)
}

func TestAnnotationServiceAddRejectsUnknownType(t *testing.T) {
	svc, _, fileID := newAnnotationServiceForTest(t)

	_, err := svc.Add(context.Background(), "s1", fileID, dto.AddAnnotationRequest{
		Type:  "sticker",
		Label: "x",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAnnotationServiceAddRejectsMissingLabel(t *testing.T) {
	svc, _, fileID := newAnnotationServiceForTest(t)

	_, err := svc.Add(context.Background(), "s1", fileID, dto.AddAnnotationRequest{Type: "custom_text"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAnnotationServiceAddSelection(t *testing.T) {
	svc, store, fileID := newAnnotationServiceForTest(t)

	created, err := svc.AddSelection(context.Background(), "s1", fileID, dto.AddSelectionRequest{
		Text: "Submit",
	})
	require.NoError(t, err)
	require.NotNil(t, created.Locator)
	assert.Equal(t, `:textselection("Submit")`, *created.Locator)
	assert.Equal(t, "Submit", created.Label)
	assert.Equal(t, models.DefaultCustomColor, created.CustomColor)
	assert.Len(t, store.sessions["s1"].Files[0].Annotations, 3)
}

func TestAnnotationServiceAddSelectionRequiresText(t *testing.T) {
	svc, _, fileID := newAnnotationServiceForTest(t)

	_, err := svc.AddSelection(context.Background(), "s1", fileID, dto.AddSelectionRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAnnotationServiceUpdate(t *testing.T) {
	svc, store, fileID := newAnnotationServiceForTest(t)

	updated, err := svc.Update(context.Background(), "s1", fileID, "a2", dto.UpdateAnnotationRequest{
		Label:    strPtr("Contact support"),
		Comments: strPtr("ask legal about wording"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Contact support", updated.Label)
	assert.Equal(t, models.TypeHyperlink, updated.Type)
	assert.Equal(t, `:linktext("Contact")`, *updated.Locator)

	saved := store.sessions["s1"].Files[0].Annotations[1]
	assert.Equal(t, "Contact support", saved.Label)
}

func TestAnnotationServiceUpdateUnknownID(t *testing.T) {
	svc, _, fileID := newAnnotationServiceForTest(t)

	_, err := svc.Update(context.Background(), "s1", fileID, "ghost", dto.UpdateAnnotationRequest{Label: strPtr("x")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAnnotationServiceDelete(t *testing.T) {
	svc, store, fileID := newAnnotationServiceForTest(t)

	require.NoError(t, svc.Delete(context.Background(), "s1", fileID, "a1"))
	saved := store.sessions["s1"].Files[0].Annotations
	require.Len(t, saved, 1)
	assert.Equal(t, "a2", saved[0].ID)

	// Deleting again is a no-op, not an error.
	require.NoError(t, svc.Delete(context.Background(), "s1", fileID, "a1"))
}

func TestAnnotationServiceReorder(t *testing.T) {
	svc, store, fileID := newAnnotationServiceForTest(t)

	ordered, err := svc.Reorder(context.Background(), "s1", fileID, []string{"a2", "a1"})
	require.NoError(t, err)
	assert.Equal(t, "a2", ordered[0].ID)
	assert.Equal(t, "a1", ordered[1].ID)
	assert.Equal(t, "a2", store.sessions["s1"].Files[0].Annotations[0].ID)
}

func TestAnnotationServiceReorderMismatch(t *testing.T) {
	svc, store, fileID := newAnnotationServiceForTest(t)

	_, err := svc.Reorder(context.Background(), "s1", fileID, []string{"a2", "stranger"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOrderMismatch.Code, appErrors.FromError(err).Code)

	// Stored order is untouched after a rejected reorder.
	saved := store.sessions["s1"].Files[0].Annotations
	assert.Equal(t, "a1", saved[0].ID)
	assert.Equal(t, "a2", saved[1].ID)
}

func TestAnnotationServiceReplace(t *testing.T) {
	svc, store, fileID := newAnnotationServiceForTest(t)

	replaced, err := svc.Replace(context.Background(), "s1", fileID, []models.Annotation{
		{ID: "a2", Label: "Contact us", Type: models.TypeCustomText},
		{ID: "a1", Label: "Email"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a2", replaced[0].ID)
	// Immutable fields come from the stored record, not the payload.
	assert.Equal(t, models.TypeHyperlink, replaced[0].Type)
	assert.Equal(t, "Contact us", replaced[0].Label)
	assert.Equal(t, "a2", store.sessions["s1"].Files[0].Annotations[0].ID)
}

func TestAnnotationServiceUnknownFile(t *testing.T) {
	svc, _, _ := newAnnotationServiceForTest(t)

	err := svc.Delete(context.Background(), "s1", "ghost", "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAnnotationServiceExpiredSession(t *testing.T) {
	svc, _, fileID := newAnnotationServiceForTest(t)

	err := svc.Delete(context.Background(), "other", fileID, "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSessionExpired.Code, appErrors.FromError(err).Code)
}

func TestAnnotationServiceSaveFailureSurfacesAsPersistence(t *testing.T) {
	svc, store, fileID := newAnnotationServiceForTest(t)
	store.saveErr = errors.New("backend down")

	err := svc.Delete(context.Background(), "s1", fileID, "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPersistence.Code, appErrors.FromError(err).Code)

	// The stored collection is unchanged when the write fails.
	store.saveErr = nil
	saved := store.sessions["s1"].Files[0].Annotations
	assert.Len(t, saved, 2)
}

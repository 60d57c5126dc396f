package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/annoforge/annotator-api/internal/dom"
	"github.com/annoforge/annotator-api/internal/dto"
	"github.com/annoforge/annotator-api/internal/models"
	appErrors "github.com/annoforge/annotator-api/pkg/errors"
)

// AnnotationService mutates a file's annotation collection. Every mutation
// loads the session, edits the collection through a store and writes the
// session back; a failed write surfaces as a persistence error and leaves the
// stored state unchanged.
type AnnotationService struct {
	sessions  sessionStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnotationService constructs the annotation service.
func NewAnnotationService(sessions sessionStore, validate *validator.Validate, logger *zap.Logger) *AnnotationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnotationService{sessions: sessions, validator: validate, logger: logger}
}

// Add appends a manually created annotation to the end of the sequence.
func (s *AnnotationService) Add(ctx context.Context, sessionID, fileID string, req dto.AddAnnotationRequest) (*models.Annotation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid annotation payload")
	}
	annType := models.AnnotationType(req.Type)
	if !annType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported annotation type")
	}

	annotation := models.Annotation{
		Type:         annType,
		ElementType:  req.ElementType,
		Locator:      req.Locator,
		Label:        req.Label,
		URL:          req.URL,
		Name:         req.Name,
		VariableName: req.VariableName,
		CustomColor:  req.CustomColor,
		Comments:     req.Comments,
	}
	if annType == models.TypeCustomText && annotation.CustomColor == "" {
		annotation.CustomColor = models.DefaultCustomColor
	}

	var created models.Annotation
	err := s.withFile(ctx, sessionID, fileID, func(store *dom.Store) error {
		id := store.Add(annotation)
		created, _ = store.Get(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// AddSelection creates a custom-text annotation from an active text
// selection. The locator binds the next unbound occurrence of the selected
// text in document order.
func (s *AnnotationService) AddSelection(ctx context.Context, sessionID, fileID string, req dto.AddSelectionRequest) (*models.Annotation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "selected text required")
	}
	label := req.Label
	if label == "" {
		label = req.Text
	}
	locator := dom.TextSelectionLocator(req.Text)
	color := req.CustomColor
	if color == "" {
		color = models.DefaultCustomColor
	}

	annotation := models.Annotation{
		Type:        models.TypeCustomText,
		ElementType: "textSelection",
		Locator:     &locator,
		Label:       label,
		CustomColor: color,
		Comments:    req.Comments,
	}

	var created models.Annotation
	err := s.withFile(ctx, sessionID, fileID, func(store *dom.Store) error {
		id := store.Add(annotation)
		created, _ = store.Get(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update applies a partial update to an annotation's display metadata.
func (s *AnnotationService) Update(ctx context.Context, sessionID, fileID, annotationID string, req dto.UpdateAnnotationRequest) (*models.Annotation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	var updated models.Annotation
	err := s.withFile(ctx, sessionID, fileID, func(store *dom.Store) error {
		if err := store.Update(annotationID, models.AnnotationUpdate{
			Label:       req.Label,
			URL:         req.URL,
			Name:        req.Name,
			Comments:    req.Comments,
			CustomColor: req.CustomColor,
		}); err != nil {
			return err
		}
		updated, _ = store.Get(annotationID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an annotation. Deleting an unknown id is a no-op.
func (s *AnnotationService) Delete(ctx context.Context, sessionID, fileID, annotationID string) error {
	return s.withFile(ctx, sessionID, fileID, func(store *dom.Store) error {
		if removed := store.Delete(annotationID); !removed {
			s.logger.Debug("delete of unknown annotation", zap.String("annotation_id", annotationID))
		}
		return nil
	})
}

// Reorder replaces the sequence order wholesale. The id list must be a
// permutation of the stored ids.
func (s *AnnotationService) Reorder(ctx context.Context, sessionID, fileID string, ids []string) ([]models.Annotation, error) {
	var out []models.Annotation
	err := s.withFile(ctx, sessionID, fileID, func(store *dom.Store) error {
		if err := store.Reorder(ids); err != nil {
			return err
		}
		out = store.List()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Replace swaps the collection for an edited copy of itself, keeping
// immutable fields from the stored records.
func (s *AnnotationService) Replace(ctx context.Context, sessionID, fileID string, list []models.Annotation) ([]models.Annotation, error) {
	var out []models.Annotation
	err := s.withFile(ctx, sessionID, fileID, func(store *dom.Store) error {
		if err := store.Replace(list); err != nil {
			return err
		}
		out = store.List()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// withFile loads the session, hands the file's annotations to fn as a store
// and persists the result. The session is only saved when fn succeeds.
func (s *AnnotationService) withFile(ctx context.Context, sessionID, fileID string, fn func(*dom.Store) error) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrSessionExpired.Code {
			return appErrors.ErrSessionExpired
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load session")
	}
	file := session.File(fileID)
	if file == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}

	store := dom.NewStore(file.Annotations)
	if err := fn(store); err != nil {
		return err
	}
	file.Annotations = store.List()

	if err := s.sessions.Save(ctx, session); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	return nil
}

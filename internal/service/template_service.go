package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/annoforge/annotator-api/internal/dom"
	"github.com/annoforge/annotator-api/internal/dto"
	"github.com/annoforge/annotator-api/internal/models"
	appErrors "github.com/annoforge/annotator-api/pkg/errors"
)

type sessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.SessionData, error)
	Save(ctx context.Context, data *models.SessionData) error
	Delete(ctx context.Context, sessionID string) error
}

type annotationDetector interface {
	Detect(source string) ([]models.Annotation, error)
}

type highlightObserver interface {
	ObserveHighlightPass(summary dom.Summary)
}

// UploadedFile is one incoming multipart file, already read into memory.
type UploadedFile struct {
	Filename string
	Size     int64
	Data     []byte
}

// TemplateServiceConfig bounds accepted uploads.
type TemplateServiceConfig struct {
	MaxFileSizeBytes  int64
	AllowedExtensions []string
	MaxFilesPerUpload int
}

// TemplateService manages the session-scoped template collection: upload,
// listing, annotated preview rendering and session teardown.
type TemplateService struct {
	sessions    sessionStore
	detector    annotationDetector
	highlighter *dom.Highlighter
	metrics     highlightObserver
	logger      *zap.Logger
	cfg         TemplateServiceConfig
}

// NewTemplateService constructs the template service.
func NewTemplateService(sessions sessionStore, detector annotationDetector, highlighter *dom.Highlighter, metrics highlightObserver, logger *zap.Logger, cfg TemplateServiceConfig) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 16 * 1024 * 1024
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{".html", ".htm"}
	}
	if cfg.MaxFilesPerUpload <= 0 {
		cfg.MaxFilesPerUpload = 20
	}
	return &TemplateService{
		sessions:    sessions,
		detector:    detector,
		highlighter: highlighter,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
	}
}

// Upload validates the incoming files, runs detection on each and appends the
// resulting records to the session. A missing session is started fresh.
func (s *TemplateService) Upload(ctx context.Context, sessionID string, files []UploadedFile) ([]dto.FileSummary, error) {
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no files provided")
	}
	if len(files) > s.cfg.MaxFilesPerUpload {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d files per upload", s.cfg.MaxFilesPerUpload))
	}

	session, err := s.loadOrInit(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.FileSummary, 0, len(files))
	for _, f := range files {
		if err := s.validateFile(f); err != nil {
			return nil, err
		}

		source := strings.ToValidUTF8(string(f.Data), "")
		detected, err := s.detector.Detect(source)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("failed to parse %s", f.Filename))
		}
		record := models.FileRecord{
			ID:          uuid.NewString(),
			Filename:    filepath.Base(f.Filename),
			HTML:        source,
			Annotations: dom.NewStore(detected).List(),
			UploadedAt:  time.Now().UTC(),
		}
		session.Files = append(session.Files, record)
		summaries = append(summaries, dto.FileSummary{
			ID:              record.ID,
			Filename:        record.Filename,
			AnnotationCount: len(record.Annotations),
			UploadedAt:      record.UploadedAt,
		})
		s.logger.Info("template uploaded",
			zap.String("file_id", record.ID),
			zap.String("filename", record.Filename),
			zap.Int("annotations", len(record.Annotations)))
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	return summaries, nil
}

// ListFiles returns summaries for every template in the session.
func (s *TemplateService) ListFiles(ctx context.Context, sessionID string) ([]dto.FileSummary, error) {
	session, err := s.loadOrInit(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.FileSummary, 0, len(session.Files))
	for _, f := range session.Files {
		summaries = append(summaries, dto.FileSummary{
			ID:              f.ID,
			Filename:        f.Filename,
			AnnotationCount: len(f.Annotations),
			UploadedAt:      f.UploadedAt,
		})
	}
	return summaries, nil
}

// GetFile re-parses the stored source, replays the highlight pass over the
// current annotation collection and returns the injected HTML. The stored
// source is never modified; every load rebuilds from scratch.
func (s *TemplateService) GetFile(ctx context.Context, sessionID, fileID string) (*dto.FileDetail, error) {
	session, err := s.loadOrInit(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	file := session.File(fileID)
	if file == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}

	doc, err := dom.Parse(file.HTML)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to parse stored template")
	}
	summary := s.highlighter.Apply(doc, file.Annotations)
	if s.metrics != nil {
		s.metrics.ObserveHighlightPass(summary)
	}
	rendered, err := doc.Render()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render template")
	}

	return &dto.FileDetail{
		ID:          file.ID,
		Filename:    file.Filename,
		HTML:        rendered,
		Annotations: append([]models.Annotation(nil), file.Annotations...),
		Render:      summary,
	}, nil
}

// ClearSession discards every uploaded template and annotation.
func (s *TemplateService) ClearSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to clear session")
	}
	return nil
}

func (s *TemplateService) validateFile(f UploadedFile) error {
	ext := strings.ToLower(filepath.Ext(f.Filename))
	allowed := false
	for _, a := range s.cfg.AllowedExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("%s: only HTML templates are accepted", f.Filename))
	}
	size := f.Size
	if size <= 0 {
		size = int64(len(f.Data))
	}
	if size > s.cfg.MaxFileSizeBytes {
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("%s exceeds the size limit", f.Filename))
	}
	return nil
}

func (s *TemplateService) loadOrInit(ctx context.Context, sessionID string) (*models.SessionData, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err == nil {
		return session, nil
	}
	if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrSessionExpired.Code {
		return &models.SessionData{ID: sessionID, CreatedAt: time.Now().UTC()}, nil
	}
	return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load session")
}

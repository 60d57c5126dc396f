package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/annoforge/annotator-api/internal/dto"
	"github.com/annoforge/annotator-api/internal/models"
	"github.com/annoforge/annotator-api/internal/repository"
	appErrors "github.com/annoforge/annotator-api/pkg/errors"
	"github.com/annoforge/annotator-api/pkg/jobs"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListFinishedBefore(ctx context.Context, cutoff time.Time) ([]models.ExportJob, error)
	Delete(ctx context.Context, id string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type bundleGenerator interface {
	GenerateBundle(ctx context.Context, sessionID string, fileIDs []string) ([]byte, string, error)
}

type bundleStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

type exportJobObserver interface {
	ObserveExportJob(status models.ExportStatus)
}

// ExportJobServiceConfig governs result retention and retry limits.
type ExportJobServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	MaxRetries      int
	DownloadPath    string
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

// ExportJobService runs bundle generation asynchronously: jobs are queued,
// processed by the worker pool, and the finished archive is fetched later
// through a signed download token.
type ExportJobService struct {
	repo      exportJobStore
	queue     jobDispatcher
	generator bundleGenerator
	storage   bundleStorage
	signer    downloadSigner
	metrics   exportJobObserver
	logger    *zap.Logger
	cfg       ExportJobServiceConfig
}

// NewExportJobService constructs the async export service.
func NewExportJobService(repo exportJobStore, queue jobDispatcher, generator bundleGenerator, storage bundleStorage, signer downloadSigner, metrics exportJobObserver, logger *zap.Logger, cfg ExportJobServiceConfig) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.DownloadPath == "" {
		cfg.DownloadPath = "/exports/download"
	}
	return &ExportJobService{
		repo:      repo,
		queue:     queue,
		generator: generator,
		storage:   storage,
		signer:    signer,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// SetQueue attaches the dispatcher after construction. The queue's handler is
// this service's Handle method, so the two are built in sequence.
func (s *ExportJobService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// CreateJob persists a queued job and enqueues processing.
func (s *ExportJobService) CreateJob(ctx context.Context, sessionID string, fileIDs []string) (*dto.ExportJobResponse, error) {
	if len(fileIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no files selected")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue unavailable")
	}
	job := &models.ExportJob{
		SessionID: sessionID,
		FileIDs:   fileIDs,
		Status:    models.ExportStatusQueued,
		Progress:  0,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if s.metrics != nil {
		s.metrics.ObserveExportJob(models.ExportStatusQueued)
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "export_bundle"}); err != nil {
		s.markFailed(ctx, job.ID, "failed to enqueue job")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return &dto.ExportJobResponse{ID: job.ID, Status: string(job.Status), Progress: job.Progress}, nil
}

// GetStatus exposes job state to the owning session.
func (s *ExportJobService) GetStatus(ctx context.Context, sessionID, jobID string) (*dto.ExportJobResponse, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.SessionID != sessionID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	resp := &dto.ExportJobResponse{
		ID:       job.ID,
		Status:   string(job.Status),
		Progress: job.Progress,
	}
	if job.ResultURL != nil {
		resp.ResultURL = job.ResultURL
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// Handle processes one queued job: generate the archive, store it, sign the
// download URL and mark the job finished.
func (s *ExportJobService) Handle(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ExportStatusProcessing
	progress := 10
	if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ObserveExportJob(models.ExportStatusProcessing)
	}

	archive, filename, err := s.generator.GenerateBundle(ctx, record.SessionID, record.FileIDs)
	if err != nil {
		return s.retryOrFail(ctx, job, err)
	}

	relPath, err := s.storage.Save(fmt.Sprintf("%s_%s", job.ID, filename), archive)
	if err != nil {
		return s.retryOrFail(ctx, job, err)
	}
	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return s.retryOrFail(ctx, job, err)
	}

	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	url := s.cfg.DownloadPath + "?token=" + token
	clear := ""
	if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultPath:   &relPath,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Sugar().Warnw("failed to mark export job finished", "job_id", job.ID, "error", err)
		return err
	}
	if s.metrics != nil {
		s.metrics.ObserveExportJob(models.ExportStatusFinished)
	}
	return nil
}

// ResolveDownload validates the token and opens the stored archive.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ExportStatusFinished || job.ResultPath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open archive")
	}
	return &ExportDownload{
		File:      file,
		Filename:  BundleName,
		ExpiresAt: expiresAt,
	}, nil
}

// StartCleanup boots a goroutine that purges expired archives periodically.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ExportJobService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	expired, err := s.repo.ListFinishedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Sugar().Warnw("cleanup list failed", "error", err)
		return
	}
	for _, job := range expired {
		if job.ResultPath != "" {
			if err := s.storage.Delete(filepath.Base(job.ResultPath)); err != nil {
				s.logger.Sugar().Warnw("cleanup delete failed", "job_id", job.ID, "error", err)
			}
		}
		if err := s.repo.Delete(ctx, job.ID); err != nil {
			s.logger.Sugar().Warnw("cleanup job delete failed", "job_id", job.ID, "error", err)
		}
	}
	if _, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("filesystem cleanup failed", "error", err)
	}
}

// retryOrFail requeues a transient failure, returning the cause so the
// dispatcher schedules another attempt. Terminal failures (exhausted attempts
// or an error no retry can heal) mark the job FAILED and return nil: the
// dispatcher must not re-process a job that already reached a final status.
func (s *ExportJobService) retryOrFail(ctx context.Context, job jobs.Job, cause error) error {
	if job.Attempt >= s.cfg.MaxRetries || !retryable(cause) {
		s.markFailed(ctx, job.ID, cause.Error())
		return nil
	}

	queued := models.ExportStatusQueued
	reset := 0
	msg := cause.Error()
	if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &queued,
		Progress:     &reset,
		ErrorMessage: &msg,
	}); err != nil {
		s.logger.Sugar().Warnw("failed to requeue export job", "job_id", job.ID, "error", err)
	}
	return cause
}

func (s *ExportJobService) markFailed(ctx context.Context, jobID, message string) {
	failed := models.ExportStatusFailed
	progress := 100
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, jobID, repository.UpdateExportJobParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Sugar().Warnw("failed to mark export job failed", "job_id", jobID, "error", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveExportJob(models.ExportStatusFailed)
	}
}

// retryable reports whether a generation failure is worth another attempt.
// Validation problems and missing files never heal on retry.
func retryable(err error) bool {
	appErr := appErrors.FromError(err)
	switch appErr.Code {
	case appErrors.ErrValidation.Code, appErrors.ErrNotFound.Code, appErrors.ErrSessionExpired.Code:
		return false
	}
	return true
}

package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/annoforge/annotator-api/internal/models"
	appErrors "github.com/annoforge/annotator-api/pkg/errors"
)

// UpdateExportJobParams carries a partial export-job update.
type UpdateExportJobParams struct {
	Status       *models.ExportStatus
	Progress     *int
	ResultPath   *string
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// ExportJobRepository tracks export jobs in memory. Jobs are scoped to the
// process lifetime, like the sessions whose files they bundle.
type ExportJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]models.ExportJob
}

// NewExportJobRepository constructs the job table.
func NewExportJobRepository() *ExportJobRepository {
	return &ExportJobRepository{jobs: make(map[string]models.ExportJob)}
}

// Create assigns an id and stores the job.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	r.jobs[job.ID] = *job
	r.mu.Unlock()
	return nil
}

// GetByID returns a copy of the stored job.
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	r.mu.RLock()
	job, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return &job, nil
}

// Update applies a partial update to the stored job.
func (r *ExportJobRepository) Update(ctx context.Context, id string, params UpdateExportJobParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultPath != nil {
		job.ResultPath = *params.ResultPath
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	r.jobs[id] = job
	return nil
}

// ListFinishedBefore returns finished or failed jobs whose completion
// precedes the cutoff, for cleanup.
func (r *ExportJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time) ([]models.ExportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.ExportJob
	for _, job := range r.jobs {
		if job.FinishedAt == nil {
			continue
		}
		if job.Status != models.ExportStatusFinished && job.Status != models.ExportStatusFailed {
			continue
		}
		if job.FinishedAt.Before(cutoff) {
			out = append(out, job)
		}
	}
	return out, nil
}

// Delete removes a job record.
func (r *ExportJobRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.jobs, id)
	r.mu.Unlock()
	return nil
}

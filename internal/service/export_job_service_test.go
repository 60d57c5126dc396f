package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annoforge/annotator-api/internal/models"
	"github.com/annoforge/annotator-api/internal/repository"
	appErrors "github.com/annoforge/annotator-api/pkg/errors"
	"github.com/annoforge/annotator-api/pkg/jobs"
	"github.com/annoforge/annotator-api/pkg/storage"
)

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type generatorStub struct {
	mu      sync.Mutex
	archive []byte
	err     error
	calls   int
}

func (g *generatorStub) GenerateBundle(ctx context.Context, sessionID string, fileIDs []string) ([]byte, string, error) {
	g.mu.Lock()
	g.calls++
	err := g.err
	g.mu.Unlock()
	if err != nil {
		return nil, "", err
	}
	return g.archive, BundleName, nil
}

func (g *generatorStub) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *generatorStub) setErr(err error) {
	g.mu.Lock()
	g.err = err
	g.mu.Unlock()
}

func newExportJobServiceForTest(t *testing.T) (*ExportJobService, *repository.ExportJobRepository, *queueStub, *generatorStub) {
	t.Helper()
	repo := repository.NewExportJobRepository()
	queue := &queueStub{}
	generator := &generatorStub{archive: []byte("zip-bytes")}
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	svc := NewExportJobService(repo, queue, generator, store, signer, nil, nil, ExportJobServiceConfig{
		ResultTTL:       time.Hour,
		CleanupInterval: time.Hour,
		MaxRetries:      2,
		DownloadPath:    "/api/v1/exports/download",
	})
	return svc, repo, queue, generator
}

func TestExportJobServiceCreateJob(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)

	resp, err := svc.CreateJob(context.Background(), "s1", []string{"f1"})
	require.NoError(t, err)
	assert.Equal(t, string(models.ExportStatusQueued), resp.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, resp.ID, queue.jobs[0].ID)

	job, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "s1", job.SessionID)
	assert.Equal(t, []string{"f1"}, job.FileIDs)
}

func TestExportJobServiceCreateJobEmptySelection(t *testing.T) {
	svc, _, _, _ := newExportJobServiceForTest(t)

	_, err := svc.CreateJob(context.Background(), "s1", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceCreateJobEnqueueFailure(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)
	queue.err = errors.New("queue stopped")

	_, err := svc.CreateJob(context.Background(), "s1", []string{"f1"})
	require.Error(t, err)

	// The persisted job is marked failed rather than stuck queued.
	failed, listErr := repo.ListFinishedBefore(context.Background(), time.Now().Add(time.Minute))
	require.NoError(t, listErr)
	require.Len(t, failed, 1)
	assert.Equal(t, models.ExportStatusFailed, failed[0].Status)
}

func TestExportJobServiceHandleFinishesJob(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)

	resp, err := svc.CreateJob(context.Background(), "s1", []string{"f1"})
	require.NoError(t, err)
	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))

	job, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.True(t, strings.HasPrefix(*job.ResultURL, "/api/v1/exports/download?token="))
	require.NotNil(t, job.FinishedAt)
}

func TestExportJobServiceDownloadRoundTrip(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)

	resp, err := svc.CreateJob(context.Background(), "s1", []string{"f1"})
	require.NoError(t, err)
	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))

	job, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	token := strings.TrimPrefix(*job.ResultURL, "/api/v1/exports/download?token=")

	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()

	assert.Equal(t, BundleName, download.Filename)
	data, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, []byte("zip-bytes"), data)
}

func TestExportJobServiceDownloadRejectsTamperedToken(t *testing.T) {
	svc, _, queue, _ := newExportJobServiceForTest(t)

	_, err := svc.CreateJob(context.Background(), "s1", []string{"f1"})
	require.NoError(t, err)
	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))

	_, err = svc.ResolveDownload(context.Background(), "not.a.valid.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceHandleRetriesTransientFailure(t *testing.T) {
	svc, repo, queue, generator := newExportJobServiceForTest(t)
	generator.setErr(errors.New("flaky"))

	resp, err := svc.CreateJob(context.Background(), "s1", []string{"f1"})
	require.NoError(t, err)

	// Transient failures surface to the dispatcher so it retries.
	err = svc.Handle(context.Background(), queue.jobs[0])
	require.Error(t, err)

	job, getErr := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
}

func TestExportJobServiceHandleExhaustedRetriesFails(t *testing.T) {
	svc, repo, queue, generator := newExportJobServiceForTest(t)
	generator.setErr(errors.New("still broken"))

	resp, err := svc.CreateJob(context.Background(), "s1", []string{"f1"})
	require.NoError(t, err)

	// The final attempt is terminal: the job is marked failed and the error
	// is swallowed so the dispatcher does not schedule another round.
	exhausted := queue.jobs[0]
	exhausted.Attempt = 2
	require.NoError(t, svc.Handle(context.Background(), exhausted))

	job, getErr := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "still broken", *job.ErrorMessage)
}

func TestExportJobServiceHandleSkipsRetryForValidationErrors(t *testing.T) {
	svc, repo, queue, generator := newExportJobServiceForTest(t)
	generator.setErr(appErrors.Clone(appErrors.ErrNotFound, "file gone"))

	resp, err := svc.CreateJob(context.Background(), "s1", []string{"f1"})
	require.NoError(t, err)

	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))

	job, getErr := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.ExportStatusFailed, job.Status)
}

func TestExportJobServiceQueueDoesNotReprocessTerminalFailure(t *testing.T) {
	repo := repository.NewExportJobRepository()
	generator := &generatorStub{}
	generator.setErr(appErrors.Clone(appErrors.ErrValidation, "no files selected"))
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	svc := NewExportJobService(repo, nil, generator, store, signer, nil, nil, ExportJobServiceConfig{
		ResultTTL:       time.Hour,
		CleanupInterval: time.Hour,
		MaxRetries:      3,
		DownloadPath:    "/api/v1/exports/download",
	})
	queue := jobs.NewQueue("exports-test", svc.Handle, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: 5 * time.Millisecond,
	})
	svc.SetQueue(queue)
	queue.Start(context.Background())
	defer queue.Stop()

	resp, err := svc.CreateJob(context.Background(), "s1", []string{"f1"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		job, getErr := repo.GetByID(context.Background(), resp.ID)
		return getErr == nil && job.Status == models.ExportStatusFailed
	}, time.Second, 10*time.Millisecond)

	// Give any stray retry a chance to land before counting invocations.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, generator.callCount())
}

func TestExportJobServiceGetStatusEnforcesOwnership(t *testing.T) {
	svc, _, _, _ := newExportJobServiceForTest(t)

	resp, err := svc.CreateJob(context.Background(), "s1", []string{"f1"})
	require.NoError(t, err)

	_, err = svc.GetStatus(context.Background(), "intruder", resp.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	status, err := svc.GetStatus(context.Background(), "s1", resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, status.ID)
}

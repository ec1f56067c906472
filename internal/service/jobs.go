package service

import (
	"context"
	"log/slog"

	"github.com/benw5483/rectifierr/internal/api"
	"github.com/benw5483/rectifierr/internal/domain"
)

// JobsService wraps the job-facing API surface: scans, the sync
// singleton, and trim jobs. It holds no state; polling and lifecycle
// tracking live in the components that own each job.
type JobsService struct {
	client *api.Client
	logger *slog.Logger
}

// NewJobsService creates a jobs service.
func NewJobsService(client *api.Client, logger *slog.Logger) *JobsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobsService{client: client, logger: logger}
}

// === Scans ===

// StartLibraryScan queues a scan over the whole library.
func (s *JobsService) StartLibraryScan(ctx context.Context) (*domain.ScanJob, error) {
	return s.client.StartScan(ctx, domain.ScanFullLibrary, "", 0)
}

// StartFileScan queues a scan of one media file.
func (s *JobsService) StartFileScan(ctx context.Context, mediaID int) (int, error) {
	return s.client.ScanMedia(ctx, mediaID)
}

// ActiveScans returns scan jobs with non-terminal status.
func (s *JobsService) ActiveScans(ctx context.Context) ([]domain.ScanJob, error) {
	return s.client.ActiveScans(ctx)
}

// GetScan fetches one scan job's full record, including terminal state
// the active listing does not carry.
func (s *JobsService) GetScan(ctx context.Context, jobID int) (*domain.ScanJob, error) {
	return s.client.GetScan(ctx, jobID)
}

// CancelScan requests cancellation. A failure leaves the job (and any
// toast showing it) untouched; there is no automatic retry.
func (s *JobsService) CancelScan(ctx context.Context, jobID int) error {
	return s.client.CancelScan(ctx, jobID)
}

// === Sync ===

// StartSync kicks off a library sync. The false return means one was
// already running, which callers treat as success.
func (s *JobsService) StartSync(ctx context.Context) (bool, error) {
	return s.client.StartSync(ctx)
}

// SyncStatus returns the sync singleton's live progress.
func (s *JobsService) SyncStatus(ctx context.Context) (*domain.SyncStatus, error) {
	return s.client.SyncStatus(ctx)
}

// CancelSync asks a running sync to stop.
func (s *JobsService) CancelSync(ctx context.Context) (bool, error) {
	return s.client.CancelSync(ctx)
}

// === Trims ===

// SubmitTrim queues a trim job. Callers gate this behind the
// double-confirmation flow; it is never issued twice for one gesture.
func (s *JobsService) SubmitTrim(ctx context.Context, mediaID int, removeStart, removeEnd float64, issueID int) (*domain.TrimJob, error) {
	return s.client.SubmitTrim(ctx, mediaID, removeStart, removeEnd, issueID)
}

// GetTrim returns the current state of a trim job.
func (s *JobsService) GetTrim(ctx context.Context, mediaID, jobID int) (*domain.TrimJob, error) {
	return s.client.GetTrimJob(ctx, mediaID, jobID)
}

// ResolveIssue marks an issue handled without touching the file.
func (s *JobsService) ResolveIssue(ctx context.Context, mediaID, issueID int, method string) error {
	return s.client.ResolveIssue(ctx, mediaID, issueID, method)
}

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/benw5483/rectifierr/internal/domain"
)

// fmtPath is a tiny helper so call sites read as paths, not format verbs.
func fmtPath(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

// StartScan queues a new scan job.
func (c *Client) StartScan(ctx context.Context, scanType domain.ScanType, targetPath string, mediaFileID int) (*domain.ScanJob, error) {
	payload := map[string]any{"scan_type": scanType}
	if targetPath != "" {
		payload["target_path"] = targetPath
	}
	if mediaFileID != 0 {
		payload["media_file_id"] = mediaFileID
	}
	var job domain.ScanJob
	if err := c.sendJSON(ctx, http.MethodPost, "/scan/", payload, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ActiveScans returns scan jobs that are pending or running.
func (c *Client) ActiveScans(ctx context.Context) ([]domain.ScanJob, error) {
	var jobs []domain.ScanJob
	if err := c.getJSON(ctx, "/scan/active", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetScan returns the full record of one scan job, terminal or not.
func (c *Client) GetScan(ctx context.Context, jobID int) (*domain.ScanJob, error) {
	var job domain.ScanJob
	if err := c.getJSON(ctx, fmtPath("/scan/%d", jobID), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// CancelScan requests cancellation of a pending or running scan job.
func (c *Client) CancelScan(ctx context.Context, jobID int) error {
	return c.sendJSON(ctx, http.MethodDelete, fmtPath("/scan/%d", jobID), nil, nil)
}

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/benw5483/rectifierr/internal/domain"
)

// MediaQuery narrows the media listing.
type MediaQuery struct {
	Skip           int
	Limit          int
	Search         string
	UnresolvedOnly bool
}

// Values encodes the query for the listing endpoint. The encoding is
// also used as the cache key for the listing store.
func (q MediaQuery) Values() url.Values {
	v := url.Values{}
	v.Set("skip", strconv.Itoa(q.Skip))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.UnresolvedOnly {
		v.Set("unresolved_only", "true")
	}
	return v
}

// ListMedia returns one page of the media listing.
func (c *Client) ListMedia(ctx context.Context, q MediaQuery) (*domain.MediaPage, error) {
	var page domain.MediaPage
	if err := c.getJSON(ctx, "/media/", q.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetMedia returns one media file with its issues included.
func (c *Client) GetMedia(ctx context.Context, mediaID int) (*domain.MediaFile, error) {
	var m domain.MediaFile
	if err := c.getJSON(ctx, fmtPath("/media/%d", mediaID), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Stats returns the aggregate library statistics.
func (c *Client) Stats(ctx context.Context) (*domain.LibraryStats, error) {
	var stats domain.LibraryStats
	if err := c.getJSON(ctx, "/media/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SubmitTrim queues a trim job removing [removeStart, removeEnd] from
// the file. Never auto-retried; a retry is a new user-initiated submit.
func (c *Client) SubmitTrim(ctx context.Context, mediaID int, removeStart, removeEnd float64, issueID int) (*domain.TrimJob, error) {
	payload := map[string]any{
		"remove_start": removeStart,
		"remove_end":   removeEnd,
	}
	if issueID != 0 {
		payload["issue_id"] = issueID
	}
	var job domain.TrimJob
	if err := c.sendJSON(ctx, http.MethodPost, fmtPath("/media/%d/trim", mediaID), payload, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetTrimJob returns the current state of a trim job.
func (c *Client) GetTrimJob(ctx context.Context, mediaID, jobID int) (*domain.TrimJob, error) {
	var job domain.TrimJob
	if err := c.getJSON(ctx, fmtPath("/media/%d/trim-jobs/%d", mediaID, jobID), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ScanMedia queues a single-file scan for one media record.
func (c *Client) ScanMedia(ctx context.Context, mediaID int) (int, error) {
	var resp struct {
		JobID int `json:"job_id"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, fmtPath("/media/%d/scan", mediaID), nil, &resp); err != nil {
		return 0, err
	}
	return resp.JobID, nil
}

// ResolveIssue marks an issue handled without trimming the file.
func (c *Client) ResolveIssue(ctx context.Context, mediaID, issueID int, method string) error {
	payload := map[string]string{"method": method}
	return c.sendJSON(ctx, http.MethodPost, fmtPath("/media/%d/issues/%d/resolve", mediaID, issueID), payload, nil)
}

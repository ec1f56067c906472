package domain

import "fmt"

// JobStatus is the lifecycle state of a backend job (scan, sync, or trim).
// The client only ever reads these; all mutation happens server-side.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
	// StatusIdle is reported by the sync endpoint when no sync has run yet.
	StatusIdle JobStatus = "idle"
)

// IsTerminal reports whether no further status transitions can occur.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the job is still doing (or waiting to do) work.
func (s JobStatus) IsActive() bool {
	return s == StatusPending || s == StatusRunning
}

// ScanType selects what a scan job inspects.
type ScanType string

const (
	ScanFullLibrary ScanType = "full_library"
	ScanSingleFile  ScanType = "single_file"
	ScanDirectory   ScanType = "directory"
	ScanBumperOnly  ScanType = "bumper_only"
	ScanLogoOnly    ScanType = "logo_only"
)

// ScanJob mirrors the server's scan job record.
type ScanJob struct {
	ID              int       `json:"id"`
	ScanType        ScanType  `json:"scan_type"`
	Status          JobStatus `json:"status"`
	TargetPath      string    `json:"target_path"`
	MediaFileID     int       `json:"media_file_id"`
	TotalFiles      int       `json:"total_files"`
	ProcessedFiles  int       `json:"processed_files"`
	IssuesFound     int       `json:"issues_found"`
	ProgressPct     float64   `json:"progress_pct"`
	CreatedAt       string    `json:"created_at"`
	StartedAt       string    `json:"started_at"`
	CompletedAt     string    `json:"completed_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	ErrorMessage    string    `json:"error_message"`
}

// TrimJob mirrors the server's trim job record. Trim jobs never report
// a cancelled status; the destructive work is not interruptible.
type TrimJob struct {
	ID               int       `json:"id"`
	MediaFileID      int       `json:"media_file_id"`
	IssueID          int       `json:"issue_id"`
	Status           JobStatus `json:"status"`
	RemoveStart      float64   `json:"remove_start"`
	RemoveEnd        float64   `json:"remove_end"`
	RemoveDuration   float64   `json:"remove_duration"`
	OriginalDuration float64   `json:"original_duration"`
	BackupPath       string    `json:"backup_path"`
	ElapsedSeconds   float64   `json:"elapsed_seconds"`
	CreatedAt        string    `json:"created_at"`
	StartedAt        string    `json:"started_at"`
	CompletedAt      string    `json:"completed_at"`
	ErrorMessage     string    `json:"error_message"`
}

// SyncStatus is the live progress of the Plex library sync singleton.
type SyncStatus struct {
	Status      JobStatus `json:"status"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Imported    int       `json:"imported"`
	Updated     int       `json:"updated"`
	Removed     int       `json:"removed"`
	Error       string    `json:"error"`
	StartedAt   string    `json:"started_at"`
	CompletedAt string    `json:"completed_at"`
}

// JobSnapshot is the common read-side view of any long-running job,
// used by the toast components so scan and sync share one code path.
type JobSnapshot struct {
	ID        int
	Status    JobStatus
	Processed int
	Total     int
	Found     int
	Error     string
}

// Snapshot converts a scan job into the common job view.
func (j ScanJob) Snapshot() JobSnapshot {
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Processed: j.ProcessedFiles,
		Total:     j.TotalFiles,
		Found:     j.IssuesFound,
		Error:     j.ErrorMessage,
	}
}

// Snapshot converts a trim job into the common job view.
func (j TrimJob) Snapshot() JobSnapshot {
	return JobSnapshot{
		ID:     j.ID,
		Status: j.Status,
		Error:  j.ErrorMessage,
	}
}

// Snapshot converts the sync singleton into the common job view.
// The sync endpoint carries no job id; the singleton is always id 0.
func (s SyncStatus) Snapshot() JobSnapshot {
	return JobSnapshot{
		Status:    s.Status,
		Processed: s.Processed,
		Total:     s.Total,
		Found:     s.Imported + s.Updated,
		Error:     s.Error,
	}
}

// Progress renders a compact "n/m" progress string for display.
func (j JobSnapshot) Progress() string {
	if j.Total == 0 {
		return "starting"
	}
	return fmt.Sprintf("%d/%d", j.Processed, j.Total)
}

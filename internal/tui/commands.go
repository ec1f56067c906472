package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/benw5483/rectifierr/internal/api"
	"github.com/benw5483/rectifierr/internal/domain"
	"github.com/benw5483/rectifierr/internal/service"
	"github.com/benw5483/rectifierr/internal/tui/components"
)

// App-level load and mutation messages. Component-owned messages are
// defined next to their components.

type statsLoadedMsg struct {
	Stats *domain.LibraryStats
	Err   error
}

type mediaPageLoadedMsg struct {
	Query api.MediaQuery
	Page  *domain.MediaPage
	Err   error
}

type mediaDetailLoadedMsg struct {
	Media *domain.MediaFile
	Err   error
}

type scanQueuedMsg struct {
	Job *domain.ScanJob
	Err error
}

type fileScanQueuedMsg struct {
	JobID int
	Err   error
}

type issueResolvedMsg struct {
	MediaID int
	Err     error
}

func loadStatusCmd(status *service.StatusService) tea.Cmd {
	return func() tea.Msg {
		s, err := status.Get(context.Background())
		return components.ConnStatusLoadedMsg{Status: s, Err: err}
	}
}

func loadStatsCmd(media *service.MediaService) tea.Cmd {
	return func() tea.Msg {
		stats, err := media.Stats(context.Background())
		return statsLoadedMsg{Stats: stats, Err: err}
	}
}

func loadMediaPageCmd(media *service.MediaService, q api.MediaQuery) tea.Cmd {
	return func() tea.Msg {
		page, err := media.List(context.Background(), q)
		return mediaPageLoadedMsg{Query: q, Page: page, Err: err}
	}
}

func loadMediaDetailCmd(media *service.MediaService, mediaID int) tea.Cmd {
	return func() tea.Msg {
		m, err := media.Get(context.Background(), mediaID)
		return mediaDetailLoadedMsg{Media: m, Err: err}
	}
}

func startLibraryScanCmd(jobs *service.JobsService) tea.Cmd {
	return func() tea.Msg {
		job, err := jobs.StartLibraryScan(context.Background())
		return scanQueuedMsg{Job: job, Err: err}
	}
}

func startFileScanCmd(jobs *service.JobsService, mediaID int) tea.Cmd {
	return func() tea.Msg {
		id, err := jobs.StartFileScan(context.Background(), mediaID)
		return fileScanQueuedMsg{JobID: id, Err: err}
	}
}

func cancelScanCmd(jobs *service.JobsService, jobID int) tea.Cmd {
	return func() tea.Msg {
		// Failure leaves the job running; the poller keeps showing it.
		_ = jobs.CancelScan(context.Background(), jobID)
		return nil
	}
}

func cancelSyncCmd(jobs *service.JobsService) tea.Cmd {
	return func() tea.Msg {
		_, _ = jobs.CancelSync(context.Background())
		return nil
	}
}

// loadResolveCmd marks the file's first unresolved issue handled. The
// listing row only carries a count, so the issue id comes from a fresh
// detail fetch inside the same command.
func loadResolveCmd(jobs *service.JobsService, media *service.MediaService, mediaID int) tea.Cmd {
	return func() tea.Msg {
		detail, err := media.Get(context.Background(), mediaID)
		if err != nil {
			return issueResolvedMsg{MediaID: mediaID, Err: err}
		}
		issue := detail.FirstUnresolvedIssue()
		if issue == nil {
			return issueResolvedMsg{MediaID: mediaID}
		}
		err = jobs.ResolveIssue(context.Background(), mediaID, issue.ID, "manual")
		return issueResolvedMsg{MediaID: mediaID, Err: err}
	}
}

// resolveScanCmd is the scan toast's follow-up fetch after the active
// feed drains: the active listing never carries terminal jobs, so the
// full record is fetched once by id.
func resolveScanCmd(jobs *service.JobsService) func(jobID int) tea.Cmd {
	return func(jobID int) tea.Cmd {
		return func() tea.Msg {
			job, err := jobs.GetScan(context.Background(), jobID)
			if err != nil {
				return components.ToastJobResolvedMsg{Kind: scanToastKind, Err: err}
			}
			return components.ToastJobResolvedMsg{Kind: scanToastKind, Job: job.Snapshot()}
		}
	}
}

// resolveSyncCmd is the sync toast's follow-up. The sync singleton has
// no job id; the same status endpoint reports the terminal state.
func resolveSyncCmd(jobs *service.JobsService) func(jobID int) tea.Cmd {
	return func(int) tea.Cmd {
		return func() tea.Msg {
			status, err := jobs.SyncStatus(context.Background())
			if err != nil {
				return components.ToastJobResolvedMsg{Kind: syncToastKind, Err: err}
			}
			return components.ToastJobResolvedMsg{Kind: syncToastKind, Job: status.Snapshot()}
		}
	}
}

// connBackend adapts the API client to the connection flow's effects.
type connBackend struct {
	client *api.Client
}

func (b connBackend) StartAuthCmd() tea.Cmd {
	return func() tea.Msg {
		grant, err := b.client.StartAuth(context.Background())
		return components.ConnAuthStartedMsg{Grant: grant, Err: err}
	}
}

func (b connBackend) PollAuthCmd(gen, pinID int) tea.Cmd {
	return func() tea.Msg {
		ok, err := b.client.PollAuth(context.Background(), pinID)
		return components.ConnAuthPolledMsg{Gen: gen, Authorized: ok, Err: err}
	}
}

func (b connBackend) ListServersCmd(gen int) tea.Cmd {
	return func() tea.Msg {
		servers, err := b.client.ListServers(context.Background())
		return components.ConnServersLoadedMsg{Gen: gen, Servers: servers, Err: err}
	}
}

func (b connBackend) SelectServerCmd(gen int, server domain.PlexServer) tea.Cmd {
	return func() tea.Msg {
		err := b.client.SelectServer(context.Background(), server)
		return components.ConnServerSavedMsg{Gen: gen, Err: err}
	}
}

func (b connBackend) ListLibrariesCmd(gen int) tea.Cmd {
	return func() tea.Msg {
		libs, err := b.client.ListLibraries(context.Background())
		return components.ConnLibrariesLoadedMsg{Gen: gen, Libraries: libs, Err: err}
	}
}

func (b connBackend) SaveLibrariesCmd(gen int, keys []string) tea.Cmd {
	return func() tea.Msg {
		err := b.client.SaveLibrarySelection(context.Background(), keys)
		return components.ConnLibrariesSavedMsg{Gen: gen, Err: err}
	}
}

func (b connBackend) StartSyncCmd() tea.Cmd {
	return func() tea.Msg {
		_, err := b.client.StartSync(context.Background())
		return components.ConnSyncKickedMsg{Err: err}
	}
}

func (b connBackend) DisconnectCmd() tea.Cmd {
	return func() tea.Msg {
		err := b.client.Disconnect(context.Background())
		return components.ConnDisconnectedMsg{Err: err}
	}
}

// trimBackend adapts the jobs service to the trim session.
type trimBackend struct {
	jobs *service.JobsService
}

func (b trimBackend) SubmitTrimCmd(gen, mediaID int, removeStart, removeEnd float64, issueID int) tea.Cmd {
	return func() tea.Msg {
		job, err := b.jobs.SubmitTrim(context.Background(), mediaID, removeStart, removeEnd, issueID)
		return components.TrimSubmittedMsg{Gen: gen, Job: job, Err: err}
	}
}

func (b trimBackend) PollTrimCmd(gen, mediaID, jobID int) tea.Cmd {
	return func() tea.Msg {
		job, err := b.jobs.GetTrim(context.Background(), mediaID, jobID)
		return components.TrimPolledMsg{Gen: gen, Job: job, Err: err}
	}
}

package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/benw5483/rectifierr/internal/api"
	"github.com/benw5483/rectifierr/internal/config"
	"github.com/benw5483/rectifierr/internal/domain"
	"github.com/benw5483/rectifierr/internal/poll"
	"github.com/benw5483/rectifierr/internal/service"
	"github.com/benw5483/rectifierr/internal/tui/components"
)

type screen int

const (
	screenDashboard screen = iota
	screenSettings
)

// Polling keys shared by every subscriber on the dashboard.
const (
	pollKeyScans = "scan-active"
	pollKeySync  = "sync-status"
)

const (
	scanToastKind = "Scan"
	syncToastKind = "Sync"
)

// Job feeds tighten to 2 s while work is running and relax to 5 s when
// idle, so a queued job shows up quickly without hammering the backend.
const (
	activePollInterval = 2 * time.Second
	idlePollInterval   = 5 * time.Second
)

func scanPollPolicy(value any, _ error) (time.Duration, poll.Decision) {
	if jobs, ok := value.([]domain.ScanJob); ok && len(jobs) > 0 {
		return activePollInterval, poll.Continue
	}
	return idlePollInterval, poll.Continue
}

func syncPollPolicy(value any, _ error) (time.Duration, poll.Decision) {
	if status, ok := value.(*domain.SyncStatus); ok && status.Status.IsActive() {
		return activePollInterval, poll.Continue
	}
	return idlePollInterval, poll.Continue
}

// Model is the root Bubble Tea model.
type Model struct {
	cfg    *config.Config
	logger *slog.Logger

	client *api.Client
	status *service.StatusService
	media  *service.MediaService
	jobs   *service.JobsService

	registry   *poll.Registry
	scanHandle poll.Handle
	syncHandle poll.Handle
	initCmds   []tea.Cmd

	screen screen
	width  int
	height int

	list      components.MediaList
	connect   components.ConnectionFlow
	scanToast components.JobToast
	syncToast components.JobToast
	trim      *components.TrimSession

	query   api.MediaQuery
	stats   *domain.LibraryStats
	connSt  *domain.ConnectionStatus
	errText string

	keys KeyMap
}

// NewModel wires the root model from its services.
func NewModel(cfg *config.Config, client *api.Client, status *service.StatusService, media *service.MediaService, jobs *service.JobsService, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	m := Model{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		status:   status,
		media:    media,
		jobs:     jobs,
		registry: poll.NewRegistry(logger),
		list:     components.NewMediaList(),
		connect:  components.NewConnectionFlow(connBackend{client: client}, status.Invalidate),
		query:    api.MediaQuery{Limit: cfg.UI.PageSize, UnresolvedOnly: cfg.UI.UnresolvedFirst},
		keys:     DefaultKeyMap(),
	}

	// Scan completion changes listings and stats; sync completion can
	// additionally change the connection record's sync block.
	m.scanToast = components.NewJobToast(scanToastKind, resolveScanCmd(jobs), media.Invalidate)
	m.syncToast = components.NewJobToast(syncToastKind, resolveSyncCmd(jobs), func() {
		media.Invalidate()
		status.Invalidate()
	})

	// The dashboard subscribes to both job feeds for the life of the
	// program; the first fetches fire from Init.
	var cmd tea.Cmd
	m.scanHandle, cmd = m.registry.Subscribe(pollKeyScans, m.fetchActiveScans, scanPollPolicy)
	m.initCmds = append(m.initCmds, cmd)
	m.syncHandle, cmd = m.registry.Subscribe(pollKeySync, m.fetchSyncStatus, syncPollPolicy)
	m.initCmds = append(m.initCmds, cmd)
	return m
}

// Init starts the initial loads and the job feeds.
func (m Model) Init() tea.Cmd {
	cmds := append([]tea.Cmd{}, m.initCmds...)
	cmds = append(cmds,
		loadStatusCmd(m.status),
		loadStatsCmd(m.media),
		loadMediaPageCmd(m.media, m.query),
	)
	return tea.Batch(cmds...)
}

func (m Model) fetchActiveScans(ctx context.Context) (any, error) {
	return m.jobs.ActiveScans(ctx)
}

func (m Model) fetchSyncStatus(ctx context.Context) (any, error) {
	return m.jobs.SyncStatus(ctx)
}

// Update is the single mutation point for all state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list = m.list.SetSize(msg.Width, msg.Height-6)
		m.layoutTrim()
		return m, nil

	case poll.Result:
		return m.handlePollResult(msg)

	case poll.Tick:
		return m, m.registry.HandleTick(msg)

	case components.ToastJobResolvedMsg, components.ToastDismissMsg:
		return m.handleToastMsg(msg)

	case components.ConnStatusLoadedMsg:
		if msg.Err == nil {
			m.connSt = msg.Status
		}
		var cmd tea.Cmd
		m.connect, cmd = m.connect.Update(msg)
		return m, cmd

	case components.ConnAuthStartedMsg, components.ConnAuthTickMsg, components.ConnAuthPolledMsg,
		components.ConnServersLoadedMsg, components.ConnServerSavedMsg,
		components.ConnLibrariesLoadedMsg, components.ConnLibrariesSavedMsg,
		components.ConnSyncKickedMsg, components.ConnDisconnectedMsg:
		return m.handleConnMsg(msg)

	case components.TrimSubmittedMsg, components.TrimPollTickMsg, components.TrimPolledMsg:
		return m.handleTrimMsg(msg)

	case statsLoadedMsg:
		if msg.Err == nil {
			m.stats = msg.Stats
		}
		return m, nil

	case mediaPageLoadedMsg:
		if msg.Err != nil {
			m.errText = msg.Err.Error()
			return m, nil
		}
		m.errText = ""
		m.list = m.list.SetItems(*msg.Page)
		return m, nil

	case mediaDetailLoadedMsg:
		if msg.Err != nil {
			m.errText = msg.Err.Error()
			return m, nil
		}
		session := components.NewTrimSession(*msg.Media, msg.Media.FirstUnresolvedIssue(), trimBackend{jobs: m.jobs}, m.media.Invalidate)
		m.trim = &session
		m.layoutTrim()
		return m, nil

	case scanQueuedMsg:
		if msg.Err != nil {
			m.errText = msg.Err.Error()
			return m, nil
		}
		// Tighten the feed so the toast appears without waiting out the
		// idle interval.
		return m, m.registry.Refresh(pollKeyScans)

	case fileScanQueuedMsg:
		if msg.Err != nil {
			m.errText = msg.Err.Error()
			return m, nil
		}
		return m, m.registry.Refresh(pollKeyScans)

	case issueResolvedMsg:
		if msg.Err != nil {
			m.errText = msg.Err.Error()
			return m, nil
		}
		m.media.Invalidate()
		return m, tea.Batch(
			loadMediaPageCmd(m.media, m.query),
			loadStatsCmd(m.media),
		)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.trim != nil {
			session, cmd := m.trim.Update(msg)
			m.trim = &session
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handlePollResult(res poll.Result) (tea.Model, tea.Cmd) {
	applied, next := m.registry.Apply(res)
	cmds := []tea.Cmd{next}
	if !applied {
		return m, tea.Batch(cmds...)
	}

	switch res.Key {
	case pollKeyScans:
		jobs, _ := res.Value.([]domain.ScanJob)
		snaps := make([]domain.JobSnapshot, 0, len(jobs))
		for _, j := range jobs {
			if j.Status.IsActive() {
				snaps = append(snaps, j.Snapshot())
			}
		}
		var cmd tea.Cmd
		m.scanToast, cmd = m.scanToast.Observe(snaps)
		cmds = append(cmds, cmd)

	case pollKeySync:
		status, _ := res.Value.(*domain.SyncStatus)
		var snaps []domain.JobSnapshot
		if status != nil && status.Status.IsActive() {
			snaps = []domain.JobSnapshot{status.Snapshot()}
		}
		var cmd tea.Cmd
		m.syncToast, cmd = m.syncToast.Observe(snaps)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleToastMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.scanToast, cmd = m.scanToast.Update(msg)
	cmds = append(cmds, cmd)
	m.syncToast, cmd = m.syncToast.Update(msg)
	cmds = append(cmds, cmd)

	// A job reaching completed already invalidated the caches through
	// the toast callback; reload what the screen shows.
	if resolved, ok := msg.(components.ToastJobResolvedMsg); ok && resolved.Err == nil && resolved.Job.Status == domain.StatusCompleted {
		cmds = append(cmds,
			loadMediaPageCmd(m.media, m.query),
			loadStatsCmd(m.media),
		)
		if resolved.Kind == syncToastKind {
			cmds = append(cmds, loadStatusCmd(m.status))
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleConnMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.connect, cmd = m.connect.Update(msg)
	cmds = append(cmds, cmd)

	// Connection mutations change the status record and, eventually,
	// the library contents.
	switch msg := msg.(type) {
	case components.ConnLibrariesSavedMsg:
		if msg.Err == nil {
			cmds = append(cmds, loadStatusCmd(m.status), m.registry.Refresh(pollKeySync))
		}
	case components.ConnDisconnectedMsg:
		if msg.Err == nil {
			m.connSt = nil
			cmds = append(cmds, loadStatusCmd(m.status))
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleTrimMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.trim == nil {
		return m, nil
	}
	session, cmd := m.trim.Update(msg)
	m.trim = &session

	if _, ok := msg.(components.TrimPolledMsg); ok && session.Done() {
		// Caches were invalidated by the session callback.
		return m, tea.Batch(cmd,
			loadMediaPageCmd(m.media, m.query),
			loadStatsCmd(m.media),
		)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c always quits, except while a trim is rewriting a file.
	if msg.String() == "ctrl+c" && (m.trim == nil || m.trim.CanClose()) {
		return m, tea.Quit
	}

	if m.trim != nil {
		if msg.String() == "esc" {
			if m.trim.CanClose() {
				m.trim = nil
			}
			return m, nil
		}
		session, cmd := m.trim.Update(msg)
		m.trim = &session
		return m, cmd
	}

	if m.screen == screenSettings {
		if key.Matches(msg, m.keys.Settings) {
			m.screen = screenDashboard
			return m, nil
		}
		var cmd tea.Cmd
		m.connect, cmd = m.connect.Update(msg)
		return m, cmd
	}

	// Dashboard. A live filter owns the keyboard; submitting it turns
	// the filter text into a server-side search.
	if m.list.Filtering() {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		if !m.list.Filtering() && m.list.FilterValue() != m.query.Search {
			m.query.Search = m.list.FilterValue()
			m.query.Skip = 0
			return m, tea.Batch(cmd, loadMediaPageCmd(m.media, m.query))
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Settings):
		m.screen = screenSettings
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.media.Invalidate()
		m.status.Invalidate()
		return m, tea.Batch(
			loadMediaPageCmd(m.media, m.query),
			loadStatsCmd(m.media),
			loadStatusCmd(m.status),
			m.registry.Refresh(pollKeyScans),
			m.registry.Refresh(pollKeySync),
		)

	case key.Matches(msg, m.keys.Scan):
		return m, startLibraryScanCmd(m.jobs)

	case key.Matches(msg, m.keys.ScanFile):
		if sel := m.list.Selected(); sel != nil {
			return m, startFileScanCmd(m.jobs, sel.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Resolve):
		if sel := m.list.Selected(); sel != nil && sel.UnresolvedIssues > 0 {
			return m, loadResolveCmd(m.jobs, m.media, sel.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Open):
		if sel := m.list.Selected(); sel != nil {
			return m, loadMediaDetailCmd(m.media, sel.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.CancelJob):
		if m.scanToast.Phase() == components.ToastRunning {
			return m, cancelScanCmd(m.jobs, m.scanToast.Job().ID)
		}
		if m.syncToast.Phase() == components.ToastRunning {
			return m, cancelSyncCmd(m.jobs)
		}
		return m, nil

	case key.Matches(msg, m.keys.SearchJump):
		if idx := m.media.BestTitleMatch(m.list.FilterValue(), m.list.Items()); idx >= 0 {
			m.list = m.list.JumpTo(idx)
		}
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if m.scanToast.Visible() || m.syncToast.Visible() {
			m.scanToast = m.scanToast.Dismiss()
			m.syncToast = m.syncToast.Dismiss()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// layoutTrim records where the trim modal's range bar lands on screen
// so mouse drags map back to seconds. It mirrors the arithmetic in
// renderTrimModal.
func (m *Model) layoutTrim() {
	if m.trim == nil {
		return
	}
	contentWidth := trimContentWidth(m.width)
	barWidth := contentWidth - 8
	if barWidth < 10 {
		barWidth = 10
	}

	boxWidth := contentWidth + 6
	boxHeight := trimModalHeight
	left := (m.width - boxWidth) / 2
	top := (m.height - boxHeight) / 2
	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}

	// Border, padding row, title, margin row, then the bar.
	session := m.trim.SetBarLayout(left+3, top+4, barWidth)
	m.trim = &session
}

package components

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/benw5483/rectifierr/internal/domain"
	"github.com/benw5483/rectifierr/internal/tui/styles"
)

// ConnPhase is the connection flow's finite state.
type ConnPhase int

const (
	ConnIdle ConnPhase = iota
	ConnStarting
	ConnAwaitingAuth
	ConnPickingServer
	ConnConnecting
	ConnPickingLibraries
	ConnConnected
)

// authPollInterval is how often the PIN authorization check runs. The
// poll has no client-side deadline: it ends only on authorization,
// cancel, or teardown. A server-side PIN expiry just keeps answering
// "not authorized" (or an error, which is treated the same way).
const authPollInterval = 2 * time.Second

// preferredLibraryTypes are pre-selected when no prior selection exists.
var preferredLibraryTypes = map[string]bool{
	"show":  true,
	"movie": true,
}

// === Messages ===

// ConnStatusLoadedMsg delivers the connection-status record.
type ConnStatusLoadedMsg struct {
	Status *domain.ConnectionStatus
	Err    error
}

// ConnAuthStartedMsg delivers the PIN grant from auth/start.
type ConnAuthStartedMsg struct {
	Grant *domain.PinGrant
	Err   error
}

// ConnAuthTickMsg fires when the 2 s authorization-poll interval elapses.
type ConnAuthTickMsg struct {
	Gen int
}

// ConnAuthPolledMsg delivers one authorization-poll response.
type ConnAuthPolledMsg struct {
	Gen        int
	Authorized bool
	Err        error
}

// ConnServersLoadedMsg delivers the candidate server list.
type ConnServersLoadedMsg struct {
	Gen     int
	Servers []domain.PlexServer
	Err     error
}

// ConnServerSavedMsg delivers the server-selection outcome.
type ConnServerSavedMsg struct {
	Gen int
	Err error
}

// ConnLibrariesLoadedMsg delivers the library sections of the server.
type ConnLibrariesLoadedMsg struct {
	Gen       int
	Libraries []domain.PlexLibrary
	Err       error
}

// ConnLibrariesSavedMsg delivers the library-selection save outcome.
type ConnLibrariesSavedMsg struct {
	Gen int
	Err error
}

// ConnSyncKickedMsg reports the best-effort sync kick after saving
// libraries. Its error is swallowed; sync progress is observed through
// the sync status poller, never through this request.
type ConnSyncKickedMsg struct {
	Err error
}

// ConnDisconnectedMsg delivers the disconnect outcome.
type ConnDisconnectedMsg struct {
	Err error
}

// === User events (semantic, produced by key handling) ===

type connStartEvent struct{}
type connCancelEvent struct{}
type connChooseServerEvent struct{}
type connToggleLibraryEvent struct{}
type connSaveLibrariesEvent struct{}
type connChangeLibrariesEvent struct{}
type connDisconnectEvent struct{}

// === Effects ===

// connEffect names a side effect the pure transition requests. The
// component translates effects into commands; the transition itself
// touches no network and no timers, so it unit-tests directly.
type connEffect int

const (
	effStartAuth connEffect = iota
	effScheduleAuthPoll
	effPollAuth
	effListServers
	effSelectServer
	effListLibraries
	effSaveLibraries
	effStartSync
	effDisconnect
	effInvalidateStatus
)

// ConnState is the flow's complete state. Transient fields are only
// meaningful in the phases that set them; everything is cleared on the
// way back to idle.
type ConnState struct {
	Phase ConnPhase

	// Gen fences asynchronous continuations: every cancel or restart
	// bumps it, and messages carrying an older Gen are discarded. This
	// is what makes cancel-during-awaiting_auth atomic.
	Gen int

	Pin          *domain.PinGrant
	Servers      []domain.PlexServer
	ServerCursor int
	Libraries    []domain.PlexLibrary
	Selected     map[string]bool
	LibCursor    int
	Saving       bool
	Busy         bool
	Status       *domain.ConnectionStatus
	ErrText      string
}

// SelectedKeys returns the chosen library keys in listing order.
func (s ConnState) SelectedKeys() []string {
	keys := make([]string, 0, len(s.Selected))
	for _, lib := range s.Libraries {
		if s.Selected[lib.Key] {
			keys = append(keys, lib.Key)
		}
	}
	return keys
}

// reset returns to idle under a fresh generation, dropping every
// transient field so no stale value can be read in a later phase.
func (s ConnState) reset() ConnState {
	return ConnState{Phase: ConnIdle, Gen: s.Gen + 1, Status: s.Status}
}

// transition is the pure state machine: (state, event) → (state,
// effects). It never performs IO.
func transition(s ConnState, ev any) (ConnState, []connEffect) {
	switch ev := ev.(type) {
	case connStartEvent:
		if s.Phase != ConnIdle {
			return s, nil
		}
		s.Phase = ConnStarting
		s.ErrText = ""
		return s, []connEffect{effStartAuth}

	case connCancelEvent:
		switch s.Phase {
		case ConnStarting, ConnAwaitingAuth, ConnPickingServer, ConnConnecting, ConnPickingLibraries:
			return s.reset(), nil
		}
		return s, nil

	case ConnAuthStartedMsg:
		if s.Phase != ConnStarting {
			return s, nil
		}
		if ev.Err != nil {
			s = s.reset()
			s.ErrText = ev.Err.Error()
			return s, nil
		}
		s.Phase = ConnAwaitingAuth
		s.Gen++
		s.Pin = ev.Grant
		return s, []connEffect{effScheduleAuthPoll}

	case ConnAuthTickMsg:
		if ev.Gen != s.Gen || s.Phase != ConnAwaitingAuth {
			return s, nil
		}
		return s, []connEffect{effPollAuth}

	case ConnAuthPolledMsg:
		if ev.Gen != s.Gen || s.Phase != ConnAwaitingAuth {
			return s, nil
		}
		if ev.Err != nil || !ev.Authorized {
			// Transient failures (including upstream PIN expiry) keep
			// the poll alive; only the user ends it.
			return s, []connEffect{effScheduleAuthPoll}
		}
		s.Phase = ConnPickingServer
		s.Servers = nil
		s.ServerCursor = 0
		return s, []connEffect{effListServers}

	case ConnServersLoadedMsg:
		if ev.Gen != s.Gen || s.Phase != ConnPickingServer {
			return s, nil
		}
		if ev.Err != nil {
			s = s.reset()
			s.ErrText = ev.Err.Error()
			return s, nil
		}
		s.Servers = ev.Servers
		s.ServerCursor = 0
		return s, nil

	case connChooseServerEvent:
		if s.Phase != ConnPickingServer || s.ServerCursor >= len(s.Servers) {
			return s, nil
		}
		s.Phase = ConnConnecting
		s.ErrText = ""
		return s, []connEffect{effSelectServer}

	case ConnServerSavedMsg:
		if ev.Gen != s.Gen || s.Phase != ConnConnecting {
			return s, nil
		}
		if ev.Err != nil {
			// Back to the state preceding the attempt.
			s.Phase = ConnPickingServer
			s.ErrText = ev.Err.Error()
			return s, nil
		}
		s.Phase = ConnPickingLibraries
		s.Libraries = nil
		s.Selected = nil
		s.LibCursor = 0
		return s, []connEffect{effListLibraries, effInvalidateStatus}

	case ConnLibrariesLoadedMsg:
		if ev.Gen != s.Gen || s.Phase != ConnPickingLibraries {
			return s, nil
		}
		if ev.Err != nil {
			s.ErrText = ev.Err.Error()
			return s, nil
		}
		s.Libraries = ev.Libraries
		s.Selected = defaultSelection(ev.Libraries)
		s.LibCursor = 0
		return s, nil

	case connToggleLibraryEvent:
		if s.Phase != ConnPickingLibraries || s.LibCursor >= len(s.Libraries) {
			return s, nil
		}
		if s.Selected == nil {
			s.Selected = make(map[string]bool)
		}
		key := s.Libraries[s.LibCursor].Key
		s.Selected[key] = !s.Selected[key]
		return s, nil

	case connSaveLibrariesEvent:
		if s.Phase != ConnPickingLibraries || s.Saving || len(s.Libraries) == 0 {
			return s, nil
		}
		s.Saving = true
		s.ErrText = ""
		return s, []connEffect{effSaveLibraries}

	case ConnLibrariesSavedMsg:
		if ev.Gen != s.Gen || s.Phase != ConnPickingLibraries || !s.Saving {
			return s, nil
		}
		s.Saving = false
		if ev.Err != nil {
			s.ErrText = ev.Err.Error()
			return s, nil
		}
		s.Phase = ConnConnected
		s.Status = nil
		return s, []connEffect{effStartSync, effInvalidateStatus}

	case ConnSyncKickedMsg:
		// Best-effort; progress is watched by the sync poller.
		return s, nil

	case connChangeLibrariesEvent:
		if s.Phase != ConnConnected {
			return s, nil
		}
		s.Phase = ConnPickingLibraries
		s.Libraries = nil
		s.Selected = nil
		s.LibCursor = 0
		s.ErrText = ""
		return s, []connEffect{effListLibraries}

	case connDisconnectEvent:
		if s.Phase != ConnConnected || s.Busy {
			return s, nil
		}
		s.Busy = true
		s.ErrText = ""
		return s, []connEffect{effDisconnect}

	case ConnDisconnectedMsg:
		if s.Phase != ConnConnected || !s.Busy {
			return s, nil
		}
		s.Busy = false
		if ev.Err != nil {
			s.ErrText = ev.Err.Error()
			return s, nil
		}
		s = s.reset()
		s.Status = nil
		return s, []connEffect{effInvalidateStatus}

	case ConnStatusLoadedMsg:
		if ev.Err != nil {
			return s, nil
		}
		s.Status = ev.Status
		// Persisted credentials short-circuit straight to connected.
		if s.Phase == ConnIdle && ev.Status.Connected {
			s.Phase = ConnConnected
		}
		if s.Phase == ConnConnected && !ev.Status.Connected {
			s = s.reset()
			s.Status = ev.Status
		}
		return s, nil
	}

	return s, nil
}

// defaultSelection restores the prior selection when one exists, else
// pre-selects sections whose type is in the preferred set.
func defaultSelection(libs []domain.PlexLibrary) map[string]bool {
	selected := make(map[string]bool)
	prior := false
	for _, lib := range libs {
		if lib.Selected {
			selected[lib.Key] = true
			prior = true
		}
	}
	if prior {
		return selected
	}
	for _, lib := range libs {
		if preferredLibraryTypes[lib.Type] {
			selected[lib.Key] = true
		}
	}
	return selected
}

// === Component ===

// ConnBackend supplies the commands the flow's effects need. Each
// command must deliver the matching Conn*Msg carrying the given Gen.
type ConnBackend interface {
	StartAuthCmd() tea.Cmd
	PollAuthCmd(gen, pinID int) tea.Cmd
	ListServersCmd(gen int) tea.Cmd
	SelectServerCmd(gen int, server domain.PlexServer) tea.Cmd
	ListLibrariesCmd(gen int) tea.Cmd
	SaveLibrariesCmd(gen int, keys []string) tea.Cmd
	StartSyncCmd() tea.Cmd
	DisconnectCmd() tea.Cmd
}

// ConnectionFlow drives external-account linking as a finite-state
// machine around the pure transition core.
type ConnectionFlow struct {
	state   ConnState
	backend ConnBackend

	// onStatusInvalidated clears the cached connection-status record;
	// it runs on every mutation that can change it.
	onStatusInvalidated func()
}

// NewConnectionFlow creates the flow in the idle phase.
func NewConnectionFlow(backend ConnBackend, onStatusInvalidated func()) ConnectionFlow {
	return ConnectionFlow{
		state:   ConnState{Phase: ConnIdle, Gen: 1},
		backend: backend,

		onStatusInvalidated: onStatusInvalidated,
	}
}

// State exposes the current state for rendering and tests.
func (f ConnectionFlow) State() ConnState { return f.state }

// Phase returns the current phase.
func (f ConnectionFlow) Phase() ConnPhase { return f.state.Phase }

// Update feeds a message through the state machine.
func (f ConnectionFlow) Update(msg tea.Msg) (ConnectionFlow, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		return f.handleKey(key)
	}
	return f.apply(msg)
}

func (f ConnectionFlow) handleKey(key tea.KeyMsg) (ConnectionFlow, tea.Cmd) {
	switch key.String() {
	case "enter":
		switch f.state.Phase {
		case ConnIdle:
			return f.apply(connStartEvent{})
		case ConnPickingServer:
			return f.apply(connChooseServerEvent{})
		case ConnPickingLibraries:
			return f.apply(connSaveLibrariesEvent{})
		}
	case " ":
		return f.apply(connToggleLibraryEvent{})
	case "esc":
		return f.apply(connCancelEvent{})
	case "d":
		return f.apply(connDisconnectEvent{})
	case "l":
		return f.apply(connChangeLibrariesEvent{})
	case "up", "k":
		f.moveCursor(-1)
		return f, nil
	case "down", "j":
		f.moveCursor(1)
		return f, nil
	}
	return f, nil
}

func (f *ConnectionFlow) moveCursor(delta int) {
	switch f.state.Phase {
	case ConnPickingServer:
		f.state.ServerCursor = clampInt(f.state.ServerCursor+delta, 0, len(f.state.Servers)-1)
	case ConnPickingLibraries:
		f.state.LibCursor = clampInt(f.state.LibCursor+delta, 0, len(f.state.Libraries)-1)
	}
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (f ConnectionFlow) apply(ev any) (ConnectionFlow, tea.Cmd) {
	next, effects := transition(f.state, ev)
	f.state = next

	var cmds []tea.Cmd
	for _, eff := range effects {
		if cmd := f.runEffect(eff); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	switch len(cmds) {
	case 0:
		return f, nil
	case 1:
		return f, cmds[0]
	default:
		return f, tea.Batch(cmds...)
	}
}

func (f ConnectionFlow) runEffect(eff connEffect) tea.Cmd {
	s := f.state
	switch eff {
	case effStartAuth:
		return f.backend.StartAuthCmd()
	case effScheduleAuthPoll:
		gen := s.Gen
		return tea.Tick(authPollInterval, func(time.Time) tea.Msg {
			return ConnAuthTickMsg{Gen: gen}
		})
	case effPollAuth:
		if s.Pin == nil {
			return nil
		}
		return f.backend.PollAuthCmd(s.Gen, s.Pin.PinID)
	case effListServers:
		return f.backend.ListServersCmd(s.Gen)
	case effSelectServer:
		return f.backend.SelectServerCmd(s.Gen, s.Servers[s.ServerCursor])
	case effListLibraries:
		return f.backend.ListLibrariesCmd(s.Gen)
	case effSaveLibraries:
		return f.backend.SaveLibrariesCmd(s.Gen, s.SelectedKeys())
	case effStartSync:
		return f.backend.StartSyncCmd()
	case effDisconnect:
		return f.backend.DisconnectCmd()
	case effInvalidateStatus:
		if f.onStatusInvalidated != nil {
			f.onStatusInvalidated()
		}
	}
	return nil
}

// View renders the flow for the settings screen.
func (f ConnectionFlow) View(width int) string {
	s := f.state
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Plex Connection"))
	b.WriteString("\n\n")

	switch s.Phase {
	case ConnIdle:
		b.WriteString(styles.SubtitleStyle.Render("Not connected."))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpKeyStyle.Render("enter") + styles.HelpDescStyle.Render(" link Plex account"))

	case ConnStarting:
		b.WriteString(styles.SubtitleStyle.Render("Requesting PIN..."))

	case ConnAwaitingAuth:
		if s.Pin != nil {
			b.WriteString(fmt.Sprintf("Go to:  %s\n", styles.AccentStyle.Render(s.Pin.AuthURL)))
			b.WriteString(fmt.Sprintf("Enter:  %s\n\n", styles.TitleStyle.Render(s.Pin.PinCode)))
		}
		b.WriteString(styles.SubtitleStyle.Render("Waiting for authorization..."))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpKeyStyle.Render("esc") + styles.HelpDescStyle.Render(" cancel"))

	case ConnPickingServer:
		b.WriteString(styles.SubtitleStyle.Render("Choose a server:"))
		b.WriteString("\n\n")
		if s.Servers == nil {
			b.WriteString(styles.DimStyle.Render("Loading servers..."))
		}
		for i, srv := range s.Servers {
			label := srv.Name
			if srv.Owned {
				label += " (owned)"
			}
			label += "  " + styles.DimStyle.Render(srv.BestURL)
			if i == s.ServerCursor {
				b.WriteString(styles.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(styles.NormalItemStyle.Render(label))
			}
			b.WriteString("\n")
		}

	case ConnConnecting:
		b.WriteString(styles.SubtitleStyle.Render("Verifying server..."))

	case ConnPickingLibraries:
		b.WriteString(styles.SubtitleStyle.Render("Select libraries to sync:"))
		b.WriteString("\n\n")
		if s.Libraries == nil {
			b.WriteString(styles.DimStyle.Render("Loading libraries..."))
		}
		for i, lib := range s.Libraries {
			mark := "[ ]"
			if s.Selected[lib.Key] {
				mark = "[x]"
			}
			label := fmt.Sprintf("%s %s  %s", mark, lib.Title, styles.DimStyle.Render(lib.Type))
			if i == s.LibCursor {
				b.WriteString(styles.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(styles.NormalItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if s.Saving {
			b.WriteString(styles.DimStyle.Render("Saving..."))
		} else {
			b.WriteString(styles.HelpKeyStyle.Render("space") + styles.HelpDescStyle.Render(" toggle  "))
			b.WriteString(styles.HelpKeyStyle.Render("enter") + styles.HelpDescStyle.Render(" save"))
		}

	case ConnConnected:
		if s.Status != nil {
			b.WriteString(styles.SuccessStyle.Render("Connected"))
			b.WriteString(fmt.Sprintf("  %s @ %s\n", s.Status.Account.Username, s.Status.Server.Name))
		} else {
			b.WriteString(styles.SuccessStyle.Render("Connected"))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(styles.HelpKeyStyle.Render("l") + styles.HelpDescStyle.Render(" change libraries  "))
		b.WriteString(styles.HelpKeyStyle.Render("d") + styles.HelpDescStyle.Render(" disconnect"))
	}

	if s.ErrText != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.ErrorStyle.Render(styles.Truncate(s.ErrText, width-4)))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

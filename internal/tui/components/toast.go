package components

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/benw5483/rectifierr/internal/domain"
	"github.com/benw5483/rectifierr/internal/tui/styles"
)

// ToastPhase is the display lifecycle of a job toast. It refines the
// job's own status with a locally owned dismiss timer the backend
// knows nothing about.
type ToastPhase int

const (
	ToastHidden ToastPhase = iota
	ToastRunning
	ToastCompleted
	ToastFailed
)

// toastDismissDelay is how long a completed toast lingers.
const toastDismissDelay = 5 * time.Second

// ToastDismissMsg fires when a completed toast's linger timer elapses.
// Gen fences timers scheduled before the toast changed state again.
type ToastDismissMsg struct {
	Kind string
	Gen  int
}

// ToastJobResolvedMsg delivers the follow-up fetch of a job's full
// record after the active feed drained.
type ToastJobResolvedMsg struct {
	Kind string
	Job  domain.JobSnapshot
	Err  error
}

// JobToast tracks one class of background job (scans or the sync
// singleton) through hidden → running → completed/failed. It consumes
// an active-jobs feed; when the feed drains it performs exactly one
// follow-up fetch to learn the terminal status, since active listings
// do not carry terminal jobs.
type JobToast struct {
	kind  string
	phase ToastPhase
	job   domain.JobSnapshot

	// dismissGen invalidates scheduled dismiss timers whenever the
	// toast leaves the state the timer was armed in.
	dismissGen int
	resolving  bool

	resolve     func(jobID int) tea.Cmd
	onCompleted func()
}

// NewJobToast creates a toast for one job kind. resolve must deliver a
// ToastJobResolvedMsg carrying the same kind; onCompleted runs exactly
// once per transition into the completed phase.
func NewJobToast(kind string, resolve func(jobID int) tea.Cmd, onCompleted func()) JobToast {
	return JobToast{kind: kind, resolve: resolve, onCompleted: onCompleted}
}

// Kind returns the job class this toast tracks.
func (t JobToast) Kind() string { return t.kind }

// Phase returns the current display phase.
func (t JobToast) Phase() ToastPhase { return t.phase }

// Job returns the snapshot currently displayed.
func (t JobToast) Job() domain.JobSnapshot { return t.job }

// Visible reports whether the toast renders at all.
func (t JobToast) Visible() bool { return t.phase != ToastHidden }

// Observe ingests the newest active-jobs feed value. A non-empty feed
// shows the first active job and cancels any pending dismiss; a feed
// that just drained triggers the single follow-up fetch.
func (t JobToast) Observe(active []domain.JobSnapshot) (JobToast, tea.Cmd) {
	if len(active) > 0 {
		t.dismissGen++
		t.phase = ToastRunning
		t.job = active[0]
		t.resolving = false
		return t, nil
	}

	if t.phase == ToastRunning && !t.resolving {
		t.resolving = true
		return t, t.resolve(t.job.ID)
	}
	return t, nil
}

// Update handles the toast's own messages: resolved follow-up fetches
// and dismiss timers. Messages for other kinds pass through untouched.
func (t JobToast) Update(msg tea.Msg) (JobToast, tea.Cmd) {
	switch msg := msg.(type) {
	case ToastJobResolvedMsg:
		if msg.Kind != t.kind || t.phase != ToastRunning {
			return t, nil
		}
		t.resolving = false
		if msg.Err != nil {
			// Cannot learn the outcome; vanish rather than guess.
			t.phase = ToastHidden
			return t, nil
		}
		return t.resolveTerminal(msg.Job)

	case ToastDismissMsg:
		if msg.Kind != t.kind || msg.Gen != t.dismissGen {
			return t, nil
		}
		if t.phase == ToastCompleted {
			t.phase = ToastHidden
		}
		return t, nil
	}
	return t, nil
}

// Dismiss hides the toast on user request, regardless of phase.
func (t JobToast) Dismiss() JobToast {
	t.phase = ToastHidden
	t.dismissGen++
	return t
}

func (t JobToast) resolveTerminal(job domain.JobSnapshot) (JobToast, tea.Cmd) {
	t.job = job
	switch {
	case job.Status == domain.StatusCompleted:
		t.phase = ToastCompleted
		if t.onCompleted != nil {
			t.onCompleted()
		}
		t.dismissGen++
		gen := t.dismissGen
		kind := t.kind
		return t, tea.Tick(toastDismissDelay, func(time.Time) tea.Msg {
			return ToastDismissMsg{Kind: kind, Gen: gen}
		})

	case job.Status == domain.StatusFailed:
		// Sticky until the user dismisses it.
		t.phase = ToastFailed
		return t, nil

	case job.Status.IsActive():
		// A new job slipped in between feed drain and follow-up.
		t.phase = ToastRunning
		return t, nil

	default:
		// Cancelled (or idle) resolves silently.
		t.phase = ToastHidden
		return t, nil
	}
}

// View renders the toast as a bordered single-line banner.
func (t JobToast) View(width int) string {
	if !t.Visible() {
		return ""
	}

	var body string
	var style = styles.ToastRunningStyle

	switch t.phase {
	case ToastRunning:
		body = fmt.Sprintf("%s running · %s", t.kind, t.job.Progress())
		if t.job.Found > 0 {
			body += fmt.Sprintf(" · %d found", t.job.Found)
		}
	case ToastCompleted:
		style = styles.ToastSuccessStyle
		body = fmt.Sprintf("%s complete", t.kind)
		if t.job.Found > 0 {
			body += fmt.Sprintf(" · %d found", t.job.Found)
		}
	case ToastFailed:
		style = styles.ToastErrorStyle
		msg := t.job.Error
		if msg == "" {
			msg = "unknown error"
		}
		body = fmt.Sprintf("%s failed: %s · esc to dismiss", t.kind, msg)
	}

	return style.Render(styles.Truncate(body, width-4))
}

package components

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/benw5483/rectifierr/internal/domain"
	"github.com/benw5483/rectifierr/internal/tui/styles"
)

// MinSegment is the smallest removable segment in seconds. Clamping
// holds end - start >= MinSegment at all times, so a submitted trim can
// never be empty or inverted.
const MinSegment = 0.5

// trimPollInterval is how often a submitted trim job is polled.
const trimPollInterval = time.Second

// nudgeStep is how far the arrow keys move the focused boundary.
const nudgeStep = 1.0

// TrimSubmittedMsg delivers the queue-trim response.
type TrimSubmittedMsg struct {
	Gen int
	Job *domain.TrimJob
	Err error
}

// TrimPollTickMsg fires when the trim poll interval elapses.
type TrimPollTickMsg struct {
	Gen int
}

// TrimPolledMsg delivers one trim-job status response.
type TrimPolledMsg struct {
	Gen int
	Job *domain.TrimJob
	Err error
}

// TrimBackend supplies the commands the session needs. Both must
// deliver their message carrying the given Gen.
type TrimBackend interface {
	SubmitTrimCmd(gen, mediaID int, removeStart, removeEnd float64, issueID int) tea.Cmd
	PollTrimCmd(gen, mediaID, jobID int) tea.Cmd
}

// TrimSession edits and submits one destructive trim against one media
// file. The removal range lives in [0, duration]; every write path
// (typed values, arrow nudges, mouse drags) goes through the same
// clamps, and any change to the range disarms a pending confirmation.
type TrimSession struct {
	media   domain.MediaFile
	issueID int

	start float64
	end   float64

	// confirmed arms the second stage of the two-press submit gate.
	confirmed  bool
	submitting bool
	jobID      int
	job        *domain.TrimJob
	done       bool

	// gen fences submit and poll continuations across retries.
	gen     int
	errText string

	startInput textinput.Model
	endInput   textinput.Model
	focus      int

	// bar geometry recorded by the host so mouse events map to seconds.
	barX, barY, barWidth int

	backend     TrimBackend
	onCompleted func()
}

// NewTrimSession opens an editor for the given file, seeded from the
// issue's detected segment when one is present.
func NewTrimSession(media domain.MediaFile, issue *domain.MediaIssue, backend TrimBackend, onCompleted func()) TrimSession {
	s := TrimSession{
		media:       media,
		gen:         1,
		backend:     backend,
		onCompleted: onCompleted,
	}

	s.start = 0
	s.end = MinSegment
	if issue != nil {
		s.issueID = issue.ID
		s.start = issue.StartSeconds
		s.end = issue.EndSeconds
	}
	s.start, s.end = clampRange(s.start, s.end, media.DurationSeconds)

	s.startInput = newTimeInput(s.start)
	s.endInput = newTimeInput(s.end)
	s.startInput.Focus()
	return s
}

func newTimeInput(v float64) textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 10
	ti.Width = 8
	ti.Prompt = ""
	ti.SetValue(formatSeconds(v))
	return ti
}

// Range returns the current removal range.
func (s TrimSession) Range() (start, end float64) { return s.start, s.end }

// Confirmed reports whether the next activation submits.
func (s TrimSession) Confirmed() bool { return s.confirmed }

// InFlight reports whether a submit or an unfinished job is pending.
// While true the editor is read-only and the session cannot be closed.
func (s TrimSession) InFlight() bool {
	if s.submitting {
		return true
	}
	return s.jobID != 0 && !s.done
}

// Done reports whether the trim finished successfully.
func (s TrimSession) Done() bool { return s.done }

// CanClose reports whether the host may dismiss the session.
func (s TrimSession) CanClose() bool { return !s.InFlight() }

// SetBarLayout records where the host rendered the range bar, in
// screen cells, so mouse positions can be mapped back to seconds.
func (s TrimSession) SetBarLayout(x, y, width int) TrimSession {
	s.barX, s.barY, s.barWidth = x, y, width
	return s
}

// SetStart moves the range start, clamped to [0, end-MinSegment]. The
// moved edge yields; the other handle never shifts.
func (s TrimSession) SetStart(v float64) TrimSession {
	if s.InFlight() {
		return s
	}
	hi := s.end - MinSegment
	if v > hi {
		v = hi
	}
	if v < 0 {
		v = 0
	}
	return s.commitRange(v, s.end)
}

// SetEnd moves the range end, clamped to [start+MinSegment, duration].
func (s TrimSession) SetEnd(v float64) TrimSession {
	if s.InFlight() {
		return s
	}
	hi := s.media.DurationSeconds
	if hi < MinSegment {
		hi = MinSegment
	}
	if v > hi {
		v = hi
	}
	if lo := s.start + MinSegment; v < lo {
		v = lo
	}
	return s.commitRange(s.start, v)
}

// ResetToIssue restores the detected segment.
func (s TrimSession) ResetToIssue(issue *domain.MediaIssue) TrimSession {
	if issue == nil {
		return s
	}
	return s.setRange(issue.StartSeconds, issue.EndSeconds)
}

// setRange applies a whole-range assignment (seeding, reset, typed
// input). When the pair conflicts the start yields.
func (s TrimSession) setRange(start, end float64) TrimSession {
	if s.InFlight() {
		return s
	}
	start, end = clampRange(start, end, s.media.DurationSeconds)
	return s.commitRange(start, end)
}

func (s TrimSession) commitRange(start, end float64) TrimSession {
	if start != s.start || end != s.end {
		s.confirmed = false
		s.errText = ""
	}
	s.start, s.end = start, end
	s.startInput.SetValue(formatSeconds(start))
	s.endInput.SetValue(formatSeconds(end))
	return s
}

// clampRange forces 0 <= start <= end-MinSegment and end <= duration.
func clampRange(start, end, duration float64) (float64, float64) {
	if duration < MinSegment {
		duration = MinSegment
	}
	if end > duration {
		end = duration
	}
	if end < MinSegment {
		end = MinSegment
	}
	if start < 0 {
		start = 0
	}
	if start > end-MinSegment {
		start = end - MinSegment
	}
	if start < 0 {
		start = 0
		if end < start+MinSegment {
			end = start + MinSegment
		}
	}
	return start, end
}

// Activate drives the two-press gate: the first press (with no pending
// edits) arms the confirmation, the second actually submits.
func (s TrimSession) Activate() (TrimSession, tea.Cmd) {
	if s.InFlight() || s.done {
		return s, nil
	}

	// Typed values apply first; a change disarms the gate so the user
	// confirms what they will actually submit.
	changed := false
	s, changed = s.applyInputs()
	if changed {
		return s, nil
	}

	if !s.confirmed {
		s.confirmed = true
		return s, nil
	}

	s.submitting = true
	s.errText = ""
	s.gen++
	return s, s.backend.SubmitTrimCmd(s.gen, s.media.ID, s.start, s.end, s.issueID)
}

func (s TrimSession) applyInputs() (TrimSession, bool) {
	start, end := s.start, s.end
	if v, err := strconv.ParseFloat(strings.TrimSpace(s.startInput.Value()), 64); err == nil {
		start = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s.endInput.Value()), 64); err == nil {
		end = v
	}
	next := s.setRange(start, end)
	return next, next.start != s.start || next.end != s.end
}

// Update handles keys, mouse drags, and the session's own messages.
func (s TrimSession) Update(msg tea.Msg) (TrimSession, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return s.handleKey(msg)
	case tea.MouseMsg:
		return s.handleMouse(msg), nil
	case TrimSubmittedMsg:
		return s.handleSubmitted(msg)
	case TrimPollTickMsg:
		if msg.Gen != s.gen || s.jobID == 0 || s.done {
			return s, nil
		}
		return s, s.backend.PollTrimCmd(s.gen, s.media.ID, s.jobID)
	case TrimPolledMsg:
		return s.handlePolled(msg)
	}
	return s, nil
}

func (s TrimSession) handleKey(key tea.KeyMsg) (TrimSession, tea.Cmd) {
	if s.InFlight() {
		return s, nil
	}

	switch key.String() {
	case "enter":
		return s.Activate()
	case "tab", "shift+tab":
		s.focus = 1 - s.focus
		if s.focus == 0 {
			s.startInput.Focus()
			s.endInput.Blur()
		} else {
			s.endInput.Focus()
			s.startInput.Blur()
		}
		return s, nil
	case "left":
		if s.focus == 0 {
			return s.SetStart(s.start - nudgeStep), nil
		}
		return s.SetEnd(s.end - nudgeStep), nil
	case "right":
		if s.focus == 0 {
			return s.SetStart(s.start + nudgeStep), nil
		}
		return s.SetEnd(s.end + nudgeStep), nil
	}

	// Everything else edits the focused input.
	var cmd tea.Cmd
	if s.focus == 0 {
		s.startInput, cmd = s.startInput.Update(key)
	} else {
		s.endInput, cmd = s.endInput.Update(key)
	}
	return s, cmd
}

// handleMouse drags the nearest boundary to the pointer. Presses and
// motion on the bar row both move it, so click-then-drag feels direct.
func (s TrimSession) handleMouse(msg tea.MouseMsg) TrimSession {
	if s.InFlight() || s.barWidth <= 0 || msg.Y != s.barY {
		return s
	}
	if msg.Action != tea.MouseActionPress && msg.Action != tea.MouseActionMotion {
		return s
	}

	frac := float64(msg.X-s.barX) / float64(s.barWidth)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	t := frac * s.media.DurationSeconds

	if abs(t-s.start) <= abs(t-s.end) {
		return s.SetStart(t)
	}
	return s.SetEnd(t)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func (s TrimSession) handleSubmitted(msg TrimSubmittedMsg) (TrimSession, tea.Cmd) {
	if msg.Gen != s.gen || !s.submitting {
		return s, nil
	}
	s.submitting = false
	if msg.Err != nil {
		s.confirmed = false
		s.errText = msg.Err.Error()
		return s, nil
	}
	s.jobID = msg.Job.ID
	s.job = msg.Job
	return s, s.pollLater()
}

func (s TrimSession) handlePolled(msg TrimPolledMsg) (TrimSession, tea.Cmd) {
	if msg.Gen != s.gen || s.jobID == 0 || s.done {
		return s, nil
	}
	if msg.Err != nil {
		// Transient; the job is still running server-side.
		return s, s.pollLater()
	}

	s.job = msg.Job
	switch msg.Job.Status {
	case domain.StatusCompleted:
		s.done = true
		if s.onCompleted != nil {
			s.onCompleted()
		}
		return s, nil
	case domain.StatusFailed:
		// Surface the error and rearm the editor for a retry.
		s.errText = msg.Job.ErrorMessage
		if s.errText == "" {
			s.errText = "trim failed"
		}
		s.jobID = 0
		s.confirmed = false
		s.gen++
		return s, nil
	default:
		return s, s.pollLater()
	}
}

func (s TrimSession) pollLater() tea.Cmd {
	gen := s.gen
	return tea.Tick(trimPollInterval, func(time.Time) tea.Msg {
		return TrimPollTickMsg{Gen: gen}
	})
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// View renders the session as a modal body. barWidth should match the
// width passed here minus the modal padding; the host records the
// final geometry via SetBarLayout.
func (s TrimSession) View(width int) string {
	var b strings.Builder

	b.WriteString(styles.ModalTitleStyle.Render("Trim " + s.media.DisplayTitle()))
	b.WriteString("\n")

	barWidth := width - 8
	if barWidth < 10 {
		barWidth = 10
	}
	b.WriteString(s.renderBar(barWidth))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Remove from  %s  to  %s   (%ss of %ss)\n",
		s.startInput.View(), s.endInput.View(),
		formatSeconds(s.end-s.start), formatSeconds(s.media.DurationSeconds)))
	b.WriteString("\n")

	switch {
	case s.done:
		b.WriteString(styles.SuccessStyle.Render("Trim complete. Backup kept server-side."))
	case s.submitting:
		b.WriteString(styles.DimStyle.Render("Submitting..."))
	case s.InFlight():
		b.WriteString(styles.AccentStyle.Render("Trimming... do not close"))
	case s.errText != "":
		b.WriteString(styles.ErrorStyle.Render(styles.Truncate(s.errText, width-4)))
		b.WriteString("\n")
		b.WriteString(styles.HelpDescStyle.Render("enter to retry"))
	case s.confirmed:
		b.WriteString(styles.ErrorStyle.Render("This rewrites the file. Press enter again to confirm."))
	default:
		b.WriteString(styles.HelpKeyStyle.Render("enter") + styles.HelpDescStyle.Render(" trim  "))
		b.WriteString(styles.HelpKeyStyle.Render("tab") + styles.HelpDescStyle.Render(" switch field  "))
		b.WriteString(styles.HelpKeyStyle.Render("←/→") + styles.HelpDescStyle.Render(" nudge  "))
		b.WriteString(styles.HelpKeyStyle.Render("esc") + styles.HelpDescStyle.Render(" close"))
	}

	return lipgloss.NewStyle().Width(width).Render(b.String())
}

// renderBar draws the timeline with the removal range marked.
func (s TrimSession) renderBar(width int) string {
	duration := s.media.DurationSeconds
	if duration <= 0 {
		duration = MinSegment
	}
	startCol := int(s.start / duration * float64(width))
	endCol := int(s.end / duration * float64(width))
	if endCol <= startCol {
		endCol = startCol + 1
	}
	if endCol > width {
		endCol = width
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == startCol || i == endCol-1:
			b.WriteString(styles.AccentStyle.Render("┃"))
		case i > startCol && i < endCol-1:
			b.WriteString(styles.ErrorStyle.Render("▒"))
		default:
			b.WriteString(styles.ProgressEmptyStyle.Render("─"))
		}
	}
	return b.String()
}

package components

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benw5483/rectifierr/internal/domain"
)

type trimSubmit struct {
	gen, mediaID, issueID int
	start, end            float64
}

type trimBackendStub struct {
	submits []trimSubmit
	polls   []int
}

func (b *trimBackendStub) SubmitTrimCmd(gen, mediaID int, removeStart, removeEnd float64, issueID int) tea.Cmd {
	b.submits = append(b.submits, trimSubmit{gen: gen, mediaID: mediaID, issueID: issueID, start: removeStart, end: removeEnd})
	return func() tea.Msg { return nil }
}

func (b *trimBackendStub) PollTrimCmd(gen, mediaID, jobID int) tea.Cmd {
	b.polls = append(b.polls, jobID)
	return func() tea.Msg { return nil }
}

func trimFixture(backend TrimBackend, onCompleted func()) TrimSession {
	media := domain.MediaFile{ID: 9, Title: "Pilot", DurationSeconds: 120}
	issue := &domain.MediaIssue{ID: 4, StartSeconds: 10, EndSeconds: 40}
	return NewTrimSession(media, issue, backend, onCompleted)
}

func TestTrimSession_ClampHoldsMinimumSegment(t *testing.T) {
	s := trimFixture(&trimBackendStub{}, nil)

	// Dragging the end below start+0.5 pins it half a second above.
	s = s.SetEnd(9.7)
	start, end := s.Range()
	assert.Equal(t, 10.0, start)
	assert.Equal(t, 10.5, end)

	// Pushing the start past end-0.5 pins it half a second below.
	s = s.SetStart(11)
	start, end = s.Range()
	assert.Equal(t, 10.0, start)
	assert.Equal(t, 10.5, end)
}

func TestTrimSession_ClampHoldsFileBounds(t *testing.T) {
	s := trimFixture(&trimBackendStub{}, nil)

	s = s.SetEnd(500)
	_, end := s.Range()
	assert.Equal(t, 120.0, end)

	s = s.SetStart(-3)
	start, _ := s.Range()
	assert.Equal(t, 0.0, start)
}

func TestTrimSession_DoubleActivationGate(t *testing.T) {
	backend := &trimBackendStub{}
	s := trimFixture(backend, nil)

	// First activation only arms the confirmation.
	s, cmd := s.Activate()
	assert.Nil(t, cmd)
	assert.True(t, s.Confirmed())
	assert.Empty(t, backend.submits)

	// Any range change disarms it again.
	s = s.SetEnd(41)
	assert.False(t, s.Confirmed())

	s, _ = s.Activate()
	assert.Empty(t, backend.submits)

	// Second activation with an unchanged range submits exactly once.
	s, cmd = s.Activate()
	require.NotNil(t, cmd)
	require.Len(t, backend.submits, 1)
	assert.Equal(t, trimSubmit{gen: 2, mediaID: 9, issueID: 4, start: 10, end: 41}, backend.submits[0])

	// A third activation while the submit is in flight is a no-op.
	s, cmd = s.Activate()
	assert.Nil(t, cmd)
	assert.Len(t, backend.submits, 1)
	assert.False(t, s.CanClose())
}

func TestTrimSession_SubmitThenPollToCompletion(t *testing.T) {
	backend := &trimBackendStub{}
	completions := 0
	s := trimFixture(backend, func() { completions++ })

	s, _ = s.Activate()
	s, _ = s.Activate()
	gen := backend.submits[0].gen

	s, cmd := s.Update(TrimSubmittedMsg{Gen: gen, Job: &domain.TrimJob{ID: 77, Status: domain.StatusPending}})
	require.NotNil(t, cmd, "accepting the job schedules the first poll")
	assert.True(t, s.InFlight())
	assert.False(t, s.CanClose())

	// Edits are ignored while the job runs.
	s = s.SetEnd(50)
	_, end := s.Range()
	assert.Equal(t, 40.0, end)

	s, cmd = s.Update(TrimPollTickMsg{Gen: gen})
	require.NotNil(t, cmd)
	assert.Equal(t, []int{77}, backend.polls)

	s, cmd = s.Update(TrimPolledMsg{Gen: gen, Job: &domain.TrimJob{ID: 77, Status: domain.StatusRunning}})
	require.NotNil(t, cmd, "running reschedules the poll")

	s, cmd = s.Update(TrimPolledMsg{Gen: gen, Job: &domain.TrimJob{ID: 77, Status: domain.StatusCompleted}})
	assert.Nil(t, cmd, "terminal status stops polling")
	assert.True(t, s.Done())
	assert.True(t, s.CanClose())
	assert.Equal(t, 1, completions)
}

func TestTrimSession_FailureRearmsForRetry(t *testing.T) {
	backend := &trimBackendStub{}
	s := trimFixture(backend, nil)

	s, _ = s.Activate()
	s, _ = s.Activate()
	gen := backend.submits[0].gen
	s, _ = s.Update(TrimSubmittedMsg{Gen: gen, Job: &domain.TrimJob{ID: 5, Status: domain.StatusRunning}})

	s, cmd := s.Update(TrimPolledMsg{Gen: gen, Job: &domain.TrimJob{ID: 5, Status: domain.StatusFailed, ErrorMessage: "backup failed"}})
	assert.Nil(t, cmd)
	assert.False(t, s.InFlight())
	assert.True(t, s.CanClose())
	assert.False(t, s.Confirmed(), "retry goes back through the gate")

	// A stale tick from the dead poll cycle does nothing.
	s, cmd = s.Update(TrimPollTickMsg{Gen: gen})
	assert.Nil(t, cmd)
	assert.Len(t, backend.polls, 0)

	// The retry submits under a fresh generation.
	s, _ = s.Activate()
	s, cmd = s.Activate()
	require.NotNil(t, cmd)
	require.Len(t, backend.submits, 2)
	assert.Greater(t, backend.submits[1].gen, gen)
}

func TestTrimSession_SubmitErrorDisarms(t *testing.T) {
	backend := &trimBackendStub{}
	s := trimFixture(backend, nil)

	s, _ = s.Activate()
	s, _ = s.Activate()
	gen := backend.submits[0].gen

	s, cmd := s.Update(TrimSubmittedMsg{Gen: gen, Err: errors.New("503")})
	assert.Nil(t, cmd)
	assert.False(t, s.InFlight())
	assert.False(t, s.Confirmed())
}

func TestTrimSession_MouseDragMovesNearestBoundary(t *testing.T) {
	s := trimFixture(&trimBackendStub{}, nil)
	s = s.SetBarLayout(0, 5, 120)

	// With the bar mapping one cell per second, x=36 is nearer the end
	// handle (40) than the start (10).
	s, _ = s.Update(tea.MouseMsg{X: 36, Y: 5, Action: tea.MouseActionMotion})
	start, end := s.Range()
	assert.Equal(t, 10.0, start)
	assert.Equal(t, 36.0, end)

	// x=12 is nearer the start.
	s, _ = s.Update(tea.MouseMsg{X: 12, Y: 5, Action: tea.MouseActionMotion})
	start, _ = s.Range()
	assert.Equal(t, 12.0, start)

	// Events off the bar row are ignored.
	s, _ = s.Update(tea.MouseMsg{X: 60, Y: 6, Action: tea.MouseActionMotion})
	_, end = s.Range()
	assert.Equal(t, 36.0, end)
}

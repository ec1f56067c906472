package components

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benw5483/rectifierr/internal/domain"
)

// resolveStub records follow-up fetches and lets the test choose the
// outcome delivered back into Update.
type resolveStub struct {
	calls  []int
	result domain.JobSnapshot
	err    error
}

func (r *resolveStub) cmd(jobID int) tea.Cmd {
	r.calls = append(r.calls, jobID)
	return func() tea.Msg {
		return ToastJobResolvedMsg{Kind: "Scan", Job: r.result, Err: r.err}
	}
}

func running(id, processed, total, found int) domain.JobSnapshot {
	return domain.JobSnapshot{ID: id, Status: domain.StatusRunning, Processed: processed, Total: total, Found: found}
}

func TestJobToast_ScanLifecycle(t *testing.T) {
	resolver := &resolveStub{result: domain.JobSnapshot{ID: 1, Status: domain.StatusCompleted, Found: 3}}
	invalidations := 0
	toast := NewJobToast("Scan", resolver.cmd, func() { invalidations++ })

	// Active feed arrives: toast shows the first active job.
	toast, cmd := toast.Observe([]domain.JobSnapshot{running(1, 5, 10, 2)})
	assert.Nil(t, cmd)
	assert.Equal(t, ToastRunning, toast.Phase())
	assert.Equal(t, 2, toast.Job().Found)

	// Feed drains: exactly one follow-up fetch for the drained job.
	toast, cmd = toast.Observe(nil)
	require.NotNil(t, cmd)
	assert.Equal(t, []int{1}, resolver.calls)

	// A second drained tick must not fetch again.
	toast, cmd = toast.Observe(nil)
	assert.Nil(t, cmd)
	assert.Equal(t, []int{1}, resolver.calls)

	// The resolved record carries the terminal status.
	toast, cmd = toast.Update(ToastJobResolvedMsg{Kind: "Scan", Job: resolver.result})
	require.NotNil(t, cmd, "completed schedules the dismiss timer")
	assert.Equal(t, ToastCompleted, toast.Phase())
	assert.Equal(t, 3, toast.Job().Found)
	assert.Equal(t, 1, invalidations, "caches invalidated once per transition")

	// The dismiss timer fires and hides the toast.
	toast, _ = toast.Update(ToastDismissMsg{Kind: "Scan", Gen: toast.dismissGen})
	assert.Equal(t, ToastHidden, toast.Phase())
	assert.Equal(t, 1, invalidations)
}

func TestJobToast_NewJobCancelsDismiss(t *testing.T) {
	resolver := &resolveStub{result: domain.JobSnapshot{ID: 1, Status: domain.StatusCompleted}}
	toast := NewJobToast("Scan", resolver.cmd, nil)

	toast, _ = toast.Observe([]domain.JobSnapshot{running(1, 1, 1, 0)})
	toast, _ = toast.Observe(nil)
	toast, _ = toast.Update(ToastJobResolvedMsg{Kind: "Scan", Job: resolver.result})
	require.Equal(t, ToastCompleted, toast.Phase())
	staleGen := toast.dismissGen

	// A new job starts before the 5 s timer fires.
	toast, _ = toast.Observe([]domain.JobSnapshot{running(2, 0, 4, 0)})
	assert.Equal(t, ToastRunning, toast.Phase())

	// The stale timer is a no-op.
	toast, _ = toast.Update(ToastDismissMsg{Kind: "Scan", Gen: staleGen})
	assert.Equal(t, ToastRunning, toast.Phase())
}

func TestJobToast_FailedIsSticky(t *testing.T) {
	resolver := &resolveStub{result: domain.JobSnapshot{ID: 7, Status: domain.StatusFailed, Error: "ffmpeg exploded"}}
	toast := NewJobToast("Scan", resolver.cmd, nil)

	toast, _ = toast.Observe([]domain.JobSnapshot{running(7, 2, 9, 0)})
	toast, cmd := toast.Observe(nil)
	require.NotNil(t, cmd)

	toast, cmd = toast.Update(ToastJobResolvedMsg{Kind: "Scan", Job: resolver.result})
	assert.Nil(t, cmd, "failed never auto-dismisses")
	assert.Equal(t, ToastFailed, toast.Phase())

	// Only an explicit dismiss clears it.
	toast = toast.Dismiss()
	assert.Equal(t, ToastHidden, toast.Phase())
}

func TestJobToast_CancelledResolvesSilently(t *testing.T) {
	resolver := &resolveStub{result: domain.JobSnapshot{ID: 3, Status: domain.StatusCancelled}}
	invalidations := 0
	toast := NewJobToast("Scan", resolver.cmd, func() { invalidations++ })

	toast, _ = toast.Observe([]domain.JobSnapshot{running(3, 0, 5, 0)})
	toast, _ = toast.Observe(nil)
	toast, cmd := toast.Update(ToastJobResolvedMsg{Kind: "Scan", Job: resolver.result})

	assert.Nil(t, cmd)
	assert.Equal(t, ToastHidden, toast.Phase())
	assert.Zero(t, invalidations)
}

func TestJobToast_ResolveErrorHides(t *testing.T) {
	resolver := &resolveStub{err: errors.New("gone")}
	toast := NewJobToast("Scan", resolver.cmd, nil)

	toast, _ = toast.Observe([]domain.JobSnapshot{running(4, 0, 1, 0)})
	toast, _ = toast.Observe(nil)
	toast, _ = toast.Update(ToastJobResolvedMsg{Kind: "Scan", Err: resolver.err})
	assert.Equal(t, ToastHidden, toast.Phase())
}

func TestJobToast_IgnoresOtherKinds(t *testing.T) {
	toast := NewJobToast("Scan", (&resolveStub{}).cmd, nil)
	toast, _ = toast.Observe([]domain.JobSnapshot{running(1, 0, 1, 0)})

	toast, cmd := toast.Update(ToastJobResolvedMsg{Kind: "Sync", Job: domain.JobSnapshot{Status: domain.StatusCompleted}})
	assert.Nil(t, cmd)
	assert.Equal(t, ToastRunning, toast.Phase(), "messages for other toasts pass through")
}

package components

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benw5483/rectifierr/internal/domain"
)

func countEff(effects []connEffect, want connEffect) int {
	n := 0
	for _, eff := range effects {
		if eff == want {
			n++
		}
	}
	return n
}

func grant() *domain.PinGrant {
	return &domain.PinGrant{PinID: 42, PinCode: "ABCD", AuthURL: "https://plex.tv/link"}
}

func TestConnectionFlow_AuthHappyPath(t *testing.T) {
	s := ConnState{Phase: ConnIdle, Gen: 1}

	s, effects := transition(s, connStartEvent{})
	assert.Equal(t, ConnStarting, s.Phase)
	require.Equal(t, []connEffect{effStartAuth}, effects)

	s, effects = transition(s, ConnAuthStartedMsg{Grant: grant()})
	assert.Equal(t, ConnAwaitingAuth, s.Phase)
	require.Equal(t, []connEffect{effScheduleAuthPoll}, effects)
	gen := s.Gen

	// Two polls come back unauthorized; each reschedules, nothing else.
	for i := 0; i < 2; i++ {
		s, effects = transition(s, ConnAuthTickMsg{Gen: gen})
		require.Equal(t, []connEffect{effPollAuth}, effects)
		s, effects = transition(s, ConnAuthPolledMsg{Gen: gen, Authorized: false})
		require.Equal(t, []connEffect{effScheduleAuthPoll}, effects)
		assert.Equal(t, ConnAwaitingAuth, s.Phase)
	}

	// The third poll authorizes: picking_server, one server listing.
	s, effects = transition(s, ConnAuthTickMsg{Gen: gen})
	require.Equal(t, []connEffect{effPollAuth}, effects)
	s, effects = transition(s, ConnAuthPolledMsg{Gen: gen, Authorized: true})
	assert.Equal(t, ConnPickingServer, s.Phase)
	assert.Equal(t, 1, countEff(effects, effListServers))

	// Stray late ticks from the finished poll cycle do nothing.
	s, effects = transition(s, ConnAuthTickMsg{Gen: gen})
	assert.Empty(t, effects)
	assert.Equal(t, ConnPickingServer, s.Phase)
}

func TestConnectionFlow_CancelStopsPoll(t *testing.T) {
	s := ConnState{Phase: ConnIdle, Gen: 1}
	s, _ = transition(s, connStartEvent{})
	s, _ = transition(s, ConnAuthStartedMsg{Grant: grant()})
	gen := s.Gen

	s, effects := transition(s, connCancelEvent{})
	assert.Equal(t, ConnIdle, s.Phase)
	assert.Empty(t, effects)
	assert.Nil(t, s.Pin)

	// The in-flight tick and a late poll answer carry the old gen and
	// must both be discarded; no new poll is ever scheduled.
	s, effects = transition(s, ConnAuthTickMsg{Gen: gen})
	assert.Empty(t, effects)
	s, effects = transition(s, ConnAuthPolledMsg{Gen: gen, Authorized: true})
	assert.Empty(t, effects)
	assert.Equal(t, ConnIdle, s.Phase)
}

func TestConnectionFlow_AuthErrorKeepsPolling(t *testing.T) {
	s := ConnState{Phase: ConnAwaitingAuth, Gen: 3, Pin: grant()}

	s, effects := transition(s, ConnAuthPolledMsg{Gen: 3, Err: errors.New("502")})
	assert.Equal(t, ConnAwaitingAuth, s.Phase)
	require.Equal(t, []connEffect{effScheduleAuthPoll}, effects)
}

func TestConnectionFlow_ServerSaveFailureRevertsToPicking(t *testing.T) {
	s := ConnState{
		Phase:   ConnPickingServer,
		Gen:     2,
		Servers: []domain.PlexServer{{Name: "nas", MachineID: "m1"}},
	}

	s, effects := transition(s, connChooseServerEvent{})
	assert.Equal(t, ConnConnecting, s.Phase)
	require.Equal(t, []connEffect{effSelectServer}, effects)

	s, effects = transition(s, ConnServerSavedMsg{Gen: 2, Err: errors.New("unreachable")})
	assert.Equal(t, ConnPickingServer, s.Phase)
	assert.Equal(t, "unreachable", s.ErrText)
	assert.Empty(t, effects)

	// The server list survives the failed attempt for a retry.
	assert.Len(t, s.Servers, 1)
}

func TestConnectionFlow_LibraryDefaultsPreferShowsAndMovies(t *testing.T) {
	libs := []domain.PlexLibrary{
		{Key: "1", Title: "TV", Type: "show"},
		{Key: "2", Title: "Movies", Type: "movie"},
		{Key: "3", Title: "Music", Type: "artist"},
	}
	s := ConnState{Phase: ConnPickingLibraries, Gen: 2}

	s, _ = transition(s, ConnLibrariesLoadedMsg{Gen: 2, Libraries: libs})
	assert.Equal(t, []string{"1", "2"}, s.SelectedKeys())

	// A prior selection on the server wins over type defaults.
	libs[0].Selected = false
	libs[2].Selected = true
	s = ConnState{Phase: ConnPickingLibraries, Gen: 2}
	s, _ = transition(s, ConnLibrariesLoadedMsg{Gen: 2, Libraries: libs})
	assert.Equal(t, []string{"3"}, s.SelectedKeys())
}

func TestConnectionFlow_SaveLibrariesConnectsAndKicksSync(t *testing.T) {
	s := ConnState{
		Phase:     ConnPickingLibraries,
		Gen:       2,
		Libraries: []domain.PlexLibrary{{Key: "1", Type: "show"}},
		Selected:  map[string]bool{"1": true},
	}

	s, effects := transition(s, connSaveLibrariesEvent{})
	assert.True(t, s.Saving)
	require.Equal(t, []connEffect{effSaveLibraries}, effects)

	// Double enter while saving must not queue a second save.
	s, effects = transition(s, connSaveLibrariesEvent{})
	assert.Empty(t, effects)

	s, effects = transition(s, ConnLibrariesSavedMsg{Gen: 2})
	assert.Equal(t, ConnConnected, s.Phase)
	assert.Equal(t, 1, countEff(effects, effStartSync))
	assert.Equal(t, 1, countEff(effects, effInvalidateStatus))

	// The sync kick outcome is swallowed either way.
	s, effects = transition(s, ConnSyncKickedMsg{Err: errors.New("already running")})
	assert.Equal(t, ConnConnected, s.Phase)
	assert.Empty(t, effects)
}

func TestConnectionFlow_StatusShortCircuitsToConnected(t *testing.T) {
	s := ConnState{Phase: ConnIdle, Gen: 1}

	s, effects := transition(s, ConnStatusLoadedMsg{Status: &domain.ConnectionStatus{Connected: true}})
	assert.Equal(t, ConnConnected, s.Phase)
	assert.Empty(t, effects)

	// A later status flip back to disconnected resets the flow.
	s, _ = transition(s, ConnStatusLoadedMsg{Status: &domain.ConnectionStatus{Connected: false}})
	assert.Equal(t, ConnIdle, s.Phase)
}

func TestConnectionFlow_DisconnectResets(t *testing.T) {
	s := ConnState{Phase: ConnConnected, Gen: 4, Status: &domain.ConnectionStatus{Connected: true}}

	s, effects := transition(s, connDisconnectEvent{})
	assert.True(t, s.Busy)
	require.Equal(t, []connEffect{effDisconnect}, effects)

	// A second press while the request is in flight is ignored.
	s, effects = transition(s, connDisconnectEvent{})
	assert.Empty(t, effects)

	s, effects = transition(s, ConnDisconnectedMsg{})
	assert.Equal(t, ConnIdle, s.Phase)
	assert.Greater(t, s.Gen, 4)
	assert.Equal(t, 1, countEff(effects, effInvalidateStatus))
}

package api

import (
	"context"
	"net/http"

	"github.com/benw5483/rectifierr/internal/domain"
)

// Plex connection endpoints. The backend proxies plex.tv; this client
// never talks to Plex directly.

// ConnectionStatus returns the full connection state record.
func (c *Client) ConnectionStatus(ctx context.Context) (*domain.ConnectionStatus, error) {
	var status domain.ConnectionStatus
	if err := c.getJSON(ctx, "/plex/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StartAuth requests a one-time PIN from the backend.
func (c *Client) StartAuth(ctx context.Context) (*domain.PinGrant, error) {
	var grant domain.PinGrant
	if err := c.sendJSON(ctx, http.MethodPost, "/plex/auth/start", nil, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// PollAuth asks whether the PIN has been authorized yet.
func (c *Client) PollAuth(ctx context.Context, pinID int) (bool, error) {
	var resp struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := c.getJSON(ctx, fmtPath("/plex/auth/poll/%d", pinID), nil, &resp); err != nil {
		return false, err
	}
	return resp.Authenticated, nil
}

// ListServers returns the Plex servers the linked account can reach.
func (c *Client) ListServers(ctx context.Context) ([]domain.PlexServer, error) {
	var servers []domain.PlexServer
	if err := c.getJSON(ctx, "/plex/servers", nil, &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

// SelectServer persists the chosen Plex server on the backend.
func (c *Client) SelectServer(ctx context.Context, server domain.PlexServer) error {
	payload := map[string]string{
		"name":       server.Name,
		"machine_id": server.MachineID,
		"url":        server.BestURL,
	}
	return c.sendJSON(ctx, http.MethodPost, "/plex/server", payload, nil)
}

// ListLibraries returns the library sections on the selected server,
// flagged with the current selection.
func (c *Client) ListLibraries(ctx context.Context) ([]domain.PlexLibrary, error) {
	var libs []domain.PlexLibrary
	if err := c.getJSON(ctx, "/plex/libraries", nil, &libs); err != nil {
		return nil, err
	}
	return libs, nil
}

// SaveLibrarySelection persists which sections to sync.
func (c *Client) SaveLibrarySelection(ctx context.Context, keys []string) error {
	payload := map[string][]string{"keys": keys}
	return c.sendJSON(ctx, http.MethodPut, "/plex/library-selection", payload, nil)
}

// StartSync kicks off a background library sync. Returns false if one
// is already running.
func (c *Client) StartSync(ctx context.Context) (bool, error) {
	var resp struct {
		Started bool `json:"started"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, "/plex/sync", nil, &resp); err != nil {
		return false, err
	}
	return resp.Started, nil
}

// SyncStatus returns live sync progress.
func (c *Client) SyncStatus(ctx context.Context) (*domain.SyncStatus, error) {
	var status domain.SyncStatus
	if err := c.getJSON(ctx, "/plex/sync/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CancelSync asks a running sync to stop.
func (c *Client) CancelSync(ctx context.Context) (bool, error) {
	var resp struct {
		Cancelled bool `json:"cancelled"`
	}
	if err := c.sendJSON(ctx, http.MethodDelete, "/plex/sync", nil, &resp); err != nil {
		return false, err
	}
	return resp.Cancelled, nil
}

// Disconnect clears the Plex token, server, and account info.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.sendJSON(ctx, http.MethodDelete, "/plex/disconnect", nil, nil)
}

package domain

// Account is the Plex account linked to the server.
type Account struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	Thumb    string `json:"thumb"`
}

// ServerInfo is the Plex Media Server the backend is bound to.
type ServerInfo struct {
	Name      string `json:"name"`
	MachineID string `json:"machine_id"`
	URL       string `json:"url"`
}

// PathPrefix maps Plex-reported paths to locally accessible ones.
type PathPrefix struct {
	Plex  string `json:"plex"`
	Local string `json:"local"`
}

// ConnectionStatus is the full connection state record. It is served by
// a single endpoint and cached client-side as one value with explicit
// invalidation; no component derives connection state on its own.
type ConnectionStatus struct {
	Connected   bool       `json:"connected"`
	Account     Account    `json:"account"`
	Server      ServerInfo `json:"server"`
	PathPrefix  PathPrefix `json:"path_prefix"`
	Sync        SyncStatus `json:"sync"`
	LibraryKeys []string   `json:"library_keys"`
}

// PinGrant is the one-time code handed out when external auth starts.
type PinGrant struct {
	PinID     int    `json:"pin_id"`
	PinCode   string `json:"pin_code"`
	AuthURL   string `json:"auth_url"`
	ExpiresAt string `json:"expires_at"`
}

// PlexConnection is one reachable address of a candidate server.
type PlexConnection struct {
	URI   string `json:"uri"`
	Local bool   `json:"local"`
	Relay bool   `json:"relay"`
}

// PlexServer is a candidate Plex Media Server the account can reach.
// Connections arrive sorted best-first; BestURL duplicates the head.
type PlexServer struct {
	Name        string           `json:"name"`
	MachineID   string           `json:"machine_id"`
	Owned       bool             `json:"owned"`
	BestURL     string           `json:"best_url"`
	Connections []PlexConnection `json:"connections"`
}

// PlexLibrary is one library section on the selected server.
type PlexLibrary struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Type     string `json:"type"` // "movie", "show", "artist", "photo"
	Selected bool   `json:"selected"`
}

package domain

import "errors"

var (
	// ErrServerOffline indicates the Rectifierr server is unreachable
	ErrServerOffline = errors.New("rectifierr server is unreachable")
	// ErrNotConnected indicates no Plex account is linked yet
	ErrNotConnected = errors.New("not connected to Plex")
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("not found")
)

package service

import (
	"context"
	"log/slog"

	"github.com/benw5483/rectifierr/internal/api"
	"github.com/benw5483/rectifierr/internal/domain"
)

// StatusService owns the connection-status record: a single cached
// value with explicit invalidation. Every mutation that can change it
// (connect, disconnect, server or library selection, sync completion)
// calls Invalidate; nothing in the client derives connection state from
// anywhere else.
type StatusService struct {
	client *api.Client
	logger *slog.Logger

	cached *domain.ConnectionStatus
}

// NewStatusService creates a status service.
func NewStatusService(client *api.Client, logger *slog.Logger) *StatusService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusService{client: client, logger: logger}
}

// Get returns the connection status, fetching only on a cold or
// invalidated cache.
func (s *StatusService) Get(ctx context.Context) (*domain.ConnectionStatus, error) {
	if s.cached != nil {
		return s.cached, nil
	}
	status, err := s.client.ConnectionStatus(ctx)
	if err != nil {
		return nil, err
	}
	s.cached = status
	return status, nil
}

// Cached returns the cached record without fetching, or nil.
func (s *StatusService) Cached() *domain.ConnectionStatus {
	return s.cached
}

// Invalidate clears the cached record so the next Get refetches.
func (s *StatusService) Invalidate() {
	s.cached = nil
}

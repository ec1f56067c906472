package service

import (
	"context"
	"log/slog"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/benw5483/rectifierr/internal/api"
	"github.com/benw5483/rectifierr/internal/domain"
	"github.com/benw5483/rectifierr/internal/store"
)

// MediaService serves media listings and stats, cache-first against the
// bbolt store. Listings go stale only through explicit invalidation
// after a completed scan, sync, or trim.
type MediaService struct {
	client *api.Client
	store  *store.ListingStore
	logger *slog.Logger
}

// NewMediaService creates a media service.
func NewMediaService(client *api.Client, listings *store.ListingStore, logger *slog.Logger) *MediaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{client: client, store: listings, logger: logger}
}

// List returns one page of the media listing, preferring the cache.
func (s *MediaService) List(ctx context.Context, q api.MediaQuery) (*domain.MediaPage, error) {
	key := q.Values().Encode()
	if page, ok := s.store.GetMediaPage(key); ok {
		return page, nil
	}

	page, err := s.client.ListMedia(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutMediaPage(key, page); err != nil {
		s.logger.Warn("failed to cache media page", "key", key, "error", err)
	}
	return page, nil
}

// Get returns one media file with issues, always fresh. Issue state
// changes too often (scans, resolves, trims) to be worth caching.
func (s *MediaService) Get(ctx context.Context, mediaID int) (*domain.MediaFile, error) {
	return s.client.GetMedia(ctx, mediaID)
}

// Stats returns the aggregate library stats, preferring the cache.
func (s *MediaService) Stats(ctx context.Context) (*domain.LibraryStats, error) {
	if stats, ok := s.store.GetStats(); ok {
		return stats, nil
	}

	stats, err := s.client.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutStats(stats); err != nil {
		s.logger.Warn("failed to cache stats", "error", err)
	}
	return stats, nil
}

// Invalidate drops cached listings and stats. Called exactly once per
// completed-job transition by the owning component.
func (s *MediaService) Invalidate() {
	if err := s.store.InvalidateListings(); err != nil {
		s.logger.Warn("failed to invalidate listings", "error", err)
	}
}

// BestTitleMatch ranks items against query by normalized fuzzy title
// match and returns the index of the best hit, or -1. Used by the
// jump-to-file command on the dashboard.
func (s *MediaService) BestTitleMatch(query string, items []domain.MediaFile) int {
	if query == "" || len(items) == 0 {
		return -1
	}

	titles := make([]string, len(items))
	for i, m := range items {
		titles[i] = m.DisplayTitle()
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	if len(ranks) == 0 {
		return -1
	}

	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.OriginalIndex
}

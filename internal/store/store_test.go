package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benw5483/rectifierr/internal/domain"
)

func newTestStore(t *testing.T) *ListingStore {
	t.Helper()
	s, err := NewListingStore(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestListingStore_MediaPageRoundTrip(t *testing.T) {
	s := newTestStore(t)

	page := &domain.MediaPage{
		Total: 2,
		Items: []domain.MediaFile{
			{ID: 1, Title: "Airwolf S01E01", UnresolvedIssues: 1},
			{ID: 2, Title: "Knight Rider S02E03"},
		},
	}
	require.NoError(t, s.PutMediaPage("skip=0&limit=100", page))

	got, ok := s.GetMediaPage("skip=0&limit=100")
	require.True(t, ok)
	assert.Equal(t, page.Total, got.Total)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Airwolf S01E01", got.Items[0].Title)

	_, ok = s.GetMediaPage("skip=100&limit=100")
	assert.False(t, ok, "unknown query keys miss")
}

func TestListingStore_InvalidateListings(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutMediaPage("skip=0", &domain.MediaPage{Total: 1}))
	require.NoError(t, s.PutStats(&domain.LibraryStats{TotalFiles: 10}))

	require.NoError(t, s.InvalidateListings())

	_, ok := s.GetMediaPage("skip=0")
	assert.False(t, ok)
	_, ok = s.GetStats()
	assert.False(t, ok)
}

func TestListingStore_NoopWithoutCacheDir(t *testing.T) {
	s, err := NewListingStore("", "")
	require.NoError(t, err)

	assert.NoError(t, s.PutStats(&domain.LibraryStats{TotalFiles: 1}))
	_, ok := s.GetStats()
	assert.False(t, ok, "memory-less store never hits")
	assert.NoError(t, s.InvalidateListings())
	assert.NoError(t, s.Close())
}

func TestListingStore_ServerPartitioning(t *testing.T) {
	dir := t.TempDir()

	a, err := NewListingStore(dir, "http://server-a:8000")
	require.NoError(t, err)
	defer a.Close()

	b, err := NewListingStore(dir, "http://server-b:8000")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.PutStats(&domain.LibraryStats{TotalFiles: 5}))
	_, ok := b.GetStats()
	assert.False(t, ok, "servers must not share cache entries")
}

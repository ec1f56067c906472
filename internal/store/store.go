package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/benw5483/rectifierr/internal/domain"
)

// Bucket names
var (
	bucketMedia = []byte("media")
	bucketStats = []byte("stats")
)

const statsKey = "stats"

// ListingStore caches media listings and library stats on disk so the
// dashboard paints instantly on startup. Entries are invalidated
// explicitly when a scan, sync, or trim completes; there is no TTL.
type ListingStore struct {
	db *bolt.DB
}

// NewListingStore opens (or creates) the cache under baseCacheDir,
// partitioned by server URL so switching servers never mixes data.
// An empty baseCacheDir yields a no-op store.
func NewListingStore(baseCacheDir, serverURL string) (*ListingStore, error) {
	if baseCacheDir == "" {
		return &ListingStore{}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "rectifierr.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketMedia, bucketStats} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ListingStore{db: db}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *ListingStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *ListingStore) get(bucket []byte, key string, dest any) bool {
	if s.db == nil {
		return false
	}
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if data == nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (s *ListingStore) put(bucket []byte, key string, value any) error {
	if s.db == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *ListingStore) clear(buckets ...[]byte) error {
	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Media listings ===

// GetMediaPage returns a cached listing page for the query key, if any.
func (s *ListingStore) GetMediaPage(queryKey string) (*domain.MediaPage, bool) {
	var page domain.MediaPage
	if !s.get(bucketMedia, queryKey, &page) {
		return nil, false
	}
	return &page, true
}

// PutMediaPage caches one listing page under its query key.
func (s *ListingStore) PutMediaPage(queryKey string, page *domain.MediaPage) error {
	return s.put(bucketMedia, queryKey, page)
}

// === Stats ===

// GetStats returns the cached library stats, if any.
func (s *ListingStore) GetStats() (*domain.LibraryStats, bool) {
	var stats domain.LibraryStats
	if !s.get(bucketStats, statsKey, &stats) {
		return nil, false
	}
	return &stats, true
}

// PutStats caches the library stats.
func (s *ListingStore) PutStats(stats *domain.LibraryStats) error {
	return s.put(bucketStats, statsKey, stats)
}

// InvalidateListings drops every cached page and the stats. Called when
// a job that can change listings reaches completed.
func (s *ListingStore) InvalidateListings() error {
	return s.clear(bucketMedia, bucketStats)
}

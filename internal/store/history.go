package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/mmcdole/tunescout/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var bucketHistory = []byte("history")

// DefaultMaxEntries caps the history when no limit is configured.
const DefaultMaxEntries = 20

// HistoryStore implements domain.HistoryStore using BoltDB.
type HistoryStore struct {
	db  *bolt.DB
	max int
	mu  sync.RWMutex // Protects memory cache

	// Mirror of the bucket, keyed like the bucket
	cache map[string][]byte
}

// NewHistoryStore opens the history database at path. An empty path keeps
// history in memory for the lifetime of the process.
func NewHistoryStore(path string, max int) (*HistoryStore, error) {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	s := &HistoryStore{max: max, cache: make(map[string][]byte)}
	if path == "" {
		// Memory-only mode (no persistence)
		return s, nil
	}

	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	// Create bucket and warm the cache
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketHistory)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			data := make([]byte, len(v))
			copy(data, v)
			s.cache[string(k)] = data
			return nil
		})
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

func (s *HistoryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// entryKey identifies a playlist/page-size pair, so resubmitting a query
// overwrites its previous entry.
func entryKey(e domain.HistoryEntry) string {
	return fmt.Sprintf("%d:%d", e.PlaylistID, e.PageSize)
}

// Add records e, replacing an older entry for the same pair, and evicts the
// oldest entries beyond the configured maximum.
func (s *HistoryStore) Add(e domain.HistoryEntry) error {
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[entryKey(e)] = data
	evicted := s.evictLocked()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		if err := b.Put([]byte(entryKey(e)), data); err != nil {
			return err
		}
		for _, key := range evicted {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// evictLocked drops the oldest cache entries above max and returns their keys.
func (s *HistoryStore) evictLocked() []string {
	if len(s.cache) <= s.max {
		return nil
	}
	entries := s.sortedLocked()
	var evicted []string
	for _, e := range entries[s.max:] {
		key := entryKey(e)
		delete(s.cache, key)
		evicted = append(evicted, key)
	}
	return evicted
}

// sortedLocked decodes the cache, newest first.
func (s *HistoryStore) sortedLocked() []domain.HistoryEntry {
	entries := make([]domain.HistoryEntry, 0, len(s.cache))
	for _, data := range s.cache {
		var e domain.HistoryEntry
		if json.Unmarshal(data, &e) == nil {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].SubmittedAt.Equal(entries[j].SubmittedAt) {
			return entryKey(entries[i]) < entryKey(entries[j])
		}
		return entries[i].SubmittedAt.After(entries[j].SubmittedAt)
	})
	return entries
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (s *HistoryStore) Recent(limit int) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	entries := s.sortedLocked()
	s.mu.RUnlock()

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Clear removes every entry.
func (s *HistoryStore) Clear() error {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketHistory) != nil {
			if err := tx.DeleteBucket(bucketHistory); err != nil {
				return err
			}
		}
		_, err := tx.CreateBucket(bucketHistory)
		return err
	})
}

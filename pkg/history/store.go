package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/quorum-ai/quorum/backend/internal/util"
	"github.com/quorum-ai/quorum/backend/pkg/logger"
)

// DefaultWindow is the bounded number of records the store keeps.
const DefaultWindow = 50

// remoteTries bounds the retry attempts for one remote write before it
// is given up and left to the next sync.
const remoteTries = 3

// Remote is the authoritative store-of-record. All calls may fail; the
// store logs and carries on, letting the local cache run ahead until the
// next successful sync.
type Remote interface {
	List(ctx context.Context) ([]Record, error)
	Put(ctx context.Context, r Record) error
	Delete(ctx context.Context, id string) error
}

// Store is the history store: a bounded local cache persisted to disk plus
// an optional remote store-of-record. Local writes are optimistic; remote
// writes happen asynchronously with a few retries, and a write that still
// fails is left for the next sync.
type Store struct {
	mu       sync.Mutex
	path     string
	remote   Remote
	limit    int
	records  []Record
	lastSync time.Time

	// wg tracks in-flight remote writes so tests and shutdown can drain
	// them.
	wg sync.WaitGroup
}

type cacheFile struct {
	Records  []Record  `json:"records"`
	LastSync time.Time `json:"last_sync,omitempty"`
}

// NewStore opens a history store backed by the cache file at path. The
// remote may be nil for an offline store. A missing or corrupt cache file
// starts the store empty.
func NewStore(path string, remote Remote) *Store {
	s := &Store{path: path, remote: remote, limit: DefaultWindow}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read history cache, starting empty", "err", err)
		}
		return s
	}
	var cached cacheFile
	if err := json.Unmarshal(data, &cached); err != nil {
		logger.Warn("Corrupt history cache, starting empty", "err", err)
		return s
	}
	s.records = cached.Records
	s.lastSync = cached.LastSync
	return s
}

// Records returns a copy of the cached records, most recent first.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

// Get returns the cached record with the given id.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// LastSync returns the time of the last successful sync.
func (s *Store) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

// Add stores a record: an id and creation timestamp are assigned if
// absent, the record is prepended to the bounded local cache and persisted
// to disk, and the remote write is kicked off in the background. The
// caller never waits on the remote; a remote write that fails all its
// retries is logged and the local cache stays ahead until the next sync.
func (s *Store) Add(ctx context.Context, r Record) Record {
	if r.ID == "" {
		r.ID = util.NewPrefixedID("conv")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.records = append([]Record{r}, s.records...)
	if len(s.records) > s.limit {
		s.records = s.records[:s.limit]
	}
	s.persistLocked()
	s.mu.Unlock()

	if s.remote != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			err := util.RetryErrWithContext(ctx, remoteTries, func(ctx context.Context) error {
				return s.remote.Put(ctx, r)
			})
			if err != nil {
				logger.Error("Failed to persist history record remotely", "id", r.ID, "err", err)
			}
		}()
	}
	return r
}

// Sync reconciles with the remote store: local-only records are pushed up
// (the remote simply hasn't seen them yet, e.g. after an offline period),
// then the merged set replaces the cache. Remote data wins on collision.
func (s *Store) Sync(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}

	remote, err := s.remote.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch remote history: %w", err)
	}

	remoteIDs := make(map[string]bool, len(remote))
	for _, r := range remote {
		remoteIDs[r.ID] = true
	}

	s.mu.Lock()
	local := append([]Record(nil), s.records...)
	s.mu.Unlock()

	for _, r := range local {
		if remoteIDs[r.ID] {
			continue
		}
		err := util.RetryErrWithContext(ctx, remoteTries, func(ctx context.Context) error {
			return s.remote.Put(ctx, r)
		})
		if err != nil {
			logger.Error("Failed to push local history record", "id", r.ID, "err", err)
		}
	}

	merged := Merge(remote, local, s.limit)

	s.mu.Lock()
	s.records = merged
	s.lastSync = time.Now()
	s.persistLocked()
	s.mu.Unlock()
	return nil
}

// Delete removes a record locally and remotely.
func (s *Store) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	s.persistLocked()
	s.mu.Unlock()

	if s.remote != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			err := util.RetryErrWithContext(ctx, remoteTries, func(ctx context.Context) error {
				return s.remote.Delete(ctx, id)
			})
			if err != nil {
				logger.Error("Failed to delete remote history record", "id", id, "err", err)
			}
		}()
	}
}

// Wait blocks until all in-flight remote writes have finished.
func (s *Store) Wait() {
	s.wg.Wait()
}

// persistLocked writes the cache file. Caller holds s.mu. Failures are
// logged and swallowed: losing the cache costs a re-sync, nothing more.
func (s *Store) persistLocked() {
	data, err := json.MarshalIndent(cacheFile{Records: s.records, LastSync: s.lastSync}, "", "  ")
	if err != nil {
		logger.Error("Failed to encode history cache", "err", err)
		return
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("Failed to create history cache directory", "err", err)
		return
	}

	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		logger.Error("Failed to create temp history cache", "err", err)
		return
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		logger.Error("Failed to write history cache", "err", err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		logger.Error("Failed to close history cache", "err", err)
		return
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		logger.Error("Failed to replace history cache", "err", err)
	}
}

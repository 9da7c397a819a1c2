package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bbolt "go.etcd.io/bbolt"
)

// ErrCacheIO indicates the durable store is unavailable. Callers degrade to
// running without the cache for the rest of the run instead of aborting.
var ErrCacheIO = errors.New("snapshot cache unavailable")

// bucketName is the single bucket holding snapshots inside each per-repo DB.
var bucketName = []byte("snapshots")

// openTimeout bounds how long opening a locked DB file may block.
const openTimeout = 5 * time.Second

// Store is the durable snapshot cache. Each repository gets its own bbolt
// file under the cache directory, so clearing or corrupting one
// repository's cache cannot affect another's. Safe for concurrent use.
type Store struct {
	dir   string
	codec Codec

	mu  sync.Mutex
	dbs map[string]*bbolt.DB
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("%w: create cache dir: %w", ErrCacheIO, err)
	}

	return &Store{
		dir:   dir,
		codec: NewLZ4JSONCodec(),
		dbs:   make(map[string]*bbolt.DB),
	}, nil
}

// Get retrieves the snapshot for key. The second return value reports
// whether the key was present.
func (s *Store) Get(key Key) (*Snapshot, bool, error) {
	db, err := s.open(key.RepositoryID)
	if err != nil {
		return nil, false, err
	}

	var raw []byte

	viewErr := db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return nil
		}

		value := bucket.Get([]byte(key.String()))
		if value != nil {
			raw = append([]byte(nil), value...)
		}

		return nil
	})
	if viewErr != nil {
		return nil, false, fmt.Errorf("%w: read %s: %w", ErrCacheIO, key.RepositoryID, viewErr)
	}

	if raw == nil {
		return nil, false, nil
	}

	var snap Snapshot

	decodeErr := s.codec.Decode(raw, &snap)
	if decodeErr != nil {
		// A corrupt entry is treated as a miss; the recomputed snapshot
		// will overwrite it.
		return nil, false, nil
	}

	return &snap, true, nil
}

// Put stores the snapshot under key. A concurrent writer racing on the same
// key is harmless: snapshots for a fixed key are deterministic.
func (s *Store) Put(key Key, snap *Snapshot) error {
	db, err := s.open(key.RepositoryID)
	if err != nil {
		return err
	}

	encoded, err := s.codec.Encode(snap)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrCacheIO, key.CommitHash, err)
	}

	updateErr := db.Update(func(tx *bbolt.Tx) error {
		bucket, bucketErr := tx.CreateBucketIfNotExists(bucketName)
		if bucketErr != nil {
			return bucketErr
		}

		return bucket.Put([]byte(key.String()), encoded)
	})
	if updateErr != nil {
		return fmt.Errorf("%w: write %s: %w", ErrCacheIO, key.RepositoryID, updateErr)
	}

	return nil
}

// Clear removes all cached snapshots for all repositories. Idempotent on an
// already-empty cache.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, db := range s.dbs {
		_ = db.Close()
		delete(s.dbs, id)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("%w: list cache dir: %w", ErrCacheIO, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}

		removeErr := os.Remove(filepath.Join(s.dir, entry.Name()))
		if removeErr != nil {
			return fmt.Errorf("%w: remove %s: %w", ErrCacheIO, entry.Name(), removeErr)
		}
	}

	return nil
}

// Close releases all open database handles.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error

	for id, db := range s.dbs {
		err := db.Close()
		if err != nil && firstErr == nil {
			firstErr = err
		}

		delete(s.dbs, id)
	}

	return firstErr
}

func (s *Store) open(repositoryID string) (*bbolt.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.dbs[repositoryID]; ok {
		return db, nil
	}

	path := filepath.Join(s.dir, sanitizeID(repositoryID)+".db")

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrCacheIO, path, err)
	}

	s.dbs[repositoryID] = db

	return db, nil
}

// sanitizeID maps a repository id to a safe file name.
func sanitizeID(id string) string {
	var sb strings.Builder

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}

	if sb.Len() == 0 {
		return "repo"
	}

	return sb.String()
}

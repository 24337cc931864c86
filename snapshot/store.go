package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yairfalse/vigil/types"
	"go.etcd.io/bbolt"
)

// Bucket names in bbolt
var (
	bucketSnapshots = []byte("snapshots")
	bucketMeta      = []byte("meta")
)

var keyCurrentRev = []byte("current_rev")

// ErrNoSnapshots is returned when the store holds no revisions yet.
var ErrNoSnapshots = errors.New("no snapshots recorded")

// Store keeps every fetched snapshot under a monotonically increasing
// revision, so audits can run against the latest capture or replay an
// older one. Snapshots are written once and never updated in place.
type Store struct {
	mu sync.RWMutex

	db         *bbolt.DB
	currentRev int64
	dir        string
}

// Open creates or opens the snapshot store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dir, "vigil.db"), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketSnapshots, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{db: db, dir: dir}
	store.loadRevision()

	return store, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records a snapshot under the next revision and returns it.
func (s *Store) Append(snap *types.Snapshot) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev := s.currentRev + 1

	err := s.db.Update(func(tx *bbolt.Tx) error {
		value, err := json.Marshal(snap)
		if err != nil {
			return err
		}

		if err := tx.Bucket(bucketSnapshots).Put(makeRevKey(rev), value); err != nil {
			return err
		}

		return tx.Bucket(bucketMeta).Put(keyCurrentRev, makeRevKey(rev))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append snapshot: %w", err)
	}

	s.currentRev = rev
	return rev, nil
}

// Get returns the snapshot stored at a revision.
func (s *Store) Get(rev int64) (*types.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap *types.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(bucketSnapshots).Get(makeRevKey(rev))
		if value == nil {
			return fmt.Errorf("revision %d: %w", rev, ErrNoSnapshots)
		}

		snap = &types.Snapshot{}
		return json.Unmarshal(value, snap)
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// Latest returns the most recent snapshot and its revision.
func (s *Store) Latest() (*types.Snapshot, int64, error) {
	s.mu.RLock()
	rev := s.currentRev
	s.mu.RUnlock()

	if rev == 0 {
		return nil, 0, ErrNoSnapshots
	}

	snap, err := s.Get(rev)
	if err != nil {
		return nil, 0, err
	}
	return snap, rev, nil
}

// CurrentRevision returns the latest revision number, 0 when empty.
func (s *Store) CurrentRevision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentRev
}

// Revisions lists every stored revision in ascending order.
func (s *Store) Revisions() ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var revs []int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshots).ForEach(func(k, _ []byte) error {
			revs = append(revs, int64(binary.BigEndian.Uint64(k)))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return revs, nil
}

// loadRevision restores the revision counter from disk.
func (s *Store) loadRevision() {
	_ = s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(bucketMeta).Get(keyCurrentRev)
		if len(value) == 8 {
			s.currentRev = int64(binary.BigEndian.Uint64(value))
		}
		return nil
	})
}

// makeRevKey builds the 8-byte big-endian key so bbolt iterates
// revisions in order.
func makeRevKey(rev int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(rev))
	return key
}

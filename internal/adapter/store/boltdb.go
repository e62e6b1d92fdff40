package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"

	"cultura/internal/adapter/memstore"
	"cultura/internal/port"
)

var (
	bucketChunks = []byte("chunks")
	bucketMeta   = []byte("meta")
	keyIndexMeta = []byte("index_meta")
)

// DefaultLockTimeout bounds how long Open waits for the file lock.
const DefaultLockTimeout = 5 * time.Second

// ErrReadOnly is returned by Replace on an index opened read-only.
var ErrReadOnly = errors.New("index opened read-only")

// Options controls how the index file is opened. Read-only handles share
// the file lock, so any number of processes can search concurrently; a
// writable handle holds it exclusively.
type Options struct {
	ReadOnly bool
	// LockTimeout bounds the wait for the file lock. Zero selects
	// DefaultLockTimeout.
	LockTimeout time.Duration
}

// BoltVectorIndex persists the knowledge index in a BoltDB file and serves
// searches from an in-memory snapshot loaded on open.
type BoltVectorIndex struct {
	db       *bbolt.DB
	readOnly bool

	// writeMu serializes Replace; searches only load snap.
	writeMu sync.Mutex
	snap    atomic.Pointer[memstore.Snapshot]
}

type storedChunk struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Culture  string    `json:"culture"`
	Category string    `json:"category"`
	Vector   []float32 `json:"v"`
}

// Open opens the index file at path. A writable open creates the file when
// it is missing; a read-only open requires it to exist. Waiting longer than
// the lock timeout returns an error wrapping bbolt.ErrTimeout.
func Open(path string, opts Options) (*BoltVectorIndex, error) {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if opts.ReadOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to open bolt db: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		ReadOnly: opts.ReadOnly,
		Timeout:  opts.LockTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	if !opts.ReadOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			for _, b := range [][]byte{bucketChunks, bucketMeta} {
				if _, err := tx.CreateBucketIfNotExists(b); err != nil {
					return fmt.Errorf("failed to create bucket %s: %w", b, err)
				}
			}
			return nil
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	idx := &BoltVectorIndex{db: db, readOnly: opts.ReadOnly}
	if err := idx.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
	return idx, nil
}

// load reads every chunk into a fresh snapshot.
func (s *BoltVectorIndex) load() error {
	var (
		items []port.VectorItem
		meta  port.IndexMeta
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketMeta); b != nil {
			if data := b.Get(keyIndexMeta); data != nil {
				if err := json.Unmarshal(data, &meta); err != nil {
					return fmt.Errorf("corrupt index metadata: %w", err)
				}
			}
		}

		chunks := tx.Bucket(bucketChunks)
		if chunks == nil {
			return nil
		}
		return chunks.ForEach(func(k, v []byte) error {
			var stored storedChunk
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // Skip corrupted entries
			}
			if len(stored.Vector) != meta.Dimension {
				return nil
			}
			items = append(items, port.VectorItem{
				Chunk:  stored.chunk(int(binary.BigEndian.Uint64(k))),
				Vector: stored.Vector,
			})
			return nil
		})
	})
	if err != nil {
		return err
	}

	snap, err := memstore.NewSnapshot(items, meta)
	if err != nil {
		return err
	}
	s.snap.Store(snap)
	return nil
}

func ordinalKey(ordinal int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(ordinal))
	return key
}

func (s *BoltVectorIndex) Close() error {
	return s.db.Close()
}

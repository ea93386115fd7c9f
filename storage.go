package rdb

import "errors"

// Every table owns a top-level bucket ("t:" + name) holding two nested
// buckets: dataBucket maps big-endian row keys to encoded rows, and
// metaBucket holds counters such as the next row key. The catalog is a
// top-level bucket of its own.
//
// Two backends implement this layout: Bolt for files and memStorage for
// OpenMemory.

var ErrBucketNotFound = errors.New("bucket not found")

type storage interface {
	// BeginTx blocks while another write transaction is open.
	BeginTx(writable bool) (storageTx, error)
	Close() error
}

type storageTx interface {
	Writable() bool

	// Bucket looks up a top-level bucket (sub == "") or one nested in it,
	// returning nil when either is missing.
	Bucket(name, sub string) storageBucket

	// CreateBucket is idempotent and creates the top-level bucket as needed.
	CreateBucket(name, sub string) (storageBucket, error)

	// DeleteBucket drops a nested bucket; top-level buckets are never dropped.
	DeleteBucket(name, sub string) error

	Commit() error
	Rollback() error // no-op after Commit or a previous Rollback

	// Size is the file size for Bolt and 0 in memory.
	Size() int64
}

// storageBucket keeps keys in byte order. Slices it returns belong to the
// transaction.
type storageBucket interface {
	Get(key []byte) []byte
	Put(key, value []byte) error
	Delete(key []byte) error
	Cursor() storageCursor
	Stats() bucketStats
}

// bucketStats feeds TableStats. The memory backend counts raw key and value
// bytes and leaves BranchAlloc at zero.
type bucketStats struct {
	KeyN        int
	LeafInuse   int64
	LeafAlloc   int64
	BranchAlloc int64
}

func (s bucketStats) TotalAlloc() int64 { return s.BranchAlloc + s.LeafAlloc }

// storageCursor matches *bbolt.Cursor, minus Delete and Bucket.
type storageCursor interface {
	First() (key, value []byte)
	Last() (key, value []byte)
	Seek(seek []byte) (key, value []byte) // first key >= seek
	Next() (key, value []byte)
	Prev() (key, value []byte)
}

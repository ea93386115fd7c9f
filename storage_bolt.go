package rdb

import (
	"errors"
	"unsafe"

	"go.etcd.io/bbolt"
)

type boltStorage struct {
	bdb *bbolt.DB
}

func newBoltStorage(bdb *bbolt.DB) storage {
	return boltStorage{bdb}
}

func (s boltStorage) BeginTx(writable bool) (storageTx, error) {
	btx, err := s.bdb.Begin(writable)
	if err != nil {
		return nil, err
	}
	return boltTx{btx}, nil
}

func (s boltStorage) Close() error { return s.bdb.Close() }

type boltTx struct {
	*bbolt.Tx
}

// lookup returns the top-level bucket and, if sub is set, the nested one.
func (tx boltTx) lookup(name, sub string) (root, leaf *bbolt.Bucket) {
	root = tx.Tx.Bucket(unsafeBytesFromString(name))
	if root == nil || sub == "" {
		return root, root
	}
	return root, root.Bucket(unsafeBytesFromString(sub))
}

func (tx boltTx) Bucket(name, sub string) storageBucket {
	if _, leaf := tx.lookup(name, sub); leaf != nil {
		return boltBucket{leaf}
	}
	return nil
}

func (tx boltTx) CreateBucket(name, sub string) (storageBucket, error) {
	b, err := tx.Tx.CreateBucketIfNotExists([]byte(name))
	if err == nil && sub != "" {
		b, err = b.CreateBucketIfNotExists([]byte(sub))
	}
	if err != nil {
		return nil, err
	}
	return boltBucket{b}, nil
}

func (tx boltTx) DeleteBucket(name, sub string) error {
	root, _ := tx.lookup(name, "")
	if root == nil || sub == "" {
		return ErrBucketNotFound
	}
	err := root.DeleteBucket(unsafeBytesFromString(sub))
	if errors.Is(err, bbolt.ErrBucketNotFound) {
		return ErrBucketNotFound
	}
	return err
}

func (tx boltTx) Rollback() error {
	if err := tx.Tx.Rollback(); !errors.Is(err, bbolt.ErrTxClosed) {
		return err
	}
	return nil
}

type boltBucket struct {
	*bbolt.Bucket
}

func (b boltBucket) Cursor() storageCursor { return b.Bucket.Cursor() }

func (b boltBucket) Stats() bucketStats {
	s := b.Bucket.Stats()
	// small buckets are stored inline in their parent's page
	inline := int64(s.InlineBucketInuse)
	return bucketStats{
		KeyN:        s.KeyN,
		LeafInuse:   int64(s.LeafInuse) + inline,
		LeafAlloc:   int64(s.LeafAlloc) + inline,
		BranchAlloc: int64(s.BranchAlloc),
	}
}

// unsafeBytesFromString is only for lookups: Bolt retains the keys passed to
// CreateBucket but not those passed to Bucket.
func unsafeBytesFromString(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

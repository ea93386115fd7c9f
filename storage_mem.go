package rdb

import (
	"bytes"
	"errors"
	"maps"
	"slices"
	"sync"
)

var (
	errStorageClosed = errors.New("storage closed")
	errTxNotWritable = errors.New("tx not writable")
)

// memStorage keeps committed buckets in an immutable map. Read transactions
// share it; a write transaction works on a shallow copy and clones each
// bucket the first time it modifies it, so committed buckets are never
// mutated in place.
type memStorage struct {
	mu         sync.Mutex
	writerDone *sync.Cond
	committed  map[string]*memBucket
	writing    bool
	closed     bool
}

type memBucket struct {
	items []memItem
}

type memItem struct {
	key, value []byte
}

func newMemStorage() storage {
	s := &memStorage{committed: make(map[string]*memBucket)}
	s.writerDone = sync.NewCond(&s.mu)
	return s
}

func (s *memStorage) BeginTx(writable bool) (storageTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for writable && s.writing && !s.closed {
		s.writerDone.Wait()
	}
	if s.closed {
		return nil, errStorageClosed
	}

	tx := &memTx{store: s, writable: writable, buckets: s.committed}
	if writable {
		s.writing = true
		tx.buckets = maps.Clone(s.committed)
		tx.owned = make(map[*memBucket]bool)
	}
	return tx, nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.committed = nil
	s.writerDone.Broadcast()
	return nil
}

type memTx struct {
	store    *memStorage
	writable bool
	done     bool
	buckets  map[string]*memBucket
	owned    map[*memBucket]bool
}

func memBucketKey(name, sub string) string {
	if sub == "" {
		return name
	}
	return name + "\x00" + sub
}

func (tx *memTx) Writable() bool { return tx.writable }

func (tx *memTx) mustBeOpen() {
	if tx.done {
		panic("rdb: memory transaction is closed")
	}
}

// mutable returns a bucket this transaction may modify.
func (tx *memTx) mutable(key string) *memBucket {
	b := tx.buckets[key]
	if b == nil || tx.owned[b] {
		return b
	}
	b = &memBucket{items: slices.Clone(b.items)}
	tx.buckets[key] = b
	tx.owned[b] = true
	return b
}

func (tx *memTx) Bucket(name, sub string) storageBucket {
	tx.mustBeOpen()
	key := memBucketKey(name, sub)
	if tx.buckets[key] == nil {
		return nil
	}
	return memBucketHandle{tx: tx, key: key}
}

func (tx *memTx) CreateBucket(name, sub string) (storageBucket, error) {
	tx.mustBeOpen()
	if !tx.writable {
		return nil, errTxNotWritable
	}
	for _, key := range []string{memBucketKey(name, ""), memBucketKey(name, sub)} {
		if tx.buckets[key] == nil {
			b := &memBucket{}
			tx.buckets[key] = b
			tx.owned[b] = true
		}
	}
	return memBucketHandle{tx: tx, key: memBucketKey(name, sub)}, nil
}

func (tx *memTx) DeleteBucket(name, sub string) error {
	tx.mustBeOpen()
	if !tx.writable {
		return errTxNotWritable
	}
	key := memBucketKey(name, sub)
	if sub == "" || tx.buckets[key] == nil {
		return ErrBucketNotFound
	}
	delete(tx.buckets, key)
	return nil
}

func (tx *memTx) Commit() error {
	if tx.done {
		return nil
	}
	if !tx.writable {
		return errTxNotWritable
	}
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	defer tx.finishLocked()
	if s.closed {
		return errStorageClosed
	}
	s.committed = tx.buckets
	return nil
}

func (tx *memTx) Rollback() error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.finishLocked()
	return nil
}

func (tx *memTx) finishLocked() {
	if tx.done {
		return
	}
	tx.done = true
	if tx.writable {
		tx.store.writing = false
		tx.store.writerDone.Broadcast()
	}
}

func (tx *memTx) Size() int64 { return 0 }

// memBucketHandle resolves its bucket on every call, because the first write
// replaces a shared bucket with the transaction's own copy.
type memBucketHandle struct {
	tx  *memTx
	key string
}

func (h memBucketHandle) items() []memItem {
	return h.tx.buckets[h.key].items
}

func search(items []memItem, key []byte) (int, bool) {
	return slices.BinarySearchFunc(items, key, func(it memItem, k []byte) int {
		return bytes.Compare(it.key, k)
	})
}

func (h memBucketHandle) Get(key []byte) []byte {
	items := h.items()
	if i, ok := search(items, key); ok {
		return items[i].value
	}
	return nil
}

func (h memBucketHandle) Put(key, value []byte) error {
	if !h.tx.writable {
		return errTxNotWritable
	}
	b := h.tx.mutable(h.key)
	it := memItem{bytes.Clone(key), bytes.Clone(value)}
	if i, ok := search(b.items, key); ok {
		b.items[i] = it
	} else {
		b.items = slices.Insert(b.items, i, it)
	}
	return nil
}

func (h memBucketHandle) Delete(key []byte) error {
	if !h.tx.writable {
		return errTxNotWritable
	}
	if _, ok := search(h.items(), key); !ok {
		return nil
	}
	b := h.tx.mutable(h.key)
	i, _ := search(b.items, key)
	b.items = slices.Delete(b.items, i, i+1)
	return nil
}

func (h memBucketHandle) Cursor() storageCursor {
	return &memCursor{items: h.items(), pos: -1}
}

func (h memBucketHandle) Stats() bucketStats {
	items := h.items()
	var size int64
	for _, it := range items {
		size += int64(len(it.key) + len(it.value))
	}
	return bucketStats{KeyN: len(items), LeafInuse: size, LeafAlloc: size}
}

// memCursor iterates over the items as of its creation.
type memCursor struct {
	items []memItem
	pos   int
}

func (c *memCursor) at(pos int) ([]byte, []byte) {
	c.pos = pos
	if pos < 0 || pos >= len(c.items) {
		return nil, nil
	}
	return c.items[pos].key, c.items[pos].value
}

func (c *memCursor) First() ([]byte, []byte) {
	return c.at(0)
}

func (c *memCursor) Last() ([]byte, []byte) {
	if len(c.items) == 0 {
		return c.at(0)
	}
	return c.at(len(c.items) - 1)
}

func (c *memCursor) Seek(seek []byte) ([]byte, []byte) {
	i, _ := search(c.items, seek)
	return c.at(i)
}

func (c *memCursor) Next() ([]byte, []byte) {
	if c.pos < 0 {
		return c.First()
	}
	return c.at(min(c.pos+1, len(c.items)))
}

func (c *memCursor) Prev() ([]byte, []byte) {
	if c.pos <= 0 {
		c.pos = -1
		return nil, nil
	}
	return c.at(c.pos - 1)
}

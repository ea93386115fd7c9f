package rdb

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"
)

type DB struct {
	store   storage
	schema  *Schema
	logger  *slog.Logger
	verbose bool

	SessionCount atomic.Int64
	ReadCount    atomic.Uint64
	WriteCount   atomic.Uint64
}

type Options struct {
	Logger    *slog.Logger
	Verbose   bool
	IsTesting bool
	MmapSize  int
	Timeout   time.Duration
}

// Open opens (creating if needed) a Bolt-backed database at path.
//
// With a non-nil schema, missing tables are created and existing ones must
// have the same columns. With a nil schema, the schema is loaded from the file.
func Open(path string, schema *Schema, opt Options) (*DB, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.Timeout != 0 {
		bopt.Timeout = opt.Timeout
	}
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 64
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, fmt.Errorf("rdb: %w", err)
	}
	db, err := open(newBoltStorage(bdb), schema, opt)
	if err != nil {
		bdb.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory returns a database that lives in memory only.
func OpenMemory(schema *Schema, opt Options) (*DB, error) {
	if schema == nil {
		return nil, fmt.Errorf("rdb: in-memory database requires a schema")
	}
	return open(newMemStorage(), schema, opt)
}

func open(store storage, schema *Schema, opt Options) (*DB, error) {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	db := &DB{
		store:   store,
		schema:  schema,
		logger:  logger,
		verbose: opt.Verbose,
	}
	var err error
	if schema == nil {
		db.schema, err = loadCatalog(store)
	} else {
		err = prepareCatalog(store, schema)
	}
	if err != nil {
		return nil, fmt.Errorf("rdb: %w", err)
	}
	return db, nil
}

func (db *DB) Schema() *Schema {
	return db.schema
}

func (db *DB) Close() error {
	return db.store.Close()
}

func (db *DB) beginTx(writable bool) (storageTx, error) {
	stx, err := db.store.BeginTx(writable)
	if err != nil {
		return nil, fmt.Errorf("rdb: begin: %w", err)
	}
	if writable {
		db.WriteCount.Add(1)
	} else {
		db.ReadCount.Add(1)
	}
	return stx, nil
}

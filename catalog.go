package rdb

import (
	"errors"
	"fmt"
	"slices"
)

// The catalog bucket maps table names to their msgpack-encoded column lists,
// so that a database can be reopened without the code that defined it.

var nextKeyKey = []byte("next")

// ErrNoCatalog is returned when opening a database file without a schema and
// the file has never been initialized.
var ErrNoCatalog = errors.New("no catalog found, not an rdb database")

func prepareCatalog(store storage, scm *Schema) error {
	stx, err := store.BeginTx(true)
	if err != nil {
		return err
	}
	defer stx.Rollback()

	catalog, err := stx.CreateBucket(catalogBucket, "")
	if err != nil {
		return err
	}
	for _, td := range scm.tables {
		if raw := catalog.Get([]byte(td.name)); raw != nil {
			cols, err := decodeColumns(raw)
			if err != nil {
				return tableErrf(td, nil, err, "catalog")
			}
			if !slices.Equal(cols, td.columns) {
				return tableErrf(td, nil, nil, "stored columns %v differ from schema %v", cols, td.columns)
			}
		} else if err := catalog.Put([]byte(td.name), encodeColumns(td.columns)); err != nil {
			return tableErrf(td, nil, err, "catalog")
		}
		if _, err := stx.CreateBucket(td.buck, dataBucket); err != nil {
			return tableErrf(td, nil, err, "creating data bucket")
		}
		if _, err := stx.CreateBucket(td.buck, metaBucket); err != nil {
			return tableErrf(td, nil, err, "creating meta bucket")
		}
	}
	return stx.Commit()
}

func loadCatalog(store storage) (*Schema, error) {
	stx, err := store.BeginTx(false)
	if err != nil {
		return nil, err
	}
	defer stx.Rollback()

	catalog := stx.Bucket(catalogBucket, "")
	if catalog == nil {
		return nil, ErrNoCatalog
	}
	scm := NewSchema()
	c := catalog.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		cols, err := decodeColumns(v)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", k, err)
		}
		if _, err := DefineTable(scm, string(k), cols...); err != nil {
			return nil, err
		}
	}
	return scm, nil
}

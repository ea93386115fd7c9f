package rdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andreyvit/rdb/results"
	"github.com/google/uuid"
)

var (
	ErrSessionClosed     = errors.New("rdb: session is closed")
	ErrAlreadyInWriteTxn = errors.New("rdb: already in a write transaction")
)

// Session is a long-lived view of the database owned by a single goroutine.
// Between transactions it holds a read snapshot; BeginWrite swaps the
// snapshot for a write transaction, and Commit or Rollback swap it back.
// Refresh advances the read snapshot to the latest committed state.
//
// Session implements results.Context: results created through a session may
// only be used with that same session.
type Session struct {
	id     uuid.UUID
	db     *DB
	stx    storageTx
	closed bool
	tables map[*TableDef]*Table
}

var _ results.Context = (*Session)(nil)

func (db *DB) Session() (*Session, error) {
	stx, err := db.beginTx(false)
	if err != nil {
		return nil, err
	}
	db.SessionCount.Add(1)
	return &Session{
		id:     uuid.New(),
		db:     db,
		stx:    stx,
		tables: make(map[*TableDef]*Table),
	}, nil
}

// ID implements results.Context.
func (s *Session) ID() string {
	return s.id.String()
}

// InWriteTransaction implements results.Context.
func (s *Session) InWriteTransaction() bool {
	return !s.closed && s.stx != nil && s.stx.Writable()
}

func (s *Session) DB() *DB {
	return s.db
}

func (s *Session) IsClosed() bool {
	return s.closed
}

func (s *Session) BeginWrite() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.stx.Writable() {
		return ErrAlreadyInWriteTxn
	}
	// Bolt may need to remap while opening a write transaction, which waits
	// for read transactions, including our own.
	ensure(s.stx.Rollback())
	s.stx = nil
	stx, err := s.db.beginTx(true)
	if err != nil {
		s.reopenRead()
		return err
	}
	s.stx = stx
	s.advance()
	s.debug("rdb: BEGIN")
	return nil
}

func (s *Session) Commit() error {
	if err := s.requireWrite("commit"); err != nil {
		return err
	}
	err := s.stx.Commit()
	s.stx = nil
	if err != nil {
		err = fmt.Errorf("rdb: commit: %w", err)
	}
	if rerr := s.reopenRead(); err == nil {
		err = rerr
	}
	s.debug("rdb: COMMIT")
	return err
}

func (s *Session) Rollback() error {
	if err := s.requireWrite("roll back"); err != nil {
		return err
	}
	ensure(s.stx.Rollback())
	s.stx = nil
	s.debug("rdb: ROLLBACK")
	return s.reopenRead()
}

// Write runs f in a write transaction, committing if f returns nil and
// rolling back otherwise.
func (s *Session) Write(f func() error) error {
	if err := s.BeginWrite(); err != nil {
		return err
	}
	if err := f(); err != nil {
		if s.InWriteTransaction() {
			ensure(s.Rollback())
		}
		return err
	}
	return s.Commit()
}

// Refresh makes changes committed by other sessions visible. It is a no-op
// inside a write transaction, which already sees the latest state.
func (s *Session) Refresh() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.stx.Writable() {
		return nil
	}
	ensure(s.stx.Rollback())
	s.stx = nil
	return s.reopenRead()
}

// Close ends the current transaction (rolling back uncommitted changes) and
// detaches all tables obtained from this session.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	var err error
	if s.stx != nil {
		err = s.stx.Rollback()
		s.stx = nil
	}
	s.closed = true
	for _, t := range s.tables {
		t.detach()
	}
	s.db.SessionCount.Add(-1)
	return err
}

func (s *Session) reopenRead() error {
	stx, err := s.db.beginTx(false)
	if err != nil {
		// without a transaction nothing can be read anymore
		s.closed = true
		for _, t := range s.tables {
			t.detach()
		}
		s.db.SessionCount.Add(-1)
		return err
	}
	s.stx = stx
	s.advance()
	return nil
}

// advance invalidates table snapshots after a transaction boundary.
func (s *Session) advance() {
	for _, t := range s.tables {
		t.invalidate()
	}
}

func (s *Session) requireWrite(op string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if !s.stx.Writable() {
		return &results.NotInTransactionError{Op: op}
	}
	return nil
}

// Table returns the session-bound accessor for td, which must belong to the
// database's schema.
func (s *Session) Table(td *TableDef) *Table {
	if td.schema != s.db.schema {
		panic(fmt.Errorf("table %s is not part of this database's schema", td.name))
	}
	t := s.tables[td]
	if t == nil {
		t = &Table{sess: s, def: td, attached: !s.closed}
		s.tables[td] = t
	}
	return t
}

func (s *Session) TableNamed(name string) (*Table, error) {
	td := s.db.schema.TableNamed(name)
	if td == nil {
		return nil, fmt.Errorf("rdb: no table named %q", name)
	}
	return s.Table(td), nil
}

// All returns lazy results over every row of t.
func (s *Session) All(t *Table) *results.Results {
	if t == nil {
		return results.New(s, nil)
	}
	return results.New(s, t)
}

// Where returns lazy results over the rows matching q, sorted by order.
// The results take ownership of q.
func (s *Session) Where(q *Query, order results.SortOrder) *results.Results {
	if q == nil {
		return results.NewQuery(s, nil, order)
	}
	return results.NewQuery(s, q, order)
}

func (s *Session) debug(msg string, attrs ...slog.Attr) {
	if s.db.verbose {
		attrs = append(attrs, slog.String("session", s.id.String()))
		s.db.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
	}
}

package rdb

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/andreyvit/rdb/results"
)

// Table is a session-bound accessor for one table. Rows are addressed by
// position (their ordinal in row key order) or by Row handles, which stay
// valid across transactions as long as the row exists.
//
// A Table keeps an in-memory snapshot of its rows, loaded on first access
// and dropped at every transaction boundary. Every mutation bumps the table's
// generation, which is how views know they need to re-sync.
type Table struct {
	sess     *Session
	def      *TableDef
	attached bool

	gen       uint64
	loaded    bool
	rows      []rowRecord // in key order
	positions map[uint64]int
}

type rowRecord struct {
	key  uint64
	vals []results.Value
}

var _ results.Table = (*Table)(nil)

func (t *Table) Def() *TableDef {
	return t.def
}

func (t *Table) Session() *Session {
	return t.sess
}

func (t *Table) Name() string {
	return t.def.name
}

func (t *Table) IsAttached() bool {
	return t.attached
}

func (t *Table) ColumnCount() int {
	return len(t.def.columns)
}

func (t *Table) ColumnName(column int) string {
	return t.def.columns[column].Name
}

func (t *Table) ColumnType(column int) results.ColumnType {
	return t.def.columns[column].Type
}

// Generation changes every time the table's contents may have changed.
func (t *Table) Generation() uint64 {
	return t.gen
}

func (t *Table) detach() {
	t.attached = false
	t.invalidate()
}

func (t *Table) invalidate() {
	t.gen++
	t.loaded = false
	t.rows = nil
	t.positions = nil
}

func (t *Table) mustBeAttached() {
	if !t.attached {
		panic(&results.DetachedSourceError{Table: t.def.name})
	}
}

func (t *Table) snapshot() []rowRecord {
	if !t.loaded {
		t.load()
	}
	return t.rows
}

func (t *Table) load() {
	t.mustBeAttached()
	data := nonNil(t.sess.stx.Bucket(t.def.buck, dataBucket), t.def.name+" data bucket")
	var rows []rowRecord
	positions := make(map[uint64]int)
	c := data.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		key, ok := decodeRowKey(k)
		if !ok {
			panic(tableErrf(t.def, k, nil, "invalid row key"))
		}
		vals, err := decodeRow(v, t.def.columns)
		if err != nil {
			panic(tableErrf(t.def, k, err, "cannot decode row"))
		}
		positions[key] = len(rows)
		rows = append(rows, rowRecord{key, vals})
	}
	t.rows, t.positions, t.loaded = rows, positions, true
	t.sess.debug("rdb: LOAD", slog.String("table", t.def.name), slog.Int("rows", len(rows)))
}

func (t *Table) position(key uint64) (int, bool) {
	t.snapshot()
	pos, ok := t.positions[key]
	return pos, ok
}

func (t *Table) record(key uint64) (rowRecord, bool) {
	pos, ok := t.position(key)
	if !ok {
		return rowRecord{}, false
	}
	return t.rows[pos], true
}

func (t *Table) Size() int {
	return len(t.snapshot())
}

// Row returns the row at position i. It panics if i is out of range.
func (t *Table) Row(i int) Row {
	rows := t.snapshot()
	return Row{t, rows[i].key}
}

// RowAt implements results.RowSet.
func (t *Table) RowAt(i int) results.Row {
	return t.Row(i)
}

// RowByKey returns the row with the given key, if it exists.
func (t *Table) RowByKey(key uint64) (Row, bool) {
	_, ok := t.position(key)
	return Row{t, key}, ok
}

// Rows returns handles to every row, in table order.
func (t *Table) Rows() []Row {
	rows := t.snapshot()
	result := make([]Row, len(rows))
	for i, rec := range rows {
		result[i] = Row{t, rec.key}
	}
	return result
}

func (t *Table) requireWrite(op string) error {
	if !t.attached {
		return &results.DetachedSourceError{Table: t.def.name}
	}
	if !t.sess.InWriteTransaction() {
		return &results.NotInTransactionError{Op: op + " " + t.def.name}
	}
	return nil
}

func (t *Table) convertRow(vals []any) ([]results.Value, error) {
	cols := t.def.columns
	if len(vals) != len(cols) {
		return nil, fmt.Errorf("%s: got %d values for %d columns", t.def.name, len(vals), len(cols))
	}
	converted := make([]results.Value, len(cols))
	for i, col := range cols {
		v, ok := convertValue(col.Type, vals[i])
		if !ok {
			return nil, &ColumnTypeError{Table: t.def.name, Column: col.Name, Expected: col.Type, Value: vals[i]}
		}
		converted[i] = v
	}
	return converted, nil
}

// Insert appends a row with one value per column.
func (t *Table) Insert(vals ...any) (Row, error) {
	if err := t.requireWrite("insert into"); err != nil {
		return Row{}, err
	}
	converted, err := t.convertRow(vals)
	if err != nil {
		return Row{}, err
	}

	meta := nonNil(t.sess.stx.Bucket(t.def.buck, metaBucket), t.def.name+" meta bucket")
	var key uint64 = 1
	if raw := meta.Get(nextKeyKey); raw != nil {
		key = binary.BigEndian.Uint64(raw)
	}
	if err := meta.Put(nextKeyKey, binary.BigEndian.AppendUint64(nil, key+1)); err != nil {
		return Row{}, tableErrf(t.def, nil, err, "allocating row key")
	}

	rows := t.snapshot()
	keyRaw := encodeRowKey(nil, key)
	if err := t.dataBucket().Put(keyRaw, encodeRow(nil, t.def.columns, converted)); err != nil {
		return Row{}, tableErrf(t.def, keyRaw, err, "insert")
	}
	// keys are allocated in increasing order, so new rows always go last
	t.positions[key] = len(rows)
	t.rows = append(rows, rowRecord{key, converted})
	t.gen++

	if t.sess.db.verbose {
		t.sess.debug("rdb: INSERT", slog.String("table", t.def.name), hexAttr("key", keyRaw), slog.Any("values", converted))
	}
	return Row{t, key}, nil
}

// Set changes a single column of an existing row.
func (t *Table) Set(row Row, column int, v any) error {
	if err := t.requireWrite("update"); err != nil {
		return err
	}
	if row.table != t {
		return &results.TableMismatchError{Expected: t.def.name, Actual: row.tableName()}
	}
	if column < 0 || column >= len(t.def.columns) {
		return &results.OutOfBoundsError{What: "column", Index: column, Size: len(t.def.columns)}
	}
	pos, ok := t.position(row.key)
	if !ok {
		return &results.InvalidRowError{Table: t.def.name}
	}
	col := t.def.columns[column]
	val, ok := convertValue(col.Type, v)
	if !ok {
		return &ColumnTypeError{Table: t.def.name, Column: col.Name, Expected: col.Type, Value: v}
	}

	vals := append([]results.Value(nil), t.rows[pos].vals...)
	vals[column] = val
	keyRaw := encodeRowKey(nil, row.key)
	if err := t.dataBucket().Put(keyRaw, encodeRow(nil, t.def.columns, vals)); err != nil {
		return tableErrf(t.def, keyRaw, err, "update")
	}
	t.rows[pos].vals = vals
	t.gen++

	if t.sess.db.verbose {
		t.sess.debug("rdb: SET", slog.String("table", t.def.name), hexAttr("key", keyRaw), slog.String("column", col.Name), slog.Any("value", val))
	}
	return nil
}

// Delete removes a row. Deleting an already deleted row is a no-op.
func (t *Table) Delete(row Row) error {
	if err := t.requireWrite("delete from"); err != nil {
		return err
	}
	if row.table != t {
		return &results.TableMismatchError{Expected: t.def.name, Actual: row.tableName()}
	}
	_, err := t.deleteKeys([]uint64{row.key})
	return err
}

// deleteKeys removes the given rows and returns how many existed.
func (t *Table) deleteKeys(keys []uint64) (int, error) {
	t.snapshot()
	data := t.dataBucket()
	doomed := make(map[uint64]bool, len(keys))
	var keyBuf []byte
	for _, key := range keys {
		if _, ok := t.positions[key]; !ok || doomed[key] {
			continue
		}
		keyBuf = encodeRowKey(keyBuf[:0], key)
		if err := data.Delete(keyBuf); err != nil {
			// storage now disagrees with the snapshot
			t.invalidate()
			return 0, tableErrf(t.def, keyBuf, err, "delete")
		}
		doomed[key] = true
	}
	if len(doomed) == 0 {
		return 0, nil
	}

	kept := t.rows[:0]
	for _, rec := range t.rows {
		if doomed[rec.key] {
			delete(t.positions, rec.key)
			continue
		}
		t.positions[rec.key] = len(kept)
		kept = append(kept, rec)
	}
	clear(t.rows[len(kept):])
	t.rows = kept
	t.gen++

	if t.sess.db.verbose {
		t.sess.debug("rdb: DELETE", slog.String("table", t.def.name), slog.Int("rows", len(doomed)))
	}
	return len(doomed), nil
}

// Clear deletes every row of the table.
func (t *Table) Clear() error {
	if err := t.requireWrite("clear"); err != nil {
		return err
	}
	stx := t.sess.stx
	if err := stx.DeleteBucket(t.def.buck, dataBucket); err != nil && err != ErrBucketNotFound {
		t.invalidate()
		return tableErrf(t.def, nil, err, "clear")
	}
	if _, err := stx.CreateBucket(t.def.buck, dataBucket); err != nil {
		t.invalidate()
		return tableErrf(t.def, nil, err, "clear")
	}
	n := len(t.rows)
	t.rows, t.positions, t.loaded = nil, make(map[uint64]int), true
	t.gen++
	t.sess.debug("rdb: CLEAR", slog.String("table", t.def.name), slog.Int("rows", n))
	return nil
}

func (t *Table) dataBucket() storageBucket {
	return nonNil(t.sess.stx.Bucket(t.def.buck, dataBucket), t.def.name+" data bucket")
}

// Where returns a query matching every row; add conditions to narrow it.
func (t *Table) Where() *Query {
	return &Query{table: t}
}

// MatchAll implements results.Table.
func (t *Table) MatchAll() results.Query {
	return t.Where()
}

// Aggregate implements results.RowSet.
func (t *Table) Aggregate(column int, op results.AggregateOp) (results.Value, bool) {
	rows := t.snapshot()
	red := newReducer(t.def.columns[column].Type)
	for _, rec := range rows {
		red.add(rec.vals[column])
	}
	return red.result(op)
}

package rdb

import (
	"fmt"
	"strings"
	"time"

	"github.com/andreyvit/rdb/results"
)

// Row is a handle to a single row, identified by its table and row key.
// The zero Row is invalid.
type Row struct {
	table *Table
	key   uint64
}

var _ results.Row = Row{}

func (r Row) IsValid() bool {
	if r.table == nil || !r.table.attached {
		return false
	}
	_, ok := r.table.position(r.key)
	return ok
}

// Table implements results.Row.
func (r Row) Table() results.Table {
	if r.table == nil {
		return nil
	}
	return r.table
}

// Accessor returns the table accessor the row was obtained from.
func (r Row) Accessor() *Table {
	return r.table
}

func (r Row) Key() uint64 {
	return r.key
}

// Index returns the row's position within its table, or -1 if the row no
// longer exists.
func (r Row) Index() int {
	if r.table == nil || !r.table.attached {
		return -1
	}
	pos, ok := r.table.position(r.key)
	if !ok {
		return -1
	}
	return pos
}

func (r Row) values() []results.Value {
	if r.table == nil {
		panic("rdb: zero Row")
	}
	rec, ok := r.table.record(r.key)
	if !ok {
		panic(&results.InvalidRowError{Table: r.table.def.name})
	}
	return rec.vals
}

// Value returns the value of the given column. It panics if the row has
// been deleted.
func (r Row) Value(column int) results.Value {
	return r.values()[column]
}

// Values returns a copy of all column values.
func (r Row) Values() []results.Value {
	return append([]results.Value(nil), r.values()...)
}

// Get returns the value of the named column.
func (r Row) Get(column string) results.Value {
	return r.Value(r.table.def.MustColumn(column))
}

func (r Row) Int(column string) int64      { return r.Get(column).Int() }
func (r Row) Bool(column string) bool      { return r.Get(column).Bool() }
func (r Row) Float(column string) float32  { return r.Get(column).Float() }
func (r Row) Double(column string) float64 { return r.Get(column).Double() }
func (r Row) Text(column string) string    { return r.Get(column).Text() }
func (r Row) Time(column string) time.Time { return r.Get(column).Time() }
func (r Row) Bytes(column string) []byte   { return r.Get(column).Bytes() }

func (r Row) tableName() string {
	if r.table == nil {
		return "<none>"
	}
	return r.table.def.name
}

func (r Row) Format(f fmt.State, verb rune) {
	if !r.IsValid() {
		fmt.Fprintf(f, "%s/%d(deleted)", r.tableName(), r.key)
		return
	}
	var buf strings.Builder
	buf.WriteString(r.tableName())
	fmt.Fprintf(&buf, "/%d{", r.key)
	for i, v := range r.values() {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(r.table.def.columns[i].Name)
		buf.WriteByte('=')
		buf.WriteString(v.String())
	}
	buf.WriteByte('}')
	f.Write([]byte(buf.String()))
}

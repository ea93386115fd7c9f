package rdb

import (
	"slices"

	"github.com/andreyvit/rdb/results"
)

// View is a materialized, optionally sorted list of rows of one table.
//
// A view built from a query re-runs the query when synced after the table
// changes; a view built from an explicit row list only drops deleted rows.
// Views never sync on their own: call Sync before reading if the table may
// have changed.
type View struct {
	table  *Table
	source *Query // nil for explicit row lists
	order  results.SortOrder
	keys   []uint64
	gen    uint64
}

var _ results.View = (*View)(nil)

// NewView returns a view over the given rows, in the given order. All rows
// must belong to t.
func (t *Table) NewView(rows []Row) *View {
	keys := make([]uint64, 0, len(rows))
	for _, row := range rows {
		if row.table != t {
			panic(&results.TableMismatchError{Expected: t.def.name, Actual: row.tableName()})
		}
		keys = append(keys, row.key)
	}
	v := &View{table: t, keys: keys}
	v.refresh()
	return v
}

func (v *View) Table() results.Table {
	return v.table
}

func (v *View) Accessor() *Table {
	return v.table
}

func (v *View) Size() int {
	return len(v.keys)
}

// Row returns the row at position i. It panics if i is out of range.
func (v *View) Row(i int) Row {
	return Row{v.table, v.keys[i]}
}

// RowAt implements results.RowSet.
func (v *View) RowAt(i int) results.Row {
	return v.Row(i)
}

func (v *View) Rows() []Row {
	rows := make([]Row, len(v.keys))
	for i, key := range v.keys {
		rows[i] = Row{v.table, key}
	}
	return rows
}

// SortOrder returns the order the view is kept in, or nil for table order.
func (v *View) SortOrder() results.SortOrder {
	return v.order.Clone()
}

// Sort reorders the view. The order is kept across syncs.
func (v *View) Sort(order results.SortOrder) {
	v.order = order.Clone()
	if v.order.IsEmpty() && v.source != nil {
		slices.Sort(v.keys)
		return
	}
	sortKeys(v.table, v.keys, v.order)
}

// Sync brings the view up to date if the table has changed since the view
// was last computed.
func (v *View) Sync() {
	if v.gen == v.table.gen {
		return
	}
	v.refresh()
}

// IsStale reports whether the table has changed since the last sync.
func (v *View) IsStale() bool {
	return v.gen != v.table.gen
}

func (v *View) refresh() {
	if v.source != nil {
		v.keys = v.source.matchingKeys()
	} else {
		v.table.snapshot()
		v.keys = slices.DeleteFunc(v.keys, func(key uint64) bool {
			_, ok := v.table.positions[key]
			return !ok
		})
	}
	sortKeys(v.table, v.keys, v.order)
	v.gen = v.table.gen
}

// FindBySourceIndex returns the view position of the row at table position
// pos, or results.NotFound.
func (v *View) FindBySourceIndex(pos int) int {
	rows := v.table.snapshot()
	if pos < 0 || pos >= len(rows) {
		return results.NotFound
	}
	if i := slices.Index(v.keys, rows[pos].key); i >= 0 {
		return i
	}
	return results.NotFound
}

// Clear deletes every row of the view from the table.
func (v *View) Clear() error {
	if err := v.table.requireWrite("clear view of"); err != nil {
		return err
	}
	if _, err := v.table.deleteKeys(v.keys); err != nil {
		return err
	}
	v.keys = nil
	v.gen = v.table.gen
	return nil
}

// Where returns a query matching exactly the rows currently in the view.
func (v *View) Where() *Query {
	var q *Query
	if v.source != nil {
		q = v.source.Clone()
	} else {
		q = v.table.Where()
	}
	return q.restrictTo(v.keys)
}

// Query implements results.View.
func (v *View) Query() results.Query {
	return v.Where()
}

// Aggregate implements results.RowSet.
func (v *View) Aggregate(column int, op results.AggregateOp) (results.Value, bool) {
	red := newReducer(v.table.def.columns[column].Type)
	for _, key := range v.keys {
		if rec, ok := v.table.record(key); ok {
			red.add(rec.vals[column])
		}
	}
	return red.result(op)
}

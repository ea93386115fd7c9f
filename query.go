package rdb

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/andreyvit/rdb/results"
)

// Query is a predicate over the rows of one table: a conjunction of
// conditions added by the builder methods. A Query with no conditions
// matches every row.
//
// Builder methods modify the query in place and return it for chaining; they
// panic on unknown columns and mistyped values. Use Cond to build queries
// from untrusted input.
type Query struct {
	table *Table
	conds []predicate
}

var _ results.Query = (*Query)(nil)

type predicate interface {
	match(rec *rowRecord) bool
	describe(buf *strings.Builder, td *TableDef)
}

type compareOp int

const (
	opEqual compareOp = iota
	opNotEqual
	opGreater
	opGreaterEqual
	opLess
	opLessEqual
	opBeginsWith
	opEndsWith
	opContains
)

var compareOpSymbols = [...]string{
	opEqual:        "==",
	opNotEqual:     "!=",
	opGreater:      ">",
	opGreaterEqual: ">=",
	opLess:         "<",
	opLessEqual:    "<=",
	opBeginsWith:   "BEGINSWITH",
	opEndsWith:     "ENDSWITH",
	opContains:     "CONTAINS",
}

// compareOpNames are the operator names accepted by Cond.
var compareOpNames = map[string]compareOp{
	"eq":       opEqual,
	"ne":       opNotEqual,
	"gt":       opGreater,
	"ge":       opGreaterEqual,
	"lt":       opLess,
	"le":       opLessEqual,
	"prefix":   opBeginsWith,
	"suffix":   opEndsWith,
	"contains": opContains,
}

func (op compareOp) isText() bool {
	return op >= opBeginsWith
}

type compareCond struct {
	column int
	op     compareOp
	value  results.Value
}

func (c compareCond) match(rec *rowRecord) bool {
	v := rec.vals[c.column]
	switch c.op {
	case opEqual:
		return compareValues(v, c.value) == 0
	case opNotEqual:
		return compareValues(v, c.value) != 0
	case opGreater:
		return compareValues(v, c.value) > 0
	case opGreaterEqual:
		return compareValues(v, c.value) >= 0
	case opLess:
		return compareValues(v, c.value) < 0
	case opLessEqual:
		return compareValues(v, c.value) <= 0
	case opBeginsWith:
		return strings.HasPrefix(v.Text(), c.value.Text())
	case opEndsWith:
		return strings.HasSuffix(v.Text(), c.value.Text())
	case opContains:
		return strings.Contains(v.Text(), c.value.Text())
	default:
		panic("unreachable")
	}
}

func (c compareCond) describe(buf *strings.Builder, td *TableDef) {
	fmt.Fprintf(buf, "%s %s %s", td.columns[c.column].Name, compareOpSymbols[c.op], quoteValue(c.value))
}

type groupCond struct {
	or    bool
	conds []predicate
}

func (g groupCond) match(rec *rowRecord) bool {
	for _, c := range g.conds {
		if c.match(rec) == g.or {
			return g.or
		}
	}
	return !g.or
}

func (g groupCond) describe(buf *strings.Builder, td *TableDef) {
	sep := " AND "
	if g.or {
		sep = " OR "
	}
	buf.WriteByte('(')
	describeAll(buf, td, g.conds, sep)
	buf.WriteByte(')')
}

// keySetCond restricts a query to an explicit set of rows.
type keySetCond struct {
	keys map[uint64]struct{}
}

func (c keySetCond) match(rec *rowRecord) bool {
	_, ok := c.keys[rec.key]
	return ok
}

func (c keySetCond) describe(buf *strings.Builder, td *TableDef) {
	fmt.Fprintf(buf, "ROW IN <%d rows>", len(c.keys))
}

func describeAll(buf *strings.Builder, td *TableDef, conds []predicate, sep string) {
	for i, c := range conds {
		if i > 0 {
			buf.WriteString(sep)
		}
		c.describe(buf, td)
	}
}

func quoteValue(v results.Value) string {
	switch v.Kind() {
	case results.TypeString, results.TypeDateTime:
		return fmt.Sprintf("%q", v.String())
	default:
		return v.String()
	}
}

func (q *Query) Equal(column int, v any) *Query        { return q.add(column, opEqual, v) }
func (q *Query) NotEqual(column int, v any) *Query     { return q.add(column, opNotEqual, v) }
func (q *Query) Greater(column int, v any) *Query      { return q.add(column, opGreater, v) }
func (q *Query) GreaterEqual(column int, v any) *Query { return q.add(column, opGreaterEqual, v) }
func (q *Query) Less(column int, v any) *Query         { return q.add(column, opLess, v) }
func (q *Query) LessEqual(column int, v any) *Query    { return q.add(column, opLessEqual, v) }
func (q *Query) BeginsWith(column int, s string) *Query {
	return q.add(column, opBeginsWith, s)
}
func (q *Query) EndsWith(column int, s string) *Query { return q.add(column, opEndsWith, s) }
func (q *Query) Contains(column int, s string) *Query { return q.add(column, opContains, s) }

// Between matches lower <= value <= upper.
func (q *Query) Between(column int, lower, upper any) *Query {
	return q.add(column, opGreaterEqual, lower).add(column, opLessEqual, upper)
}

func (q *Query) add(column int, op compareOp, v any) *Query {
	c, err := q.cond(column, op, v)
	if err != nil {
		panic(err)
	}
	q.conds = append(q.conds, c)
	return q
}

func (q *Query) cond(column int, op compareOp, v any) (predicate, error) {
	td := q.table.def
	if column < 0 || column >= len(td.columns) {
		return nil, &results.OutOfBoundsError{What: "column", Index: column, Size: len(td.columns)}
	}
	col := td.columns[column]
	if op.isText() && col.Type != results.TypeString {
		return nil, fmt.Errorf("%s.%s: %s requires a string column, got %v", td.name, col.Name, compareOpSymbols[op], col.Type)
	}
	val, ok := convertValue(col.Type, v)
	if !ok {
		return nil, &ColumnTypeError{Table: td.name, Column: col.Name, Expected: col.Type, Value: v}
	}
	return compareCond{column, op, val}, nil
}

// Cond adds a condition given by column name, operator name (eq, ne, gt, ge,
// lt, le, prefix, suffix, contains) and value. A string value is parsed
// according to the column type.
func (q *Query) Cond(column, op string, v any) error {
	td := q.table.def
	ci := td.ColumnIndex(column)
	if ci < 0 {
		return fmt.Errorf("%s: no column %s", td.name, column)
	}
	cop, ok := compareOpNames[op]
	if !ok {
		return fmt.Errorf("unknown operator %q", op)
	}
	if s, ok := v.(string); ok && td.columns[ci].Type != results.TypeString {
		pv, err := ParseValue(td.columns[ci].Type, s)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", td.name, td.columns[ci].Name, err)
		}
		v = pv
	}
	c, err := q.cond(ci, cop, v)
	if err != nil {
		return err
	}
	q.conds = append(q.conds, c)
	return nil
}

// Or adds a condition that holds when any of the alternatives matches. The
// alternatives must be queries on the same table.
func (q *Query) Or(alts ...*Query) *Query {
	g := groupCond{or: true}
	for _, alt := range alts {
		if alt.table != q.table {
			panic(&results.TableMismatchError{Expected: q.table.def.name, Actual: alt.table.def.name})
		}
		g.conds = append(g.conds, groupCond{conds: slices.Clone(alt.conds)})
	}
	q.conds = append(q.conds, g)
	return q
}

// restrictTo limits the query to the given rows.
func (q *Query) restrictTo(keys []uint64) *Query {
	set := make(map[uint64]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	q.conds = append(q.conds, keySetCond{set})
	return q
}

func (q *Query) matches(rec *rowRecord) bool {
	for _, c := range q.conds {
		if !c.match(rec) {
			return false
		}
	}
	return true
}

// Table implements results.Query.
func (q *Query) Table() results.Table {
	if q.table == nil {
		return nil
	}
	return q.table
}

func (q *Query) Accessor() *Table {
	return q.table
}

func (q *Query) Count() int {
	return q.CountRange(0, q.table.Size())
}

// CountRange counts matching rows among table positions [start, end).
func (q *Query) CountRange(start, end int) int {
	rows := q.table.snapshot()
	start = max(start, 0)
	end = min(end, len(rows))
	n := 0
	for i := start; i < end; i++ {
		if q.matches(&rows[i]) {
			n++
		}
	}
	return n
}

func (q *Query) matchingKeys() []uint64 {
	var keys []uint64
	rows := q.table.snapshot()
	for i := range rows {
		if q.matches(&rows[i]) {
			keys = append(keys, rows[i].key)
		}
	}
	return keys
}

// Find returns the first matching row.
func (q *Query) Find() (Row, bool) {
	rows := q.table.snapshot()
	for i := range rows {
		if q.matches(&rows[i]) {
			return Row{q.table, rows[i].key}, true
		}
	}
	return Row{}, false
}

// Materialize evaluates the query into a view that re-runs the query
// whenever it is synced after the table changes.
func (q *Query) Materialize() *View {
	v := &View{
		table:  q.table,
		source: q.Clone(),
	}
	v.refresh()
	if q.table.sess.db.verbose {
		q.table.sess.debug("rdb: FIND_ALL", slog.String("table", q.table.def.name), slog.String("query", q.String()), slog.Int("rows", len(v.keys)))
	}
	return v
}

// FindAll implements results.Query.
func (q *Query) FindAll() results.View {
	return q.Materialize()
}

// Remove implements results.Query.
func (q *Query) Remove() (int, error) {
	if err := q.table.requireWrite("remove from"); err != nil {
		return 0, err
	}
	n, err := q.table.deleteKeys(q.matchingKeys())
	if err != nil {
		return n, err
	}
	if q.table.sess.db.verbose {
		q.table.sess.debug("rdb: REMOVE", slog.String("table", q.table.def.name), slog.String("query", q.String()), slog.Int("rows", n))
	}
	return n, nil
}

// And implements results.Query. other must be a *Query on the same table.
func (q *Query) And(other results.Query) results.Query {
	o, ok := other.(*Query)
	if !ok {
		actual := "<none>"
		if other != nil && other.Table() != nil {
			actual = other.Table().Name()
		}
		panic(&results.TableMismatchError{Expected: q.table.def.name, Actual: actual})
	}
	return q.AndQuery(o)
}

// AndQuery returns a new query matching rows that match both q and other.
func (q *Query) AndQuery(other *Query) *Query {
	if other.table != q.table {
		panic(&results.TableMismatchError{Expected: q.table.def.name, Actual: other.table.def.name})
	}
	return &Query{table: q.table, conds: slices.Concat(q.conds, other.conds)}
}

// Copy implements results.Query.
func (q *Query) Copy() results.Query {
	return q.Clone()
}

// Clone returns an independent copy of the query.
func (q *Query) Clone() *Query {
	return &Query{table: q.table, conds: slices.Clone(q.conds)}
}

func (q *Query) String() string {
	if len(q.conds) == 0 {
		return "TRUEPREDICATE"
	}
	var buf strings.Builder
	describeAll(&buf, q.table.def, q.conds, " AND ")
	return buf.String()
}

package results

import (
	"fmt"
	"iter"
)

type Mode int

const (
	ModeEmpty Mode = iota
	ModeTable
	ModeQuery
	ModeView
)

func (m Mode) String() string {
	switch m {
	case ModeEmpty:
		return "empty"
	case ModeTable:
		return "table"
	case ModeQuery:
		return "query"
	case ModeView:
		return "view"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// state is one of emptyState, tableState, *queryState or *viewState.
type state interface {
	mode() Mode
}

type emptyState struct{}

type tableState struct {
	table Table
}

// queryState owns its query; cache is filled on first materialization.
type queryState struct {
	query Query
	sort  SortOrder
	cache View
}

type viewState struct {
	view View
}

func (emptyState) mode() Mode  { return ModeEmpty }
func (tableState) mode() Mode  { return ModeTable }
func (*queryState) mode() Mode { return ModeQuery }
func (*viewState) mode() Mode  { return ModeView }

// Results is a lazily evaluated set of rows: an entire table, the rows
// matching a query (optionally sorted), or a previously materialized view.
// Nothing is computed until the rows are observed, and computed views are
// re-synced with the table before each positional read.
//
// A Results is confined to the Context it was created with. The zero value
// is an empty Results bound to no context.
type Results struct {
	owner Context
	state state
}

// Empty returns a Results that contains no rows and has no source table.
func Empty() *Results {
	return &Results{state: emptyState{}}
}

// New returns a Results over all rows of tbl, in table order.
func New(owner Context, tbl Table) *Results {
	if tbl == nil {
		return &Results{owner: owner, state: emptyState{}}
	}
	return &Results{owner: owner, state: tableState{table: tbl}}
}

// NewQuery returns a Results over the rows matching q, sorted by order.
// The Results takes ownership of q.
func NewQuery(owner Context, q Query, order SortOrder) *Results {
	if q == nil {
		return &Results{owner: owner, state: emptyState{}}
	}
	return &Results{owner: owner, state: &queryState{query: q, sort: order.Clone()}}
}

// fromView wraps an already materialized view. There is no public way to
// build such Results yet.
func fromView(owner Context, v View) *Results {
	if v == nil {
		return &Results{owner: owner, state: emptyState{}}
	}
	return &Results{owner: owner, state: &viewState{view: v}}
}

func (r *Results) current() state {
	if r.state == nil {
		return emptyState{}
	}
	return r.state
}

func (r *Results) Mode() Mode {
	return r.current().mode()
}

// Owner returns the context the results are confined to.
func (r *Results) Owner() Context {
	return r.owner
}

// Table returns the source table, or nil for empty results.
func (r *Results) Table() Table {
	return r.table()
}

func (r *Results) table() Table {
	switch s := r.current().(type) {
	case tableState:
		return s.table
	case *queryState:
		return s.query.Table()
	case *viewState:
		return s.view.Table()
	default:
		return nil
	}
}

func (r *Results) validateRead(caller Context) error {
	if r.owner != nil && caller != r.owner {
		return &WrongContextError{Owner: r.owner.ID(), Caller: contextID(caller)}
	}
	if tbl := r.table(); tbl != nil && !tbl.IsAttached() {
		return &DetachedSourceError{Table: tbl.Name()}
	}
	if s, ok := r.current().(*queryState); ok {
		return checkSortOrder(s.query.Table(), s.sort)
	}
	return nil
}

func checkSortOrder(tbl Table, order SortOrder) error {
	if tbl == nil {
		return nil
	}
	n := tbl.ColumnCount()
	for _, sc := range order {
		if sc.Column < 0 || sc.Column >= n {
			return &OutOfBoundsError{What: "sort column", Index: sc.Column, Size: n}
		}
	}
	return nil
}

func (r *Results) validateWrite(caller Context, op string) error {
	if err := r.validateRead(caller); err != nil {
		return err
	}
	if r.owner == nil || !r.owner.InWriteTransaction() {
		return &NotInTransactionError{Op: op}
	}
	return nil
}

func contextID(c Context) string {
	if c == nil {
		return "<none>"
	}
	return c.ID()
}

// materialize brings the cached view of Query and View modes up to date and
// returns it; it returns nil for Empty and Table modes.
func (r *Results) materialize() View {
	switch s := r.current().(type) {
	case *queryState:
		if s.cache == nil {
			v := s.query.FindAll()
			if !s.sort.IsEmpty() {
				v.Sort(s.sort)
			}
			s.cache = v
		} else {
			s.cache.Sync()
		}
		return s.cache
	case *viewState:
		s.view.Sync()
		return s.view
	default:
		return nil
	}
}

// rowSet returns the rows reads should go to: the table itself in Table mode,
// the materialized view otherwise.
func (r *Results) rowSet() RowSet {
	switch s := r.current().(type) {
	case tableState:
		return s.table
	case *queryState, *viewState:
		return r.materialize()
	default:
		return nil
	}
}

// Size returns the number of rows. Unsorted queries are counted without
// materializing them.
func (r *Results) Size(caller Context) (int, error) {
	if err := r.validateRead(caller); err != nil {
		return 0, err
	}
	return r.size(), nil
}

func (r *Results) size() int {
	switch s := r.current().(type) {
	case tableState:
		return s.table.Size()
	case *queryState:
		return s.query.Count()
	case *viewState:
		return r.materialize().Size()
	default:
		return 0
	}
}

// Get returns the row at position i.
func (r *Results) Get(caller Context, i int) (Row, error) {
	if err := r.validateRead(caller); err != nil {
		return nil, err
	}
	rows := r.rowSet()
	n := 0
	if rows != nil {
		n = rows.Size()
	}
	if i < 0 || i >= n {
		return nil, &OutOfBoundsError{What: "row", Index: i, Size: n}
	}
	return rows.RowAt(i), nil
}

// First returns the first row, or false if there are no rows.
func (r *Results) First(caller Context) (Row, bool, error) {
	return r.boundary(caller, false)
}

// Last returns the last row, or false if there are no rows.
func (r *Results) Last(caller Context) (Row, bool, error) {
	return r.boundary(caller, true)
}

func (r *Results) boundary(caller Context, last bool) (Row, bool, error) {
	if err := r.validateRead(caller); err != nil {
		return nil, false, err
	}
	rows := r.rowSet()
	if rows == nil {
		return nil, false, nil
	}
	n := rows.Size()
	if n == 0 {
		return nil, false, nil
	}
	if last {
		return rows.RowAt(n - 1), true, nil
	}
	return rows.RowAt(0), true, nil
}

// IndexOfRow returns the position of row within the results, or NotFound if
// the row is valid but not a member. Deleted rows and rows of other tables
// are errors.
func (r *Results) IndexOfRow(caller Context, row Row) (int, error) {
	if err := r.validateRead(caller); err != nil {
		return NotFound, err
	}
	tbl := r.table()
	if row == nil || !row.IsValid() {
		name := ""
		if tbl != nil {
			name = tbl.Name()
		}
		return NotFound, &InvalidRowError{Table: name}
	}
	if tbl != nil {
		if rt := row.Table(); rt != tbl {
			return NotFound, &TableMismatchError{Expected: tbl.Name(), Actual: tableName(rt)}
		}
	}
	return r.indexOf(row.Index()), nil
}

// IndexOf maps a table position to a position within the results, or
// NotFound.
func (r *Results) IndexOf(caller Context, pos int) (int, error) {
	if err := r.validateRead(caller); err != nil {
		return NotFound, err
	}
	return r.indexOf(pos), nil
}

func (r *Results) indexOf(pos int) int {
	if pos < 0 {
		return NotFound
	}
	switch s := r.current().(type) {
	case tableState:
		if pos >= s.table.Size() {
			return NotFound
		}
		return pos
	case *queryState:
		if s.sort.IsEmpty() {
			if s.query.CountRange(pos, pos+1) == 0 {
				return NotFound
			}
			return s.query.CountRange(0, pos)
		}
		return r.materialize().FindBySourceIndex(pos)
	case *viewState:
		return r.materialize().FindBySourceIndex(pos)
	default:
		return NotFound
	}
}

// All returns an iterator over (position, row) pairs. The rows are
// materialized before All returns.
func (r *Results) All(caller Context) (iter.Seq2[int, Row], error) {
	if err := r.validateRead(caller); err != nil {
		return nil, err
	}
	rows := r.rowSet()
	return func(yield func(int, Row) bool) {
		if rows == nil {
			return
		}
		for i, n := 0, rows.Size(); i < n; i++ {
			if !yield(i, rows.RowAt(i)) {
				return
			}
		}
	}, nil
}

// Clear deletes every row of the results from the source table. Requires
// the owning context to be in a write transaction.
func (r *Results) Clear(caller Context) error {
	if err := r.validateWrite(caller, "clear results"); err != nil {
		return err
	}
	switch s := r.current().(type) {
	case tableState:
		return s.table.Clear()
	case *queryState:
		_, err := s.query.Remove()
		return err
	case *viewState:
		return s.view.Clear()
	default:
		return nil
	}
}

// Query returns a copy of the predicate defining the results; it shares no
// state with r. Table mode yields a match-all query, empty results yield nil.
func (r *Results) Query(caller Context) (Query, error) {
	if err := r.validateRead(caller); err != nil {
		return nil, err
	}
	return r.query(), nil
}

func (r *Results) query() Query {
	switch s := r.current().(type) {
	case tableState:
		return s.table.MatchAll()
	case *queryState:
		return s.query.Copy()
	case *viewState:
		return s.view.Query()
	default:
		return nil
	}
}

// SortOrder returns the order the results were created with.
func (r *Results) SortOrder() SortOrder {
	if s, ok := r.current().(*queryState); ok {
		return s.sort.Clone()
	}
	return nil
}

// Sort returns new results over the same rows sorted by order. The previous
// order is replaced, not refined.
func (r *Results) Sort(caller Context, order SortOrder) (*Results, error) {
	q, err := r.Query(caller)
	if err != nil {
		return nil, err
	}
	if q != nil {
		if err := checkSortOrder(q.Table(), order); err != nil {
			return nil, err
		}
	}
	return NewQuery(r.owner, q, order), nil
}

// Filter returns new results over the rows that also match extra, keeping
// the current sort order. Filter takes ownership of extra.
func (r *Results) Filter(caller Context, extra Query) (*Results, error) {
	q, err := r.Query(caller)
	if err != nil {
		return nil, err
	}
	if q == nil || extra == nil {
		return NewQuery(r.owner, q, r.SortOrder()), nil
	}
	if et := extra.Table(); et != q.Table() {
		return nil, &TableMismatchError{Expected: tableName(q.Table()), Actual: tableName(et)}
	}
	return NewQuery(r.owner, q.And(extra), r.SortOrder()), nil
}

func (r *Results) String() string {
	switch s := r.current().(type) {
	case tableState:
		return fmt.Sprintf("Results(all %s)", s.table.Name())
	case *queryState:
		cached := ""
		if s.cache != nil {
			cached = ", materialized"
		}
		return fmt.Sprintf("Results(query on %s, %v%s)", tableName(s.query.Table()), s.sort, cached)
	case *viewState:
		return fmt.Sprintf("Results(view of %s)", tableName(s.view.Table()))
	default:
		return "Results(empty)"
	}
}

func tableName(t Table) string {
	if t == nil {
		return "<none>"
	}
	return t.Name()
}

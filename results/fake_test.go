package results

import (
	"fmt"
	"slices"
)

// A minimal in-memory engine that records how often views are computed, so
// tests can tell lazy paths from materializing ones.

type fakeContext struct {
	id    string
	write bool
}

func (c *fakeContext) ID() string               { return c.id }
func (c *fakeContext) InWriteTransaction() bool { return c.write }

type fakeTable struct {
	name     string
	types    []ColumnType
	rows     []*fakeRow
	gen      int
	detached bool

	findAlls int
	computes int
}

type fakeRow struct {
	t       *fakeTable
	vals    []Value
	deleted bool
}

func newFakeTable(name string, types ...ColumnType) *fakeTable {
	return &fakeTable{name: name, types: types}
}

func (t *fakeTable) add(vals ...Value) *fakeRow {
	r := &fakeRow{t: t, vals: vals}
	t.rows = append(t.rows, r)
	t.gen++
	return r
}

func (t *fakeTable) addInts(vals ...int64) []*fakeRow {
	var rows []*fakeRow
	for _, v := range vals {
		rows = append(rows, t.add(IntValue(v)))
	}
	return rows
}

func (t *fakeTable) delete(r *fakeRow) {
	if i := slices.Index(t.rows, r); i >= 0 {
		t.rows = slices.Delete(t.rows, i, i+1)
		r.deleted = true
		t.gen++
	}
}

func (r *fakeRow) IsValid() bool          { return !r.deleted }
func (r *fakeRow) Table() Table           { return r.t }
func (r *fakeRow) Index() int             { return slices.Index(r.t.rows, r) }
func (r *fakeRow) Value(column int) Value { return r.vals[column] }
func (r *fakeRow) String() string         { return fmt.Sprint(r.vals) }

func (t *fakeTable) Size() int                    { return len(t.rows) }
func (t *fakeTable) RowAt(i int) Row              { return t.rows[i] }
func (t *fakeTable) Name() string                 { return t.name }
func (t *fakeTable) IsAttached() bool             { return !t.detached }
func (t *fakeTable) ColumnCount() int             { return len(t.types) }
func (t *fakeTable) ColumnName(column int) string { return fmt.Sprintf("c%d", column) }
func (t *fakeTable) ColumnType(column int) ColumnType {
	return t.types[column]
}
func (t *fakeTable) MatchAll() Query { return &fakeQuery{t: t} }

func (t *fakeTable) Clear() error {
	for _, r := range slices.Clone(t.rows) {
		t.delete(r)
	}
	return nil
}

func (t *fakeTable) Aggregate(column int, op AggregateOp) (Value, bool) {
	return fakeAggregate(t.rows, column, op)
}

type fakeQuery struct {
	t     *fakeTable
	preds []func(*fakeRow) bool
}

func (t *fakeTable) where(pred func(*fakeRow) bool) *fakeQuery {
	return &fakeQuery{t: t, preds: []func(*fakeRow) bool{pred}}
}

func (t *fakeTable) intAbove(column int, v int64) *fakeQuery {
	return t.where(func(r *fakeRow) bool { return r.vals[column].Int() > v })
}

func (t *fakeTable) intBelow(column int, v int64) *fakeQuery {
	return t.where(func(r *fakeRow) bool { return r.vals[column].Int() < v })
}

func (q *fakeQuery) matches(r *fakeRow) bool {
	for _, p := range q.preds {
		if !p(r) {
			return false
		}
	}
	return true
}

func (q *fakeQuery) Table() Table { return q.t }

func (q *fakeQuery) Count() int {
	return q.CountRange(0, len(q.t.rows))
}

func (q *fakeQuery) CountRange(start, end int) int {
	start, end = max(start, 0), min(end, len(q.t.rows))
	n := 0
	for i := start; i < end; i++ {
		if q.matches(q.t.rows[i]) {
			n++
		}
	}
	return n
}

func (q *fakeQuery) FindAll() View {
	q.t.findAlls++
	v := &fakeView{t: q.t, source: q.Copy().(*fakeQuery)}
	v.recompute()
	return v
}

func (q *fakeQuery) Remove() (int, error) {
	var n int
	for _, r := range slices.Clone(q.t.rows) {
		if q.matches(r) {
			q.t.delete(r)
			n++
		}
	}
	return n, nil
}

func (q *fakeQuery) And(other Query) Query {
	return &fakeQuery{t: q.t, preds: slices.Concat(q.preds, other.(*fakeQuery).preds)}
}

func (q *fakeQuery) Copy() Query {
	return &fakeQuery{t: q.t, preds: slices.Clone(q.preds)}
}

type fakeView struct {
	t      *fakeTable
	source *fakeQuery
	rows   []*fakeRow
	order  SortOrder
	gen    int
}

func (t *fakeTable) view(rows ...*fakeRow) *fakeView {
	return &fakeView{t: t, rows: rows, gen: t.gen}
}

func (v *fakeView) recompute() {
	v.t.computes++
	if v.source != nil {
		v.rows = nil
		for _, r := range v.t.rows {
			if v.source.matches(r) {
				v.rows = append(v.rows, r)
			}
		}
	} else {
		v.rows = slices.DeleteFunc(v.rows, func(r *fakeRow) bool { return r.deleted })
	}
	v.sort()
	v.gen = v.t.gen
}

func (v *fakeView) sort() {
	if len(v.order) == 0 {
		return
	}
	slices.SortStableFunc(v.rows, func(a, b *fakeRow) int {
		for _, c := range v.order {
			d := compareFake(a.vals[c.Column], b.vals[c.Column])
			if !c.Ascending {
				d = -d
			}
			if d != 0 {
				return d
			}
		}
		return 0
	})
}

func compareFake(a, b Value) int {
	if a.Kind() == TypeDateTime {
		return a.Time().Compare(b.Time())
	}
	x, _ := a.Float64()
	y, _ := b.Float64()
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func (v *fakeView) Size() int       { return len(v.rows) }
func (v *fakeView) RowAt(i int) Row { return v.rows[i] }
func (v *fakeView) Table() Table    { return v.t }

func (v *fakeView) Clear() error {
	for _, r := range v.rows {
		v.t.delete(r)
	}
	v.rows = nil
	v.gen = v.t.gen
	return nil
}

func (v *fakeView) Aggregate(column int, op AggregateOp) (Value, bool) {
	return fakeAggregate(v.rows, column, op)
}

func (v *fakeView) Sort(order SortOrder) {
	v.order = order.Clone()
	v.sort()
}

func (v *fakeView) Sync() {
	if v.gen != v.t.gen {
		v.recompute()
	}
}

func (v *fakeView) FindBySourceIndex(pos int) int {
	if pos < 0 || pos >= len(v.t.rows) {
		return NotFound
	}
	return slices.Index(v.rows, v.t.rows[pos])
}

func (v *fakeView) Query() Query {
	members := slices.Clone(v.rows)
	return v.t.where(func(r *fakeRow) bool { return slices.Contains(members, r) })
}

func fakeAggregate(rows []*fakeRow, column int, op AggregateOp) (Value, bool) {
	if len(rows) == 0 {
		return Value{}, false
	}
	best := rows[0].vals[column]
	var sum float64
	for _, r := range rows {
		v := r.vals[column]
		switch op {
		case Max:
			if compareFake(v, best) > 0 {
				best = v
			}
		case Min:
			if compareFake(v, best) < 0 {
				best = v
			}
		default:
			f, _ := v.Float64()
			sum += f
		}
	}
	switch op {
	case Sum:
		if best.Kind() == TypeInt {
			return IntValue(int64(sum)), true
		}
		return DoubleValue(sum), true
	case Average:
		return DoubleValue(sum / float64(len(rows))), true
	default:
		return best, true
	}
}

package results

import "strconv"

type AggregateOp int

const (
	Max AggregateOp = iota + 1
	Min
	Sum
	Average
)

func (op AggregateOp) String() string {
	switch op {
	case Max:
		return "max"
	case Min:
		return "min"
	case Sum:
		return "sum"
	case Average:
		return "average"
	default:
		return "AggregateOp(" + strconv.Itoa(int(op)) + ")"
	}
}

// Aggregatable reports whether any aggregate is defined for columns of type t.
func Aggregatable(t ColumnType) bool {
	switch t {
	case TypeInt, TypeFloat, TypeDouble, TypeDateTime:
		return true
	default:
		return false
	}
}

// Accepts reports whether op is defined for an aggregatable type t.
func (op AggregateOp) Accepts(t ColumnType) bool {
	if t == TypeDateTime {
		return op == Max || op == Min
	}
	return Aggregatable(t)
}

// ResultType is the kind of value op produces over a column of type t:
// max and min keep the column type, sum widens floats to double, average is
// always double.
func (op AggregateOp) ResultType(t ColumnType) ColumnType {
	switch op {
	case Sum:
		if t == TypeFloat {
			return TypeDouble
		}
		return t
	case Average:
		return TypeDouble
	default:
		return t
	}
}

func (r *Results) Max(caller Context, column int) (Value, bool, error) {
	return r.aggregate(caller, column, Max)
}

func (r *Results) Min(caller Context, column int) (Value, bool, error) {
	return r.aggregate(caller, column, Min)
}

// Sum adds up a numeric column. Int sums are exact while they fit in an
// int64 and saturate at math.MaxInt64 or math.MinInt64 otherwise.
func (r *Results) Sum(caller Context, column int) (Value, bool, error) {
	return r.aggregate(caller, column, Sum)
}

func (r *Results) Average(caller Context, column int) (Value, bool, error) {
	return r.aggregate(caller, column, Average)
}

// Aggregate is the common form of Max, Min, Sum and Average.
func (r *Results) Aggregate(caller Context, column int, op AggregateOp) (Value, bool, error) {
	return r.aggregate(caller, column, op)
}

func (r *Results) aggregate(caller Context, column int, op AggregateOp) (Value, bool, error) {
	if err := r.validateRead(caller); err != nil {
		return Value{}, false, err
	}
	tbl := r.table()
	if tbl == nil {
		return Value{}, false, nil
	}
	if n := tbl.ColumnCount(); column < 0 || column >= n {
		return Value{}, false, &OutOfBoundsError{What: "column", Index: column, Size: n}
	}

	typ := tbl.ColumnType(column)
	if !Aggregatable(typ) {
		return Value{}, false, &UnsupportedColumnTypeError{Op: op, Column: column, Name: tbl.ColumnName(column), Type: typ}
	}
	if !op.Accepts(typ) {
		return Value{}, false, &UnsupportedOperationError{Op: op, Column: column, Name: tbl.ColumnName(column), Type: typ}
	}

	rows := r.rowSet()
	if rows == nil || rows.Size() == 0 {
		return Value{}, false, nil
	}
	v, ok := rows.Aggregate(column, op)
	return v, ok, nil
}

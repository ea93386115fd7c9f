package results

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is for every error type below.
var (
	ErrWrongContext         = errors.New("wrong context")
	ErrDetached             = errors.New("detached")
	ErrNotInTransaction     = errors.New("not in write transaction")
	ErrOutOfBounds          = errors.New("out of bounds")
	ErrInvalidRow           = errors.New("invalid row")
	ErrTableMismatch        = errors.New("table mismatch")
	ErrUnsupportedType      = errors.New("unsupported column type")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// WrongContextError means a Results was used from a context other than the
// one it was created in.
type WrongContextError struct {
	Owner  string
	Caller string
}

func (e *WrongContextError) Error() string {
	return fmt.Sprintf("results: owned by context %s, accessed from %s", e.Owner, e.Caller)
}

func (e *WrongContextError) Is(target error) bool { return target == ErrWrongContext }

type DetachedSourceError struct {
	Table string
}

func (e *DetachedSourceError) Error() string {
	return fmt.Sprintf("results: table %s is no longer attached to live storage", e.Table)
}

func (e *DetachedSourceError) Is(target error) bool { return target == ErrDetached }

type NotInTransactionError struct {
	Op string
}

func (e *NotInTransactionError) Error() string {
	if e.Op == "" {
		return "results: not in a write transaction"
	}
	return fmt.Sprintf("results: cannot %s outside of a write transaction", e.Op)
}

func (e *NotInTransactionError) Is(target error) bool { return target == ErrNotInTransaction }

// OutOfBoundsError reports a row, column or sort column index outside of
// 0..Size-1.
type OutOfBoundsError struct {
	What  string // "row", "column" or "sort column"
	Index int
	Size  int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("results: %s index %d is outside of range 0...%d", e.What, e.Index, e.Size)
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrOutOfBounds }

type InvalidRowError struct {
	Table string
}

func (e *InvalidRowError) Error() string {
	if e.Table == "" {
		return "results: row has been deleted or invalidated"
	}
	return fmt.Sprintf("results: %s row has been deleted or invalidated", e.Table)
}

func (e *InvalidRowError) Is(target error) bool { return target == ErrInvalidRow }

type TableMismatchError struct {
	Expected string
	Actual   string
}

func (e *TableMismatchError) Error() string {
	return fmt.Sprintf("results: row or query of table %s does not match results of table %s", e.Actual, e.Expected)
}

func (e *TableMismatchError) Is(target error) bool { return target == ErrTableMismatch }

// UnsupportedColumnTypeError means the column's declared type cannot be
// aggregated at all.
type UnsupportedColumnTypeError struct {
	Op     AggregateOp
	Column int
	Name   string
	Type   ColumnType
}

func (e *UnsupportedColumnTypeError) Error() string {
	return fmt.Sprintf("results: cannot %v column %d (%s) of type %v", e.Op, e.Column, e.Name, e.Type)
}

func (e *UnsupportedColumnTypeError) Is(target error) bool { return target == ErrUnsupportedType }

// UnsupportedOperationError means the column's type can be aggregated, just
// not with this operation (sum or average of date-times).
type UnsupportedOperationError struct {
	Op     AggregateOp
	Column int
	Name   string
	Type   ColumnType
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("results: cannot take the %v of %v column %d (%s)", e.Op, e.Type, e.Column, e.Name)
}

func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}

package rdb

import (
	"fmt"
	"strings"

	"github.com/andreyvit/rdb/results"
)

// ErrNotInTransaction is matched by every mutation attempted outside of a
// write transaction.
var ErrNotInTransaction = results.ErrNotInTransaction

type DataError struct {
	Data []byte
	Err  error
	Msg  string
}

func dataErrf(data []byte, err error, format string, args ...any) error {
	return &DataError{data, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	var data string
	if n <= prefixLen+suffixLen {
		data = fmt.Sprintf("(%d) %x", n, e.Data)
	} else {
		data = fmt.Sprintf("(%d) %x...%x", n, e.Data[:prefixLen], e.Data[n-suffixLen:])
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %s", e.Msg, e.Err, data)
	}
	return fmt.Sprintf("%s: %s", e.Msg, data)
}

// TableError wraps a storage or encoding failure with the table and row key
// it happened on.
type TableError struct {
	Table string
	Key   []byte
	Msg   string
	Err   error
}

func tableErrf(tbl *TableDef, key []byte, err error, format string, args ...any) error {
	return &TableError{tbl.Name(), key, fmt.Sprintf(format, args...), err}
}

func (e *TableError) Unwrap() error {
	return e.Err
}

func (e *TableError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Table)
	if e.Key != nil {
		buf.WriteByte('/')
		buf.WriteString(hexstr(e.Key))
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// ColumnTypeError means a Go value cannot be stored in, or compared with,
// a column of the given type.
type ColumnTypeError struct {
	Table    string
	Column   string
	Expected results.ColumnType
	Value    any
}

func (e *ColumnTypeError) Error() string {
	return fmt.Sprintf("%s.%s: expected %v value, got %T %v", e.Table, e.Column, e.Expected, e.Value, e.Value)
}

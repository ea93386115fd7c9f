package results

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// ColumnType is the declared type of a table column, as reported by the
// storage engine.
type ColumnType int

const (
	TypeInvalid ColumnType = iota
	TypeInt
	TypeBool
	TypeFloat
	TypeDouble
	TypeString
	TypeDateTime
	TypeBinary
)

var columnTypeNames = [...]string{
	TypeInvalid:  "invalid",
	TypeInt:      "int",
	TypeBool:     "bool",
	TypeFloat:    "float",
	TypeDouble:   "double",
	TypeString:   "string",
	TypeDateTime: "date-time",
	TypeBinary:   "binary",
}

func (t ColumnType) String() string {
	if t >= 0 && int(t) < len(columnTypeNames) {
		return columnTypeNames[t]
	}
	return "ColumnType(" + strconv.Itoa(int(t)) + ")"
}

// ParseColumnType is the inverse of ColumnType.String.
func ParseColumnType(s string) (ColumnType, error) {
	for i, name := range columnTypeNames {
		if i > 0 && name == s {
			return ColumnType(i), nil
		}
	}
	return TypeInvalid, fmt.Errorf("unknown column type %q", s)
}

// Value is a single typed column value. The zero Value has kind TypeInvalid
// and means "no value".
type Value struct {
	kind ColumnType
	i    int64
	f    float64
	t    time.Time
	s    string
	b    []byte
}

func IntValue(v int64) Value      { return Value{kind: TypeInt, i: v} }
func FloatValue(v float32) Value  { return Value{kind: TypeFloat, f: float64(v)} }
func DoubleValue(v float64) Value { return Value{kind: TypeDouble, f: v} }
func StringValue(v string) Value  { return Value{kind: TypeString, s: v} }
func TimeValue(v time.Time) Value { return Value{kind: TypeDateTime, t: v} }
func BinaryValue(v []byte) Value  { return Value{kind: TypeBinary, b: v} }
func BoolValue(v bool) Value {
	if v {
		return Value{kind: TypeBool, i: 1}
	}
	return Value{kind: TypeBool}
}

func (v Value) Kind() ColumnType { return v.kind }
func (v Value) IsValid() bool    { return v.kind != TypeInvalid }

func (v Value) Int() int64 {
	v.mustBe(TypeInt)
	return v.i
}

func (v Value) Float() float32 {
	v.mustBe(TypeFloat)
	return float32(v.f)
}

func (v Value) Double() float64 {
	v.mustBe(TypeDouble)
	return v.f
}

func (v Value) Bool() bool {
	v.mustBe(TypeBool)
	return v.i != 0
}

func (v Value) Text() string {
	v.mustBe(TypeString)
	return v.s
}

func (v Value) Time() time.Time {
	v.mustBe(TypeDateTime)
	return v.t
}

func (v Value) Bytes() []byte {
	v.mustBe(TypeBinary)
	return v.b
}

// Float64 returns any numeric value widened to float64.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case TypeInt:
		return float64(v.i), true
	case TypeFloat, TypeDouble:
		return v.f, true
	default:
		return 0, false
	}
}

// Any returns the Go representation of the value: int64, bool, float32,
// float64, string, time.Time, []byte, or nil for the zero Value.
func (v Value) Any() any {
	switch v.kind {
	case TypeInt:
		return v.i
	case TypeBool:
		return v.i != 0
	case TypeFloat:
		return float32(v.f)
	case TypeDouble:
		return v.f
	case TypeString:
		return v.s
	case TypeDateTime:
		return v.t
	case TypeBinary:
		return v.b
	default:
		return nil
	}
}

// Equal reports whether both values have the same kind and payload.
// Date-times compare by instant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case TypeInt, TypeBool:
		return v.i == o.i
	case TypeFloat, TypeDouble:
		return v.f == o.f
	case TypeString:
		return v.s == o.s
	case TypeDateTime:
		return v.t.Equal(o.t)
	case TypeBinary:
		return bytes.Equal(v.b, o.b)
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeBool:
		return strconv.FormatBool(v.i != 0)
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case TypeDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeString:
		return v.s
	case TypeDateTime:
		return v.t.Format(time.RFC3339Nano)
	case TypeBinary:
		return fmt.Sprintf("%x", v.b)
	default:
		return "<none>"
	}
}

func (v Value) mustBe(kind ColumnType) {
	if v.kind != kind {
		panic(fmt.Errorf("results: value is %v, not %v", v.kind, kind))
	}
}

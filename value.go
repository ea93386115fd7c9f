package rdb

import (
	"bytes"
	"cmp"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andreyvit/rdb/results"
)

// convertValue turns a Go value into a Value of the given column type.
// Integers of any size are accepted for int columns; float columns accept
// any float or integer; double columns accept the same.
func convertValue(typ results.ColumnType, v any) (results.Value, bool) {
	if rv, ok := v.(results.Value); ok {
		if rv.Kind() == typ {
			return rv, true
		}
		v = rv.Any()
	}
	switch typ {
	case results.TypeInt:
		if i, ok := asInt64(v); ok {
			return results.IntValue(i), true
		}
	case results.TypeBool:
		if b, ok := v.(bool); ok {
			return results.BoolValue(b), true
		}
	case results.TypeFloat:
		if f, ok := asFloat64(v); ok {
			return results.FloatValue(float32(f)), true
		}
	case results.TypeDouble:
		if f, ok := asFloat64(v); ok {
			return results.DoubleValue(f), true
		}
	case results.TypeString:
		if s, ok := v.(string); ok {
			return results.StringValue(s), true
		}
	case results.TypeDateTime:
		if t, ok := v.(time.Time); ok {
			return results.TimeValue(t), true
		}
	case results.TypeBinary:
		switch b := v.(type) {
		case []byte:
			return results.BinaryValue(bytes.Clone(b)), true
		case string:
			return results.BinaryValue([]byte(b)), true
		}
	}
	return results.Value{}, false
}

func asInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		return int64(v), v <= 1<<63-1
	case uint64:
		return int64(v), v <= 1<<63-1
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch v := v.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		i, ok := asInt64(v)
		return float64(i), ok
	}
}

// ParseValue parses the textual form of a value of the given type, as
// accepted on command lines: integers, floats, true/false, RFC 3339
// date-times (or plain dates), hex for binary, and anything for strings.
func ParseValue(typ results.ColumnType, s string) (results.Value, error) {
	switch typ {
	case results.TypeInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return results.Value{}, err
		}
		return results.IntValue(i), nil
	case results.TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return results.Value{}, err
		}
		return results.BoolValue(b), nil
	case results.TypeFloat:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return results.Value{}, err
		}
		return results.FloatValue(float32(f)), nil
	case results.TypeDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return results.Value{}, err
		}
		return results.DoubleValue(f), nil
	case results.TypeString:
		return results.StringValue(s), nil
	case results.TypeDateTime:
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return results.TimeValue(t), nil
		}
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return results.Value{}, fmt.Errorf("invalid date-time %q, wanted RFC 3339 or YYYY-MM-DD", s)
		}
		return results.TimeValue(t), nil
	case results.TypeBinary:
		b, err := hex.DecodeString(s)
		if err != nil {
			return results.Value{}, err
		}
		return results.BinaryValue(b), nil
	default:
		return results.Value{}, fmt.Errorf("cannot parse %v values", typ)
	}
}

// compareValues orders two values of the same kind. NaNs sort first.
func compareValues(a, b results.Value) int {
	switch a.Kind() {
	case results.TypeInt:
		return cmp.Compare(a.Int(), b.Int())
	case results.TypeBool:
		return cmp.Compare(boolOrd(a.Bool()), boolOrd(b.Bool()))
	case results.TypeFloat:
		return cmp.Compare(a.Float(), b.Float())
	case results.TypeDouble:
		return cmp.Compare(a.Double(), b.Double())
	case results.TypeString:
		return strings.Compare(a.Text(), b.Text())
	case results.TypeDateTime:
		return a.Time().Compare(b.Time())
	case results.TypeBinary:
		return bytes.Compare(a.Bytes(), b.Bytes())
	default:
		return 0
	}
}

func boolOrd(b bool) int {
	if b {
		return 1
	}
	return 0
}

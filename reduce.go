package rdb

import (
	"math"
	"time"

	"github.com/andreyvit/rdb/results"
)

// reducer accumulates column values for aggregation.
type reducer interface {
	add(v results.Value)
	result(op results.AggregateOp) (results.Value, bool)
}

func newReducer(typ results.ColumnType) reducer {
	switch typ {
	case results.TypeInt:
		return &numericReducer[int64]{typ: typ, get: results.Value.Int, wrap: results.IntValue}
	case results.TypeFloat:
		return &numericReducer[float32]{typ: typ, get: results.Value.Float, wrap: results.FloatValue}
	case results.TypeDouble:
		return &numericReducer[float64]{typ: typ, get: results.Value.Double, wrap: results.DoubleValue}
	case results.TypeDateTime:
		return &timeReducer{}
	default:
		panic(&results.UnsupportedColumnTypeError{Type: typ})
	}
}

type numericReducer[T int64 | float32 | float64] struct {
	typ  results.ColumnType
	get  func(results.Value) T
	wrap func(T) results.Value

	n        int
	min, max T
	isum     int64
	wraps    int64 // isum has wrapped around 2^64 this many times
	fsum     float64
}

func (r *numericReducer[T]) add(v results.Value) {
	x := r.get(v)
	if r.n == 0 || x < r.min {
		r.min = x
	}
	if r.n == 0 || x > r.max {
		r.max = x
	}
	if r.typ == results.TypeInt {
		a, b := r.isum, int64(x)
		r.isum = a + b
		switch {
		case a > 0 && b > 0 && r.isum < 0:
			r.wraps++
		case a < 0 && b < 0 && r.isum >= 0:
			r.wraps--
		}
	}
	r.fsum += float64(x)
	r.n++
}

func (r *numericReducer[T]) result(op results.AggregateOp) (results.Value, bool) {
	if r.n == 0 {
		return results.Value{}, false
	}
	switch op {
	case results.Max:
		return r.wrap(r.max), true
	case results.Min:
		return r.wrap(r.min), true
	case results.Sum:
		if r.typ == results.TypeInt {
			switch {
			case r.wraps > 0:
				return results.IntValue(math.MaxInt64), true
			case r.wraps < 0:
				return results.IntValue(math.MinInt64), true
			}
			return results.IntValue(r.isum), true
		}
		return results.DoubleValue(r.fsum), true
	case results.Average:
		return results.DoubleValue(r.fsum / float64(r.n)), true
	default:
		panic(&results.UnsupportedOperationError{Op: op, Type: r.typ})
	}
}

type timeReducer struct {
	n        int
	min, max time.Time
}

func (r *timeReducer) add(v results.Value) {
	t := v.Time()
	if r.n == 0 || t.Before(r.min) {
		r.min = t
	}
	if r.n == 0 || t.After(r.max) {
		r.max = t
	}
	r.n++
}

func (r *timeReducer) result(op results.AggregateOp) (results.Value, bool) {
	if r.n == 0 {
		return results.Value{}, false
	}
	switch op {
	case results.Max:
		return results.TimeValue(r.max), true
	case results.Min:
		return results.TimeValue(r.min), true
	default:
		panic(&results.UnsupportedOperationError{Op: op, Type: results.TypeDateTime})
	}
}

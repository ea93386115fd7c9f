package rdb

import (
	"bytes"
	"fmt"

	"github.com/andreyvit/rdb/results"
	"github.com/vmihailenco/msgpack/v5"
)

// Rows are stored as a msgpack array with one element per column, in column
// order, each encoded according to the column's declared type.

type bytesBuilder struct {
	Buf []byte
}

func (bb *bytesBuilder) Write(b []byte) (int, error) {
	bb.Buf = append(bb.Buf, b...)
	return len(b), nil
}

func encodeRow(buf []byte, cols []Column, vals []results.Value) []byte {
	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(&bb)

	ensure(enc.EncodeArrayLen(len(cols)))
	for i, col := range cols {
		v := vals[i]
		if v.Kind() != col.Type {
			panic(fmt.Errorf("column %s: encoding %v value into %v column", col.Name, v.Kind(), col.Type))
		}
		var err error
		switch col.Type {
		case results.TypeInt:
			err = enc.EncodeInt(v.Int())
		case results.TypeBool:
			err = enc.EncodeBool(v.Bool())
		case results.TypeFloat:
			err = enc.EncodeFloat32(v.Float())
		case results.TypeDouble:
			err = enc.EncodeFloat64(v.Double())
		case results.TypeString:
			err = enc.EncodeString(v.Text())
		case results.TypeDateTime:
			err = enc.EncodeTime(v.Time())
		case results.TypeBinary:
			err = enc.EncodeBytes(v.Bytes())
		default:
			panic(fmt.Errorf("column %s: unsupported type %v", col.Name, col.Type))
		}
		ensure(err)
	}
	return bb.Buf
}

func decodeRow(data []byte, cols []Column) ([]results.Value, error) {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(&r)

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, dataErrf(data, err, "failed to decode row header")
	}
	if n != len(cols) {
		return nil, dataErrf(data, nil, "row has %d columns, wanted %d", n, len(cols))
	}
	vals := make([]results.Value, n)
	for i, col := range cols {
		var v results.Value
		switch col.Type {
		case results.TypeInt:
			var x int64
			x, err = dec.DecodeInt64()
			v = results.IntValue(x)
		case results.TypeBool:
			var x bool
			x, err = dec.DecodeBool()
			v = results.BoolValue(x)
		case results.TypeFloat:
			var x float32
			x, err = dec.DecodeFloat32()
			v = results.FloatValue(x)
		case results.TypeDouble:
			var x float64
			x, err = dec.DecodeFloat64()
			v = results.DoubleValue(x)
		case results.TypeString:
			var x string
			x, err = dec.DecodeString()
			v = results.StringValue(x)
		case results.TypeDateTime:
			tm, terr := dec.DecodeTime()
			v, err = results.TimeValue(tm.UTC()), terr
		case results.TypeBinary:
			var x []byte
			x, err = dec.DecodeBytes()
			v = results.BinaryValue(x)
		default:
			err = fmt.Errorf("unsupported type %v", col.Type)
		}
		if err != nil {
			return nil, dataErrf(data, err, "failed to decode column %s", col.Name)
		}
		vals[i] = v
	}
	return vals, nil
}

type storedColumn struct {
	Name string `msgpack:"n"`
	Type string `msgpack:"t"`
}

func encodeColumns(cols []Column) []byte {
	stored := make([]storedColumn, len(cols))
	for i, col := range cols {
		stored[i] = storedColumn{Name: col.Name, Type: col.Type.String()}
	}
	return must(msgpack.Marshal(stored))
}

func decodeColumns(data []byte) ([]Column, error) {
	var stored []storedColumn
	if err := msgpack.Unmarshal(data, &stored); err != nil {
		return nil, dataErrf(data, err, "failed to decode column list")
	}
	cols := make([]Column, len(stored))
	for i, sc := range stored {
		typ, err := results.ParseColumnType(sc.Type)
		if err != nil {
			return nil, dataErrf(data, err, "column %s", sc.Name)
		}
		cols[i] = Column{Name: sc.Name, Type: typ}
	}
	return cols, nil
}

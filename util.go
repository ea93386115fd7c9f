package rdb

import (
	"encoding/binary"
	"encoding/hex"
	"log/slog"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

func nonNil[T any](v T, what string) T {
	if any(v) == nil {
		panic("missing " + what)
	}
	return v
}

const rowKeySize = 8

func encodeRowKey(buf []byte, key uint64) []byte {
	return binary.BigEndian.AppendUint64(buf, key)
}

func decodeRowKey(raw []byte) (uint64, bool) {
	if len(raw) != rowKeySize {
		return 0, false
	}
	return binary.BigEndian.Uint64(raw), true
}

func hexstr(b []byte) string {
	if b == nil {
		return "<nil>"
	}
	if len(b) == 0 {
		return "<empty>"
	}
	return hex.EncodeToString(b)
}

func hexAttr(key string, b []byte) slog.Attr {
	return slog.String(key, hexstr(b))
}

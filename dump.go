package rdb

import (
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpTableHeaders = DumpFlags(1 << iota)
	DumpRows
	DumpStats
	DumpMeta

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the raw contents of every table as seen by the session's
// current transaction. Rows are decoded straight from storage, bypassing
// table snapshots, so undecodable rows show up as errors instead of panics.
func (s *Session) Dump(f DumpFlags) string {
	var buf strings.Builder
	for _, td := range s.db.schema.tables {
		s.dumpTable(&buf, f, td)
	}
	return buf.String()
}

func (s *Session) dumpTable(w *strings.Builder, f DumpFlags, td *TableDef) {
	st := s.TableStats(td)
	if f.Contains(DumpTableHeaders) {
		fmt.Fprintln(w, dumpSep1)
		fmt.Fprintf(w, "%s (%d rows)\n", td, st.Rows)
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(w, "%s.stats: data_size = %d, data_alloc = %d, next_key = %d\n", td.name, st.DataSize, st.DataAlloc, st.NextKey)
	}
	if f.Contains(DumpMeta) {
		if meta := s.stx.Bucket(td.buck, metaBucket); meta != nil {
			c := meta.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				fmt.Fprintf(w, "%s.meta.%s = %s\n", td.name, k, hexstr(v))
			}
		}
	}
	if f.Contains(DumpRows) {
		if f.Contains(DumpStats) || f.Contains(DumpMeta) {
			fmt.Fprintln(w, dumpSep2)
		}
		data := s.stx.Bucket(td.buck, dataBucket)
		if data == nil {
			return
		}
		c := data.Cursor()
		var rowPos int
		for k, v := c.First(); k != nil; k, v = c.Next() {
			dumpRow(w, td, rowPos, k, v)
			rowPos++
		}
	}
}

func dumpRow(w *strings.Builder, td *TableDef, rowPos int, k, v []byte) {
	key, ok := decodeRowKey(k)
	if !ok {
		fmt.Fprintf(w, "%s.%d = ** ERROR: invalid key %s\n", td.name, rowPos, hexstr(k))
		return
	}
	vals, err := decodeRow(v, td.columns)
	if err != nil {
		fmt.Fprintf(w, "%s.%d = (k%d) ** ERROR: %v\n", td.name, rowPos, key, err)
		return
	}
	fmt.Fprintf(w, "%s.%d = (k%d)", td.name, rowPos, key)
	for i, val := range vals {
		fmt.Fprintf(w, " %s=%s", td.columns[i].Name, quoteValue(val))
	}
	w.WriteByte('\n')
}

package rdb

import "encoding/binary"

type TableStats struct {
	Rows      int
	DataSize  int64
	DataAlloc int64
	NextKey   uint64
}

// TableStats reports storage statistics for td as of the session's current
// transaction. Rows counts stored rows, including uncommitted changes made in
// this session's write transaction.
func (s *Session) TableStats(td *TableDef) TableStats {
	var result TableStats
	if data := s.stx.Bucket(td.buck, dataBucket); data != nil {
		bs := data.Stats()
		result.Rows = bs.KeyN
		result.DataSize = bs.LeafInuse
		result.DataAlloc = bs.TotalAlloc()
	}
	result.NextKey = 1
	if meta := s.stx.Bucket(td.buck, metaBucket); meta != nil {
		if raw := meta.Get(nextKeyKey); len(raw) == 8 {
			result.NextKey = binary.BigEndian.Uint64(raw)
		}
	}
	return result
}

// Size returns the size of the database file, or 0 for in-memory databases.
func (s *Session) Size() int64 {
	return s.stx.Size()
}

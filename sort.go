package rdb

import (
	"slices"

	"github.com/andreyvit/rdb/results"
)

// sortKeys stably sorts row keys by the given columns. Keys of deleted rows
// sort last. An empty order leaves keys as they are.
func sortKeys(t *Table, keys []uint64, order results.SortOrder) {
	if order.IsEmpty() {
		return
	}
	ncol := len(t.def.columns)
	for _, sc := range order {
		if sc.Column < 0 || sc.Column >= ncol {
			panic(&results.OutOfBoundsError{What: "sort column", Index: sc.Column, Size: ncol})
		}
	}
	t.snapshot()
	slices.SortStableFunc(keys, func(a, b uint64) int {
		ra, oka := t.record(a)
		rb, okb := t.record(b)
		switch {
		case !oka && !okb:
			return 0
		case !oka:
			return 1
		case !okb:
			return -1
		}
		for _, sc := range order {
			c := compareValues(ra.vals[sc.Column], rb.vals[sc.Column])
			if c != 0 {
				if !sc.Ascending {
					c = -c
				}
				return c
			}
		}
		return 0
	})
}

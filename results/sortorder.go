package results

import (
	"slices"
	"strconv"
	"strings"
)

type SortColumn struct {
	Column    int
	Ascending bool
}

func Ascending(column int) SortColumn  { return SortColumn{Column: column, Ascending: true} }
func Descending(column int) SortColumn { return SortColumn{Column: column, Ascending: false} }

// SortOrder is an ordered list of sort keys; earlier columns take precedence.
// An empty SortOrder means "unsorted", i.e. the engine's natural order.
type SortOrder []SortColumn

func SortBy(columns ...SortColumn) SortOrder {
	return SortOrder(columns)
}

func (o SortOrder) IsEmpty() bool {
	return len(o) == 0
}

func (o SortOrder) Equal(p SortOrder) bool {
	return slices.Equal(o, p)
}

func (o SortOrder) Clone() SortOrder {
	if len(o) == 0 {
		return nil
	}
	return slices.Clone(o)
}

func (o SortOrder) String() string {
	if len(o) == 0 {
		return "unsorted"
	}
	var buf strings.Builder
	for i, c := range o {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(strconv.Itoa(c.Column))
		if c.Ascending {
			buf.WriteString(" asc")
		} else {
			buf.WriteString(" desc")
		}
	}
	return buf.String()
}

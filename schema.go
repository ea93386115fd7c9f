package rdb

import (
	"fmt"
	"slices"
	"strings"

	"github.com/andreyvit/rdb/results"
)

const (
	tableBucketPrefix = "t:"
	dataBucket        = "data"
	metaBucket        = "meta"
	catalogBucket     = "catalog"
)

type Schema struct {
	tables            []*TableDef
	tablesByLowerName map[string]*TableDef
}

func NewSchema() *Schema {
	return &Schema{
		tablesByLowerName: make(map[string]*TableDef),
	}
}

func (scm *Schema) Tables() []*TableDef {
	return slices.Clone(scm.tables)
}

func (scm *Schema) TableNamed(name string) *TableDef {
	return scm.tablesByLowerName[strings.ToLower(name)]
}

type Column struct {
	Name string
	Type results.ColumnType
}

func Col(name string, typ results.ColumnType) Column {
	return Column{Name: name, Type: typ}
}

// TableDef is the schema of one table. It is shared by all sessions; see
// Session.Table for the session-bound accessor.
type TableDef struct {
	schema      *Schema
	name        string
	pos         int // index in schema.tables
	buck        string
	columns     []Column
	colsByLower map[string]int
}

// AddTable defines a new table. It panics on invalid definitions, since
// schemas are normally declared in code.
func AddTable(scm *Schema, name string, columns ...Column) *TableDef {
	return must(DefineTable(scm, name, columns...))
}

// DefineTable is AddTable for definitions that come from user input.
func DefineTable(scm *Schema, name string, columns ...Column) (*TableDef, error) {
	if name == "" {
		return nil, fmt.Errorf("empty table name")
	}
	if scm.tablesByLowerName[strings.ToLower(name)] != nil {
		return nil, fmt.Errorf("duplicate table %s", name)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%s: no columns", name)
	}
	td := &TableDef{
		schema:      scm,
		name:        name,
		pos:         len(scm.tables),
		buck:        tableBucketPrefix + name,
		columns:     slices.Clone(columns),
		colsByLower: make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("%s: column %d has no name", name, i)
		}
		if col.Type <= results.TypeInvalid || col.Type > results.TypeBinary {
			return nil, fmt.Errorf("%s.%s: invalid column type %v", name, col.Name, col.Type)
		}
		lower := strings.ToLower(col.Name)
		if _, dup := td.colsByLower[lower]; dup {
			return nil, fmt.Errorf("%s: duplicate column %s", name, col.Name)
		}
		td.colsByLower[lower] = i
	}
	scm.tables = append(scm.tables, td)
	scm.tablesByLowerName[strings.ToLower(name)] = td
	return td, nil
}

func (td *TableDef) Name() string {
	return td.name
}

func (td *TableDef) Columns() []Column {
	return slices.Clone(td.columns)
}

func (td *TableDef) ColumnCount() int {
	return len(td.columns)
}

// ColumnIndex returns the index of the named column (case-insensitive), or -1.
func (td *TableDef) ColumnIndex(name string) int {
	if i, ok := td.colsByLower[strings.ToLower(name)]; ok {
		return i
	}
	return -1
}

// MustColumn is ColumnIndex that panics on unknown columns.
func (td *TableDef) MustColumn(name string) int {
	i := td.ColumnIndex(name)
	if i < 0 {
		panic(fmt.Errorf("%s: no column %s", td.name, name))
	}
	return i
}

func (td *TableDef) String() string {
	var buf strings.Builder
	buf.WriteString(td.name)
	buf.WriteByte('(')
	for i, col := range td.columns {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(col.Name)
		buf.WriteByte(' ')
		buf.WriteString(col.Type.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

package rdb

import (
	"log/slog"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/andreyvit/rdb/results"
)

type person struct {
	name   string
	age    int
	score  float64
	active bool
	born   time.Time
}

const (
	colName = iota
	colAge
	colScore
	colActive
	colBorn
)

var (
	testSchema  = NewSchema()
	peopleTable = AddTable(testSchema, "people",
		Col("name", results.TypeString),
		Col("age", results.TypeInt),
		Col("score", results.TypeDouble),
		Col("active", results.TypeBool),
		Col("born", results.TypeDateTime))
	blobsTable = AddTable(testSchema, "blobs",
		Col("data", results.TypeBinary),
		Col("weight", results.TypeFloat))
)

var (
	ann = person{"Ann", 31, 4.5, true, day(1)}
	bob = person{"Bob", 25, 3.0, false, day(2)}
	cid = person{"Cid", 40, 2.5, true, day(3)}
	dee = person{"Dee", 25, 5.0, true, day(4)}
	eve = person{"Eve", 25, 1.0, false, day(5)}
)

func init() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func day(d int) time.Time {
	return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC)
}

func setup(t testing.TB, schema *Schema) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	t.Logf("DB: %s", path)
	db := must(Open(path, schema, Options{
		IsTesting: true,
		Verbose:   true,
	}))
	t.Cleanup(func() { ensure(db.Close()) })
	return db
}

func setupMemory(t testing.TB, schema *Schema) *DB {
	t.Helper()
	db := must(OpenMemory(schema, Options{Verbose: true}))
	t.Cleanup(func() { ensure(db.Close()) })
	return db
}

// backends runs f against a Bolt-backed and an in-memory database.
func backends(t *testing.T, schema *Schema, f func(t *testing.T, db *DB)) {
	t.Run("bolt", func(t *testing.T) { f(t, setup(t, schema)) })
	t.Run("memory", func(t *testing.T) { f(t, setupMemory(t, schema)) })
}

func newSession(t testing.TB, db *DB) *Session {
	t.Helper()
	sess := must(db.Session())
	t.Cleanup(func() { sess.Close() })
	return sess
}

func insertPeople(t testing.TB, sess *Session, people ...person) []Row {
	t.Helper()
	tbl := sess.Table(peopleTable)
	var rows []Row
	err := sess.Write(func() error {
		for _, p := range people {
			row, err := tbl.Insert(p.name, p.age, p.score, p.active, p.born)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return rows
}

func names(rows []Row) []string {
	result := make([]string, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.Text("name"))
	}
	return result
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func valueEqual(t testing.TB, a, e results.Value) {
	if !a.Equal(e) {
		t.Helper()
		t.Errorf("** got %v (%v), wanted %v (%v)", a, a.Kind(), e, e.Kind())
	}
}

func isempty[T any, S ~[]T](t testing.TB, a S) {
	if len(a) > 0 {
		t.Helper()
		t.Errorf("** got %v, wanted empty slice", a)
	}
}

func assertPanics(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	fn()
}

func TestHexHelpers(t *testing.T) {
	if got := hexstr(nil); got != "<nil>" {
		t.Fatalf("hexstr(nil) = %q, wanted <nil>", got)
	}
	if got := hexstr([]byte{}); got != "<empty>" {
		t.Fatalf("hexstr(empty) = %q, wanted <empty>", got)
	}
	if got := hexstr([]byte{0xAA, 0xBB}); got != "aabb" {
		t.Fatalf("hexstr = %q, wanted aabb", got)
	}
	a := hexAttr("k", []byte{0xAA})
	if a.Key != "k" || a.Value.Kind() != slog.KindString {
		t.Fatalf("hexAttr returned unexpected attr: %+v", a)
	}
}

func TestRowKeys(t *testing.T) {
	raw := encodeRowKey(nil, 0x0102)
	deepEqual(t, raw, []byte{0, 0, 0, 0, 0, 0, 0x01, 0x02})

	key, ok := decodeRowKey(raw)
	if !ok || key != 0x0102 {
		t.Fatalf("decodeRowKey = (%d, %v), wanted (258, true)", key, ok)
	}
	if _, ok := decodeRowKey(raw[:7]); ok {
		t.Fatalf("decodeRowKey(short) = true, wanted false")
	}

	// big-endian keys sort numerically
	keys := [][]byte{encodeRowKey(nil, 300), encodeRowKey(nil, 2), encodeRowKey(nil, 1<<40)}
	slices.SortFunc(keys, func(a, b []byte) int { return slices.Compare(a, b) })
	got := make([]uint64, len(keys))
	for i, k := range keys {
		got[i], _ = decodeRowKey(k)
	}
	deepEqual(t, got, []uint64{2, 300, 1 << 40})
}

func TestNonNil(t *testing.T) {
	var b storageBucket
	assertPanics(t, func() { nonNil(b, "bucket") })
	if got := nonNil("x", "string"); got != "x" {
		t.Fatalf("nonNil = %q, wanted x", got)
	}
}

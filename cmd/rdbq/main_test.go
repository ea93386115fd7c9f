package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andreyvit/rdb/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := run(t, args...)
	require.NoError(t, err, "rdbq %s\n%s", strings.Join(args, " "), stderr)
	return out
}

// setupPeople creates a database with a people table and three rows.
func setupPeople(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "test.db")
	out := mustRun(t, "--db", db, "create", "people", "name:string", "age:int", "born:date-time")
	assert.Equal(t, "created people(name string, age int, born date-time)\n", out)

	out = mustRun(t, "--db", db, "insert", "people", "name=Ann", "age=31", "born=2020-01-01")
	assert.Equal(t, "people/1{name=Ann, age=31, born=2020-01-01T00:00:00Z}\n", out)
	mustRun(t, "--db", db, "insert", "people", "age=25", "name=Bob", "born=2020-01-02")
	mustRun(t, "--db", db, "insert", "people", "name=Cid", "age=40", "born=2020-01-03T00:00:00Z")
	return db
}

// table splits tabwriter output into rows of fields.
func table(out string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		rows = append(rows, strings.Fields(line))
	}
	return rows
}

func TestCount(t *testing.T) {
	db := setupPeople(t)
	assert.Equal(t, "3\n", mustRun(t, "--db", db, "count", "people"))
	assert.Equal(t, "2\n", mustRun(t, "--db", db, "count", "PEOPLE", "--where", "age:gt:26"))
	assert.Equal(t, "1\n", mustRun(t, "--db", db, "count", "people", "-w", "age:gt:26", "-w", "name:prefix:C"))
	assert.Equal(t, "0\n", mustRun(t, "--db", db, "count", "people", "-w", "born:lt:2019-12-31"))
}

func TestList(t *testing.T) {
	db := setupPeople(t)

	rows := table(mustRun(t, "--db", db, "list", "people"))
	assert.Equal(t, [][]string{
		{"#", "NAME", "AGE", "BORN"},
		{"0", "Ann", "31", "2020-01-01T00:00:00Z"},
		{"1", "Bob", "25", "2020-01-02T00:00:00Z"},
		{"2", "Cid", "40", "2020-01-03T00:00:00Z"},
	}, rows)

	rows = table(mustRun(t, "--db", db, "list", "people", "--sort", "age:desc", "-w", "name:ne:Bob"))
	assert.Equal(t, [][]string{
		{"#", "NAME", "AGE", "BORN"},
		{"2", "Cid", "40", "2020-01-03T00:00:00Z"},
		{"0", "Ann", "31", "2020-01-01T00:00:00Z"},
	}, rows)

	rows = table(mustRun(t, "--db", db, "list", "people", "-s", "age", "-n", "1"))
	require.Len(t, rows, 2)
	assert.Equal(t, "Bob", rows[1][1])
}

func TestAgg(t *testing.T) {
	db := setupPeople(t)
	assert.Equal(t, "40\n", mustRun(t, "--db", db, "agg", "max", "people", "age"))
	assert.Equal(t, "25\n", mustRun(t, "--db", db, "agg", "MIN", "people", "age"))
	assert.Equal(t, "96\n", mustRun(t, "--db", db, "agg", "sum", "people", "age"))
	assert.Equal(t, "32\n", mustRun(t, "--db", db, "agg", "avg", "people", "age"))
	assert.Equal(t, "28\n", mustRun(t, "--db", db, "agg", "average", "people", "age", "-w", "age:lt:35"))
	assert.Equal(t, "2020-01-03T00:00:00Z\n", mustRun(t, "--db", db, "agg", "max", "people", "born"))
	assert.Equal(t, "(none)\n", mustRun(t, "--db", db, "agg", "max", "people", "age", "-w", "age:gt:100"))

	_, _, err := run(t, "--db", db, "agg", "sum", "people", "born")
	assert.ErrorIs(t, err, results.ErrUnsupportedOperation)
	_, _, err = run(t, "--db", db, "agg", "max", "people", "name")
	assert.ErrorIs(t, err, results.ErrUnsupportedType)
	_, _, err = run(t, "--db", db, "agg", "median", "people", "age")
	assert.ErrorContains(t, err, `unknown aggregate "median"`)
	_, _, err = run(t, "--db", db, "agg", "max", "people", "height")
	assert.ErrorContains(t, err, "no column height")
}

func TestClear(t *testing.T) {
	db := setupPeople(t)
	assert.Equal(t, "deleted 1 rows\n", mustRun(t, "--db", db, "clear", "people", "-w", "age:lt:30"))
	assert.Equal(t, "2\n", mustRun(t, "--db", db, "count", "people"))
	assert.Equal(t, "deleted 0 rows\n", mustRun(t, "--db", db, "clear", "people", "-w", "age:lt:30"))
	assert.Equal(t, "deleted 2 rows\n", mustRun(t, "--db", db, "clear", "people"))
	assert.Equal(t, "0\n", mustRun(t, "--db", db, "count", "people"))

	// the key counter survives clearing
	out := mustRun(t, "--db", db, "insert", "people", "name=Dee", "age=1", "born=2021-01-01")
	assert.True(t, strings.HasPrefix(out, "people/4{"), out)
}

func TestCreate(t *testing.T) {
	db := setupPeople(t)
	out := mustRun(t, "--db", db, "create", "blobs", "data:binary", "weight:float")
	assert.Equal(t, "created blobs(data binary, weight float)\n", out)

	mustRun(t, "--db", db, "insert", "blobs", "data=cafe", "weight=1.5")
	assert.Equal(t, "3\n", mustRun(t, "--db", db, "count", "people"))

	rows := table(mustRun(t, "--db", db, "tables"))
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"TABLE", "ROWS", "SIZE", "COLUMNS"}, rows[0])
	// tables loaded from the catalog come in name order
	assert.Equal(t, []string{"blobs", "1"}, rows[1][:2])
	assert.Equal(t, "data:binary,", rows[1][3])
	assert.Equal(t, []string{"people", "3"}, rows[2][:2])
	assert.Equal(t, "name:string,", rows[2][3])

	for _, args := range [][]string{
		{"create", "people", "x:int"},
		{"create", "t2", "x"},
		{"create", "t2", "x:decimal"},
		{"create", "t2", "x:int", "X:bool"},
	} {
		_, _, err := run(t, append([]string{"--db", db}, args...)...)
		assert.Error(t, err, "%v", args)
	}
}

func TestInsert_errors(t *testing.T) {
	db := setupPeople(t)
	for _, args := range [][]string{
		{"insert", "people", "name=Dee"},
		{"insert", "people", "name=Dee", "age=1", "born=2020-01-01", "height=3"},
		{"insert", "people", "name=Dee", "name=Eve", "age=1", "born=2020-01-01"},
		{"insert", "people", "name=Dee", "age=old", "born=2020-01-01"},
		{"insert", "people", "name", "age=1", "born=2020-01-01"},
		{"insert", "nobody", "name=Dee"},
	} {
		_, _, err := run(t, append([]string{"--db", db}, args...)...)
		assert.Error(t, err, "%v", args)
	}
	assert.Equal(t, "3\n", mustRun(t, "--db", db, "count", "people"))
}

func TestQuery_errors(t *testing.T) {
	db := setupPeople(t)
	for _, args := range [][]string{
		{"count", "people", "-w", "age"},
		{"count", "people", "-w", "age:like:3"},
		{"count", "people", "-w", "height:eq:3"},
		{"list", "people", "-s", "height"},
		{"list", "people", "-s", "age:sideways"},
		{"count", "nobody"},
	} {
		_, _, err := run(t, append([]string{"--db", db}, args...)...)
		assert.Error(t, err, "%v", args)
	}
}

func TestDump(t *testing.T) {
	db := setupPeople(t)
	out := mustRun(t, "--db", db, "dump")
	assert.Contains(t, out, "people(name string, age int, born date-time) (3 rows)\n")
	assert.Contains(t, out, `people.1 = (k2) name="Bob" age=25 born="2020-01-02T00:00:00Z"`)
	assert.NotContains(t, out, "stats")

	out = mustRun(t, "--db", db, "dump", "--stats", "--meta", "--no-rows")
	assert.Contains(t, out, "people.stats: ")
	assert.Contains(t, out, "people.meta.next = 0000000000000004\n")
	assert.NotContains(t, out, "people.0 = ")
}

func TestConfig(t *testing.T) {
	db := setupPeople(t)

	_, _, err := run(t, "count", "people")
	assert.ErrorContains(t, err, "no database file")

	t.Setenv("RDBQ_DB", db)
	assert.Equal(t, "3\n", mustRun(t, "count", "people"))

	cfg := filepath.Join(t.TempDir(), "rdbq.yaml")
	t.Setenv("RDBQ_DB", "")
	require.NoError(t, os.WriteFile(cfg, []byte("db: "+db+"\nlog-level: debug\n"), 0o666))
	out, stderr, err := run(t, "--config", cfg, "count", "people")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
	assert.Contains(t, stderr, "session opened")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("db: [unclosed\n"), 0o666))
	_, _, err = run(t, "--config", bad, "count", "people")
	assert.ErrorContains(t, err, "error reading config file")

	_, _, err = run(t, "--db", db, "--log-level", "loud", "count", "people")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestConfig_precedence(t *testing.T) {
	db := setupPeople(t)
	missing := filepath.Join(t.TempDir(), "missing.db")
	cfg := filepath.Join(t.TempDir(), "rdbq.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("db: "+missing+"\n"), 0o666))

	// environment beats the config file
	t.Setenv("RDBQ_DB", db)
	assert.Equal(t, "3\n", mustRun(t, "--config", cfg, "count", "people"))

	// flags beat the environment
	t.Setenv("RDBQ_DB", missing)
	assert.Equal(t, "3\n", mustRun(t, "--config", cfg, "--db", db, "count", "people"))

	out, _, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "flags first, then RDBQ_* environment variables, then the\nconfig file")
}

func TestVerbose(t *testing.T) {
	db := setupPeople(t)
	_, stderr, err := run(t, "--db", db, "-v", "insert", "people", "name=Dee", "age=1", "born=2021-01-01")
	require.NoError(t, err)
	assert.Contains(t, stderr, "rdb: INSERT")
	assert.Contains(t, stderr, "rdb: COMMIT")

	_, stderr, err = run(t, "--db", db, "count", "people")
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

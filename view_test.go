package rdb

import (
	"errors"
	"testing"

	"github.com/andreyvit/rdb/results"
)

func TestView_sort(t *testing.T) {
	db := setupMemory(t, testSchema)
	sess := newSession(t, db)
	insertPeople(t, sess, ann, bob, cid, dee)
	tbl := sess.Table(peopleTable)

	v := tbl.Where().Materialize()
	v.Sort(results.SortBy(results.Descending(colAge), results.Ascending(colName)))
	deepEqual(t, names(v.Rows()), []string{"Cid", "Ann", "Bob", "Dee"})
	deepEqual(t, v.SortOrder(), results.SortBy(results.Descending(colAge), results.Ascending(colName)))

	// stable: ties keep their previous order
	v.Sort(results.SortBy(results.Ascending(colAge)))
	deepEqual(t, names(v.Rows()), []string{"Bob", "Dee", "Ann", "Cid"})

	v.Sort(results.SortBy(results.Ascending(colBorn)))
	deepEqual(t, names(v.Rows()), []string{"Ann", "Bob", "Cid", "Dee"})

	v.Sort(results.SortBy(results.Descending(colScore)))
	deepEqual(t, names(v.Rows()), []string{"Dee", "Ann", "Bob", "Cid"})

	v.Sort(results.SortBy(results.Ascending(colActive), results.Descending(colName)))
	deepEqual(t, names(v.Rows()), []string{"Bob", "Dee", "Cid", "Ann"})

	// an empty order restores table order
	v.Sort(nil)
	deepEqual(t, names(v.Rows()), []string{"Ann", "Bob", "Cid", "Dee"})

	assertPanics(t, func() { v.Sort(results.SortBy(results.Ascending(42))) })
}

func TestView_syncAfterChanges(t *testing.T) {
	backends(t, testSchema, func(t *testing.T, db *DB) {
		sess := newSession(t, db)
		insertPeople(t, sess, ann, bob, cid, dee)
		tbl := sess.Table(peopleTable)

		v := tbl.Where().Equal(colAge, 25).Materialize()
		v.Sort(results.SortBy(results.Descending(colName)))
		deepEqual(t, names(v.Rows()), []string{"Dee", "Bob"})
		deepEqual(t, v.IsStale(), false)

		insertPeople(t, sess, eve)
		deepEqual(t, v.IsStale(), true)
		deepEqual(t, v.Size(), 2)

		v.Sync()
		deepEqual(t, v.IsStale(), false)
		deepEqual(t, names(v.Rows()), []string{"Eve", "Dee", "Bob"})

		ensure(sess.Write(func() error {
			return tbl.Set(tbl.Row(3), colAge, 26)
		}))
		v.Sync()
		deepEqual(t, names(v.Rows()), []string{"Eve", "Bob"})
	})
}

func TestView_findBySourceIndex(t *testing.T) {
	db := setupMemory(t, testSchema)
	sess := newSession(t, db)
	insertPeople(t, sess, ann, bob, cid, dee)
	tbl := sess.Table(peopleTable)

	v := tbl.Where().Equal(colAge, 25).Materialize()
	v.Sort(results.SortBy(results.Descending(colName)))

	deepEqual(t, v.FindBySourceIndex(3), 0)
	deepEqual(t, v.FindBySourceIndex(1), 1)
	deepEqual(t, v.FindBySourceIndex(0), results.NotFound)
	deepEqual(t, v.FindBySourceIndex(4), results.NotFound)
	deepEqual(t, v.FindBySourceIndex(-1), results.NotFound)
}

func TestView_explicitRows(t *testing.T) {
	db := setupMemory(t, testSchema)
	sess := newSession(t, db)
	rows := insertPeople(t, sess, ann, bob, cid)
	tbl := sess.Table(peopleTable)

	v := tbl.NewView([]Row{rows[2], rows[0]})
	deepEqual(t, names(v.Rows()), []string{"Cid", "Ann"})
	deepEqual(t, v.RowAt(1).(Row), rows[0])

	ensure(sess.Write(func() error { return tbl.Delete(rows[2]) }))
	v.Sync()
	deepEqual(t, names(v.Rows()), []string{"Ann"})

	assertPanics(t, func() { sess.Table(blobsTable).NewView(rows) })
}

func TestView_clear(t *testing.T) {
	backends(t, testSchema, func(t *testing.T, db *DB) {
		sess := newSession(t, db)
		insertPeople(t, sess, ann, bob, cid, dee)
		tbl := sess.Table(peopleTable)

		v := tbl.Where().Equal(colAge, 25).Materialize()
		if err := v.Clear(); !errors.Is(err, ErrNotInTransaction) {
			t.Fatalf("Clear err = %v, wanted ErrNotInTransaction", err)
		}

		ensure(sess.Write(func() error {
			v.Sync()
			return v.Clear()
		}))
		deepEqual(t, v.Size(), 0)
		deepEqual(t, names(tbl.Rows()), []string{"Ann", "Cid"})
	})
}

func TestView_query(t *testing.T) {
	db := setupMemory(t, testSchema)
	sess := newSession(t, db)
	rows := insertPeople(t, sess, ann, bob, cid, dee)
	tbl := sess.Table(peopleTable)

	v := tbl.Where().Equal(colAge, 25).Materialize()
	q := v.Where()
	deepEqual(t, q.Count(), 2)

	insertPeople(t, sess, eve)
	deepEqual(t, q.Count(), 2)
	deepEqual(t, tbl.Where().Equal(colAge, 25).Count(), 3)

	// a view over explicit rows yields a query over exactly those rows
	ev := tbl.NewView([]Row{rows[2], rows[0]})
	deepEqual(t, names(ev.Query().FindAll().(*View).Rows()), []string{"Ann", "Cid"})
}

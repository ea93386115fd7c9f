/*
Package rdb is a small embedded table database with lazily evaluated results,
built on top of a key-value store (Bolt, or memory for tests).

A database has a fixed Schema of tables with typed columns. All access goes
through a Session, which holds a read snapshot between transactions and a
write transaction between BeginWrite and Commit. Tables, queries and views
obtained from a session are bound to it; results (see package results) built
from them may only be used with the same session.

# Technical Details

**Buckets.**
Each table lives in a root bucket named "t:" + table name, with two nested
buckets: "data" holds the rows and "meta" holds the next row key. A root
"catalog" bucket maps table names to their column lists, so a database file
can be opened without knowing its schema in advance.

**Row keys.**
Rows are keyed by a uint64 allocated from a per-table counter and stored
big-endian, so cursor order is insertion order. Row keys are never reused.
A row's position is its ordinal in key order.

**Row encoding.**
A row is a msgpack array with one element per column, in column order.

**Snapshots.**
A session's table accessor caches decoded rows in memory. The cache is
updated in place by mutations and dropped at every transaction boundary;
each change bumps the table's generation, which views compare against to
decide whether to re-sync.
*/
package rdb

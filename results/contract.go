package results

// NotFound is returned by the IndexOf family when a valid row or position is
// not a member of the results.
const NotFound = -1

// Context is the session a Results is confined to. Results bind their owning
// Context at construction; every operation receives the caller's Context and
// compares the two.
type Context interface {
	// ID identifies the context in error messages.
	ID() string

	// InWriteTransaction reports whether the context may mutate its tables.
	InWriteTransaction() bool
}

// Row is a handle to a single table row. It stays usable after the row is
// deleted, but IsValid starts returning false.
type Row interface {
	IsValid() bool

	// Table returns the table the row belongs to. Results compare it to their
	// own source table by identity.
	Table() Table

	// Index is the row's current position within its table.
	Index() int

	// Value returns the value of the given column.
	Value(column int) Value
}

// RowSet is what Table and View have in common: a positional sequence of rows
// that can be cleared and aggregated.
type RowSet interface {
	Size() int

	// RowAt returns the row at position i; 0 <= i < Size() is the caller's
	// responsibility.
	RowAt(i int) Row

	// Clear deletes every row of the set from the underlying table.
	Clear() error

	// Aggregate reduces the given column over the set. Callers have already
	// checked that the column's type supports op. Returns false when the set
	// is empty.
	Aggregate(column int, op AggregateOp) (Value, bool)
}

type Table interface {
	RowSet

	Name() string

	// IsAttached reports whether the table is still bound to live storage.
	IsAttached() bool

	ColumnCount() int
	ColumnName(column int) string
	ColumnType(column int) ColumnType

	// MatchAll returns a new query matching every row of the table.
	MatchAll() Query
}

// Query is an unevaluated predicate over a table. Implementations must make
// And and Copy return queries that share no mutable state with the receiver.
type Query interface {
	Table() Table

	Count() int

	// CountRange counts matches among table positions [start, end).
	CountRange(start, end int) int

	// FindAll evaluates the predicate into a view, in table order.
	FindAll() View

	// Remove deletes every matching row and returns how many were deleted.
	Remove() (int, error)

	And(other Query) Query
	Copy() Query
}

// View is a materialized, ordered sequence of rows of one table.
type View interface {
	RowSet

	Table() Table

	// Sort reorders the view; the order sticks across Sync.
	Sort(order SortOrder)

	// Sync brings the view up to date with the table if the table changed
	// since the last sync; otherwise it does nothing.
	Sync()

	// FindBySourceIndex maps a table position to a view position, or NotFound.
	FindBySourceIndex(pos int) int

	// Query returns a new query matching exactly the rows of the view.
	Query() Query
}

/*
Package results implements lazy results views over a table engine.

A Results stands for one of:

1. Nothing at all (Empty).

2. Every row of a table, in table order (New).

3. The rows matching a query, optionally sorted (NewQuery).

4. A previously materialized, explicitly ordered view.

No predicate is evaluated and nothing is sorted until the rows are actually
observed. Once a query has been materialized, the view is kept and synced
against the table before every read that depends on row positions, so reads
always reflect the latest table state visible to the owning context.

# Contract

The package does not store anything itself. It talks to the engine through
the Table, Query, View and Row interfaces, and to the session that owns the
tables through Context. Every operation takes the caller's Context and fails
with WrongContextError when it is not the one the results were created in.

# Errors

All failures are usage errors and are reported with the typed errors in
errors.go. Each of them matches a sentinel with errors.Is, e.g.

	if errors.Is(err, results.ErrOutOfBounds) { ... }
*/
package results

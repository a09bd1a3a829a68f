package types

import "context"

// Conn is the raw side of a SQL backend. It runs literal SQL and hands out
// per-table accessors for the structured primitives.
type Conn interface {
	// Run executes query and returns every row it produced. Statements that
	// produce no rows return an empty slice.
	Run(ctx context.Context, query string) ([]Row, error)

	// Table returns the structured accessor for the named table.
	Table(name string) (Table, error)
}

// Dialect is implemented by connections that report their SQL driver.
// Connections that do not are treated as PostgreSQL.
type Dialect interface {
	Driver() string
}

// Table provides structured, primary-key based operations on one table.
type Table interface {
	// Find returns the rows matching conditions, shaped by opts.
	Find(ctx context.Context, conditions Conditions, opts FindOptions) ([]Row, error)

	// FindOne returns the row with the given id, or nil when none exists.
	FindOne(ctx context.Context, id int64) (Row, error)

	// Insert stores data and returns the stored row.
	Insert(ctx context.Context, data Row) (Row, error)

	// Update writes data to the row with the given id and returns the
	// affected rows.
	Update(ctx context.Context, id int64, data Row) ([]Row, error)

	// Destroy deletes the row with the given id and returns the deleted rows.
	Destroy(ctx context.Context, id int64) ([]Row, error)
}

// Package sqldb implements the SQL backend collections run against. It
// satisfies types.Conn for raw statements and types.Table for the
// structured, primary-key based primitives.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/aluzed/massive-collections/internal/condition"
	"github.com/aluzed/massive-collections/pkg/types"
)

// identPattern restricts table names to plain SQL identifiers.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Backend owns a *sql.DB and hands out per-table accessors.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	driver   string
	db       *sql.DB
	tables   map[string]*Table
}

// NewBackend creates a new backend instance.
// The backend is not attached; call Attach with a Config to connect.
func NewBackend() *Backend {
	return &Backend{
		tables: make(map[string]*Table),
	}
}

// Attach opens a connection pool for config and verifies it with a ping.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	db, err := sql.Open(config.Driver, config.DataSourceName())
	if err != nil {
		return fmt.Errorf("open %s: %w", config.Driver, err)
	}
	if config.Driver == types.DriverSQLite {
		// Every connection to ":memory:" is its own database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("ping %s: %w", config.Driver, err)
	}

	if err := b.AttachDB(config.Driver, db); err != nil {
		db.Close()
		return err
	}
	return nil
}

// AttachDB attaches an already opened pool. driver selects the placeholder
// style and must be one of the known drivers.
func (b *Backend) AttachDB(driver string, db *sql.DB) error {
	if driver != types.DriverPostgres && driver != types.DriverSQLite {
		return fmt.Errorf("%w: %q", types.ErrDriverUnknown, driver)
	}
	if db == nil {
		return fmt.Errorf("%w: db", types.ErrMissingArg)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	b.db = db
	b.driver = driver
	b.attached = true
	return nil
}

// Detach closes the pool. After Detach, all operations return ErrDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.tables = make(map[string]*Table)
	return nil
}

// Driver returns the attached driver name, or "" when detached.
func (b *Backend) Driver() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.driver
}

// Run executes a literal statement and returns every row it produced.
func (b *Backend) Run(ctx context.Context, query string) ([]types.Row, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.query(ctx, query)
}

// Table returns the accessor for the named table. Accessors are created on
// first use and cached until Detach.
func (b *Backend) Table(name string) (types.Table, error) {
	if !identPattern.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidTable, name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	t, ok := b.tables[name]
	if !ok {
		t = &Table{name: name, backend: b}
		b.tables[name] = t
	}
	return t, nil
}

func (b *Backend) placeholder() condition.Placeholder {
	if b.driver == types.DriverPostgres {
		return condition.Dollar
	}
	return condition.Question
}

// query runs q with args. The caller must hold b.mu.
func (b *Backend) query(ctx context.Context, q string, args ...any) ([]types.Row, error) {
	rows, err := b.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// scanRows reads every row into a types.Row keyed by column name. Byte
// slices are returned as strings.
func scanRows(rows *sql.Rows) ([]types.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []types.Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(types.Row, len(cols))
		for i, col := range cols {
			if raw, ok := values[i].([]byte); ok {
				row[col] = string(raw)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

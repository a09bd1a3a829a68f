package sqldb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aluzed/massive-collections/internal/condition"
	"github.com/aluzed/massive-collections/internal/query"
	"github.com/aluzed/massive-collections/pkg/types"
)

// Table implements types.Table for one SQL table. Statements use quoted
// identifiers and bound parameters.
type Table struct {
	name    string
	backend *Backend
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Find returns the rows matching conditions, shaped by opts.
func (t *Table) Find(ctx context.Context, conditions types.Conditions, opts types.FindOptions) ([]types.Row, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.backend.attached {
		return nil, types.ErrDetached
	}

	b := condition.NewBinder(t.backend.placeholder())
	where, err := condition.WhereBound(conditions, b)
	if err != nil {
		return nil, err
	}

	fields := "*"
	if len(opts.Columns) > 0 {
		quoted := make([]string, len(opts.Columns))
		for i, c := range opts.Columns {
			quoted[i] = quoteIdent(c)
		}
		fields = strings.Join(quoted, ", ")
	}

	q := "SELECT " + fields + " FROM " + quoteIdent(t.name)
	if where != "" {
		q += " WHERE " + where
	}
	if len(opts.Order) > 0 {
		q += " ORDER BY " + query.OrderBy(opts.Order)
	}
	switch {
	case opts.Limit != nil:
		q += " LIMIT " + b.Bind(*opts.Limit)
	case opts.Offset != nil && t.backend.driver == types.DriverSQLite:
		// SQLite only accepts OFFSET after a LIMIT.
		q += " LIMIT -1"
	}
	if opts.Offset != nil {
		q += " OFFSET " + b.Bind(*opts.Offset)
	}

	return t.backend.query(ctx, q, b.Args()...)
}

// FindOne returns the row with the given id, or nil when none exists.
func (t *Table) FindOne(ctx context.Context, id int64) (types.Row, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.backend.attached {
		return nil, types.ErrDetached
	}

	b := condition.NewBinder(t.backend.placeholder())
	q := "SELECT * FROM " + quoteIdent(t.name) + " WHERE " + quoteIdent(types.IDField) + " = " + b.Bind(id) + " LIMIT 1"
	rows, err := t.backend.query(ctx, q, b.Args()...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Insert stores data and returns the stored row.
func (t *Table) Insert(ctx context.Context, data types.Row) (types.Row, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("insert into %s: %w", t.name, types.ErrCannotBeEmpty)
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.backend.attached {
		return nil, types.ErrDetached
	}

	b := condition.NewBinder(t.backend.placeholder())
	keys := sortedFields(data)
	cols := make([]string, len(keys))
	vals := make([]string, len(keys))
	for i, k := range keys {
		cols[i] = quoteIdent(k)
		vals[i] = b.Bind(data[k])
	}

	q := "INSERT INTO " + quoteIdent(t.name) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(vals, ", ") + ") RETURNING *"
	rows, err := t.backend.query(ctx, q, b.Args()...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert into %s: %w", t.name, types.ErrMalformedResult)
	}
	return rows[0], nil
}

// Update writes data to the row with the given id and returns the updated
// rows. An unknown id yields an empty slice.
func (t *Table) Update(ctx context.Context, id int64, data types.Row) ([]types.Row, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("update %s: %w", t.name, types.ErrCannotBeEmpty)
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.backend.attached {
		return nil, types.ErrDetached
	}

	b := condition.NewBinder(t.backend.placeholder())
	keys := sortedFields(data)
	sets := make([]string, len(keys))
	for i, k := range keys {
		sets[i] = quoteIdent(k) + " = " + b.Bind(data[k])
	}

	q := "UPDATE " + quoteIdent(t.name) + " SET " + strings.Join(sets, ", ") +
		" WHERE " + quoteIdent(types.IDField) + " = " + b.Bind(id) + " RETURNING *"
	return t.backend.query(ctx, q, b.Args()...)
}

// Destroy deletes the row with the given id and returns the deleted rows.
func (t *Table) Destroy(ctx context.Context, id int64) ([]types.Row, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.backend.attached {
		return nil, types.ErrDetached
	}

	b := condition.NewBinder(t.backend.placeholder())
	q := "DELETE FROM " + quoteIdent(t.name) + " WHERE " + quoteIdent(types.IDField) + " = " + b.Bind(id) + " RETURNING *"
	return t.backend.query(ctx, q, b.Args()...)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sortedFields(data types.Row) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

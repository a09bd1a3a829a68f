package collection

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/spf13/cast"

	"github.com/aluzed/massive-collections/internal/query"
	"github.com/aluzed/massive-collections/pkg/types"
)

// Collection is the data-access facade for one table.
type Collection struct {
	name     string
	registry *Registry
	logger   *slog.Logger

	mu   sync.RWMutex
	conn types.Conn
	pre  map[types.Operation]PreHookFunc
	post map[types.Operation]PostHookFunc
	toDB Formatter
	toJS Formatter
}

// New creates a collection for tableName. Returns ErrMissingArg if
// tableName is empty.
func New(tableName string, opts ...Option) (*Collection, error) {
	if tableName == "" {
		return nil, fmt.Errorf("%w: tableName", types.ErrMissingArg)
	}

	c := &Collection{
		name:   tableName,
		logger: slog.Default(),
		pre:    make(map[types.Operation]PreHookFunc),
		post:   make(map[types.Operation]PostHookFunc),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("table", tableName)

	if c.registry != nil {
		c.registry.Register(c)
	}
	return c, nil
}

// Name returns the table name.
func (c *Collection) Name() string { return c.name }

// SetConn sets or replaces the connection after construction.
func (c *Collection) SetConn(conn types.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

func (c *Collection) connection() (types.Conn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil {
		return nil, types.ErrNotConnected
	}
	return c.conn, nil
}

func (c *Collection) table() (types.Table, error) {
	conn, err := c.connection()
	if err != nil {
		return nil, err
	}
	return conn.Table(c.name)
}

// run sends a literal statement through the connection.
func (c *Collection) run(ctx context.Context, log *slog.Logger, op types.Operation, q string) ([]types.Row, error) {
	conn, err := c.connection()
	if err != nil {
		return nil, err
	}
	log.DebugContext(ctx, "run", "op", string(op), "sql", q)
	rows, err := conn.Run(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, c.name, err)
	}
	return rows, nil
}

// Get returns the row with the given id, or nil when none exists.
func (c *Collection) Get(ctx context.Context, id int64) (types.Row, error) {
	tbl, err := c.table()
	if err != nil {
		return nil, err
	}
	if _, err := c.before(ctx, types.OpGet, nil); err != nil {
		return nil, err
	}

	row, err := tbl.FindOne(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", c.name, id, err)
	}
	row = c.formatJS(row)
	c.after(ctx, types.OpGet, row)
	return row, nil
}

// Insert stores data and returns the stored row.
// Returns ErrInvalidFormat for a nil map and ErrCannotBeEmpty for an empty
// one.
func (c *Collection) Insert(ctx context.Context, data types.Row) (types.Row, error) {
	if err := validatePayload(data); err != nil {
		return nil, err
	}
	tbl, err := c.table()
	if err != nil {
		return nil, err
	}

	payload := c.formatDB(data.Clone())
	if payload, err = c.before(ctx, types.OpInsert, payload); err != nil {
		return nil, err
	}

	row, err := tbl.Insert(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", c.name, err)
	}
	row = c.formatJS(row)
	c.after(ctx, types.OpInsert, row)
	return row, nil
}

// Update writes data to the row with the given id. The backend returns the
// affected rows; only the first one is returned, nil when none matched.
func (c *Collection) Update(ctx context.Context, id int64, data types.Row) (types.Row, error) {
	if err := validatePayload(data); err != nil {
		return nil, err
	}
	tbl, err := c.table()
	if err != nil {
		return nil, err
	}

	payload := c.formatDB(data.Clone())
	if payload, err = c.before(ctx, types.OpUpdate, payload); err != nil {
		return nil, err
	}

	rows, err := tbl.Update(ctx, id, payload)
	if err != nil {
		return nil, fmt.Errorf("update %s %d: %w", c.name, id, err)
	}
	row := c.formatJS(first(rows))
	c.after(ctx, types.OpUpdate, row)
	return row, nil
}

// Remove deletes the row with the given id and returns it, nil when none
// matched.
func (c *Collection) Remove(ctx context.Context, id int64) (types.Row, error) {
	tbl, err := c.table()
	if err != nil {
		return nil, err
	}
	if _, err := c.before(ctx, types.OpRemove, nil); err != nil {
		return nil, err
	}

	rows, err := tbl.Destroy(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("remove %s %d: %w", c.name, id, err)
	}
	row := c.formatJS(first(rows))
	c.after(ctx, types.OpRemove, row)
	return row, nil
}

// Flush truncates the table. With resetSequence, the id sequence is
// restarted afterwards so the next insert receives id 1. The flush
// post-hook runs between the two statements.
func (c *Collection) Flush(ctx context.Context, resetSequence bool) error {
	conn, err := c.connection()
	if err != nil {
		return err
	}
	if _, err := c.before(ctx, types.OpFlush, nil); err != nil {
		return err
	}

	driver := driverOf(conn)
	rows, err := c.run(ctx, c.logger, types.OpFlush, query.Truncate(driver, c.name))
	if err != nil {
		return err
	}
	c.after(ctx, types.OpFlush, rows)

	if resetSequence {
		if _, err := c.run(ctx, c.logger, types.OpFlush, query.RestartSequence(driver, c.name)); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of rows matching conds. A nil or empty map
// counts every row.
func (c *Collection) Count(ctx context.Context, conds types.Conditions) (int64, error) {
	q, err := query.Count(c.name, conds)
	if err != nil {
		return 0, err
	}
	if _, err := c.connection(); err != nil {
		return 0, err
	}
	if _, err := c.before(ctx, types.OpCount, conditionsPayload(conds)); err != nil {
		return 0, err
	}

	rows, err := c.run(ctx, c.logger, types.OpCount, q)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("count %s: %w", c.name, types.ErrMalformedResult)
	}
	raw, ok := rows[0]["count"]
	if !ok {
		return 0, fmt.Errorf("count %s: %w", c.name, types.ErrCountMissing)
	}
	n, err := cast.ToInt64E(raw)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w: %v", c.name, types.ErrMalformedResult, err)
	}

	c.after(ctx, types.OpCount, n)
	return n, nil
}

// Find returns the rows matching conds, shaped by opts. Conditions, "or"
// members or order fields that reach into a JSONB document are compiled to
// literal SQL and sent through Conn.Run; everything else goes to the
// table's structured Find.
func (c *Collection) Find(ctx context.Context, conds types.Conditions, opts types.FindOptions) ([]types.Row, error) {
	route := query.Route(conds, opts)

	var raw string
	if route == query.JSONB {
		q, err := query.Select(c.name, conds, opts)
		if err != nil {
			return nil, err
		}
		raw = q
	}

	tbl, err := c.table()
	if err != nil {
		return nil, err
	}
	if _, err := c.before(ctx, types.OpFind, conditionsPayload(conds)); err != nil {
		return nil, err
	}

	var rows []types.Row
	if route == query.JSONB {
		rows, err = c.run(ctx, c.logger, types.OpFind, raw)
	} else {
		rows, err = tbl.Find(ctx, conds, opts)
		if err != nil {
			err = fmt.Errorf("find %s: %w", c.name, err)
		}
	}
	if err != nil {
		return nil, err
	}

	rows = c.formatAllJS(rows)
	c.after(ctx, types.OpFind, rows)
	return rows, nil
}

// driverOf names the SQL dialect of conn, defaulting to PostgreSQL.
func driverOf(conn types.Conn) string {
	if d, ok := conn.(types.Dialect); ok && d.Driver() != "" {
		return d.Driver()
	}
	return types.DriverPostgres
}

func validatePayload(data types.Row) error {
	if data == nil {
		return fmt.Errorf("%w: data", types.ErrInvalidFormat)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: data", types.ErrCannotBeEmpty)
	}
	return nil
}

// conditionsPayload hands a pre-hook a copy of the conditions.
func conditionsPayload(conds types.Conditions) types.Row {
	if conds == nil {
		return nil
	}
	return types.Row(maps.Clone(conds))
}

func first(rows []types.Row) types.Row {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

package collection

import (
	"context"
	"fmt"
	"sync"

	"github.com/aluzed/massive-collections/pkg/types"
)

// PreHookFunc runs before an operation reaches the backend. It receives
// the outgoing payload: the row for insert, update and updateAll, a copy
// of the conditions for find, count and removeAll, nil otherwise. For
// insert, update and updateAll a non-nil returned row replaces the
// payload and a nil row keeps it. Rows returned for any other operation
// are ignored; the conditions copy is read-only. A returned error aborts
// the operation.
type PreHookFunc func(ctx context.Context, c *Collection, data types.Row) (types.Row, error)

// PostHookFunc runs after an operation completes, before its result is
// returned. result is the operation's return value: a types.Row, a
// []types.Row, an int64 for count, or the TRUNCATE rows for flush.
type PostHookFunc func(ctx context.Context, c *Collection, result any)

// Formatter transforms a row on its way to or from the database.
type Formatter func(types.Row) types.Row

// Continuation adapts a hook written in continuation style. The operation
// waits until the hook calls next; a hook that never calls it stalls the
// operation until ctx is done. Calling next with nil keeps the payload.
// Only the first call to next counts.
func Continuation(fn func(next func(types.Row), c *Collection, data types.Row)) PreHookFunc {
	return func(ctx context.Context, c *Collection, data types.Row) (types.Row, error) {
		done := make(chan types.Row, 1)
		var once sync.Once
		next := func(r types.Row) {
			once.Do(func() { done <- r })
		}

		go fn(next, c, data)

		select {
		case r := <-done:
			return r, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// PreHook sets the pre-hook for the named operation, replacing any
// previous one.
func (c *Collection) PreHook(name string, fn PreHookFunc) error {
	op, err := types.ParseOperation(name)
	if err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%w: callback", types.ErrInvalidFormat)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pre[op] = fn
	return nil
}

// PostHook sets the post-hook for the named operation, replacing any
// previous one.
func (c *Collection) PostHook(name string, fn PostHookFunc) error {
	op, err := types.ParseOperation(name)
	if err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%w: callback", types.ErrInvalidFormat)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.post[op] = fn
	return nil
}

// DBFormat sets the formatter applied to payloads before they are written.
func (c *Collection) DBFormat(fn Formatter) error {
	if fn == nil {
		return fmt.Errorf("%w: db formatter", types.ErrInvalidFormat)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toDB = fn
	return nil
}

// JSFormat sets the formatter applied to every row read back.
func (c *Collection) JSFormat(fn Formatter) error {
	if fn == nil {
		return fmt.Errorf("%w: js formatter", types.ErrInvalidFormat)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toJS = fn
	return nil
}

// before runs the pre-hook for op, if any. The slot is read when the step
// executes.
func (c *Collection) before(ctx context.Context, op types.Operation, data types.Row) (types.Row, error) {
	c.mu.RLock()
	fn := c.pre[op]
	c.mu.RUnlock()

	if fn == nil {
		return data, nil
	}
	out, err := fn(ctx, c, data)
	if err != nil {
		return nil, fmt.Errorf("%s pre-hook: %w", op, err)
	}
	if out == nil {
		return data, nil
	}
	return out, nil
}

// after runs the post-hook for op, if any.
func (c *Collection) after(ctx context.Context, op types.Operation, result any) {
	c.mu.RLock()
	fn := c.post[op]
	c.mu.RUnlock()

	if fn != nil {
		fn(ctx, c, result)
	}
}

func (c *Collection) formatDB(data types.Row) types.Row {
	c.mu.RLock()
	fn := c.toDB
	c.mu.RUnlock()

	if fn == nil {
		return data
	}
	return fn(data)
}

func (c *Collection) formatJS(row types.Row) types.Row {
	c.mu.RLock()
	fn := c.toJS
	c.mu.RUnlock()

	if fn == nil || row == nil {
		return row
	}
	return fn(row)
}

func (c *Collection) formatAllJS(rows []types.Row) []types.Row {
	for i, r := range rows {
		rows[i] = c.formatJS(r)
	}
	return rows
}

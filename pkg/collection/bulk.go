package collection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/aluzed/massive-collections/internal/condition"
	"github.com/aluzed/massive-collections/internal/query"
	"github.com/aluzed/massive-collections/pkg/types"
)

// UpdateAll writes data to every row matching conds and returns the rows
// as they read after the update.
//
// The update runs in three statements that share no transaction: a SELECT
// collects the matching ids, an UPDATE with the same predicate writes the
// data, and a SELECT by id re-reads the rows. When nothing matches no
// UPDATE is issued and an empty slice is returned. A failure in a later
// statement does not undo an earlier one.
func (c *Collection) UpdateAll(ctx context.Context, conds types.Conditions, data types.Row) ([]types.Row, error) {
	if err := validatePayload(data); err != nil {
		return nil, err
	}
	selectSQL, err := query.SelectWhere(c.name, conds)
	if err != nil {
		return nil, err
	}
	if _, err := c.connection(); err != nil {
		return nil, err
	}

	payload := c.formatDB(data.Clone())
	if payload, err = c.before(ctx, types.OpUpdateAll, payload); err != nil {
		return nil, err
	}
	updateSQL, err := query.Update(c.name, conds, payload)
	if err != nil {
		return nil, err
	}

	log := c.batchLogger()
	candidates, err := c.run(ctx, log, types.OpUpdateAll, selectSQL)
	if err != nil {
		return nil, err
	}
	ids, err := rowIDs(candidates)
	if err != nil {
		return nil, fmt.Errorf("updateAll %s: %w", c.name, err)
	}
	if len(ids) == 0 {
		rows := []types.Row{}
		c.after(ctx, types.OpUpdateAll, rows)
		return rows, nil
	}

	if _, err := c.run(ctx, log, types.OpUpdateAll, updateSQL); err != nil {
		return nil, err
	}

	refetch, err := query.SelectByIDs(c.name, ids)
	if err != nil {
		return nil, err
	}
	rows, err := c.run(ctx, log, types.OpUpdateAll, refetch)
	if err != nil {
		return nil, err
	}

	rows = c.formatAllJS(rows)
	c.after(ctx, types.OpUpdateAll, rows)
	return rows, nil
}

// RemoveAll deletes every row matching conds and returns the rows as they
// read before the delete. conds must be a non-nil map that compiles to a
// non-empty WHERE clause, so {"or": []} is rejected too; use Flush to
// empty a table.
//
// A SELECT captures the matching rows, then a DELETE by their ids removes
// them. The captured rows are returned without re-reading the table.
func (c *Collection) RemoveAll(ctx context.Context, conds types.Conditions) ([]types.Row, error) {
	if conds == nil {
		return nil, fmt.Errorf("%w: conditions", types.ErrInvalidFormat)
	}
	if len(conds) == 0 {
		return nil, types.ErrEmptyConditions
	}
	where, err := condition.Where(conds)
	if err != nil {
		return nil, err
	}
	if where == "" {
		return nil, types.ErrEmptyConditions
	}
	selectSQL, err := query.SelectWhere(c.name, conds)
	if err != nil {
		return nil, err
	}
	if _, err := c.connection(); err != nil {
		return nil, err
	}
	if _, err := c.before(ctx, types.OpRemoveAll, conditionsPayload(conds)); err != nil {
		return nil, err
	}

	log := c.batchLogger()
	snapshot, err := c.run(ctx, log, types.OpRemoveAll, selectSQL)
	if err != nil {
		return nil, err
	}
	ids, err := rowIDs(snapshot)
	if err != nil {
		return nil, fmt.Errorf("removeAll %s: %w", c.name, err)
	}
	if len(ids) == 0 {
		rows := []types.Row{}
		c.after(ctx, types.OpRemoveAll, rows)
		return rows, nil
	}

	del, err := query.DeleteByIDs(c.name, ids)
	if err != nil {
		return nil, err
	}
	if _, err := c.run(ctx, log, types.OpRemoveAll, del); err != nil {
		return nil, err
	}

	snapshot = c.formatAllJS(snapshot)
	c.after(ctx, types.OpRemoveAll, snapshot)
	return snapshot, nil
}

// batchLogger tags every statement of one bulk call with a shared id.
func (c *Collection) batchLogger() *slog.Logger {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return c.logger.With("batch", id.String())
}

// rowIDs extracts the id column of every row.
func rowIDs(rows []types.Row) ([]int64, error) {
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		raw, ok := r[types.IDField]
		if !ok || raw == nil {
			return nil, fmt.Errorf("%w: row without %s", types.ErrMalformedResult, types.IDField)
		}
		id, err := cast.ToInt64E(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrMalformedResult, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

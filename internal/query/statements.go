package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aluzed/massive-collections/internal/condition"
	"github.com/aluzed/massive-collections/pkg/types"
)

// Select builds
//
//	SELECT <columns|*> FROM <table> [WHERE ...] [ORDER BY ...] [LIMIT n] [OFFSET n]
func Select(table string, conds types.Conditions, opts types.FindOptions) (string, error) {
	where, err := condition.Where(conds)
	if err != nil {
		return "", err
	}

	fields := "*"
	if len(opts.Columns) > 0 {
		fields = strings.Join(opts.Columns, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(fields)
	sb.WriteString(" FROM ")
	sb.WriteString(table)
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if len(opts.Order) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(OrderBy(opts.Order))
	}
	if opts.Limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(*opts.Limit))
	}
	if opts.Offset != nil {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(*opts.Offset))
	}
	return sb.String(), nil
}

// OrderBy renders order terms, casting fields that carry a Type:
//
//	(details->>'age')::int DESC
func OrderBy(order []types.OrderSpec) string {
	terms := make([]string, len(order))
	for i, o := range order {
		field := o.Field
		if o.Type != "" {
			field = "(" + field + ")::" + o.Type
		}
		terms[i] = field + " " + o.Dir()
	}
	return strings.Join(terms, ", ")
}

// Count builds SELECT count(id) AS count FROM <table> [WHERE ...].
func Count(table string, conds types.Conditions) (string, error) {
	where, err := condition.Where(conds)
	if err != nil {
		return "", err
	}
	q := "SELECT count(" + types.IDField + ") AS count FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	return q, nil
}

// SelectWhere builds SELECT * FROM <table> [WHERE ...]. It is the selection
// phase of the bulk protocols.
func SelectWhere(table string, conds types.Conditions) (string, error) {
	return Select(table, conds, types.FindOptions{})
}

// Update builds UPDATE <table> SET ... [WHERE ...] with literal values.
func Update(table string, conds types.Conditions, data types.Row) (string, error) {
	if len(data) == 0 {
		return "", types.ErrCannotBeEmpty
	}
	set, err := condition.SetClause(data)
	if err != nil {
		return "", err
	}
	where, err := condition.Where(conds)
	if err != nil {
		return "", err
	}
	q := "UPDATE " + table + " SET " + set
	if where != "" {
		q += " WHERE " + where
	}
	return q, nil
}

// SelectByIDs builds SELECT * FROM <table> WHERE id IN (...).
func SelectByIDs(table string, ids []int64) (string, error) {
	list, err := idList(ids)
	if err != nil {
		return "", err
	}
	return "SELECT * FROM " + table + " WHERE " + types.IDField + " IN " + list, nil
}

// DeleteByIDs builds DELETE FROM <table> WHERE id IN (...).
func DeleteByIDs(table string, ids []int64) (string, error) {
	list, err := idList(ids)
	if err != nil {
		return "", err
	}
	return "DELETE FROM " + table + " WHERE " + types.IDField + " IN " + list, nil
}

// Truncate builds the statement that empties a table: TRUNCATE on
// PostgreSQL, DELETE FROM on SQLite, which has no TRUNCATE.
func Truncate(driver, table string) string {
	if driver == types.DriverSQLite {
		return "DELETE FROM " + table
	}
	return "TRUNCATE " + table
}

// RestartSequence builds the statement that resets the id sequence of a
// table so the next insert receives id 1. On SQLite the AUTOINCREMENT
// counter lives in sqlite_sequence.
func RestartSequence(driver, table string) string {
	if driver == types.DriverSQLite {
		return "DELETE FROM sqlite_sequence WHERE name = '" + table + "'"
	}
	return "ALTER SEQUENCE " + table + "_" + types.IDField + "_seq RESTART"
}

func idList(ids []int64) (string, error) {
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: id list", types.ErrCannotBeEmpty)
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "(" + strings.Join(parts, ",") + ")", nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aluzed/massive-collections/pkg/collection"
	"github.com/aluzed/massive-collections/pkg/sqldb"
	"github.com/aluzed/massive-collections/pkg/types"
)

func newFindCmd(a *app) *cobra.Command {
	var (
		where   string
		order   []string
		columns []string
		limit   int
		offset  int
	)

	cmd := &cobra.Command{
		Use:   "find <table>",
		Short: "Find rows in a table",
		Long: `Find rows matching a JSON condition map.

Condition keys are a field optionally followed by an operator:
  >, <, >=, <=, <> (NOT IN), != (IS NOT), IN, LIKE, NOT LIKE,
  ILIKE, NOT ILIKE, SIMILAR TO, NOT SIMILAR TO.
The reserved key "or" takes a list of condition maps.

Order terms are field[:direction[:type]].`,
		Example: `  massive-collections find users --where '{"age >": 18}' --order age:desc --limit 10
  massive-collections find users --where '{"details->>'"'"'city'"'"'": "Paris"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conds, err := parseWhere(where)
			if err != nil {
				return err
			}
			opts := types.FindOptions{Columns: columns}
			for _, o := range order {
				opts.Order = append(opts.Order, parseOrder(o))
			}
			if cmd.Flags().Changed("limit") {
				opts.Limit = &limit
			}
			if cmd.Flags().Changed("offset") {
				opts.Offset = &offset
			}

			return a.withCollection(args[0], func(c *collection.Collection) error {
				rows, err := c.Find(cmd.Context(), conds, opts)
				if err != nil {
					return err
				}
				return a.printRows(cmd, rows)
			})
		},
	}

	cmd.Flags().StringVar(&where, "where", "", "JSON condition map")
	cmd.Flags().StringArrayVar(&order, "order", nil, "order term field[:direction[:type]] (repeatable)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to return")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	return cmd
}

func newCountCmd(a *app) *cobra.Command {
	var where string

	cmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Count rows in a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conds, err := parseWhere(where)
			if err != nil {
				return err
			}
			return a.withCollection(args[0], func(c *collection.Collection) error {
				n, err := c.Count(cmd.Context(), conds)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, map[string]int64{"count": n})
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "JSON condition map")
	return cmd
}

// withCollection attaches a backend and runs fn against a collection for
// table.
func (a *app) withCollection(table string, fn func(*collection.Collection) error) error {
	b, err := a.attach()
	if err != nil {
		return err
	}
	defer func(b *sqldb.Backend) { _ = b.Detach() }(b)

	c, err := collection.New(table, collection.WithConn(b), collection.WithLogger(a.logger))
	if err != nil {
		return err
	}
	return fn(c)
}

func parseWhere(where string) (types.Conditions, error) {
	if strings.TrimSpace(where) == "" {
		return types.Conditions{}, nil
	}
	var conds types.Conditions
	if err := json.Unmarshal([]byte(where), &conds); err != nil {
		return nil, fmt.Errorf("%w: --where: %v", types.ErrInvalidFormat, err)
	}
	return conds, nil
}

func parseOrder(term string) types.OrderSpec {
	parts := strings.SplitN(term, ":", 3)
	spec := types.OrderSpec{Field: parts[0]}
	if len(parts) > 1 {
		spec.Direction = strings.ToUpper(parts[1])
	}
	if len(parts) > 2 {
		spec.Type = parts[2]
	}
	return spec
}

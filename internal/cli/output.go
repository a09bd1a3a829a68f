package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/aluzed/massive-collections/pkg/types"
)

var (
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen, color.Bold)
)

func info(cmd *cobra.Command, format string, args ...any) {
	infoColor.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func success(cmd *cobra.Command, format string, args ...any) {
	successColor.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// printRows renders rows as a table, or as JSON with --json.
func (a *app) printRows(cmd *cobra.Command, rows []types.Row) error {
	if a.flags.jsonMode {
		return printJSON(cmd, rows)
	}
	if len(rows) == 0 {
		info(cmd, "No rows")
		return nil
	}

	headers := rowColumns(rows)
	data := pterm.TableData{headers}
	for _, r := range rows {
		line := make([]string, len(headers))
		for i, h := range headers {
			line[i] = cellText(r[h])
		}
		data = append(data, line)
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

// rowColumns returns the union of row keys, id first and the rest sorted.
func rowColumns(rows []types.Row) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] && k != types.IDField {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	for _, r := range rows {
		if _, ok := r[types.IDField]; ok {
			return append([]string{types.IDField}, cols...)
		}
	}
	return cols
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

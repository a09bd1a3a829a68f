package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aluzed/massive-collections/internal/ddl"
)

func newCreateTableCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:     "create-table <table> <column>...",
		Aliases: []string{"createTable"},
		Short:   "Create a table from column specifications",
		Long: `Create a table with an auto-incrementing id primary key and the given
columns. The id column follows the driver of the saved connection, or the
configured default driver when not connected.

Column format:
  name:type:[index]:[nullable]:[default]

  name      any column name
  type      any PostgreSQL type, or a shortcut: int, bool, timestampz
  index     unique | noindex (optional)
  nullable  null | notnull (optional)
  default   now(), true, false, ... (optional)`,
		Example: `  massive-collections createTable users \
    username:varchar(255):unique:notnull \
    password:varchar(255):noindex:notnull \
    age:int \
    details:jsonb \
    created:timestampz:noindex:null:now()`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ddl.CreateTable(a.driver(), args[0], args[1:])
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), q)
				return nil
			}
			if err := a.runQuery(cmd, q); err != nil {
				return err
			}
			success(cmd, "Table %s created", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the statement without running it")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a raw SQL statement",
		Long:  "Run a raw SQL statement with the saved credentials and print the rows it returns.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, strings.Join(args, " "))
		},
	}
}

// driver names the SQL dialect for generated statements: the saved
// connection's driver, else the configured default.
func (a *app) driver() string {
	if s, err := a.store(); err == nil {
		if cfg, err := s.Load(); err == nil && cfg.Driver != "" {
			return cfg.Driver
		}
	}
	return a.config.GetString(cfgKeyDriver)
}

// runQuery attaches with the saved credentials, runs q and prints any rows.
func (a *app) runQuery(cmd *cobra.Command, q string) error {
	b, err := a.attach()
	if err != nil {
		return err
	}
	defer b.Detach()

	a.logger.Debug("run", "sql", q)
	rows, err := b.Run(cmd.Context(), q)
	if err != nil {
		return err
	}
	if len(rows) > 0 || a.flags.jsonMode {
		if err := a.printRows(cmd, rows); err != nil {
			return err
		}
	}
	info(cmd, "Done.")
	return nil
}

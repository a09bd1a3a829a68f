// Package cli implements the massive-collections command-line interface:
// credentials management, table creation, raw queries and collection
// finds from the shell.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aluzed/massive-collections/internal/credentials"
	"github.com/aluzed/massive-collections/internal/paths"
	"github.com/aluzed/massive-collections/pkg/sqldb"
	"github.com/aluzed/massive-collections/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir  string
	projectDir string
	jsonMode   bool
	verbose    bool
}

// app carries the state shared by every command of one invocation.
type app struct {
	fs     afero.Fs
	flags  rootFlags
	config *viper.Viper
	logger *slog.Logger

	// open attaches a backend for cfg. Replaced in tests.
	open func(types.Config) (*sqldb.Backend, error)
}

func newApp() *app {
	return &app{
		fs:     afero.NewOsFs(),
		open:   sqldb.Open,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// NewRootCmd creates the top-level "massive-collections" command with global
// flags and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "massive-collections",
		Short: "Collections over PostgreSQL tables",
		Long: `massive-collections manages the connection used by your collections,
creates tables from compact column specifications and runs queries.

Connect once, the credentials are kept in the configuration directory:

  massive-collections connect --h localhost:5432 --db test_db --u root --p root

Then create tables and query them:

  massive-collections create-table users username:varchar(255):unique:notnull age:int
  massive-collections find users --where '{"age >": 18}' --order age:desc`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	root.PersistentFlags().StringVar(&a.flags.projectDir, "project-dir", "", "project whose .gitignore protects the credentials (default: current directory)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "log every statement to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newConnectCmd(a))
	root.AddCommand(newDisconnectCmd(a))
	root.AddCommand(newCreateTableCmd(a))
	root.AddCommand(newQueryCmd(a))
	root.AddCommand(newFindCmd(a))
	root.AddCommand(newCountCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		color.New(color.FgYellow).Fprintln(os.Stderr, "Please read the documentation: massive-collections help")
		var sysErr *systemError
		if errors.As(err, &sysErr) {
			os.Exit(exitSysError)
		}
		os.Exit(exitUserError)
	}
	os.Exit(exitSuccess)
}

// systemError marks failures of the environment rather than of the input.
type systemError struct{ err error }

func (e *systemError) Error() string { return e.err.Error() }
func (e *systemError) Unwrap() error { return e.err }

func sysErr(format string, args ...any) error {
	return &systemError{err: fmt.Errorf(format, args...)}
}

// setup loads .env files and config.yaml and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	for _, name := range []string{".env", ".env.local"} {
		if ok, _ := afero.Exists(a.fs, name); ok {
			if err := godotenv.Overload(name); err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
		}
	}

	level := slog.LevelInfo
	if a.flags.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if a.flags.jsonMode {
		color.NoColor = true
	}

	dir, err := a.configDir()
	if err != nil {
		return err
	}
	v := viper.New()
	v.SetFs(a.fs)
	v.SetDefault(cfgKeyDriver, types.DriverPostgres)
	v.SetDefault(cfgKeySSLMode, "disable")
	v.SetConfigFile(filepath.Join(dir, configFileName))
	v.SetEnvPrefix("MASSIVE_COLLECTIONS")
	v.AutomaticEnv()
	if ok, _ := afero.Exists(a.fs, v.ConfigFileUsed()); ok {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}
	a.config = v
	return nil
}

func (a *app) configDir() (string, error) {
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return "", sysErr("resolve config dir: %w", err)
	}
	return dir, nil
}

func (a *app) store() (*credentials.Store, error) {
	dir, err := a.configDir()
	if err != nil {
		return nil, err
	}
	return credentials.NewStore(a.fs, dir), nil
}

// attach loads the saved credentials and opens a backend. The caller must
// Detach it.
func (a *app) attach() (*sqldb.Backend, error) {
	s, err := a.store()
	if err != nil {
		return nil, err
	}
	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}
	b, err := a.open(cfg)
	if err != nil {
		return nil, sysErr("connect to %s: %w", cfg.Driver, err)
	}
	return b, nil
}

package cli

import (
	"errors"
	"net"

	"github.com/spf13/cobra"

	"github.com/aluzed/massive-collections/internal/credentials"
	"github.com/aluzed/massive-collections/internal/paths"
	"github.com/aluzed/massive-collections/pkg/types"
)

var errMissingConnectArgs = errors.New("missing parameter, address, db, user and password are required to connect")

var errBadAddress = errors.New("bad address format, it should be like host:port")

func newConnectCmd(a *app) *cobra.Command {
	var (
		address  string
		database string
		user     string
		password string
		driver   string
		sslmode  string
	)

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Save the credentials used by later commands",
		Long: `Save the connection credentials in the configuration directory.

When the configuration directory lies inside the project, its credentials
file is added to the project's .gitignore.`,
		Example: "  massive-collections connect --h localhost:5432 --db test_db --u root --p root",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if driver == "" {
				driver = a.config.GetString(cfgKeyDriver)
			}
			if sslmode == "" {
				sslmode = a.config.GetString(cfgKeySSLMode)
			}

			cfg := types.Config{Driver: driver, Database: database}
			if driver != types.DriverSQLite {
				if address == "" || database == "" || user == "" || password == "" {
					return errMissingConnectArgs
				}
				host, port, err := net.SplitHostPort(address)
				if err != nil || host == "" || port == "" {
					return errBadAddress
				}
				cfg.Host, cfg.Port = host, port
				cfg.User, cfg.Password = user, password
				cfg.SSLMode = sslmode
			}

			s, err := a.store()
			if err != nil {
				return err
			}
			if err := s.Save(cfg); err != nil {
				return err
			}
			a.logger.Debug("credentials saved", "path", s.Path())

			project, err := paths.ResolveProjectDir(a.flags.projectDir)
			if err != nil {
				return sysErr("resolve project dir: %w", err)
			}
			patched, err := credentials.PatchGitignore(a.fs, project, s.Path())
			if err != nil {
				return sysErr("update .gitignore: %w", err)
			}
			if patched {
				info(cmd, "Added %s to .gitignore", s.Path())
			}

			success(cmd, "Connected")
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "h", "", "host:port")
	cmd.Flags().StringVar(&database, "db", "", "database name (file path for sqlite)")
	cmd.Flags().StringVar(&user, "u", "", "user")
	cmd.Flags().StringVar(&password, "p", "", "password")
	cmd.Flags().StringVar(&driver, "driver", "", "postgres or sqlite (default from config.yaml)")
	cmd.Flags().StringVar(&sslmode, "sslmode", "", "postgres sslmode (default from config.yaml)")
	return cmd
}

func newDisconnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Remove the saved credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			if err := s.Remove(); err != nil {
				return sysErr("remove credentials: %w", err)
			}
			success(cmd, "Disconnected")
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aluzed/massive-collections/pkg/types"
)

const (
	configFileName = "config.yaml"

	cfgKeyDriver  = "driver"
	cfgKeySSLMode = "sslmode"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Driver  string `yaml:"driver"`
	SSLMode string `yaml:"sslmode,omitempty"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration directory",
		Long:  "Create the configuration directory and a default config.yaml holding the driver and sslmode connect uses.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.configDir()
			if err != nil {
				return err
			}
			if err := a.fs.MkdirAll(dir, 0o755); err != nil {
				return sysErr("create config directory: %w", err)
			}

			path := filepath.Join(dir, configFileName)
			written, err := writeConfigIfMissing(a.fs, path)
			if err != nil {
				return sysErr("write config: %w", err)
			}
			if written {
				info(cmd, "Wrote %s", path)
			} else {
				info(cmd, "%s already exists", path)
			}
			return nil
		},
	}
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. It reports whether the file was written.
func writeConfigIfMissing(fs afero.Fs, path string) (bool, error) {
	if ok, err := afero.Exists(fs, path); err != nil || ok {
		return false, err
	}

	data, err := yaml.Marshal(&configFile{
		Driver:  types.DriverPostgres,
		SSLMode: "disable",
	})
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	return true, afero.WriteFile(fs, path, data, 0o644)
}

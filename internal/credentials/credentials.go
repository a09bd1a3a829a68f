// Package credentials persists connection credentials between command
// line invocations and keeps them out of version control.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/aluzed/massive-collections/internal/paths"
	"github.com/aluzed/massive-collections/pkg/types"
)

// FileName is the credentials file inside the configuration directory.
const FileName = "credentials.json"

// ErrNotConnected is returned by Load when no credentials file exists.
var ErrNotConnected = errors.New("you must connect first")

// Store reads and writes the credentials file in dir on fs.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Path returns the credentials file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Save validates cfg and writes it, replacing any previous credentials.
func (s *Store) Save(cfg types.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetFs(s.fs)
	v.Set("driver", cfg.Driver)
	v.Set("host", cfg.Host)
	v.Set("port", cfg.Port)
	v.Set("database", cfg.Database)
	v.Set("user", cfg.User)
	v.Set("password", cfg.Password)
	if cfg.SSLMode != "" {
		v.Set("sslmode", cfg.SSLMode)
	}
	if cfg.DSN != "" {
		v.Set("dsn", cfg.DSN)
	}

	if err := v.WriteConfigAs(s.Path()); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return s.fs.Chmod(s.Path(), 0o600)
}

// Load reads the saved credentials. Returns ErrNotConnected when none
// were saved.
func (s *Store) Load() (types.Config, error) {
	var cfg types.Config

	ok, err := afero.Exists(s.fs, s.Path())
	if err != nil {
		return cfg, err
	}
	if !ok {
		return cfg, ErrNotConnected
	}

	v := viper.New()
	v.SetFs(s.fs)
	v.SetConfigFile(s.Path())
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read credentials: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode credentials: %w", err)
	}
	return cfg, nil
}

// Remove deletes the credentials file. Remove is idempotent.
func (s *Store) Remove() error {
	err := s.fs.Remove(s.Path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// PatchGitignore appends the credentials path to projectDir/.gitignore
// when the credentials live inside the project and the file does not
// already list them. Blank lines are dropped when the file is rewritten.
// It reports whether the file was changed; a project without a .gitignore
// is left alone.
func PatchGitignore(fs afero.Fs, projectDir, credentialsPath string) (bool, error) {
	rel, inside := paths.Within(projectDir, credentialsPath)
	if !inside {
		return false, nil
	}

	ignorePath := filepath.Join(projectDir, ".gitignore")
	ok, err := afero.Exists(fs, ignorePath)
	if err != nil || !ok {
		return false, err
	}

	raw, err := afero.ReadFile(fs, ignorePath)
	if err != nil {
		return false, err
	}

	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.TrimPrefix(strings.TrimPrefix(trimmed, "./"), "/") == rel {
			return false, nil
		}
		lines = append(lines, line)
	}
	lines = append(lines, "/"+rel)

	if err := afero.WriteFile(fs, ignorePath, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

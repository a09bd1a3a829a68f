// Package paths resolves the configuration and project directory
// locations used by the command line tool.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// AppName names the per-user configuration directory.
const AppName = "massive-collections"

// CWD-relative directory name for project-local configuration.
const DefaultConfigDirName = ".massive-collections"

// Environment variable names for directory overrides.
const (
	EnvConfigDir  = "MASSIVE_COLLECTIONS_CONFIG_DIR"
	EnvProjectDir = "MASSIVE_COLLECTIONS_PROJECT_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       homedir.Dir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/massive-collections (fallback ~/.config/massive-collections)
// macOS:   ~/Library/Application Support/massive-collections
// Windows: %APPDATA%/massive-collections
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > MASSIVE_COLLECTIONS_CONFIG_DIR env > DefaultConfigDir().
// A leading ~ is expanded to the home directory.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return absolute(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return absolute(env)
	}
	return DefaultConfigDir()
}

// ResolveProjectDir returns the project root whose .gitignore protects
// credentials: flag > MASSIVE_COLLECTIONS_PROJECT_DIR env > CWD.
func ResolveProjectDir(flag string) (string, error) {
	if flag != "" {
		return absolute(flag)
	}
	if env := os.Getenv(EnvProjectDir); env != "" {
		return absolute(env)
	}
	return os.Getwd()
}

// Within reports whether path lies inside root and returns the path
// relative to root.
func Within(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func absolute(p string) (string, error) {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}

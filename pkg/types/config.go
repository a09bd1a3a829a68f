package types

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Config holds connection credentials for a SQL backend. DSN, when set,
// wins over the individual fields.
type Config struct {
	Driver   string `json:"driver" yaml:"driver" mapstructure:"driver"`
	Host     string `json:"host" yaml:"host" mapstructure:"host"`
	Port     string `json:"port" yaml:"port" mapstructure:"port"`
	Database string `json:"database" yaml:"database" mapstructure:"database"`
	User     string `json:"user" yaml:"user" mapstructure:"user"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
	SSLMode  string `json:"sslmode,omitempty" yaml:"sslmode,omitempty" mapstructure:"sslmode"`
	DSN      string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config validation errors.
var (
	ErrDriverEmpty   = errors.New("driver must not be empty")
	ErrDriverUnknown = errors.New("unknown driver")
	ErrHostEmpty     = errors.New("host must not be empty")
	ErrPortEmpty     = errors.New("port must not be empty")
	ErrDatabaseEmpty = errors.New("database must not be empty")
	ErrUserEmpty     = errors.New("user must not be empty")
)

// knownDrivers lists the drivers that Validate accepts.
var knownDrivers = map[string]bool{
	DriverPostgres: true,
	DriverSQLite:   true,
}

// Validate checks that the Config is well-formed. A postgres config without
// a DSN needs host, port, database and user; a sqlite config needs a
// database path (or DSN).
func (c Config) Validate() error {
	if c.Driver == "" {
		return ErrDriverEmpty
	}
	if !knownDrivers[c.Driver] {
		return fmt.Errorf("%w: %q", ErrDriverUnknown, c.Driver)
	}
	if c.DSN != "" {
		return nil
	}
	if c.Driver == DriverSQLite {
		if c.Database == "" {
			return ErrDatabaseEmpty
		}
		return nil
	}
	switch {
	case c.Host == "":
		return ErrHostEmpty
	case c.Port == "":
		return ErrPortEmpty
	case c.Database == "":
		return ErrDatabaseEmpty
	case c.User == "":
		return ErrUserEmpty
	}
	return nil
}

// DataSourceName returns the string handed to sql.Open.
func (c Config) DataSourceName() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == DriverSQLite {
		return c.Database
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u.RawQuery = url.Values{"sslmode": {sslmode}}.Encode()
	return u.String()
}

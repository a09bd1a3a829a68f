// Package sqldb provides the public API for the SQL backend collections run
// against. It exposes the factory functions while keeping implementation
// details internal.
//
// Example:
//
//	backend, err := sqldb.Open(types.Config{
//	    Driver:   types.DriverPostgres,
//	    Host:     "localhost",
//	    Port:     "5432",
//	    Database: "app",
//	    User:     "app",
//	})
//	if err != nil {
//	    return err
//	}
//	defer backend.Detach()
//	users, err := collection.New("users", collection.WithConn(backend))
package sqldb

import (
	"github.com/aluzed/massive-collections/internal/sqldb"
	"github.com/aluzed/massive-collections/pkg/types"
)

// Backend is an attachable SQL backend satisfying types.Conn.
type Backend = sqldb.Backend

// NewBackend creates a new backend instance.
// The backend is not attached; call Attach with a Config to connect.
func NewBackend() *Backend {
	return sqldb.NewBackend()
}

// Open creates a backend and attaches it to cfg.
func Open(cfg types.Config) (*Backend, error) {
	b := sqldb.NewBackend()
	if err := b.Attach(cfg); err != nil {
		return nil, err
	}
	return b, nil
}

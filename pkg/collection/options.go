package collection

import (
	"log/slog"

	"github.com/aluzed/massive-collections/pkg/types"
)

// Option configures a Collection at construction time.
type Option func(*Collection)

// WithConn sets the connection the collection runs against.
func WithConn(conn types.Conn) Option {
	return func(c *Collection) { c.conn = conn }
}

// WithRegistry registers the collection under its table name once it is
// built.
func WithRegistry(r *Registry) Option {
	return func(c *Collection) { c.registry = r }
}

// WithLogger sets the logger raw statements are written to at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collection) {
		if l != nil {
			c.logger = l
		}
	}
}

// Package query decides how a find reaches the backend and assembles the
// raw statements collections send through Conn.Run.
package query

import (
	"github.com/aluzed/massive-collections/internal/condition"
	"github.com/aluzed/massive-collections/pkg/types"
)

// SearchType names the path a find takes.
type SearchType string

const (
	// Normal finds go to the backend's structured Table.Find unchanged.
	Normal SearchType = "normal"
	// JSONB finds are compiled to a raw SELECT and sent through Conn.Run.
	JSONB SearchType = "jsonb"
)

// Route picks the search type for a find. Any JSONB path in a condition
// key, an "or" member key or an order field forces the raw path.
func Route(conds types.Conditions, opts types.FindOptions) SearchType {
	if condition.HasJSONPath(conds, opts.Order) {
		return JSONB
	}
	return Normal
}

package condition

import (
	"strings"

	"github.com/aluzed/massive-collections/pkg/types"
)

// IsJSONPath reports whether a key or field reaches into a JSONB document.
func IsJSONPath(s string) bool {
	return strings.Contains(s, "->") || strings.Contains(s, "#>")
}

// HasJSONPath reports whether any condition key, any key inside an "or"
// member, or any order field is a JSONB path.
func HasJSONPath(c types.Conditions, order []types.OrderSpec) bool {
	for key := range c {
		if IsJSONPath(key) {
			return true
		}
	}
	if members, ok := c.Or(); ok {
		for _, m := range members {
			for key := range m {
				if IsJSONPath(key) {
					return true
				}
			}
		}
	}
	for _, o := range order {
		if IsJSONPath(o.Field) {
			return true
		}
	}
	return false
}

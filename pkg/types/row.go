package types

import "strings"

// Row is a single record as returned by a backend. The core only reads the
// "id" field; everything else belongs to the caller and its formatters.
type Row map[string]any

// Conditions maps a condition key to a value. A key is a field name,
// optionally followed by whitespace and an operator ("age >", "name ILIKE").
// The reserved key "or" holds a list of Conditions joined with OR.
type Conditions map[string]any

// OrKey is the reserved condition key holding a disjunction of conjunctions.
const OrKey = "or"

// IDField is the primary key column every collection table carries.
const IDField = "id"

// Sort directions accepted by OrderSpec.
const (
	Asc  = "ASC"
	Desc = "DESC"
)

// OrderSpec describes one ORDER BY term. Type, when set, casts the field
// before sorting, which is needed for values extracted from a JSONB path.
type OrderSpec struct {
	Field     string `json:"field" yaml:"field"`
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty"`
	Type      string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Dir returns the normalized direction, defaulting to ASC.
func (o OrderSpec) Dir() string {
	if o.Direction == "" {
		return Asc
	}
	return strings.ToUpper(o.Direction)
}

// FindOptions narrows a find. Nil Limit and Offset mean "not set"; zero is
// a valid explicit value.
type FindOptions struct {
	Columns []string    `json:"columns,omitempty" yaml:"columns,omitempty"`
	Order   []OrderSpec `json:"order,omitempty" yaml:"order,omitempty"`
	Limit   *int        `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset  *int        `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// Or returns the members of the "or" key, accepting []Conditions,
// []map[string]any and []any of maps. ok is false when the key is absent or
// holds something else.
func (c Conditions) Or() (members []Conditions, ok bool) {
	raw, present := c[OrKey]
	if !present {
		return nil, false
	}
	switch v := raw.(type) {
	case []Conditions:
		return v, true
	case []map[string]any:
		members = make([]Conditions, 0, len(v))
		for _, m := range v {
			members = append(members, Conditions(m))
		}
		return members, true
	case []any:
		members = make([]Conditions, 0, len(v))
		for _, item := range v {
			switch m := item.(type) {
			case Conditions:
				members = append(members, m)
			case map[string]any:
				members = append(members, Conditions(m))
			default:
				return nil, false
			}
		}
		return members, true
	default:
		return nil, false
	}
}

// Clone returns a shallow copy of the row. A nil row clones to nil.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

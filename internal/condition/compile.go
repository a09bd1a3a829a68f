package condition

import (
	"fmt"
	"strings"

	"github.com/aluzed/massive-collections/pkg/types"
)

// Compile renders every key of c except "or" as a literal predicate, in
// sorted key order.
func Compile(c types.Conditions) ([]string, error) {
	return compileWith(c, func(r rule, field string, value any) (string, error) {
		return r.literal(field, value)
	})
}

// CompileBound is Compile with placeholders; arguments accumulate in b.
func CompileBound(c types.Conditions, b *Binder) ([]string, error) {
	return compileWith(c, func(r rule, field string, value any) (string, error) {
		return r.bound(field, value, b)
	})
}

func compileWith(c types.Conditions, render func(rule, string, any) (string, error)) ([]string, error) {
	preds := make([]string, 0, len(c))
	for _, key := range sortedKeys(c) {
		if key == types.OrKey {
			continue
		}
		value := c[key]
		r, field := lookup(key, value)
		pred, err := render(r, field, value)
		if err != nil {
			return nil, fmt.Errorf("condition %q: %w", key, err)
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

// Where renders the full boolean expression for c without the WHERE
// keyword. It returns "" when c holds no predicates.
//
// Without an "or" key the predicates are AND-joined. With one, each member
// becomes an AND-joined conjunction and the members are OR-joined; empty
// members are dropped. Keys next to "or" are AND-ed in front of the
// parenthesised disjunction.
func Where(c types.Conditions) (string, error) {
	return whereWith(c, Compile)
}

// WhereBound is Where with placeholders; arguments accumulate in b.
func WhereBound(c types.Conditions, b *Binder) (string, error) {
	return whereWith(c, func(c types.Conditions) ([]string, error) {
		return CompileBound(c, b)
	})
}

func whereWith(c types.Conditions, compile func(types.Conditions) ([]string, error)) (string, error) {
	_, hasOr := c[types.OrKey]
	if !hasOr {
		preds, err := compile(c)
		if err != nil {
			return "", err
		}
		return strings.Join(preds, " AND "), nil
	}

	members, ok := c.Or()
	if !ok {
		return "", fmt.Errorf("%w: %q must be a list of condition maps", types.ErrInvalidFormat, types.OrKey)
	}

	siblings, err := compile(c)
	if err != nil {
		return "", err
	}

	var groups []string
	for _, m := range members {
		preds, err := compile(m)
		if err != nil {
			return "", err
		}
		if len(preds) > 0 {
			groups = append(groups, strings.Join(preds, " AND "))
		}
	}
	disjunction := strings.Join(groups, " OR ")

	switch {
	case len(siblings) == 0:
		return disjunction, nil
	case disjunction == "":
		return strings.Join(siblings, " AND "), nil
	default:
		return strings.Join(siblings, " AND ") + " AND (" + disjunction + ")", nil
	}
}

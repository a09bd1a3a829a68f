package condition

import (
	"reflect"
	"strconv"
	"strings"
)

// Placeholder renders the n-th (1-based) bind parameter.
type Placeholder func(n int) string

// Dollar renders PostgreSQL style placeholders: $1, $2, ...
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Question renders SQLite/MySQL style placeholders.
func Question(int) string { return "?" }

// Binder collects arguments while a bound predicate is rendered.
type Binder struct {
	placeholder Placeholder
	args        []any
}

// NewBinder returns a Binder using ph for placeholders.
func NewBinder(ph Placeholder) *Binder {
	if ph == nil {
		ph = Question
	}
	return &Binder{placeholder: ph}
}

// Args returns the arguments in placeholder order.
func (b *Binder) Args() []any { return b.args }

// Bind appends v and returns its placeholder. Nested maps and slices are
// passed as their JSON text.
func (b *Binder) Bind(v any) string { return b.bind(v) }

func (b *Binder) bind(v any) string {
	if isMap(v) || isSlice(v) {
		if text, err := encodeJSON(v); err == nil {
			v = text
		}
	}
	b.args = append(b.args, v)
	return b.placeholder(len(b.args))
}

// list renders "field op (p1, p2, ...)". An empty list can never match, so
// IN collapses to a false predicate and NOT IN to a true one.
func (b *Binder) list(field, op string, value any) string {
	items := flatten(value)
	if len(items) == 0 {
		if op == "IN" {
			return "1 = 0"
		}
		return "1 = 1"
	}
	ph := make([]string, len(items))
	for i, item := range items {
		ph[i] = b.bind(item)
	}
	return field + " " + op + " (" + strings.Join(ph, ", ") + ")"
}

func flatten(value any) []any {
	if !isSlice(value) {
		return []any{value}
	}
	rv := reflect.ValueOf(value)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

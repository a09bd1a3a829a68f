// Package condition compiles condition maps into SQL predicates.
//
// A condition key is a field name optionally followed by whitespace and an
// operator ("age >", "username ILIKE", "tags NOT IN"). Keys are matched
// against an ordered rule table; the first rule that matches renders the
// predicate. Order matters: later rules assume earlier ones did not match.
//
// Two renderings share the table. The literal rendering interpolates values
// into the SQL text and is what raw statements use. The bound rendering
// emits driver placeholders and collects arguments.
package condition

import (
	"regexp"
	"strings"
)

// rule pairs a key matcher with its two renderers.
type rule struct {
	name    string
	match   func(key string, value any) (field string, ok bool)
	literal func(field string, value any) (string, error)
	bound   func(field string, value any, b *Binder) (string, error)
}

// suffix matches keys of the form "<field><pattern>" where field is a single
// whitespace-free token.
func suffix(pattern string) func(string, any) (string, bool) {
	re := regexp.MustCompile(`^(\S+)` + pattern + `$`)
	return func(key string, _ any) (string, bool) {
		m := re.FindStringSubmatch(key)
		if m == nil {
			return "", false
		}
		return m[1], true
	}
}

// either matches when any of the matchers does.
func either(matchers ...func(string, any) (string, bool)) func(string, any) (string, bool) {
	return func(key string, value any) (string, bool) {
		for _, m := range matchers {
			if field, ok := m(key, value); ok {
				return field, true
			}
		}
		return "", false
	}
}

var bareKey = regexp.MustCompile(`^\S+$`)

// bareSlice matches a key with no operator whose value is a list.
func bareSlice(key string, value any) (string, bool) {
	if bareKey.MatchString(key) && isSlice(value) {
		return key, true
	}
	return "", false
}

// rules is evaluated top to bottom. NOT LIKE, NOT ILIKE and NOT SIMILAR TO
// never reach their positive forms because the positive matchers require
// the field to be the only token before the keyword.
var rules = []rule{
	{
		name:    ">",
		match:   suffix(`\s+>`),
		literal: compare(">"),
		bound:   compareBound(">"),
	},
	{
		name:    "<",
		match:   suffix(`\s+<`),
		literal: compare("<"),
		bound:   compareBound("<"),
	},
	{
		name:    "<=",
		match:   suffix(`\s+<=`),
		literal: compare("<="),
		bound:   compareBound("<="),
	},
	{
		name:    ">=",
		match:   suffix(`\s+>=`),
		literal: compare(">="),
		bound:   compareBound(">="),
	},
	{
		name:  "NOT IN",
		match: suffix(`\s+(?:<>|(?i:NOT\s+IN))`),
		literal: func(field string, value any) (string, error) {
			list, err := parenList(value)
			if err != nil {
				return "", err
			}
			return field + " NOT IN " + list, nil
		},
		bound: func(field string, value any, b *Binder) (string, error) {
			return b.list(field, "NOT IN", value), nil
		},
	},
	{
		name:  "IS NOT",
		match: suffix(`\s+(?:!=|!|(?i:IS\s+NOT))`),
		literal: func(field string, value any) (string, error) {
			list, err := parenList(value)
			if err != nil {
				return "", err
			}
			return field + " NOT " + list, nil
		},
		bound: func(field string, value any, b *Binder) (string, error) {
			if value == nil {
				return field + " IS NOT NULL", nil
			}
			if isSlice(value) {
				return b.list(field, "NOT IN", value), nil
			}
			return field + " <> " + b.bind(value), nil
		},
	},
	{
		name:  "IN",
		match: either(bareSlice, suffix(` (?i:IN)`)),
		literal: func(field string, value any) (string, error) {
			list, err := parenList(value)
			if err != nil {
				return "", err
			}
			return field + " IN " + list, nil
		},
		bound: func(field string, value any, b *Binder) (string, error) {
			return b.list(field, "IN", value), nil
		},
	},
	{
		name:    "LIKE",
		match:   either(suffix(` (?i:LIKE)`), suffix(`\s+~~`)),
		literal: pattern("%s LIKE '%s'"),
		bound:   patternBound("%s LIKE %s"),
	},
	{
		name:    "NOT LIKE",
		match:   either(suffix(`\s+(?i:NOT\s+LIKE)`), suffix(`\s+!~~`)),
		literal: pattern("%s NOT LIKE '%s'"),
		bound:   patternBound("%s NOT LIKE %s"),
	},
	{
		name:    "ILIKE",
		match:   suffix(` (?i:ILIKE)`),
		literal: pattern("LOWER(%s) LIKE LOWER('%s')"),
		bound:   patternBound("LOWER(%s) LIKE LOWER(%s)"),
	},
	{
		name:    "NOT ILIKE",
		match:   suffix(`\s+(?i:NOT\s+ILIKE)`),
		literal: pattern("LOWER(%s) NOT LIKE LOWER('%s')"),
		bound:   patternBound("LOWER(%s) NOT LIKE LOWER(%s)"),
	},
	{
		name:    "SIMILAR TO",
		match:   suffix(`\s+(?i:SIMILAR\s+TO)`),
		literal: pattern("%s SIMILAR TO '%s'"),
		bound:   patternBound("%s SIMILAR TO %s"),
	},
	{
		name:    "NOT SIMILAR TO",
		match:   suffix(`\s+(?i:NOT\s+SIMILAR\s+TO)`),
		literal: pattern("%s NOT SIMILAR TO '%s'"),
		bound:   patternBound("%s NOT SIMILAR TO %s"),
	},
}

// fallback renders keys no rule claimed as an equality on the whole key.
var fallback = rule{
	name:  "=",
	match: func(key string, _ any) (string, bool) { return key, true },
	literal: func(field string, value any) (string, error) {
		text, err := quotedText(value)
		if err != nil {
			return "", err
		}
		return field + " = '" + text + "'", nil
	},
	bound: func(field string, value any, b *Binder) (string, error) {
		if value == nil {
			return field + " IS NULL", nil
		}
		return field + " = " + b.bind(value), nil
	},
}

// lookup returns the rule for a key and the field it names.
func lookup(key string, value any) (rule, string) {
	for _, r := range rules {
		if field, ok := r.match(key, value); ok {
			return r, field
		}
	}
	field, _ := fallback.match(strings.TrimSpace(key), value)
	return fallback, field
}

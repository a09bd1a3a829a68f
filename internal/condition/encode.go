package condition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/aluzed/massive-collections/pkg/types"
)

// TimestampLayout is the literal form used for time.Time values.
const TimestampLayout = "2006-01-02 15:04:05.000000-07:00"

func compare(op string) func(string, any) (string, error) {
	return func(field string, value any) (string, error) {
		text, err := scalarText(value)
		if err != nil {
			return "", err
		}
		return field + " " + op + " " + text, nil
	}
}

func compareBound(op string) func(string, any, *Binder) (string, error) {
	return func(field string, value any, b *Binder) (string, error) {
		return field + " " + op + " " + b.bind(value), nil
	}
}

// pattern renders a quoted-operand predicate; format receives field and text.
func pattern(format string) func(string, any) (string, error) {
	return func(field string, value any) (string, error) {
		text, err := quotedText(value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(format, field, text), nil
	}
}

func patternBound(format string) func(string, any, *Binder) (string, error) {
	return func(field string, value any, b *Binder) (string, error) {
		return fmt.Sprintf(format, field, b.bind(value)), nil
	}
}

// encodeJSON marshals v the way a JavaScript JSON.stringify would: no HTML
// escaping and no trailing newline.
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode %T: %w", v, err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// parenList JSON-encodes v and swaps the outer brackets of an array for
// parentheses. Non-array values are wrapped in parentheses.
//
//	["a","b"] -> ("a","b")
func parenList(v any) (string, error) {
	text, err := encodeJSON(v)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		return "(" + text[1:len(text)-1] + ")", nil
	}
	return "(" + text + ")", nil
}

// scalarText renders v unquoted.
func scalarText(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case time.Time:
		return x.Format(TimestampLayout), nil
	case []byte:
		return string(x), nil
	}
	if isSlice(v) || isMap(v) {
		return encodeJSON(v)
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

// quotedText renders v for use between single quotes, doubling any quote
// already inside it.
func quotedText(v any) (string, error) {
	text, err := scalarText(v)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(text, "'", "''"), nil
}

func isSlice(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func isMap(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Map
}

func isNumber(v any) bool {
	switch v.(type) {
	case json.Number:
		return true
	case nil:
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Assignment renders one SET term of a literal UPDATE.
//
//	time.Time -> field='2024-01-02 03:04:05.000000+00:00'
//	slices    -> field='["a","b"]'
//	numbers   -> field=42
//	otherwise -> field='text'
func Assignment(field string, value any) (string, error) {
	if isNumber(value) {
		text, err := scalarText(value)
		if err != nil {
			return "", err
		}
		return field + "=" + text, nil
	}
	var (
		text string
		err  error
	)
	if isSlice(value) {
		text, err = encodeJSON(value)
	} else {
		text, err = scalarText(value)
	}
	if err != nil {
		return "", err
	}
	return field + "='" + strings.ReplaceAll(text, "'", "''") + "'", nil
}

// SetClause renders every field of data as a comma-separated SET list, in
// sorted field order.
func SetClause(data types.Row) (string, error) {
	keys := sortedKeys(data)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		part, err := Assignment(k, data[k])
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", "), nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

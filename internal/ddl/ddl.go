// Package ddl builds CREATE TABLE statements from compact column
// specifications of the form
//
//	name:type[:index[:nullable[:default]]]
//
// index is unique or noindex, nullable is null or notnull. The type
// shortcuts int, bool and timestampz expand to their PostgreSQL names.
package ddl

import (
	"fmt"
	"strings"

	"github.com/aluzed/massive-collections/pkg/types"
)

// IDColumn returns the auto-incrementing id column prepended to every
// table for driver.
func IDColumn(driver string) string {
	if driver == types.DriverSQLite {
		return "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "id serial primary key"
}

var typeShortcuts = map[string]string{
	"int":        "integer",
	"bool":       "boolean",
	"timestampz": "timestamp with time zone",
}

// CreateTable returns
//
//	CREATE TABLE IF NOT EXISTS "<table>" ( <id column>, <defs> )
func CreateTable(driver, table string, columns []string) (string, error) {
	if table == "" {
		return "", fmt.Errorf("%w: table name", types.ErrMissingArg)
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("%w: columns", types.ErrMissingArg)
	}

	defs, err := Columns(driver, columns)
	if err != nil {
		return "", err
	}
	return `CREATE TABLE IF NOT EXISTS "` + table + `" ( ` + strings.Join(defs, ", ") + " )", nil
}

// Columns returns the column definitions for specs, led by the id column.
func Columns(driver string, specs []string) ([]string, error) {
	defs := make([]string, 0, len(specs)+1)
	defs = append(defs, IDColumn(driver))
	for _, spec := range specs {
		def, err := Column(spec)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Column renders one column specification.
func Column(spec string) (string, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 5 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("%w: %s", types.ErrBadColumn, spec)
	}

	var sb strings.Builder
	sb.WriteString(parts[0])
	sb.WriteString(" ")
	sb.WriteString(columnType(parts[1]))

	if len(parts) > 2 {
		index, err := columnIndex(parts[2])
		if err != nil {
			return "", err
		}
		sb.WriteString(index)
	}
	if len(parts) > 3 {
		nullable, err := columnNullable(parts[3])
		if err != nil {
			return "", err
		}
		sb.WriteString(nullable)
	}
	if len(parts) > 4 {
		if parts[4] == "" {
			return "", fmt.Errorf("%w: column %s", types.ErrMissingDefault, parts[0])
		}
		sb.WriteString(" DEFAULT ")
		sb.WriteString(parts[4])
	}
	return sb.String(), nil
}

func columnType(t string) string {
	if full, ok := typeShortcuts[strings.ToLower(t)]; ok {
		return full
	}
	return t
}

func columnIndex(index string) (string, error) {
	switch strings.ToLower(index) {
	case "unique":
		return " UNIQUE", nil
	case "noindex":
		return "", nil
	default:
		return "", fmt.Errorf("%w: %s", types.ErrBadIndex, index)
	}
}

func columnNullable(nullable string) (string, error) {
	switch strings.ToLower(nullable) {
	case "notnull":
		return " NOT NULL", nil
	case "null":
		return "", nil
	default:
		return "", fmt.Errorf("%w: %s", types.ErrBadNullable, nullable)
	}
}

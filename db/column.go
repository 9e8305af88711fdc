package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Column describes one target table column from a "name, Type[, length]"
// spec.
type Column struct {
	Name   string
	Type   string
	Length int
}

var columnTypes = map[string]string{
	"Bool":     "BOOLEAN",
	"Int32":    "INTEGER",
	"Int64":    "BIGINT",
	"Float":    "DOUBLE PRECISION",
	"String":   "VARCHAR",
	"DateTime": "TIMESTAMP",
	"Blob":     "BLOB",
}

// ParseColumn parses a column spec of the form "name, Type" or
// "name, Type, length".
func ParseColumn(spec string) (*Column, error) {
	parts := strings.Split(spec, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return nil, fmt.Errorf("invalid column spec %q, expected \"name, Type[, length]\"", spec)
	}

	if _, known := columnTypes[parts[1]]; !known {
		return nil, fmt.Errorf("unknown column type %q in spec %q", parts[1], spec)
	}

	col := &Column{Name: parts[0], Type: parts[1]}
	if len(parts) == 3 {
		length, err := strconv.Atoi(parts[2])
		if err != nil || length <= 0 {
			return nil, fmt.Errorf("invalid length %q in column spec %q", parts[2], spec)
		}

		col.Length = length
	}

	return col, nil
}

// DDL returns the column's fragment of a CREATE TABLE statement.
func (c *Column) DDL() string {
	sqlType := columnTypes[c.Type]
	if c.Type == "String" && c.Length == 0 {
		sqlType = "TEXT"
	}
	if c.Length > 0 {
		sqlType = fmt.Sprintf("%s(%d)", sqlType, c.Length)
	}

	return fmt.Sprintf("%s %s", c.Name, sqlType)
}

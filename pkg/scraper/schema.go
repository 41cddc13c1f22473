package scraper

import (
	"fmt"
	"strings"
)

// ColumnType is the closed set of output column types the orchestrator
// understands.
type ColumnType int

// Column types. The zero value is invalid.
const (
	Numerical ColumnType = iota + 1
	Integer
	Boolean
	String
	DateTime
	StringID
	IntegerID
	Text
)

var columnTypes = []struct {
	t    ColumnType
	name string
	tag  string
}{
	{Numerical, "Numerical", "$num"},
	{Integer, "Integer", "$num_int"},
	{Boolean, "Boolean", "$bool"},
	{String, "String", "$cat_string"},
	{DateTime, "DateTime", "$num_datetime"},
	{StringID, "StringID", "$cat"},
	{IntegerID, "IntegerID", "$id"},
	{Text, "Text", "$text"},
}

// Tag returns the wire tag written to the features file.
func (t ColumnType) Tag() string {
	for _, ct := range columnTypes {
		if ct.t == t {
			return ct.tag
		}
	}
	return ""
}

// String returns the Go-side name of the type.
func (t ColumnType) String() string {
	for _, ct := range columnTypes {
		if ct.t == t {
			return ct.name
		}
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// Valid reports whether t is one of the declared types.
func (t ColumnType) Valid() bool {
	return t.Tag() != ""
}

// ParseColumnType accepts either the type name ("Numerical") or its wire tag
// ("$num"). Names match case-insensitively.
func ParseColumnType(s string) (ColumnType, error) {
	s = strings.TrimSpace(s)
	for _, ct := range columnTypes {
		if s == ct.tag || strings.EqualFold(s, ct.name) {
			return ct.t, nil
		}
	}
	return 0, fmt.Errorf("unknown column type %q", s)
}

// Column declares one output column.
type Column struct {
	Name string
	Type ColumnType
}

// ColumnsFunc computes the schema from the job's decoded parameters.
type ColumnsFunc func(params map[string]string) ([]Column, error)

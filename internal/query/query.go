// Package query builds and validates the time-bounded SQL sent to the remote engine.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Unbounded is the literal rendered for a missing time bound.
const Unbounded = "NULL"

// disallowedColumnChars are rejected in any column list other than "*".
const disallowedColumnChars = ":@% "

// Engine is the remote query execution backend.
type Engine string

const (
	EngineHive   Engine = "hive"
	EnginePresto Engine = "presto"
)

// Format is the row serialization requested for result streaming.
type Format string

const (
	FormatCSV Format = "csv"
	FormatTSV Format = "tsv"
)

// Delimiter returns the field separator used by rows in this format.
func (f Format) Delimiter() rune {
	if f == FormatCSV {
		return ','
	}
	return '\t'
}

// ParamError reports a user-supplied parameter that failed validation.
type ParamError struct {
	Param   string
	Message string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Param, e.Message)
}

// Request holds everything needed to build a query string.
// A nil MinTime, MaxTime or Limit means the value was not supplied.
type Request struct {
	Table   string
	Columns string
	MinTime *int64
	MaxTime *int64
	Limit   *int
	Engine  Engine
	Format  Format
}

// Validate checks the column list, limit and time ordering.
func (r *Request) Validate() error {
	if r.Columns != "*" && strings.ContainsAny(r.Columns, disallowedColumnChars) {
		return &ParamError{Param: "column", Message: "Please provide a comma-separated columns list. Ex. col1,col2,col3"}
	}
	if r.Limit != nil && *r.Limit <= 0 {
		return &ParamError{Param: "limit", Message: "Please provide correct values. limit needs to be a positive value"}
	}
	if r.MinTime != nil && r.MaxTime != nil && *r.MinTime > *r.MaxTime {
		return &ParamError{Param: "min", Message: "Please provide correct values. max_time needs to be greater than min_time"}
	}
	return nil
}

// Build validates the request and renders the query string.
func (r *Request) Build() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	q := fmt.Sprintf("select %s from %s where td_time_range(time, %s, %s)",
		r.Columns, r.Table, formatBound(r.MinTime), formatBound(r.MaxTime))
	if r.Limit != nil {
		return q + fmt.Sprintf(" limit %d ;", *r.Limit), nil
	}
	return q + ";", nil
}

func formatBound(v *int64) string {
	if v == nil {
		return Unbounded
	}
	return strconv.FormatInt(*v, 10)
}

// ParseTimeBound converts a -m/-M flag value into an optional unix time.
// Empty strings and "NULL" (any case) mean unbounded.
func ParseTimeBound(param, s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, Unbounded) {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, &ParamError{Param: param, Message: fmt.Sprintf("%q is not a UNIX timestamp", s)}
	}
	return &v, nil
}

// ParseEngine parses an engine name.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(s) {
	case "hive":
		return EngineHive, nil
	case "presto":
		return EnginePresto, nil
	default:
		return "", &ParamError{Param: "engine", Message: fmt.Sprintf("%q is not one of 'hive', 'presto'", s)}
	}
}

// ParseFormat parses an output format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV, nil
	case "tsv":
		return FormatTSV, nil
	default:
		return "", &ParamError{Param: "format", Message: fmt.Sprintf("%q is not one of 'csv', 'tsv'", s)}
	}
}

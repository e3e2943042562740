package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/tdquery/tdquery-go/internal/query"
	"github.com/tdquery/tdquery-go/internal/td"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// usageError marks bad arguments or flags.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// missingResourceError reports a database or table absent from the listing.
type missingResourceError struct {
	kind string // "DB" or "Table"
	name string
}

func (e *missingResourceError) Error() string {
	noun := "database"
	if e.kind == "Table" {
		noun = "table"
	}
	return fmt.Sprintf("%s resource %s not found. Please provide a valid %s name", e.kind, e.name, noun)
}

// Message returns the single-line, user-facing description of err.
func Message(err error) string {
	var (
		pe *query.ParamError
		ae *td.AuthError
		nf *td.NotFoundError
		mr *missingResourceError
	)
	switch {
	case errors.As(err, &pe):
		return pe.Error()
	case errors.Is(err, td.ErrInvalidAPIKey):
		return "Provide a valid API key"
	case errors.As(err, &ae):
		return "Please provide correct authentication credentials"
	case errors.As(err, &mr):
		return mr.Error()
	case errors.As(err, &nf):
		return "Resource not found. Please provide a valid resource name"
	default:
		return err.Error()
	}
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		ue *usageError
		pe *query.ParamError
	)
	if errors.As(err, &ue) || errors.As(err, &pe) {
		return ExitUsage
	}
	return ExitError
}

// Report prints err as one styled line on w and returns the exit code.
func Report(w io.Writer, err error, noColor bool) int {
	if err == nil {
		return ExitOK
	}
	NewStyler(w, noColor).Printf(StyleError, "Error: %s", Message(err))
	return ExitCode(err)
}

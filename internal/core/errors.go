package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFacet is returned when an event names a facet the engine
	// was not built with.
	ErrUnknownFacet = errors.New("unknown facet")

	// ErrInvalidMode is returned by ParseMode for anything other than
	// "exclusive" or "inclusive".
	ErrInvalidMode = errors.New("invalid combination mode")

	// ErrExportBusy is returned when every export slot is taken and the wait
	// timeout expires.
	ErrExportBusy = errors.New("too many exports in progress")
)

// LoadError reports a row source that could not produce a dataset.
// It is fatal at startup.
type LoadError struct {
	Source string // path, URL or table the rows came from
	Column string // offending column, if any
	Err    error
}

func (e *LoadError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("load %s: column %q: %v", e.Source, e.Column, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ErrMissingColumn is wrapped by LoadError when an expected column is absent.
var ErrMissingColumn = errors.New("missing required column")

// ErrEmptySource is wrapped by LoadError when the source has no header row.
var ErrEmptySource = errors.New("empty file")

// ExportError reports a failure serializing the filtered rows.
// The engine is unaffected; the caller decides what to tell the user.
type ExportError struct {
	Format string // "xlsx" or "csv"
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s failed: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

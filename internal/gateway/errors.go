package gateway

import (
	"fmt"
	"sort"

	"obras/internal/core"
)

// ImportFormatError reports a backup document that could not be parsed
// as the expected shape. It is always returned before any destructive
// step has run.
type ImportFormatError struct {
	Err error
}

func (e *ImportFormatError) Error() string {
	return fmt.Sprintf("invalid backup document: %v", e.Err)
}

func (e *ImportFormatError) Unwrap() error {
	return e.Err
}

// PartialCascadeError reports a cascade delete where some of the
// parallel per-table deletes failed while others succeeded. The
// surviving rows are orphans until a retry removes them; the failure is
// reported explicitly, never masked.
type PartialCascadeError struct {
	ProjectID string
	Failures  map[core.Table]error
}

func (e *PartialCascadeError) Error() string {
	tables := make([]string, 0, len(e.Failures))
	for t := range e.Failures {
		tables = append(tables, string(t))
	}
	sort.Strings(tables)
	return fmt.Sprintf("cascade delete of project %s failed for tables %v", e.ProjectID, tables)
}

// Unwrap exposes the per-table errors to errors.Is / errors.As.
func (e *PartialCascadeError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, err := range e.Failures {
		errs = append(errs, err)
	}
	return errs
}

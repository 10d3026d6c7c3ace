package core

import "errors"

var (
	// ErrNotFound signals that a record id matched no row. Exposed so
	// callers can tell "no match" from a backend failure.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownTable signals a table name outside the fixed schema.
	ErrUnknownTable = errors.New("unknown table")

	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidStatus    = errors.New("invalid project status")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingProject   = errors.New("missing project reference")
)

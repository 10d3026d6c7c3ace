// Package store defines the entity-store contract the rest of the system
// is written against, plus a small factory for the concrete backends.
package store

import (
	"context"

	"obras/internal/core"
)

// Fields is a partial update: JSON field name -> decoded JSON value.
// Values are what encoding/json produces for an untyped document
// (string, float64, bool, nil).
type Fields map[string]any

// Store is the table-oriented datastore contract. Reads return full
// collections; there is no pagination. Update and Delete return
// core.ErrNotFound when the id matches no row, so callers can tell
// "no match" from a backend failure.
type Store interface {
	// Full-collection reads, one per table.
	Clients(ctx context.Context) ([]core.Client, error)
	Products(ctx context.Context) ([]core.Product, error)
	Projects(ctx context.Context) ([]core.Project, error)
	Services(ctx context.Context) ([]core.ServiceRecord, error)
	Materials(ctx context.Context) ([]core.MaterialRecord, error)
	Collaborators(ctx context.Context) ([]core.Collaborator, error)
	PaymentsReceived(ctx context.Context) ([]core.PaymentReceived, error)
	CollaboratorPayments(ctx context.Context) ([]core.CollaboratorPayment, error)

	// Settings is the singleton row; a store with no settings row yet
	// returns the defaults. PutSettings upserts against the fixed key.
	Settings(ctx context.Context) (core.Settings, error)
	PutSettings(ctx context.Context, s core.Settings) error

	// Generic writes, keyed by table.
	Insert(ctx context.Context, table core.Table, records ...core.Record) error
	Update(ctx context.Context, table core.Table, id string, fields Fields) error
	Delete(ctx context.Context, table core.Table, id string) error

	// DeleteByProject removes every row of a child table referencing the
	// project. Deleting zero rows is not an error.
	DeleteByProject(ctx context.Context, table core.Table, projectID string) error

	// Wipe removes every row of a table.
	Wipe(ctx context.Context, table core.Table) error

	Close() error
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"obras/internal/core"
	"obras/internal/store"
)

// Insert writes one or more records in a single transaction.
func (r *Repository) Insert(ctx context.Context, table core.Table, records ...core.Record) error {
	if !table.Valid() {
		return fmt.Errorf("%w: %s", core.ErrUnknownTable, table)
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		if err := insertOne(ctx, tx, table, rec); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

func insertOne(ctx context.Context, tx *sql.Tx, table core.Table, rec core.Record) error {
	var err error
	switch row := rec.(type) {
	case core.Client:
		err = execInsert(ctx, tx, table, core.TableClients,
			`INSERT INTO clients (id, name, email, phone, document) VALUES (?, ?, ?, ?, ?)`,
			row.ID, row.Name, row.Email, row.Phone, row.Document)
	case core.Product:
		err = execInsert(ctx, tx, table, core.TableProducts,
			`INSERT INTO products (id, name, unit, base_price_cents) VALUES (?, ?, ?, ?)`,
			row.ID, row.Name, row.Unit, row.BasePrice.Cents)
	case core.Project:
		err = execInsert(ctx, tx, table, core.TableProjects,
			`INSERT INTO projects (id, description, start_date, end_date, client_id, value_cents, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.Description, row.StartDate, row.EndDate, row.ClientID,
			row.Value.Cents, string(row.Status))
	case core.ServiceRecord:
		err = execInsert(ctx, tx, table, core.TableServices,
			`INSERT INTO services (id, project_id, collaborator_id, date, description, amount_cents, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.ProjectID, row.CollaboratorID, row.Date, row.Description,
			row.Amount.Cents, row.Notes)
	case core.MaterialRecord:
		err = execInsert(ctx, tx, table, core.TableMaterials,
			`INSERT INTO materials (id, project_id, product_id, quantity, unit_price_cents, date)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			row.ID, row.ProjectID, row.ProductID, row.Quantity, row.UnitPrice.Cents, row.Date)
	case core.Collaborator:
		err = execInsert(ctx, tx, table, core.TableCollaborators,
			`INSERT INTO collaborators (id, name, role, phone, daily_rate_cents) VALUES (?, ?, ?, ?, ?)`,
			row.ID, row.Name, row.Role, row.Phone, row.DefaultDailyRate.Cents)
	case core.PaymentReceived:
		err = execInsert(ctx, tx, table, core.TablePaymentsReceived,
			`INSERT INTO payments_received (id, project_id, date, amount_cents, method)
			 VALUES (?, ?, ?, ?, ?)`,
			row.ID, row.ProjectID, row.Date, row.Amount.Cents, row.Method)
	case core.CollaboratorPayment:
		err = execInsert(ctx, tx, table, core.TableCollaboratorPayments,
			`INSERT INTO collaborator_payments (id, project_id, collaborator_id, date, amount_cents)
			 VALUES (?, ?, ?, ?, ?)`,
			row.ID, row.ProjectID, row.CollaboratorID, row.Date, row.Amount.Cents)
	default:
		err = fmt.Errorf("insert into %s: unsupported record type %T", table, rec)
	}
	return err
}

func execInsert(ctx context.Context, tx *sql.Tx, got, want core.Table, query string, args ...any) error {
	if got != want {
		return fmt.Errorf("insert into %s: record belongs to %s", got, want)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", want, err)
	}
	return nil
}

type colKind int

const (
	colText colKind = iota
	colCents
	colReal
)

type column struct {
	name string
	kind colKind
}

// updatable maps JSON field names to columns, per table. Fields outside
// this map are rejected rather than silently dropped.
var updatable = map[core.Table]map[string]column{
	core.TableClients: {
		"name":     {"name", colText},
		"email":    {"email", colText},
		"phone":    {"phone", colText},
		"document": {"document", colText},
	},
	core.TableProducts: {
		"name":      {"name", colText},
		"unit":      {"unit", colText},
		"basePrice": {"base_price_cents", colCents},
	},
	core.TableProjects: {
		"description": {"description", colText},
		"startDate":   {"start_date", colText},
		"endDate":     {"end_date", colText},
		"clientId":    {"client_id", colText},
		"value":       {"value_cents", colCents},
		"status":      {"status", colText},
	},
	core.TableServices: {
		"projectId":      {"project_id", colText},
		"collaboratorId": {"collaborator_id", colText},
		"date":           {"date", colText},
		"description":    {"description", colText},
		"amount":         {"amount_cents", colCents},
		"notes":          {"notes", colText},
	},
	core.TableMaterials: {
		"projectId": {"project_id", colText},
		"productId": {"product_id", colText},
		"quantity":  {"quantity", colReal},
		"unitPrice": {"unit_price_cents", colCents},
		"date":      {"date", colText},
	},
	core.TableCollaborators: {
		"name":             {"name", colText},
		"role":             {"role", colText},
		"phone":            {"phone", colText},
		"defaultDailyRate": {"daily_rate_cents", colCents},
	},
	core.TablePaymentsReceived: {
		"projectId": {"project_id", colText},
		"date":      {"date", colText},
		"amount":    {"amount_cents", colCents},
		"method":    {"method", colText},
	},
	core.TableCollaboratorPayments: {
		"projectId":      {"project_id", colText},
		"collaboratorId": {"collaborator_id", colText},
		"date":           {"date", colText},
		"amount":         {"amount_cents", colCents},
	},
}

// Update merges partial fields into the row. Returns core.ErrNotFound
// when the id matches nothing.
func (r *Repository) Update(ctx context.Context, table core.Table, id string, fields store.Fields) error {
	cols, ok := updatable[table]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrUnknownTable, table)
	}
	if len(fields) == 0 {
		return nil
	}

	query := "UPDATE " + string(table) + " SET "
	args := make([]any, 0, len(fields)+1)
	first := true
	for field, value := range fields {
		if field == "id" {
			// ids are immutable
			continue
		}
		col, ok := cols[field]
		if !ok {
			return fmt.Errorf("update %s: unknown field %q", table, field)
		}
		if field == "status" {
			s, ok := value.(string)
			if !ok || !core.ProjectStatus(s).Valid() {
				return fmt.Errorf("update %s: %w", table, core.ErrInvalidStatus)
			}
		}
		arg, err := columnArg(col, value)
		if err != nil {
			return fmt.Errorf("update %s: field %q: %w", table, field, err)
		}
		if !first {
			query += ", "
		}
		query += col.name + " = ?"
		args = append(args, arg)
		first = false
	}
	if first {
		return nil
	}
	query += " WHERE id = ?"
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: rows affected: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s %s: %w", table, id, core.ErrNotFound)
	}
	return nil
}

// columnArg converts a decoded JSON value to the column's storage type.
// Monetary fields arrive as integer cents (float64 after JSON decoding).
func columnArg(col column, value any) (any, error) {
	switch col.kind {
	case colText:
		switch v := value.(type) {
		case string:
			return v, nil
		case nil:
			return "", nil
		default:
			return nil, fmt.Errorf("expected string, got %T", value)
		}
	case colCents:
		var cents int64
		switch v := value.(type) {
		case float64:
			cents = int64(math.Round(v))
		case int64:
			cents = v
		case int:
			cents = int64(v)
		case core.Money:
			cents = v.Cents
		default:
			return nil, fmt.Errorf("expected cents number, got %T", value)
		}
		if cents < 0 {
			return nil, core.ErrInvalidAmount
		}
		return cents, nil
	case colReal:
		var q float64
		switch v := value.(type) {
		case float64:
			q = v
		case int:
			q = float64(v)
		default:
			return nil, fmt.Errorf("expected number, got %T", value)
		}
		if q < 0 {
			return nil, core.ErrInvalidQuantity
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unknown column kind %d", col.kind)
	}
}

// Delete removes one row; core.ErrNotFound when the id is absent.
func (r *Repository) Delete(ctx context.Context, table core.Table, id string) error {
	if !table.Valid() {
		return fmt.Errorf("%w: %s", core.ErrUnknownTable, table)
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+string(table)+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: rows affected: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s %s: %w", table, id, core.ErrNotFound)
	}
	return nil
}

// DeleteByProject removes a project's child rows. Zero matches is fine.
func (r *Repository) DeleteByProject(ctx context.Context, table core.Table, projectID string) error {
	if !table.Valid() {
		return fmt.Errorf("%w: %s", core.ErrUnknownTable, table)
	}
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM "+string(table)+" WHERE project_id = ?", projectID)
	if err != nil {
		return fmt.Errorf("delete from %s by project: %w", table, err)
	}
	return nil
}

// Wipe empties a table.
func (r *Repository) Wipe(ctx context.Context, table core.Table) error {
	if !table.Valid() {
		return fmt.Errorf("%w: %s", core.ErrUnknownTable, table)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM "+string(table)); err != nil {
		return fmt.Errorf("wipe %s: %w", table, err)
	}
	return nil
}

// Package sqlite is the durable Store backend: database/sql over the
// modernc sqlite driver, schema managed by embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"obras/internal/core"
	"obras/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

var _ store.Store = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Clients(ctx context.Context) ([]core.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, phone, document FROM clients ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select clients: %w", err)
	}
	defer rows.Close()

	var out []core.Client
	for rows.Next() {
		var c core.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Document); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) Products(ctx context.Context) ([]core.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, unit, base_price_cents FROM products ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var out []core.Product
	for rows.Next() {
		var p core.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Unit, &p.BasePrice.Cents); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) Projects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, start_date, end_date, client_id, value_cents, status
		 FROM projects ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}
	defer rows.Close()

	var out []core.Project
	for rows.Next() {
		var p core.Project
		if err := rows.Scan(&p.ID, &p.Description, &p.StartDate, &p.EndDate,
			&p.ClientID, &p.Value.Cents, &p.Status); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) Services(ctx context.Context) ([]core.ServiceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, collaborator_id, date, description, amount_cents, notes
		 FROM services ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select services: %w", err)
	}
	defer rows.Close()

	var out []core.ServiceRecord
	for rows.Next() {
		var s core.ServiceRecord
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.CollaboratorID, &s.Date,
			&s.Description, &s.Amount.Cents, &s.Notes); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) Materials(ctx context.Context) ([]core.MaterialRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, product_id, quantity, unit_price_cents, date
		 FROM materials ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select materials: %w", err)
	}
	defer rows.Close()

	var out []core.MaterialRecord
	for rows.Next() {
		var m core.MaterialRecord
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.ProductID, &m.Quantity,
			&m.UnitPrice.Cents, &m.Date); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) Collaborators(ctx context.Context) ([]core.Collaborator, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, role, phone, daily_rate_cents FROM collaborators ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select collaborators: %w", err)
	}
	defer rows.Close()

	var out []core.Collaborator
	for rows.Next() {
		var c core.Collaborator
		if err := rows.Scan(&c.ID, &c.Name, &c.Role, &c.Phone, &c.DefaultDailyRate.Cents); err != nil {
			return nil, fmt.Errorf("scan collaborator: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) PaymentsReceived(ctx context.Context) ([]core.PaymentReceived, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, date, amount_cents, method FROM payments_received ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select payments_received: %w", err)
	}
	defer rows.Close()

	var out []core.PaymentReceived
	for rows.Next() {
		var p core.PaymentReceived
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Date, &p.Amount.Cents, &p.Method); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) CollaboratorPayments(ctx context.Context) ([]core.CollaboratorPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, collaborator_id, date, amount_cents
		 FROM collaborator_payments ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select collaborator_payments: %w", err)
	}
	defer rows.Close()

	var out []core.CollaboratorPayment
	for rows.Next() {
		var p core.CollaboratorPayment
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.CollaboratorID, &p.Date, &p.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan collaborator payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) Settings(ctx context.Context) (core.Settings, error) {
	var s core.Settings
	err := r.db.QueryRowContext(ctx,
		`SELECT app_name, admin_name, admin_role, company_name, display_mode, app_logo
		 FROM settings WHERE id = 1`).
		Scan(&s.AppName, &s.AdminName, &s.AdminRole, &s.CompanyName, &s.DisplayMode, &s.AppLogo)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultSettings(), nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("select settings: %w", err)
	}
	return s, nil
}

func (r *Repository) PutSettings(ctx context.Context, s core.Settings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (id, app_name, admin_name, admin_role, company_name, display_mode, app_logo)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   app_name = excluded.app_name,
		   admin_name = excluded.admin_name,
		   admin_role = excluded.admin_role,
		   company_name = excluded.company_name,
		   display_mode = excluded.display_mode,
		   app_logo = excluded.app_logo`,
		s.AppName, s.AdminName, s.AdminRole, s.CompanyName, string(s.DisplayMode), s.AppLogo)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

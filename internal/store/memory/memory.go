// Package memory is an in-process Store used by tests and as a
// zero-setup development backend. Rows live in per-table slices so
// snapshot order matches insertion order.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"obras/internal/core"
	"obras/internal/store"
)

type Memory struct {
	mu       sync.Mutex
	tables   map[core.Table][]core.Record
	settings *core.Settings
}

var _ store.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{tables: make(map[core.Table][]core.Record)}
}

// Seed loads a snapshot into the store, replacing current contents.
func (m *Memory) Seed(snap core.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = make(map[core.Table][]core.Record)
	for _, table := range core.EntityTables() {
		m.tables[table] = append(m.tables[table], snap.Records(table)...)
	}
	settings := snap.Settings
	m.settings = &settings
}

func (m *Memory) Clients(ctx context.Context) ([]core.Client, error) {
	return rows[core.Client](m, core.TableClients)
}

func (m *Memory) Products(ctx context.Context) ([]core.Product, error) {
	return rows[core.Product](m, core.TableProducts)
}

func (m *Memory) Projects(ctx context.Context) ([]core.Project, error) {
	return rows[core.Project](m, core.TableProjects)
}

func (m *Memory) Services(ctx context.Context) ([]core.ServiceRecord, error) {
	return rows[core.ServiceRecord](m, core.TableServices)
}

func (m *Memory) Materials(ctx context.Context) ([]core.MaterialRecord, error) {
	return rows[core.MaterialRecord](m, core.TableMaterials)
}

func (m *Memory) Collaborators(ctx context.Context) ([]core.Collaborator, error) {
	return rows[core.Collaborator](m, core.TableCollaborators)
}

func (m *Memory) PaymentsReceived(ctx context.Context) ([]core.PaymentReceived, error) {
	return rows[core.PaymentReceived](m, core.TablePaymentsReceived)
}

func (m *Memory) CollaboratorPayments(ctx context.Context) ([]core.CollaboratorPayment, error) {
	return rows[core.CollaboratorPayment](m, core.TableCollaboratorPayments)
}

func rows[T core.Record](m *Memory, table core.Table) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.tables[table]
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		row, ok := r.(T)
		if !ok {
			return nil, fmt.Errorf("table %s holds %T, not %T", table, r, *new(T))
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *Memory) Settings(ctx context.Context) (core.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return core.DefaultSettings(), nil
	}
	return *m.settings, nil
}

func (m *Memory) PutSettings(ctx context.Context, s core.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}

func (m *Memory) Insert(ctx context.Context, table core.Table, records ...core.Record) error {
	if !table.Valid() {
		return fmt.Errorf("%w: %s", core.ErrUnknownTable, table)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], records...)
	return nil
}

// Update merges the partial fields into the stored record through its
// JSON form, so both backends interpret fields identically.
func (m *Memory) Update(ctx context.Context, table core.Table, id string, fields store.Fields) error {
	if !table.Valid() {
		return fmt.Errorf("%w: %s", core.ErrUnknownTable, table)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.tables[table]
	for i, r := range recs {
		if r.RecordID() != id {
			continue
		}
		merged, err := mergeRecord(table, r, fields)
		if err != nil {
			return err
		}
		recs[i] = merged
		return nil
	}
	return fmt.Errorf("update %s %s: %w", table, id, core.ErrNotFound)
}

func mergeRecord(table core.Table, rec core.Record, fields store.Fields) (core.Record, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	for k, v := range fields {
		if k == "id" {
			// ids are immutable
			continue
		}
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode merged record: %w", err)
	}
	out, err := core.DecodeRecord(table, merged)
	if err != nil {
		return nil, err
	}
	out = out.WithRecordID(rec.RecordID())
	// A partial update must not produce a record Insert would reject.
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, table core.Table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.tables[table]
	for i, r := range recs {
		if r.RecordID() == id {
			m.tables[table] = append(recs[:i:i], recs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete %s %s: %w", table, id, core.ErrNotFound)
}

func (m *Memory) DeleteByProject(ctx context.Context, table core.Table, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.tables[table]
	kept := recs[:0:0]
	for _, r := range recs {
		if projectOf(r) != projectID {
			kept = append(kept, r)
		}
	}
	m.tables[table] = kept
	return nil
}

func projectOf(r core.Record) string {
	switch rec := r.(type) {
	case core.ServiceRecord:
		return rec.ProjectID
	case core.MaterialRecord:
		return rec.ProjectID
	case core.PaymentReceived:
		return rec.ProjectID
	case core.CollaboratorPayment:
		return rec.ProjectID
	default:
		return ""
	}
}

func (m *Memory) Wipe(ctx context.Context, table core.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, table)
	return nil
}

func (m *Memory) Close() error {
	return nil
}

package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"obras/internal/amqp"
	"obras/internal/core"
	"obras/internal/ledger"
	"obras/internal/store"
	"obras/internal/store/memory"
)

type recordingPublisher struct {
	published []amqp.Op
	fail      bool
}

func (p *recordingPublisher) PublishMutation(ctx context.Context, table core.Table, op amqp.Op, recordID string) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.published = append(p.published, op)
	return nil
}

func seedProject(t *testing.T, g *Gateway) core.Project {
	t.Helper()
	ctx := context.Background()

	rec, err := g.Create(ctx, core.TableProjects, core.Project{
		Description: "Warehouse renovation",
		Status:      core.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	project := rec.(core.Project)

	children := []struct {
		table core.Table
		rec   core.Record
	}{
		{core.TableServices, core.ServiceRecord{ProjectID: project.ID, Amount: core.Money{Cents: 30000}}},
		{core.TableServices, core.ServiceRecord{ProjectID: project.ID, Amount: core.Money{Cents: 20000}}},
		{core.TableServices, core.ServiceRecord{ProjectID: project.ID, Amount: core.Money{Cents: 10000}}},
		{core.TableMaterials, core.MaterialRecord{ProjectID: project.ID, Quantity: 10, UnitPrice: core.Money{Cents: 5000}}},
		{core.TableMaterials, core.MaterialRecord{ProjectID: project.ID, Quantity: 2, UnitPrice: core.Money{Cents: 1500}}},
		{core.TablePaymentsReceived, core.PaymentReceived{ProjectID: project.ID, Amount: core.Money{Cents: 400000}}},
		{core.TableCollaboratorPayments, core.CollaboratorPayment{ProjectID: project.ID, Amount: core.Money{Cents: 15000}}},
	}
	for _, c := range children {
		if _, err := g.Create(ctx, c.table, c.rec); err != nil {
			t.Fatalf("create %s: %v", c.table, err)
		}
	}
	return project
}

func TestCreateAssignsID(t *testing.T) {
	g := New(memory.New(), nil)

	rec, err := g.Create(context.Background(), core.TableClients, core.Client{Name: "Ana"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.RecordID() == "" {
		t.Error("Create should assign an id")
	}
}

func TestCreatePreservesExplicitID(t *testing.T) {
	g := New(memory.New(), nil)

	rec, err := g.Create(context.Background(), core.TableClients, core.Client{ID: "c42", Name: "Ana"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.RecordID() != "c42" {
		t.Errorf("Create replaced explicit id with %q", rec.RecordID())
	}
}

func TestCreateRejectsInvalidRecord(t *testing.T) {
	g := New(memory.New(), nil)

	if _, err := g.Create(context.Background(), core.TableClients, core.Client{}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("Create = %v, want ErrEmptyName", err)
	}
	if _, err := g.Create(context.Background(), "bogus", core.Client{Name: "x"}); !errors.Is(err, core.ErrUnknownTable) {
		t.Errorf("Create = %v, want ErrUnknownTable", err)
	}
}

func TestCreateBatchAssignsDistinctIDs(t *testing.T) {
	g := New(memory.New(), nil)

	recs := []core.Record{
		core.MaterialRecord{ProjectID: "p1", Quantity: 1, UnitPrice: core.Money{Cents: 100}},
		core.MaterialRecord{ProjectID: "p1", Quantity: 2, UnitPrice: core.Money{Cents: 200}},
		core.MaterialRecord{ProjectID: "p1", Quantity: 3, UnitPrice: core.Money{Cents: 300}},
	}
	out, err := g.CreateBatch(context.Background(), core.TableMaterials, recs)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	seen := make(map[string]struct{})
	for _, rec := range out {
		id := rec.RecordID()
		if id == "" {
			t.Fatal("batch record missing id")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s in batch", id)
		}
		seen[id] = struct{}{}
	}
}

func TestUpdateNotFound(t *testing.T) {
	g := New(memory.New(), nil)

	err := g.Update(context.Background(), core.TableClients, "missing", store.Fields{"name": "x"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update = %v, want ErrNotFound", err)
	}
}

func TestUpdateMergesPartialFields(t *testing.T) {
	g := New(memory.New(), nil)
	ctx := context.Background()

	rec, err := g.Create(ctx, core.TableClients, core.Client{Name: "Ana", Email: "a@example.com", Phone: "111"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := g.Update(ctx, core.TableClients, rec.RecordID(), store.Fields{"phone": "222"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	snap, err := g.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}
	got := snap.Clients[0]
	if got.Phone != "222" {
		t.Errorf("Phone = %q, want updated value", got.Phone)
	}
	if got.Name != "Ana" || got.Email != "a@example.com" {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestDeleteNotFound(t *testing.T) {
	g := New(memory.New(), nil)

	err := g.Delete(context.Background(), core.TableProducts, "missing")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete = %v, want ErrNotFound", err)
	}
}

func TestDeleteProjectCascade(t *testing.T) {
	st := memory.New()
	g := New(st, nil)
	ctx := context.Background()

	project := seedProject(t, g)
	before := mustDashboard(t, g)
	if before.TotalReceived.Cents == 0 || before.TotalServicesProduced.Cents == 0 {
		t.Fatalf("fixture has no ledger activity: %+v", before)
	}

	if err := g.DeleteProjectCascade(ctx, project.ID); err != nil {
		t.Fatalf("DeleteProjectCascade: %v", err)
	}

	snap, err := g.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}
	if len(snap.Projects) != 0 {
		t.Errorf("project row survived cascade: %+v", snap.Projects)
	}
	for _, table := range core.ProjectChildTables() {
		if rows := snap.Records(table); len(rows) != 0 {
			t.Errorf("%s rows survived cascade: %d", table, len(rows))
		}
	}

	// All contributions are gone, so the global totals return to zero.
	after := ledger.Dashboard(snap)
	if after.TotalReceived.Cents != 0 || after.TotalMaterialCost.Cents != 0 ||
		after.TotalServicesProduced.Cents != 0 || after.CollabPendingBalance.Cents != 0 {
		t.Errorf("totals after cascade = %+v, want all zero", after)
	}
}

func TestDeleteProjectCascadeLeavesOtherProjects(t *testing.T) {
	g := New(memory.New(), nil)
	ctx := context.Background()

	doomed := seedProject(t, g)
	kept, err := g.Create(ctx, core.TableProjects, core.Project{Description: "Annex", Status: core.StatusPending})
	if err != nil {
		t.Fatalf("create kept project: %v", err)
	}
	if _, err := g.Create(ctx, core.TableServices, core.ServiceRecord{
		ProjectID: kept.RecordID(), Amount: core.Money{Cents: 7700},
	}); err != nil {
		t.Fatalf("create kept service: %v", err)
	}

	if err := g.DeleteProjectCascade(ctx, doomed.ID); err != nil {
		t.Fatalf("DeleteProjectCascade: %v", err)
	}

	snap, err := g.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}
	if len(snap.Projects) != 1 || snap.Projects[0].ID != kept.RecordID() {
		t.Errorf("kept project missing: %+v", snap.Projects)
	}
	if len(snap.Services) != 1 || snap.Services[0].ProjectID != kept.RecordID() {
		t.Errorf("kept service missing: %+v", snap.Services)
	}
}

// failingStore wraps a Store and fails child deletes on one table.
type failingStore struct {
	store.Store
	failTable core.Table
}

func (f *failingStore) DeleteByProject(ctx context.Context, table core.Table, projectID string) error {
	if table == f.failTable {
		return fmt.Errorf("delete from %s by project: backend unavailable", table)
	}
	return f.Store.DeleteByProject(ctx, table, projectID)
}

func TestDeleteProjectCascadePartialFailure(t *testing.T) {
	mem := memory.New()
	g := New(mem, nil)
	project := seedProject(t, g)

	broken := New(&failingStore{Store: mem, failTable: core.TableMaterials}, nil)
	err := broken.DeleteProjectCascade(context.Background(), project.ID)

	var partial *PartialCascadeError
	if !errors.As(err, &partial) {
		t.Fatalf("cascade error = %v, want PartialCascadeError", err)
	}
	if partial.ProjectID != project.ID {
		t.Errorf("ProjectID = %q", partial.ProjectID)
	}
	if _, ok := partial.Failures[core.TableMaterials]; !ok {
		t.Errorf("Failures = %v, want materials entry", partial.Failures)
	}
	if len(partial.Failures) != 1 {
		t.Errorf("Failures = %v, want only materials", partial.Failures)
	}

	// The successful deletes stay deleted; the failed table keeps rows.
	snap, exportErr := g.ExportSnapshot(context.Background())
	if exportErr != nil {
		t.Fatalf("ExportSnapshot: %v", exportErr)
	}
	if len(snap.Projects) != 0 {
		t.Error("project row should have been deleted")
	}
	if len(snap.Materials) == 0 {
		t.Error("materials should have survived the failed delete")
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	pub := &recordingPublisher{}
	g := New(memory.New(), pub)
	ctx := context.Background()

	rec, err := g.Create(ctx, core.TableClients, core.Client{Name: "Ana"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := g.Update(ctx, core.TableClients, rec.RecordID(), store.Fields{"phone": "1"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := g.Delete(ctx, core.TableClients, rec.RecordID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := g.SaveSettings(ctx, core.DefaultSettings()); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	want := []amqp.Op{amqp.OpCreate, amqp.OpUpdate, amqp.OpDelete, amqp.OpSettings}
	if len(pub.published) != len(want) {
		t.Fatalf("published %v, want %v", pub.published, want)
	}
	for i, op := range want {
		if pub.published[i] != op {
			t.Errorf("published[%d] = %s, want %s", i, pub.published[i], op)
		}
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	g := New(memory.New(), &recordingPublisher{fail: true})

	if _, err := g.Create(context.Background(), core.TableClients, core.Client{Name: "Ana"}); err != nil {
		t.Errorf("Create should succeed when the broker is down, got %v", err)
	}
}

func TestOnMutationHook(t *testing.T) {
	g := New(memory.New(), nil)

	var seen []core.Table
	g.OnMutation(func(table core.Table) {
		seen = append(seen, table)
	})

	if _, err := g.Create(context.Background(), core.TableProducts, core.Product{Name: "Cement"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(seen) != 1 || seen[0] != core.TableProducts {
		t.Errorf("hook saw %v", seen)
	}
}

func TestReset(t *testing.T) {
	g := New(memory.New(), nil)
	ctx := context.Background()

	seedProject(t, g)
	custom := core.DefaultSettings()
	custom.CompanyName = "Acme Construction"
	if err := g.SaveSettings(ctx, custom); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	if err := g.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	snap, err := g.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}
	for _, table := range core.EntityTables() {
		if rows := snap.Records(table); len(rows) != 0 {
			t.Errorf("%s not empty after reset", table)
		}
	}
	if snap.Settings != core.DefaultSettings() {
		t.Errorf("settings after reset = %+v", snap.Settings)
	}
}

func mustDashboard(t *testing.T, g *Gateway) ledger.DashboardMetrics {
	t.Helper()
	snap, err := g.ExportSnapshot(context.Background())
	if err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}
	return ledger.Dashboard(snap)
}

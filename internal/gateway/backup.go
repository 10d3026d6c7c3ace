package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"obras/internal/amqp"
	"obras/internal/core"
)

// ExportSnapshot serializes the entire system state, fetching all nine
// collections concurrently.
func (g *Gateway) ExportSnapshot(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() (err error) {
		snap.Settings, err = g.store.Settings(ctx)
		return err
	})
	grp.Go(func() (err error) {
		snap.Clients, err = g.store.Clients(ctx)
		return err
	})
	grp.Go(func() (err error) {
		snap.Products, err = g.store.Products(ctx)
		return err
	})
	grp.Go(func() (err error) {
		snap.Projects, err = g.store.Projects(ctx)
		return err
	})
	grp.Go(func() (err error) {
		snap.Services, err = g.store.Services(ctx)
		return err
	})
	grp.Go(func() (err error) {
		snap.Materials, err = g.store.Materials(ctx)
		return err
	})
	grp.Go(func() (err error) {
		snap.Collaborators, err = g.store.Collaborators(ctx)
		return err
	})
	grp.Go(func() (err error) {
		snap.PaymentsReceived, err = g.store.PaymentsReceived(ctx)
		return err
	})
	grp.Go(func() (err error) {
		snap.CollaboratorPayments, err = g.store.CollaboratorPayments(ctx)
		return err
	})
	if err := grp.Wait(); err != nil {
		return core.Snapshot{}, fmt.Errorf("export snapshot: %w", err)
	}
	return snap, nil
}

// ExportJSON returns the backup document as indented UTF-8 JSON.
func (g *Gateway) ExportJSON(ctx context.Context) ([]byte, error) {
	snap, err := g.ExportSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return data, nil
}

// ImportSnapshot performs a destructive full replace from a backup
// document. The document is parsed and validated before the first
// destructive step, so a malformed backup never costs data. Record ids
// are preserved exactly as exported. A failure after the wipe is
// reported as-is; the wipe is not undone.
func (g *Gateway) ImportSnapshot(ctx context.Context, doc []byte) error {
	var snap core.Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return &ImportFormatError{Err: err}
	}
	if snap.Settings == (core.Settings{}) {
		snap.Settings = core.DefaultSettings()
	}

	if err := g.wipeAll(ctx); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	// Parents before children, matching the export order.
	inserts := []struct {
		table core.Table
		recs  []core.Record
	}{
		{core.TableClients, snap.Records(core.TableClients)},
		{core.TableProducts, snap.Records(core.TableProducts)},
		{core.TableCollaborators, snap.Records(core.TableCollaborators)},
		{core.TableProjects, snap.Records(core.TableProjects)},
		{core.TableServices, snap.Records(core.TableServices)},
		{core.TableMaterials, snap.Records(core.TableMaterials)},
		{core.TablePaymentsReceived, snap.Records(core.TablePaymentsReceived)},
		{core.TableCollaboratorPayments, snap.Records(core.TableCollaboratorPayments)},
	}
	for _, ins := range inserts {
		if len(ins.recs) == 0 {
			continue
		}
		if err := g.store.Insert(ctx, ins.table, ins.recs...); err != nil {
			return fmt.Errorf("import %s: %w", ins.table, err)
		}
	}

	if err := g.store.PutSettings(ctx, snap.Settings); err != nil {
		return fmt.Errorf("import settings: %w", err)
	}

	g.notify(ctx, "", amqp.OpImport, "")
	return nil
}

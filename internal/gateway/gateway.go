// Package gateway translates domain operations into store calls. The
// only logic it owns is id generation, cascade orchestration and the
// backup import/export sequence; every operation returns an explicit
// error rather than swallowing store failures.
package gateway

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"obras/internal/amqp"
	"obras/internal/core"
	applog "obras/internal/log"
	"obras/internal/store"
)

// Publisher announces committed mutations on the bus. Publishing is
// best-effort: the mutation has already been applied, so a publish
// failure is logged, never surfaced.
type Publisher interface {
	PublishMutation(ctx context.Context, table core.Table, op amqp.Op, recordID string) error
}

type Gateway struct {
	store  store.Store
	pub    Publisher // optional
	logger *applog.StructuredLogger

	mu         sync.Mutex
	onMutation []func(core.Table)
}

func New(st store.Store, pub Publisher) *Gateway {
	return &Gateway{
		store:  st,
		pub:    pub,
		logger: applog.NewStructuredLogger(applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentGateway)),
	}
}

// OnMutation registers a hook run after every successful mutation,
// before the bus publish. The snapshot cache invalidates itself here.
func (g *Gateway) OnMutation(fn func(core.Table)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onMutation = append(g.onMutation, fn)
}

func (g *Gateway) notify(ctx context.Context, table core.Table, op amqp.Op, recordID string) {
	g.mu.Lock()
	hooks := g.onMutation
	g.mu.Unlock()
	for _, fn := range hooks {
		fn(table)
	}

	g.logger.LogMutation(ctx, string(op), string(table), recordID)

	if g.pub == nil {
		return
	}
	if err := g.pub.PublishMutation(ctx, table, op, recordID); err != nil {
		g.logger.LogError(ctx, "Failed to publish mutation message", err,
			string(op), applog.NewFields().WithRecord(string(table), recordID))
	}
}

// Create validates the record, assigns a fresh id when absent, and
// inserts it. The stored record is returned so callers see the id.
func (g *Gateway) Create(ctx context.Context, table core.Table, rec core.Record) (core.Record, error) {
	if !table.Valid() {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownTable, table)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if rec.RecordID() == "" {
		rec = rec.WithRecordID(core.NewID())
	}
	if err := g.store.Insert(ctx, table, rec); err != nil {
		return nil, fmt.Errorf("create in %s: %w", table, err)
	}
	g.notify(ctx, table, amqp.OpCreate, rec.RecordID())
	return rec, nil
}

// CreateBatch inserts N records in one store call. The backend gives no
// cross-record transaction guarantee beyond what the store implements.
func (g *Gateway) CreateBatch(ctx context.Context, table core.Table, recs []core.Record) ([]core.Record, error) {
	if !table.Valid() {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownTable, table)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	out := make([]core.Record, len(recs))
	for i, rec := range recs {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if rec.RecordID() == "" {
			rec = rec.WithRecordID(core.NewID())
		}
		out[i] = rec
	}
	if err := g.store.Insert(ctx, table, out...); err != nil {
		return nil, fmt.Errorf("batch create in %s: %w", table, err)
	}
	g.notify(ctx, table, amqp.OpBatch, "")
	return out, nil
}

// Update merges partial fields into the record identified by id.
// core.ErrNotFound when the id matches nothing.
func (g *Gateway) Update(ctx context.Context, table core.Table, id string, fields store.Fields) error {
	if !table.Valid() {
		return fmt.Errorf("%w: %s", core.ErrUnknownTable, table)
	}
	if err := g.store.Update(ctx, table, id, fields); err != nil {
		return err
	}
	g.notify(ctx, table, amqp.OpUpdate, id)
	return nil
}

// Delete removes one record. core.ErrNotFound when absent.
func (g *Gateway) Delete(ctx context.Context, table core.Table, id string) error {
	if !table.Valid() {
		return fmt.Errorf("%w: %s", core.ErrUnknownTable, table)
	}
	if err := g.store.Delete(ctx, table, id); err != nil {
		return err
	}
	g.notify(ctx, table, amqp.OpDelete, id)
	return nil
}

// DeleteProjectCascade removes the project row and every child row
// referencing it, fanned out in parallel. The deletes are independent
// operations with no cross-table transaction: when some fail, the ones
// that succeeded stay deleted, and the result is a PartialCascadeError
// naming the tables that failed.
func (g *Gateway) DeleteProjectCascade(ctx context.Context, projectID string) error {
	var mu sync.Mutex
	failures := make(map[core.Table]error)

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		if err := g.store.Delete(ctx, core.TableProjects, projectID); err != nil {
			mu.Lock()
			failures[core.TableProjects] = err
			mu.Unlock()
		}
		return nil
	})
	for _, table := range core.ProjectChildTables() {
		table := table
		grp.Go(func() error {
			if err := g.store.DeleteByProject(ctx, table, projectID); err != nil {
				mu.Lock()
				failures[table] = err
				mu.Unlock()
			}
			return nil
		})
	}
	grp.Wait()

	if len(failures) > 0 {
		return &PartialCascadeError{ProjectID: projectID, Failures: failures}
	}
	g.notify(ctx, core.TableProjects, amqp.OpCascade, projectID)
	return nil
}

// SaveSettings upserts the singleton settings row.
func (g *Gateway) SaveSettings(ctx context.Context, s core.Settings) error {
	if err := g.store.PutSettings(ctx, s); err != nil {
		return err
	}
	g.notify(ctx, core.TableSettings, amqp.OpSettings, "")
	return nil
}

// Reset wipes every table and restores default settings.
func (g *Gateway) Reset(ctx context.Context) error {
	if err := g.wipeAll(ctx); err != nil {
		return err
	}
	if err := g.store.PutSettings(ctx, core.DefaultSettings()); err != nil {
		return fmt.Errorf("restore default settings: %w", err)
	}
	g.notify(ctx, "", amqp.OpReset, "")
	return nil
}

func (g *Gateway) wipeAll(ctx context.Context) error {
	grp, ctx := errgroup.WithContext(ctx)
	for _, table := range core.EntityTables() {
		table := table
		grp.Go(func() error {
			if err := g.store.Wipe(ctx, table); err != nil {
				return err
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return fmt.Errorf("wipe tables: %w", err)
	}
	return nil
}

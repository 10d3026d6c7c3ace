// Package worker mirrors ledger reports to an external report sink. It
// reacts to mutation messages from AMQP and also syncs on a timer, so a
// lost message only delays the mirror until the next tick.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"obras/internal/amqp"
	"obras/internal/ledger"
	"obras/internal/sheets"
	"obras/internal/snapshot"
)

// ReportWorker recomputes all reports from a fresh snapshot and pushes
// them to the sink.
type ReportWorker struct {
	loader *snapshot.Loader
	sink   sheets.ReportSink
}

func NewReportWorker(loader *snapshot.Loader, sink sheets.ReportSink) *ReportWorker {
	return &ReportWorker{
		loader: loader,
		sink:   sink,
	}
}

// HandleMutation processes a single mutation message from AMQP. Every
// mutation invalidates the snapshot and triggers a full sync; reports
// are cheap to recompute and the sink write dominates.
func (w *ReportWorker) HandleMutation(ctx context.Context, msg *amqp.MutationMessage) error {
	slog.InfoContext(ctx, "Processing mutation message",
		"table", msg.Table,
		"op", msg.Op,
		"record_id", msg.RecordID)

	w.loader.Invalidate()
	if err := w.Sync(ctx); err != nil {
		return fmt.Errorf("sync after mutation: %w", err)
	}
	return nil
}

// Sync loads the current snapshot and writes all three reports.
func (w *ReportWorker) Sync(ctx context.Context) error {
	start := time.Now()

	snap, err := w.loader.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	metrics := ledger.Dashboard(snap)
	projects := ledger.ProjectReports(snap)
	collaborators := ledger.CollaboratorReports(snap)

	if err := w.sink.WriteDashboard(ctx, metrics); err != nil {
		return fmt.Errorf("write dashboard: %w", err)
	}
	if err := w.sink.WriteProjectReports(ctx, projects); err != nil {
		return fmt.Errorf("write project reports: %w", err)
	}
	if err := w.sink.WriteCollaboratorReports(ctx, collaborators); err != nil {
		return fmt.Errorf("write collaborator reports: %w", err)
	}

	slog.InfoContext(ctx, "Reports synced",
		"projects", len(projects),
		"collaborators", len(collaborators),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// StartupSync performs one full sync at worker startup, recovering from
// messages missed while the worker was down.
func (w *ReportWorker) StartupSync(ctx context.Context) error {
	slog.InfoContext(ctx, "Running startup report sync")
	w.loader.Invalidate()
	return w.Sync(ctx)
}

// RunPeriodic syncs on every tick until the context is canceled. Errors
// are logged and the loop keeps going.
func (w *ReportWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Sync(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic report sync failed", "error", err)
			}
		}
	}
}

package sheets

import (
	"context"

	"obras/internal/ledger"
)

// Ports for outbound report adapters.
type (
	// DashboardWriter mirrors the dashboard totals to an external sheet.
	DashboardWriter interface {
		WriteDashboard(ctx context.Context, m ledger.DashboardMetrics) error
	}

	// ProjectReportWriter mirrors the per-project report rows.
	ProjectReportWriter interface {
		WriteProjectReports(ctx context.Context, rows []ledger.ProjectReport) error
	}

	// CollaboratorReportWriter mirrors the per-collaborator report rows.
	CollaboratorReportWriter interface {
		WriteCollaboratorReports(ctx context.Context, rows []ledger.CollaboratorReport) error
	}
)

// ReportSink is the full mirror surface the sync worker writes to.
type ReportSink interface {
	DashboardWriter
	ProjectReportWriter
	CollaboratorReportWriter
}

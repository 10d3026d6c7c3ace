package memory

import (
	"context"
	"testing"

	"obras/internal/core"
	"obras/internal/ledger"
)

func TestSinkKeepsLastWrite(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.WriteDashboard(ctx, ledger.DashboardMetrics{TotalProjects: 1}); err != nil {
		t.Fatalf("WriteDashboard: %v", err)
	}
	if err := s.WriteDashboard(ctx, ledger.DashboardMetrics{TotalProjects: 2, TotalReceived: core.Money{Cents: 500}}); err != nil {
		t.Fatalf("WriteDashboard: %v", err)
	}

	got := s.Dashboard()
	if got.TotalProjects != 2 || got.TotalReceived.Cents != 500 {
		t.Errorf("Dashboard = %+v", got)
	}
	if s.Writes() != 2 {
		t.Errorf("Writes = %d, want 2", s.Writes())
	}
}

func TestSinkCopiesRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	rows := []ledger.ProjectReport{{ProjectID: "p1", Description: "Warehouse"}}
	if err := s.WriteProjectReports(ctx, rows); err != nil {
		t.Fatalf("WriteProjectReports: %v", err)
	}
	rows[0].Description = "mutated"

	got := s.Projects()
	if got[0].Description != "Warehouse" {
		t.Errorf("sink shares caller slice: %+v", got)
	}

	collabs := []ledger.CollaboratorReport{{CollaboratorID: "co1", Name: "João"}}
	if err := s.WriteCollaboratorReports(ctx, collabs); err != nil {
		t.Fatalf("WriteCollaboratorReports: %v", err)
	}
	if len(s.Collaborators()) != 1 {
		t.Errorf("Collaborators = %+v", s.Collaborators())
	}
}

// Package memory is an in-process ReportSink used by tests and local
// development. It keeps the last written reports.
package memory

import (
	"context"
	"sync"

	"obras/internal/ledger"
	ports "obras/internal/sheets"
)

type Sink struct {
	mu            sync.Mutex
	dashboard     ledger.DashboardMetrics
	projects      []ledger.ProjectReport
	collaborators []ledger.CollaboratorReport
	writes        int
}

var _ ports.ReportSink = (*Sink)(nil)

func New() *Sink {
	return &Sink{}
}

func (s *Sink) WriteDashboard(_ context.Context, m ledger.DashboardMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dashboard = m
	s.writes++
	return nil
}

func (s *Sink) WriteProjectReports(_ context.Context, rows []ledger.ProjectReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append([]ledger.ProjectReport(nil), rows...)
	s.writes++
	return nil
}

func (s *Sink) WriteCollaboratorReports(_ context.Context, rows []ledger.CollaboratorReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collaborators = append([]ledger.CollaboratorReport(nil), rows...)
	s.writes++
	return nil
}

// Dashboard returns the last dashboard written.
func (s *Sink) Dashboard() ledger.DashboardMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dashboard
}

// Projects returns the last project rows written.
func (s *Sink) Projects() []ledger.ProjectReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.ProjectReport(nil), s.projects...)
}

// Collaborators returns the last collaborator rows written.
func (s *Sink) Collaborators() []ledger.CollaboratorReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.CollaboratorReport(nil), s.collaborators...)
}

// Writes returns how many write calls the sink has received.
func (s *Sink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

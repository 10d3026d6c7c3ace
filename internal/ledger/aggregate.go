// Package ledger derives financial views from a snapshot. Every function
// here is pure: same snapshot in, same numbers out, no I/O. Views are
// recomputed from scratch on every call; data volumes are small and
// correctness matters more than avoiding recomputation.
package ledger

import "obras/internal/core"

// Fallback labels for dangling references. The system tolerates a record
// pointing at a deleted parent and renders a placeholder instead of
// failing.
const (
	UnknownClient       = "unknown client"
	UnknownCollaborator = "unknown collaborator"
	UnknownProduct      = "unknown product"
)

// DashboardMetrics are the global totals shown on the landing view.
// Balances are signed: a negative real balance means produced cost
// exceeds client cash received.
type DashboardMetrics struct {
	TotalReceived         core.Money `json:"totalReceived"`
	TotalMaterialCost     core.Money `json:"totalMaterialCost"`
	TotalServicesProduced core.Money `json:"totalServicesProduced"`
	ProjectsRealBalance   core.Money `json:"projectsRealBalance"`
	CollabPendingBalance  core.Money `json:"collabPendingBalance"`
	ActiveProjects        int        `json:"activeProjects"`
	TotalProjects         int        `json:"totalProjects"`
	TotalClients          int        `json:"totalClients"`
	TotalCollaborators    int        `json:"totalCollaborators"`
}

// Dashboard computes the global metrics. Empty collections yield zero
// sums, never errors.
func Dashboard(s core.Snapshot) DashboardMetrics {
	var received, materials, services, paid core.Money
	for _, p := range s.PaymentsReceived {
		received = received.Add(p.Amount)
	}
	for _, m := range s.Materials {
		materials = materials.Add(m.Total())
	}
	for _, sv := range s.Services {
		services = services.Add(sv.Amount)
	}
	for _, cp := range s.CollaboratorPayments {
		paid = paid.Add(cp.Amount)
	}

	active := 0
	for _, p := range s.Projects {
		if p.Status == core.StatusInProgress {
			active++
		}
	}

	return DashboardMetrics{
		TotalReceived:         received,
		TotalMaterialCost:     materials,
		TotalServicesProduced: services,
		ProjectsRealBalance:   received.Sub(materials.Add(services)),
		CollabPendingBalance:  services.Sub(paid),
		ActiveProjects:        active,
		TotalProjects:         len(s.Projects),
		TotalClients:          len(s.Clients),
		TotalCollaborators:    len(s.Collaborators),
	}
}

// ProjectReport is one row of the per-project report.
type ProjectReport struct {
	ProjectID      string             `json:"projectId"`
	Description    string             `json:"description"`
	ClientName     string             `json:"clientName"`
	Status         core.ProjectStatus `json:"status"`
	ContractValue  core.Money         `json:"contractValue"`
	Received       core.Money         `json:"received"`
	MaterialsCost  core.Money         `json:"materialsCost"`
	ServicesValue  core.Money         `json:"servicesValue"`
	ProductionCost core.Money         `json:"productionCost"`
	Profit         core.Money         `json:"profit"`
	ProfitMargin   float64            `json:"profitMargin"` // percent
	LaborDebt      core.Money         `json:"laborDebt"`
}

// ProjectRow computes the report row for one project against the full
// snapshot.
func ProjectRow(p core.Project, s core.Snapshot) ProjectReport {
	var received, materials, services, paid core.Money
	for _, pr := range s.PaymentsReceived {
		if pr.ProjectID == p.ID {
			received = received.Add(pr.Amount)
		}
	}
	for _, m := range s.Materials {
		if m.ProjectID == p.ID {
			materials = materials.Add(m.Total())
		}
	}
	for _, sv := range s.Services {
		if sv.ProjectID == p.ID {
			services = services.Add(sv.Amount)
		}
	}
	for _, cp := range s.CollaboratorPayments {
		if cp.ProjectID == p.ID {
			paid = paid.Add(cp.Amount)
		}
	}

	production := materials.Add(services)
	profit := received.Sub(production)

	// Division by zero resolves to exactly 0, not NaN or infinity.
	margin := 0.0
	if received.Cents > 0 {
		margin = float64(profit.Cents) / float64(received.Cents) * 100
	}

	clientName := UnknownClient
	if c, ok := s.ClientByID(p.ClientID); ok {
		clientName = c.Name
	}

	return ProjectReport{
		ProjectID:      p.ID,
		Description:    p.Description,
		ClientName:     clientName,
		Status:         p.Status,
		ContractValue:  p.Value,
		Received:       received,
		MaterialsCost:  materials,
		ServicesValue:  services,
		ProductionCost: production,
		Profit:         profit,
		ProfitMargin:   margin,
		LaborDebt:      services.Sub(paid),
	}
}

// ProjectReports computes one row per project, in snapshot order.
func ProjectReports(s core.Snapshot) []ProjectReport {
	rows := make([]ProjectReport, 0, len(s.Projects))
	for _, p := range s.Projects {
		rows = append(rows, ProjectRow(p, s))
	}
	return rows
}

// ProjectTotals aggregates report rows into a footer line.
type ProjectTotals struct {
	Received       core.Money `json:"received"`
	ProductionCost core.Money `json:"productionCost"`
	Profit         core.Money `json:"profit"`
}

// SumProjectReports folds report rows into grand totals.
func SumProjectReports(rows []ProjectReport) ProjectTotals {
	var t ProjectTotals
	for _, r := range rows {
		t.Received = t.Received.Add(r.Received)
		t.ProductionCost = t.ProductionCost.Add(r.ProductionCost)
		t.Profit = t.Profit.Add(r.Profit)
	}
	return t
}

// CollaboratorReport is one row of the per-collaborator report. Produced
// and paid span all projects.
type CollaboratorReport struct {
	CollaboratorID string     `json:"collaboratorId"`
	Name           string     `json:"name"`
	Role           string     `json:"role"`
	Produced       core.Money `json:"produced"`
	Paid           core.Money `json:"paid"`
	Balance        core.Money `json:"balance"`
	Settled        bool       `json:"settled"`
}

// CollaboratorRow computes produced/paid/balance for one collaborator.
// Settled means balance <= 0: payments have caught up with production.
func CollaboratorRow(c core.Collaborator, s core.Snapshot) CollaboratorReport {
	var produced, paid core.Money
	for _, sv := range s.Services {
		if sv.CollaboratorID == c.ID {
			produced = produced.Add(sv.Amount)
		}
	}
	for _, cp := range s.CollaboratorPayments {
		if cp.CollaboratorID == c.ID {
			paid = paid.Add(cp.Amount)
		}
	}

	balance := produced.Sub(paid)
	return CollaboratorReport{
		CollaboratorID: c.ID,
		Name:           c.Name,
		Role:           c.Role,
		Produced:       produced,
		Paid:           paid,
		Balance:        balance,
		Settled:        balance.Cents <= 0,
	}
}

// CollaboratorReports computes one row per collaborator, in snapshot order.
func CollaboratorReports(s core.Snapshot) []CollaboratorReport {
	rows := make([]CollaboratorReport, 0, len(s.Collaborators))
	for _, c := range s.Collaborators {
		rows = append(rows, CollaboratorRow(c, s))
	}
	return rows
}

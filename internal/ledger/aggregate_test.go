package ledger

import (
	"math/rand"
	"reflect"
	"testing"

	"obras/internal/core"
)

func cents(v int64) core.Money {
	return core.Money{Cents: v}
}

// snapshotFixture builds one project with a 4000.00 payment, a material
// purchase of 10 x 50.00 and one 300.00 service record.
func snapshotFixture() core.Snapshot {
	return core.Snapshot{
		Clients: []core.Client{{ID: "c1", Name: "Construtora Azul"}},
		Projects: []core.Project{{
			ID:          "p1",
			Description: "Warehouse renovation",
			ClientID:    "c1",
			Value:       cents(1000000),
			Status:      core.StatusInProgress,
		}},
		Collaborators: []core.Collaborator{{ID: "w1", Name: "Bruno", Role: "mason"}},
		PaymentsReceived: []core.PaymentReceived{
			{ID: "pay1", ProjectID: "p1", Amount: cents(400000), Method: "pix"},
		},
		Materials: []core.MaterialRecord{
			{ID: "m1", ProjectID: "p1", ProductID: "pr1", Quantity: 10, UnitPrice: cents(5000)},
		},
		Services: []core.ServiceRecord{
			{ID: "s1", ProjectID: "p1", CollaboratorID: "w1", Amount: cents(30000)},
		},
	}
}

func TestDashboardEmptySnapshot(t *testing.T) {
	got := Dashboard(core.Snapshot{})
	want := DashboardMetrics{}
	if got != want {
		t.Errorf("Dashboard(empty) = %+v, want zero values", got)
	}
}

func TestDashboardMetrics(t *testing.T) {
	snap := snapshotFixture()
	snap.CollaboratorPayments = []core.CollaboratorPayment{
		{ID: "cp1", ProjectID: "p1", CollaboratorID: "w1", Amount: cents(10000)},
	}

	got := Dashboard(snap)

	if got.TotalReceived != cents(400000) {
		t.Errorf("TotalReceived = %v", got.TotalReceived)
	}
	if got.TotalMaterialCost != cents(50000) {
		t.Errorf("TotalMaterialCost = %v", got.TotalMaterialCost)
	}
	if got.TotalServicesProduced != cents(30000) {
		t.Errorf("TotalServicesProduced = %v", got.TotalServicesProduced)
	}
	// received - (materials + services)
	if got.ProjectsRealBalance != cents(320000) {
		t.Errorf("ProjectsRealBalance = %v", got.ProjectsRealBalance)
	}
	// services - collaborator payments
	if got.CollabPendingBalance != cents(20000) {
		t.Errorf("CollabPendingBalance = %v", got.CollabPendingBalance)
	}
	if got.ActiveProjects != 1 {
		t.Errorf("ActiveProjects = %d", got.ActiveProjects)
	}
}

func TestDashboardBalanceIdentity(t *testing.T) {
	snap := snapshotFixture()
	m := Dashboard(snap)

	want := m.TotalReceived.Sub(m.TotalMaterialCost).Sub(m.TotalServicesProduced)
	if m.ProjectsRealBalance != want {
		t.Errorf("real balance %v does not equal received - materials - services %v",
			m.ProjectsRealBalance, want)
	}
}

func TestDashboardNegativeBalance(t *testing.T) {
	snap := snapshotFixture()
	snap.PaymentsReceived = nil

	m := Dashboard(snap)
	if !m.ProjectsRealBalance.Negative() {
		t.Errorf("balance with no payments should be negative, got %v", m.ProjectsRealBalance)
	}
	if m.ProjectsRealBalance != cents(-80000) {
		t.Errorf("ProjectsRealBalance = %v, want -80000 cents", m.ProjectsRealBalance)
	}
}

func TestDashboardActiveCountsOnlyInProgress(t *testing.T) {
	snap := core.Snapshot{Projects: []core.Project{
		{ID: "p1", Status: core.StatusInProgress},
		{ID: "p2", Status: core.StatusPending},
		{ID: "p3", Status: core.StatusCompleted},
		{ID: "p4", Status: core.StatusCanceled},
		{ID: "p5", Status: core.StatusInProgress},
	}}

	m := Dashboard(snap)
	if m.ActiveProjects != 2 {
		t.Errorf("ActiveProjects = %d, want 2", m.ActiveProjects)
	}
	if m.TotalProjects != 5 {
		t.Errorf("TotalProjects = %d, want 5", m.TotalProjects)
	}
}

func TestDashboardOrderIndependent(t *testing.T) {
	snap := snapshotFixture()
	for i := 0; i < 20; i++ {
		snap.PaymentsReceived = append(snap.PaymentsReceived, core.PaymentReceived{
			ID: core.NewID(), ProjectID: "p1", Amount: cents(int64(i) * 137),
		})
		snap.Services = append(snap.Services, core.ServiceRecord{
			ID: core.NewID(), ProjectID: "p1", CollaboratorID: "w1", Amount: cents(int64(i) * 59),
		})
	}
	want := Dashboard(snap)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 10; trial++ {
		rng.Shuffle(len(snap.PaymentsReceived), func(i, j int) {
			snap.PaymentsReceived[i], snap.PaymentsReceived[j] = snap.PaymentsReceived[j], snap.PaymentsReceived[i]
		})
		rng.Shuffle(len(snap.Services), func(i, j int) {
			snap.Services[i], snap.Services[j] = snap.Services[j], snap.Services[i]
		})
		if got := Dashboard(snap); got != want {
			t.Fatalf("shuffled snapshot changed metrics: %+v != %+v", got, want)
		}
	}
}

func TestProjectRow(t *testing.T) {
	snap := snapshotFixture()
	row := ProjectRow(snap.Projects[0], snap)

	if row.Received != cents(400000) {
		t.Errorf("Received = %v", row.Received)
	}
	if row.MaterialsCost != cents(50000) {
		t.Errorf("MaterialsCost = %v", row.MaterialsCost)
	}
	if row.ServicesValue != cents(30000) {
		t.Errorf("ServicesValue = %v", row.ServicesValue)
	}
	if row.ProductionCost != cents(80000) {
		t.Errorf("ProductionCost = %v", row.ProductionCost)
	}
	if row.Profit != cents(320000) {
		t.Errorf("Profit = %v", row.Profit)
	}
	if row.ProfitMargin != 80.0 {
		t.Errorf("ProfitMargin = %v, want 80.0", row.ProfitMargin)
	}
	if row.ClientName != "Construtora Azul" {
		t.Errorf("ClientName = %q", row.ClientName)
	}
}

func TestProjectRowIgnoresOtherProjects(t *testing.T) {
	snap := snapshotFixture()
	snap.Projects = append(snap.Projects, core.Project{ID: "p2", Description: "Other", Status: core.StatusPending})
	snap.PaymentsReceived = append(snap.PaymentsReceived, core.PaymentReceived{ID: "pay2", ProjectID: "p2", Amount: cents(999999)})
	snap.Services = append(snap.Services, core.ServiceRecord{ID: "s2", ProjectID: "p2", Amount: cents(1)})

	row := ProjectRow(snap.Projects[0], snap)
	if row.Received != cents(400000) || row.ServicesValue != cents(30000) {
		t.Errorf("row leaked rows from another project: %+v", row)
	}
}

func TestProjectRowZeroReceived(t *testing.T) {
	snap := snapshotFixture()
	snap.PaymentsReceived = nil

	row := ProjectRow(snap.Projects[0], snap)
	if row.ProfitMargin != 0 {
		t.Errorf("ProfitMargin with zero received = %v, want exactly 0", row.ProfitMargin)
	}
	if row.Profit != cents(-80000) {
		t.Errorf("Profit = %v", row.Profit)
	}
}

func TestProjectRowLaborDebt(t *testing.T) {
	snap := snapshotFixture()
	snap.CollaboratorPayments = []core.CollaboratorPayment{
		{ID: "cp1", ProjectID: "p1", CollaboratorID: "w1", Amount: cents(12000)},
	}

	row := ProjectRow(snap.Projects[0], snap)
	if row.LaborDebt != cents(18000) {
		t.Errorf("LaborDebt = %v, want 18000 cents", row.LaborDebt)
	}
}

func TestProjectRowDanglingClient(t *testing.T) {
	snap := snapshotFixture()
	snap.Clients = nil

	row := ProjectRow(snap.Projects[0], snap)
	if row.ClientName != UnknownClient {
		t.Errorf("ClientName = %q, want fallback label", row.ClientName)
	}
}

func TestProjectReportsReceivedSumsToTotal(t *testing.T) {
	snap := snapshotFixture()
	snap.Projects = append(snap.Projects, core.Project{ID: "p2", Description: "Annex", Status: core.StatusPending})
	snap.PaymentsReceived = append(snap.PaymentsReceived,
		core.PaymentReceived{ID: "pay2", ProjectID: "p2", Amount: cents(70000)},
		core.PaymentReceived{ID: "pay3", ProjectID: "p2", Amount: cents(30000)},
	)

	totals := SumProjectReports(ProjectReports(snap))
	if totals.Received != Dashboard(snap).TotalReceived {
		t.Errorf("sum of per-project received %v != dashboard total %v",
			totals.Received, Dashboard(snap).TotalReceived)
	}
}

func TestCollaboratorRow(t *testing.T) {
	snap := core.Snapshot{
		Collaborators: []core.Collaborator{{ID: "w1", Name: "Bruno", Role: "mason"}},
		Services: []core.ServiceRecord{
			{ID: "s1", ProjectID: "p1", CollaboratorID: "w1", Amount: cents(20000)},
			{ID: "s2", ProjectID: "p2", CollaboratorID: "w1", Amount: cents(15000)},
		},
		CollaboratorPayments: []core.CollaboratorPayment{
			{ID: "cp1", ProjectID: "p1", CollaboratorID: "w1", Amount: cents(10000)},
		},
	}

	row := CollaboratorRow(snap.Collaborators[0], snap)
	if row.Produced != cents(35000) {
		t.Errorf("Produced = %v, want 35000 cents", row.Produced)
	}
	if row.Paid != cents(10000) {
		t.Errorf("Paid = %v", row.Paid)
	}
	if row.Balance != cents(25000) {
		t.Errorf("Balance = %v, want 25000 cents", row.Balance)
	}
	if row.Settled {
		t.Error("positive balance must not be settled")
	}
}

func TestCollaboratorSettled(t *testing.T) {
	tests := []struct {
		name        string
		produced    int64
		paid        int64
		wantSettled bool
	}{
		{name: "exactly settled", produced: 30000, paid: 30000, wantSettled: true},
		{name: "overpaid", produced: 30000, paid: 40000, wantSettled: true},
		{name: "pending", produced: 30000, paid: 29999, wantSettled: false},
		{name: "no activity", produced: 0, paid: 0, wantSettled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := core.Snapshot{
				Collaborators: []core.Collaborator{{ID: "w1", Name: "Bruno"}},
			}
			if tt.produced > 0 {
				snap.Services = []core.ServiceRecord{{ID: "s1", ProjectID: "p1", CollaboratorID: "w1", Amount: cents(tt.produced)}}
			}
			if tt.paid > 0 {
				snap.CollaboratorPayments = []core.CollaboratorPayment{{ID: "cp1", ProjectID: "p1", CollaboratorID: "w1", Amount: cents(tt.paid)}}
			}

			row := CollaboratorRow(snap.Collaborators[0], snap)
			if row.Settled != tt.wantSettled {
				t.Errorf("Settled = %v, want %v (balance %v)", row.Settled, tt.wantSettled, row.Balance)
			}
			if row.Balance != cents(tt.produced-tt.paid) {
				t.Errorf("Balance = %v, want %d cents", row.Balance, tt.produced-tt.paid)
			}
		})
	}
}

func TestAggregationIsIdempotent(t *testing.T) {
	snap := snapshotFixture()

	first := Dashboard(snap)
	second := Dashboard(snap)
	if first != second {
		t.Errorf("Dashboard not idempotent: %+v != %+v", first, second)
	}

	rows1 := ProjectReports(snap)
	rows2 := ProjectReports(snap)
	if !reflect.DeepEqual(rows1, rows2) {
		t.Error("ProjectReports not idempotent")
	}

	crows1 := CollaboratorReports(snap)
	crows2 := CollaboratorReports(snap)
	if !reflect.DeepEqual(crows1, crows2) {
		t.Error("CollaboratorReports not idempotent")
	}
}

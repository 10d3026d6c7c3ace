// Package google mirrors ledger reports to a Google Spreadsheet through
// the Sheets API, authenticated with a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"obras/internal/core"
	"obras/internal/ledger"
	ports "obras/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc                *gsheet.Service
	spreadsheetID      string
	dashboardSheet     string
	projectsSheet      string
	collaboratorsSheet string
}

// Ensure interface conformance
var _ ports.ReportSink = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Optional sheet names: DASHBOARD_SHEET_NAME (default "Dashboard"),
// PROJECTS_SHEET_NAME (default "Projects"),
// COLLABORATORS_SHEET_NAME (default "Collaborators").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	dashboard := strings.TrimSpace(os.Getenv("DASHBOARD_SHEET_NAME"))
	if dashboard == "" {
		dashboard = "Dashboard"
	}
	projects := strings.TrimSpace(os.Getenv("PROJECTS_SHEET_NAME"))
	if projects == "" {
		projects = "Projects"
	}
	collaborators := strings.TrimSpace(os.Getenv("COLLABORATORS_SHEET_NAME"))
	if collaborators == "" {
		collaborators = "Collaborators"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		dashboardSheet:     dashboard,
		projectsSheet:      projects,
		collaboratorsSheet: collaborators,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteDashboard replaces the dashboard sheet with the current totals,
// one metric per row.
func (c *Client) WriteDashboard(ctx context.Context, m ledger.DashboardMetrics) error {
	values := [][]any{
		{"Metric", "Value"},
		{"Total received", reais(m.TotalReceived)},
		{"Total material cost", reais(m.TotalMaterialCost)},
		{"Total services produced", reais(m.TotalServicesProduced)},
		{"Projects real balance", reais(m.ProjectsRealBalance)},
		{"Collaborators pending balance", reais(m.CollabPendingBalance)},
		{"Active projects", m.ActiveProjects},
		{"Total projects", m.TotalProjects},
		{"Total clients", m.TotalClients},
		{"Total collaborators", m.TotalCollaborators},
	}
	return c.replaceSheet(ctx, c.dashboardSheet, values)
}

// WriteProjectReports replaces the projects sheet with one row per
// project plus a totals footer.
func (c *Client) WriteProjectReports(ctx context.Context, rows []ledger.ProjectReport) error {
	values := [][]any{{
		"Project", "Client", "Status", "Contract value", "Received",
		"Materials", "Services", "Production cost", "Profit", "Margin %", "Labor debt",
	}}
	for _, r := range rows {
		values = append(values, []any{
			r.Description, r.ClientName, string(r.Status), reais(r.ContractValue),
			reais(r.Received), reais(r.MaterialsCost), reais(r.ServicesValue),
			reais(r.ProductionCost), reais(r.Profit), r.ProfitMargin, reais(r.LaborDebt),
		})
	}
	totals := ledger.SumProjectReports(rows)
	values = append(values, []any{
		"Total", "", "", "", reais(totals.Received), "", "",
		reais(totals.ProductionCost), reais(totals.Profit), "", "",
	})
	return c.replaceSheet(ctx, c.projectsSheet, values)
}

// WriteCollaboratorReports replaces the collaborators sheet with one row
// per collaborator.
func (c *Client) WriteCollaboratorReports(ctx context.Context, rows []ledger.CollaboratorReport) error {
	values := [][]any{{"Collaborator", "Role", "Produced", "Paid", "Balance", "Settled"}}
	for _, r := range rows {
		values = append(values, []any{
			r.Name, r.Role, reais(r.Produced), reais(r.Paid), reais(r.Balance), r.Settled,
		})
	}
	return c.replaceSheet(ctx, c.collaboratorsSheet, values)
}

// replaceSheet clears the sheet and writes the given rows from A1.
func (c *Client) replaceSheet(ctx context.Context, sheetName string, values [][]any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:Z", sheetName)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheetName, err)
	}

	writeRange := fmt.Sprintf("%s!A1", sheetName)
	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", sheetName, err)
	}
	return nil
}

// reais renders cents as a decimal number for the spreadsheet cell.
func reais(m core.Money) float64 {
	return float64(m.Cents) / 100.0
}

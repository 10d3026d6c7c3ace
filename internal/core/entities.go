package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Table names the fixed collections of the entity store.
type Table string

const (
	TableClients              Table = "clients"
	TableProducts             Table = "products"
	TableProjects             Table = "projects"
	TableServices             Table = "services"
	TableMaterials            Table = "materials"
	TableCollaborators        Table = "collaborators"
	TablePaymentsReceived     Table = "payments_received"
	TableCollaboratorPayments Table = "collaborator_payments"
	TableSettings             Table = "settings"
)

// EntityTables returns the eight row-oriented tables, excluding the
// settings singleton.
func EntityTables() []Table {
	return []Table{
		TableClients,
		TableProducts,
		TableProjects,
		TableServices,
		TableMaterials,
		TableCollaborators,
		TablePaymentsReceived,
		TableCollaboratorPayments,
	}
}

// ProjectChildTables returns the tables whose rows reference a project
// and are removed together with it on cascade delete.
func ProjectChildTables() []Table {
	return []Table{
		TableServices,
		TableMaterials,
		TablePaymentsReceived,
		TableCollaboratorPayments,
	}
}

// Valid reports whether t names one of the row tables.
func (t Table) Valid() bool {
	switch t {
	case TableClients, TableProducts, TableProjects, TableServices,
		TableMaterials, TableCollaborators, TablePaymentsReceived,
		TableCollaboratorPayments:
		return true
	default:
		return false
	}
}

func (t Table) String() string {
	return string(t)
}

// ProjectStatus is informational only: any status may move to any other,
// and only the active-project count on the dashboard filters by it.
type ProjectStatus string

const (
	StatusPending    ProjectStatus = "pending"
	StatusInProgress ProjectStatus = "in_progress"
	StatusCompleted  ProjectStatus = "completed"
	StatusCanceled   ProjectStatus = "canceled"
)

// Valid reports whether s is one of the four known statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCanceled:
		return true
	default:
		return false
	}
}

// DisplayMode selects the layout the presentation layer renders with.
// It is stored, never interpreted, by this service.
type DisplayMode string

const (
	DisplayPC     DisplayMode = "pc"
	DisplayTablet DisplayMode = "tablet"
	DisplayMobile DisplayMode = "mobile"
)

type (
	// Client is a paying customer. Projects reference it by id.
	Client struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Document string `json:"document"` // CPF/CNPJ
	}

	// Product is a purchasable material referenced by material records.
	Product struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Unit      string `json:"unit"`
		BasePrice Money  `json:"basePrice"`
	}

	// Collaborator is a worker paid out of the ledger.
	Collaborator struct {
		ID               string `json:"id"`
		Name             string `json:"name"`
		Role             string `json:"role"`
		Phone            string `json:"phone"`
		DefaultDailyRate Money  `json:"defaultDailyRate"`
	}

	// Project is the parent aggregate: services, materials and payments
	// all hang off a project id.
	Project struct {
		ID          string        `json:"id"`
		Description string        `json:"description"`
		StartDate   string        `json:"startDate"` // YYYY-MM-DD
		EndDate     string        `json:"endDate"`
		ClientID    string        `json:"clientId"`
		Value       Money         `json:"value"` // contract value
		Status      ProjectStatus `json:"status"`
	}

	// ServiceRecord is labor produced on a project by a collaborator.
	ServiceRecord struct {
		ID             string `json:"id"`
		ProjectID      string `json:"projectId"`
		CollaboratorID string `json:"collaboratorId"`
		Date           string `json:"date"`
		Description    string `json:"description"`
		Amount         Money  `json:"amount"`
		Notes          string `json:"notes,omitempty"`
	}

	// MaterialRecord is a material purchase booked against a project.
	MaterialRecord struct {
		ID        string  `json:"id"`
		ProjectID string  `json:"projectId"`
		ProductID string  `json:"productId"`
		Quantity  float64 `json:"quantity"`
		UnitPrice Money   `json:"unitPrice"`
		Date      string  `json:"date"`
	}

	// PaymentReceived is client money in.
	PaymentReceived struct {
		ID        string `json:"id"`
		ProjectID string `json:"projectId"`
		Date      string `json:"date"`
		Amount    Money  `json:"amount"`
		Method    string `json:"method"`
	}

	// CollaboratorPayment is labor money out.
	CollaboratorPayment struct {
		ID             string `json:"id"`
		ProjectID      string `json:"projectId"`
		CollaboratorID string `json:"collaboratorId"`
		Date           string `json:"date"`
		Amount         Money  `json:"amount"`
	}

	// Settings is the singleton configuration row.
	Settings struct {
		AppName     string      `json:"appName"`
		AdminName   string      `json:"adminName"`
		AdminRole   string      `json:"adminRole"`
		CompanyName string      `json:"companyName"`
		DisplayMode DisplayMode `json:"displayMode"`
		AppLogo     string      `json:"appLogo,omitempty"` // base64 image
	}
)

// Total returns quantity times unit price, rounded to whole cents.
func (m MaterialRecord) Total() Money {
	return m.UnitPrice.MulQuantity(m.Quantity)
}

// DefaultSettings returns the settings a fresh or reset system starts with.
func DefaultSettings() Settings {
	return Settings{
		AppName:     "Obras",
		AdminName:   "Administrator",
		AdminRole:   "Administrator",
		CompanyName: "Obras Ltda",
		DisplayMode: DisplayPC,
	}
}

// Record is implemented by every row entity. WithRecordID returns a copy
// with the id set, keeping the values themselves immutable.
type Record interface {
	RecordID() string
	WithRecordID(id string) Record
	Validate() error
}

func (c Client) RecordID() string { return c.ID }
func (c Client) WithRecordID(id string) Record {
	c.ID = id
	return c
}

// Validate checks required fields only; referential integrity is not
// enforced anywhere in the system.
func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (p Product) RecordID() string { return p.ID }
func (p Product) WithRecordID(id string) Record {
	p.ID = id
	return p
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return p.BasePrice.Validate()
}

func (c Collaborator) RecordID() string { return c.ID }
func (c Collaborator) WithRecordID(id string) Record {
	c.ID = id
	return c
}

func (c Collaborator) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return c.DefaultDailyRate.Validate()
}

func (p Project) RecordID() string { return p.ID }
func (p Project) WithRecordID(id string) Record {
	p.ID = id
	return p
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Description) == "" {
		return ErrEmptyDescription
	}
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return p.Value.Validate()
}

func (s ServiceRecord) RecordID() string { return s.ID }
func (s ServiceRecord) WithRecordID(id string) Record {
	s.ID = id
	return s
}

func (s ServiceRecord) Validate() error {
	if s.ProjectID == "" {
		return ErrMissingProject
	}
	return s.Amount.Validate()
}

func (m MaterialRecord) RecordID() string { return m.ID }
func (m MaterialRecord) WithRecordID(id string) Record {
	m.ID = id
	return m
}

func (m MaterialRecord) Validate() error {
	if m.ProjectID == "" {
		return ErrMissingProject
	}
	if m.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return m.UnitPrice.Validate()
}

func (p PaymentReceived) RecordID() string { return p.ID }
func (p PaymentReceived) WithRecordID(id string) Record {
	p.ID = id
	return p
}

func (p PaymentReceived) Validate() error {
	if p.ProjectID == "" {
		return ErrMissingProject
	}
	return p.Amount.Validate()
}

func (c CollaboratorPayment) RecordID() string { return c.ID }
func (c CollaboratorPayment) WithRecordID(id string) Record {
	c.ID = id
	return c
}

func (c CollaboratorPayment) Validate() error {
	if c.ProjectID == "" {
		return ErrMissingProject
	}
	return c.Amount.Validate()
}

// DecodeRecord unmarshals JSON into the concrete entity for a table.
func DecodeRecord(table Table, data []byte) (Record, error) {
	var (
		rec Record
		err error
	)
	switch table {
	case TableClients:
		var r Client
		err = json.Unmarshal(data, &r)
		rec = r
	case TableProducts:
		var r Product
		err = json.Unmarshal(data, &r)
		rec = r
	case TableProjects:
		var r Project
		err = json.Unmarshal(data, &r)
		rec = r
	case TableServices:
		var r ServiceRecord
		err = json.Unmarshal(data, &r)
		rec = r
	case TableMaterials:
		var r MaterialRecord
		err = json.Unmarshal(data, &r)
		rec = r
	case TableCollaborators:
		var r Collaborator
		err = json.Unmarshal(data, &r)
		rec = r
	case TablePaymentsReceived:
		var r PaymentReceived
		err = json.Unmarshal(data, &r)
		rec = r
	case TableCollaboratorPayments:
		var r CollaboratorPayment
		err = json.Unmarshal(data, &r)
		rec = r
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s record: %w", table, err)
	}
	return rec, nil
}

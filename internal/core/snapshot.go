package core

// Snapshot is the full in-memory copy of every collection, fetched from
// the store at one point in time. It is also the backup document shape:
// the JSON field names below are the on-disk export format.
type Snapshot struct {
	Settings             Settings              `json:"settings"`
	Clients              []Client              `json:"clients"`
	Products             []Product             `json:"products"`
	Projects             []Project             `json:"projects"`
	Services             []ServiceRecord       `json:"services"`
	Materials            []MaterialRecord      `json:"materials"`
	Collaborators        []Collaborator        `json:"collaborators"`
	PaymentsReceived     []PaymentReceived     `json:"paymentsReceived"`
	CollaboratorPayments []CollaboratorPayment `json:"collaboratorPayments"`
}

// Records returns the rows of one table as generic records, in the order
// they appear in the snapshot.
func (s Snapshot) Records(table Table) []Record {
	switch table {
	case TableClients:
		return toRecords(s.Clients)
	case TableProducts:
		return toRecords(s.Products)
	case TableProjects:
		return toRecords(s.Projects)
	case TableServices:
		return toRecords(s.Services)
	case TableMaterials:
		return toRecords(s.Materials)
	case TableCollaborators:
		return toRecords(s.Collaborators)
	case TablePaymentsReceived:
		return toRecords(s.PaymentsReceived)
	case TableCollaboratorPayments:
		return toRecords(s.CollaboratorPayments)
	default:
		return nil
	}
}

func toRecords[T Record](rows []T) []Record {
	if len(rows) == 0 {
		return nil
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// ProjectByID looks a project up in the snapshot.
func (s Snapshot) ProjectByID(id string) (Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// CollaboratorByID looks a collaborator up in the snapshot.
func (s Snapshot) CollaboratorByID(id string) (Collaborator, bool) {
	for _, c := range s.Collaborators {
		if c.ID == id {
			return c, true
		}
	}
	return Collaborator{}, false
}

// ClientByID looks a client up in the snapshot.
func (s Snapshot) ClientByID(id string) (Client, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return Client{}, false
}

// ProductByID looks a product up in the snapshot.
func (s Snapshot) ProductByID(id string) (Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

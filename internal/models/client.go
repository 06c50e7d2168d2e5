package models

import "time"

// DocumentType is the kind of identity document a person holds.
type DocumentType string

const (
	DocumentCC    DocumentType = "CC"
	DocumentCE    DocumentType = "CE"
	DocumentNIT   DocumentType = "NIT"
	DocumentPAS   DocumentType = "PAS"
	DocumentOther DocumentType = "OTRO"
)

var documentTypeLabels = map[DocumentType]string{
	DocumentCC:    "Cédula de Ciudadanía",
	DocumentCE:    "Cédula de Extranjería",
	DocumentNIT:   "NIT",
	DocumentPAS:   "Pasaporte",
	DocumentOther: "Otro",
}

// Label returns the display name of the document type.
func (d DocumentType) Label() string {
	if label, ok := documentTypeLabels[d]; ok {
		return label
	}
	return string(d)
}

// Client is a policyholder owned by one agent.
// Nullable columns use pointers.
type Client struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	BirthDate      *time.Time
	Email          *string
	SecondaryPhone *string
	Address        *string
	City           *string
	Occupation     *string
	Notes          *string
	FullName       string
	DocumentType   DocumentType
	DocumentNumber string
	PrimaryPhone   string
	ID             int64
	AgentID        AgentID
}

// Insurer is an insurance company record owned by one agent.
type Insurer struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	TaxID        *string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Name         string
	ID           int64
	AgentID      AgentID
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus is the payment state of one installment.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPaid    InstallmentStatus = "PAID"
)

// Installment is one scheduled payment obligation within a policy.
type Installment struct {
	DueDate  time.Time
	PaidOn   *time.Time
	Notes    *string
	Amount   decimal.Decimal
	Status   InstallmentStatus
	ID       int64
	PolicyID int64
	Number   int
	AgentID  AgentID
}

// Relationship tags how an insured person relates to the policyholder.
type Relationship string

const (
	RelationshipHolder Relationship = "HOLDER"
	RelationshipSpouse Relationship = "SPOUSE"
	RelationshipChild  Relationship = "CHILD"
	RelationshipParent Relationship = "PARENT"
	RelationshipOther  Relationship = "OTHER"
)

// InsuredPerson is an individual covered by a policy.
type InsuredPerson struct {
	BirthDate      *time.Time
	DocumentType   *DocumentType
	DocumentNumber *string
	Email          *string
	Phone          *string
	FullName       string
	Relationship   Relationship
	ID             int64
	PolicyID       int64
	AgentID        AgentID
}

// ClaimStatus is the processing state of a claim.
type ClaimStatus string

const (
	ClaimReported ClaimStatus = "REPORTED"
	ClaimInReview ClaimStatus = "IN_REVIEW"
	ClaimApproved ClaimStatus = "APPROVED"
	ClaimRejected ClaimStatus = "REJECTED"
	ClaimPaid     ClaimStatus = "PAID"
	ClaimClosed   ClaimStatus = "CLOSED"
)

// Claim is a reported loss event against a policy.
type Claim struct {
	OccurredOn        time.Time
	ReportedOn        time.Time
	CreatedAt         time.Time
	IndemnifiedAmount decimal.NullDecimal
	ClaimedAmount     decimal.Decimal
	Description       string
	Status            ClaimStatus
	ID                int64
	PolicyID          int64
	AgentID           AgentID
}

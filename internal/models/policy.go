package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgentID identifies the agent-user owning a record. Every data access call
// takes it explicitly.
type AgentID = uuid.UUID

// MaxPolicyNumberLength is the longest policy number accepted from clients
// or generated by a renewal. The column allows 100, leaving room for the
// renewal suffix of a number saved before the limit applied.
const MaxPolicyNumberLength = 85

// PaymentFrequency is how often a policy premium is paid.
type PaymentFrequency string

const (
	FrequencyOneTime     PaymentFrequency = "ONE_TIME"
	FrequencyMonthly     PaymentFrequency = "MONTHLY"
	FrequencyQuarterly   PaymentFrequency = "QUARTERLY"
	FrequencyFourMonthly PaymentFrequency = "FOUR_MONTHLY"
	FrequencySemiannual  PaymentFrequency = "SEMIANNUAL"
	FrequencyAnnual      PaymentFrequency = "ANNUAL"
)

var frequencyLabels = map[PaymentFrequency]string{
	FrequencyOneTime:     "Pago Único",
	FrequencyMonthly:     "Mensual",
	FrequencyQuarterly:   "Trimestral",
	FrequencyFourMonthly: "Cuatrimestral",
	FrequencySemiannual:  "Semestral",
	FrequencyAnnual:      "Anual",
}

// Label returns the display name used in exports.
func (f PaymentFrequency) Label() string {
	if label, ok := frequencyLabels[f]; ok {
		return label
	}
	return string(f)
}

// PolicyStatus is the administrative lifecycle state of a policy.
type PolicyStatus string

const (
	PolicyInProcess      PolicyStatus = "IN_PROCESS"
	PolicyActive         PolicyStatus = "ACTIVE"
	PolicyPendingPayment PolicyStatus = "PENDING_PAYMENT"
	PolicyExpired        PolicyStatus = "EXPIRED"
	PolicyCancelled      PolicyStatus = "CANCELLED"
	PolicyRenewed        PolicyStatus = "RENEWED"
)

var statusLabels = map[PolicyStatus]string{
	PolicyInProcess:      "En Trámite",
	PolicyActive:         "Vigente",
	PolicyPendingPayment: "Pendiente de Pago",
	PolicyExpired:        "Vencida",
	PolicyCancelled:      "Cancelada",
	PolicyRenewed:        "Renovada",
}

// Label returns the display name used in exports.
func (s PolicyStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsTerminal reports whether no further lifecycle action applies.
func (s PolicyStatus) IsTerminal() bool {
	return s == PolicyCancelled || s == PolicyRenewed
}

// RenewalStatus is the human-facing renewal state derived from a policy.
type RenewalStatus string

const (
	RenewalRenewed        RenewalStatus = "renewed"
	RenewalCancelled      RenewalStatus = "cancelled"
	RenewalInProcess      RenewalStatus = "in_process"
	RenewalPendingPayment RenewalStatus = "pending_payment"
	RenewalExpired        RenewalStatus = "expired"
	RenewalCritical       RenewalStatus = "critical"
	RenewalUpcoming       RenewalStatus = "upcoming"
	RenewalCurrent        RenewalStatus = "current"
)

// Renewal windows in days before the end of coverage.
const (
	CriticalWindowDays = 30
	UpcomingWindowDays = 90
)

// Policy is an insurance contract between a client and an insurer.
type Policy struct {
	CreatedAt             time.Time
	UpdatedAt             time.Time
	IssueDate             time.Time
	StartDate             time.Time
	EndDate               time.Time
	CommissionCollectedOn *time.Time
	InsurerID             *int64
	RenewedFromID         *int64
	InsuredItem           *string
	Notes                 *string
	AnnualPremium         decimal.Decimal
	InstallmentAmount     decimal.NullDecimal
	CommissionAmount      decimal.Decimal
	PolicyNumber          string
	CoverageType          string
	PaymentFrequency      PaymentFrequency
	Status                PolicyStatus
	ID                    int64
	ClientID              int64
	AgentID               AgentID
	CommissionCollected   bool

	// Populated by joined reads only.
	Client      *ClientSummary
	InsurerName *string
}

// ClientSummary is the slice of a client shown alongside its policies.
type ClientSummary struct {
	Email          *string
	FullName       string
	DocumentType   DocumentType
	DocumentNumber string
	Phone          string
	ID             int64
}

// DaysToEnd returns the days from today until the end of coverage.
func (p *Policy) DaysToEnd(today time.Time) int {
	return DaysBetween(today, p.EndDate)
}

// RenewalStatus derives the renewal label. Terminal administrative states
// win over pending-action states, which win over the date-derived states;
// dates are only consulted for active policies.
func (p *Policy) RenewalStatus(today time.Time) RenewalStatus {
	switch p.Status {
	case PolicyRenewed:
		return RenewalRenewed
	case PolicyCancelled:
		return RenewalCancelled
	case PolicyInProcess:
		return RenewalInProcess
	case PolicyPendingPayment:
		return RenewalPendingPayment
	case PolicyExpired:
		return RenewalExpired
	}

	days := p.DaysToEnd(today)
	switch {
	case days < 0:
		return RenewalExpired
	case days <= CriticalWindowDays:
		return RenewalCritical
	case days <= UpcomingWindowDays:
		return RenewalUpcoming
	default:
		return RenewalCurrent
	}
}

// CommissionPending reports whether a positive commission is uncollected.
func (p *Policy) CommissionPending() bool {
	return !p.CommissionCollected && p.CommissionAmount.IsPositive()
}

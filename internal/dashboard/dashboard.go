// Package dashboard classifies an agent's book of business into the
// buckets shown on the dashboard. Classification is pure: callers load the
// book, Classify never touches storage.
package dashboard

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
)

// Window sizes in days after today.
const (
	ExpiringSoonDays  = 30
	ExpiringLaterDays = 60
	UpcomingPayDays   = 30
)

// Book is the read-only input to Classify.
type Book struct {
	// OpenPolicies are the agent's policies that are not CANCELLED or RENEWED.
	OpenPolicies []models.Policy
	// NextPending maps policy id to its earliest pending installment.
	NextPending map[int64]models.Installment
	// CommissionPolicies are policies of any status with an uncollected
	// positive commission.
	CommissionPolicies []models.Policy
	Birthdays          []models.Client
	TotalClients       int
	ActivePolicies     int
}

// PaymentDue pairs a policy with its earliest pending installment.
type PaymentDue struct {
	Policy      models.Policy
	Installment models.Installment
}

// Buckets is the classified dashboard. Each open policy appears in at most
// one of Expired, InProcess, Expiring30 and Expiring60.
type Buckets struct {
	Expired                []models.Policy
	InProcess              []models.Policy
	Expiring30             []models.Policy
	Expiring60             []models.Policy
	OverduePayments        []PaymentDue
	UpcomingPayments       []PaymentDue
	PendingCommissions     []models.Policy
	Birthdays              []models.Client
	PendingCommissionTotal decimal.Decimal
	TotalClients           int
	ActivePolicies         int
}

func inForce(s models.PolicyStatus) bool {
	return s == models.PolicyActive || s == models.PolicyPendingPayment
}

// Classify sorts the book into dashboard buckets relative to today.
func Classify(book Book, today time.Time) Buckets {
	today = models.DateOf(today)
	soon := today.AddDate(0, 0, ExpiringSoonDays)
	later := today.AddDate(0, 0, ExpiringLaterDays)
	payHorizon := today.AddDate(0, 0, UpcomingPayDays)

	b := Buckets{
		Expired:                []models.Policy{},
		InProcess:              []models.Policy{},
		Expiring30:             []models.Policy{},
		Expiring60:             []models.Policy{},
		OverduePayments:        []PaymentDue{},
		UpcomingPayments:       []PaymentDue{},
		PendingCommissions:     []models.Policy{},
		Birthdays:              []models.Client{},
		PendingCommissionTotal: decimal.Zero,
		TotalClients:           book.TotalClients,
		ActivePolicies:         book.ActivePolicies,
	}

	for _, p := range book.OpenPolicies {
		if p.Status.IsTerminal() {
			continue
		}
		end := models.DateOf(p.EndDate)

		switch {
		case p.Status == models.PolicyInProcess:
			b.InProcess = append(b.InProcess, p)
		case end.Before(today) && (inForce(p.Status) || p.Status == models.PolicyExpired):
			b.Expired = append(b.Expired, p)
		case inForce(p.Status) && !end.After(soon):
			b.Expiring30 = append(b.Expiring30, p)
		case inForce(p.Status) && !end.After(later):
			b.Expiring60 = append(b.Expiring60, p)
		}

		next, ok := book.NextPending[p.ID]
		if !ok {
			continue
		}
		due := models.DateOf(next.DueDate)
		switch {
		case due.Before(today):
			b.OverduePayments = append(b.OverduePayments, PaymentDue{Policy: p, Installment: next})
		case !due.After(payHorizon):
			b.UpcomingPayments = append(b.UpcomingPayments, PaymentDue{Policy: p, Installment: next})
		}
	}

	for _, p := range book.CommissionPolicies {
		if !p.CommissionPending() {
			continue
		}
		b.PendingCommissions = append(b.PendingCommissions, p)
		b.PendingCommissionTotal = b.PendingCommissionTotal.Add(p.CommissionAmount)
	}

	for _, c := range book.Birthdays {
		if c.BirthDate != nil && c.BirthDate.Month() == today.Month() {
			b.Birthdays = append(b.Birthdays, c)
		}
	}

	byEnd := func(a, b models.Policy) int { return a.EndDate.Compare(b.EndDate) }
	byDue := func(a, b PaymentDue) int { return a.Installment.DueDate.Compare(b.Installment.DueDate) }
	slices.SortStableFunc(b.Expired, byEnd)
	slices.SortStableFunc(b.InProcess, byEnd)
	slices.SortStableFunc(b.Expiring30, byEnd)
	slices.SortStableFunc(b.Expiring60, byEnd)
	slices.SortStableFunc(b.OverduePayments, byDue)
	slices.SortStableFunc(b.UpcomingPayments, byDue)
	slices.SortStableFunc(b.PendingCommissions, byEnd)
	slices.SortStableFunc(b.Birthdays, func(a, b models.Client) int { return a.BirthDate.Day() - b.BirthDate.Day() })

	return b
}

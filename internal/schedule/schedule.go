// Package schedule generates installment payment plans from policy terms.
package schedule

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
)

// Plan describes how a payment frequency splits a year of coverage.
type Plan struct {
	PeriodMonths int
	Count        int
}

var plans = map[models.PaymentFrequency]Plan{
	models.FrequencyMonthly:     {PeriodMonths: 1, Count: 12},
	models.FrequencyQuarterly:   {PeriodMonths: 3, Count: 4},
	models.FrequencyFourMonthly: {PeriodMonths: 4, Count: 3},
	models.FrequencySemiannual:  {PeriodMonths: 6, Count: 2},
	models.FrequencyAnnual:      {PeriodMonths: 12, Count: 1},
	models.FrequencyOneTime:     {PeriodMonths: 12, Count: 1},
}

// PlanFor returns the plan for a frequency and whether it is known.
func PlanFor(f models.PaymentFrequency) (Plan, bool) {
	p, ok := plans[f]
	return p, ok
}

// Terms are the policy fields that define a payment plan.
type Terms struct {
	StartDate         time.Time
	EndDate           time.Time
	Premium           decimal.Decimal
	InstallmentAmount decimal.NullDecimal
	Frequency         models.PaymentFrequency
}

// TermsOf extracts the schedule-defining fields of a policy.
func TermsOf(p *models.Policy) Terms {
	return Terms{
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		Premium:           p.AnnualPremium,
		InstallmentAmount: p.InstallmentAmount,
		Frequency:         p.PaymentFrequency,
	}
}

// Equal reports whether two terms produce the same schedule.
func (t Terms) Equal(o Terms) bool {
	return t.StartDate.Equal(o.StartDate) &&
		t.EndDate.Equal(o.EndDate) &&
		t.Premium.Equal(o.Premium) &&
		t.Frequency == o.Frequency &&
		t.InstallmentAmount.Valid == o.InstallmentAmount.Valid &&
		(!t.InstallmentAmount.Valid || t.InstallmentAmount.Decimal.Equal(o.InstallmentAmount.Decimal))
}

// Installment is one generated (due date, amount) pair.
type Installment struct {
	DueDate time.Time
	Amount  decimal.Decimal
	Number  int
}

// Generate returns the ordered payment plan for the terms. Due dates start
// on the start date and advance one period at a time, computed from the
// start date so month-end days do not drift. Generation stops after the
// plan's installment count or when the next due date would pass the end
// date. An unknown frequency or a zero start date yields no installments.
func Generate(t Terms) []Installment {
	plan, ok := PlanFor(t.Frequency)
	if !ok || t.StartDate.IsZero() {
		return nil
	}

	amount := AmountPerInstallment(t, plan)
	start := models.DateOf(t.StartDate)
	end := models.DateOf(t.EndDate)

	out := make([]Installment, 0, plan.Count)
	for i := 0; i < plan.Count; i++ {
		due := models.AddMonths(start, i*plan.PeriodMonths)
		if !t.EndDate.IsZero() && due.After(end) {
			break
		}
		out = append(out, Installment{
			Number:  i + 1,
			DueDate: due,
			Amount:  amount,
		})
	}
	return out
}

// AmountPerInstallment is the fixed amount when set and positive, otherwise
// the premium split evenly across the plan, rounded to cents.
func AmountPerInstallment(t Terms, plan Plan) decimal.Decimal {
	if t.InstallmentAmount.Valid && t.InstallmentAmount.Decimal.IsPositive() {
		return t.InstallmentAmount.Decimal
	}
	return t.Premium.Div(decimal.NewFromInt(int64(plan.Count))).Round(2)
}

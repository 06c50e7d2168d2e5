package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
)

var today = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func policy(id int64, status models.PolicyStatus, daysToEnd int) models.Policy {
	return models.Policy{
		ID:      id,
		Status:  status,
		EndDate: today.AddDate(0, 0, daysToEnd),
	}
}

func ids(ps []models.Policy) []int64 {
	out := []int64{}
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestClassify_ExpiryBoundaries(t *testing.T) {
	book := Book{OpenPolicies: []models.Policy{
		policy(1, models.PolicyActive, -1),
		policy(2, models.PolicyActive, 0),
		policy(3, models.PolicyActive, 30),
		policy(4, models.PolicyActive, 31),
		policy(5, models.PolicyPendingPayment, 60),
		policy(6, models.PolicyActive, 61),
		policy(7, models.PolicyExpired, -5),
		policy(8, models.PolicyInProcess, 10),
		policy(9, models.PolicyInProcess, -10),
	}}

	b := Classify(book, today)

	assert.Equal(t, []int64{7, 1}, ids(b.Expired))
	assert.Equal(t, []int64{2, 3}, ids(b.Expiring30))
	assert.Equal(t, []int64{4, 5}, ids(b.Expiring60))
	assert.Equal(t, []int64{9, 8}, ids(b.InProcess))
}

func TestClassify_IsPartition(t *testing.T) {
	statuses := []models.PolicyStatus{
		models.PolicyInProcess, models.PolicyActive, models.PolicyPendingPayment,
		models.PolicyExpired, models.PolicyCancelled, models.PolicyRenewed,
	}

	var open []models.Policy
	var id int64
	for _, s := range statuses {
		for days := -40; days <= 100; days += 7 {
			id++
			open = append(open, policy(id, s, days))
		}
	}

	b := Classify(Book{OpenPolicies: open}, today)

	seen := map[int64]string{}
	for name, bucket := range map[string][]models.Policy{
		"expired": b.Expired, "in_process": b.InProcess,
		"expiring_30": b.Expiring30, "expiring_60": b.Expiring60,
	} {
		for _, p := range bucket {
			prev, dup := seen[p.ID]
			require.False(t, dup, "policy %d in both %s and %s", p.ID, prev, name)
			seen[p.ID] = name
			assert.False(t, p.Status.IsTerminal(), "terminal policy %d classified as %s", p.ID, name)
		}
	}
}

func TestClassify_Payments(t *testing.T) {
	p1 := policy(1, models.PolicyActive, 200)
	p2 := policy(2, models.PolicyActive, 200)
	p3 := policy(3, models.PolicyPendingPayment, 200)
	p4 := policy(4, models.PolicyActive, 200)

	book := Book{
		OpenPolicies: []models.Policy{p1, p2, p3, p4},
		NextPending: map[int64]models.Installment{
			1: {PolicyID: 1, DueDate: today.AddDate(0, 0, -1)},
			2: {PolicyID: 2, DueDate: today},
			3: {PolicyID: 3, DueDate: today.AddDate(0, 0, 30)},
			4: {PolicyID: 4, DueDate: today.AddDate(0, 0, 31)},
		},
	}

	b := Classify(book, today)

	require.Len(t, b.OverduePayments, 1)
	assert.Equal(t, int64(1), b.OverduePayments[0].Policy.ID)
	require.Len(t, b.UpcomingPayments, 2)
	assert.Equal(t, int64(2), b.UpcomingPayments[0].Policy.ID)
	assert.Equal(t, int64(3), b.UpcomingPayments[1].Policy.ID)
}

func TestClassify_PendingCommissions(t *testing.T) {
	collected := policy(1, models.PolicyActive, 10)
	collected.CommissionAmount = decimal.NewFromInt(50)
	collected.CommissionCollected = true

	renewed := policy(2, models.PolicyRenewed, -20)
	renewed.CommissionAmount = decimal.RequireFromString("80.50")

	zero := policy(3, models.PolicyActive, 10)

	active := policy(4, models.PolicyActive, 5)
	active.CommissionAmount = decimal.NewFromInt(20)

	b := Classify(Book{CommissionPolicies: []models.Policy{collected, renewed, zero, active}}, today)

	assert.Equal(t, []int64{2, 4}, ids(b.PendingCommissions))
	assert.Equal(t, "100.5", b.PendingCommissionTotal.String())
}

func TestClassify_BirthdaysAndCounters(t *testing.T) {
	late := time.Date(1980, 6, 28, 0, 0, 0, 0, time.UTC)
	early := time.Date(1995, 6, 2, 0, 0, 0, 0, time.UTC)
	july := time.Date(1990, 7, 1, 0, 0, 0, 0, time.UTC)

	b := Classify(Book{
		Birthdays: []models.Client{
			{ID: 1, BirthDate: &late},
			{ID: 2, BirthDate: &early},
			{ID: 3, BirthDate: &july},
			{ID: 4},
		},
		TotalClients:   12,
		ActivePolicies: 7,
	}, today)

	require.Len(t, b.Birthdays, 2)
	assert.Equal(t, int64(2), b.Birthdays[0].ID)
	assert.Equal(t, int64(1), b.Birthdays[1].ID)
	assert.Equal(t, 12, b.TotalClients)
	assert.Equal(t, 7, b.ActivePolicies)
}

func TestClassify_EmptyBook(t *testing.T) {
	b := Classify(Book{}, today)

	assert.NotNil(t, b.Expired)
	assert.NotNil(t, b.OverduePayments)
	assert.True(t, b.PendingCommissionTotal.IsZero())
}

func TestClassify_DoesNotMutateBook(t *testing.T) {
	open := []models.Policy{policy(2, models.PolicyActive, 20), policy(1, models.PolicyActive, 10)}
	Classify(Book{OpenPolicies: open}, today)

	assert.Equal(t, []int64{2, 1}, ids(open))
}

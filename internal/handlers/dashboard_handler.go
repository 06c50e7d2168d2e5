package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/brokerdesk/api/internal/dashboard"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/services"
)

// DashboardHandler serves the classified book of business.
type DashboardHandler struct {
	service services.DashboardService
	now     func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler instance.
func NewDashboardHandler(service services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service, now: time.Now}
}

// PaymentDueData pairs a policy with its earliest pending installment.
type PaymentDueData struct {
	Policy      PolicyData      `json:"policy"`
	Installment InstallmentData `json:"installment"`
}

// BirthdayData is a client celebrating this month.
type BirthdayData struct {
	Email        *string `json:"email"`
	FullName     string  `json:"full_name"`
	BirthDate    string  `json:"birth_date"`
	PrimaryPhone string  `json:"primary_phone"`
	ID           int64   `json:"id"`
	Day          int     `json:"day"`
}

// DashboardResponse is the dashboard payload.
type DashboardResponse struct {
	Expired                []PolicyData     `json:"expired"`
	InProcess              []PolicyData     `json:"in_process"`
	Expiring30             []PolicyData     `json:"expiring_30"`
	Expiring60             []PolicyData     `json:"expiring_60"`
	OverduePayments        []PaymentDueData `json:"overdue_payments"`
	UpcomingPayments       []PaymentDueData `json:"upcoming_payments"`
	PendingCommissions     []PolicyData     `json:"pending_commissions"`
	Birthdays              []BirthdayData   `json:"birthdays"`
	PendingCommissionTotal decimal.Decimal  `json:"pending_commission_total"`
	TotalClients           int              `json:"total_clients"`
	ActivePolicies         int              `json:"active_policies"`
}

// Get handles GET /api/v1/dashboard.
func (h *DashboardHandler) Get(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}

	buckets, err := h.service.Get(c.Request.Context(), agent)
	if err != nil {
		respondError(c, err, "Failed to build dashboard")
		return
	}

	c.JSON(http.StatusOK, mapBucketsToDTO(&buckets, models.DateOf(h.now())))
}

func mapBucketsToDTO(b *dashboard.Buckets, today time.Time) DashboardResponse {
	policies := func(in []models.Policy) []PolicyData {
		out := make([]PolicyData, 0, len(in))
		for i := range in {
			out = append(out, mapPolicyToDTO(&in[i], today))
		}
		return out
	}
	payments := func(in []dashboard.PaymentDue) []PaymentDueData {
		out := make([]PaymentDueData, 0, len(in))
		for i := range in {
			out = append(out, PaymentDueData{
				Policy:      mapPolicyToDTO(&in[i].Policy, today),
				Installment: mapInstallmentToDTO(&in[i].Installment),
			})
		}
		return out
	}

	birthdays := make([]BirthdayData, 0, len(b.Birthdays))
	for _, client := range b.Birthdays {
		if client.BirthDate == nil {
			continue
		}
		birthdays = append(birthdays, BirthdayData{
			ID:           client.ID,
			FullName:     client.FullName,
			Email:        client.Email,
			PrimaryPhone: client.PrimaryPhone,
			BirthDate:    models.FormatDate(*client.BirthDate),
			Day:          client.BirthDate.Day(),
		})
	}

	return DashboardResponse{
		Expired:                policies(b.Expired),
		InProcess:              policies(b.InProcess),
		Expiring30:             policies(b.Expiring30),
		Expiring60:             policies(b.Expiring60),
		OverduePayments:        payments(b.OverduePayments),
		UpcomingPayments:       payments(b.UpcomingPayments),
		PendingCommissions:     policies(b.PendingCommissions),
		Birthdays:              birthdays,
		PendingCommissionTotal: b.PendingCommissionTotal,
		TotalClients:           b.TotalClients,
		ActivePolicies:         b.ActivePolicies,
	}
}

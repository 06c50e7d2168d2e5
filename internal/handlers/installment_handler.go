package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/services"
)

// InstallmentHandler handles schedule reads and payment actions.
type InstallmentHandler struct {
	service services.InstallmentService
}

// NewInstallmentHandler creates a new InstallmentHandler instance.
func NewInstallmentHandler(service services.InstallmentService) *InstallmentHandler {
	return &InstallmentHandler{service: service}
}

// PayRequest is the optional body of the pay action.
type PayRequest struct {
	PaidOn *string `json:"paid_on"`
}

// InstallmentData is an installment as returned by the API.
type InstallmentData struct {
	PaidOn   *string                  `json:"paid_on"`
	Notes    *string                  `json:"notes"`
	Amount   decimal.Decimal          `json:"amount"`
	DueDate  string                   `json:"due_date"`
	Status   models.InstallmentStatus `json:"status"`
	ID       int64                    `json:"id"`
	PolicyID int64                    `json:"policy_id"`
	Number   int                      `json:"number"`
}

// ListByPolicy handles GET /api/v1/policies/:id/installments.
func (h *InstallmentHandler) ListByPolicy(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	policyID, ok := pathID(c, "id")
	if !ok {
		return
	}

	installments, err := h.service.ListByPolicy(c.Request.Context(), agent, policyID)
	if err != nil {
		respondError(c, err, "Failed to list installments")
		return
	}

	items := make([]InstallmentData, 0, len(installments))
	for i := range installments {
		items = append(items, mapInstallmentToDTO(&installments[i]))
	}
	c.JSON(http.StatusOK, gin.H{"installments": items, "count": len(items)})
}

// Pay handles POST /api/v1/installments/:id/pay. An empty body pays today.
func (h *InstallmentHandler) Pay(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req PayRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	paidOn, ok := parseOptionalDate(c, "paid_on", req.PaidOn)
	if !ok {
		return
	}

	inst, err := h.service.Pay(c.Request.Context(), agent, id, paidOn)
	if err != nil {
		respondError(c, err, "Failed to record payment")
		return
	}
	c.JSON(http.StatusOK, mapInstallmentToDTO(inst))
}

// Revert handles POST /api/v1/installments/:id/revert.
func (h *InstallmentHandler) Revert(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	inst, err := h.service.Revert(c.Request.Context(), agent, id)
	if err != nil {
		respondError(c, err, "Failed to revert payment")
		return
	}
	c.JSON(http.StatusOK, mapInstallmentToDTO(inst))
}

func mapInstallmentToDTO(inst *models.Installment) InstallmentData {
	return InstallmentData{
		ID:       inst.ID,
		PolicyID: inst.PolicyID,
		Number:   inst.Number,
		DueDate:  models.FormatDate(inst.DueDate),
		Amount:   inst.Amount,
		Status:   inst.Status,
		PaidOn:   models.FormatOptionalDate(inst.PaidOn),
		Notes:    inst.Notes,
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	apierrors "github.com/stwalsh4118/brokerdesk/api/internal/errors"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/services"
)

// ClaimHandler handles loss events reported against policies.
type ClaimHandler struct {
	service services.ClaimService
}

// NewClaimHandler creates a new ClaimHandler instance.
func NewClaimHandler(service services.ClaimService) *ClaimHandler {
	return &ClaimHandler{service: service}
}

// ClaimRequest is the body of create and update.
type ClaimRequest struct {
	IndemnifiedAmount decimal.NullDecimal `json:"indemnified_amount"`
	ClaimedAmount     decimal.Decimal     `json:"claimed_amount"`
	OccurredOn        string              `json:"occurred_on" binding:"required"`
	ReportedOn        string              `json:"reported_on" binding:"required"`
	Description       string              `json:"description" binding:"required"`
	Status            models.ClaimStatus  `json:"status" binding:"omitempty,oneof=REPORTED IN_REVIEW APPROVED REJECTED PAID CLOSED"`
}

// ClaimData is a claim as returned by the API.
type ClaimData struct {
	CreatedAt         time.Time           `json:"created_at"`
	IndemnifiedAmount decimal.NullDecimal `json:"indemnified_amount"`
	ClaimedAmount     decimal.Decimal     `json:"claimed_amount"`
	OccurredOn        string              `json:"occurred_on"`
	ReportedOn        string              `json:"reported_on"`
	Description       string              `json:"description"`
	Status            models.ClaimStatus  `json:"status"`
	ID                int64               `json:"id"`
	PolicyID          int64               `json:"policy_id"`
}

func (r *ClaimRequest) toModel(c *gin.Context) (*models.Claim, bool) {
	occurred, ok := parseDate(c, "occurred_on", r.OccurredOn)
	if !ok {
		return nil, false
	}
	reported, ok := parseDate(c, "reported_on", r.ReportedOn)
	if !ok {
		return nil, false
	}
	if r.ClaimedAmount.IsNegative() {
		apierrors.FieldError(c, "claimed_amount", "Must not be negative")
		return nil, false
	}
	if r.IndemnifiedAmount.Valid && r.IndemnifiedAmount.Decimal.IsNegative() {
		apierrors.FieldError(c, "indemnified_amount", "Must not be negative")
		return nil, false
	}
	return &models.Claim{
		OccurredOn:        occurred,
		ReportedOn:        reported,
		Description:       r.Description,
		ClaimedAmount:     r.ClaimedAmount,
		IndemnifiedAmount: r.IndemnifiedAmount,
		Status:            r.Status,
	}, true
}

// ListByPolicy handles GET /api/v1/policies/:id/claims.
func (h *ClaimHandler) ListByPolicy(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	policyID, ok := pathID(c, "id")
	if !ok {
		return
	}

	claims, err := h.service.ListByPolicy(c.Request.Context(), agent, policyID)
	if err != nil {
		respondError(c, err, "Failed to list claims")
		return
	}

	items := make([]ClaimData, 0, len(claims))
	for i := range claims {
		items = append(items, mapClaimToDTO(&claims[i]))
	}
	c.JSON(http.StatusOK, gin.H{"claims": items, "count": len(items)})
}

// Create handles POST /api/v1/policies/:id/claims.
func (h *ClaimHandler) Create(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	policyID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ClaimRequest
	if !bindJSON(c, &req) {
		return
	}
	claim, ok := req.toModel(c)
	if !ok {
		return
	}
	claim.PolicyID = policyID

	if err := h.service.Create(c.Request.Context(), agent, claim); err != nil {
		respondError(c, err, "Failed to register claim")
		return
	}
	c.JSON(http.StatusCreated, mapClaimToDTO(claim))
}

// Get handles GET /api/v1/claims/:id.
func (h *ClaimHandler) Get(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	claim, err := h.service.Get(c.Request.Context(), agent, id)
	if err != nil {
		respondError(c, err, "Failed to load claim")
		return
	}
	c.JSON(http.StatusOK, mapClaimToDTO(claim))
}

// Update handles PUT /api/v1/claims/:id.
func (h *ClaimHandler) Update(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ClaimRequest
	if !bindJSON(c, &req) {
		return
	}
	claim, ok := req.toModel(c)
	if !ok {
		return
	}
	claim.ID = id

	if err := h.service.Update(c.Request.Context(), agent, claim); err != nil {
		respondError(c, err, "Failed to update claim")
		return
	}
	c.JSON(http.StatusOK, mapClaimToDTO(claim))
}

// Delete handles DELETE /api/v1/claims/:id.
func (h *ClaimHandler) Delete(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), agent, id); err != nil {
		respondError(c, err, "Failed to delete claim")
		return
	}
	noContent(c)
}

func mapClaimToDTO(claim *models.Claim) ClaimData {
	return ClaimData{
		ID:                claim.ID,
		PolicyID:          claim.PolicyID,
		OccurredOn:        models.FormatDate(claim.OccurredOn),
		ReportedOn:        models.FormatDate(claim.ReportedOn),
		Description:       claim.Description,
		ClaimedAmount:     claim.ClaimedAmount,
		IndemnifiedAmount: claim.IndemnifiedAmount,
		Status:            claim.Status,
		CreatedAt:         claim.CreatedAt,
	}
}

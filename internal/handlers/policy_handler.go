package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	apierrors "github.com/stwalsh4118/brokerdesk/api/internal/errors"
	"github.com/stwalsh4118/brokerdesk/api/internal/middleware"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
	"github.com/stwalsh4118/brokerdesk/api/internal/services"
)

// PolicyHandler handles policy requests, including renewal actions.
type PolicyHandler struct {
	policies services.PolicyService
	renewals services.RenewalService
	now      func() time.Time
}

// NewPolicyHandler creates a new PolicyHandler instance.
func NewPolicyHandler(policies services.PolicyService, renewals services.RenewalService) *PolicyHandler {
	return &PolicyHandler{policies: policies, renewals: renewals, now: time.Now}
}

// PolicyRequest is the body of create and update. Dates are YYYY-MM-DD.
type PolicyRequest struct {
	InsurerID             *int64                  `json:"insurer_id" binding:"omitempty,min=1"`
	InsuredItem           *string                 `json:"insured_item" binding:"omitempty,max=300"`
	Notes                 *string                 `json:"notes"`
	IssueDate             *string                 `json:"issue_date"`
	CommissionCollectedOn *string                 `json:"commission_collected_on"`
	InstallmentAmount     decimal.NullDecimal     `json:"installment_amount"`
	AnnualPremium         decimal.Decimal         `json:"annual_premium"`
	CommissionAmount      decimal.Decimal         `json:"commission_amount"`
	PolicyNumber          string                  `json:"policy_number" binding:"required,max=85"`
	CoverageType          string                  `json:"coverage_type" binding:"required,max=100"`
	StartDate             string                  `json:"start_date" binding:"required"`
	EndDate               string                  `json:"end_date" binding:"required"`
	PaymentFrequency      models.PaymentFrequency `json:"payment_frequency" binding:"required,oneof=ONE_TIME MONTHLY QUARTERLY FOUR_MONTHLY SEMIANNUAL ANNUAL"`
	Status                models.PolicyStatus     `json:"status" binding:"omitempty,oneof=IN_PROCESS ACTIVE PENDING_PAYMENT EXPIRED CANCELLED RENEWED"`
	ClientID              int64                   `json:"client_id" binding:"required,min=1"`
	CommissionCollected   bool                    `json:"commission_collected"`
}

// PolicyQuery holds the list filters.
type PolicyQuery struct {
	PageQuery
	InsurerID    *int64               `form:"insurer_id" binding:"omitempty,min=1"`
	ClientID     *int64               `form:"client_id" binding:"omitempty,min=1"`
	Query        string               `form:"q" binding:"omitempty,max=100"`
	CoverageType string               `form:"coverage_type" binding:"omitempty,max=100"`
	Status       models.PolicyStatus  `form:"status" binding:"omitempty,oneof=IN_PROCESS ACTIVE PENDING_PAYMENT EXPIRED CANCELLED RENEWED"`
	Due          repository.DueWindow `form:"due" binding:"omitempty,oneof=expired 30 60"`
}

// ClientRef is the client summary embedded in policy rows.
type ClientRef struct {
	Email          *string `json:"email"`
	FullName       string  `json:"full_name"`
	DocumentType   string  `json:"document_type"`
	DocumentNumber string  `json:"document_number"`
	Phone          string  `json:"phone"`
	ID             int64   `json:"id"`
}

// PolicyData is the policy as returned by the API. Field order is kept
// aligned for memory layout.
type PolicyData struct {
	CreatedAt             time.Time               `json:"created_at"`
	UpdatedAt             time.Time               `json:"updated_at"`
	Client                *ClientRef              `json:"client,omitempty"`
	InsurerID             *int64                  `json:"insurer_id"`
	InsurerName           *string                 `json:"insurer_name"`
	RenewedFromID         *int64                  `json:"renewed_from_id"`
	InsuredItem           *string                 `json:"insured_item"`
	Notes                 *string                 `json:"notes"`
	CommissionCollectedOn *string                 `json:"commission_collected_on"`
	InstallmentAmount     decimal.NullDecimal     `json:"installment_amount"`
	AnnualPremium         decimal.Decimal         `json:"annual_premium"`
	CommissionAmount      decimal.Decimal         `json:"commission_amount"`
	PolicyNumber          string                  `json:"policy_number"`
	CoverageType          string                  `json:"coverage_type"`
	IssueDate             string                  `json:"issue_date"`
	StartDate             string                  `json:"start_date"`
	EndDate               string                  `json:"end_date"`
	PaymentFrequency      models.PaymentFrequency `json:"payment_frequency"`
	Status                models.PolicyStatus     `json:"status"`
	RenewalStatus         models.RenewalStatus    `json:"renewal_status"`
	ID                    int64                   `json:"id"`
	ClientID              int64                   `json:"client_id"`
	DaysToEnd             int                     `json:"days_to_end"`
	CommissionCollected   bool                    `json:"commission_collected"`
}

// PolicyDetailResponse is the full policy aggregate.
type PolicyDetailResponse struct {
	PolicyData
	NextDueDate  *string           `json:"next_due_date"`
	Installments []InstallmentData `json:"installments"`
	Insured      []InsuredData     `json:"insured"`
	Claims       []ClaimData       `json:"claims"`
	Documents    []DocumentData    `json:"documents"`
}

func (r *PolicyRequest) toModel(c *gin.Context) (*models.Policy, bool) {
	start, ok := parseDate(c, "start_date", r.StartDate)
	if !ok {
		return nil, false
	}
	end, ok := parseDate(c, "end_date", r.EndDate)
	if !ok {
		return nil, false
	}
	issue, ok := parseOptionalDate(c, "issue_date", r.IssueDate)
	if !ok {
		return nil, false
	}
	collectedOn, ok := parseOptionalDate(c, "commission_collected_on", r.CommissionCollectedOn)
	if !ok {
		return nil, false
	}

	if r.AnnualPremium.IsNegative() {
		apierrors.FieldError(c, "annual_premium", "Must not be negative")
		return nil, false
	}
	if r.CommissionAmount.IsNegative() {
		apierrors.FieldError(c, "commission_amount", "Must not be negative")
		return nil, false
	}
	if r.InstallmentAmount.Valid && !r.InstallmentAmount.Decimal.IsPositive() {
		apierrors.FieldError(c, "installment_amount", "Must be greater than zero")
		return nil, false
	}

	p := &models.Policy{
		ClientID:              r.ClientID,
		InsurerID:             r.InsurerID,
		PolicyNumber:          r.PolicyNumber,
		CoverageType:          r.CoverageType,
		InsuredItem:           r.InsuredItem,
		StartDate:             start,
		EndDate:               end,
		AnnualPremium:         r.AnnualPremium,
		InstallmentAmount:     r.InstallmentAmount,
		PaymentFrequency:      r.PaymentFrequency,
		CommissionAmount:      r.CommissionAmount,
		CommissionCollected:   r.CommissionCollected,
		CommissionCollectedOn: collectedOn,
		Status:                r.Status,
		Notes:                 r.Notes,
	}
	if issue != nil {
		p.IssueDate = *issue
	}
	return p, true
}

func (q *PolicyQuery) filter() repository.PolicyFilter {
	return repository.PolicyFilter{
		InsurerID:    q.InsurerID,
		ClientID:     q.ClientID,
		Query:        q.Query,
		CoverageType: q.CoverageType,
		Status:       q.Status,
		Due:          q.Due,
	}
}

// Create handles POST /api/v1/policies. The installment schedule is
// generated with the policy.
func (h *PolicyHandler) Create(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	var req PolicyRequest
	if !bindJSON(c, &req) {
		return
	}
	policy, ok := req.toModel(c)
	if !ok {
		return
	}

	if err := h.policies.Create(c.Request.Context(), agent, policy); err != nil {
		respondError(c, err, "Failed to create policy")
		return
	}
	h.respondDetail(c, agent, policy.ID, http.StatusCreated)
}

// Get handles GET /api/v1/policies/:id.
func (h *PolicyHandler) Get(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.respondDetail(c, agent, id, http.StatusOK)
}

func (h *PolicyHandler) respondDetail(c *gin.Context, agent models.AgentID, id int64, status int) {
	detail, err := h.policies.Get(c.Request.Context(), agent, id)
	if err != nil {
		respondError(c, err, "Failed to load policy")
		return
	}
	c.JSON(status, mapPolicyDetailToDTO(detail))
}

// List handles GET /api/v1/policies.
func (h *PolicyHandler) List(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	var q PolicyQuery
	if !bindQuery(c, &q) {
		return
	}

	page := q.page()
	policies, total, err := h.policies.List(c.Request.Context(), agent, q.filter(), page)
	if err != nil {
		respondError(c, err, "Failed to list policies")
		return
	}

	today := models.DateOf(h.now())
	items := make([]PolicyData, 0, len(policies))
	for i := range policies {
		items = append(items, mapPolicyToDTO(&policies[i], today))
	}
	c.JSON(http.StatusOK, newListResponse(items, total, page))
}

// Update handles PUT /api/v1/policies/:id.
func (h *PolicyHandler) Update(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req PolicyRequest
	if !bindJSON(c, &req) {
		return
	}
	policy, ok := req.toModel(c)
	if !ok {
		return
	}
	policy.ID = id

	if err := h.policies.Update(c.Request.Context(), agent, policy); err != nil {
		respondError(c, err, "Failed to update policy")
		return
	}
	h.respondDetail(c, agent, id, http.StatusOK)
}

// Delete handles DELETE /api/v1/policies/:id.
func (h *PolicyHandler) Delete(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.policies.Delete(c.Request.Context(), agent, id); err != nil {
		respondError(c, err, "Failed to delete policy")
		return
	}
	noContent(c)
}

// Renew handles POST /api/v1/policies/:id/renew and returns the new policy.
func (h *PolicyHandler) Renew(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	renewal, err := h.renewals.Renew(c.Request.Context(), agent, id)
	if err != nil {
		respondError(c, err, "Failed to renew policy")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Policy renewed", map[string]interface{}{
			"policy_id":  id,
			"renewal_id": renewal.ID,
		})
	}
	h.respondDetail(c, agent, renewal.ID, http.StatusCreated)
}

// CancelRenewalResponse reports the outcome of undoing a renewal.
type CancelRenewalResponse struct {
	Original *PolicyData `json:"original"`
	Restored bool        `json:"restored"`
}

// CancelRenewal handles POST /api/v1/policies/:id/cancel-renewal, where :id
// is the renewal. The original is returned to ACTIVE when it still exists.
func (h *PolicyHandler) CancelRenewal(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	original, err := h.renewals.CancelRenewal(c.Request.Context(), agent, id)
	if err != nil {
		respondError(c, err, "Failed to cancel renewal")
		return
	}

	resp := CancelRenewalResponse{}
	if original != nil {
		dto := mapPolicyToDTO(original, models.DateOf(h.now()))
		resp.Original = &dto
		resp.Restored = true
	}
	c.JSON(http.StatusOK, resp)
}

func mapPolicyToDTO(p *models.Policy, today time.Time) PolicyData {
	dto := PolicyData{
		ID:                    p.ID,
		ClientID:              p.ClientID,
		InsurerID:             p.InsurerID,
		InsurerName:           p.InsurerName,
		RenewedFromID:         p.RenewedFromID,
		PolicyNumber:          p.PolicyNumber,
		CoverageType:          p.CoverageType,
		InsuredItem:           p.InsuredItem,
		IssueDate:             models.FormatDate(p.IssueDate),
		StartDate:             models.FormatDate(p.StartDate),
		EndDate:               models.FormatDate(p.EndDate),
		AnnualPremium:         p.AnnualPremium,
		InstallmentAmount:     p.InstallmentAmount,
		PaymentFrequency:      p.PaymentFrequency,
		CommissionAmount:      p.CommissionAmount,
		CommissionCollected:   p.CommissionCollected,
		CommissionCollectedOn: models.FormatOptionalDate(p.CommissionCollectedOn),
		Status:                p.Status,
		RenewalStatus:         p.RenewalStatus(today),
		DaysToEnd:             p.DaysToEnd(today),
		Notes:                 p.Notes,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
	if p.Client != nil {
		dto.Client = &ClientRef{
			ID:             p.Client.ID,
			FullName:       p.Client.FullName,
			DocumentType:   string(p.Client.DocumentType),
			DocumentNumber: p.Client.DocumentNumber,
			Email:          p.Client.Email,
			Phone:          p.Client.Phone,
		}
	}
	return dto
}

func mapPolicyDetailToDTO(d *services.PolicyDetail) PolicyDetailResponse {
	resp := PolicyDetailResponse{
		PolicyData:   mapPolicyToDTO(d.Policy, time.Time{}),
		NextDueDate:  models.FormatOptionalDate(d.NextDueDate),
		Installments: make([]InstallmentData, 0, len(d.Installments)),
		Insured:      make([]InsuredData, 0, len(d.Insured)),
		Claims:       make([]ClaimData, 0, len(d.Claims)),
		Documents:    make([]DocumentData, 0, len(d.Documents)),
	}
	resp.RenewalStatus = d.RenewalStatus
	resp.DaysToEnd = d.DaysToEnd

	for i := range d.Installments {
		resp.Installments = append(resp.Installments, mapInstallmentToDTO(&d.Installments[i]))
	}
	for i := range d.Insured {
		resp.Insured = append(resp.Insured, mapInsuredToDTO(&d.Insured[i]))
	}
	for i := range d.Claims {
		resp.Claims = append(resp.Claims, mapClaimToDTO(&d.Claims[i]))
	}
	for i := range d.Documents {
		resp.Documents = append(resp.Documents, mapDocumentToDTO(&d.Documents[i]))
	}
	return resp
}

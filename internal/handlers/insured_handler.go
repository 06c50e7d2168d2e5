package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/services"
)

// InsuredHandler handles the people covered by a policy.
type InsuredHandler struct {
	service services.InsuredService
}

// NewInsuredHandler creates a new InsuredHandler instance.
func NewInsuredHandler(service services.InsuredService) *InsuredHandler {
	return &InsuredHandler{service: service}
}

// InsuredRequest is the body of create and update.
type InsuredRequest struct {
	BirthDate      *string              `json:"birth_date"`
	DocumentType   *models.DocumentType `json:"document_type" binding:"omitempty,oneof=CC CE NIT PAS OTRO"`
	DocumentNumber *string              `json:"document_number" binding:"omitempty,max=50"`
	Email          *string              `json:"email" binding:"omitempty,email"`
	Phone          *string              `json:"phone" binding:"omitempty,max=30"`
	FullName       string               `json:"full_name" binding:"required,max=200"`
	Relationship   models.Relationship  `json:"relationship" binding:"omitempty,oneof=HOLDER SPOUSE CHILD PARENT OTHER"`
}

// InsuredData is an insured person as returned by the API.
type InsuredData struct {
	BirthDate      *string              `json:"birth_date"`
	DocumentType   *models.DocumentType `json:"document_type"`
	DocumentNumber *string              `json:"document_number"`
	Email          *string              `json:"email"`
	Phone          *string              `json:"phone"`
	FullName       string               `json:"full_name"`
	Relationship   models.Relationship  `json:"relationship"`
	ID             int64                `json:"id"`
	PolicyID       int64                `json:"policy_id"`
}

func (r *InsuredRequest) toModel(c *gin.Context) (*models.InsuredPerson, bool) {
	birthDate, ok := parseOptionalDate(c, "birth_date", r.BirthDate)
	if !ok {
		return nil, false
	}
	return &models.InsuredPerson{
		FullName:       r.FullName,
		Relationship:   r.Relationship,
		BirthDate:      birthDate,
		DocumentType:   r.DocumentType,
		DocumentNumber: r.DocumentNumber,
		Email:          r.Email,
		Phone:          r.Phone,
	}, true
}

// ListByPolicy handles GET /api/v1/policies/:id/insured.
func (h *InsuredHandler) ListByPolicy(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	policyID, ok := pathID(c, "id")
	if !ok {
		return
	}

	people, err := h.service.ListByPolicy(c.Request.Context(), agent, policyID)
	if err != nil {
		respondError(c, err, "Failed to list insured persons")
		return
	}

	items := make([]InsuredData, 0, len(people))
	for i := range people {
		items = append(items, mapInsuredToDTO(&people[i]))
	}
	c.JSON(http.StatusOK, gin.H{"insured": items, "count": len(items)})
}

// Create handles POST /api/v1/policies/:id/insured.
func (h *InsuredHandler) Create(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	policyID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req InsuredRequest
	if !bindJSON(c, &req) {
		return
	}
	person, ok := req.toModel(c)
	if !ok {
		return
	}
	person.PolicyID = policyID

	if err := h.service.Create(c.Request.Context(), agent, person); err != nil {
		respondError(c, err, "Failed to add insured person")
		return
	}
	c.JSON(http.StatusCreated, mapInsuredToDTO(person))
}

// Update handles PUT /api/v1/insured/:id.
func (h *InsuredHandler) Update(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req InsuredRequest
	if !bindJSON(c, &req) {
		return
	}
	person, ok := req.toModel(c)
	if !ok {
		return
	}
	person.ID = id

	if err := h.service.Update(c.Request.Context(), agent, person); err != nil {
		respondError(c, err, "Failed to update insured person")
		return
	}
	c.JSON(http.StatusOK, mapInsuredToDTO(person))
}

// Delete handles DELETE /api/v1/insured/:id.
func (h *InsuredHandler) Delete(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), agent, id); err != nil {
		respondError(c, err, "Failed to remove insured person")
		return
	}
	noContent(c)
}

func mapInsuredToDTO(p *models.InsuredPerson) InsuredData {
	return InsuredData{
		ID:             p.ID,
		PolicyID:       p.PolicyID,
		FullName:       p.FullName,
		Relationship:   p.Relationship,
		BirthDate:      models.FormatOptionalDate(p.BirthDate),
		DocumentType:   p.DocumentType,
		DocumentNumber: p.DocumentNumber,
		Email:          p.Email,
		Phone:          p.Phone,
	}
}

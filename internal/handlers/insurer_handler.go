package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/services"
)

// InsurerHandler handles insurer registry requests.
type InsurerHandler struct {
	service services.InsurerService
}

// NewInsurerHandler creates a new InsurerHandler instance.
func NewInsurerHandler(service services.InsurerService) *InsurerHandler {
	return &InsurerHandler{service: service}
}

// InsurerRequest is the body of create and update.
type InsurerRequest struct {
	TaxID        *string `json:"tax_id" binding:"omitempty,max=30"`
	ContactName  *string `json:"contact_name" binding:"omitempty,max=200"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email"`
	ContactPhone *string `json:"contact_phone" binding:"omitempty,max=30"`
	Name         string  `json:"name" binding:"required,max=200"`
}

// InsurerQuery holds the list filters.
type InsurerQuery struct {
	PageQuery
	Query string `form:"q" binding:"omitempty,max=100"`
}

// InsurerData is the insurer as returned by the API.
type InsurerData struct {
	TaxID        *string   `json:"tax_id"`
	ContactName  *string   `json:"contact_name"`
	ContactEmail *string   `json:"contact_email"`
	ContactPhone *string   `json:"contact_phone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `json:"name"`
	ID           int64     `json:"id"`
}

func (r *InsurerRequest) toModel() *models.Insurer {
	return &models.Insurer{
		Name:         r.Name,
		TaxID:        r.TaxID,
		ContactName:  r.ContactName,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
	}
}

// Create handles POST /api/v1/insurers.
func (h *InsurerHandler) Create(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	var req InsurerRequest
	if !bindJSON(c, &req) {
		return
	}

	insurer := req.toModel()
	if err := h.service.Create(c.Request.Context(), agent, insurer); err != nil {
		respondError(c, err, "Failed to create insurer")
		return
	}
	c.JSON(http.StatusCreated, mapInsurerToDTO(insurer))
}

// Get handles GET /api/v1/insurers/:id.
func (h *InsurerHandler) Get(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	insurer, err := h.service.Get(c.Request.Context(), agent, id)
	if err != nil {
		respondError(c, err, "Failed to load insurer")
		return
	}
	c.JSON(http.StatusOK, mapInsurerToDTO(insurer))
}

// List handles GET /api/v1/insurers.
func (h *InsurerHandler) List(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	var q InsurerQuery
	if !bindQuery(c, &q) {
		return
	}

	page := q.page()
	insurers, total, err := h.service.List(c.Request.Context(), agent, q.Query, page)
	if err != nil {
		respondError(c, err, "Failed to list insurers")
		return
	}

	items := make([]InsurerData, 0, len(insurers))
	for i := range insurers {
		items = append(items, mapInsurerToDTO(&insurers[i]))
	}
	c.JSON(http.StatusOK, newListResponse(items, total, page))
}

// Update handles PUT /api/v1/insurers/:id.
func (h *InsurerHandler) Update(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req InsurerRequest
	if !bindJSON(c, &req) {
		return
	}

	insurer := req.toModel()
	insurer.ID = id
	if err := h.service.Update(c.Request.Context(), agent, insurer); err != nil {
		respondError(c, err, "Failed to update insurer")
		return
	}
	c.JSON(http.StatusOK, mapInsurerToDTO(insurer))
}

// Delete handles DELETE /api/v1/insurers/:id. Policies keep existing
// without an insurer.
func (h *InsurerHandler) Delete(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), agent, id); err != nil {
		respondError(c, err, "Failed to delete insurer")
		return
	}
	noContent(c)
}

func mapInsurerToDTO(insurer *models.Insurer) InsurerData {
	return InsurerData{
		ID:           insurer.ID,
		Name:         insurer.Name,
		TaxID:        insurer.TaxID,
		ContactName:  insurer.ContactName,
		ContactEmail: insurer.ContactEmail,
		ContactPhone: insurer.ContactPhone,
		CreatedAt:    insurer.CreatedAt,
		UpdatedAt:    insurer.UpdatedAt,
	}
}

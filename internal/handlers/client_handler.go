package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/brokerdesk/api/internal/middleware"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/services"
)

// ClientHandler handles client registry requests.
type ClientHandler struct {
	service services.ClientService
	now     func() time.Time
}

// NewClientHandler creates a new ClientHandler instance.
func NewClientHandler(service services.ClientService) *ClientHandler {
	return &ClientHandler{service: service, now: time.Now}
}

// ClientRequest is the body of create and update.
type ClientRequest struct {
	SecondaryPhone *string             `json:"secondary_phone" binding:"omitempty,max=30"`
	Email          *string             `json:"email" binding:"omitempty,email"`
	BirthDate      *string             `json:"birth_date"`
	Address        *string             `json:"address" binding:"omitempty,max=300"`
	City           *string             `json:"city" binding:"omitempty,max=100"`
	Occupation     *string             `json:"occupation" binding:"omitempty,max=100"`
	Notes          *string             `json:"notes"`
	FullName       string              `json:"full_name" binding:"required,max=200"`
	DocumentType   models.DocumentType `json:"document_type" binding:"required,oneof=CC CE NIT PAS OTRO"`
	DocumentNumber string              `json:"document_number" binding:"required,max=50"`
	PrimaryPhone   string              `json:"primary_phone" binding:"required,max=30"`
}

// ClientQuery holds the list filters.
type ClientQuery struct {
	PageQuery
	Query string `form:"q" binding:"omitempty,max=100"`
}

// ClientData is the client as returned by the API.
type ClientData struct {
	SecondaryPhone    *string             `json:"secondary_phone"`
	Email             *string             `json:"email"`
	BirthDate         *string             `json:"birth_date"`
	Address           *string             `json:"address"`
	City              *string             `json:"city"`
	Occupation        *string             `json:"occupation"`
	Notes             *string             `json:"notes"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	FullName          string              `json:"full_name"`
	DocumentType      models.DocumentType `json:"document_type"`
	DocumentTypeLabel string              `json:"document_type_label"`
	DocumentNumber    string              `json:"document_number"`
	PrimaryPhone      string              `json:"primary_phone"`
	ID                int64               `json:"id"`
}

// ClientDetailResponse is a client with its policies.
type ClientDetailResponse struct {
	ClientData
	Policies []PolicyData `json:"policies"`
}

func (r *ClientRequest) toModel(c *gin.Context) (*models.Client, bool) {
	birthDate, ok := parseOptionalDate(c, "birth_date", r.BirthDate)
	if !ok {
		return nil, false
	}
	return &models.Client{
		FullName:       r.FullName,
		DocumentType:   r.DocumentType,
		DocumentNumber: r.DocumentNumber,
		PrimaryPhone:   r.PrimaryPhone,
		SecondaryPhone: r.SecondaryPhone,
		Email:          r.Email,
		BirthDate:      birthDate,
		Address:        r.Address,
		City:           r.City,
		Occupation:     r.Occupation,
		Notes:          r.Notes,
	}, true
}

// Create handles POST /api/v1/clients.
func (h *ClientHandler) Create(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	var req ClientRequest
	if !bindJSON(c, &req) {
		return
	}
	client, ok := req.toModel(c)
	if !ok {
		return
	}

	if err := h.service.Create(c.Request.Context(), agent, client); err != nil {
		respondError(c, err, "Failed to create client")
		return
	}

	c.JSON(http.StatusCreated, mapClientToDTO(client))
}

// Get handles GET /api/v1/clients/:id.
func (h *ClientHandler) Get(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.Get(c.Request.Context(), agent, id)
	if err != nil {
		respondError(c, err, "Failed to load client")
		return
	}

	today := models.DateOf(h.now())
	policies := make([]PolicyData, 0, len(detail.Policies))
	for i := range detail.Policies {
		policies = append(policies, mapPolicyToDTO(&detail.Policies[i], today))
	}

	c.JSON(http.StatusOK, ClientDetailResponse{
		ClientData: mapClientToDTO(detail.Client),
		Policies:   policies,
	})
}

// List handles GET /api/v1/clients.
func (h *ClientHandler) List(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	var q ClientQuery
	if !bindQuery(c, &q) {
		return
	}

	page := q.page()
	clients, total, err := h.service.List(c.Request.Context(), agent, q.Query, page)
	if err != nil {
		respondError(c, err, "Failed to list clients")
		return
	}

	items := make([]ClientData, 0, len(clients))
	for i := range clients {
		items = append(items, mapClientToDTO(&clients[i]))
	}
	c.JSON(http.StatusOK, newListResponse(items, total, page))
}

// Update handles PUT /api/v1/clients/:id.
func (h *ClientHandler) Update(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ClientRequest
	if !bindJSON(c, &req) {
		return
	}
	client, ok := req.toModel(c)
	if !ok {
		return
	}
	client.ID = id

	if err := h.service.Update(c.Request.Context(), agent, client); err != nil {
		respondError(c, err, "Failed to update client")
		return
	}

	c.JSON(http.StatusOK, mapClientToDTO(client))
}

// Delete handles DELETE /api/v1/clients/:id. The client's policies go with it.
func (h *ClientHandler) Delete(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), agent, id); err != nil {
		respondError(c, err, "Failed to delete client")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Client removed", map[string]interface{}{"client_id": id})
	}
	noContent(c)
}

func mapClientToDTO(client *models.Client) ClientData {
	return ClientData{
		ID:                client.ID,
		FullName:          client.FullName,
		DocumentType:      client.DocumentType,
		DocumentTypeLabel: client.DocumentType.Label(),
		DocumentNumber:    client.DocumentNumber,
		PrimaryPhone:      client.PrimaryPhone,
		SecondaryPhone:    client.SecondaryPhone,
		Email:             client.Email,
		BirthDate:         models.FormatOptionalDate(client.BirthDate),
		Address:           client.Address,
		City:              client.City,
		Occupation:        client.Occupation,
		Notes:             client.Notes,
		CreatedAt:         client.CreatedAt,
		UpdatedAt:         client.UpdatedAt,
	}
}

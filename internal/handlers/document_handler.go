package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/brokerdesk/api/internal/errors"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/services"
)

// MaxUploadBytes caps a single document upload.
const MaxUploadBytes = 20 << 20

// DocumentHandler handles attachments stored in the blob store.
type DocumentHandler struct {
	service services.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler instance.
func NewDocumentHandler(service services.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// OwnerQuery selects the record documents are attached to.
type OwnerQuery struct {
	OwnerKind string `form:"owner_kind" binding:"required"`
	OwnerID   int64  `form:"owner_id" binding:"required,min=1"`
}

// DocumentData is a document as returned by the API.
type DocumentData struct {
	UploadedAt  time.Time        `json:"uploaded_at"`
	OwnerKind   models.OwnerKind `json:"owner_kind"`
	Title       string           `json:"title"`
	ContentType string           `json:"content_type"`
	OwnerID     int64            `json:"owner_id"`
	SizeBytes   int64            `json:"size_bytes"`
	ID          int64            `json:"id"`
}

// DocumentLinkResponse is a document with a temporary download URL.
type DocumentLinkResponse struct {
	DocumentData
	URL string `json:"url"`
}

func (q *OwnerQuery) owner(c *gin.Context) (models.OwnerRef, bool) {
	kind, err := models.ParseOwnerKind(q.OwnerKind)
	if err != nil {
		apierrors.FieldError(c, "owner_kind", "Must be one of client, policy, claim")
		return models.OwnerRef{}, false
	}
	return models.OwnerRef{Kind: kind, ID: q.OwnerID}, true
}

// Upload handles POST /api/v1/documents?owner_kind&owner_id with a
// multipart "file" field and an optional "title" field.
func (h *DocumentHandler) Upload(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	var q OwnerQuery
	if !bindQuery(c, &q) {
		return
	}
	owner, ok := q.owner(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		apierrors.FieldError(c, "file", "A file of at most 20MB is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		apierrors.BadRequest(c, "Unreadable upload", nil)
		return
	}
	defer file.Close()

	doc, err := h.service.Upload(c.Request.Context(), agent, services.Upload{
		Owner:       owner,
		Title:       c.PostForm("title"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, err, "Failed to store document")
		return
	}
	c.JSON(http.StatusCreated, mapDocumentToDTO(doc))
}

// List handles GET /api/v1/documents?owner_kind&owner_id.
func (h *DocumentHandler) List(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	var q OwnerQuery
	if !bindQuery(c, &q) {
		return
	}
	owner, ok := q.owner(c)
	if !ok {
		return
	}

	docs, err := h.service.ListByOwner(c.Request.Context(), agent, owner)
	if err != nil {
		respondError(c, err, "Failed to list documents")
		return
	}

	items := make([]DocumentData, 0, len(docs))
	for i := range docs {
		items = append(items, mapDocumentToDTO(&docs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"documents": items, "count": len(items)})
}

// Get handles GET /api/v1/documents/:id.
func (h *DocumentHandler) Get(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	doc, link, err := h.service.Get(c.Request.Context(), agent, id)
	if err != nil {
		respondError(c, err, "Failed to load document")
		return
	}
	c.JSON(http.StatusOK, DocumentLinkResponse{DocumentData: mapDocumentToDTO(doc), URL: link})
}

// Delete handles DELETE /api/v1/documents/:id.
func (h *DocumentHandler) Delete(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), agent, id); err != nil {
		respondError(c, err, "Failed to delete document")
		return
	}
	noContent(c)
}

func mapDocumentToDTO(doc *models.Document) DocumentData {
	return DocumentData{
		ID:          doc.ID,
		OwnerKind:   doc.Owner.Kind,
		OwnerID:     doc.Owner.ID,
		Title:       doc.Title,
		ContentType: doc.ContentType,
		SizeBytes:   doc.SizeBytes,
		UploadedAt:  doc.UploadedAt,
	}
}

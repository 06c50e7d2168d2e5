package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apierrors "github.com/stwalsh4118/brokerdesk/api/internal/errors"
	"github.com/stwalsh4118/brokerdesk/api/internal/middleware"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
	"github.com/stwalsh4118/brokerdesk/api/internal/services"
)

// PageQuery holds the pagination query parameters shared by list endpoints.
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (q PageQuery) page() repository.Page {
	return repository.Page{Number: q.Page, Size: q.PageSize}.Normalize()
}

// ListResponse is the envelope for paginated lists.
type ListResponse[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func newListResponse[T any](items []T, total int, page repository.Page) ListResponse[T] {
	return ListResponse[T]{Items: items, Total: total, Page: page.Number, PageSize: page.Size}
}

// requireAgent returns the authenticated agent or writes a 401.
func requireAgent(c *gin.Context) (models.AgentID, bool) {
	agent, ok := middleware.GetAgentID(c)
	if !ok {
		apierrors.Unauthorized(c, "Missing agent identity")
		return uuid.Nil, false
	}
	return agent, true
}

// pathID parses a positive integer path parameter or writes a 400.
func pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(c, "Invalid "+name, map[string]interface{}{name: raw})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	return checkBinding(c, c.ShouldBindJSON(req), "Invalid request body")
}

func bindQuery(c *gin.Context, req interface{}) bool {
	return checkBinding(c, c.ShouldBindQuery(req), "Invalid query parameters")
}

func checkBinding(c *gin.Context, err error, message string) bool {
	if err == nil {
		return true
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return false
	}
	apierrors.BadRequest(c, message, nil)
	return false
}

// parseDate reads a YYYY-MM-DD field, writing a field error on failure.
func parseDate(c *gin.Context, field, value string) (time.Time, bool) {
	d, err := models.ParseDate(value)
	if err != nil {
		apierrors.FieldError(c, field, "Must be a date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return d, true
}

// parseOptionalDate treats nil and the empty string as absent.
func parseOptionalDate(c *gin.Context, field string, value *string) (*time.Time, bool) {
	if value == nil || *value == "" {
		return nil, true
	}
	d, ok := parseDate(c, field, *value)
	if !ok {
		return nil, false
	}
	return &d, true
}

var notFoundErrors = []error{
	services.ErrClientNotFound,
	services.ErrInsurerNotFound,
	services.ErrPolicyNotFound,
	services.ErrInstallmentNotFound,
	services.ErrInsuredNotFound,
	services.ErrClaimNotFound,
	services.ErrDocumentNotFound,
}

var conflictErrors = []error{
	services.ErrClientDocumentTaken,
	services.ErrInsurerNameTaken,
	services.ErrInsurerTaxIDTaken,
	services.ErrPolicyNumberTaken,
	services.ErrPolicyTerminal,
	services.ErrRenewalLocked,
}

func matchAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError maps service errors onto the error envelope. Anything
// unrecognized is a 500 with the given message.
func respondError(c *gin.Context, err error, message string) {
	switch {
	case matchAny(err, notFoundErrors):
		apierrors.NotFound(c, capitalize(err.Error()))
	case matchAny(err, conflictErrors):
		apierrors.Conflict(c, capitalize(err.Error()), nil)
	case errors.Is(err, services.ErrInvalidDateRange):
		apierrors.FieldError(c, "end_date", err.Error())
	case errors.Is(err, services.ErrReportedBeforeOccurred):
		apierrors.FieldError(c, "reported_on", err.Error())
	case errors.Is(err, services.ErrEmptyUpload):
		apierrors.FieldError(c, "file", err.Error())
	default:
		apierrors.InternalServerError(c, message, err)
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stwalsh4118/brokerdesk/api/internal/errors"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
	"github.com/stwalsh4118/brokerdesk/api/internal/services"
)

func setupPolicyRouter(policies services.PolicyService, renewals services.RenewalService) *gin.Engine {
	handler := NewPolicyHandler(policies, renewals)
	router := setupAgentRouter()
	group := router.Group("/api/v1/policies")
	{
		group.GET("", handler.List)
		group.POST("", handler.Create)
		group.GET("/:id", handler.Get)
		group.PUT("/:id", handler.Update)
		group.DELETE("/:id", handler.Delete)
		group.POST("/:id/renew", handler.Renew)
		group.POST("/:id/cancel-renewal", handler.CancelRenewal)
	}
	return router
}

func validPolicyBody() map[string]interface{} {
	return map[string]interface{}{
		"client_id":         7,
		"insurer_id":        3,
		"policy_number":     "SAL-2025-001",
		"coverage_type":     "Salud",
		"start_date":        "2025-01-01",
		"end_date":          "2025-12-31",
		"annual_premium":    "1200.00",
		"payment_frequency": "MONTHLY",
		"commission_amount": "120",
	}
}

func policyDetail(id int64) *services.PolicyDetail {
	due := day(2025, 2, 1)
	return &services.PolicyDetail{
		Policy: &models.Policy{
			ID:               id,
			ClientID:         7,
			PolicyNumber:     "SAL-2025-001",
			StartDate:        day(2025, 1, 1),
			EndDate:          day(2025, 12, 31),
			AnnualPremium:    decimal.NewFromInt(1200),
			PaymentFrequency: models.FrequencyMonthly,
			Status:           models.PolicyActive,
		},
		Installments: []models.Installment{
			{ID: 1, PolicyID: id, Number: 1, DueDate: day(2025, 1, 1), Amount: decimal.NewFromInt(100), Status: models.InstallmentPaid},
			{ID: 2, PolicyID: id, Number: 2, DueDate: due, Amount: decimal.NewFromInt(100), Status: models.InstallmentPending},
		},
		RenewalStatus: models.RenewalCritical,
		DaysToEnd:     12,
		NextDueDate:   &due,
	}
}

func TestPolicyHandler_Create(t *testing.T) {
	policies := new(MockPolicyService)
	router := setupPolicyRouter(policies, new(MockRenewalService))

	policies.On("Create", mock.Anything, testAgent, mock.MatchedBy(func(p *models.Policy) bool {
		return p.ClientID == 7 &&
			*p.InsurerID == 3 &&
			p.StartDate.Equal(day(2025, 1, 1)) &&
			p.AnnualPremium.Equal(decimal.NewFromInt(1200)) &&
			p.IssueDate.IsZero() &&
			!p.InstallmentAmount.Valid
	})).Run(func(args mock.Arguments) {
		args.Get(2).(*models.Policy).ID = 40
	}).Return(nil)
	policies.On("Get", mock.Anything, testAgent, int64(40)).Return(policyDetail(40), nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/policies", validPolicyBody())

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp PolicyDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(40), resp.ID)
	assert.Len(t, resp.Installments, 2)
	assert.Equal(t, models.RenewalCritical, resp.RenewalStatus)
	assert.Equal(t, 12, resp.DaysToEnd)
	require.NotNil(t, resp.NextDueDate)
	assert.Equal(t, "2025-02-01", *resp.NextDueDate)
	policies.AssertExpectations(t)
}

func TestPolicyHandler_Create_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(map[string]interface{})
		serviceErr error
		wantCode   int
		wantError  string
		wantField  string
	}{
		{
			name:      "unknown frequency",
			mutate:    func(b map[string]interface{}) { b["payment_frequency"] = "WEEKLY" },
			wantCode:  http.StatusBadRequest,
			wantError: apierrors.ErrValidation,
			wantField: "PaymentFrequency",
		},
		{
			name:      "malformed start date",
			mutate:    func(b map[string]interface{}) { b["start_date"] = "2025-13-01" },
			wantCode:  http.StatusBadRequest,
			wantError: apierrors.ErrValidation,
			wantField: "start_date",
		},
		{
			name:      "negative premium",
			mutate:    func(b map[string]interface{}) { b["annual_premium"] = "-1" },
			wantCode:  http.StatusBadRequest,
			wantError: apierrors.ErrValidation,
			wantField: "annual_premium",
		},
		{
			name:      "zero fixed installment",
			mutate:    func(b map[string]interface{}) { b["installment_amount"] = "0" },
			wantCode:  http.StatusBadRequest,
			wantError: apierrors.ErrValidation,
			wantField: "installment_amount",
		},
		{
			name:       "end before start",
			mutate:     func(b map[string]interface{}) {},
			serviceErr: services.ErrInvalidDateRange,
			wantCode:   http.StatusBadRequest,
			wantError:  apierrors.ErrValidation,
			wantField:  "end_date",
		},
		{
			name:       "duplicate number",
			mutate:     func(b map[string]interface{}) {},
			serviceErr: services.ErrPolicyNumberTaken,
			wantCode:   http.StatusConflict,
			wantError:  apierrors.ErrConflict,
		},
		{
			name:       "foreign client",
			mutate:     func(b map[string]interface{}) {},
			serviceErr: services.ErrClientNotFound,
			wantCode:   http.StatusNotFound,
			wantError:  apierrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policies := new(MockPolicyService)
			router := setupPolicyRouter(policies, new(MockRenewalService))
			if tt.serviceErr != nil {
				policies.On("Create", mock.Anything, testAgent, mock.Anything).Return(tt.serviceErr)
			}
			body := validPolicyBody()
			tt.mutate(body)

			w := doJSON(t, router, http.MethodPost, "/api/v1/policies", body)

			assert.Equal(t, tt.wantCode, w.Code)
			detail := decodeError(t, w)
			assert.Equal(t, tt.wantError, detail.Code)
			if tt.wantField != "" {
				assert.Contains(t, detail.Details, tt.wantField)
			}
		})
	}
}

func TestPolicyHandler_List_Filters(t *testing.T) {
	policies := new(MockPolicyService)
	router := setupPolicyRouter(policies, new(MockRenewalService))
	insurerID := int64(3)

	want := repository.PolicyFilter{
		InsurerID:    &insurerID,
		Query:        "toyota",
		CoverageType: "Auto",
		Status:       models.PolicyActive,
		Due:          repository.Due30,
	}
	policies.On("List", mock.Anything, testAgent, want, repository.Page{Number: 1, Size: 20}).
		Return([]models.Policy{{ID: 1, EndDate: day(2025, 1, 1), Status: models.PolicyActive}}, 1, nil)

	w := doJSON(t, router, http.MethodGet,
		"/api/v1/policies?q=toyota&insurer_id=3&coverage_type=Auto&status=ACTIVE&due=30&page_size=20", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp ListResponse[PolicyData]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.Total)
	policies.AssertExpectations(t)
}

func TestPolicyHandler_List_RejectsUnknownWindow(t *testing.T) {
	policies := new(MockPolicyService)
	router := setupPolicyRouter(policies, new(MockRenewalService))

	w := doJSON(t, router, http.MethodGet, "/api/v1/policies?due=90", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	policies.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPolicyHandler_Get_NotFound(t *testing.T) {
	policies := new(MockPolicyService)
	router := setupPolicyRouter(policies, new(MockRenewalService))
	policies.On("Get", mock.Anything, testAgent, int64(5)).Return(nil, services.ErrPolicyNotFound)

	w := doJSON(t, router, http.MethodGet, "/api/v1/policies/5", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Policy not found", decodeError(t, w).Message)
}

func TestPolicyHandler_Update(t *testing.T) {
	policies := new(MockPolicyService)
	router := setupPolicyRouter(policies, new(MockRenewalService))

	policies.On("Update", mock.Anything, testAgent, mock.MatchedBy(func(p *models.Policy) bool { return p.ID == 40 })).Return(nil)
	policies.On("Get", mock.Anything, testAgent, int64(40)).Return(policyDetail(40), nil)

	w := doJSON(t, router, http.MethodPut, "/api/v1/policies/40", validPolicyBody())

	assert.Equal(t, http.StatusOK, w.Code)
	policies.AssertExpectations(t)
}

func TestPolicyHandler_RenewedLongNumberStaysEditable(t *testing.T) {
	policies := new(MockPolicyService)
	renewals := new(MockRenewalService)
	router := setupPolicyRouter(policies, renewals)

	original := strings.Repeat("P", 50)
	renewedNumber := services.RenewalNumber(original, 2026, 3)
	renewal := &models.Policy{ID: 41, PolicyNumber: renewedNumber, Status: models.PolicyInProcess}
	detail := policyDetail(41)
	detail.Policy.PolicyNumber = renewedNumber

	renewals.On("Renew", mock.Anything, testAgent, int64(40)).Return(renewal, nil)
	policies.On("Get", mock.Anything, testAgent, int64(41)).Return(detail, nil)
	policies.On("Update", mock.Anything, testAgent, mock.MatchedBy(func(p *models.Policy) bool {
		return p.ID == 41 && p.PolicyNumber == renewedNumber
	})).Return(nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/policies/40/renew", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := validPolicyBody()
	body["policy_number"] = renewedNumber
	w = doJSON(t, router, http.MethodPut, "/api/v1/policies/41", body)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body["policy_number"] = strings.Repeat("P", models.MaxPolicyNumberLength+1)
	w = doJSON(t, router, http.MethodPut, "/api/v1/policies/41", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Details, "PolicyNumber")

	policies.AssertNumberOfCalls(t, "Update", 1)
}

func TestPolicyHandler_Renew(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"renewed", nil, http.StatusCreated},
		{"already renewed", services.ErrPolicyTerminal, http.StatusConflict},
		{"missing policy", services.ErrPolicyNotFound, http.StatusNotFound},
		{"storage failure", fmt.Errorf("failed to create renewal: %w", assert.AnError), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policies := new(MockPolicyService)
			renewals := new(MockRenewalService)
			router := setupPolicyRouter(policies, renewals)

			if tt.err != nil {
				renewals.On("Renew", mock.Anything, testAgent, int64(40)).Return(nil, tt.err)
			} else {
				renewals.On("Renew", mock.Anything, testAgent, int64(40)).Return(&models.Policy{ID: 41}, nil)
				policies.On("Get", mock.Anything, testAgent, int64(41)).Return(policyDetail(41), nil)
			}

			w := doJSON(t, router, http.MethodPost, "/api/v1/policies/40/renew", nil)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestPolicyHandler_CancelRenewal(t *testing.T) {
	t.Run("original restored", func(t *testing.T) {
		renewals := new(MockRenewalService)
		router := setupPolicyRouter(new(MockPolicyService), renewals)
		renewals.On("CancelRenewal", mock.Anything, testAgent, int64(41)).
			Return(&models.Policy{ID: 40, Status: models.PolicyActive, EndDate: day(2026, 12, 31)}, nil)

		w := doJSON(t, router, http.MethodPost, "/api/v1/policies/41/cancel-renewal", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp CancelRenewalResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Restored)
		require.NotNil(t, resp.Original)
		assert.Equal(t, models.PolicyActive, resp.Original.Status)
	})

	t.Run("original gone", func(t *testing.T) {
		renewals := new(MockRenewalService)
		router := setupPolicyRouter(new(MockPolicyService), renewals)
		renewals.On("CancelRenewal", mock.Anything, testAgent, int64(41)).Return(nil, nil)

		w := doJSON(t, router, http.MethodPost, "/api/v1/policies/41/cancel-renewal", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"original":null,"restored":false}`, w.Body.String())
	})

	t.Run("locked", func(t *testing.T) {
		renewals := new(MockRenewalService)
		router := setupPolicyRouter(new(MockPolicyService), renewals)
		renewals.On("CancelRenewal", mock.Anything, testAgent, int64(41)).
			Return(nil, fmt.Errorf("%w: installments already paid", services.ErrRenewalLocked))

		w := doJSON(t, router, http.MethodPost, "/api/v1/policies/41/cancel-renewal", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, decodeError(t, w).Message, "installments already paid")
	})
}

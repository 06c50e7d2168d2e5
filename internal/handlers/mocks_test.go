package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/brokerdesk/api/internal/currency"
	"github.com/stwalsh4118/brokerdesk/api/internal/dashboard"
	apierrors "github.com/stwalsh4118/brokerdesk/api/internal/errors"
	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/middleware"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/report"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
	"github.com/stwalsh4118/brokerdesk/api/internal/services"
)

var testAgent = uuid.MustParse("7d1c0a52-3f7e-4a43-9d3c-5b8f2e6a1c90")

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// setupAgentRouter returns a router with the request middleware and an
// authenticated agent already on the context.
func setupAgentRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.New(logger.EnvTest)))
	router.Use(func(c *gin.Context) {
		c.Set(middleware.AgentIDKey, testAgent)
		c.Next()
	})
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.ErrorDetail {
	t.Helper()
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

// MockClientService is a mock implementation of services.ClientService.
type MockClientService struct {
	mock.Mock
}

func (m *MockClientService) Create(ctx context.Context, agent models.AgentID, c *models.Client) error {
	return m.Called(ctx, agent, c).Error(0)
}

func (m *MockClientService) Get(ctx context.Context, agent models.AgentID, id int64) (*services.ClientDetail, error) {
	args := m.Called(ctx, agent, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ClientDetail), args.Error(1)
}

func (m *MockClientService) List(ctx context.Context, agent models.AgentID, query string, page repository.Page) ([]models.Client, int, error) {
	args := m.Called(ctx, agent, query, page)
	clients, _ := args.Get(0).([]models.Client)
	return clients, args.Int(1), args.Error(2)
}

func (m *MockClientService) Update(ctx context.Context, agent models.AgentID, c *models.Client) error {
	return m.Called(ctx, agent, c).Error(0)
}

func (m *MockClientService) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return m.Called(ctx, agent, id).Error(0)
}

// MockPolicyService is a mock implementation of services.PolicyService.
type MockPolicyService struct {
	mock.Mock
}

func (m *MockPolicyService) Create(ctx context.Context, agent models.AgentID, p *models.Policy) error {
	return m.Called(ctx, agent, p).Error(0)
}

func (m *MockPolicyService) Get(ctx context.Context, agent models.AgentID, id int64) (*services.PolicyDetail, error) {
	args := m.Called(ctx, agent, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PolicyDetail), args.Error(1)
}

func (m *MockPolicyService) List(ctx context.Context, agent models.AgentID, f repository.PolicyFilter, page repository.Page) ([]models.Policy, int, error) {
	args := m.Called(ctx, agent, f, page)
	policies, _ := args.Get(0).([]models.Policy)
	return policies, args.Int(1), args.Error(2)
}

func (m *MockPolicyService) Update(ctx context.Context, agent models.AgentID, p *models.Policy) error {
	return m.Called(ctx, agent, p).Error(0)
}

func (m *MockPolicyService) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return m.Called(ctx, agent, id).Error(0)
}

// MockRenewalService is a mock implementation of services.RenewalService.
type MockRenewalService struct {
	mock.Mock
}

func (m *MockRenewalService) Renew(ctx context.Context, agent models.AgentID, policyID int64) (*models.Policy, error) {
	args := m.Called(ctx, agent, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Policy), args.Error(1)
}

func (m *MockRenewalService) CancelRenewal(ctx context.Context, agent models.AgentID, renewalID int64) (*models.Policy, error) {
	args := m.Called(ctx, agent, renewalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Policy), args.Error(1)
}

// MockInstallmentService is a mock implementation of services.InstallmentService.
type MockInstallmentService struct {
	mock.Mock
}

func (m *MockInstallmentService) ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.Installment, error) {
	args := m.Called(ctx, agent, policyID)
	items, _ := args.Get(0).([]models.Installment)
	return items, args.Error(1)
}

func (m *MockInstallmentService) Pay(ctx context.Context, agent models.AgentID, id int64, paidOn *time.Time) (*models.Installment, error) {
	args := m.Called(ctx, agent, id, paidOn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Installment), args.Error(1)
}

func (m *MockInstallmentService) Revert(ctx context.Context, agent models.AgentID, id int64) (*models.Installment, error) {
	args := m.Called(ctx, agent, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Installment), args.Error(1)
}

// MockClaimService is a mock implementation of services.ClaimService.
type MockClaimService struct {
	mock.Mock
}

func (m *MockClaimService) ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.Claim, error) {
	args := m.Called(ctx, agent, policyID)
	claims, _ := args.Get(0).([]models.Claim)
	return claims, args.Error(1)
}

func (m *MockClaimService) Create(ctx context.Context, agent models.AgentID, c *models.Claim) error {
	return m.Called(ctx, agent, c).Error(0)
}

func (m *MockClaimService) Get(ctx context.Context, agent models.AgentID, id int64) (*models.Claim, error) {
	args := m.Called(ctx, agent, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Claim), args.Error(1)
}

func (m *MockClaimService) Update(ctx context.Context, agent models.AgentID, c *models.Claim) error {
	return m.Called(ctx, agent, c).Error(0)
}

func (m *MockClaimService) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return m.Called(ctx, agent, id).Error(0)
}

// MockDashboardService is a mock implementation of services.DashboardService.
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Get(ctx context.Context, agent models.AgentID) (dashboard.Buckets, error) {
	args := m.Called(ctx, agent)
	return args.Get(0).(dashboard.Buckets), args.Error(1)
}

// MockReportService is a mock implementation of services.ReportService.
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Policies(ctx context.Context, agent models.AgentID, period services.Period) ([]models.Policy, error) {
	args := m.Called(ctx, agent, period)
	policies, _ := args.Get(0).([]models.Policy)
	return policies, args.Error(1)
}

func (m *MockReportService) Summary(ctx context.Context, agent models.AgentID, period services.Period) (report.Summary, error) {
	args := m.Called(ctx, agent, period)
	return args.Get(0).(report.Summary), args.Error(1)
}

// MockDocumentService is a mock implementation of services.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, agent models.AgentID, u services.Upload) (*models.Document, error) {
	args := m.Called(ctx, agent, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentService) ListByOwner(ctx context.Context, agent models.AgentID, owner models.OwnerRef) ([]models.Document, error) {
	args := m.Called(ctx, agent, owner)
	docs, _ := args.Get(0).([]models.Document)
	return docs, args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, agent models.AgentID, id int64) (*models.Document, string, error) {
	args := m.Called(ctx, agent, id)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.Document), args.String(1), args.Error(2)
}

func (m *MockDocumentService) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return m.Called(ctx, agent, id).Error(0)
}

// MockRateProvider is a mock implementation of RateProvider.
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) USD(ctx context.Context) (currency.Rate, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(currency.Rate), args.Bool(1), args.Error(2)
}

// MockInsurerService is a mock implementation of services.InsurerService.
type MockInsurerService struct {
	mock.Mock
}

func (m *MockInsurerService) Create(ctx context.Context, agent models.AgentID, i *models.Insurer) error {
	return m.Called(ctx, agent, i).Error(0)
}

func (m *MockInsurerService) Get(ctx context.Context, agent models.AgentID, id int64) (*models.Insurer, error) {
	args := m.Called(ctx, agent, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Insurer), args.Error(1)
}

func (m *MockInsurerService) List(ctx context.Context, agent models.AgentID, query string, page repository.Page) ([]models.Insurer, int, error) {
	args := m.Called(ctx, agent, query, page)
	insurers, _ := args.Get(0).([]models.Insurer)
	return insurers, args.Int(1), args.Error(2)
}

func (m *MockInsurerService) Update(ctx context.Context, agent models.AgentID, i *models.Insurer) error {
	return m.Called(ctx, agent, i).Error(0)
}

func (m *MockInsurerService) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return m.Called(ctx, agent, id).Error(0)
}

// MockInsuredService is a mock implementation of services.InsuredService.
type MockInsuredService struct {
	mock.Mock
}

func (m *MockInsuredService) ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.InsuredPerson, error) {
	args := m.Called(ctx, agent, policyID)
	people, _ := args.Get(0).([]models.InsuredPerson)
	return people, args.Error(1)
}

func (m *MockInsuredService) Create(ctx context.Context, agent models.AgentID, p *models.InsuredPerson) error {
	return m.Called(ctx, agent, p).Error(0)
}

func (m *MockInsuredService) Update(ctx context.Context, agent models.AgentID, p *models.InsuredPerson) error {
	return m.Called(ctx, agent, p).Error(0)
}

func (m *MockInsuredService) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return m.Called(ctx, agent, id).Error(0)
}

package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
)

var testAgent = uuid.MustParse("0f6a7c84-2b1d-4a8e-9d6f-5b3c2a1e0d9f")

func testLogger() *logger.Logger { return logger.New(logger.EnvTest) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// inlineTx runs fn directly and records how many transactions were opened.
type inlineTx struct {
	calls int
}

func (tx *inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.calls++
	return fn(ctx)
}

// MockClientRepository is a mock implementation of ClientRepository for testing
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, c *models.Client) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Client, error) {
	args := m.Called(ctx, agent, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientRepository) List(ctx context.Context, agent models.AgentID, f repository.ClientFilter, page repository.Page) ([]models.Client, int, error) {
	args := m.Called(ctx, agent, f, page)
	clients, _ := args.Get(0).([]models.Client)
	return clients, args.Int(1), args.Error(2)
}

func (m *MockClientRepository) Update(ctx context.Context, c *models.Client) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return m.Called(ctx, agent, id).Error(0)
}

func (m *MockClientRepository) Count(ctx context.Context, agent models.AgentID) (int, error) {
	args := m.Called(ctx, agent)
	return args.Int(0), args.Error(1)
}

func (m *MockClientRepository) BirthdaysInMonth(ctx context.Context, agent models.AgentID, month time.Month) ([]models.Client, error) {
	args := m.Called(ctx, agent, month)
	clients, _ := args.Get(0).([]models.Client)
	return clients, args.Error(1)
}

// MockInsurerRepository is a mock implementation of InsurerRepository for testing
type MockInsurerRepository struct {
	mock.Mock
}

func (m *MockInsurerRepository) Create(ctx context.Context, i *models.Insurer) error {
	return m.Called(ctx, i).Error(0)
}

func (m *MockInsurerRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Insurer, error) {
	args := m.Called(ctx, agent, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Insurer), args.Error(1)
}

func (m *MockInsurerRepository) List(ctx context.Context, agent models.AgentID, query string, page repository.Page) ([]models.Insurer, int, error) {
	args := m.Called(ctx, agent, query, page)
	insurers, _ := args.Get(0).([]models.Insurer)
	return insurers, args.Int(1), args.Error(2)
}

func (m *MockInsurerRepository) Update(ctx context.Context, i *models.Insurer) error {
	return m.Called(ctx, i).Error(0)
}

func (m *MockInsurerRepository) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return m.Called(ctx, agent, id).Error(0)
}

// MockPolicyRepository is a mock implementation of PolicyRepository for testing
type MockPolicyRepository struct {
	mock.Mock
}

func (m *MockPolicyRepository) Create(ctx context.Context, p *models.Policy) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPolicyRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Policy, error) {
	args := m.Called(ctx, agent, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Policy), args.Error(1)
}

func (m *MockPolicyRepository) List(ctx context.Context, agent models.AgentID, f repository.PolicyFilter, page repository.Page) ([]models.Policy, int, error) {
	args := m.Called(ctx, agent, f, page)
	policies, _ := args.Get(0).([]models.Policy)
	return policies, args.Int(1), args.Error(2)
}

func (m *MockPolicyRepository) Find(ctx context.Context, agent models.AgentID, f repository.PolicyFilter) ([]models.Policy, error) {
	args := m.Called(ctx, agent, f)
	policies, _ := args.Get(0).([]models.Policy)
	return policies, args.Error(1)
}

func (m *MockPolicyRepository) ListByClient(ctx context.Context, agent models.AgentID, clientID int64) ([]models.Policy, error) {
	args := m.Called(ctx, agent, clientID)
	policies, _ := args.Get(0).([]models.Policy)
	return policies, args.Error(1)
}

func (m *MockPolicyRepository) Update(ctx context.Context, p *models.Policy) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPolicyRepository) UpdateStatus(ctx context.Context, agent models.AgentID, id int64, status models.PolicyStatus) error {
	return m.Called(ctx, agent, id, status).Error(0)
}

func (m *MockPolicyRepository) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return m.Called(ctx, agent, id).Error(0)
}

func (m *MockPolicyRepository) NumberExists(ctx context.Context, agent models.AgentID, number string) (bool, error) {
	args := m.Called(ctx, agent, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockPolicyRepository) CountByStatus(ctx context.Context, agent models.AgentID, status models.PolicyStatus) (int, error) {
	args := m.Called(ctx, agent, status)
	return args.Int(0), args.Error(1)
}

// MockInstallmentRepository is a mock implementation of InstallmentRepository for testing
type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) ReplaceForPolicy(ctx context.Context, agent models.AgentID, policyID int64, items []models.Installment) error {
	return m.Called(ctx, agent, policyID, items).Error(0)
}

func (m *MockInstallmentRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Installment, error) {
	args := m.Called(ctx, agent, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.Installment, error) {
	args := m.Called(ctx, agent, policyID)
	items, _ := args.Get(0).([]models.Installment)
	return items, args.Error(1)
}

func (m *MockInstallmentRepository) SetStatus(ctx context.Context, agent models.AgentID, id int64, status models.InstallmentStatus, paidOn *time.Time) (*models.Installment, error) {
	args := m.Called(ctx, agent, id, status, paidOn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) CountPaid(ctx context.Context, agent models.AgentID, policyID int64) (int, error) {
	args := m.Called(ctx, agent, policyID)
	return args.Int(0), args.Error(1)
}

func (m *MockInstallmentRepository) NextPending(ctx context.Context, agent models.AgentID) (map[int64]models.Installment, error) {
	args := m.Called(ctx, agent)
	next, _ := args.Get(0).(map[int64]models.Installment)
	return next, args.Error(1)
}

// MockInsuredRepository is a mock implementation of InsuredRepository for testing
type MockInsuredRepository struct {
	mock.Mock
}

func (m *MockInsuredRepository) Create(ctx context.Context, p *models.InsuredPerson) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockInsuredRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.InsuredPerson, error) {
	args := m.Called(ctx, agent, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InsuredPerson), args.Error(1)
}

func (m *MockInsuredRepository) ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.InsuredPerson, error) {
	args := m.Called(ctx, agent, policyID)
	people, _ := args.Get(0).([]models.InsuredPerson)
	return people, args.Error(1)
}

func (m *MockInsuredRepository) Update(ctx context.Context, p *models.InsuredPerson) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockInsuredRepository) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return m.Called(ctx, agent, id).Error(0)
}

func (m *MockInsuredRepository) CopyToPolicy(ctx context.Context, agent models.AgentID, fromPolicyID, toPolicyID int64) (int, error) {
	args := m.Called(ctx, agent, fromPolicyID, toPolicyID)
	return args.Int(0), args.Error(1)
}

// MockClaimRepository is a mock implementation of ClaimRepository for testing
type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) Create(ctx context.Context, c *models.Claim) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockClaimRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Claim, error) {
	args := m.Called(ctx, agent, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Claim), args.Error(1)
}

func (m *MockClaimRepository) ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.Claim, error) {
	args := m.Called(ctx, agent, policyID)
	claims, _ := args.Get(0).([]models.Claim)
	return claims, args.Error(1)
}

func (m *MockClaimRepository) Update(ctx context.Context, c *models.Claim) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockClaimRepository) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return m.Called(ctx, agent, id).Error(0)
}

func (m *MockClaimRepository) CountByPolicy(ctx context.Context, agent models.AgentID, policyID int64) (int, error) {
	args := m.Called(ctx, agent, policyID)
	return args.Int(0), args.Error(1)
}

// MockDocumentRepository is a mock implementation of DocumentRepository for testing
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, d *models.Document) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Document, error) {
	args := m.Called(ctx, agent, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByOwner(ctx context.Context, agent models.AgentID, owner models.OwnerRef) ([]models.Document, error) {
	args := m.Called(ctx, agent, owner)
	docs, _ := args.Get(0).([]models.Document)
	return docs, args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return m.Called(ctx, agent, id).Error(0)
}

func (m *MockDocumentRepository) CountByOwner(ctx context.Context, agent models.AgentID, owner models.OwnerRef) (int, error) {
	args := m.Called(ctx, agent, owner)
	return args.Int(0), args.Error(1)
}

// MockBlobStore is a mock implementation of storage.BlobStore for testing
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, r, size, contentType).Error(0)
}

func (m *MockBlobStore) PresignedURL(ctx context.Context, key, filename string) (string, error) {
	args := m.Called(ctx, key, filename)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockRepos struct {
	policies     *MockPolicyRepository
	clients      *MockClientRepository
	insurers     *MockInsurerRepository
	installments *MockInstallmentRepository
	insured      *MockInsuredRepository
	claims       *MockClaimRepository
	documents    *MockDocumentRepository
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		policies:     new(MockPolicyRepository),
		clients:      new(MockClientRepository),
		insurers:     new(MockInsurerRepository),
		installments: new(MockInstallmentRepository),
		insured:      new(MockInsuredRepository),
		claims:       new(MockClaimRepository),
		documents:    new(MockDocumentRepository),
	}
}

func (m *mockRepos) bundle() PolicyRepos {
	return PolicyRepos{
		Policies:     m.policies,
		Clients:      m.clients,
		Insurers:     m.insurers,
		Installments: m.installments,
		Insured:      m.insured,
		Claims:       m.claims,
		Documents:    m.documents,
	}
}

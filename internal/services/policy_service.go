package services

import (
	"context"
	"fmt"
	"time"

	"github.com/stwalsh4118/brokerdesk/api/internal/database"
	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
	"github.com/stwalsh4118/brokerdesk/api/internal/schedule"
)

var policyConstraints = map[string]error{
	"policies_agent_number_key": ErrPolicyNumberTaken,
	"policies_term_check":       ErrInvalidDateRange,
}

// PolicyDetail is the policy aggregate with its derived renewal state.
type PolicyDetail struct {
	Policy        *models.Policy
	Installments  []models.Installment
	Insured       []models.InsuredPerson
	Claims        []models.Claim
	Documents     []models.Document
	RenewalStatus models.RenewalStatus
	DaysToEnd     int
	// NextDueDate is the earliest pending installment, nil when none.
	NextDueDate *time.Time
}

// PolicyService defines the policy operations. Saving a policy persists its
// installment schedule in the same transaction.
type PolicyService interface {
	// Create inserts the policy and generates its schedule.
	Create(ctx context.Context, agent models.AgentID, p *models.Policy) error
	Get(ctx context.Context, agent models.AgentID, id int64) (*PolicyDetail, error)
	List(ctx context.Context, agent models.AgentID, f repository.PolicyFilter, page repository.Page) ([]models.Policy, int, error)
	// Update saves the policy and regenerates the schedule when the
	// start date, end date, premium, installment amount or frequency changed.
	Update(ctx context.Context, agent models.AgentID, p *models.Policy) error
	Delete(ctx context.Context, agent models.AgentID, id int64) error
}

type policyService struct {
	tx           database.TxManager
	policies     repository.PolicyRepository
	clients      repository.ClientRepository
	insurers     repository.InsurerRepository
	installments repository.InstallmentRepository
	insured      repository.InsuredRepository
	claims       repository.ClaimRepository
	documents    repository.DocumentRepository
	now          func() time.Time
	log          *logger.Logger
}

// PolicyRepos groups the repositories the policy aggregate spans.
type PolicyRepos struct {
	Policies     repository.PolicyRepository
	Clients      repository.ClientRepository
	Insurers     repository.InsurerRepository
	Installments repository.InstallmentRepository
	Insured      repository.InsuredRepository
	Claims       repository.ClaimRepository
	Documents    repository.DocumentRepository
}

// NewPolicyService creates a new instance of PolicyService.
func NewPolicyService(tx database.TxManager, repos PolicyRepos, log *logger.Logger) PolicyService {
	return &policyService{
		tx:           tx,
		policies:     repos.Policies,
		clients:      repos.Clients,
		insurers:     repos.Insurers,
		installments: repos.Installments,
		insured:      repos.Insured,
		claims:       repos.Claims,
		documents:    repos.Documents,
		now:          time.Now,
		log:          log,
	}
}

func (s *policyService) today() time.Time {
	return models.DateOf(s.now())
}

// validate checks the term and that referenced records belong to the agent.
func (s *policyService) validate(ctx context.Context, agent models.AgentID, p *models.Policy) error {
	if p.EndDate.Before(p.StartDate) {
		return ErrInvalidDateRange
	}

	if _, err := s.clients.GetByID(ctx, agent, p.ClientID); err != nil {
		return translate(err, ErrClientNotFound)
	}
	if p.InsurerID != nil {
		if _, err := s.insurers.GetByID(ctx, agent, *p.InsurerID); err != nil {
			return translate(err, ErrInsurerNotFound)
		}
	}
	return nil
}

// stampCommission keeps the collected date consistent with the flag.
func (s *policyService) stampCommission(p *models.Policy) {
	if !p.CommissionCollected {
		p.CommissionCollectedOn = nil
		return
	}
	if p.CommissionCollectedOn == nil {
		today := s.today()
		p.CommissionCollectedOn = &today
	}
}

func (s *policyService) Create(ctx context.Context, agent models.AgentID, p *models.Policy) error {
	p.AgentID = agent
	p.RenewedFromID = nil
	if p.IssueDate.IsZero() {
		p.IssueDate = s.today()
	}
	if p.Status == "" {
		p.Status = models.PolicyInProcess
	}
	s.stampCommission(p)

	if err := s.validate(ctx, agent, p); err != nil {
		return err
	}

	var count int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.policies.Create(ctx, p); err != nil {
			return constraintError(err, policyConstraints)
		}
		n, err := replaceSchedule(ctx, s.installments, p)
		count = n
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("Policy created", map[string]interface{}{
		"agent_id":     agent.String(),
		"policy_id":    p.ID,
		"installments": count,
	})
	return nil
}

func (s *policyService) Get(ctx context.Context, agent models.AgentID, id int64) (*PolicyDetail, error) {
	policy, err := s.policies.GetByID(ctx, agent, id)
	if err != nil {
		return nil, translate(err, ErrPolicyNotFound)
	}

	installments, err := s.installments.ListByPolicy(ctx, agent, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load installments: %w", err)
	}
	insured, err := s.insured.ListByPolicy(ctx, agent, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load insured persons: %w", err)
	}
	claims, err := s.claims.ListByPolicy(ctx, agent, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load claims: %w", err)
	}
	documents, err := s.documents.ListByOwner(ctx, agent, models.OwnerRef{Kind: models.OwnerPolicy, ID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	today := s.today()
	detail := &PolicyDetail{
		Policy:        policy,
		Installments:  installments,
		Insured:       insured,
		Claims:        claims,
		Documents:     documents,
		RenewalStatus: policy.RenewalStatus(today),
		DaysToEnd:     policy.DaysToEnd(today),
	}
	for _, inst := range installments {
		if inst.Status == models.InstallmentPending {
			due := inst.DueDate
			detail.NextDueDate = &due
			break
		}
	}
	return detail, nil
}

func (s *policyService) List(ctx context.Context, agent models.AgentID, f repository.PolicyFilter, page repository.Page) ([]models.Policy, int, error) {
	if f.Due != "" && f.Today.IsZero() {
		f.Today = s.today()
	}
	return s.policies.List(ctx, agent, f, page)
}

func (s *policyService) Update(ctx context.Context, agent models.AgentID, p *models.Policy) error {
	current, err := s.policies.GetByID(ctx, agent, p.ID)
	if err != nil {
		return translate(err, ErrPolicyNotFound)
	}

	p.AgentID = agent
	p.RenewedFromID = current.RenewedFromID
	if p.IssueDate.IsZero() {
		p.IssueDate = current.IssueDate
	}
	if p.Status == "" {
		p.Status = current.Status
	}
	if p.CommissionCollected && p.CommissionCollectedOn == nil {
		p.CommissionCollectedOn = current.CommissionCollectedOn
	}
	s.stampCommission(p)

	if err := s.validate(ctx, agent, p); err != nil {
		return err
	}

	regenerate := !schedule.TermsOf(current).Equal(schedule.TermsOf(p))
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.policies.Update(ctx, p); err != nil {
			return constraintError(translate(err, ErrPolicyNotFound), policyConstraints)
		}
		if !regenerate {
			return nil
		}
		_, err := replaceSchedule(ctx, s.installments, p)
		return err
	})
	if err != nil {
		return err
	}

	if regenerate {
		s.log.Info("Policy terms changed, schedule regenerated", map[string]interface{}{
			"agent_id":  agent.String(),
			"policy_id": p.ID,
		})
	}
	return nil
}

func (s *policyService) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	if err := s.policies.Delete(ctx, agent, id); err != nil {
		return translate(err, ErrPolicyNotFound)
	}
	s.log.Info("Policy deleted", map[string]interface{}{
		"agent_id":  agent.String(),
		"policy_id": id,
	})
	return nil
}

// replaceSchedule regenerates the policy's installments, dropping every
// existing one first. It returns how many were written.
func replaceSchedule(ctx context.Context, repo repository.InstallmentRepository, p *models.Policy) (int, error) {
	plan := schedule.Generate(schedule.TermsOf(p))

	items := make([]models.Installment, 0, len(plan))
	for _, inst := range plan {
		items = append(items, models.Installment{
			AgentID:  p.AgentID,
			PolicyID: p.ID,
			Number:   inst.Number,
			DueDate:  inst.DueDate,
			Amount:   inst.Amount,
			Status:   models.InstallmentPending,
		})
	}

	if err := repo.ReplaceForPolicy(ctx, p.AgentID, p.ID, items); err != nil {
		return 0, fmt.Errorf("failed to save schedule for policy %d: %w", p.ID, err)
	}
	return len(items), nil
}

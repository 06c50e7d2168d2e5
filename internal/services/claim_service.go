package services

import (
	"context"
	"errors"

	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
)

// ErrReportedBeforeOccurred is returned when a claim is reported before the
// loss happened.
var ErrReportedBeforeOccurred = errors.New("reported date must not be before occurrence date")

// ClaimService manages loss events reported against policies.
type ClaimService interface {
	ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.Claim, error)
	Create(ctx context.Context, agent models.AgentID, c *models.Claim) error
	Get(ctx context.Context, agent models.AgentID, id int64) (*models.Claim, error)
	Update(ctx context.Context, agent models.AgentID, c *models.Claim) error
	Delete(ctx context.Context, agent models.AgentID, id int64) error
}

type claimService struct {
	claims   repository.ClaimRepository
	policies repository.PolicyRepository
	log      *logger.Logger
}

// NewClaimService creates a new instance of ClaimService.
func NewClaimService(claims repository.ClaimRepository, policies repository.PolicyRepository, log *logger.Logger) ClaimService {
	return &claimService{claims: claims, policies: policies, log: log}
}

func checkClaimDates(c *models.Claim) error {
	if c.ReportedOn.Before(c.OccurredOn) {
		return ErrReportedBeforeOccurred
	}
	return nil
}

func (s *claimService) ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.Claim, error) {
	if _, err := s.policies.GetByID(ctx, agent, policyID); err != nil {
		return nil, translate(err, ErrPolicyNotFound)
	}
	return s.claims.ListByPolicy(ctx, agent, policyID)
}

func (s *claimService) Create(ctx context.Context, agent models.AgentID, c *models.Claim) error {
	if err := checkClaimDates(c); err != nil {
		return err
	}
	if _, err := s.policies.GetByID(ctx, agent, c.PolicyID); err != nil {
		return translate(err, ErrPolicyNotFound)
	}

	c.AgentID = agent
	if c.Status == "" {
		c.Status = models.ClaimReported
	}
	if err := s.claims.Create(ctx, c); err != nil {
		return err
	}

	s.log.Info("Claim registered", map[string]interface{}{
		"agent_id":  agent.String(),
		"policy_id": c.PolicyID,
		"claim_id":  c.ID,
	})
	return nil
}

func (s *claimService) Get(ctx context.Context, agent models.AgentID, id int64) (*models.Claim, error) {
	claim, err := s.claims.GetByID(ctx, agent, id)
	if err != nil {
		return nil, translate(err, ErrClaimNotFound)
	}
	return claim, nil
}

func (s *claimService) Update(ctx context.Context, agent models.AgentID, c *models.Claim) error {
	if err := checkClaimDates(c); err != nil {
		return err
	}
	c.AgentID = agent
	if c.Status == "" {
		c.Status = models.ClaimReported
	}
	return translate(s.claims.Update(ctx, c), ErrClaimNotFound)
}

func (s *claimService) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return translate(s.claims.Delete(ctx, agent, id), ErrClaimNotFound)
}

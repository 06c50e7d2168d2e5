package services

import (
	"context"

	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
)

// InsuredService manages the people covered by a policy.
type InsuredService interface {
	ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.InsuredPerson, error)
	Create(ctx context.Context, agent models.AgentID, p *models.InsuredPerson) error
	// Update keeps the person on its current policy.
	Update(ctx context.Context, agent models.AgentID, p *models.InsuredPerson) error
	Delete(ctx context.Context, agent models.AgentID, id int64) error
}

type insuredService struct {
	insured  repository.InsuredRepository
	policies repository.PolicyRepository
	log      *logger.Logger
}

// NewInsuredService creates a new instance of InsuredService.
func NewInsuredService(insured repository.InsuredRepository, policies repository.PolicyRepository, log *logger.Logger) InsuredService {
	return &insuredService{insured: insured, policies: policies, log: log}
}

func (s *insuredService) ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.InsuredPerson, error) {
	if _, err := s.policies.GetByID(ctx, agent, policyID); err != nil {
		return nil, translate(err, ErrPolicyNotFound)
	}
	return s.insured.ListByPolicy(ctx, agent, policyID)
}

func (s *insuredService) Create(ctx context.Context, agent models.AgentID, p *models.InsuredPerson) error {
	if _, err := s.policies.GetByID(ctx, agent, p.PolicyID); err != nil {
		return translate(err, ErrPolicyNotFound)
	}
	p.AgentID = agent
	if p.Relationship == "" {
		p.Relationship = models.RelationshipHolder
	}
	return s.insured.Create(ctx, p)
}

func (s *insuredService) Update(ctx context.Context, agent models.AgentID, p *models.InsuredPerson) error {
	p.AgentID = agent
	if p.Relationship == "" {
		p.Relationship = models.RelationshipHolder
	}
	return translate(s.insured.Update(ctx, p), ErrInsuredNotFound)
}

func (s *insuredService) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return translate(s.insured.Delete(ctx, agent, id), ErrInsuredNotFound)
}

package services

import (
	"context"

	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
)

var insurerConstraints = map[string]error{
	"insurers_agent_name_key":   ErrInsurerNameTaken,
	"insurers_agent_tax_id_key": ErrInsurerTaxIDTaken,
}

// InsurerService defines the insurer registry operations.
type InsurerService interface {
	Create(ctx context.Context, agent models.AgentID, i *models.Insurer) error
	Get(ctx context.Context, agent models.AgentID, id int64) (*models.Insurer, error)
	List(ctx context.Context, agent models.AgentID, query string, page repository.Page) ([]models.Insurer, int, error)
	Update(ctx context.Context, agent models.AgentID, i *models.Insurer) error
	// Delete detaches the insurer from its policies.
	Delete(ctx context.Context, agent models.AgentID, id int64) error
}

type insurerService struct {
	repo repository.InsurerRepository
	log  *logger.Logger
}

// NewInsurerService creates a new instance of InsurerService.
func NewInsurerService(repo repository.InsurerRepository, log *logger.Logger) InsurerService {
	return &insurerService{repo: repo, log: log}
}

func (s *insurerService) Create(ctx context.Context, agent models.AgentID, i *models.Insurer) error {
	i.AgentID = agent
	if err := s.repo.Create(ctx, i); err != nil {
		return constraintError(err, insurerConstraints)
	}
	s.log.Info("Insurer created", map[string]interface{}{
		"agent_id":   agent.String(),
		"insurer_id": i.ID,
	})
	return nil
}

func (s *insurerService) Get(ctx context.Context, agent models.AgentID, id int64) (*models.Insurer, error) {
	insurer, err := s.repo.GetByID(ctx, agent, id)
	if err != nil {
		return nil, translate(err, ErrInsurerNotFound)
	}
	return insurer, nil
}

func (s *insurerService) List(ctx context.Context, agent models.AgentID, query string, page repository.Page) ([]models.Insurer, int, error) {
	return s.repo.List(ctx, agent, query, page)
}

func (s *insurerService) Update(ctx context.Context, agent models.AgentID, i *models.Insurer) error {
	i.AgentID = agent
	if err := s.repo.Update(ctx, i); err != nil {
		return constraintError(translate(err, ErrInsurerNotFound), insurerConstraints)
	}
	return nil
}

func (s *insurerService) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	return translate(s.repo.Delete(ctx, agent, id), ErrInsurerNotFound)
}

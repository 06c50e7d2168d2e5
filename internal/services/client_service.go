package services

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
)

var clientConstraints = map[string]error{
	"clients_agent_document_key": ErrClientDocumentTaken,
}

// ClientDetail is a client with its policies, latest end date first.
type ClientDetail struct {
	Client   *models.Client
	Policies []models.Policy
}

// ClientService defines the client registry operations.
type ClientService interface {
	Create(ctx context.Context, agent models.AgentID, c *models.Client) error
	// Get returns ErrClientNotFound for missing or foreign clients.
	Get(ctx context.Context, agent models.AgentID, id int64) (*ClientDetail, error)
	List(ctx context.Context, agent models.AgentID, query string, page repository.Page) ([]models.Client, int, error)
	Update(ctx context.Context, agent models.AgentID, c *models.Client) error
	// Delete removes the client and, by cascade, its policies.
	Delete(ctx context.Context, agent models.AgentID, id int64) error
}

type clientService struct {
	clients  repository.ClientRepository
	policies repository.PolicyRepository
	log      *logger.Logger
}

// NewClientService creates a new instance of ClientService.
func NewClientService(clients repository.ClientRepository, policies repository.PolicyRepository, log *logger.Logger) ClientService {
	return &clientService{
		clients:  clients,
		policies: policies,
		log:      log,
	}
}

func (s *clientService) Create(ctx context.Context, agent models.AgentID, c *models.Client) error {
	c.AgentID = agent
	if err := s.clients.Create(ctx, c); err != nil {
		return constraintError(err, clientConstraints)
	}

	s.log.Info("Client created", map[string]interface{}{
		"agent_id":  agent.String(),
		"client_id": c.ID,
	})
	return nil
}

func (s *clientService) Get(ctx context.Context, agent models.AgentID, id int64) (*ClientDetail, error) {
	client, err := s.clients.GetByID(ctx, agent, id)
	if err != nil {
		return nil, translate(err, ErrClientNotFound)
	}

	policies, err := s.policies.ListByClient(ctx, agent, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list client policies: %w", err)
	}

	return &ClientDetail{Client: client, Policies: policies}, nil
}

func (s *clientService) List(ctx context.Context, agent models.AgentID, query string, page repository.Page) ([]models.Client, int, error) {
	return s.clients.List(ctx, agent, repository.ClientFilter{Query: query}, page)
}

func (s *clientService) Update(ctx context.Context, agent models.AgentID, c *models.Client) error {
	c.AgentID = agent
	if err := s.clients.Update(ctx, c); err != nil {
		return constraintError(translate(err, ErrClientNotFound), clientConstraints)
	}
	return nil
}

func (s *clientService) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	if err := s.clients.Delete(ctx, agent, id); err != nil {
		return translate(err, ErrClientNotFound)
	}

	s.log.Info("Client deleted", map[string]interface{}{
		"agent_id":  agent.String(),
		"client_id": id,
	})
	return nil
}

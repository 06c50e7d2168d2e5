package services

import (
	"context"
	"fmt"
	"time"

	"github.com/stwalsh4118/brokerdesk/api/internal/dashboard"
	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
)

// DashboardService loads the agent's book and classifies it. It never
// writes.
type DashboardService interface {
	Get(ctx context.Context, agent models.AgentID) (dashboard.Buckets, error)
}

type dashboardService struct {
	policies     repository.PolicyRepository
	installments repository.InstallmentRepository
	clients      repository.ClientRepository
	now          func() time.Time
	log          *logger.Logger
}

// NewDashboardService creates a new instance of DashboardService.
func NewDashboardService(policies repository.PolicyRepository, installments repository.InstallmentRepository, clients repository.ClientRepository, log *logger.Logger) DashboardService {
	return &dashboardService{
		policies:     policies,
		installments: installments,
		clients:      clients,
		now:          time.Now,
		log:          log,
	}
}

func (s *dashboardService) Get(ctx context.Context, agent models.AgentID) (dashboard.Buckets, error) {
	today := models.DateOf(s.now())

	book, err := s.loadBook(ctx, agent, today)
	if err != nil {
		return dashboard.Buckets{}, err
	}

	buckets := dashboard.Classify(book, today)
	s.log.Debug("Dashboard computed", map[string]interface{}{
		"agent_id":         agent.String(),
		"open_policies":    len(book.OpenPolicies),
		"overdue_payments": len(buckets.OverduePayments),
	})
	return buckets, nil
}

func (s *dashboardService) loadBook(ctx context.Context, agent models.AgentID, today time.Time) (dashboard.Book, error) {
	var book dashboard.Book
	var err error

	if book.OpenPolicies, err = s.policies.Find(ctx, agent, repository.PolicyFilter{OpenOnly: true}); err != nil {
		return book, fmt.Errorf("failed to load open policies: %w", err)
	}
	if book.NextPending, err = s.installments.NextPending(ctx, agent); err != nil {
		return book, fmt.Errorf("failed to load pending installments: %w", err)
	}
	if book.CommissionPolicies, err = s.policies.Find(ctx, agent, repository.PolicyFilter{CommissionPending: true}); err != nil {
		return book, fmt.Errorf("failed to load pending commissions: %w", err)
	}
	if book.Birthdays, err = s.clients.BirthdaysInMonth(ctx, agent, today.Month()); err != nil {
		return book, fmt.Errorf("failed to load birthdays: %w", err)
	}
	if book.TotalClients, err = s.clients.Count(ctx, agent); err != nil {
		return book, fmt.Errorf("failed to count clients: %w", err)
	}
	if book.ActivePolicies, err = s.policies.CountByStatus(ctx, agent, models.PolicyActive); err != nil {
		return book, fmt.Errorf("failed to count active policies: %w", err)
	}
	return book, nil
}

package services

import (
	"context"
	"time"

	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
)

// InstallmentService records payments against scheduled installments.
type InstallmentService interface {
	ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.Installment, error)
	// Pay marks the installment PAID on paidOn, or today when nil.
	Pay(ctx context.Context, agent models.AgentID, id int64, paidOn *time.Time) (*models.Installment, error)
	// Revert returns a paid installment to PENDING and clears its paid date.
	Revert(ctx context.Context, agent models.AgentID, id int64) (*models.Installment, error)
}

type installmentService struct {
	installments repository.InstallmentRepository
	policies     repository.PolicyRepository
	now          func() time.Time
	log          *logger.Logger
}

// NewInstallmentService creates a new instance of InstallmentService.
func NewInstallmentService(installments repository.InstallmentRepository, policies repository.PolicyRepository, log *logger.Logger) InstallmentService {
	return &installmentService{
		installments: installments,
		policies:     policies,
		now:          time.Now,
		log:          log,
	}
}

func (s *installmentService) ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.Installment, error) {
	if _, err := s.policies.GetByID(ctx, agent, policyID); err != nil {
		return nil, translate(err, ErrPolicyNotFound)
	}
	return s.installments.ListByPolicy(ctx, agent, policyID)
}

func (s *installmentService) Pay(ctx context.Context, agent models.AgentID, id int64, paidOn *time.Time) (*models.Installment, error) {
	day := models.DateOf(s.now())
	if paidOn != nil {
		day = models.DateOf(*paidOn)
	}

	inst, err := s.installments.SetStatus(ctx, agent, id, models.InstallmentPaid, &day)
	if err != nil {
		return nil, translate(err, ErrInstallmentNotFound)
	}

	s.log.Info("Installment paid", map[string]interface{}{
		"agent_id":       agent.String(),
		"installment_id": id,
		"policy_id":      inst.PolicyID,
		"paid_on":        models.FormatDate(day),
	})
	return inst, nil
}

func (s *installmentService) Revert(ctx context.Context, agent models.AgentID, id int64) (*models.Installment, error) {
	inst, err := s.installments.SetStatus(ctx, agent, id, models.InstallmentPending, nil)
	if err != nil {
		return nil, translate(err, ErrInstallmentNotFound)
	}
	return inst, nil
}

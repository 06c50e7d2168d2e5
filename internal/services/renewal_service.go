package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/stwalsh4118/brokerdesk/api/internal/database"
	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
)

// renewalSuffix matches "-2025" or "-2025-3" at the end of a number.
var renewalSuffix = regexp.MustCompile(`-\d{4}(-\d+)?$`)

// maxNumberAttempts bounds the search for a free renewal number.
const maxNumberAttempts = 1000

// RenewalService creates successor terms and undoes them while they are
// still untouched.
type RenewalService interface {
	// Renew marks the policy RENEWED and creates the next one-year term,
	// copying its insured persons and generating a fresh schedule.
	Renew(ctx context.Context, agent models.AgentID, policyID int64) (*models.Policy, error)
	// CancelRenewal deletes a renewal that has no paid installments, claims
	// or documents and restores the original to ACTIVE. It returns the
	// restored original, or nil if the original no longer exists.
	CancelRenewal(ctx context.Context, agent models.AgentID, renewalID int64) (*models.Policy, error)
}

type renewalService struct {
	tx           database.TxManager
	policies     repository.PolicyRepository
	installments repository.InstallmentRepository
	insured      repository.InsuredRepository
	claims       repository.ClaimRepository
	documents    repository.DocumentRepository
	now          func() time.Time
	log          *logger.Logger
}

// NewRenewalService creates a new instance of RenewalService.
func NewRenewalService(tx database.TxManager, repos PolicyRepos, log *logger.Logger) RenewalService {
	return &renewalService{
		tx:           tx,
		policies:     repos.Policies,
		installments: repos.Installments,
		insured:      repos.Insured,
		claims:       repos.Claims,
		documents:    repos.Documents,
		now:          time.Now,
		log:          log,
	}
}

func (s *renewalService) Renew(ctx context.Context, agent models.AgentID, policyID int64) (*models.Policy, error) {
	original, err := s.policies.GetByID(ctx, agent, policyID)
	if err != nil {
		return nil, translate(err, ErrPolicyNotFound)
	}
	if original.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: policy %s is %s", ErrPolicyTerminal, original.PolicyNumber, original.Status)
	}

	renewal := successorOf(original, models.DateOf(s.now()))
	var copied int

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		number, err := s.nextNumber(ctx, agent, baseNumber(original), renewal.StartDate.Year())
		if err != nil {
			return err
		}
		renewal.PolicyNumber = number

		if err := s.policies.UpdateStatus(ctx, agent, original.ID, models.PolicyRenewed); err != nil {
			return translate(err, ErrPolicyNotFound)
		}
		if err := s.policies.Create(ctx, renewal); err != nil {
			return constraintError(err, policyConstraints)
		}
		if copied, err = s.insured.CopyToPolicy(ctx, agent, original.ID, renewal.ID); err != nil {
			return fmt.Errorf("failed to copy insured persons: %w", err)
		}
		_, err = replaceSchedule(ctx, s.installments, renewal)
		return err
	})
	if err != nil {
		s.log.Error("Policy renewal failed", err, map[string]interface{}{
			"agent_id":  agent.String(),
			"policy_id": policyID,
		})
		return nil, err
	}

	s.log.Info("Policy renewed", map[string]interface{}{
		"agent_id":       agent.String(),
		"policy_id":      original.ID,
		"renewal_id":     renewal.ID,
		"renewal_number": renewal.PolicyNumber,
		"insured_copied": copied,
	})

	created, err := s.policies.GetByID(ctx, agent, renewal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload renewal: %w", err)
	}
	return created, nil
}

// successorOf builds the next term: it starts when the original ends and
// lasts one year. Commission tracking restarts.
func successorOf(p *models.Policy, today time.Time) *models.Policy {
	originalID := p.ID
	return &models.Policy{
		AgentID:           p.AgentID,
		ClientID:          p.ClientID,
		InsurerID:         p.InsurerID,
		CoverageType:      p.CoverageType,
		InsuredItem:       p.InsuredItem,
		IssueDate:         today,
		StartDate:         p.EndDate,
		EndDate:           models.AddMonths(p.EndDate, 12),
		AnnualPremium:     p.AnnualPremium,
		PaymentFrequency:  p.PaymentFrequency,
		InstallmentAmount: p.InstallmentAmount,
		CommissionAmount:  p.CommissionAmount,
		Status:            models.PolicyInProcess,
		RenewedFromID:     &originalID,
	}
}

// baseNumber strips the renewal suffix from a policy that is itself a
// renewal, so chains read "<base>-2026", "<base>-2027" rather than growing.
func baseNumber(p *models.Policy) string {
	if p.RenewedFromID == nil {
		return p.PolicyNumber
	}
	if base := renewalSuffix.ReplaceAllString(p.PolicyNumber, ""); base != "" {
		return base
	}
	return p.PolicyNumber
}

// RenewalNumber returns the candidate number for a renewal starting in
// year. attempt 1 is "<base>-<year>", later attempts append "-<attempt>".
// The base is shortened so the result never exceeds
// models.MaxPolicyNumberLength and the renewal stays editable.
func RenewalNumber(base string, year, attempt int) string {
	suffix := fmt.Sprintf("-%d", year)
	if attempt > 1 {
		suffix = fmt.Sprintf("-%d-%d", year, attempt)
	}
	room := models.MaxPolicyNumberLength - utf8.RuneCountInString(suffix)
	if runes := []rune(base); len(runes) > room {
		base = string(runes[:room])
	}
	return base + suffix
}

func (s *renewalService) nextNumber(ctx context.Context, agent models.AgentID, base string, year int) (string, error) {
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		candidate := RenewalNumber(base, year, attempt)
		taken, err := s.policies.NumberExists(ctx, agent, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free renewal number for %s", ErrPolicyNumberTaken, base)
}

func (s *renewalService) CancelRenewal(ctx context.Context, agent models.AgentID, renewalID int64) (*models.Policy, error) {
	renewal, err := s.policies.GetByID(ctx, agent, renewalID)
	if err != nil {
		return nil, translate(err, ErrPolicyNotFound)
	}
	if err := s.checkCancellable(ctx, agent, renewal); err != nil {
		s.log.Warn("Renewal cancellation refused", map[string]interface{}{
			"agent_id":   agent.String(),
			"renewal_id": renewalID,
			"reason":     err.Error(),
		})
		return nil, err
	}

	originalID := *renewal.RenewedFromID
	restored := true
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.policies.Delete(ctx, agent, renewal.ID); err != nil {
			return translate(err, ErrPolicyNotFound)
		}
		err := s.policies.UpdateStatus(ctx, agent, originalID, models.PolicyActive)
		if errors.Is(err, repository.ErrNotFound) {
			restored = false
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Renewal cancelled", map[string]interface{}{
		"agent_id":    agent.String(),
		"renewal_id":  renewalID,
		"original_id": originalID,
		"restored":    restored,
	})
	if !restored {
		return nil, nil
	}

	original, err := s.policies.GetByID(ctx, agent, originalID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload original policy: %w", err)
	}
	return original, nil
}

// checkCancellable returns ErrRenewalLocked with the reason when the
// renewal has been acted on.
func (s *renewalService) checkCancellable(ctx context.Context, agent models.AgentID, p *models.Policy) error {
	if p.RenewedFromID == nil {
		return fmt.Errorf("%w: policy %s is not a renewal", ErrRenewalLocked, p.PolicyNumber)
	}
	if p.Status != models.PolicyInProcess {
		return fmt.Errorf("%w: status is %s", ErrRenewalLocked, p.Status)
	}

	paid, err := s.installments.CountPaid(ctx, agent, p.ID)
	if err != nil {
		return err
	}
	if paid > 0 {
		return fmt.Errorf("%w: %d installments already paid", ErrRenewalLocked, paid)
	}

	claims, err := s.claims.CountByPolicy(ctx, agent, p.ID)
	if err != nil {
		return err
	}
	if claims > 0 {
		return fmt.Errorf("%w: %d claims registered", ErrRenewalLocked, claims)
	}

	docs, err := s.documents.CountByOwner(ctx, agent, models.OwnerRef{Kind: models.OwnerPolicy, ID: p.ID})
	if err != nil {
		return err
	}
	if docs > 0 {
		return fmt.Errorf("%w: %d documents attached", ErrRenewalLocked, docs)
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/report"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
)

// Period bounds a report by issue date. Nil ends are open.
type Period struct {
	From *time.Time
	To   *time.Time
}

// ReportService feeds the portfolio summary and the CSV export.
type ReportService interface {
	// Policies returns the policies issued in the period, ordered by client
	// name then end date.
	Policies(ctx context.Context, agent models.AgentID, period Period) ([]models.Policy, error)
	Summary(ctx context.Context, agent models.AgentID, period Period) (report.Summary, error)
}

type reportService struct {
	policies repository.PolicyRepository
	log      *logger.Logger
}

// NewReportService creates a new instance of ReportService.
func NewReportService(policies repository.PolicyRepository, log *logger.Logger) ReportService {
	return &reportService{policies: policies, log: log}
}

func (s *reportService) Policies(ctx context.Context, agent models.AgentID, period Period) ([]models.Policy, error) {
	if period.From != nil && period.To != nil && period.To.Before(*period.From) {
		return nil, ErrInvalidDateRange
	}
	policies, err := s.policies.Find(ctx, agent, repository.PolicyFilter{
		IssuedFrom: period.From,
		IssuedTo:   period.To,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load policies for report: %w", err)
	}
	return policies, nil
}

func (s *reportService) Summary(ctx context.Context, agent models.AgentID, period Period) (report.Summary, error) {
	selected, err := s.Policies(ctx, agent, period)
	if err != nil {
		return report.Summary{}, err
	}

	book := selected
	if period.From != nil || period.To != nil {
		if book, err = s.policies.Find(ctx, agent, repository.PolicyFilter{}); err != nil {
			return report.Summary{}, fmt.Errorf("failed to load book: %w", err)
		}
	}

	return report.Summarize(selected, book), nil
}

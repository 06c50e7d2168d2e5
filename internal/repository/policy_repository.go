package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/brokerdesk/api/internal/database"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
)

// DueWindow selects policies by how close their end date is. The windows
// match the dashboard buckets.
type DueWindow string

const (
	DueExpired DueWindow = "expired"
	Due30      DueWindow = "30"
	Due60      DueWindow = "60"
)

// Valid reports whether w is empty or a known window.
func (w DueWindow) Valid() bool {
	switch w {
	case "", DueExpired, Due30, Due60:
		return true
	}
	return false
}

// PolicyFilter narrows a policy listing. Zero fields do not filter.
type PolicyFilter struct {
	IssuedFrom   *time.Time
	IssuedTo     *time.Time
	InsurerID    *int64
	ClientID     *int64
	Query        string
	CoverageType string
	Status       models.PolicyStatus
	Due          DueWindow
	// Today anchors Due. Required when Due is set.
	Today time.Time
	// OpenOnly excludes CANCELLED and RENEWED policies.
	OpenOnly bool
	// CommissionPending keeps policies with an uncollected positive commission.
	CommissionPending bool
}

// PolicyRepository defines data access for policies. Reads join the client
// summary and insurer name.
type PolicyRepository interface {
	Create(ctx context.Context, p *models.Policy) error
	GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Policy, error)
	// List returns one page ordered by end date.
	List(ctx context.Context, agent models.AgentID, f PolicyFilter, page Page) ([]models.Policy, int, error)
	// Find returns every match ordered by client name then end date.
	Find(ctx context.Context, agent models.AgentID, f PolicyFilter) ([]models.Policy, error)
	// ListByClient returns the client's policies, latest end date first.
	ListByClient(ctx context.Context, agent models.AgentID, clientID int64) ([]models.Policy, error)
	Update(ctx context.Context, p *models.Policy) error
	UpdateStatus(ctx context.Context, agent models.AgentID, id int64, status models.PolicyStatus) error
	Delete(ctx context.Context, agent models.AgentID, id int64) error
	NumberExists(ctx context.Context, agent models.AgentID, number string) (bool, error)
	CountByStatus(ctx context.Context, agent models.AgentID, status models.PolicyStatus) (int, error)
}

type policyRepository struct {
	db *database.Database
}

// NewPolicyRepository creates a new instance of PolicyRepository.
func NewPolicyRepository(db *database.Database) PolicyRepository {
	return &policyRepository{db: db}
}

const policySelect = `
	SELECT
		p.id,
		p.agent_id,
		p.client_id,
		p.insurer_id,
		p.policy_number,
		p.coverage_type,
		p.insured_item,
		p.issue_date,
		p.start_date,
		p.end_date,
		p.annual_premium,
		p.payment_frequency,
		p.installment_amount,
		p.commission_amount,
		p.commission_collected,
		p.commission_collected_on,
		p.status,
		p.notes,
		p.renewed_from_id,
		p.created_at,
		p.updated_at,
		c.full_name,
		c.document_type,
		c.document_number,
		c.email,
		c.primary_phone,
		i.name
	FROM policies p
	JOIN clients c ON c.id = p.client_id AND c.agent_id = p.agent_id
	LEFT JOIN insurers i ON i.id = p.insurer_id AND i.agent_id = p.agent_id
`

func scanPolicy(row pgx.Row) (*models.Policy, error) {
	var p models.Policy
	var c models.ClientSummary
	err := row.Scan(
		&p.ID,
		&p.AgentID,
		&p.ClientID,
		&p.InsurerID,
		&p.PolicyNumber,
		&p.CoverageType,
		&p.InsuredItem,
		&p.IssueDate,
		&p.StartDate,
		&p.EndDate,
		&p.AnnualPremium,
		&p.PaymentFrequency,
		&p.InstallmentAmount,
		&p.CommissionAmount,
		&p.CommissionCollected,
		&p.CommissionCollectedOn,
		&p.Status,
		&p.Notes,
		&p.RenewedFromID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&c.FullName,
		&c.DocumentType,
		&c.DocumentNumber,
		&c.Email,
		&c.Phone,
		&p.InsurerName,
	)
	if err != nil {
		return nil, err
	}
	c.ID = p.ClientID
	p.Client = &c
	return &p, nil
}

func (r *policyRepository) collect(ctx context.Context, query string, args ...any) ([]models.Policy, error) {
	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	policies := []models.Policy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy row: %w", err)
		}
		policies = append(policies, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policy rows: %w", err)
	}
	return policies, nil
}

var activeStatuses = []string{string(models.PolicyActive), string(models.PolicyPendingPayment)}
var lapsableStatuses = []string{string(models.PolicyActive), string(models.PolicyPendingPayment), string(models.PolicyExpired)}

func (f PolicyFilter) conditions(agent models.AgentID) where {
	var w where
	w.add("p.agent_id = ?", agent)

	if f.Query != "" {
		pattern := likePattern(f.Query)
		w.add("(p.policy_number ILIKE ? OR c.full_name ILIKE ? OR i.name ILIKE ? OR p.insured_item ILIKE ?)",
			pattern, pattern, pattern, pattern)
	}
	if f.InsurerID != nil {
		w.add("p.insurer_id = ?", *f.InsurerID)
	}
	if f.ClientID != nil {
		w.add("p.client_id = ?", *f.ClientID)
	}
	if f.CoverageType != "" {
		w.add("p.coverage_type ILIKE ?", likePattern(f.CoverageType))
	}
	if f.Status != "" {
		w.add("p.status = ?", string(f.Status))
	}
	if f.IssuedFrom != nil {
		w.add("p.issue_date >= ?", *f.IssuedFrom)
	}
	if f.IssuedTo != nil {
		w.add("p.issue_date <= ?", *f.IssuedTo)
	}
	if f.OpenOnly {
		w.add("p.status NOT IN (?, ?)", string(models.PolicyCancelled), string(models.PolicyRenewed))
	}
	if f.CommissionPending {
		w.add("p.commission_collected = FALSE AND p.commission_amount > 0")
	}

	today := models.DateOf(f.Today)
	switch f.Due {
	case DueExpired:
		w.add("p.status = ANY(?) AND p.end_date < ?", lapsableStatuses, today)
	case Due30:
		w.add("p.status = ANY(?) AND p.end_date >= ? AND p.end_date <= ?",
			activeStatuses, today, today.AddDate(0, 0, 30))
	case Due60:
		w.add("p.status = ANY(?) AND p.end_date > ? AND p.end_date <= ?",
			activeStatuses, today.AddDate(0, 0, 30), today.AddDate(0, 0, 60))
	}
	return w
}

func (r *policyRepository) Create(ctx context.Context, p *models.Policy) error {
	query := `
		INSERT INTO policies (
			agent_id, client_id, insurer_id, policy_number, coverage_type,
			insured_item, issue_date, start_date, end_date, annual_premium,
			payment_frequency, installment_amount, commission_amount,
			commission_collected, commission_collected_on, status, notes,
			renewed_from_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		p.AgentID,
		p.ClientID,
		p.InsurerID,
		p.PolicyNumber,
		p.CoverageType,
		p.InsuredItem,
		p.IssueDate,
		p.StartDate,
		p.EndDate,
		p.AnnualPremium,
		string(p.PaymentFrequency),
		p.InstallmentAmount,
		p.CommissionAmount,
		p.CommissionCollected,
		p.CommissionCollectedOn,
		string(p.Status),
		p.Notes,
		p.RenewedFromID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapWriteError("insert policy", err)
	}
	return nil
}

func (r *policyRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Policy, error) {
	p, err := scanPolicy(r.db.Querier(ctx).QueryRow(ctx, policySelect+` WHERE p.agent_id = $1 AND p.id = $2`, agent, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query policy %d: %w", id, err)
	}
	return p, nil
}

func (r *policyRepository) List(ctx context.Context, agent models.AgentID, f PolicyFilter, page Page) ([]models.Policy, int, error) {
	w := f.conditions(agent)

	countQuery := `
		SELECT COUNT(*)
		FROM policies p
		JOIN clients c ON c.id = p.client_id AND c.agent_id = p.agent_id
		LEFT JOIN insurers i ON i.id = p.insurer_id AND i.agent_id = p.agent_id
	` + w.sql()

	var total int
	if err := r.db.Querier(ctx).QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count policies: %w", err)
	}

	query := policySelect + w.sql() +
		` ORDER BY p.end_date, p.id LIMIT ` + w.next(page.limit()) + ` OFFSET ` + w.next(page.offset())

	policies, err := r.collect(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	return policies, total, nil
}

func (r *policyRepository) Find(ctx context.Context, agent models.AgentID, f PolicyFilter) ([]models.Policy, error) {
	w := f.conditions(agent)
	return r.collect(ctx, policySelect+w.sql()+` ORDER BY c.full_name, p.end_date, p.id`, w.args...)
}

func (r *policyRepository) ListByClient(ctx context.Context, agent models.AgentID, clientID int64) ([]models.Policy, error) {
	return r.collect(ctx, policySelect+` WHERE p.agent_id = $1 AND p.client_id = $2 ORDER BY p.end_date DESC, p.id DESC`, agent, clientID)
}

func (r *policyRepository) Update(ctx context.Context, p *models.Policy) error {
	query := `
		UPDATE policies SET
			client_id = $3,
			insurer_id = $4,
			policy_number = $5,
			coverage_type = $6,
			insured_item = $7,
			issue_date = $8,
			start_date = $9,
			end_date = $10,
			annual_premium = $11,
			payment_frequency = $12,
			installment_amount = $13,
			commission_amount = $14,
			commission_collected = $15,
			commission_collected_on = $16,
			status = $17,
			notes = $18,
			updated_at = NOW()
		WHERE agent_id = $1 AND id = $2
		RETURNING created_at, updated_at
	`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		p.AgentID,
		p.ID,
		p.ClientID,
		p.InsurerID,
		p.PolicyNumber,
		p.CoverageType,
		p.InsuredItem,
		p.IssueDate,
		p.StartDate,
		p.EndDate,
		p.AnnualPremium,
		string(p.PaymentFrequency),
		p.InstallmentAmount,
		p.CommissionAmount,
		p.CommissionCollected,
		p.CommissionCollectedOn,
		string(p.Status),
		p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapWriteError("update policy", err)
	}
	return nil
}

func (r *policyRepository) UpdateStatus(ctx context.Context, agent models.AgentID, id int64, status models.PolicyStatus) error {
	tag, err := r.db.Querier(ctx).Exec(ctx,
		`UPDATE policies SET status = $3, updated_at = NOW() WHERE agent_id = $1 AND id = $2`,
		agent, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update status of policy %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *policyRepository) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	tag, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM policies WHERE agent_id = $1 AND id = $2`, agent, id)
	if err != nil {
		return fmt.Errorf("failed to delete policy %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *policyRepository) NumberExists(ctx context.Context, agent models.AgentID, number string) (bool, error) {
	var exists bool
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM policies WHERE agent_id = $1 AND policy_number = $2)`,
		agent, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check policy number %q: %w", number, err)
	}
	return exists, nil
}

func (r *policyRepository) CountByStatus(ctx context.Context, agent models.AgentID, status models.PolicyStatus) (int, error) {
	var n int
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM policies WHERE agent_id = $1 AND status = $2`,
		agent, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s policies: %w", status, err)
	}
	return n, nil
}

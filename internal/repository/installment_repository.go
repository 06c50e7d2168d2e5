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

// InstallmentRepository defines data access for policy installments.
type InstallmentRepository interface {
	// ReplaceForPolicy deletes every installment of the policy, paid or not,
	// and inserts the given ones. Call it inside a transaction.
	ReplaceForPolicy(ctx context.Context, agent models.AgentID, policyID int64, items []models.Installment) error
	GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Installment, error)
	// ListByPolicy returns installments ordered by due date.
	ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.Installment, error)
	// SetStatus updates status and paid date and returns the updated row.
	SetStatus(ctx context.Context, agent models.AgentID, id int64, status models.InstallmentStatus, paidOn *time.Time) (*models.Installment, error)
	CountPaid(ctx context.Context, agent models.AgentID, policyID int64) (int, error)
	// NextPending returns the earliest pending installment of every policy
	// that is not CANCELLED or RENEWED, keyed by policy id.
	NextPending(ctx context.Context, agent models.AgentID) (map[int64]models.Installment, error)
}

type installmentRepository struct {
	db *database.Database
}

// NewInstallmentRepository creates a new instance of InstallmentRepository.
func NewInstallmentRepository(db *database.Database) InstallmentRepository {
	return &installmentRepository{db: db}
}

const installmentColumns = `id, agent_id, policy_id, number, due_date, amount, status, paid_on, notes`

func scanInstallment(row pgx.Row) (*models.Installment, error) {
	var in models.Installment
	err := row.Scan(
		&in.ID,
		&in.AgentID,
		&in.PolicyID,
		&in.Number,
		&in.DueDate,
		&in.Amount,
		&in.Status,
		&in.PaidOn,
		&in.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *installmentRepository) ReplaceForPolicy(ctx context.Context, agent models.AgentID, policyID int64, items []models.Installment) error {
	q := r.db.Querier(ctx)

	if _, err := q.Exec(ctx, `DELETE FROM installments WHERE agent_id = $1 AND policy_id = $2`, agent, policyID); err != nil {
		return fmt.Errorf("failed to delete installments of policy %d: %w", policyID, err)
	}
	if len(items) == 0 {
		return nil
	}

	insert := `
		INSERT INTO installments (agent_id, policy_id, number, due_date, amount, status, paid_on, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	batch := &pgx.Batch{}
	for _, in := range items {
		status := in.Status
		if status == "" {
			status = models.InstallmentPending
		}
		batch.Queue(insert, agent, policyID, in.Number, in.DueDate, in.Amount, string(status), in.PaidOn, in.Notes)
	}

	// One round trip for the whole schedule.
	results := q.SendBatch(ctx, batch)
	for _, in := range items {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to insert installment %d of policy %d: %w", in.Number, policyID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to insert installments of policy %d: %w", policyID, err)
	}
	return nil
}

func (r *installmentRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Installment, error) {
	in, err := scanInstallment(r.db.Querier(ctx).QueryRow(ctx,
		`SELECT `+installmentColumns+` FROM installments WHERE agent_id = $1 AND id = $2`, agent, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query installment %d: %w", id, err)
	}
	return in, nil
}

func (r *installmentRepository) ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.Installment, error) {
	rows, err := r.db.Querier(ctx).Query(ctx,
		`SELECT `+installmentColumns+` FROM installments WHERE agent_id = $1 AND policy_id = $2 ORDER BY due_date, number`,
		agent, policyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments of policy %d: %w", policyID, err)
	}
	defer rows.Close()

	items := []models.Installment{}
	for rows.Next() {
		in, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment row: %w", err)
		}
		items = append(items, *in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating installment rows: %w", err)
	}
	return items, nil
}

func (r *installmentRepository) SetStatus(ctx context.Context, agent models.AgentID, id int64, status models.InstallmentStatus, paidOn *time.Time) (*models.Installment, error) {
	query := `
		UPDATE installments SET status = $3, paid_on = $4
		WHERE agent_id = $1 AND id = $2
		RETURNING ` + installmentColumns

	in, err := scanInstallment(r.db.Querier(ctx).QueryRow(ctx, query, agent, id, string(status), paidOn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update installment %d: %w", id, err)
	}
	return in, nil
}

func (r *installmentRepository) CountPaid(ctx context.Context, agent models.AgentID, policyID int64) (int, error) {
	var n int
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM installments WHERE agent_id = $1 AND policy_id = $2 AND status = $3`,
		agent, policyID, string(models.InstallmentPaid)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count paid installments of policy %d: %w", policyID, err)
	}
	return n, nil
}

func (r *installmentRepository) NextPending(ctx context.Context, agent models.AgentID) (map[int64]models.Installment, error) {
	query := `
		SELECT DISTINCT ON (i.policy_id)
			i.id, i.agent_id, i.policy_id, i.number, i.due_date, i.amount, i.status, i.paid_on, i.notes
		FROM installments i
		JOIN policies p ON p.id = i.policy_id AND p.agent_id = i.agent_id
		WHERE i.agent_id = $1
			AND i.status = $2
			AND p.status NOT IN ($3, $4)
		ORDER BY i.policy_id, i.due_date, i.number
	`

	rows, err := r.db.Querier(ctx).Query(ctx, query, agent,
		string(models.InstallmentPending), string(models.PolicyCancelled), string(models.PolicyRenewed))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending installments: %w", err)
	}
	defer rows.Close()

	next := make(map[int64]models.Installment)
	for rows.Next() {
		in, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment row: %w", err)
		}
		next[in.PolicyID] = *in
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating installment rows: %w", err)
	}
	return next, nil
}

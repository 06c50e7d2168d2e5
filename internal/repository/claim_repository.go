package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/brokerdesk/api/internal/database"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
)

// ClaimRepository defines data access for claims.
type ClaimRepository interface {
	Create(ctx context.Context, c *models.Claim) error
	GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Claim, error)
	// ListByPolicy returns claims, most recent occurrence first.
	ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.Claim, error)
	Update(ctx context.Context, c *models.Claim) error
	Delete(ctx context.Context, agent models.AgentID, id int64) error
	CountByPolicy(ctx context.Context, agent models.AgentID, policyID int64) (int, error)
}

type claimRepository struct {
	db *database.Database
}

// NewClaimRepository creates a new instance of ClaimRepository.
func NewClaimRepository(db *database.Database) ClaimRepository {
	return &claimRepository{db: db}
}

const claimColumns = `
	id, agent_id, policy_id, occurred_on, reported_on, status, description,
	claimed_amount, indemnified_amount, created_at`

func scanClaim(row pgx.Row) (*models.Claim, error) {
	var c models.Claim
	err := row.Scan(
		&c.ID,
		&c.AgentID,
		&c.PolicyID,
		&c.OccurredOn,
		&c.ReportedOn,
		&c.Status,
		&c.Description,
		&c.ClaimedAmount,
		&c.IndemnifiedAmount,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *claimRepository) Create(ctx context.Context, c *models.Claim) error {
	query := `
		INSERT INTO claims (
			agent_id, policy_id, occurred_on, reported_on, status, description,
			claimed_amount, indemnified_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		c.AgentID,
		c.PolicyID,
		c.OccurredOn,
		c.ReportedOn,
		string(c.Status),
		c.Description,
		c.ClaimedAmount,
		c.IndemnifiedAmount,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return mapWriteError("insert claim", err)
	}
	return nil
}

func (r *claimRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Claim, error) {
	c, err := scanClaim(r.db.Querier(ctx).QueryRow(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE agent_id = $1 AND id = $2`, agent, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query claim %d: %w", id, err)
	}
	return c, nil
}

func (r *claimRepository) ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.Claim, error) {
	rows, err := r.db.Querier(ctx).Query(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE agent_id = $1 AND policy_id = $2 ORDER BY occurred_on DESC, id DESC`,
		agent, policyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims of policy %d: %w", policyID, err)
	}
	defer rows.Close()

	claims := []models.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim row: %w", err)
		}
		claims = append(claims, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating claim rows: %w", err)
	}
	return claims, nil
}

func (r *claimRepository) Update(ctx context.Context, c *models.Claim) error {
	query := `
		UPDATE claims SET
			occurred_on = $3,
			reported_on = $4,
			status = $5,
			description = $6,
			claimed_amount = $7,
			indemnified_amount = $8
		WHERE agent_id = $1 AND id = $2
		RETURNING policy_id, created_at
	`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		c.AgentID,
		c.ID,
		c.OccurredOn,
		c.ReportedOn,
		string(c.Status),
		c.Description,
		c.ClaimedAmount,
		c.IndemnifiedAmount,
	).Scan(&c.PolicyID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapWriteError("update claim", err)
	}
	return nil
}

func (r *claimRepository) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	tag, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM claims WHERE agent_id = $1 AND id = $2`, agent, id)
	if err != nil {
		return fmt.Errorf("failed to delete claim %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *claimRepository) CountByPolicy(ctx context.Context, agent models.AgentID, policyID int64) (int, error) {
	var n int
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM claims WHERE agent_id = $1 AND policy_id = $2`, agent, policyID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count claims of policy %d: %w", policyID, err)
	}
	return n, nil
}

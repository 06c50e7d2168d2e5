package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/brokerdesk/api/internal/database"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
)

// InsuredRepository defines data access for the people covered by a policy.
type InsuredRepository interface {
	Create(ctx context.Context, p *models.InsuredPerson) error
	GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.InsuredPerson, error)
	ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.InsuredPerson, error)
	Update(ctx context.Context, p *models.InsuredPerson) error
	Delete(ctx context.Context, agent models.AgentID, id int64) error
	// CopyToPolicy inserts a fresh copy of every insured person of one
	// policy into another and returns how many were copied.
	CopyToPolicy(ctx context.Context, agent models.AgentID, fromPolicyID, toPolicyID int64) (int, error)
}

type insuredRepository struct {
	db *database.Database
}

// NewInsuredRepository creates a new instance of InsuredRepository.
func NewInsuredRepository(db *database.Database) InsuredRepository {
	return &insuredRepository{db: db}
}

const insuredColumns = `
	id, agent_id, policy_id, full_name, document_type, document_number,
	birth_date, email, phone, relationship`

func scanInsured(row pgx.Row) (*models.InsuredPerson, error) {
	var p models.InsuredPerson
	err := row.Scan(
		&p.ID,
		&p.AgentID,
		&p.PolicyID,
		&p.FullName,
		&p.DocumentType,
		&p.DocumentNumber,
		&p.BirthDate,
		&p.Email,
		&p.Phone,
		&p.Relationship,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *insuredRepository) Create(ctx context.Context, p *models.InsuredPerson) error {
	query := `
		INSERT INTO insured_persons (
			agent_id, policy_id, full_name, document_type, document_number,
			birth_date, email, phone, relationship
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		p.AgentID,
		p.PolicyID,
		p.FullName,
		p.DocumentType,
		p.DocumentNumber,
		p.BirthDate,
		p.Email,
		p.Phone,
		string(p.Relationship),
	).Scan(&p.ID)
	if err != nil {
		return mapWriteError("insert insured person", err)
	}
	return nil
}

func (r *insuredRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.InsuredPerson, error) {
	p, err := scanInsured(r.db.Querier(ctx).QueryRow(ctx,
		`SELECT `+insuredColumns+` FROM insured_persons WHERE agent_id = $1 AND id = $2`, agent, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query insured person %d: %w", id, err)
	}
	return p, nil
}

func (r *insuredRepository) ListByPolicy(ctx context.Context, agent models.AgentID, policyID int64) ([]models.InsuredPerson, error) {
	rows, err := r.db.Querier(ctx).Query(ctx,
		`SELECT `+insuredColumns+` FROM insured_persons WHERE agent_id = $1 AND policy_id = $2 ORDER BY id`,
		agent, policyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list insured persons of policy %d: %w", policyID, err)
	}
	defer rows.Close()

	people := []models.InsuredPerson{}
	for rows.Next() {
		p, err := scanInsured(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insured person row: %w", err)
		}
		people = append(people, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating insured person rows: %w", err)
	}
	return people, nil
}

func (r *insuredRepository) Update(ctx context.Context, p *models.InsuredPerson) error {
	query := `
		UPDATE insured_persons SET
			full_name = $3,
			document_type = $4,
			document_number = $5,
			birth_date = $6,
			email = $7,
			phone = $8,
			relationship = $9
		WHERE agent_id = $1 AND id = $2
		RETURNING policy_id
	`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		p.AgentID,
		p.ID,
		p.FullName,
		p.DocumentType,
		p.DocumentNumber,
		p.BirthDate,
		p.Email,
		p.Phone,
		string(p.Relationship),
	).Scan(&p.PolicyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapWriteError("update insured person", err)
	}
	return nil
}

func (r *insuredRepository) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	tag, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM insured_persons WHERE agent_id = $1 AND id = $2`, agent, id)
	if err != nil {
		return fmt.Errorf("failed to delete insured person %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *insuredRepository) CopyToPolicy(ctx context.Context, agent models.AgentID, fromPolicyID, toPolicyID int64) (int, error) {
	query := `
		INSERT INTO insured_persons (
			agent_id, policy_id, full_name, document_type, document_number,
			birth_date, email, phone, relationship
		)
		SELECT agent_id, $3, full_name, document_type, document_number,
			birth_date, email, phone, relationship
		FROM insured_persons
		WHERE agent_id = $1 AND policy_id = $2
		ORDER BY id
	`

	tag, err := r.db.Querier(ctx).Exec(ctx, query, agent, fromPolicyID, toPolicyID)
	if err != nil {
		return 0, fmt.Errorf("failed to copy insured persons from policy %d to %d: %w", fromPolicyID, toPolicyID, err)
	}
	return int(tag.RowsAffected()), nil
}

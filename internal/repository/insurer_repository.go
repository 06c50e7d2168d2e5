package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/brokerdesk/api/internal/database"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
)

// InsurerRepository defines data access for insurers.
type InsurerRepository interface {
	Create(ctx context.Context, i *models.Insurer) error
	GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Insurer, error)
	// List matches query against name and tax id.
	List(ctx context.Context, agent models.AgentID, query string, page Page) ([]models.Insurer, int, error)
	Update(ctx context.Context, i *models.Insurer) error
	Delete(ctx context.Context, agent models.AgentID, id int64) error
}

type insurerRepository struct {
	db *database.Database
}

// NewInsurerRepository creates a new instance of InsurerRepository.
func NewInsurerRepository(db *database.Database) InsurerRepository {
	return &insurerRepository{db: db}
}

const insurerColumns = `
	id, agent_id, name, tax_id, contact_name, contact_email, contact_phone,
	created_at, updated_at`

func scanInsurer(row pgx.Row) (*models.Insurer, error) {
	var i models.Insurer
	err := row.Scan(
		&i.ID,
		&i.AgentID,
		&i.Name,
		&i.TaxID,
		&i.ContactName,
		&i.ContactEmail,
		&i.ContactPhone,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *insurerRepository) Create(ctx context.Context, i *models.Insurer) error {
	query := `
		INSERT INTO insurers (agent_id, name, tax_id, contact_name, contact_email, contact_phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		i.AgentID, i.Name, i.TaxID, i.ContactName, i.ContactEmail, i.ContactPhone,
	).Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return mapWriteError("insert insurer", err)
	}
	return nil
}

func (r *insurerRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Insurer, error) {
	query := `SELECT ` + insurerColumns + ` FROM insurers WHERE agent_id = $1 AND id = $2`

	i, err := scanInsurer(r.db.Querier(ctx).QueryRow(ctx, query, agent, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query insurer %d: %w", id, err)
	}
	return i, nil
}

func (r *insurerRepository) List(ctx context.Context, agent models.AgentID, query string, page Page) ([]models.Insurer, int, error) {
	var w where
	w.add("agent_id = ?", agent)
	if query != "" {
		pattern := likePattern(query)
		w.add("(name ILIKE ? OR tax_id ILIKE ?)", pattern, pattern)
	}

	var total int
	if err := r.db.Querier(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM insurers `+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count insurers: %w", err)
	}

	sql := `SELECT ` + insurerColumns + ` FROM insurers ` + w.sql() +
		` ORDER BY name, id LIMIT ` + w.next(page.limit()) + ` OFFSET ` + w.next(page.offset())

	rows, err := r.db.Querier(ctx).Query(ctx, sql, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list insurers: %w", err)
	}
	defer rows.Close()

	insurers := []models.Insurer{}
	for rows.Next() {
		i, err := scanInsurer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan insurer row: %w", err)
		}
		insurers = append(insurers, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating insurer rows: %w", err)
	}
	return insurers, total, nil
}

func (r *insurerRepository) Update(ctx context.Context, i *models.Insurer) error {
	query := `
		UPDATE insurers SET
			name = $3,
			tax_id = $4,
			contact_name = $5,
			contact_email = $6,
			contact_phone = $7,
			updated_at = NOW()
		WHERE agent_id = $1 AND id = $2
		RETURNING created_at, updated_at
	`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		i.AgentID, i.ID, i.Name, i.TaxID, i.ContactName, i.ContactEmail, i.ContactPhone,
	).Scan(&i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapWriteError("update insurer", err)
	}
	return nil
}

func (r *insurerRepository) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	tag, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM insurers WHERE agent_id = $1 AND id = $2`, agent, id)
	if err != nil {
		return fmt.Errorf("failed to delete insurer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

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

// ClientFilter narrows a client listing.
type ClientFilter struct {
	// Query matches full name or document number, case-insensitive.
	Query string
}

// ClientRepository defines data access for clients.
type ClientRepository interface {
	Create(ctx context.Context, c *models.Client) error
	// GetByID returns ErrNotFound when the client does not exist for the agent.
	GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Client, error)
	List(ctx context.Context, agent models.AgentID, f ClientFilter, page Page) ([]models.Client, int, error)
	Update(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, agent models.AgentID, id int64) error
	Count(ctx context.Context, agent models.AgentID) (int, error)
	// BirthdaysInMonth returns clients born in the month, ordered by day.
	BirthdaysInMonth(ctx context.Context, agent models.AgentID, month time.Month) ([]models.Client, error)
}

type clientRepository struct {
	db *database.Database
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(db *database.Database) ClientRepository {
	return &clientRepository{db: db}
}

const clientColumns = `
	id, agent_id, full_name, document_type, document_number, birth_date,
	email, primary_phone, secondary_phone, address, city, occupation, notes,
	created_at, updated_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	err := row.Scan(
		&c.ID,
		&c.AgentID,
		&c.FullName,
		&c.DocumentType,
		&c.DocumentNumber,
		&c.BirthDate,
		&c.Email,
		&c.PrimaryPhone,
		&c.SecondaryPhone,
		&c.Address,
		&c.City,
		&c.Occupation,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectClients(rows pgx.Rows) ([]models.Client, error) {
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client row: %w", err)
		}
		clients = append(clients, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating client rows: %w", err)
	}
	return clients, nil
}

func (r *clientRepository) Create(ctx context.Context, c *models.Client) error {
	query := `
		INSERT INTO clients (
			agent_id, full_name, document_type, document_number, birth_date,
			email, primary_phone, secondary_phone, address, city, occupation, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		c.AgentID,
		c.FullName,
		c.DocumentType,
		c.DocumentNumber,
		c.BirthDate,
		c.Email,
		c.PrimaryPhone,
		c.SecondaryPhone,
		c.Address,
		c.City,
		c.Occupation,
		c.Notes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return mapWriteError("insert client", err)
	}
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE agent_id = $1 AND id = $2`

	c, err := scanClient(r.db.Querier(ctx).QueryRow(ctx, query, agent, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query client %d: %w", id, err)
	}
	return c, nil
}

func (r *clientRepository) List(ctx context.Context, agent models.AgentID, f ClientFilter, page Page) ([]models.Client, int, error) {
	var w where
	w.add("agent_id = ?", agent)
	if f.Query != "" {
		pattern := likePattern(f.Query)
		w.add("(full_name ILIKE ? OR document_number ILIKE ?)", pattern, pattern)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM clients ` + w.sql()
	if err := r.db.Querier(ctx).QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

	query := `SELECT ` + clientColumns + ` FROM clients ` + w.sql() +
		` ORDER BY full_name, id LIMIT ` + w.next(page.limit()) + ` OFFSET ` + w.next(page.offset())

	rows, err := r.db.Querier(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	clients, err := collectClients(rows)
	if err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

func (r *clientRepository) Update(ctx context.Context, c *models.Client) error {
	query := `
		UPDATE clients SET
			full_name = $3,
			document_type = $4,
			document_number = $5,
			birth_date = $6,
			email = $7,
			primary_phone = $8,
			secondary_phone = $9,
			address = $10,
			city = $11,
			occupation = $12,
			notes = $13,
			updated_at = NOW()
		WHERE agent_id = $1 AND id = $2
		RETURNING created_at, updated_at
	`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		c.AgentID,
		c.ID,
		c.FullName,
		c.DocumentType,
		c.DocumentNumber,
		c.BirthDate,
		c.Email,
		c.PrimaryPhone,
		c.SecondaryPhone,
		c.Address,
		c.City,
		c.Occupation,
		c.Notes,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapWriteError("update client", err)
	}
	return nil
}

func (r *clientRepository) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	tag, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM clients WHERE agent_id = $1 AND id = $2`, agent, id)
	if err != nil {
		return fmt.Errorf("failed to delete client %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clientRepository) Count(ctx context.Context, agent models.AgentID) (int, error) {
	var n int
	if err := r.db.Querier(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE agent_id = $1`, agent).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count clients: %w", err)
	}
	return n, nil
}

func (r *clientRepository) BirthdaysInMonth(ctx context.Context, agent models.AgentID, month time.Month) ([]models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients
		WHERE agent_id = $1 AND birth_date IS NOT NULL AND EXTRACT(MONTH FROM birth_date) = $2
		ORDER BY EXTRACT(DAY FROM birth_date), full_name`

	rows, err := r.db.Querier(ctx).Query(ctx, query, agent, int(month))
	if err != nil {
		return nil, fmt.Errorf("failed to query birthdays: %w", err)
	}
	return collectClients(rows)
}

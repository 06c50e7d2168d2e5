package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/brokerdesk/api/internal/database"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
)

// DocumentRepository defines data access for document metadata. The file
// contents live in object storage under ObjectKey.
type DocumentRepository interface {
	Create(ctx context.Context, d *models.Document) error
	GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Document, error)
	// ListByOwner returns the owner's documents, newest first.
	ListByOwner(ctx context.Context, agent models.AgentID, owner models.OwnerRef) ([]models.Document, error)
	Delete(ctx context.Context, agent models.AgentID, id int64) error
	CountByOwner(ctx context.Context, agent models.AgentID, owner models.OwnerRef) (int, error)
}

type documentRepository struct {
	db *database.Database
}

// NewDocumentRepository creates a new instance of DocumentRepository.
func NewDocumentRepository(db *database.Database) DocumentRepository {
	return &documentRepository{db: db}
}

const documentColumns = `
	id, agent_id, title, owner_kind, owner_id, object_key, content_type,
	size_bytes, uploaded_at`

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(
		&d.ID,
		&d.AgentID,
		&d.Title,
		&d.Owner.Kind,
		&d.Owner.ID,
		&d.ObjectKey,
		&d.ContentType,
		&d.SizeBytes,
		&d.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *documentRepository) Create(ctx context.Context, d *models.Document) error {
	query := `
		INSERT INTO documents (agent_id, title, owner_kind, owner_id, object_key, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at
	`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		d.AgentID,
		d.Title,
		string(d.Owner.Kind),
		d.Owner.ID,
		d.ObjectKey,
		d.ContentType,
		d.SizeBytes,
	).Scan(&d.ID, &d.UploadedAt)
	if err != nil {
		return mapWriteError("insert document", err)
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, agent models.AgentID, id int64) (*models.Document, error) {
	d, err := scanDocument(r.db.Querier(ctx).QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE agent_id = $1 AND id = $2`, agent, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query document %d: %w", id, err)
	}
	return d, nil
}

func (r *documentRepository) ListByOwner(ctx context.Context, agent models.AgentID, owner models.OwnerRef) ([]models.Document, error) {
	rows, err := r.db.Querier(ctx).Query(ctx,
		`SELECT `+documentColumns+` FROM documents
		WHERE agent_id = $1 AND owner_kind = $2 AND owner_id = $3
		ORDER BY uploaded_at DESC, id DESC`,
		agent, string(owner.Kind), owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents of %s: %w", owner, err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	return docs, nil
}

func (r *documentRepository) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	tag, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM documents WHERE agent_id = $1 AND id = $2`, agent, id)
	if err != nil {
		return fmt.Errorf("failed to delete document %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *documentRepository) CountByOwner(ctx context.Context, agent models.AgentID, owner models.OwnerRef) (int, error) {
	var n int
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE agent_id = $1 AND owner_kind = $2 AND owner_id = $3`,
		agent, string(owner.Kind), owner.ID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents of %s: %w", owner, err)
	}
	return n, nil
}

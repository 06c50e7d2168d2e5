package services

import (
	"context"
	"fmt"
	"io"

	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
	"github.com/stwalsh4118/brokerdesk/api/internal/storage"
)

// Upload is one file received for an owner.
type Upload struct {
	Owner       models.OwnerRef
	Title       string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DocumentService stores attachments in the blob store and indexes them
// in the database.
type DocumentService interface {
	Upload(ctx context.Context, agent models.AgentID, u Upload) (*models.Document, error)
	// ListByOwner returns the owner's documents after checking the owner
	// belongs to the agent.
	ListByOwner(ctx context.Context, agent models.AgentID, owner models.OwnerRef) ([]models.Document, error)
	// Get returns the document and a temporary download URL.
	Get(ctx context.Context, agent models.AgentID, id int64) (*models.Document, string, error)
	Delete(ctx context.Context, agent models.AgentID, id int64) error
}

type documentService struct {
	documents repository.DocumentRepository
	clients   repository.ClientRepository
	policies  repository.PolicyRepository
	claims    repository.ClaimRepository
	blobs     storage.BlobStore
	log       *logger.Logger
}

// NewDocumentService creates a new instance of DocumentService.
func NewDocumentService(blobs storage.BlobStore, repos PolicyRepos, log *logger.Logger) DocumentService {
	return &documentService{
		documents: repos.Documents,
		clients:   repos.Clients,
		policies:  repos.Policies,
		claims:    repos.Claims,
		blobs:     blobs,
		log:       log,
	}
}

// checkOwner resolves the tagged reference against the table for its kind.
func (s *documentService) checkOwner(ctx context.Context, agent models.AgentID, owner models.OwnerRef) error {
	var err error
	switch owner.Kind {
	case models.OwnerClient:
		_, err = s.clients.GetByID(ctx, agent, owner.ID)
		return translate(err, ErrClientNotFound)
	case models.OwnerPolicy:
		_, err = s.policies.GetByID(ctx, agent, owner.ID)
		return translate(err, ErrPolicyNotFound)
	case models.OwnerClaim:
		_, err = s.claims.GetByID(ctx, agent, owner.ID)
		return translate(err, ErrClaimNotFound)
	default:
		return fmt.Errorf("unknown document owner kind %q", owner.Kind)
	}
}

func (s *documentService) Upload(ctx context.Context, agent models.AgentID, u Upload) (*models.Document, error) {
	if u.Size <= 0 {
		return nil, ErrEmptyUpload
	}
	if err := s.checkOwner(ctx, agent, u.Owner); err != nil {
		return nil, err
	}

	title := u.Title
	if title == "" {
		title = u.Filename
	}
	contentType := u.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc := &models.Document{
		AgentID:     agent,
		Owner:       u.Owner,
		Title:       title,
		ObjectKey:   storage.ObjectKey(agent, u.Owner, u.Filename),
		ContentType: contentType,
		SizeBytes:   u.Size,
	}

	if err := s.blobs.Put(ctx, doc.ObjectKey, u.Body, u.Size, contentType); err != nil {
		return nil, err
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		if rmErr := s.blobs.Remove(ctx, doc.ObjectKey); rmErr != nil {
			s.log.Error("Failed to remove orphaned object", rmErr, map[string]interface{}{
				"object_key": doc.ObjectKey,
			})
		}
		return nil, err
	}

	s.log.Info("Document uploaded", map[string]interface{}{
		"agent_id":    agent.String(),
		"document_id": doc.ID,
		"owner":       doc.Owner.String(),
		"size_bytes":  doc.SizeBytes,
	})
	return doc, nil
}

func (s *documentService) ListByOwner(ctx context.Context, agent models.AgentID, owner models.OwnerRef) ([]models.Document, error) {
	if err := s.checkOwner(ctx, agent, owner); err != nil {
		return nil, err
	}
	return s.documents.ListByOwner(ctx, agent, owner)
}

func (s *documentService) Get(ctx context.Context, agent models.AgentID, id int64) (*models.Document, string, error) {
	doc, err := s.documents.GetByID(ctx, agent, id)
	if err != nil {
		return nil, "", translate(err, ErrDocumentNotFound)
	}

	link, err := s.blobs.PresignedURL(ctx, doc.ObjectKey, storage.FilenameFromKey(doc.ObjectKey))
	if err != nil {
		return nil, "", err
	}
	return doc, link, nil
}

// Delete removes the row first; a leftover object is logged, not returned.
func (s *documentService) Delete(ctx context.Context, agent models.AgentID, id int64) error {
	doc, err := s.documents.GetByID(ctx, agent, id)
	if err != nil {
		return translate(err, ErrDocumentNotFound)
	}
	if err := s.documents.Delete(ctx, agent, id); err != nil {
		return translate(err, ErrDocumentNotFound)
	}

	if err := s.blobs.Remove(ctx, doc.ObjectKey); err != nil {
		s.log.Warn("Document object not removed", map[string]interface{}{
			"document_id": id,
			"object_key":  doc.ObjectKey,
			"error":       err.Error(),
		})
	}
	return nil
}

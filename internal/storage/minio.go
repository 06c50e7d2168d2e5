// Package storage keeps document contents in MinIO object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stwalsh4118/brokerdesk/api/internal/config"
	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
)

// BlobStore stores and serves document contents by object key.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// PresignedURL returns a temporary download link that names the file.
	PresignedURL(ctx context.Context, key, filename string) (string, error)
	Remove(ctx context.Context, key string) error
}

// MinioStore is a BlobStore backed by one MinIO bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
	log    *logger.Logger
}

// NewMinioStore connects to MinIO and makes sure the bucket exists.
func NewMinioStore(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (*MinioStore, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	s := &MinioStore{client: client, bucket: cfg.Bucket, ttl: cfg.PresignedTTL, log: log}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	log.Info("Object storage ready", map[string]interface{}{
		"endpoint": endpoint,
		"bucket":   cfg.Bucket,
	})
	return s, nil
}

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.log.Info("Created bucket", map[string]interface{}{"bucket": s.bucket})
	return nil
}

// Ping checks that the bucket is reachable.
func (s *MinioStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("object storage unreachable: %w", err)
	}
	return nil
}

func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) PresignedURL(ctx context.Context, key, filename string) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.ttl, params)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), nil
}

func (s *MinioStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// ObjectKey builds a unique key that groups objects by agent and owner:
// <agent>/<kind>/<owner id>/<uuid>-<sanitized filename>.
func ObjectKey(agent models.AgentID, owner models.OwnerRef, filename string) string {
	return path.Join(
		agent.String(),
		string(owner.Kind),
		fmt.Sprint(owner.ID),
		uuid.NewString()+"-"+SanitizeFilename(filename),
	)
}

// SanitizeFilename keeps letters, digits, dots, dashes and underscores of
// the base name and replaces everything else with underscores.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}

	clean := strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)

	if len(clean) > 100 {
		clean = clean[len(clean)-100:]
	}
	return clean
}

// FilenameFromKey recovers the sanitized filename stored in an object key.
func FilenameFromKey(key string) string {
	name := path.Base(key)
	if len(name) > 37 && name[36] == '-' {
		return name[37:]
	}
	return name
}

package minio

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid request")
)

// ContentTypeCSV is the content type for CSV export objects.
const ContentTypeCSV = "text/csv"

// ExportStore persists export files and issues presigned download URLs.
type ExportStore interface {
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)
	Exists(ctx context.Context, objectKey string) (bool, error)
	Delete(ctx context.Context, objectKey string) error
	PresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

// UploadRequest carries one export object.
type UploadRequest struct {
	ObjectKey   string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// UploadResult describes the stored object.
type UploadResult struct {
	Bucket     string
	ObjectKey  string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

type exportStore struct {
	client *Client
	logger logging.Logger
}

func NewExportStore(client *Client, log logging.Logger) ExportStore {
	return &exportStore{client: client, logger: log}
}

// ExportObjectKey builds the object key for an export, grouped by kind and
// entity so lifecycle rules and manual browsing stay sane.
func ExportObjectKey(kind, entityID string, generatedAt time.Time) string {
	return fmt.Sprintf("exports/%s/%s/%s.csv", kind, entityID, generatedAt.UTC().Format("20060102T150405Z"))
}

func (s *exportStore) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if s.client.isClosed() {
		return nil, ErrClientClosed
	}
	if req.ObjectKey == "" || len(req.Data) == 0 {
		return nil, ErrInvalidRequest
	}
	if req.ContentType == "" {
		req.ContentType = ContentTypeCSV
	}

	bucket := s.client.ExportsBucket()
	info, err := s.client.API().PutObject(ctx, bucket, req.ObjectKey,
		bytes.NewReader(req.Data), int64(len(req.Data)),
		minio.PutObjectOptions{
			ContentType:  req.ContentType,
			UserMetadata: req.Metadata,
		})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "upload failed")
	}

	s.logger.Debug("Export object stored",
		logging.String("object_key", req.ObjectKey),
		logging.Int64("size", info.Size))

	return &UploadResult{
		Bucket:     bucket,
		ObjectKey:  info.Key,
		ETag:       info.ETag,
		Size:       info.Size,
		UploadedAt: time.Now().UTC(),
	}, nil
}

func (s *exportStore) Exists(ctx context.Context, objectKey string) (bool, error) {
	if s.client.isClosed() {
		return false, ErrClientClosed
	}
	_, err := s.client.API().StatObject(ctx, s.client.ExportsBucket(), objectKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeInternal, "stat failed")
	}
	return true, nil
}

func (s *exportStore) Delete(ctx context.Context, objectKey string) error {
	if s.client.isClosed() {
		return ErrClientClosed
	}
	return s.client.API().RemoveObject(ctx, s.client.ExportsBucket(), objectKey, minio.RemoveObjectOptions{})
}

func (s *exportStore) PresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if s.client.isClosed() {
		return "", ErrClientClosed
	}
	if expiry == 0 {
		expiry = s.client.config.PresignExpiry
	}
	u, err := s.client.API().PresignedGetObject(ctx, s.client.ExportsBucket(), objectKey, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExportFailed, "presign failed")
	}
	return u.String(), nil
}

package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pactguard/pactguard/internal/domain/document"
	"github.com/pactguard/pactguard/internal/domain/report"
)

// Store reads documents from a MinIO / S3 bucket; the object key is the
// opaque file id handed to /analyze-drive-file.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", bucket)
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

func (s *Store) Name() string { return "minio" }

// Fetch implementasi document.Source
func (s *Store) Fetch(ctx context.Context, fileID string) (*document.Document, error) {
	info, err := s.client.StatObject(ctx, s.bucketName, fileID, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("object %s: %w", fileID, document.ErrNotFound)
		}
		return nil, fmt.Errorf("stat object: %v: %w", err, document.ErrSourceUnavailable)
	}
	name := path.Base(fileID)
	if err := document.ValidateUpload(name, info.Size); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, fileID, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %v: %w", err, document.ErrSourceUnavailable)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, document.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read object: %v: %w", err, document.ErrSourceUnavailable)
	}
	if len(data) > document.MaxUploadBytes {
		return nil, report.NewValidationError("file", "File size exceeds 10MB limit")
	}
	return &document.Document{
		ID:       fileID,
		Name:     name,
		MimeType: info.ContentType,
		Data:     data,
	}, nil
}

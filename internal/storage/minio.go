package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"pdfpages/internal/config"
)

// Mirror copies uploaded documents to an off-box location for durability.
// It is strictly outside the render path: a failed mirror never fails an
// upload and rendered pages are never mirrored.
type Mirror interface {
	// Mirror uploads the document bytes under the given key.
	Mirror(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// minioMirror implements Mirror against an S3-compatible backend (MinIO, AWS S3, etc.).
// It is safe for concurrent use by multiple goroutines.
type minioMirror struct {
	client *minio.Client
	bucket string
}

// NewMinIOMirror creates a new S3-compatible mirror backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIOMirror(cfg config.MinIOConfig) (Mirror, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &minioMirror{client: cli, bucket: cfg.Bucket}, nil
}

// Mirror uploads the document using streaming I/O only.
func (m *minioMirror) Mirror(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("mirror %s: %w", key, err)
	}
	return nil
}

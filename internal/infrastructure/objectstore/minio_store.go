package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// bucketAPI is the part of the minio client used to provision the bucket.
type bucketAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

// MinioStore keeps intake recordings in an S3-compatible bucket.
type MinioStore struct {
	client  *minio.Client
	buckets bucketAPI
	bucket  string
	region  string

	bucketMu    sync.Mutex
	bucketReady bool
}

var _ ports.RecordingStore = (*MinioStore)(nil)

func NewMinioStore(cfg Config) (*MinioStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("recordings endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, errors.New("recordings access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("recordings bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errs.Wrap(err, "init minio client")
	}
	return &MinioStore{client: client, buckets: client, bucket: bucket, region: region}, nil
}

// ensureBucket creates the bucket on first upload. A failed check is retried
// on the next upload.
func (s *MinioStore) ensureBucket(ctx context.Context) error {
	s.bucketMu.Lock()
	defer s.bucketMu.Unlock()
	if s.bucketReady {
		return nil
	}

	exists, err := s.buckets.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		err := s.buckets.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
		if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
			return err
		}
	}
	s.bucketReady = true
	return nil
}

// SaveRecording uploads audio under key and returns the object URL.
func (s *MinioStore) SaveRecording(ctx context.Context, key string, audio []byte, contentType string) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("recording key is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", errs.Wrap(err, "ensure recordings bucket")
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(audio), int64(len(audio)), minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", errs.Wrapf(err, "put recording %q", key)
	}
	return ObjectURL(s.client.EndpointURL().String(), s.bucket, key), nil
}

func ObjectURL(endpoint string, bucket string, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(endpoint, "/"), bucket, strings.TrimLeft(key, "/"))
}

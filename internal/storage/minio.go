package storage

import (
	"context"
	"io"

	"github.com/linskybing/gigdesk/pkg/logger"
	minioSDK "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// ObjectStore persists attachment bytes and returns the reference stored in
// the message log.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type MinioStore struct {
	client *minioSDK.Client
	bucket string
}

// NewMinioStore connects to MinIO and creates the bucket if it does not exist.
func NewMinioStore(ctx context.Context, opts MinioOptions) (*MinioStore, error) {
	client, err := minioSDK.New(opts.Endpoint, &minioSDK.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to minio")
	}

	log := logger.WithComponent("storage.minio").WithField("bucket", opts.Bucket)
	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "check bucket %s", opts.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minioSDK.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "create bucket %s", opts.Bucket)
		}
		log.Info("bucket created")
	} else {
		log.Debug("bucket already exists")
	}

	return &MinioStore{client: client, bucket: opts.Bucket}, nil
}

// PutObject uploads the object and returns "<bucket>/<key>".
func (s *MinioStore) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minioSDK.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", errors.Wrapf(err, "upload %s", key)
	}
	return s.bucket + "/" + key, nil
}

package slot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nanogen/studio/config"
)

// minioAPI is the subset of *minio.Client used by Minio.
type minioAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	OpenObject(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

type minioClient struct {
	*minio.Client
}

// OpenObject defers errors such as a missing key to the first read.
func (c minioClient) OpenObject(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	return c.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
}

// Minio stores each key as an object in one bucket.
type Minio struct {
	client minioAPI
	bucket string
}

// NewMinio constructs a MinIO-backed slot and ensures its bucket exists.
func NewMinio(ctx context.Context, cfg config.MinioConfig) (*Minio, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("minio access key and secret key are required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("minio bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return newMinio(ctx, minioClient{client}, cfg.Bucket)
}

func newMinio(ctx context.Context, client minioAPI, bucket string) (*Minio, error) {
	m := &Minio{client: client, bucket: bucket}
	if err := m.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Minio) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
}

func (m *Minio) Load(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.OpenObject(ctx, m.bucket, objectKey(key))
	if err != nil {
		return nil, mapMinioError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapMinioError(err)
	}
	return data, nil
}

func (m *Minio) Save(ctx context.Context, key string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectKey(key), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return mapMinioError(err)
	}
	return nil
}

func mapMinioError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey":
		return ErrNotFound
	case "EntityTooLarge":
		return errors.Join(ErrQuotaExceeded, err)
	default:
		return err
	}
}

func objectKey(key string) string {
	return "slots/" + key + ".json"
}

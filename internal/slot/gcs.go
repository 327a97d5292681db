package slot

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/nanogen/studio/config"
	"google.golang.org/api/option"
)

// gcsObjects reads and writes objects of one bucket.
type gcsObjects interface {
	NewReader(ctx context.Context, object string) (io.ReadCloser, error)
	NewWriter(ctx context.Context, object, contentType string) io.WriteCloser
}

type bucketObjects struct {
	bucket *storage.BucketHandle
}

func (b bucketObjects) NewReader(ctx context.Context, object string) (io.ReadCloser, error) {
	return b.bucket.Object(object).NewReader(ctx)
}

func (b bucketObjects) NewWriter(ctx context.Context, object, contentType string) io.WriteCloser {
	w := b.bucket.Object(object).NewWriter(ctx)
	w.ContentType = contentType
	return w
}

// GCS stores each key as an object in a Cloud Storage bucket.
type GCS struct {
	client    *storage.Client
	objects   gcsObjects
	bucket    string
	projectID string
}

// NewGCS constructs a GCS-backed slot and ensures its bucket exists.
func NewGCS(ctx context.Context, cfg config.GCSConfig) (*GCS, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	g := newGCS(bucketObjects{bucket: client.Bucket(cfg.Bucket)}, cfg.Bucket)
	g.client = client
	g.projectID = cfg.ProjectID
	if err := g.ensureBucket(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return g, nil
}

func newGCS(objects gcsObjects, bucket string) *GCS {
	return &GCS{objects: objects, bucket: bucket}
}

func (g *GCS) ensureBucket(ctx context.Context) error {
	_, err := g.client.Bucket(g.bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("gcs project id is required to create bucket")
	}
	return g.client.Bucket(g.bucket).Create(ctx, g.projectID, nil)
}

func (g *GCS) Load(ctx context.Context, key string) ([]byte, error) {
	reader, err := g.objects.NewReader(ctx, objectKey(key))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func (g *GCS) Save(ctx context.Context, key string, data []byte) error {
	writer := g.objects.NewWriter(ctx, objectKey(key), "application/json")
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func (g *GCS) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

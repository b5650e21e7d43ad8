// Package minio provides a MinIO implementation of artifact.Store.
package minio

import (
	"bytes"
	"context"
	"io"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/schemasmith/schemasmith/internal/artifact"
	"github.com/schemasmith/schemasmith/internal/errs"
)

// Driver is a MinIO implementation of artifact.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
	bucket string
}

// New connects to MinIO using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *artifact.Config) (*Driver, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindStorage, "creating minio client", err)
	}

	d := &Driver{client: client, bucket: cfg.Bucket}

	if err := d.Ping(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

// --- artifact.Store implementation ---

// Ping verifies the MinIO server is reachable and the bucket exists.
func (d *Driver) Ping(ctx context.Context) error {
	exists, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return mapError(err, "ping failed")
	}
	if !exists {
		return errs.Newf(errs.KindStorage, "bucket %q does not exist", d.bucket)
	}
	return nil
}

// Close is a no-op for MinIO. The SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// Put stores content under key and returns its metadata.
func (d *Driver) Put(ctx context.Context, key, contentType string, content []byte) (*artifact.Info, error) {
	info, err := d.client.PutObject(ctx, d.bucket, key, bytes.NewReader(content), int64(len(content)),
		miniogo.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, mapError(err, "failed to store artifact")
	}
	return &artifact.Info{
		Key:          key,
		Size:         info.Size,
		ContentType:  contentType,
		LastModified: time.Now().UTC(),
	}, nil
}

// Get returns the content stored under key.
func (d *Driver) Get(ctx context.Context, key string) ([]byte, *artifact.Info, error) {
	obj, err := d.client.GetObject(ctx, d.bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, nil, mapError(err, "failed to get artifact")
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		return nil, nil, mapError(err, "failed to stat artifact")
	}
	content, err := io.ReadAll(obj)
	if err != nil {
		return nil, nil, mapError(err, "failed to read artifact")
	}

	return content, &artifact.Info{
		Key:          key,
		Size:         stat.Size,
		ContentType:  stat.ContentType,
		LastModified: stat.LastModified,
	}, nil
}

// PresignURL returns a time-limited public download URL for the artifact.
func (d *Driver) PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := d.client.PresignedGetObject(ctx, d.bucket, key, ttl, nil)
	if err != nil {
		return "", mapError(err, "failed to generate presigned URL")
	}
	return u.String(), nil
}

// Package artifact defines the interface for persisting emitted schema
// output. Providers implement Store; callers depend only on this package,
// never on a specific provider package.
package artifact

import (
	"context"
	"time"
)

// Info describes a stored artifact.
type Info struct {
	// Key is the object path within the bucket, e.g. "schemas/acme.sql".
	Key string

	// Size is the byte size of the artifact.
	Size int64

	// ContentType is the MIME type the artifact was stored with.
	ContentType string

	// LastModified is when the artifact was last written.
	LastModified time.Time
}

// Store persists emitted schema text and hands back shareable URLs.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// Put stores content under key and returns its metadata.
	Put(ctx context.Context, key, contentType string, content []byte) (*Info, error)

	// Get returns the content stored under key.
	Get(ctx context.Context, key string) ([]byte, *Info, error)

	// PresignURL returns a time-limited URL that allows downloading the
	// artifact at key without credentials.
	PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Config holds the settings needed to connect to a storage backend.
type Config struct {
	// Endpoint is the host:port of the storage server, e.g. "localhost:9000".
	Endpoint string

	// AccessKey is the access key ID (MinIO / S3 style).
	AccessKey string

	// SecretKey is the secret access key.
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string

	// Bucket is the bucket artifacts are written to. It must already exist.
	Bucket string
}

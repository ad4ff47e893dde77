package core

import "context"

// ObjectStore is any service addressing blobs by (bucket, path).
type ObjectStore interface {
	// Download returns ErrObjectNotFound (possibly wrapped) when nothing is stored at path.
	Download(ctx context.Context, bucket, path string) ([]byte, error)
	// Upload stores data at path, overwriting any existing object.
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	Delete(ctx context.Context, bucket string, paths ...string) error
	// PublicURL synthesizes the public URL of path. It does not check that the object exists.
	PublicURL(bucket, path string) (string, error)
	// EnsureBucket creates bucket if it does not exist yet. Safe to call concurrently.
	EnsureBucket(ctx context.Context, bucket string, public bool) error
}

package gcsbucket

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/trezcool/darasa/core"
)

// Store keeps mission blobs and assets in Google Cloud Storage.
type Store struct {
	client    *storage.Client
	projectID string
	cdnDomain string
}

var _ core.ObjectStore = (*Store)(nil)

// NewStore connects to GCS with the credentials file when set, application default credentials otherwise.
func NewStore(ctx context.Context, conf core.StorageConfig) (*Store, error) {
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if conf.GCS.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.GCS.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating storage client")
	}
	return &Store{
		client:    client,
		projectID: conf.GCS.ProjectID,
		cdnDomain: strings.TrimRight(conf.CDNDomain, "/"),
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := s.client.Bucket(bucket).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, errors.Wrapf(core.ErrObjectNotFound, "%s/%s", bucket, path)
		}
		return nil, errors.Wrapf(err, "reading %s/%s", bucket, path)
	}
	defer func() { _ = r.Close() }()

	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s/%s", bucket, path)
	}
	return data, nil
}

func (s *Store) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return errors.Wrapf(err, "writing %s/%s", bucket, path)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "closing writer of %s/%s", bucket, path)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, bucket string, paths ...string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, p := range paths {
		err := s.client.Bucket(bucket).Object(p).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return errors.Wrapf(err, "deleting %s/%s", bucket, p)
		}
	}
	return nil
}

func (s *Store) PublicURL(bucket, path string) (string, error) {
	if bucket == "" {
		return "", errors.New("bucket name is required")
	}
	key := (&url.URL{Path: strings.TrimLeft(path, "/")}).EscapedPath()
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s/%s", s.cdnDomain, bucket, key), nil
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key), nil
}

// EnsureBucket creates bucket in the project. Public buckets get public-read default object ACLs.
func (s *Store) EnsureBucket(ctx context.Context, bucket string, public bool) error {
	bkt := s.client.Bucket(bucket)
	_, err := bkt.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return errors.Wrapf(err, "getting bucket %s", bucket)
	}

	attrs := &storage.BucketAttrs{}
	if public {
		attrs.PredefinedDefaultObjectACL = "publicRead"
	}
	if err = bkt.Create(ctx, s.projectID, attrs); err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) && gErr.Code == http.StatusConflict {
			return nil // created concurrently
		}
		return errors.Wrapf(err, "creating bucket %s", bucket)
	}
	return nil
}

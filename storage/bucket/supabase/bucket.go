package supabasebucket

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/services/baas"
)

// Store talks to the BaaS Storage REST API with the service key.
type Store struct {
	client *baas.Client
}

var _ core.ObjectStore = (*Store)(nil)

func NewStore(client *baas.Client) *Store {
	return &Store{client: client}
}

func objectPath(bucket, path string) string {
	return "/storage/v1/object/" + url.PathEscape(bucket) + "/" + escapePath(path)
}

func escapePath(path string) string {
	return (&url.URL{Path: strings.TrimLeft(path, "/")}).EscapedPath()
}

func (s *Store) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	res, err := s.client.Send(ctx, baas.Request{Method: rest.Get, Path: objectPath(bucket, path)})
	if err != nil {
		// the storage API answers 400 for missing objects of some versions
		switch baas.StatusCode(err) {
		case http.StatusNotFound, http.StatusBadRequest:
			return nil, errors.Wrapf(core.ErrObjectNotFound, "%s/%s", bucket, path)
		}
		return nil, errors.Wrapf(err, "downloading %s/%s", bucket, path)
	}
	return []byte(res.Body), nil
}

func (s *Store) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.Send(ctx, baas.Request{
		Method: rest.Post,
		Path:   objectPath(bucket, path),
		Headers: map[string]string{
			"Content-Type": contentType,
			"x-upsert":     "true",
		},
		Body: data,
	})
	return errors.Wrapf(err, "uploading %s/%s", bucket, path)
}

func (s *Store) Delete(ctx context.Context, bucket string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := s.client.SendJSON(ctx,
		baas.Request{Method: rest.Delete, Path: "/storage/v1/object/" + url.PathEscape(bucket)},
		map[string][]string{"prefixes": paths},
	)
	return errors.Wrapf(err, "deleting from %s", bucket)
}

func (s *Store) PublicURL(bucket, path string) (string, error) {
	if bucket == "" {
		return "", errors.New("bucket name is required")
	}
	return s.client.BaseURL() + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" + escapePath(path), nil
}

// EnsureBucket creates bucket when the storage API does not know it. Conflicts mean another caller created it.
func (s *Store) EnsureBucket(ctx context.Context, bucket string, public bool) error {
	_, err := s.client.Send(ctx, baas.Request{Method: rest.Get, Path: "/storage/v1/bucket/" + url.PathEscape(bucket)})
	if err == nil {
		return nil
	}
	if code := baas.StatusCode(err); code != http.StatusNotFound && code != http.StatusBadRequest {
		return errors.Wrapf(err, "getting bucket %s", bucket)
	}

	_, err = s.client.SendJSON(ctx,
		baas.Request{Method: rest.Post, Path: "/storage/v1/bucket"},
		map[string]interface{}{"id": bucket, "name": bucket, "public": public},
	)
	if err != nil && !isConflict(err) {
		return errors.Wrapf(err, "creating bucket %s", bucket)
	}
	return nil
}

func isConflict(err error) bool {
	if baas.StatusCode(err) == http.StatusConflict {
		return true
	}
	var apiErr *baas.APIError
	return errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Message), "already exists")
}

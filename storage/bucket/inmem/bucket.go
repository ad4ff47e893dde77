package inmembucket

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var errEmptyBucket = errors.New("bucket name is required")

type object struct {
	data        []byte
	contentType string
}

// Store keeps objects in memory. Buckets spring into existence on first upload.
type Store struct {
	baseURL string

	mutex   sync.RWMutex
	buckets map[string]map[string]object
	public  map[string]bool
}

var _ core.ObjectStore = (*Store)(nil)

// NewStore returns an empty Store whose public URLs are `<baseURL>/<bucket>/<path>`.
func NewStore(baseURL string) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		buckets: make(map[string]map[string]object),
		public:  make(map[string]bool),
	}
}

func (s *Store) Download(_ context.Context, bucket, path string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	obj, ok := s.buckets[bucket][path]
	if !ok {
		return nil, errors.Wrapf(core.ErrObjectNotFound, "%s/%s", bucket, path)
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, nil
}

func (s *Store) Upload(_ context.Context, bucket, path string, data []byte, contentType string) error {
	if bucket == "" {
		return errEmptyBucket
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		objects = make(map[string]object)
		s.buckets[bucket] = objects
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	objects[path] = object{data: cp, contentType: contentType}
	return nil
}

func (s *Store) Delete(_ context.Context, bucket string, paths ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, p := range paths {
		delete(s.buckets[bucket], p)
	}
	return nil
}

func (s *Store) PublicURL(bucket, path string) (string, error) {
	if bucket == "" {
		return "", errEmptyBucket
	}
	u := s.baseURL + "/" + url.PathEscape(bucket) + "/" + (&url.URL{Path: path}).EscapedPath()
	return u, nil
}

func (s *Store) EnsureBucket(_ context.Context, bucket string, public bool) error {
	if bucket == "" {
		return errEmptyBucket
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string]object)
		s.public[bucket] = public
	}
	return nil
}

// Exists reports whether an object is stored at path.
func (s *Store) Exists(bucket, path string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.buckets[bucket][path]
	return ok
}

// ContentType returns the content type the object at path was uploaded with.
func (s *Store) ContentType(bucket, path string) string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.buckets[bucket][path].contentType
}

// Paths lists the bucket's object paths, sorted.
func (s *Store) Paths(bucket string) []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	paths := make([]string, 0, len(s.buckets[bucket]))
	for p := range s.buckets[bucket] {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

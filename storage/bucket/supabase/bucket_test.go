package supabasebucket

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/services/baas"
)

// fakeStorage mimics the storage API endpoints the Store calls.
type fakeStorage struct {
	mutex   sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	types   map[string]string
	creates int
}

func (f *fakeStorage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if r.Header.Get("Authorization") != "Bearer service" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	p := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(p, "/storage/v1/bucket/"):
		if !f.buckets[strings.TrimPrefix(p, "/storage/v1/bucket/")] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"statusCode":"404","error":"Bucket not found","message":"Bucket not found"}`))
		}
	case r.Method == http.MethodPost && p == "/storage/v1/bucket":
		var body struct {
			ID     string `json:"id"`
			Public bool   `json:"public"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.creates++
		if f.buckets[body.ID] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"statusCode":"409","error":"Duplicate","message":"The resource already exists"}`))
			return
		}
		f.buckets[body.ID] = body.Public
	case r.Method == http.MethodGet && strings.HasPrefix(p, "/storage/v1/object/"):
		data, ok := f.objects[strings.TrimPrefix(p, "/storage/v1/object/")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
			return
		}
		_, _ = w.Write(data)
	case r.Method == http.MethodPost && strings.HasPrefix(p, "/storage/v1/object/"):
		if r.Header.Get("x-upsert") != "true" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		key := strings.TrimPrefix(p, "/storage/v1/object/")
		f.objects[key], _ = ioutil.ReadAll(r.Body)
		f.types[key] = r.Header.Get("Content-Type")
	case r.Method == http.MethodDelete && strings.HasPrefix(p, "/storage/v1/object/"):
		bucket := strings.TrimPrefix(p, "/storage/v1/object/")
		var body struct {
			Prefixes []string `json:"prefixes"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, prefix := range body.Prefixes {
			delete(f.objects, bucket+"/"+prefix)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setup(t *testing.T) (*Store, *fakeStorage) {
	fake := &fakeStorage{buckets: map[string]bool{}, objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewStore(baas.NewClient(core.BaaSConfig{URL: srv.URL, AnonKey: "anon", ServiceKey: "service"})), fake
}

func TestStore_Objects(t *testing.T) {
	s, fake := setup(t)
	ctx := context.Background()

	_, err := s.Download(ctx, "missions", "7.json")
	assert.Equal(t, core.ErrObjectNotFound, errors.Cause(err))

	if assert.NoError(t, s.Upload(ctx, "missions", "7.json", []byte(`{"a":1}`), "application/json")) {
		assert.Equal(t, "application/json", fake.types["missions/7.json"])
	}
	data, err := s.Download(ctx, "missions", "/7.json")
	if assert.NoError(t, err) {
		assert.Equal(t, `{"a":1}`, string(data))
	}

	// upload overwrites
	assert.NoError(t, s.Upload(ctx, "missions", "7.json", []byte(`{"a":2}`), ""))
	data, _ = s.Download(ctx, "missions", "7.json")
	assert.Equal(t, `{"a":2}`, string(data))

	assert.NoError(t, s.Delete(ctx, "missions", "7.json"))
	_, err = s.Download(ctx, "missions", "7.json")
	assert.Equal(t, core.ErrObjectNotFound, errors.Cause(err))
}

func TestStore_EnsureBucket(t *testing.T) {
	s, fake := setup(t)
	ctx := context.Background()

	assert.NoError(t, s.EnsureBucket(ctx, "mission-assets", true))
	assert.True(t, fake.buckets["mission-assets"])
	assert.Equal(t, 1, fake.creates)

	// existing buckets are left alone
	assert.NoError(t, s.EnsureBucket(ctx, "mission-assets", true))
	assert.Equal(t, 1, fake.creates)

	// concurrent callers all succeed
	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.EnsureBucket(ctx, "shared", false)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestStore_PublicURL(t *testing.T) {
	s := NewStore(baas.NewClient(core.BaaSConfig{URL: "https://proj.baas.test/"}))

	got, err := s.PublicURL("mission-assets", "/M042/images/my hero.png")
	if assert.NoError(t, err) {
		assert.Equal(t, "https://proj.baas.test/storage/v1/object/public/mission-assets/M042/images/my%20hero.png", got)
	}
	_, err = s.PublicURL("", "x.png")
	assert.Error(t, err)
}

package stores

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"sync"
	"time"

	"github.com/bluele/gcache"
	pe "wuyrush.io/photo/errors"
	md "wuyrush.io/photo/models"
)

const defaultMemStoreSize = 1024

type memObject struct {
	data  []byte
	props md.BlobProperties
}

// MemStore is a BlobStore kept in process memory. Objects are evicted least-recently-used once the store holds
// size of them, so it only suits development and tests.
type MemStore struct {
	objects gcache.Cache

	mu         sync.RWMutex
	containers map[string]struct{}
}

func NewMemStore(size int) *MemStore {
	return &MemStore{
		objects:    gcache.New(size).LRU().Build(),
		containers: map[string]struct{}{},
	}
}

func memKey(container, name string) string {
	return container + "/" + name
}

func (s *MemStore) hasContainer(container string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.containers[container]
	return ok
}

func (s *MemStore) get(container, name string) (*memObject, *pe.Err) {
	v, err := s.objects.Get(memKey(container, name))
	if err != nil {
		if err == gcache.KeyNotFoundError {
			return nil, pe.NewNotFound("blob not found")
		}
		return nil, pe.NewServiceFailure("error reading blob from memory").WithCause(err)
	}
	return v.(*memObject), nil
}

func (s *MemStore) EnsureContainer(ctx context.Context, container string) *pe.Err {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containers[container] = struct{}{}
	return nil
}

func (s *MemStore) Exists(ctx context.Context, container, name string) (bool, *pe.Err) {
	_, err := s.get(container, name)
	if err != nil {
		if err.Code == pe.ErrCodeNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *MemStore) Properties(ctx context.Context, container, name string) (*md.BlobProperties, *pe.Err) {
	obj, err := s.get(container, name)
	if err != nil {
		return nil, err
	}
	props := obj.props
	props.Metadata = md.LowerKeys(obj.props.Metadata)
	return &props, nil
}

func (s *MemStore) Upload(ctx context.Context, container, name string, r io.Reader, meta map[string]string) *pe.Err {
	if !s.hasContainer(container) {
		return pe.NewNotFound("container " + container + " not found")
	}
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return pe.NewServiceFailure("error reading blob content").WithCause(err)
	}
	obj := &memObject{
		data: data,
		props: md.BlobProperties{
			Name:         name,
			ContentType:  "application/octet-stream",
			Size:         int64(len(data)),
			LastModified: time.Now().UTC(),
			Metadata:     md.LowerKeys(meta),
		},
	}
	if err := s.objects.Set(memKey(container, name), obj); err != nil {
		return pe.NewServiceFailure("error saving blob to memory").WithCause(err)
	}
	return nil
}

func (s *MemStore) SetContentType(ctx context.Context, container, name, contentType string) *pe.Err {
	obj, err := s.get(container, name)
	if err != nil {
		return err
	}
	// objects are shared with readers; swap in a copy instead of mutating in place
	updated := &memObject{data: obj.data, props: obj.props}
	updated.props.ContentType = contentType
	updated.props.LastModified = time.Now().UTC()
	if err := s.objects.Set(memKey(container, name), updated); err != nil {
		return pe.NewServiceFailure("error saving blob to memory").WithCause(err)
	}
	return nil
}

func (s *MemStore) Download(ctx context.Context, container, name string, w io.Writer) (int64, *pe.Err) {
	obj, err := s.get(container, name)
	if err != nil {
		return 0, err
	}
	n, cErr := io.Copy(w, bytes.NewReader(obj.data))
	if cErr != nil {
		return n, pe.NewServiceFailure("error streaming blob").WithCause(cErr)
	}
	return n, nil
}

func (s *MemStore) Delete(ctx context.Context, container, name string) (bool, *pe.Err) {
	ok, err := s.Exists(ctx, container, name)
	if err != nil || !ok {
		return false, err
	}
	return s.objects.Remove(memKey(container, name)), nil
}

func (s *MemStore) Ping(ctx context.Context) *pe.Err {
	return nil
}

func (s *MemStore) Close() *pe.Err {
	s.objects.Purge()
	return nil
}

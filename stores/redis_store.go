package stores

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis"
	log "github.com/sirupsen/logrus"
	cst "wuyrush.io/photo/constants"
	pe "wuyrush.io/photo/errors"
	md "wuyrush.io/photo/models"
)

const (
	fieldNameData         = "data"
	fieldNameContentType  = "contentType"
	fieldNameSize         = "size"
	fieldNameLastModified = "lastModified"
	// object metadata is kept in the same hash under prefixed fields
	fieldPrefixMeta = "meta."

	// redis key of the set holding container names
	keyContainerSet = "photo:containers"
	keyPrefixBlob   = "photo:blob:"
)

// RedisStore is a BlobStore implementation driven by Redis. Each blob is one hash holding content,
// properties and metadata, so reads and writes of a blob are atomic.
type RedisStore struct {
	DB *redis.Client
}

func NewRedisStoreFromURL(conn string) (*RedisStore, *pe.Err) {
	opts, err := redis.ParseURL(conn)
	if err != nil {
		return nil, pe.NewBadInput("malformed redis connection string").WithCause(err)
	}
	// request-path commands are sent once; startup readiness retries on its own
	opts.MaxRetries = 0
	return &RedisStore{DB: redis.NewClient(opts)}, nil
}

func (s *RedisStore) blobKey(container, name string) string {
	return keyPrefixBlob + container + ":" + name
}

func (s *RedisStore) EnsureContainer(ctx context.Context, container string) *pe.Err {
	if _, err := s.DB.WithContext(ctx).SAdd(keyContainerSet, container).Result(); err != nil {
		log.WithError(err).WithField(cst.LogFieldContainer, container).Error("EnsureContainer: error calling Redis to register container")
		return pe.NewServiceFailure("error creating container").WithCause(err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, container, name string) (bool, *pe.Err) {
	n, err := s.DB.WithContext(ctx).Exists(s.blobKey(container, name)).Result()
	if err != nil {
		return false, pe.NewServiceFailure("error checking blob").WithCause(err)
	}
	return n > 0, nil
}

func (s *RedisStore) Properties(ctx context.Context, container, name string) (*md.BlobProperties, *pe.Err) {
	db := s.DB.WithContext(ctx)
	key := s.blobKey(container, name)
	// skip the content itself; it can be large
	fields, err := db.HKeys(key).Result()
	if err != nil {
		return nil, pe.NewServiceFailure("error retrieving blob properties").WithCause(err)
	}
	if len(fields) == 0 {
		return nil, pe.NewNotFound("blob not found")
	}
	wanted := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != fieldNameData {
			wanted = append(wanted, f)
		}
	}
	vals, err := db.HMGet(key, wanted...).Result()
	if err != nil {
		return nil, pe.NewServiceFailure("error retrieving blob properties").WithCause(err)
	}
	props := &md.BlobProperties{Name: name, Metadata: map[string]string{}}
	for i, f := range wanted {
		v, ok := vals[i].(string)
		if !ok {
			continue
		}
		switch {
		case f == fieldNameContentType:
			props.ContentType = v
		case f == fieldNameSize:
			props.Size, _ = strconv.ParseInt(v, 10, 64)
		case f == fieldNameLastModified:
			props.LastModified, _ = time.Parse(time.RFC3339Nano, v)
		case strings.HasPrefix(f, fieldPrefixMeta):
			props.Metadata[strings.ToLower(strings.TrimPrefix(f, fieldPrefixMeta))] = v
		}
	}
	return props, nil
}

func (s *RedisStore) Upload(ctx context.Context, container, name string, r io.Reader, meta map[string]string) *pe.Err {
	db := s.DB.WithContext(ctx)
	clog := log.WithFields(log.Fields{cst.LogFieldContainer: container, cst.LogFieldPhoto: name})
	ok, err := db.SIsMember(keyContainerSet, container).Result()
	if err != nil {
		return pe.NewServiceFailure("error checking container").WithCause(err)
	}
	if !ok {
		return pe.NewNotFound("container " + container + " not found")
	}
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return pe.NewServiceFailure("error reading blob content").WithCause(err)
	}
	fields := map[string]interface{}{
		fieldNameData:         data,
		fieldNameContentType:  "application/octet-stream",
		fieldNameSize:         len(data),
		fieldNameLastModified: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range meta {
		fields[fieldPrefixMeta+strings.ToLower(k)] = v
	}
	key := s.blobKey(container, name)
	// overwrite, never merge, previous content under the same name
	_, err = db.TxPipelined(func(p redis.Pipeliner) error {
		p.Del(key)
		p.HMSet(key, fields)
		return nil
	})
	if err != nil {
		clog.WithError(err).Error("Upload: error calling Redis to save blob")
		return pe.NewServiceFailure("error saving blob").WithCause(err)
	}
	return nil
}

func (s *RedisStore) SetContentType(ctx context.Context, container, name, contentType string) *pe.Err {
	db := s.DB.WithContext(ctx)
	key := s.blobKey(container, name)
	n, err := db.Exists(key).Result()
	if err != nil {
		return pe.NewServiceFailure("error updating blob properties").WithCause(err)
	}
	if n == 0 {
		return pe.NewNotFound("blob not found")
	}
	_, err = db.HMSet(key, map[string]interface{}{
		fieldNameContentType:  contentType,
		fieldNameLastModified: time.Now().UTC().Format(time.RFC3339Nano),
	}).Result()
	if err != nil {
		return pe.NewServiceFailure("error updating blob properties").WithCause(err)
	}
	return nil
}

func (s *RedisStore) Download(ctx context.Context, container, name string, w io.Writer) (int64, *pe.Err) {
	data, err := s.DB.WithContext(ctx).HGet(s.blobKey(container, name), fieldNameData).Bytes()
	if err != nil {
		if err == redis.Nil {
			return 0, pe.NewNotFound("blob not found")
		}
		return 0, pe.NewServiceFailure("error retrieving blob").WithCause(err)
	}
	n, err := io.Copy(w, bytes.NewReader(data))
	if err != nil {
		return n, pe.NewServiceFailure("error streaming blob").WithCause(err)
	}
	return n, nil
}

func (s *RedisStore) Delete(ctx context.Context, container, name string) (bool, *pe.Err) {
	// redis ignores the error upon DEL if the key is non-existent
	n, err := s.DB.WithContext(ctx).Del(s.blobKey(container, name)).Result()
	if err != nil {
		return false, pe.NewServiceFailure("error removing blob").WithCause(err)
	}
	return n > 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) *pe.Err {
	if _, err := s.DB.WithContext(ctx).Ping().Result(); err != nil {
		return pe.NewDependencyFailure("redis not reachable").WithCause(err)
	}
	return nil
}

func (s *RedisStore) Close() *pe.Err {
	if err := s.DB.Close(); err != nil {
		return pe.NewServiceFailure("error closing redis client").WithCause(err)
	}
	return nil
}

package stores

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	cst "wuyrush.io/photo/constants"
	pe "wuyrush.io/photo/errors"
	md "wuyrush.io/photo/models"
)

const fileMetaSuffix = ".meta.json"

// FileStore implements BlobStore backed by local file system. Each container is a directory under Root; each
// object is a file plus a JSON sidecar holding its properties.
type FileStore struct {
	Root string
}

type fileMeta struct {
	ContentType  string            `json:"contentType"`
	LastModified time.Time         `json:"lastModified"`
	Metadata     map[string]string `json:"metadata"`
}

func NewFileStore(root string) (*FileStore, *pe.Err) {
	if root == "" {
		return nil, pe.NewBadInput("file store root must not be empty")
	}
	p, err := homedir.Expand(root)
	if err != nil {
		return nil, pe.NewBadInput("invalid file store root").WithCause(err)
	}
	if err := os.MkdirAll(p, 0750); err != nil {
		return nil, pe.NewServiceFailure("error creating file store root").WithCause(err)
	}
	return &FileStore{Root: p}, nil
}

// ref returns the path of the object in the file system. Names are plain file names; anything trying to
// climb out of the container directory is rejected.
func (fs *FileStore) ref(container, name string) (string, *pe.Err) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." ||
		strings.HasSuffix(name, fileMetaSuffix) {
		return "", pe.NewBadInput("invalid blob name " + name)
	}
	return filepath.Join(fs.Root, container, name), nil
}

func (fs *FileStore) EnsureContainer(ctx context.Context, container string) *pe.Err {
	if err := os.MkdirAll(filepath.Join(fs.Root, container), 0750); err != nil {
		return pe.NewServiceFailure("error allocating file storage space").WithCause(err)
	}
	return nil
}

func (fs *FileStore) Exists(ctx context.Context, container, name string) (bool, *pe.Err) {
	ref, pErr := fs.ref(container, name)
	if pErr != nil {
		return false, nil
	}
	if _, err := os.Stat(ref); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, pe.NewServiceFailure("error checking blob").WithCause(err)
	}
	return true, nil
}

func (fs *FileStore) readMeta(ref string) (*fileMeta, error) {
	b, err := ioutil.ReadFile(ref + fileMetaSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileMeta{Metadata: map[string]string{}}, nil
		}
		return nil, err
	}
	m := &fileMeta{}
	if err := json.Unmarshal(b, m); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", ref+fileMetaSuffix)
	}
	return m, nil
}

func (fs *FileStore) writeMeta(ref string, m *fileMeta) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return writeFileAtomic(ref+fileMetaSuffix, func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	})
}

// writeFileAtomic writes into a temp file next to path and renames it over path once fully written
func writeFileAtomic(path string, write func(io.Writer) error) error {
	f, err := ioutil.TempFile(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return errors.Wrapf(os.Rename(tmp, path), "renaming %s", tmp)
}

func (fs *FileStore) Properties(ctx context.Context, container, name string) (*md.BlobProperties, *pe.Err) {
	ref, pErr := fs.ref(container, name)
	if pErr != nil {
		return nil, pe.NewNotFound("blob not found").WithCause(pErr)
	}
	info, err := os.Stat(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pe.NewNotFound("blob not found").WithCause(err)
		}
		return nil, pe.NewServiceFailure("error retrieving blob properties").WithCause(err)
	}
	m, err := fs.readMeta(ref)
	if err != nil {
		return nil, pe.NewServiceFailure("error retrieving blob metadata").WithCause(err)
	}
	ct := m.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &md.BlobProperties{
		Name:         name,
		ContentType:  ct,
		Size:         info.Size(),
		LastModified: info.ModTime().UTC(),
		Metadata:     md.LowerKeys(m.Metadata),
	}, nil
}

func (fs *FileStore) Upload(ctx context.Context, container, name string, r io.Reader, meta map[string]string) *pe.Err {
	ref, pErr := fs.ref(container, name)
	if pErr != nil {
		return pErr
	}
	if _, err := os.Stat(filepath.Dir(ref)); err != nil {
		if os.IsNotExist(err) {
			return pe.NewNotFound("container " + container + " not found").WithCause(err)
		}
		return pe.NewServiceFailure("error allocating file storage space").WithCause(err)
	}
	// metadata goes first so that a visible blob always has its owner recorded
	if err := fs.writeMeta(ref, &fileMeta{LastModified: time.Now().UTC(), Metadata: md.LowerKeys(meta)}); err != nil {
		return pe.NewServiceFailure("error saving blob metadata").WithCause(err)
	}
	err := writeFileAtomic(ref, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
	if err != nil {
		os.Remove(ref + fileMetaSuffix)
		return pe.NewServiceFailure("error saving blob data").WithCause(err)
	}
	return nil
}

func (fs *FileStore) SetContentType(ctx context.Context, container, name, contentType string) *pe.Err {
	ref, pErr := fs.ref(container, name)
	if pErr != nil {
		return pe.NewNotFound("blob not found").WithCause(pErr)
	}
	if _, err := os.Stat(ref); err != nil {
		if os.IsNotExist(err) {
			return pe.NewNotFound("blob not found").WithCause(err)
		}
		return pe.NewServiceFailure("error updating blob properties").WithCause(err)
	}
	m, err := fs.readMeta(ref)
	if err != nil {
		return pe.NewServiceFailure("error retrieving blob metadata").WithCause(err)
	}
	m.ContentType = contentType
	m.LastModified = time.Now().UTC()
	if err := fs.writeMeta(ref, m); err != nil {
		return pe.NewServiceFailure("error updating blob properties").WithCause(err)
	}
	return nil
}

func (fs *FileStore) Download(ctx context.Context, container, name string, w io.Writer) (int64, *pe.Err) {
	ref, pErr := fs.ref(container, name)
	if pErr != nil {
		return 0, pe.NewNotFound("blob not found").WithCause(pErr)
	}
	f, err := os.Open(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, pe.NewNotFound("blob not found").WithCause(err)
		}
		return 0, pe.NewServiceFailure("error retrieving blob").WithCause(err)
	}
	defer f.Close()
	n, err := bufio.NewReader(f).WriteTo(w)
	if err != nil {
		return n, pe.NewServiceFailure("error streaming blob").WithCause(err)
	}
	return n, nil
}

func (fs *FileStore) Delete(ctx context.Context, container, name string) (bool, *pe.Err) {
	ref, pErr := fs.ref(container, name)
	if pErr != nil {
		return false, nil
	}
	if err := os.Remove(ref); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, pe.NewServiceFailure("error removing blob").WithCause(err)
	}
	// the blob is gone at this point; a stale sidecar is never read without it
	if err := os.Remove(ref + fileMetaSuffix); err != nil && !os.IsNotExist(err) {
		log.WithError(err).WithFields(log.Fields{
			cst.LogFieldContainer: container,
			cst.LogFieldPhoto:     name,
		}).Warn("Delete: error removing blob metadata")
	}
	return true, nil
}

func (fs *FileStore) Ping(ctx context.Context) *pe.Err {
	info, err := os.Stat(fs.Root)
	if err != nil {
		return pe.NewDependencyFailure("file store root not accessible").WithCause(err)
	}
	if !info.IsDir() {
		return pe.NewDependencyFailure("file store root is not a directory")
	}
	return nil
}

func (fs *FileStore) Close() *pe.Err {
	return nil
}

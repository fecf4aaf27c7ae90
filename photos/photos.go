// Package photos holds the photo operations: looking up, saving and removing photos owned by principals.
// Callers pass the principal explicitly; an empty principal is only meaningful with ownership checks off.
package photos

import (
	"bytes"
	"context"
	"io"
	"time"

	"wuyrush.io/photo/common/logging"
	cst "wuyrush.io/photo/constants"
	pe "wuyrush.io/photo/errors"
	"wuyrush.io/photo/events"
	"wuyrush.io/photo/imaging"
	md "wuyrush.io/photo/models"
	"wuyrush.io/photo/stores"
)

// Service implements the photo operations on top of a BlobStore. Every storage call is made once; failures
// come back as typed errors for the caller to flatten.
type Service struct {
	Store      stores.BlobStore
	Normalizer imaging.Normalizer
	Events     events.Publisher
	Container  string
	// OwnerChecks stamps the uploader onto new photos and restricts reads and deletes to them
	OwnerChecks bool
}

func NewService(s stores.BlobStore, n imaging.Normalizer, p events.Publisher, ownerChecks bool) *Service {
	if p == nil {
		p = events.NopPublisher{}
	}
	return &Service{
		Store:       s,
		Normalizer:  n,
		Events:      p,
		Container:   cst.ContainerName,
		OwnerChecks: ownerChecks,
	}
}

// Lookup returns the properties of the named photo if principal may read it
func (s *Service) Lookup(ctx context.Context, principal, name string) (*md.BlobProperties, *pe.Err) {
	if !md.ValidPhotoName(name) {
		return nil, pe.NewNotFound("photo not found")
	}
	return s.authorized(ctx, principal, name)
}

// authorized loads the photo properties and, with owner checks on, verifies principal owns the photo. A photo
// without owner metadata is owned by nobody.
func (s *Service) authorized(ctx context.Context, principal, name string) (*md.BlobProperties, *pe.Err) {
	clog := logging.ForRequest(ctx, logging.WithFuncName()).WithField(cst.LogFieldPhoto, name)
	ok, err := s.Store.Exists(ctx, s.Container, name)
	if err != nil {
		clog.WithError(err).Error("error checking photo existence")
		return nil, err
	}
	if !ok {
		return nil, pe.NewNotFound("photo not found")
	}
	props, err := s.Store.Properties(ctx, s.Container, name)
	if err != nil {
		clog.WithError(err).Error("error retrieving photo properties")
		return nil, err
	}
	if s.OwnerChecks && !props.OwnedBy(principal) {
		clog.WithField(cst.LogFieldPrincipal, principal).Warn("photo access denied to non-owner")
		return nil, pe.NewUnauthorized("photo not owned by caller")
	}
	return props, nil
}

// WriteTo streams the content of the named photo into w
func (s *Service) WriteTo(ctx context.Context, name string, w io.Writer) (int64, *pe.Err) {
	if !md.ValidPhotoName(name) {
		return 0, pe.NewNotFound("photo not found")
	}
	return s.Store.Download(ctx, s.Container, name, w)
}

// Save normalizes the image read from body and stores it as a new photo owned by principal. It returns the
// name of the new photo.
func (s *Service) Save(ctx context.Context, principal string, body io.Reader) (string, *pe.Err) {
	clog := logging.ForRequest(ctx, logging.WithFuncName())
	data, err := s.Normalizer.Normalize(body)
	if err != nil {
		clog.WithError(err).Warn("error normalizing uploaded image")
		return "", err
	}
	name := md.NewPhotoName()
	clog = clog.WithField(cst.LogFieldPhoto, name)
	if err := s.Store.EnsureContainer(ctx, s.Container); err != nil {
		clog.WithError(err).Error("error ensuring photo container")
		return "", err
	}
	meta := map[string]string{}
	if s.OwnerChecks {
		meta[cst.MetaKeyOwner] = principal
	}
	if err := s.Store.Upload(ctx, s.Container, name, bytes.NewReader(data), meta); err != nil {
		clog.WithError(err).Error("error uploading photo")
		return "", err
	}
	if err := s.Store.SetContentType(ctx, s.Container, name, cst.ContentTypePhoto); err != nil {
		clog.WithError(err).Error("error setting photo content type")
		return "", err
	}
	clog.WithField("size", len(data)).Info("photo saved")
	s.Events.Publish(ctx, md.Event{Kind: md.EventPhotoCreated, Photo: name, Principal: principal, Time: time.Now().UTC()})
	return name, nil
}

// Remove deletes the named photo if principal may delete it
func (s *Service) Remove(ctx context.Context, principal, name string) *pe.Err {
	if !md.ValidPhotoName(name) {
		return pe.NewNotFound("photo not found")
	}
	if _, err := s.authorized(ctx, principal, name); err != nil {
		return err
	}
	clog := logging.ForRequest(ctx, logging.WithFuncName()).WithField(cst.LogFieldPhoto, name)
	deleted, err := s.Store.Delete(ctx, s.Container, name)
	if err != nil {
		clog.WithError(err).Error("error deleting photo")
		return err
	}
	if !deleted {
		clog.Warn("storage reported photo not deleted")
		return pe.NewDeleteFailed("photo not deleted")
	}
	clog.Info("photo deleted")
	s.Events.Publish(ctx, md.Event{Kind: md.EventPhotoDeleted, Photo: name, Principal: principal, Time: time.Now().UTC()})
	return nil
}

// Ping checks the backing store is reachable
func (s *Service) Ping(ctx context.Context) *pe.Err {
	return s.Store.Ping(ctx)
}

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	cst "wuyrush.io/photo/constants"
)

/*
 Application layer data models.
*/

// BlobProperties describes a stored object without its content
type BlobProperties struct {
	Name         string
	ContentType  string
	Size         int64
	LastModified time.Time
	// Metadata keys are always lower-cased regardless of the backing store
	Metadata map[string]string
}

// Owner returns the principal recorded on the object, or "" if the object carries no owner metadata
func (p *BlobProperties) Owner() string {
	if p == nil {
		return ""
	}
	return p.Metadata[cst.MetaKeyOwner]
}

// OwnedBy reports whether the object carries owner metadata that matches the given principal exactly
func (p *BlobProperties) OwnedBy(principal string) bool {
	owner := p.Owner()
	return owner != "" && owner == principal
}

// NewPhotoName returns a fresh, collision-resistant object name for a stored photo
func NewPhotoName() string {
	return uuid.New().String() + cst.PhotoExt
}

// ValidPhotoName checks the given name is of the form <uuid>.jpg. Names failing the check can never
// refer to a stored photo.
func ValidPhotoName(name string) bool {
	if !strings.HasSuffix(name, cst.PhotoExt) {
		return false
	}
	_, err := uuid.Parse(strings.TrimSuffix(name, cst.PhotoExt))
	return err == nil
}

// LowerKeys returns a copy of m with all keys lower-cased
func LowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

type EventKind string

const (
	EventPhotoCreated EventKind = "photo.created"
	EventPhotoDeleted EventKind = "photo.deleted"
)

// Event records a state change of a stored photo
type Event struct {
	Kind      EventKind `json:"kind"`
	Photo     string    `json:"photo"`
	Principal string    `json:"principal,omitempty"`
	Time      time.Time `json:"time"`
}

package storage

import (
	"context"
	"errors"
)

// ErrSignedUploadsDisabled is returned when an upload grant is requested but
// the configured driver cannot issue one.
var ErrSignedUploadsDisabled = errors.New("signed uploads are not supported by this storage driver")

// CoverStore is the object storage gateway consumed by the song service. It
// hands out single-use upload grants, resolves public read URLs, and deletes
// stored cover objects.
type CoverStore interface {
	// IssueUploadGrant returns a time-boxed, single-use URL the client can
	// PUT the object bytes to directly.
	IssueUploadGrant(ctx context.Context, objectName string) (string, error)
	// PublicURL returns the stable read URL the object has once written.
	PublicURL(objectName string) string
	// DeleteCover removes the object. Deleting an absent object is not an
	// error.
	DeleteCover(ctx context.Context, objectName string) error
}

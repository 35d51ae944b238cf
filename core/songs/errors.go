package songs

import (
	"errors"
	"strings"
)

// Business-rule failures raised by the service. The HTTP layer maps each one
// onto a status code; anything else is an infrastructure error.
var (
	ErrDuplicateSong        = errors.New("a song with this name and artist already exists")
	ErrSongNotFound         = errors.New("song not found")
	ErrNotOwner             = errors.New("not authorized to modify this song")
	ErrUnsupportedImageType = errors.New("unsupported image type")
)

// ValidationError carries the human-readable messages for every failed input
// rule in a request.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

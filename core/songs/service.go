package songs

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"songvault/logger"
	"songvault/model"
	"songvault/repository"
	"songvault/storage"

	"github.com/google/uuid"
)

// Service enforces the business rules around the song lifecycle: input
// validation, per-owner duplicate detection, ownership checks, and cover
// cleanup against the storage gateway. It holds no mutable state of its own;
// the repository and cover store are injected at construction.
type Service struct {
	repo   repository.SongRepository
	covers storage.CoverStore
}

// NewService creates a song service.
func NewService(repo repository.SongRepository, covers storage.CoverStore) *Service {
	return &Service{repo: repo, covers: covers}
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name     *string
	Artist   *string
	ImageURL *string
}

// UploadGrant is the response of a signed-upload request. The client PUTs
// the image bytes to UploadURL, then creates the song with PublicURL as its
// image reference. Grants are never stored server-side.
type UploadGrant struct {
	FileName  string `json:"fileName"`
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
}

// List returns all songs owned by the given user.
func (s *Service) List(ctx context.Context, ownerID int64) ([]*model.Song, error) {
	songs, err := s.repo.GetAllSongsByUserID(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs for user %d: %w", ownerID, err)
	}
	return songs, nil
}

// Create validates the input, rejects per-owner duplicates, and persists a
// new song. The image is expected to already exist in storage (signed-upload
// flow) or to have been written by the caller (local-disk flow); Create does
// not verify the referenced object.
func (s *Service) Create(ctx context.Context, name, artist, imageURL string, ownerID int64) (*model.Song, error) {
	if errs := validateCreateInput(name, artist, imageURL); len(errs) > 0 {
		return nil, &ValidationError{Messages: errs}
	}

	existing, err := s.repo.FindByNameAndArtist(ownerID, name, artist)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate song: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateSong
	}

	song := &model.Song{
		UserID:   ownerID,
		Name:     strings.TrimSpace(name),
		Artist:   strings.TrimSpace(artist),
		ImageURL: imageURL,
	}

	id, err := s.repo.CreateSong(song)
	if err != nil {
		return nil, fmt.Errorf("failed to create song: %w", err)
	}

	created, err := s.repo.GetSongByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load created song %d: %w", id, err)
	}

	logger.Info("Song created",
		logger.Int64("songId", id),
		logger.Int64("userId", ownerID),
		logger.String("name", song.Name),
		logger.String("artist", song.Artist),
	)
	return created, nil
}

// Update applies a partial update to a song after verifying it exists and is
// owned by the caller. A previous cover object is not deleted when the image
// reference changes; replaced objects are left in storage.
func (s *Service) Update(ctx context.Context, id, ownerID int64, in UpdateInput) (*model.Song, error) {
	song, err := s.repo.GetSongByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load song %d: %w", id, err)
	}
	if song == nil {
		return nil, ErrSongNotFound
	}
	if song.UserID != ownerID {
		return nil, ErrNotOwner
	}

	if errs := validateUpdateInput(in); len(errs) > 0 {
		return nil, &ValidationError{Messages: errs}
	}

	upd := repository.SongUpdate{ImageURL: in.ImageURL}
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		upd.Name = &trimmed
	}
	if in.Artist != nil {
		trimmed := strings.TrimSpace(*in.Artist)
		upd.Artist = &trimmed
	}

	updated, err := s.repo.UpdateSong(id, upd)
	if err != nil {
		return nil, fmt.Errorf("failed to update song %d: %w", id, err)
	}
	if updated == nil {
		return nil, ErrSongNotFound
	}

	logger.Info("Song updated", logger.Int64("songId", id), logger.Int64("userId", ownerID))
	return updated, nil
}

// Delete removes a song and its stored cover object. The cover is deleted
// first: if storage cleanup fails the row is kept, so a reachable song never
// points at a confirmed-deleted image and no image is orphaned by a
// half-finished delete.
func (s *Service) Delete(ctx context.Context, id, ownerID int64) (*model.Song, error) {
	song, err := s.repo.GetSongByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load song %d: %w", id, err)
	}
	if song == nil {
		return nil, ErrSongNotFound
	}
	if song.UserID != ownerID {
		return nil, ErrNotOwner
	}

	if objectName := objectNameFromRef(song.ImageURL); objectName != "" {
		if err := s.covers.DeleteCover(ctx, objectName); err != nil {
			return nil, fmt.Errorf("failed to delete cover %s for song %d: %w", objectName, id, err)
		}
	}

	deleted, err := s.repo.DeleteSong(id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete song %d: %w", id, err)
	}
	if deleted == nil {
		return nil, ErrSongNotFound
	}

	logger.Info("Song deleted", logger.Int64("songId", id), logger.Int64("userId", ownerID))
	return deleted, nil
}

// RequestUploadGrant validates the declared MIME type, generates a
// collision-resistant object name, and asks the storage gateway for a
// single-use upload URL. The server never touches the image bytes.
func (s *Service) RequestUploadGrant(ctx context.Context, mimeType string) (*UploadGrant, error) {
	ext, ok := extensionForMimeType[mimeType]
	if !ok || !strings.HasPrefix(mimeType, "image/") {
		return nil, ErrUnsupportedImageType
	}

	objectName := uuid.New().String() + "." + ext
	uploadURL, err := s.covers.IssueUploadGrant(ctx, objectName)
	if err != nil {
		if err == storage.ErrSignedUploadsDisabled {
			return nil, err
		}
		return nil, fmt.Errorf("failed to issue upload grant for %s: %w", objectName, err)
	}

	return &UploadGrant{
		FileName:  objectName,
		UploadURL: uploadURL,
		PublicURL: s.covers.PublicURL(objectName),
	}, nil
}

// objectNameFromRef resolves an image reference (public URL or local serve
// path) to the storage object name: the last segment of the URL path.
func objectNameFromRef(ref string) string {
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return path.Base(ref)
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

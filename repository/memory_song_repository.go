package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"songvault/model"
)

// memorySongRepository is an in-memory SongRepository. It backs unit tests
// and keeps mutable song state out of the service layer.
type memorySongRepository struct {
	mu     sync.RWMutex
	nextID int64
	songs  map[int64]*model.Song
}

// NewMemorySongRepository creates an empty in-memory song repository.
func NewMemorySongRepository() SongRepository {
	return &memorySongRepository{
		nextID: 1,
		songs:  make(map[int64]*model.Song),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func cloneSong(s *model.Song) *model.Song {
	c := *s
	return &c
}

func (r *memorySongRepository) CreateSong(song *model.Song) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	stored := cloneSong(song)
	stored.ID = r.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.songs[stored.ID] = stored
	r.nextID++
	return stored.ID, nil
}

func (r *memorySongRepository) GetSongByID(id int64) (*model.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	song, ok := r.songs[id]
	if !ok {
		return nil, nil
	}
	return cloneSong(song), nil
}

func (r *memorySongRepository) GetAllSongsByUserID(userID int64) ([]*model.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	songs := make([]*model.Song, 0)
	for _, song := range r.songs {
		if song.UserID == userID {
			songs = append(songs, cloneSong(song))
		}
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].ID < songs[j].ID })
	return songs, nil
}

func (r *memorySongRepository) FindByNameAndArtist(userID int64, name, artist string) (*model.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	normName := normalize(name)
	normArtist := normalize(artist)
	for _, song := range r.songs {
		if song.UserID == userID && normalize(song.Name) == normName && normalize(song.Artist) == normArtist {
			return cloneSong(song), nil
		}
	}
	return nil, nil
}

func (r *memorySongRepository) UpdateSong(id int64, upd SongUpdate) (*model.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	song, ok := r.songs[id]
	if !ok {
		return nil, nil
	}

	if upd.Name != nil {
		song.Name = *upd.Name
	}
	if upd.Artist != nil {
		song.Artist = *upd.Artist
	}
	if upd.ImageURL != nil {
		song.ImageURL = *upd.ImageURL
	}
	song.UpdatedAt = time.Now()
	return cloneSong(song), nil
}

func (r *memorySongRepository) DeleteSong(id int64) (*model.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	song, ok := r.songs[id]
	if !ok {
		return nil, nil
	}
	delete(r.songs, id)
	return song, nil
}

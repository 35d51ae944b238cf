package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"songvault/model"
)

// SongUpdate carries a partial update; nil fields are left unchanged.
type SongUpdate struct {
	Name     *string
	Artist   *string
	ImageURL *string
}

// SongRepository defines the interface for song data operations.
type SongRepository interface {
	CreateSong(song *model.Song) (int64, error)
	GetSongByID(id int64) (*model.Song, error)
	GetAllSongsByUserID(userID int64) ([]*model.Song, error)
	// FindByNameAndArtist matches trimmed, case-insensitively, within one
	// owner's songs.
	FindByNameAndArtist(userID int64, name, artist string) (*model.Song, error)
	UpdateSong(id int64, upd SongUpdate) (*model.Song, error)
	// DeleteSong removes a song and returns the removed record.
	DeleteSong(id int64) (*model.Song, error)
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	db *sql.DB
}

// NewMySQLSongRepository creates a new mysqlSongRepository.
func NewMySQLSongRepository(db *sql.DB) SongRepository {
	return &mysqlSongRepository{db: db}
}

const songColumns = "id, user_id, name, artist, image_url, created_at, updated_at"

func scanSong(row interface{ Scan(...interface{}) error }) (*model.Song, error) {
	song := &model.Song{}
	err := row.Scan(&song.ID, &song.UserID, &song.Name, &song.Artist, &song.ImageURL, &song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return song, nil
}

// CreateSong adds a new song to the database.
func (r *mysqlSongRepository) CreateSong(song *model.Song) (int64, error) {
	query := "INSERT INTO songs (user_id, name, artist, image_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare create song statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(song.UserID, song.Name, song.Artist, song.ImageURL, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute create song statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for song: %w", err)
	}
	return id, nil
}

// GetSongByID retrieves a song by its ID.
func (r *mysqlSongRepository) GetSongByID(id int64) (*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs WHERE id = ?"
	song, err := scanSong(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song row for ID %d: %w", id, err)
	}
	return song, nil
}

// GetAllSongsByUserID retrieves all songs owned by the given user.
func (r *mysqlSongRepository) GetAllSongsByUserID(userID int64) ([]*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs WHERE user_id = ? ORDER BY created_at DESC"
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs for user ID %d: %w", userID, err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song in GetAllSongsByUserID: %w", err)
		}
		songs = append(songs, song)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllSongsByUserID: %w", err)
	}

	return songs, nil
}

// FindByNameAndArtist looks up a song by its normalized (name, artist) pair
// within one owner's library. Stored values keep their original casing; the
// comparison trims and lowercases both sides.
func (r *mysqlSongRepository) FindByNameAndArtist(userID int64, name, artist string) (*model.Song, error) {
	query := "SELECT " + songColumns + ` FROM songs
		WHERE user_id = ? AND LOWER(TRIM(name)) = ? AND LOWER(TRIM(artist)) = ?`
	normName := strings.ToLower(strings.TrimSpace(name))
	normArtist := strings.ToLower(strings.TrimSpace(artist))

	song, err := scanSong(r.db.QueryRow(query, userID, normName, normArtist))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No duplicate
		}
		return nil, fmt.Errorf("failed to scan song row for user %d, name %q, artist %q: %w", userID, name, artist, err)
	}
	return song, nil
}

// UpdateSong applies a partial update and returns the updated record.
func (r *mysqlSongRepository) UpdateSong(id int64, upd SongUpdate) (*model.Song, error) {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Artist != nil {
		sets = append(sets, "artist = ?")
		args = append(args, *upd.Artist)
	}
	if upd.ImageURL != nil {
		sets = append(sets, "image_url = ?")
		args = append(args, *upd.ImageURL)
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now())
		args = append(args, id)

		query := "UPDATE songs SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		stmt, err := r.db.Prepare(query)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare update song statement: %w", err)
		}
		defer stmt.Close()

		if _, err = stmt.Exec(args...); err != nil {
			return nil, fmt.Errorf("failed to execute update song statement for ID %d: %w", id, err)
		}
	}

	return r.GetSongByID(id)
}

// DeleteSong removes a song and returns the removed record.
func (r *mysqlSongRepository) DeleteSong(id int64) (*model.Song, error) {
	song, err := r.GetSongByID(id)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, nil // Song not found
	}

	stmt, err := r.db.Prepare("DELETE FROM songs WHERE id = ?")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare delete song statement: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(id); err != nil {
		return nil, fmt.Errorf("failed to execute delete song statement for ID %d: %w", id, err)
	}
	return song, nil
}

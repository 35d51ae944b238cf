package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"songvault/core/songs"
	"songvault/logger"
)

// CreateSongRequest is the JSON body of a song creation (signed-upload flow).
type CreateSongRequest struct {
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	ImageURL string `json:"imageUrl"`
}

// UpdateSongRequest is a partial update; absent fields are left unchanged.
type UpdateSongRequest struct {
	Name     *string `json:"name"`
	Artist   *string `json:"artist"`
	ImageURL *string `json:"imageUrl"`
}

// GetSongsHandler returns every song owned by the caller.
func (h *APIHandler) GetSongsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	songList, err := h.songService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, songList)
}

// CreateSongHandler creates a song. With the local storage driver a
// multipart/form-data body carries the cover image in the same request; with
// signed uploads the JSON body references an already-uploaded object.
func (h *APIHandler) CreateSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if h.localCovers == nil {
			writeError(w, http.StatusBadRequest, "Direct uploads are not enabled on this server.")
			return
		}
		h.createSongFromUpload(w, r, userID)
		return
	}

	var req CreateSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	song, err := h.songService.Create(r.Context(), req.Name, req.Artist, req.ImageURL, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, song)
}

// UpdateSongHandler applies a partial update to one of the caller's songs.
func (h *APIHandler) UpdateSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	songID, err := songIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid song ID.")
		return
	}

	var req UpdateSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	song, err := h.songService.Update(r.Context(), songID, userID, songs.UpdateInput{
		Name:     req.Name,
		Artist:   req.Artist,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, song)
}

// DeleteSongHandler removes one of the caller's songs along with its cover.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	songID, err := songIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid song ID.")
		return
	}

	if _, err := h.songService.Delete(r.Context(), songID, userID); err != nil {
		writeServiceError(w, err)
		return
	}

	logger.Debug("Song delete acknowledged", logger.Int64("songId", songID))
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Song deleted.",
	})
}

func songIDFromRequest(r *http.Request) (int64, error) {
	vars := mux.Vars(r)
	return strconv.ParseInt(vars["id"], 10, 64)
}

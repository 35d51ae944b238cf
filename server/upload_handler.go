package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"songvault/logger"
)

// UploadURLRequest asks for a signed upload URL for a cover image of the
// declared MIME type.
type UploadURLRequest struct {
	FileType string `json:"fileType"`
}

// UploadURLHandler issues a signed upload grant. Only available with the
// object-storage driver; the local driver takes the bytes in the create
// request instead.
func (h *APIHandler) UploadURLHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := GetUserIDFromContext(r.Context()); err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	grant, err := h.songService.RequestUploadGrant(r.Context(), req.FileType)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, grant)
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9]+`)

// safeCoverName builds a filesystem-safe object name from the song name, a
// timestamp, and the original file extension.
func safeCoverName(songName, originalName string) string {
	base := unsafeNameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(songName)), "-")
	base = strings.Trim(base, "-")
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "cover"
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".jpg"
	}

	return fmt.Sprintf("%s--%s%s", base, time.Now().Format("20060102-150405"), ext)
}

// createSongFromUpload handles the local-disk creation flow: the cover image
// arrives as a multipart file alongside the song fields. Once the file is on
// disk, every failure path must remove it again so a rejected request leaves
// no orphaned image behind.
func (h *APIHandler) createSongFromUpload(w http.ResponseWriter, r *http.Request, userID int64) {
	// Leave headroom for the text fields beyond the image itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxImageSize+(64<<10))
	if err := r.ParseMultipartForm(h.cfg.MaxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "Image must be at most 2MB.")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Album cover image is required.")
		return
	}
	defer file.Close()

	if header.Size > h.cfg.MaxImageSize {
		writeError(w, http.StatusBadRequest, "Image must be at most 2MB.")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if !h.isAllowedImageType(mimeType) {
		writeError(w, http.StatusBadRequest, "Invalid file type. Only images are allowed.")
		return
	}

	name := r.FormValue("name")
	artist := r.FormValue("artist")

	objectName := safeCoverName(name, header.Filename)
	if err := h.localCovers.SaveCover(file, objectName); err != nil {
		logger.Error("[Upload] Failed to save cover", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	song, err := h.songService.Create(r.Context(), name, artist, h.localCovers.PublicURL(objectName), userID)
	if err != nil {
		// The file is already on disk; remove it before reporting the failure.
		if cleanupErr := h.localCovers.DeleteCover(r.Context(), objectName); cleanupErr != nil {
			logger.Error("[Upload] Failed to remove cover after rejected create",
				logger.String("object", objectName),
				logger.ErrorField(cleanupErr),
			)
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, song)
}

func (h *APIHandler) isAllowedImageType(mimeType string) bool {
	for _, allowed := range h.cfg.AllowedTypes {
		if mimeType == allowed {
			return true
		}
	}
	return false
}

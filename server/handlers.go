package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"songvault/config"
	"songvault/core/auth"
	"songvault/core/songs"
	"songvault/logger"
	"songvault/repository"
	"songvault/storage"
)

// APIHandler handles all API requests.
type APIHandler struct {
	songService *songs.Service
	userRepo    repository.UserRepository
	// localCovers is set only with the local storage driver; the create
	// handler then accepts multipart uploads and writes covers to disk.
	localCovers *storage.LocalStore
	cfg         *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	songService *songs.Service,
	userRepo repository.UserRepository,
	localCovers *storage.LocalStore,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		songService: songService,
		userRepo:    userRepo,
		localCovers: localCovers,
		cfg:         cfg,
	}
}

type contextKey string

const (
	userIDKey contextKey = "userID"
	emailKey  contextKey = "email"
)

// errorResponse is the body of every failure response.
type errorResponse struct {
	Status string   `json:"status"`
	Errors []string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, messages ...string) {
	writeJSON(w, status, errorResponse{Status: "error", Errors: messages})
}

// writeServiceError maps a song-service failure onto an HTTP response.
// Business-rule failures translate 1:1; anything else is reported as a
// generic internal error without leaking detail.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *songs.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Messages...)
	case errors.Is(err, songs.ErrDuplicateSong):
		writeError(w, http.StatusBadRequest, "This song by this artist already exists.")
	case errors.Is(err, songs.ErrSongNotFound):
		writeError(w, http.StatusNotFound, "Song not found.")
	case errors.Is(err, songs.ErrNotOwner):
		writeError(w, http.StatusForbidden, "You are not allowed to modify this song.")
	case errors.Is(err, songs.ErrUnsupportedImageType):
		writeError(w, http.StatusBadRequest, "Invalid file type. Only JPEG and PNG allowed.")
	case errors.Is(err, storage.ErrSignedUploadsDisabled):
		writeError(w, http.StatusBadRequest, "Signed uploads are not enabled on this server.")
	default:
		logger.Error("Unexpected service error", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// AuthMiddleware checks for a valid bearer token and stores the caller's
// identity in the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Missing or invalid token.")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Missing or invalid token.")
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, emailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDKey).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"songvault/config"
	"songvault/core/auth"
	"songvault/core/songs"
	"songvault/model"
	"songvault/repository"
	"songvault/storage"
)

// memoryUserRepo is an in-memory UserRepository for handler tests.
type memoryUserRepo struct {
	nextID  int64
	byEmail map[string]*model.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{nextID: 1, byEmail: make(map[string]*model.User)}
}

func (r *memoryUserRepo) CreateUser(user *model.User) (int64, error) {
	if _, exists := r.byEmail[user.Email]; exists {
		return 0, repository.ErrDuplicateUser
	}
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.nextID++
	r.byEmail[user.Email] = user
	return user.ID, nil
}

func (r *memoryUserRepo) GetUserByID(id int64) (*model.User, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepo) GetUserByEmail(email string) (*model.User, error) {
	return r.byEmail[email], nil
}

// grantingCoverStore issues stub upload grants and tracks deletions.
type grantingCoverStore struct {
	deleted []string
}

func (s *grantingCoverStore) IssueUploadGrant(ctx context.Context, objectName string) (string, error) {
	return "http://storage.test/upload/" + objectName, nil
}

func (s *grantingCoverStore) PublicURL(objectName string) string {
	return "http://storage.test/covers/" + objectName
}

func (s *grantingCoverStore) DeleteCover(ctx context.Context, objectName string) error {
	s.deleted = append(s.deleted, objectName)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		MaxImageSize: 2 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif"},
	}
}

// newTestRouter wires the API routes the same way Start does.
func newTestRouter(covers storage.CoverStore, localCovers *storage.LocalStore) (*mux.Router, *memoryUserRepo) {
	userRepo := newMemoryUserRepo()
	songService := songs.NewService(repository.NewMemorySongRepository(), covers)
	h := NewAPIHandler(songService, userRepo, localCovers, testConfig())

	router := mux.NewRouter()
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/upload-url", h.AuthMiddleware(h.UploadURLHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs", h.AuthMiddleware(h.GetSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs", h.AuthMiddleware(h.CreateSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}", h.AuthMiddleware(h.UpdateSongHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/songs/{id}", h.AuthMiddleware(h.DeleteSongHandler)).Methods(http.MethodDelete)
	return router, userRepo
}

func doJSON(t *testing.T, router *mux.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func tokenFor(t *testing.T, userID int64, email string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, email)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func decodeErrors(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	var body struct {
		Status string   `json:"status"`
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rec.Body.String(), err)
	}
	if body.Status != "error" {
		t.Errorf("expected status \"error\", got %q", body.Status)
	}
	return body.Errors
}

func TestRegisterAndLogin(t *testing.T) {
	router, _ := newTestRouter(&grantingCoverStore{}, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "demo.user@gmail.com",
		"password": "123456",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var registered struct {
		Token string      `json:"token"`
		User  *model.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &registered); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	if registered.Token == "" || registered.User == nil || registered.User.Email != "demo.user@gmail.com" {
		t.Fatalf("unexpected register response: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("register response must not expose the password hash")
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "demo.user@gmail.com",
		"password": "123456",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "demo.user@gmail.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router, _ := newTestRouter(&grantingCoverStore{}, nil)

	body := map[string]string{"email": "demo.user@gmail.com", "password": "123456"}
	if rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", body); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", body); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}
}

func TestSongsRequireAuth(t *testing.T) {
	router, _ := newTestRouter(&grantingCoverStore{}, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/songs", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/songs", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a garbage token, got %d", rec.Code)
	}
}

func TestCreateListAndDuplicate(t *testing.T) {
	router, _ := newTestRouter(&grantingCoverStore{}, nil)
	token := tokenFor(t, 1, "demo.user@gmail.com")

	rec := doJSON(t, router, http.MethodPost, "/api/songs", token, map[string]string{
		"name":     "Freak on a Leash",
		"artist":   "Korn",
		"imageUrl": "http://storage.test/covers/abc.png",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created model.Song
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode created song: %v", err)
	}
	if created.ID == 0 || created.UserID != 1 {
		t.Errorf("unexpected created song: %+v", created)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/songs", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listed []model.Song
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 song, got %d", len(listed))
	}

	// Same pair again, differently cased.
	rec = doJSON(t, router, http.MethodPost, "/api/songs", token, map[string]string{
		"name":     "FREAK ON A LEASH",
		"artist":   " korn ",
		"imageUrl": "http://storage.test/covers/other.png",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate, got %d", rec.Code)
	}
	errs := decodeErrors(t, rec)
	if len(errs) != 1 || !strings.Contains(errs[0], "already exists") {
		t.Errorf("unexpected duplicate errors: %v", errs)
	}

	// Another user can own the same pair.
	otherToken := tokenFor(t, 2, "empty.user@gmail.com")
	rec = doJSON(t, router, http.MethodPost, "/api/songs", otherToken, map[string]string{
		"name":     "Freak on a Leash",
		"artist":   "Korn",
		"imageUrl": "http://storage.test/covers/abc.png",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for another owner, got %d", rec.Code)
	}
}

func TestCreateValidationErrors(t *testing.T) {
	router, _ := newTestRouter(&grantingCoverStore{}, nil)
	token := tokenFor(t, 1, "demo.user@gmail.com")

	rec := doJSON(t, router, http.MethodPost, "/api/songs", token, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	errs := decodeErrors(t, rec)
	want := []string{"Name is required.", "Artist is required.", "Album cover image is required."}
	if len(errs) != len(want) {
		t.Fatalf("expected %d messages, got %v", len(want), errs)
	}
	for i := range want {
		if errs[i] != want[i] {
			t.Errorf("message %d: expected %q, got %q", i, want[i], errs[i])
		}
	}
}

func TestUpdateSongOwnershipAndNotFound(t *testing.T) {
	router, _ := newTestRouter(&grantingCoverStore{}, nil)
	owner := tokenFor(t, 1, "demo.user@gmail.com")
	stranger := tokenFor(t, 2, "empty.user@gmail.com")

	rec := doJSON(t, router, http.MethodPost, "/api/songs", owner, map[string]string{
		"name":     "Roots Bloody Roots",
		"artist":   "Sepultura",
		"imageUrl": "http://storage.test/covers/roots.png",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created model.Song
	json.Unmarshal(rec.Body.Bytes(), &created)

	update := map[string]string{"artist": "Sepultura (1996)"}
	path := fmt.Sprintf("/api/songs/%d", created.ID)

	if rec := doJSON(t, router, http.MethodPut, path, stranger, update); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a stranger, got %d", rec.Code)
	}

	if rec := doJSON(t, router, http.MethodPut, "/api/songs/999", owner, update); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing song, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, path, owner, update)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated model.Song
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Artist != "Sepultura (1996)" || updated.Name != "Roots Bloody Roots" {
		t.Errorf("unexpected updated song: %+v", updated)
	}
}

func TestDeleteSong(t *testing.T) {
	store := &grantingCoverStore{}
	router, _ := newTestRouter(store, nil)
	owner := tokenFor(t, 1, "demo.user@gmail.com")
	stranger := tokenFor(t, 2, "empty.user@gmail.com")

	rec := doJSON(t, router, http.MethodPost, "/api/songs", owner, map[string]string{
		"name":     "Pull the Plug",
		"artist":   "Death",
		"imageUrl": store.PublicURL("plug.png"),
	})
	var created model.Song
	json.Unmarshal(rec.Body.Bytes(), &created)
	path := fmt.Sprintf("/api/songs/%d", created.ID)

	if rec := doJSON(t, router, http.MethodDelete, path, stranger, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a stranger, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, path, owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "success" || body["message"] != "Song deleted." {
		t.Errorf("unexpected delete response: %v", body)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "plug.png" {
		t.Errorf("expected the cover object removed, got %v", store.deleted)
	}

	if rec := doJSON(t, router, http.MethodDelete, path, owner, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat delete, got %d", rec.Code)
	}
}

func TestUploadURLHandler(t *testing.T) {
	router, _ := newTestRouter(&grantingCoverStore{}, nil)
	token := tokenFor(t, 1, "demo.user@gmail.com")

	rec := doJSON(t, router, http.MethodPost, "/api/songs/upload-url", token, map[string]string{
		"fileType": "image/png",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var grant struct {
		FileName  string `json:"fileName"`
		UploadURL string `json:"uploadUrl"`
		PublicURL string `json:"publicUrl"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &grant); err != nil {
		t.Fatalf("failed to decode grant: %v", err)
	}
	if grant.FileName == "" || grant.UploadURL == "" || grant.PublicURL == "" {
		t.Errorf("incomplete grant: %+v", grant)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/songs/upload-url", token, map[string]string{
		"fileType": "image/gif",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for image/gif, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/songs/upload-url", "", map[string]string{
		"fileType": "image/png",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func multipartSongRequest(t *testing.T, name, artist string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if name != "" {
		writer.WriteField("name", name)
	}
	if artist != "" {
		writer.WriteField("artist", artist)
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="cover.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create image part: %v", err)
	}
	part.Write(image)
	writer.Close()
	return &buf, writer.FormDataContentType()
}

func TestCreateSongMultipartLocal(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}
	router, _ := newTestRouter(local, local)
	token := tokenFor(t, 1, "demo.user@gmail.com")

	body, contentType := multipartSongRequest(t, "Total Destruction", "Destruction", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/songs", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created model.Song
	json.Unmarshal(rec.Body.Bytes(), &created)
	if !strings.HasPrefix(created.ImageURL, "/uploads/covers/") {
		t.Errorf("expected a local serve path, got %q", created.ImageURL)
	}

	saved, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read cover dir: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("expected one saved cover, got %d", len(saved))
	}
	if !strings.HasPrefix(saved[0].Name(), "total-destruction--") {
		t.Errorf("unexpected cover file name %q", saved[0].Name())
	}
}

func TestCreateSongMultipartCleansUpOnRejectedCreate(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}
	router, _ := newTestRouter(local, local)
	token := tokenFor(t, 1, "demo.user@gmail.com")

	// Missing artist fails validation after the file is already on disk.
	body, contentType := multipartSongRequest(t, "Total Destruction", "", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/songs", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	saved, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read cover dir: %v", err)
	}
	if len(saved) != 0 {
		names := make([]string, 0, len(saved))
		for _, entry := range saved {
			names = append(names, filepath.Base(entry.Name()))
		}
		t.Fatalf("expected the rejected cover removed, found %v", names)
	}
}

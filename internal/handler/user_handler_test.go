package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sarthak-sharma31/AniMark/internal/middleware"
	"github.com/sarthak-sharma31/AniMark/internal/model"
)

// pngHeader はPNGファイルのシグネチャ。
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartImage(t *testing.T, field string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "avatar.bin")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write(content)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUserHandler_GetProfile(t *testing.T) {
	svc := &mockUserService{
		getProfileFn: func(ctx context.Context, userID string) (*profileResponse, error) {
			return &profileResponse{
				User:            userResponse{ID: userID, Username: "alice"},
				Stats:           statsResponse{Watchlist: 3},
				ProfileImageURL: model.DefaultProfileImageURL,
			}, nil
		},
	}
	h := NewUserHandler(svc, nil)

	w := httptest.NewRecorder()
	h.GetProfile(w, withUserID(httptest.NewRequest(http.MethodGet, "/api/me", nil), "user-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp profileResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.User.ID != "user-1" || resp.Stats.Watchlist != 3 || resp.ProfileImageURL != model.DefaultProfileImageURL {
		t.Errorf("response = %+v", resp)
	}
}

func TestUserHandler_UpdateProfile_PartialFields(t *testing.T) {
	var gotUsername, gotEmail *string
	svc := &mockUserService{
		updateProfileFn: func(ctx context.Context, userID string, username, email *string) (*userResponse, error) {
			gotUsername, gotEmail = username, email
			return &userResponse{ID: userID, Username: *username}, nil
		},
	}
	h := NewUserHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/me", strings.NewReader(`{"username":"alice2"}`))
	w := httptest.NewRecorder()
	h.UpdateProfile(w, withUserID(req, "user-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotUsername == nil || *gotUsername != "alice2" {
		t.Errorf("username = %v, want alice2", gotUsername)
	}
	if gotEmail != nil {
		t.Errorf("email = %v, want nil", *gotEmail)
	}
}

func TestUserHandler_ChangePassword_WrongCurrent(t *testing.T) {
	svc := &mockUserService{
		changePasswordFn: func(ctx context.Context, userID, current, next string) error {
			if current != "old-password" || next != "new-password" {
				t.Errorf("got (%q, %q)", current, next)
			}
			return model.NewInvalidCredentialsError()
		},
	}
	h := NewUserHandler(svc, nil)

	body := `{"currentPassword":"old-password","newPassword":"new-password"}`
	w := httptest.NewRecorder()
	h.ChangePassword(w, withUserID(httptest.NewRequest(http.MethodPut, "/api/me/password", strings.NewReader(body)), "user-1"))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestUserHandler_UploadProfileImage_SniffsContentType(t *testing.T) {
	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 1024)...)

	var gotType string
	var gotBytes []byte
	var gotSize int64
	svc := &mockUserService{
		uploadImageFn: func(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (string, error) {
			gotType, gotSize = contentType, size
			gotBytes, _ = io.ReadAll(r)
			return "https://cdn.example.com/animark/profile-images/user-1/x.png", nil
		},
	}
	h := NewUserHandler(svc, nil)

	body, ct := multipartImage(t, profileImageField, content)
	req := httptest.NewRequest(http.MethodPut, "/api/me/image", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.UploadProfileImage(w, withUserID(req, "user-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
	}
	if gotType != "image/png" {
		t.Errorf("content type = %q, want image/png", gotType)
	}
	if gotSize != int64(len(content)) {
		t.Errorf("size = %d, want %d", gotSize, len(content))
	}
	if !bytes.Equal(gotBytes, content) {
		t.Error("uploaded bytes differ from the original file")
	}
	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["profileImageUrl"] == "" {
		t.Error("expected profileImageUrl in response")
	}
}

func TestUserHandler_UploadProfileImage_MissingFile(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, nil)

	body, ct := multipartImage(t, "other", pngHeader)
	req := httptest.NewRequest(http.MethodPut, "/api/me/image", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.UploadProfileImage(w, withUserID(req, "user-1"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestUserHandler_Withdraw_ClearsSessionCookie(t *testing.T) {
	withdrawn := ""
	svc := &mockUserService{
		withdrawFn: func(ctx context.Context, userID string) error {
			withdrawn = userID
			return nil
		},
	}
	h := NewUserHandler(svc, NewAuthHandler(&mockAuthService{}, AuthHandlerConfig{}))

	w := httptest.NewRecorder()
	h.Withdraw(w, withUserID(httptest.NewRequest(http.MethodDelete, "/api/me", nil), "user-123"))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if withdrawn != "user-123" {
		t.Errorf("withdrawn = %q, want %q", withdrawn, "user-123")
	}
	cookie := findCookie(w.Result(), middleware.SessionCookieName)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Errorf("expected cleared session cookie, got %+v", cookie)
	}
}

func TestUserHandler_NoUserID_ReturnsUnauthorized(t *testing.T) {
	h := NewUserHandler(&mockUserService{
		withdrawFn: func(ctx context.Context, userID string) error {
			t.Fatal("Withdraw should not be called")
			return nil
		},
	}, nil)

	tests := []struct {
		name string
		fn   http.HandlerFunc
	}{
		{"GetProfile", h.GetProfile},
		{"UpdateProfile", h.UpdateProfile},
		{"ChangePassword", h.ChangePassword},
		{"UploadProfileImage", h.UploadProfileImage},
		{"Withdraw", h.Withdraw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.fn(w, httptest.NewRequest(http.MethodPut, "/api/me", nil))
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

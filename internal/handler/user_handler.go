package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/sarthak-sharma31/AniMark/internal/model"
)

const (
	// maxUploadBodySize はプロフィール画像アップロードのリクエスト全体の上限。
	// 画像サイズ自体の上限はサービス層で検証する。
	maxUploadBodySize = 10 << 20
	profileImageField = "image"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*profileResponse, error)
	UpdateProfile(ctx context.Context, userID string, username, email *string) (*userResponse, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	UploadProfileImage(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (string, error)
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	auth    *AuthHandler
}

// NewUserHandler はUserHandlerを生成する。
// authは退会時のセッションCookie削除に使用する。
func NewUserHandler(service UserServiceInterface, auth *AuthHandler) *UserHandler {
	return &UserHandler{service: service, auth: auth}
}

type updateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// GetProfile はログインユーザーのプロフィールを返す。
// GET /api/me
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile はユーザー名・メールアドレスを更新する。
// PUT /api/me
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, req.Username, req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ChangePassword はパスワードを変更する。
// PUT /api/me/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadProfileImage はプロフィール画像をmultipart/form-dataで受け取り保存する。
// PUT /api/me/image
func (h *UserHandler) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodySize)
	file, header, err := r.FormFile(profileImageField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeAPIErrorResponse(w, http.StatusRequestEntityTooLarge, model.NewValidationError("画像サイズが大きすぎます"))
			return
		}
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("画像ファイルが指定されていません"))
		return
	}
	defer file.Close()

	// Content-Typeはクライアントの申告ではなく先頭バイトから判定する
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("画像ファイルを読み込めませんでした"))
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)

	url, err := h.service.UploadProfileImage(r.Context(), userID,
		io.MultiReader(bytes.NewReader(head), file), header.Size, contentType)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"profileImageUrl": url})
}

// Withdraw はユーザーの退会処理を行う。
// DELETE /api/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	if h.auth != nil {
		h.auth.clearSessionCookie(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Package user はアカウント登録、プロフィール管理、退会のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sarthak-sharma31/AniMark/internal/auth"
	"github.com/sarthak-sharma31/AniMark/internal/model"
	"github.com/sarthak-sharma31/AniMark/internal/repository"
	"github.com/sarthak-sharma31/AniMark/internal/storage"
)

const (
	maxUsernameLength = 50
	maxEmailLength    = 254
	// DefaultMaxImageSize はプロフィール画像の既定の最大サイズ（2MiB）。
	DefaultMaxImageSize = 2 << 20
)

// imageExtensions は受け付ける画像形式と保存時の拡張子。
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// RegisterInput はアカウント登録の入力。
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfileInput はプロフィール更新の入力。nilのフィールドは変更しない。
type UpdateProfileInput struct {
	Username *string
	Email    *string
}

// ImageUpload はアップロードされた画像。
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Profile はプロフィール画面の表示内容。
type Profile struct {
	User     *model.User
	Stats    *model.UserStats
	ImageURL string
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	images       storage.ObjectStore
	maxImageSize int64
}

// NewService はServiceの新しいインスタンスを生成する。
// imagesがnilの場合、プロフィール画像のアップロードは利用できない。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	images storage.ObjectStore,
	maxImageSize int64,
) *Service {
	if maxImageSize <= 0 {
		maxImageSize = DefaultMaxImageSize
	}
	return &Service{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		images:       images,
		maxImageSize: maxImageSize,
	}
}

// Register はアカウントを登録する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username, err := normalizeUsername(in.Username)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := time.Now().UTC()
	u := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateUserError()
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("ユーザーを登録しました", slog.String("user_id", u.ID))
	return u, nil
}

// GetProfile はプロフィールを返す。画像URLはリクエストごとに保存済みのキーから導出する。
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.userRepo.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("リスト件数の集計に失敗しました: %w", err)
	}
	return &Profile{User: u, Stats: stats, ImageURL: s.imageURL(u)}, nil
}

// UpdateProfile はユーザー名とメールアドレスを更新する。
// 投稿済みコメントのユーザー名は変更しない。
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error) {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	username, email := u.Username, u.Email
	if in.Username != nil {
		if username, err = normalizeUsername(*in.Username); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if email, err = normalizeEmail(*in.Email); err != nil {
			return nil, err
		}
	}
	if username == u.Username && email == u.Email {
		return u, nil
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, username, email); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateUserError()
		}
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	u.Username, u.Email = username, email
	return u, nil
}

// ChangePassword は現在のパスワードを確認したうえでパスワードを変更する。
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return model.NewInvalidCredentialsError()
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("パスワードの更新に失敗しました: %w", err)
	}
	return nil
}

// UploadProfileImage はプロフィール画像を保存し、公開URLを返す。
func (s *Service) UploadProfileImage(ctx context.Context, userID string, img ImageUpload) (string, error) {
	if s.images == nil {
		return "", model.NewUpstreamUnavailableError()
	}
	ext, ok := imageExtensions[img.ContentType]
	if !ok {
		return "", model.NewValidationError("画像は JPEG、PNG、GIF、WebP のいずれかを指定してください")
	}
	if img.Size <= 0 || img.Size > s.maxImageSize {
		return "", model.NewValidationError(fmt.Sprintf("画像サイズは%dバイト以下にしてください", s.maxImageSize))
	}

	u, err := s.findUser(ctx, userID)
	if err != nil {
		return "", err
	}

	// 1. 新しい画像を保存
	key := fmt.Sprintf("profile-images/%s/%s%s", userID, uuid.New().String(), ext)
	if err := s.images.Put(ctx, key, img.Reader, img.Size, img.ContentType); err != nil {
		slog.Error("プロフィール画像の保存に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return "", model.NewUpstreamUnavailableError()
	}

	// 2. ユーザーのキーを更新
	if err := s.userRepo.UpdateProfileImage(ctx, userID, key); err != nil {
		// 参照されない新しい画像を残さない
		s.removeImage(ctx, userID, key)
		return "", fmt.Errorf("プロフィール画像の更新に失敗しました: %w", err)
	}

	// 3. 古い画像を削除（失敗しても処理は継続）
	if u.ProfileImageKey != "" {
		s.removeImage(ctx, userID, u.ProfileImageKey)
	}

	return s.images.URL(key), nil
}

// Withdraw はユーザーの退会処理を実行する。
// リスト、共有リンク、コメント、セッションはCASCADE削除される。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	slog.Info("退会処理を開始します", slog.String("user_id", userID))

	// 1. セッションを削除
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 2. ユーザーを削除
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	// 3. プロフィール画像を削除
	if u.ProfileImageKey != "" {
		s.removeImage(ctx, userID, u.ProfileImageKey)
	}

	slog.Info("退会処理が完了しました", slog.String("user_id", userID))
	return nil
}

func (s *Service) findUser(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}

func (s *Service) imageURL(u *model.User) string {
	if u.ProfileImageKey == "" || s.images == nil {
		return model.DefaultProfileImageURL
	}
	return s.images.URL(u.ProfileImageKey)
}

func (s *Service) removeImage(ctx context.Context, userID, key string) {
	if s.images == nil {
		return
	}
	if err := s.images.Remove(ctx, key); err != nil {
		slog.Warn("プロフィール画像の削除に失敗しました",
			slog.String("user_id", userID),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func normalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if username == "" {
		return "", model.NewValidationError("ユーザー名を入力してください")
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return "", model.NewValidationError(fmt.Sprintf("ユーザー名は%d文字以内で入力してください", maxUsernameLength))
	}
	if strings.ContainsAny(username, "<>") {
		return "", model.NewValidationError("ユーザー名に使用できない文字が含まれています")
	}
	return username, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", model.NewValidationError("メールアドレスを入力してください")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || len(email) > maxEmailLength {
		return "", model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	return email, nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < auth.MinPasswordLength {
		return model.NewValidationError(fmt.Sprintf("パスワードは%d文字以上で入力してください", auth.MinPasswordLength))
	}
	if len(password) > 72 {
		return model.NewValidationError("パスワードが長すぎます")
	}
	return nil
}

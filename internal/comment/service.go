// Package comment はアニメへのコメント投稿と閲覧のドメインロジックを提供する。
package comment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sarthak-sharma31/AniMark/internal/model"
	"github.com/sarthak-sharma31/AniMark/internal/repository"
	"github.com/sarthak-sharma31/AniMark/internal/security"
)

// MaxTextLength はコメント本文の最大文字数。
const MaxTextLength = 2000

// Service はコメントのサービス層。
type Service struct {
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	sanitizer   security.TextSanitizer
	logger      *slog.Logger
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	sanitizer security.TextSanitizer,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		commentRepo: commentRepo,
		userRepo:    userRepo,
		sanitizer:   sanitizer,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock はテスト用に現在時刻の取得関数を差し替える。
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// PostComment はアニメにコメントを投稿する。
// ユーザー名は投稿時点の値を複製して保存する。
func (s *Service) PostComment(ctx context.Context, userID, animeID, text string) (*model.Comment, error) {
	if err := model.ValidateAnimeID(animeID); err != nil {
		return nil, err
	}

	body := strings.TrimSpace(text)
	if s.sanitizer != nil {
		body = s.sanitizer.StripTags(body)
	}
	if body == "" {
		return nil, model.NewValidationError("コメントを入力してください")
	}
	if len([]rune(body)) > MaxTextLength {
		return nil, model.NewValidationError(fmt.Sprintf("コメントは%d文字以内で入力してください", MaxTextLength))
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	c := &model.Comment{
		ID:       uuid.New().String(),
		AnimeID:  animeID,
		UserID:   userID,
		Username: user.Username,
		Text:     body,
		Date:     s.now().UTC(),
	}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrUserMissing) {
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("コメントの保存に失敗しました: %w", err)
	}

	s.logger.Info("コメントを投稿しました",
		slog.String("user_id", userID),
		slog.String("anime_id", animeID),
		slog.String("comment_id", c.ID),
	)
	return c, nil
}

// GetCommentsForAnime はアニメに対する全ユーザーのコメントを投稿日時順に返す。
func (s *Service) GetCommentsForAnime(ctx context.Context, animeID string) ([]*model.Comment, error) {
	if err := model.ValidateAnimeID(animeID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByAnimeID(ctx, animeID)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	if comments == nil {
		comments = []*model.Comment{}
	}
	return comments, nil
}

// DeleteComment は投稿者本人のコメントを削除する。
func (s *Service) DeleteComment(ctx context.Context, userID, commentID string) error {
	if _, err := uuid.Parse(commentID); err != nil {
		return model.NewCommentNotFoundError(commentID)
	}
	c, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	if c == nil {
		return model.NewCommentNotFoundError(commentID)
	}
	if c.UserID != userID {
		return model.NewForbiddenError()
	}

	if err := s.commentRepo.DeleteByID(ctx, commentID); err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	return nil
}

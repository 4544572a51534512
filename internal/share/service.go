// Package share はリストの共有リンク（static / dynamic）のドメインロジックを提供する。
package share

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sarthak-sharma31/AniMark/internal/catalog"
	"github.com/sarthak-sharma31/AniMark/internal/model"
	"github.com/sarthak-sharma31/AniMark/internal/repository"
	"github.com/sarthak-sharma31/AniMark/internal/security"
)

const (
	// ExpirationPermanent は無期限リンクを指定するための値。
	ExpirationPermanent = "permanent"
	// MaxExpirationDays は作成時に指定できる有効期限の上限日数。
	MaxExpirationDays = 365
	// maxSnapshotNameLength はスナップショット名の最大文字数。
	maxSnapshotNameLength = 100
)

// ListReader はユーザーのリスト内容を読み出すインターフェース。
type ListReader interface {
	ListAnimeIDs(ctx context.Context, userID string, listType model.ListType) ([]string, error)
}

// CreateInput は共有リンク作成の入力。
type CreateInput struct {
	ListType model.ListType
	// Expiration は有効期限の日数、または "permanent"。空文字は無期限として扱う。
	Expiration   string
	SnapshotName string
}

// LinkInfo は共有リンク一覧の表示用情報。
type LinkInfo struct {
	Link    *model.SharedLink
	URL     string
	Expired bool
}

// LinkDetails は共有リンクの閲覧結果。
type LinkDetails struct {
	Link  *model.SharedLink
	Anime []*model.Anime
}

// Service は共有リンクのサービス層。
type Service struct {
	linkRepo  repository.SharedLinkRepository
	userRepo  repository.UserRepository
	lists     ListReader
	catalog   catalog.Service
	sanitizer security.TextSanitizer
	baseURL   string
	logger    *slog.Logger
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	linkRepo repository.SharedLinkRepository,
	userRepo repository.UserRepository,
	lists ListReader,
	catalogSvc catalog.Service,
	sanitizer security.TextSanitizer,
	baseURL string,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		linkRepo:  linkRepo,
		userRepo:  userRepo,
		lists:     lists,
		catalog:   catalogSvc,
		sanitizer: sanitizer,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock はテスト用に現在時刻の取得関数を差し替える。
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CreateStaticShareLink は作成時点のリスト内容を固定した共有リンクを作成する。
func (s *Service) CreateStaticShareLink(ctx context.Context, userID string, in CreateInput) (*model.SharedLink, error) {
	return s.create(ctx, userID, model.LinkTypeStatic, in)
}

// CreateDynamicShareLink は閲覧時に現在のリストを読み直す共有リンクを作成する。
func (s *Service) CreateDynamicShareLink(ctx context.Context, userID string, in CreateInput) (*model.SharedLink, error) {
	return s.create(ctx, userID, model.LinkTypeDynamic, in)
}

func (s *Service) create(ctx context.Context, userID string, linkType model.LinkType, in CreateInput) (*model.SharedLink, error) {
	listType, err := model.ParseListType(in.ListType.String())
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	expiration, err := ParseExpiration(in.Expiration, now)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	link := &model.SharedLink{
		ID:           uuid.New().String(),
		UserID:       userID,
		Type:         linkType,
		ListType:     listType,
		AnimeIDs:     []string{},
		SnapshotName: s.snapshotName(in.SnapshotName, listType),
		CreatedAt:    now,
		Expiration:   expiration,
	}

	// staticリンクは作成時点のリスト内容を固定する
	if linkType == model.LinkTypeStatic {
		ids, err := s.lists.ListAnimeIDs(ctx, userID, listType)
		if err != nil {
			return nil, fmt.Errorf("リストの取得に失敗しました: %w", err)
		}
		link.AnimeIDs = append([]string{}, ids...)
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("共有リンクの作成に失敗しました: %w", err)
	}

	s.logger.Info("共有リンクを作成しました",
		slog.String("user_id", userID),
		slog.String("link_id", link.ID),
		slog.String("link_type", string(linkType)),
		slog.String("list_type", listType.String()),
		slog.Int("anime_count", len(link.AnimeIDs)),
	)
	return link, nil
}

// ResolveShareLink は共有リンクをアニメIDの列に解決する。
// 期限切れの場合はLINK_NOT_FOUNDと区別してLINK_EXPIREDを返す。
func (s *Service) ResolveShareLink(ctx context.Context, linkID string) (*model.ResolvedLink, error) {
	link, err := s.findLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.IsExpired(s.now()) {
		return nil, model.NewLinkExpiredError()
	}

	if link.Type == model.LinkTypeStatic {
		return &model.ResolvedLink{Link: link, AnimeIDs: link.AnimeIDs}, nil
	}

	ids, err := s.lists.ListAnimeIDs(ctx, link.UserID, link.ListType)
	if err != nil {
		return nil, fmt.Errorf("共有元リストの取得に失敗しました: %w", err)
	}
	return &model.ResolvedLink{Link: link, AnimeIDs: ids}, nil
}

// ResolveShareLinkDetails は共有リンクを解決し、アニメ情報を付与して返す。
// カタログ参照に失敗したアニメは除外される。
func (s *Service) ResolveShareLinkDetails(ctx context.Context, linkID string) (*LinkDetails, error) {
	resolved, err := s.ResolveShareLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	return &LinkDetails{
		Link:  resolved.Link,
		Anime: s.catalog.FetchMany(ctx, resolved.AnimeIDs),
	}, nil
}

// AdjustLinkExpiration は有効期限を±1日ずらす。
// 無期限リンクに期限を設定することはできない。
func (s *Service) AdjustLinkExpiration(ctx context.Context, userID, linkID string, deltaDays int) (*model.SharedLink, error) {
	if deltaDays != 1 && deltaDays != -1 {
		return nil, model.NewValidationError("有効期限の変更は1日単位（1または-1）で指定してください")
	}

	link, err := s.findLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.UserID != userID {
		return nil, model.NewLinkNotFoundError(linkID)
	}
	if link.Expiration == nil {
		return nil, model.NewNoExpirationError()
	}

	expiration, err := s.linkRepo.ShiftExpiration(ctx, userID, linkID, deltaDays)
	if err != nil {
		return nil, fmt.Errorf("有効期限の更新に失敗しました: %w", err)
	}
	if expiration == nil {
		// 取得後に削除された場合
		return nil, model.NewLinkNotFoundError(linkID)
	}
	link.Expiration = expiration
	return link, nil
}

// DeleteShareLink は共有リンクを削除する。存在しない場合も成功とする。
func (s *Service) DeleteShareLink(ctx context.Context, userID, linkID string) error {
	if _, err := uuid.Parse(linkID); err != nil {
		return nil
	}
	if err := s.linkRepo.DeleteByUserAndID(ctx, userID, linkID); err != nil {
		return fmt.Errorf("共有リンクの削除に失敗しました: %w", err)
	}
	return nil
}

// ListShareLinks はユーザーの共有リンクを作成日時の新しい順に返す。
func (s *Service) ListShareLinks(ctx context.Context, userID string) ([]LinkInfo, error) {
	links, err := s.linkRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("共有リンク一覧の取得に失敗しました: %w", err)
	}
	now := s.now()
	infos := make([]LinkInfo, len(links))
	for i, l := range links {
		infos[i] = LinkInfo{Link: l, URL: s.ShareURL(l.ID), Expired: l.IsExpired(now)}
	}
	return infos, nil
}

// ShareURL は共有リンクの公開URLを返す。
func (s *Service) ShareURL(linkID string) string {
	return s.baseURL + "/shared/" + linkID
}

// findLink はリンクIDで共有リンクを取得する。UUID形式でないIDは存在しないものとして扱う。
func (s *Service) findLink(ctx context.Context, linkID string) (*model.SharedLink, error) {
	if _, err := uuid.Parse(linkID); err != nil {
		return nil, model.NewLinkNotFoundError(linkID)
	}
	link, err := s.linkRepo.FindByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("共有リンクの取得に失敗しました: %w", err)
	}
	if link == nil {
		return nil, model.NewLinkNotFoundError(linkID)
	}
	return link, nil
}

func (s *Service) snapshotName(raw string, listType model.ListType) string {
	name := raw
	if s.sanitizer != nil {
		name = s.sanitizer.StripTags(name)
	}
	name = strings.TrimSpace(security.TruncateRunes(strings.TrimSpace(name), maxSnapshotNameLength))
	if name == "" {
		return model.DefaultSnapshotName(listType)
	}
	return name
}

// ParseExpiration は有効期限の指定を解釈する。
// 空文字または "permanent" は無期限（nil）、正の整数はnowからの日数として扱う。
func ParseExpiration(raw string, now time.Time) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, ExpirationPermanent) {
		return nil, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return nil, model.NewValidationError("有効期限は正の日数または permanent で指定してください")
	}
	if days > MaxExpirationDays {
		return nil, model.NewValidationError(fmt.Sprintf("有効期限は%d日以内で指定してください", MaxExpirationDays))
	}
	exp := now.AddDate(0, 0, days)
	return &exp, nil
}

// Package library はユーザーのアニメリスト（watchlist / markedAnime / ongoingAnime）と
// 視聴進捗のドメインロジックを提供する。
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sarthak-sharma31/AniMark/internal/catalog"
	"github.com/sarthak-sharma31/AniMark/internal/metrics"
	"github.com/sarthak-sharma31/AniMark/internal/model"
	"github.com/sarthak-sharma31/AniMark/internal/repository"
)

// DefaultCompletionCheckTimeout は進捗記録後の総話数取得に許す時間の既定値。
const DefaultCompletionCheckTimeout = 10 * time.Second

// ProgressResult は視聴進捗の記録結果を表す。
type ProgressResult struct {
	AnimeID            string
	LastWatchedEpisode int
	// Completed は最終話に到達しcompletedAnimeへ移動した場合にtrue。
	Completed bool
}

// OngoingItem は視聴中エントリとアニメ情報の組。
type OngoingItem struct {
	Entry model.OngoingEntry
	Anime *model.Anime
}

// CompletedItem は完了エントリとアニメ情報の組。
type CompletedItem struct {
	Entry model.CompletedEntry
	Anime *model.Anime
}

// listReader はリスト種別ごとのアニメID取得関数。
type listReader func(ctx context.Context, userID string) ([]string, error)

// Service はリスト操作のサービス層。
type Service struct {
	userRepo     repository.UserRepository
	listRepo     repository.ListRepository
	progressRepo repository.ProgressRepository
	catalog      catalog.Service
	metrics      metrics.MetricsCollector
	logger       *slog.Logger
	readers      map[model.ListType]listReader

	// CompletionCheckTimeout は完了判定のための総話数取得の時間上限（デフォルト: 10秒）
	CompletionCheckTimeout time.Duration
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	listRepo repository.ListRepository,
	progressRepo repository.ProgressRepository,
	catalogSvc catalog.Service,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		userRepo:     userRepo,
		listRepo:     listRepo,
		progressRepo: progressRepo,
		catalog:      catalogSvc,
		metrics:      collector,
		logger:       logger,

		CompletionCheckTimeout: DefaultCompletionCheckTimeout,
	}
	s.readers = map[model.ListType]listReader{
		model.ListTypeWatchlist:   s.membershipReader(model.ListTypeWatchlist),
		model.ListTypeMarkedAnime: s.membershipReader(model.ListTypeMarkedAnime),
		model.ListTypeOngoing:     s.ongoingReader,
	}
	return s
}

func (s *Service) membershipReader(listType model.ListType) listReader {
	return func(ctx context.Context, userID string) ([]string, error) {
		return s.listRepo.ListEntries(ctx, userID, listType)
	}
}

func (s *Service) ongoingReader(ctx context.Context, userID string) ([]string, error) {
	entries, err := s.progressRepo.ListOngoing(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.AnimeID
	}
	return ids, nil
}

// AddToList はアニメを集合型リストに追加する。既に含まれている場合は何もしない。
func (s *Service) AddToList(ctx context.Context, userID string, listType model.ListType, animeID string) error {
	if err := s.validateMembership(listType, animeID); err != nil {
		return err
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}

	if err := s.listRepo.AddEntry(ctx, userID, listType, animeID); err != nil {
		if errors.Is(err, repository.ErrUserMissing) {
			return model.NewUserNotFoundError()
		}
		return fmt.Errorf("リストへの追加に失敗しました: %w", err)
	}

	s.logger.Info("リストに追加しました",
		slog.String("user_id", userID),
		slog.String("list_type", listType.String()),
		slog.String("anime_id", animeID),
	)
	return nil
}

// RemoveFromList はアニメを集合型リストから削除する。含まれていない場合も成功とする。
func (s *Service) RemoveFromList(ctx context.Context, userID string, listType model.ListType, animeID string) error {
	if err := s.validateMembership(listType, animeID); err != nil {
		return err
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}

	if err := s.listRepo.RemoveEntry(ctx, userID, listType, animeID); err != nil {
		return fmt.Errorf("リストからの削除に失敗しました: %w", err)
	}
	return nil
}

// ListAnimeIDs はリストに含まれるアニメIDを返す。
func (s *Service) ListAnimeIDs(ctx context.Context, userID string, listType model.ListType) ([]string, error) {
	reader, ok := s.readers[listType]
	if !ok {
		return nil, model.NewInvalidListTypeError(listType.String())
	}
	ids, err := reader(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("リストの取得に失敗しました: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// GetList はリストのアニメ情報を返す。
// カタログ参照に失敗したアニメは結果から除外され、エラーにはならない。
func (s *Service) GetList(ctx context.Context, userID string, listType model.ListType) ([]*model.Anime, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	ids, err := s.ListAnimeIDs(ctx, userID, listType)
	if err != nil {
		return nil, err
	}
	return s.catalog.FetchMany(ctx, ids), nil
}

// RecordProgress は視聴話数を記録する。
// 話数の後退も受け付ける。記録した話数が総話数と一致した場合はcompletedAnimeへ移動する。
// カタログ参照に失敗した場合は進捗のみ記録し、完了判定は行わない。
func (s *Service) RecordProgress(ctx context.Context, userID, animeID string, episode int) (*ProgressResult, error) {
	if err := model.ValidateAnimeID(animeID); err != nil {
		return nil, err
	}
	if episode <= 0 {
		return nil, model.NewValidationError("話数は1以上で指定してください")
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	// 1. 進捗を記録（markedAnimeへの追加を含む）
	if err := s.progressRepo.RecordProgress(ctx, userID, animeID, episode); err != nil {
		if errors.Is(err, repository.ErrUserMissing) {
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("視聴進捗の記録に失敗しました: %w", err)
	}

	result := &ProgressResult{AnimeID: animeID, LastWatchedEpisode: episode}

	// 2. 総話数を取得（記録済みの進捗は期限切れでも保持される）
	anime, err := s.lookupEpisodes(ctx, animeID)
	if err != nil {
		s.logger.Warn("総話数の取得に失敗したため完了判定をスキップします",
			slog.String("user_id", userID),
			slog.String("anime_id", animeID),
			slog.String("error", err.Error()),
		)
		return result, nil
	}
	if !anime.IsFinalEpisode(episode) {
		return result, nil
	}

	// 3. 最終話ならcompletedAnimeへ移動
	promoted, err := s.progressRepo.PromoteToCompleted(ctx, userID, animeID, episode)
	if err != nil {
		return nil, fmt.Errorf("視聴完了への移動に失敗しました: %w", err)
	}
	if promoted {
		result.Completed = true
		s.metrics.RecordAnimeCompleted()
		s.logger.Info("アニメを視聴完了にしました",
			slog.String("user_id", userID),
			slog.String("anime_id", animeID),
			slog.Int("episode", episode),
		)
	}
	return result, nil
}

func (s *Service) lookupEpisodes(ctx context.Context, animeID string) (*model.Anime, error) {
	if s.CompletionCheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.CompletionCheckTimeout)
		defer cancel()
	}
	return s.catalog.GetAnimeByID(ctx, animeID)
}

// ClearProgress は視聴中エントリを削除する。markedAnimeとcompletedAnimeは変更しない。
func (s *Service) ClearProgress(ctx context.Context, userID, animeID string) error {
	if err := model.ValidateAnimeID(animeID); err != nil {
		return err
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	if err := s.progressRepo.ClearProgress(ctx, userID, animeID); err != nil {
		return fmt.Errorf("視聴進捗の削除に失敗しました: %w", err)
	}
	return nil
}

// GetOngoing は視聴中のアニメを進捗付きで返す。
// カタログ参照に失敗したエントリは除外される。
func (s *Service) GetOngoing(ctx context.Context, userID string) ([]OngoingItem, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	entries, err := s.progressRepo.ListOngoing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("視聴中リストの取得に失敗しました: %w", err)
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.AnimeID
	}
	byID := indexByID(s.catalog.FetchMany(ctx, ids))

	items := make([]OngoingItem, 0, len(entries))
	for _, e := range entries {
		if a, ok := byID[e.AnimeID]; ok {
			items = append(items, OngoingItem{Entry: e, Anime: a})
		}
	}
	return items, nil
}

// GetCompleted は視聴完了履歴をアニメ情報付きで返す。
func (s *Service) GetCompleted(ctx context.Context, userID string) ([]CompletedItem, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	entries, err := s.progressRepo.ListCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("視聴完了履歴の取得に失敗しました: %w", err)
	}

	ids := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !seen[e.AnimeID] {
			seen[e.AnimeID] = true
			ids = append(ids, e.AnimeID)
		}
	}
	byID := indexByID(s.catalog.FetchMany(ctx, ids))

	items := make([]CompletedItem, 0, len(entries))
	for _, e := range entries {
		if a, ok := byID[e.AnimeID]; ok {
			items = append(items, CompletedItem{Entry: e, Anime: a})
		}
	}
	return items, nil
}

// GetAnimeDetails は1件のアニメ情報を返す。
// 単一のアニメ取得ではカタログ障害をUPSTREAM_UNAVAILABLEとして返す。
func (s *Service) GetAnimeDetails(ctx context.Context, animeID string) (*model.Anime, error) {
	if err := model.ValidateAnimeID(animeID); err != nil {
		return nil, err
	}
	anime, err := s.catalog.GetAnimeByID(ctx, animeID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, model.NewAnimeNotFoundError(animeID)
		}
		s.logger.Error("カタログからの取得に失敗しました",
			slog.String("anime_id", animeID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamUnavailableError()
	}
	return anime, nil
}

// validateMembership は集合型リストへの操作の入力を検証する。
func (s *Service) validateMembership(listType model.ListType, animeID string) error {
	if _, ok := s.readers[listType]; !ok {
		return model.NewInvalidListTypeError(listType.String())
	}
	if !listType.IsMembershipList() {
		return model.NewValidationError("ongoingAnimeは視聴進捗APIで更新してください")
	}
	return model.ValidateAnimeID(animeID)
}

// ensureUser はユーザーの存在を確認する。
func (s *Service) ensureUser(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}
	return nil
}

func indexByID(animes []*model.Anime) map[string]*model.Anime {
	byID := make(map[string]*model.Anime, len(animes))
	for _, a := range animes {
		byID[a.ID] = a
	}
	return byID
}

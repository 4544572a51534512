package library

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sarthak-sharma31/AniMark/internal/catalog"
	"github.com/sarthak-sharma31/AniMark/internal/model"
)

const (
	maxSearchQueryLength = 100
	firstSeasonYear      = 1917
)

var seasons = map[string]bool{
	"winter": true,
	"spring": true,
	"summer": true,
	"fall":   true,
}

// BrowseService はカタログの一覧・検索を公開APIとして提供する。
// カタログの失敗は一覧全体が得られないため UPSTREAM_UNAVAILABLE として返す。
type BrowseService struct {
	browser catalog.Browser
	logger  *slog.Logger
	now     func() time.Time
}

// NewBrowseService はBrowseServiceを生成する。
func NewBrowseService(browser catalog.Browser, logger *slog.Logger) *BrowseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowseService{browser: browser, logger: logger, now: time.Now}
}

// Top は人気アニメの一覧を返す。
func (s *BrowseService) Top(ctx context.Context) ([]*model.Anime, error) {
	list, err := s.browser.Top(ctx)
	return s.result(list, err, "top")
}

// Search はタイトルでアニメを検索する。
func (s *BrowseService) Search(ctx context.Context, query string) ([]*model.Anime, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.NewValidationError("検索キーワードが指定されていません")
	}
	if utf8.RuneCountInString(query) > maxSearchQueryLength {
		return nil, model.NewValidationError("検索キーワードが長すぎます")
	}
	list, err := s.browser.Search(ctx, query)
	return s.result(list, err, "search")
}

// Season は指定年・シーズンのアニメ一覧を返す。
func (s *BrowseService) Season(ctx context.Context, year int, season string) ([]*model.Anime, error) {
	season = strings.ToLower(season)
	if !seasons[season] {
		return nil, model.NewValidationError("シーズンは winter、spring、summer、fall のいずれかを指定してください")
	}
	if year < firstSeasonYear || year > s.now().Year()+1 {
		return nil, model.NewValidationError("年の指定が範囲外です")
	}
	list, err := s.browser.Season(ctx, year, season)
	return s.result(list, err, "season")
}

func (s *BrowseService) result(list []*model.Anime, err error, op string) ([]*model.Anime, error) {
	if err != nil {
		s.logger.Warn("catalog browse failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamUnavailableError()
	}
	if list == nil {
		list = []*model.Anime{}
	}
	return list, nil
}

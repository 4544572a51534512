package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sarthak-sharma31/AniMark/internal/model"
)

// defaultMaxConcurrent は同時に発行するカタログ参照数の既定値。
const defaultMaxConcurrent = 4

// DefaultLookupBudget は1回のGetAnimeByID/FetchMany全体に許す時間の既定値。
// HTTPサーバーのWriteTimeout(30秒)より短い。
const DefaultLookupBudget = 15 * time.Second

// Service はリスト表示に必要なカタログ参照機能のインターフェース。
type Service interface {
	Lookup
	// FetchMany は複数のアニメを並列に取得し、入力順に返す。
	// 取得に失敗したアニメは結果から除外される。
	FetchMany(ctx context.Context, ids []string) []*model.Anime
}

// Fetcher はLookupをsemaphoreパターンで並列実行する。
type Fetcher struct {
	lookup        Lookup
	logger        *slog.Logger
	maxConcurrent int
	LookupBudget  time.Duration // 呼び出し1回あたりの時間上限（デフォルト: 15秒）
}

// NewFetcher はFetcherを生成する。
// maxConcurrentが0以下の場合はデフォルト値4を使用する。
func NewFetcher(lookup Lookup, logger *slog.Logger, maxConcurrent int) *Fetcher {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Fetcher{
		lookup:        lookup,
		logger:        logger,
		maxConcurrent: maxConcurrent,
		LookupBudget:  DefaultLookupBudget,
	}
}

// withBudget は呼び出し元のコンテキストにLookupBudgetの期限を設定する。
func (f *Fetcher) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.LookupBudget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.LookupBudget)
}

// GetAnimeByID は1件のアニメを取得する。
func (f *Fetcher) GetAnimeByID(ctx context.Context, id string) (*model.Anime, error) {
	ctx, cancel := f.withBudget(ctx)
	defer cancel()
	return f.lookup.GetAnimeByID(ctx, id)
}

// FetchMany は複数のアニメを並列に取得し、入力順に返す。
// 個々の失敗はログに記録して除外し、全体としては失敗しない。
// LookupBudgetを超えた時点で未完了の取得は打ち切り、取得済みの分だけを返す。
func (f *Fetcher) FetchMany(ctx context.Context, ids []string) []*model.Anime {
	ctx, cancel := f.withBudget(ctx)
	defer cancel()

	results := make([]*model.Anime, len(ids))

	sem := make(chan struct{}, f.maxConcurrent)
	var wg sync.WaitGroup

	skipped := 0
	for i, id := range ids {
		// semaphore取得（期限切れなら残りは発行しない）
		if ctx.Err() == nil {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			skipped = len(ids) - i
			break
		}

		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			anime, err := f.lookup.GetAnimeByID(ctx, id)
			if err != nil {
				f.logger.Warn("アニメ情報の取得に失敗したため一覧から除外します",
					slog.String("anime_id", id),
					slog.String("error", err.Error()),
				)
				return
			}
			results[i] = anime
		}(i, id)
	}

	wg.Wait()

	if skipped > 0 {
		f.logger.Warn("時間上限に達したため残りのアニメ取得を打ち切りました",
			slog.Int("skipped", skipped),
			slog.Duration("budget", f.LookupBudget),
		)
	}

	out := make([]*model.Anime, 0, len(ids))
	for _, a := range results {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// compile-time interface check
var _ Service = (*Fetcher)(nil)

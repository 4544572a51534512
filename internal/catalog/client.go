// Package catalog は外部アニメカタログ（Jikan API）への参照を提供する。
// カタログのデータはシステムが所有せず、表示のたびに取得する。
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sarthak-sharma31/AniMark/internal/metrics"
	"github.com/sarthak-sharma31/AniMark/internal/model"
)

const (
	// DefaultBaseURL はJikan API v4のベースURL。
	DefaultBaseURL = "https://api.jikan.moe/v4"
	// topAnimeLimit は人気アニメ一覧で返す最大件数。
	topAnimeLimit = 20
	// maxResponseSize はレスポンスボディの最大サイズ（2MB）。
	maxResponseSize = 2 * 1024 * 1024
)

var (
	// ErrNotFound はカタログにアニメが存在しないことを表す。
	ErrNotFound = errors.New("anime not found in catalog")
	// ErrUnavailable はカタログへの問い合わせが失敗したことを表す。
	ErrUnavailable = errors.New("catalog unavailable")
)

// Lookup はアニメIDからメタデータを取得するインターフェース。
type Lookup interface {
	// GetAnimeByID はアニメのメタデータを取得する。
	// 存在しない場合はErrNotFound、取得に失敗した場合はErrUnavailableをラップしたエラーを返す。
	GetAnimeByID(ctx context.Context, id string) (*model.Anime, error)
}

// Browser はアニメの一覧・検索機能のインターフェース。
type Browser interface {
	Top(ctx context.Context) ([]*model.Anime, error)
	Search(ctx context.Context, query string) ([]*model.Anime, error)
	Season(ctx context.Context, year int, season string) ([]*model.Anime, error)
}

// Config はカタログクライアントの設定。
type Config struct {
	BaseURL        string
	MaxRetries     int
	RetryBaseDelay time.Duration
	RatePerSecond  float64
	Burst          int
	// CallBudget は再試行を含む1回の呼び出し全体の時間上限。0以下なら上限なし。
	CallBudget time.Duration
}

// Client はJikan APIのクライアント。
// 送信前に共有のレートリミッターで待機し、429/5xxは指数バックオフで再試行する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
	limiter    *rate.Limiter
	baseURL    string // テスト用に差し替え可能
	maxRetries int
	retryBase  time.Duration
	callBudget time.Duration
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		if burst <= 0 {
			burst = 1
		}
	}

	if collector == nil {
		collector = metrics.Nop{}
	}

	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    collector,
		limiter:    rate.NewLimiter(limit, burst),
		baseURL:    baseURL,
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBaseDelay,
		callBudget: cfg.CallBudget,
	}
}

// jikanImages はJikan APIの画像情報。
type jikanImages struct {
	JPG struct {
		ImageURL      string `json:"image_url"`
		LargeImageURL string `json:"large_image_url"`
	} `json:"jpg"`
}

// jikanAnime はJikan APIのアニメ情報のうち利用する項目。
type jikanAnime struct {
	MalID    int         `json:"mal_id"`
	Title    string      `json:"title"`
	Images   jikanImages `json:"images"`
	Score    *float64    `json:"score"`
	Episodes *int        `json:"episodes"`
	Status   string      `json:"status"`
	Synopsis string      `json:"synopsis"`
	Genres   []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

func (a *jikanAnime) toModel() *model.Anime {
	image := a.Images.JPG.LargeImageURL
	if image == "" {
		image = a.Images.JPG.ImageURL
	}
	genres := make([]string, 0, len(a.Genres))
	for _, g := range a.Genres {
		genres = append(genres, g.Name)
	}
	return &model.Anime{
		ID:       strconv.Itoa(a.MalID),
		Title:    a.Title,
		ImageURL: image,
		Score:    a.Score,
		Episodes: a.Episodes,
		Genres:   genres,
		Status:   a.Status,
		Synopsis: a.Synopsis,
	}
}

// GetAnimeByID はアニメのメタデータを取得する。
func (c *Client) GetAnimeByID(ctx context.Context, id string) (*model.Anime, error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordCatalogLatency(time.Since(start))
	}()

	var body struct {
		Data jikanAnime `json:"data"`
	}
	err := c.getJSON(ctx, "/anime/"+url.PathEscape(id), nil, &body)
	switch {
	case errors.Is(err, ErrNotFound):
		c.metrics.RecordCatalogLookup(metrics.OutcomeNotFound)
		return nil, err
	case err != nil:
		c.metrics.RecordCatalogLookup(metrics.OutcomeFailure)
		return nil, err
	}

	c.metrics.RecordCatalogLookup(metrics.OutcomeSuccess)
	anime := body.Data.toModel()
	anime.ID = id
	return anime, nil
}

// Top は人気順のアニメ一覧（先頭20件）を取得する。
func (c *Client) Top(ctx context.Context) ([]*model.Anime, error) {
	q := url.Values{}
	q.Set("filter", "bypopularity")
	list, err := c.getList(ctx, "/top/anime", q)
	if err != nil {
		return nil, err
	}
	if len(list) > topAnimeLimit {
		list = list[:topAnimeLimit]
	}
	return list, nil
}

// Search はタイトルでアニメを検索する。
func (c *Client) Search(ctx context.Context, query string) ([]*model.Anime, error) {
	q := url.Values{}
	q.Set("q", query)
	return c.getList(ctx, "/anime", q)
}

// Season は指定年・シーズンのアニメ一覧を取得する。
func (c *Client) Season(ctx context.Context, year int, season string) ([]*model.Anime, error) {
	return c.getList(ctx, fmt.Sprintf("/seasons/%d/%s", year, url.PathEscape(season)), nil)
}

func (c *Client) getList(ctx context.Context, path string, query url.Values) ([]*model.Anime, error) {
	var body struct {
		Data []jikanAnime `json:"data"`
	}
	if err := c.getJSON(ctx, path, query, &body); err != nil {
		return nil, err
	}
	list := make([]*model.Anime, 0, len(body.Data))
	for i := range body.Data {
		list = append(list, body.Data[i].toModel())
	}
	return list, nil
}

// getJSON はGETリクエストを送信し、レスポンスをoutにデコードする。
// 429/5xxおよび通信エラーは最大maxRetries回まで再試行する。
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	if c.callBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callBudget)
		defer cancel()
	}

	var lastErr error
	var serverWait time.Duration
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Retry-Afterとバックオフの長い方だけ待つ
			delay := max(serverWait, calculateBackoff(c.retryBase, attempt-1))
			if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
				return lastErr
			}
			if err := sleep(ctx, delay); err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}

		// 1. 送信レートの制御
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		// 2. リクエスト送信
		retry, wait, err := c.doOnce(ctx, reqURL, out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
		serverWait = wait

		c.logger.Warn("カタログAPIの呼び出しを再試行します",
			slog.String("url", reqURL),
			slog.Int("attempt", attempt+1),
			slog.Duration("retry_after", wait),
			slog.String("error", err.Error()),
		)
	}

	return lastErr
}

// doOnce は1回分のリクエストを実行する。
// 戻り値のretryは再試行すべきかどうか、waitはサーバーが指定した待機時間。
func (c *Client) doOnce(ctx context.Context, reqURL string, out any) (retry bool, wait time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, 0, fmt.Errorf("%w: failed to build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "AniMark/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, 0, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
		// タイムアウトは応答しない上流の兆候なので再試行しない
		return !isTimeout(err), 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.metrics.RecordCatalogStatus(resp.StatusCode)

	switch classifyStatus(resp.StatusCode) {
	case statusOK:
	case statusNotFound:
		return false, 0, ErrNotFound
	case statusRetry:
		return true, retryAfter(resp.Header), fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return false, 0, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return !isTimeout(err), 0, fmt.Errorf("%w: failed to read body: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, 0, fmt.Errorf("%w: failed to decode body: %v", ErrUnavailable, err)
	}
	return false, 0, nil
}

// isTimeout はhttp.Client.Timeoutなどによるタイムアウトかを判定する。
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// sleep はコンテキストのキャンセルを考慮して待機する。
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// compile-time interface check
var (
	_ Lookup  = (*Client)(nil)
	_ Browser = (*Client)(nil)
)

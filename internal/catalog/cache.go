package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sarthak-sharma31/AniMark/internal/metrics"
	"github.com/sarthak-sharma31/AniMark/internal/model"
)

// cacheKeyPrefix はアニメメタデータのキャッシュキーの接頭辞。
const cacheKeyPrefix = "animark:anime:"

// Cache はTTL付きのキーバリューキャッシュのインターフェース。
type Cache interface {
	// Get はキーの値を返す。存在しない場合はfound=falseを返す。
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set はTTL付きで値を保存する。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache はRedisを使用したCache実装。
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache はRedis接続URL（redis://host:6379/0 形式）からRedisCacheを生成する。
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// Ping はRedisへの接続を確認する。
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// Get はキーの値を返す。redis.Nilはキャッシュミスとして扱う。
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache key: %w", err)
	}
	return val, true, nil
}

// Set はTTL付きで値を保存する。
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key: %w", err)
	}
	return nil
}

// Close はRedis接続を閉じる。
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedLookup はキャッシュを前段に置いたLookup。
// キャッシュの障害時はカタログへ直接問い合わせる。未検出の結果はキャッシュしない。
type CachedLookup struct {
	next    Lookup
	cache   Cache
	ttl     time.Duration
	logger  *slog.Logger
	metrics metrics.MetricsCollector
}

// NewCachedLookup はCachedLookupを生成する。
func NewCachedLookup(next Lookup, cache Cache, ttl time.Duration, logger *slog.Logger, collector metrics.MetricsCollector) *CachedLookup {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &CachedLookup{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
		metrics: collector,
	}
}

// GetAnimeByID はキャッシュを参照し、ミスの場合はカタログから取得して保存する。
func (l *CachedLookup) GetAnimeByID(ctx context.Context, id string) (*model.Anime, error) {
	key := cacheKeyPrefix + id

	// 1. キャッシュ参照
	raw, found, err := l.cache.Get(ctx, key)
	if err != nil {
		l.logger.Warn("カタログキャッシュの読み取りに失敗しました",
			slog.String("anime_id", id),
			slog.String("error", err.Error()),
		)
	}
	if found {
		var anime model.Anime
		if err := json.Unmarshal(raw, &anime); err == nil {
			l.metrics.RecordCacheHit()
			return &anime, nil
		}
	}
	l.metrics.RecordCacheMiss()

	// 2. カタログから取得
	anime, err := l.next.GetAnimeByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3. キャッシュへ保存（失敗しても結果は返す）
	if encoded, err := json.Marshal(anime); err == nil {
		if err := l.cache.Set(ctx, key, encoded, l.ttl); err != nil {
			l.logger.Warn("カタログキャッシュの書き込みに失敗しました",
				slog.String("anime_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return anime, nil
}

// compile-time interface check
var (
	_ Cache  = (*RedisCache)(nil)
	_ Lookup = (*CachedLookup)(nil)
)

package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/sarthak-sharma31/AniMark/internal/auth"
	"github.com/sarthak-sharma31/AniMark/internal/catalog"
	"github.com/sarthak-sharma31/AniMark/internal/comment"
	"github.com/sarthak-sharma31/AniMark/internal/config"
	"github.com/sarthak-sharma31/AniMark/internal/handler"
	"github.com/sarthak-sharma31/AniMark/internal/library"
	"github.com/sarthak-sharma31/AniMark/internal/metrics"
	"github.com/sarthak-sharma31/AniMark/internal/middleware"
	"github.com/sarthak-sharma31/AniMark/internal/repository"
	"github.com/sarthak-sharma31/AniMark/internal/security"
	"github.com/sarthak-sharma31/AniMark/internal/share"
	"github.com/sarthak-sharma31/AniMark/internal/storage"
	"github.com/sarthak-sharma31/AniMark/internal/user"
)

const (
	catalogRetryBaseDelay = 500 * time.Millisecond
	dependencyTimeout     = 5 * time.Second
)

// api はワイヤリング済みのHTTPハンドラーと、終了時に解放するリソース。
type api struct {
	handler     http.Handler
	registry    *prometheus.Registry
	rateLimiter *middleware.RateLimiter
	closers     []io.Closer
}

// Close はレートリミッターのクリーンアップを停止し、外部接続を閉じる。
func (a *api) Close() error {
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}

	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildAPI はリポジトリ、外部クライアント、サービス、ハンドラーを組み立てる。
// REDIS_URLとMINIO_ENDPOINTは任意で、未設定の場合はキャッシュと画像アップロードが無効になる。
func buildAPI(ctx context.Context, cfg *config.Config, db *sql.DB, logger *slog.Logger) (*api, error) {
	a := &api{}

	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	listRepo := repository.NewPostgresListRepo(db)
	progressRepo := repository.NewPostgresProgressRepo(db)
	linkRepo := repository.NewPostgresSharedLinkRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)

	// 2. メトリクス
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(a.registry)

	// 3. カタログクライアント（SSRF対策済みHTTPクライアント + 任意のRedisキャッシュ）
	guard := security.NewOutboundGuard()
	if err := guard.ValidateBaseURL(cfg.Catalog.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid catalog base URL: %w", err)
	}
	client := catalog.NewClient(guard.NewSafeClient(cfg.Catalog.Timeout), logger, collector, catalog.Config{
		BaseURL:        cfg.Catalog.BaseURL,
		MaxRetries:     cfg.Catalog.MaxRetries,
		RetryBaseDelay: catalogRetryBaseDelay,
		RatePerSecond:  cfg.Catalog.RatePerSecond,
		Burst:          1,
		CallBudget:     cfg.Catalog.LookupBudget,
	})

	var lookup catalog.Lookup = client
	if cfg.RedisURL != "" {
		cache, err := catalog.NewRedisCache(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, cache)

		pingCtx, cancel := context.WithTimeout(ctx, dependencyTimeout)
		if err := cache.Ping(pingCtx); err != nil {
			logger.Warn("redis is unreachable; catalog cache will degrade to direct lookups",
				slog.String("error", err.Error()),
			)
		}
		cancel()

		lookup = catalog.NewCachedLookup(client, cache, cfg.Catalog.CacheTTL, logger, collector)
	}
	fetcher := catalog.NewFetcher(lookup, logger, cfg.Catalog.MaxConcurrent)
	fetcher.LookupBudget = cfg.Catalog.LookupBudget

	// 4. プロフィール画像ストレージ
	var images storage.ObjectStore
	if cfg.Minio.Enabled() {
		store, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
			PublicURL: cfg.Minio.PublicURL,
		})
		if err != nil {
			a.Close()
			return nil, err
		}

		bucketCtx, cancel := context.WithTimeout(ctx, dependencyTimeout)
		err = store.EnsureBucket(bucketCtx)
		cancel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to prepare profile image bucket: %w", err)
		}
		images = store
	} else {
		logger.Info("MINIO_ENDPOINT is not set; profile image upload is disabled")
	}

	// 5. ドメインサービスの初期化
	sanitizer := security.NewTextSanitizer()
	tokens := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)

	authService := auth.NewService(userRepo, sessionRepo, tokens, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
	})
	userService := user.NewService(userRepo, sessionRepo, images, cfg.ProfileImageMaxSize)
	libraryService := library.NewService(userRepo, listRepo, progressRepo, fetcher, collector, logger)
	libraryService.CompletionCheckTimeout = cfg.Catalog.LookupBudget
	browseService := library.NewBrowseService(client, logger)
	shareService := share.NewService(linkRepo, userRepo, libraryService, fetcher, sanitizer, cfg.BaseURL, logger)
	commentService := comment.NewService(commentRepo, userRepo, sanitizer, logger)

	// 6. ルーターの構築
	a.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(cfg.RateLimit.GeneralRate),
		GeneralBurst:    cfg.RateLimit.GeneralBurst,
		CommentRate:     rate.Limit(cfg.RateLimit.CommentRate),
		CommentBurst:    cfg.RateLimit.CommentBurst,
		CleanupInterval: middleware.DefaultRateLimiterConfig().CleanupInterval,
	})

	a.handler = handler.NewRouter(&handler.RouterDeps{
		HealthChecker:      db,
		SessionFinder:      sessionRepo,
		TokenParser:        authService,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        a.rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		HSTS:           cfg.CookieSecure,
		Logger:         logger,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(a.registry),

		AuthService: handler.NewAuthServiceAdapter(authService, userService),
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: int(cfg.SessionMaxAge.Seconds()),
		},

		UserService:    handler.NewUserServiceAdapter(userService),
		ListService:    handler.NewListServiceAdapter(libraryService),
		ShareService:   handler.NewShareServiceAdapter(shareService),
		AnimeService:   handler.NewAnimeServiceAdapter(browseService, libraryService),
		CommentService: handler.NewCommentServiceAdapter(commentService),
	})

	return a, nil
}

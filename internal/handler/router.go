package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sarthak-sharma31/AniMark/internal/metrics"
	"github.com/sarthak-sharma31/AniMark/internal/middleware"
)

// HealthChecker はヘルスチェックで依存先の疎通を確認するインターフェース。
// *sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker      HealthChecker
	SessionFinder      middleware.SessionFinder
	TokenParser        middleware.TokenParser
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	CSRFConfig         middleware.CSRFConfig
	HSTS               bool
	Logger             *slog.Logger
	Metrics            metrics.MetricsCollector
	MetricsHandler     http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ユーザー
	UserService UserServiceInterface

	// リスト・視聴進捗
	ListService ListServiceInterface

	// 共有リンク
	ShareService ShareServiceInterface

	// アニメ情報・コメント
	AnimeService   AnimeServiceInterface
	CommentService CommentServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → Auth → RateLimit(General) → CSRF
//
// 公開ルート（/health、/metrics、/auth/register、/auth/login、/shared/*、アニメ閲覧）は認証チェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService, authHandler)
	listHandler := NewListHandler(deps.ListService)
	shareHandler := NewShareHandler(deps.ShareService)
	animeHandler := NewAnimeHandler(deps.AnimeService, deps.CommentService)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)

	r.Get("/shared/{linkID}", shareHandler.Resolve)
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// アニメ閲覧（コメント投稿と同じパスを共有するため Route ではなく個別に登録する）
	r.Get("/api/anime/top", animeHandler.Top)
	r.Get("/api/anime/search", animeHandler.Search)
	r.Get("/api/anime/genre/{genre}", animeHandler.SearchByGenre)
	r.Get("/api/anime/season/{year}/{season}", animeHandler.Season)
	r.Get("/api/anime/{animeID}", animeHandler.Details)
	r.Get("/api/anime/{animeID}/comments", animeHandler.ListComments)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.SessionFinder, deps.TokenParser))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Post("/auth/logout", authHandler.Logout)

		// ユーザー管理
		r.Route("/api/me", func(r chi.Router) {
			r.Get("/", userHandler.GetProfile)
			r.Put("/", userHandler.UpdateProfile)
			r.Delete("/", userHandler.Withdraw)
			r.Put("/password", userHandler.ChangePassword)
			r.Put("/image", userHandler.UploadProfileImage)
		})

		// watchlist / markedAnime
		r.Route("/api/lists/{listType}", func(r chi.Router) {
			r.Get("/", listHandler.GetList)
			r.Post("/", listHandler.AddToList)
			r.Delete("/{animeID}", listHandler.RemoveFromList)
		})

		// 視聴進捗
		r.Route("/api/progress", func(r chi.Router) {
			r.Get("/", listHandler.GetOngoing)
			r.Get("/completed", listHandler.GetCompleted)
			r.Put("/{animeID}", listHandler.RecordProgress)
			r.Delete("/{animeID}", listHandler.ClearProgress)
		})

		// 共有リンク管理
		r.Route("/api/share-links", func(r chi.Router) {
			r.Get("/", shareHandler.List)
			r.Post("/static", shareHandler.CreateStatic)
			r.Post("/dynamic", shareHandler.CreateDynamic)
			r.Patch("/{linkID}/expiration", shareHandler.AdjustExpiration)
			r.Delete("/{linkID}", shareHandler.Delete)
		})

		// コメント（投稿専用レート制限を追加）
		r.With(deps.RateLimiter.CommentMiddleware()).Post("/api/anime/{animeID}/comments", animeHandler.PostComment)
		r.Delete("/api/comments/{commentID}", animeHandler.DeleteComment)
	})

	return r
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sarthak-sharma31/AniMark/internal/middleware"
	"github.com/sarthak-sharma31/AniMark/internal/model"
	"golang.org/x/time/rate"
)

type stubSessions struct{}

func (stubSessions) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if id == "valid-session" {
		return &model.Session{ID: id, UserID: "cookie-user", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	return nil, nil
}

type stubTokens struct{}

func (stubTokens) ParseToken(token string) (string, error) {
	if token == "valid-token" {
		return "bearer-user", nil
	}
	return "", errors.New("invalid token")
}

type stubHealth struct{ err error }

func (s stubHealth) PingContext(ctx context.Context) error { return s.err }

type routerEnv struct {
	handler  http.Handler
	lists    *mockListService
	comments *mockCommentService
	limiter  *middleware.RateLimiter
}

func newRouterEnv(t *testing.T) *routerEnv {
	t.Helper()
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(100),
		GeneralBurst:    100,
		CommentRate:     rate.Limit(0.01),
		CommentBurst:    1,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(limiter.Stop)

	env := &routerEnv{
		lists:    &mockListService{},
		comments: &mockCommentService{},
		limiter:  limiter,
	}
	env.handler = NewRouter(&RouterDeps{
		HealthChecker:      stubHealth{},
		SessionFinder:      stubSessions{},
		TokenParser:        stubTokens{},
		CORSAllowedOrigins: []string{"https://animark.example.com"},
		RateLimiter:        limiter,
		Logger:             slog.New(slog.NewJSONHandler(io.Discard, nil)),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "# metrics")
		}),
		AuthService:    &mockAuthService{},
		UserService:    &mockUserService{},
		ListService:    env.lists,
		ShareService:   &mockShareService{},
		AnimeService:   &mockAnimeService{},
		CommentService: env.comments,
	})
	return env
}

func (e *routerEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func bearer(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer valid-token")
	return req
}

func TestRouter_PublicRoutes(t *testing.T) {
	env := newRouterEnv(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/anime/top", http.StatusOK},
		{http.MethodGet, "/api/anime/search?q=bebop", http.StatusOK},
		{http.MethodGet, "/api/anime/genre/action", http.StatusOK},
		{http.MethodGet, "/api/anime/season/2024/spring", http.StatusOK},
		{http.MethodGet, "/api/anime/1", http.StatusOK},
		{http.MethodGet, "/api/anime/1/comments", http.StatusOK},
		{http.MethodGet, "/shared/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/csrf-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.do(httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	env := newRouterEnv(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/auth/logout"},
		{http.MethodGet, "/api/me"},
		{http.MethodPut, "/api/me/password"},
		{http.MethodGet, "/api/lists/watchlist"},
		{http.MethodPost, "/api/lists/watchlist"},
		{http.MethodDelete, "/api/lists/watchlist/1"},
		{http.MethodGet, "/api/progress"},
		{http.MethodGet, "/api/progress/completed"},
		{http.MethodPut, "/api/progress/1"},
		{http.MethodGet, "/api/share-links"},
		{http.MethodPost, "/api/share-links/static"},
		{http.MethodPatch, "/api/share-links/abc/expiration"},
		{http.MethodPost, "/api/anime/1/comments"},
		{http.MethodDelete, "/api/comments/c-1"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.do(httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestRouter_BearerAuth_ReachesHandler(t *testing.T) {
	env := newRouterEnv(t)
	var gotUser string
	env.lists.addFn = func(ctx context.Context, userID string, listType model.ListType, animeID string) error {
		gotUser = userID
		return nil
	}

	req := bearer(httptest.NewRequest(http.MethodPost, "/api/lists/watchlist", strings.NewReader(`{"animeId":"1"}`)))
	w := env.do(req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if gotUser != "bearer-user" {
		t.Errorf("userID = %q, want bearer-user", gotUser)
	}
}

func TestRouter_CookieAuth_RequiresCSRFForMutations(t *testing.T) {
	env := newRouterEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/lists/watchlist", strings.NewReader(`{"animeId":"1"}`))
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "valid-session"})
	if w := env.do(req); w.Code != http.StatusForbidden {
		t.Errorf("without csrf: status = %d, want %d", w.Code, http.StatusForbidden)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/lists/watchlist", strings.NewReader(`{"animeId":"1"}`))
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "valid-session"})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "tok"})
	req.Header.Set("X-CSRF-Token", "tok")
	if w := env.do(req); w.Code != http.StatusNoContent {
		t.Errorf("with csrf: status = %d, want %d", w.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/lists/watchlist", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "valid-session"})
	if w := env.do(req); w.Code != http.StatusOK {
		t.Errorf("safe method: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_CommentRateLimit(t *testing.T) {
	env := newRouterEnv(t)

	post := func() int {
		req := bearer(httptest.NewRequest(http.MethodPost, "/api/anime/1/comments", strings.NewReader(`{"text":"hi"}`)))
		return env.do(req).Code
	}

	if got := post(); got != http.StatusCreated {
		t.Fatalf("first comment: status = %d, want %d", got, http.StatusCreated)
	}
	if got := post(); got != http.StatusTooManyRequests {
		t.Errorf("second comment: status = %d, want %d", got, http.StatusTooManyRequests)
	}

	// コメント一覧の取得は投稿制限の影響を受けない
	if w := env.do(httptest.NewRequest(http.MethodGet, "/api/anime/1/comments", nil)); w.Code != http.StatusOK {
		t.Errorf("list comments: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_SecurityAndCORSHeaders(t *testing.T) {
	env := newRouterEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/lists/watchlist", nil)
	req.Header.Set("Origin", "https://animark.example.com")
	w := env.do(req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://animark.example.com" {
		t.Error("missing CORS headers")
	}
}

func TestRouter_HealthUnavailable(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer limiter.Stop()

	h := NewRouter(&RouterDeps{
		HealthChecker: stubHealth{err: errors.New("db down")},
		RateLimiter:   limiter,
		Logger:        slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

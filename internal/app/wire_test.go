package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sarthak-sharma31/AniMark/internal/config"
	"github.com/sarthak-sharma31/AniMark/internal/database"
)

func newTestAPI(t *testing.T) *api {
	t.Helper()
	setTestEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	a, err := buildAPI(context.Background(), cfg, db, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("buildAPI() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func serve(a *api, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func TestBuildAPI_PublicCSRFTokenRoute(t *testing.T) {
	a := newTestAPI(t)

	rec := serve(a, http.MethodGet, "/api/csrf-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "token") {
		t.Errorf("body = %s, want token", rec.Body.String())
	}
}

func TestBuildAPI_ProtectedRouteRequiresAuth(t *testing.T) {
	a := newTestAPI(t)

	rec := serve(a, http.MethodGet, "/api/lists/watchlist")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestBuildAPI_HealthReportsUnreachableDatabase(t *testing.T) {
	a := newTestAPI(t)

	rec := serve(a, http.MethodGet, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestBuildAPI_MetricsExposeHTTPRequests(t *testing.T) {
	a := newTestAPI(t)

	serve(a, http.MethodGet, "/api/csrf-token")
	rec := serve(a, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, name := range []string{"animark_http_requests_total", "go_goroutines"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output does not contain %s", name)
		}
	}
}

func TestBuildAPI_RejectsUnsafeCatalogURL(t *testing.T) {
	setTestEnv(t)
	t.Setenv("CATALOG_BASE_URL", "http://169.254.169.254/latest")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close()

	var buf bytes.Buffer
	_, err = buildAPI(context.Background(), cfg, db, slog.New(slog.NewJSONHandler(&buf, nil)))
	if err == nil {
		t.Fatal("expected error for link-local catalog URL")
	}
	if !strings.Contains(err.Error(), "invalid catalog base URL") {
		t.Errorf("error = %v", err)
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DotEnvFile は起動時に読み込むローカル開発用の環境変数ファイル。
const DotEnvFile = ".env"

// maxLookupBudget はWriteTimeout(30秒)に余裕を残したLookupBudgetの上限。
const maxLookupBudget = 25 * time.Second

// CatalogConfig は外部アニメカタログ(Jikan API)への接続設定。
type CatalogConfig struct {
	BaseURL       string
	Timeout       time.Duration
	MaxConcurrent int
	RatePerSecond float64
	MaxRetries    int
	CacheTTL      time.Duration
	// LookupBudget はリスト組み立てや完了判定など、1リクエスト内のカタログ参照全体に許す時間。
	// HTTPサーバーのWriteTimeoutより短くする。
	LookupBudget time.Duration
}

// MinioConfig はプロフィール画像を保存するオブジェクトストレージの設定。
// Endpointが空の場合、画像アップロードは無効になる。
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// Enabled はオブジェクトストレージが設定されているかを返す。
func (c MinioConfig) Enabled() bool {
	return c.Endpoint != ""
}

// RateLimitConfig はユーザー単位のレート制限設定。
type RateLimitConfig struct {
	GeneralRate  float64
	GeneralBurst int
	CommentRate  float64
	CommentBurst int
}

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Auth
	TokenSecret   string
	TokenTTL      time.Duration
	SessionMaxAge time.Duration

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigins []string

	// Catalog
	Catalog CatalogConfig

	// Cache
	RedisURL string

	// Storage
	Minio               MinioConfig
	ProfileImageMaxSize int64

	// Rate Limit
	RateLimit RateLimitConfig

	// Cleanup
	LinkRetentionDays int
	CleanupInterval   time.Duration

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込むが、既に設定済みの環境変数は上書きしない。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	if cfg.TokenSecret == "" {
		missing = append(missing, "TOKEN_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.SessionMaxAge = getEnvDuration("SESSION_MAX_AGE", 168*time.Hour)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 168*time.Hour)
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigins = splitList(getEnvString("CORS_ALLOWED_ORIGIN", cfg.BaseURL))

	cfg.Catalog = CatalogConfig{
		BaseURL:       getEnvString("CATALOG_BASE_URL", "https://api.jikan.moe/v4"),
		Timeout:       getEnvDuration("CATALOG_TIMEOUT", 10*time.Second),
		MaxConcurrent: getEnvInt("CATALOG_MAX_CONCURRENT", 4),
		RatePerSecond: getEnvFloat("CATALOG_RATE_PER_SEC", 3),
		MaxRetries:    getEnvNonNegativeInt("CATALOG_MAX_RETRIES", 2),
		CacheTTL:      getEnvDuration("CATALOG_CACHE_TTL", time.Hour),
		LookupBudget:  getEnvDuration("CATALOG_LOOKUP_BUDGET", 15*time.Second),
	}

	cfg.RedisURL = getEnvString("REDIS_URL", "")

	cfg.Minio = MinioConfig{
		Endpoint:  getEnvString("MINIO_ENDPOINT", ""),
		AccessKey: getEnvString("MINIO_ACCESS_KEY", ""),
		SecretKey: getEnvString("MINIO_SECRET_KEY", ""),
		Bucket:    getEnvString("MINIO_BUCKET", "animark-profile-images"),
		UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		PublicURL: getEnvString("MINIO_PUBLIC_URL", ""),
	}
	cfg.ProfileImageMaxSize = getEnvInt64("PROFILE_IMAGE_MAX_SIZE", 2<<20)

	cfg.RateLimit = RateLimitConfig{
		GeneralRate:  getEnvFloat("RATE_LIMIT_GENERAL_RATE", 10),
		GeneralBurst: getEnvInt("RATE_LIMIT_GENERAL_BURST", 20),
		CommentRate:  getEnvFloat("RATE_LIMIT_COMMENT_RATE", 0.2),
		CommentBurst: getEnvInt("RATE_LIMIT_COMMENT_BURST", 5),
	}

	cfg.LinkRetentionDays = getEnvNonNegativeInt("LINK_RETENTION_DAYS", 30)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	if cfg.Catalog.LookupBudget > maxLookupBudget {
		cfg.Catalog.LookupBudget = maxLookupBudget
	}

	return cfg, nil
}

// loadDotEnv は.envファイルを読み込む。ファイルが存在しない場合は何もしない。
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// 数値系のヘルパーは、解析できない値や0以下の値を既定値に置き換える。

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

// getEnvNonNegativeInt は0を有効な値として受け付け、負の値のみ既定値に置き換える。
func getEnvNonNegativeInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 || math.IsNaN(f) {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Session
	SessionSecret string
	SessionMaxAge int

	// Gemini
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	GeminiTimeout time.Duration

	// Upload
	UploadMaxSize int64

	// Avatar
	AvatarTimeout time.Duration
	AvatarMaxSize int64

	// Rate Limit
	RateLimitGeneral  int
	RateLimitGenerate int

	// Cleanup
	CleanupInterval time.Duration
	CleanupGrace    time.Duration

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// requiredVars は未設定なら起動を止める環境変数。
var requiredVars = []string{
	"DATABASE_URL",
	"GOOGLE_CLIENT_ID",
	"GOOGLE_CLIENT_SECRET",
	"SESSION_SECRET",
	"GEMINI_API_KEY",
	"BASE_URL",
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合は、未設定の変数名をまとめてエラーで返す。
func Load() (*Config, error) {
	var missing []string
	required := make(map[string]string, len(requiredVars))
	for _, key := range requiredVars {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		required[key] = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg := &Config{
		DatabaseURL:        required["DATABASE_URL"],
		GoogleClientID:     required["GOOGLE_CLIENT_ID"],
		GoogleClientSecret: required["GOOGLE_CLIENT_SECRET"],
		SessionSecret:      required["SESSION_SECRET"],
		GeminiAPIKey:       required["GEMINI_API_KEY"],
		BaseURL:            strings.TrimRight(required["BASE_URL"], "/"),
	}

	// 認可コードはページ自身が受け取るため、既定のリダイレクト先はオリジン直下。
	cfg.GoogleRedirectURL = getEnv("GOOGLE_REDIRECT_URL", cfg.BaseURL+"/", parseString)

	cfg.DBMaxOpenConns = getEnv("DB_MAX_OPEN_CONNS", 10, strconv.Atoi)
	cfg.DBMaxIdleConns = getEnv("DB_MAX_IDLE_CONNS", 5, strconv.Atoi)
	cfg.DBConnMaxLifetime = getEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute, time.ParseDuration)
	cfg.SessionMaxAge = getEnv("SESSION_MAX_AGE", 86400, strconv.Atoi)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite", parseString)
	cfg.GeminiBaseURL = getEnv("GEMINI_BASE_URL", "", parseString)
	cfg.GeminiTimeout = getEnv("GEMINI_TIMEOUT", 60*time.Second, time.ParseDuration)
	cfg.UploadMaxSize = getEnv("UPLOAD_MAX_SIZE", int64(5<<20), parseInt64)
	cfg.AvatarTimeout = getEnv("AVATAR_TIMEOUT", 5*time.Second, time.ParseDuration)
	cfg.AvatarMaxSize = getEnv("AVATAR_MAX_SIZE", int64(1<<20), parseInt64)
	cfg.RateLimitGeneral = getEnv("RATE_LIMIT_GENERAL", 120, strconv.Atoi)
	cfg.RateLimitGenerate = getEnv("RATE_LIMIT_GENERATE", 10, strconv.Atoi)
	cfg.CleanupInterval = getEnv("CLEANUP_INTERVAL", time.Hour, time.ParseDuration)
	cfg.CleanupGrace = getEnv("CLEANUP_GRACE", time.Duration(0), time.ParseDuration)
	cfg.LogLevel = getEnv("LOG_LEVEL", "info", parseString)
	cfg.ServerPort = getEnv("SERVER_PORT", "8080", parseString)
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnv("COOKIE_DOMAIN", "", parseString)
	cfg.CORSAllowedOrigin = getEnv("CORS_ALLOWED_ORIGIN", cfg.BaseURL, parseString)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate は値どうしの整合性を確かめる。
// リダイレクト先がBASE_URLと別オリジンだと、ページが認可コードを受け取れない。
func (c *Config) validate() error {
	base, err := absoluteURL("BASE_URL", c.BaseURL)
	if err != nil {
		return err
	}
	redirect, err := absoluteURL("GOOGLE_REDIRECT_URL", c.GoogleRedirectURL)
	if err != nil {
		return err
	}
	if redirect.Scheme != base.Scheme || redirect.Host != base.Host {
		return fmt.Errorf("GOOGLE_REDIRECT_URL %q must share the origin of BASE_URL %q", c.GoogleRedirectURL, c.BaseURL)
	}
	return nil
}

func absoluteURL(key, raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return u, nil
}

// getEnv はkeyの値をparseで変換する。未設定または変換できなければdefaultValを返す。
func getEnv[T any](key string, defaultVal T, parse func(string) (T, error)) T {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parsed, err := parse(v)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func parseString(s string) (string, error) { return s, nil }

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

// Package config loads the server configuration from environment variables.
//
// cmd/server calls godotenv.Load() first, so in development every key can
// also come from a .env file in the working directory. Real environment
// variables always win over .env entries.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig
	Logger  LoggerConfig
}

type ServerConfig struct {
	Port           int
	SiteURL        string   // public base URL used in the sitemap and robots.txt
	AllowedOrigins []string // CORS; empty disables the CORS middleware
	MaxUploadBytes int64    // cap on a multipart submission body
}

type StorageConfig struct {
	DBPath    string
	UploadDir string
}

type AuthConfig struct {
	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	AdminPassword      string
	AdminPasswordHash  string
	CookieSecure       bool
}

type LoggerConfig struct {
	Level  slog.Level
	Format string // "text" or "json"
	File   string // optional rotated log file, in addition to stdout
}

// OAuthEnabled reports whether GitHub login can be offered.
func (c AuthConfig) OAuthEnabled() bool {
	return c.JWTSecret != "" && c.GitHubClientID != ""
}

// AdminEnabled reports whether the admin routes can be mounted.
func (c AuthConfig) AdminEnabled() bool {
	return c.JWTSecret != "" && (c.AdminPassword != "" || c.AdminPasswordHash != "")
}

const defaultMaxUploadBytes = 12 << 20

// Load reads the configuration. Malformed values are errors; missing values
// fall back to defaults suitable for local development.
func Load() (*Config, error) {
	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	maxUpload, err := getEnvInt("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	if maxUpload <= 0 {
		return nil, fmt.Errorf("config: MAX_UPLOAD_BYTES must be positive, got %d", maxUpload)
	}
	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	format := strings.ToLower(getEnv("LOG_FORMAT", "text"))
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", format)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           port,
			SiteURL:        strings.TrimRight(getEnv("SITE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
			AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", nil),
			MaxUploadBytes: int64(maxUpload),
		},
		Storage: StorageConfig{
			DBPath:    getEnv("DB_PATH", "data/directory.db"),
			UploadDir: getEnv("UPLOAD_DIR", "data/uploads"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			GitHubCallbackURL:  getEnv("GITHUB_CALLBACK_URL", fmt.Sprintf("http://localhost:%d/auth/github/callback", port)),
			AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
			AdminPasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
			CookieSecure:       getEnvBool("COOKIE_SECURE", false),
		},
		Logger: LoggerConfig{
			Level:  level,
			Format: format,
			File:   getEnv("LOG_FILE", ""),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s value %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

// getEnvSlice splits a comma-separated list, dropping empty entries.
func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

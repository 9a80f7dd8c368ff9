package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultDatabaseURL    = "topglass.db"
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultSigningSecret  = "change-me-signing-secret"
	defaultJWTTTL         = "24h"
	defaultSignedURLTTL   = "1h"
	defaultUploadDir      = "./uploads"
	defaultMaxUploadBytes = 5 * 1024 * 1024
	defaultEmailProvider  = EmailProviderLog
	defaultAWSRegion      = "eu-west-3"
	defaultNotifyFrom     = "TopGlass France <onboarding@topglassfrance.com>"
	defaultNotifyTo       = "topglassfrance@gmail.com,contact@topglassfrance.com"
	defaultAdminURL       = "https://topglassfrance.com/admin"
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultCORSOrigins    = "http://localhost:3000,http://localhost:5173,http://127.0.0.1:3000,http://127.0.0.1:5173"

	defaultAPIBaseURL    = "http://localhost:8080"
	defaultClientTimeout = "30s"
)

const (
	EmailProviderLog = "log"
	EmailProviderSES = "ses"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	DatabaseURL string
	RedisURL    string

	JWTSecret     string
	JWTTTL        time.Duration
	SigningSecret string
	SignedURLTTL  time.Duration

	UploadDir      string
	MaxUploadBytes int64

	EmailProvider string
	AWSRegion     string
	NotifyFrom    string
	NotifyTo      []string
	AdminURL      string

	LogLevel  string
	LogFormat string

	CORSAllowedOrigins []string
}

// ClientConfig configures the terminal wizard.
type ClientConfig struct {
	APIBaseURL string
	Timeout    time.Duration
	LogLevel   string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:        strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", "dev"))),
		HTTPAddr:      strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr)),
		DatabaseURL:   strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL)),
		RedisURL:      strings.TrimSpace(os.Getenv("REDIS_URL")),
		JWTSecret:     strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret)),
		SigningSecret: strings.TrimSpace(getEnv("SIGNING_SECRET", defaultSigningSecret)),
		UploadDir:     strings.TrimSpace(getEnv("UPLOAD_DIR", defaultUploadDir)),
		EmailProvider: strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", defaultEmailProvider))),
		AWSRegion:     strings.TrimSpace(getEnv("AWS_REGION", defaultAWSRegion)),
		NotifyFrom:    strings.TrimSpace(getEnv("NOTIFY_FROM", defaultNotifyFrom)),
		NotifyTo:      splitList(getEnv("NOTIFY_TO", defaultNotifyTo)),
		AdminURL:      strings.TrimSpace(getEnv("ADMIN_URL", defaultAdminURL)),
		LogLevel:      strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel))),
		LogFormat:     strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", defaultLogFormat))),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)),
	}

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.SignedURLTTL, err = parseDurationEnv("SIGNED_URL_TTL", defaultSignedURLTTL); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes, err = parseInt64Env("MAX_UPLOAD_BYTES", defaultMaxUploadBytes); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		APIBaseURL: strings.TrimRight(strings.TrimSpace(getEnv("API_BASE_URL", defaultAPIBaseURL)), "/"),
		LogLevel:   strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "warn"))),
	}
	var err error
	if cfg.Timeout, err = parseDurationEnv("CLIENT_TIMEOUT", defaultClientTimeout); err != nil {
		return nil, err
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL must not be empty")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("CLIENT_TIMEOUT must be >= 0")
	}
	return cfg, nil
}

// IsProdLike reports whether the configuration targets production.
func (c *Config) IsProdLike() bool { return isProdLike(c.AppEnv) }

func validateConfig(cfg *Config) error {
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.SignedURLTTL <= 0 {
		return fmt.Errorf("SIGNED_URL_TTL must be > 0")
	}
	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	if cfg.EmailProvider != EmailProviderLog && cfg.EmailProvider != EmailProviderSES {
		return fmt.Errorf("EMAIL_PROVIDER must be one of: log, ses")
	}
	if cfg.EmailProvider == EmailProviderSES && cfg.AWSRegion == "" {
		return fmt.Errorf("AWS_REGION must be set when EMAIL_PROVIDER=ses")
	}
	if len(cfg.NotifyTo) == 0 {
		return fmt.Errorf("NOTIFY_TO must list at least one address")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.SigningSecret, defaultSigningSecret) {
			return fmt.Errorf("in prod/release SIGNING_SECRET must be set and not default")
		}
		if cfg.JWTSecret == cfg.SigningSecret {
			return fmt.Errorf("in prod/release SIGNING_SECRET must differ from JWT_SECRET")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseInt64Env(name string, fallback int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

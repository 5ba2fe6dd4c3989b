package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer        string // Issuer claim for access tokens (default: ledgerdash-auth)
	Audience      string // Audience claim for access tokens (default: ledgerdash-web)
	SigningSecret string // Required: HS256 signing secret, min 32 bytes

	AccessTTL       time.Duration // Access token lifetime (default: 15m)
	RefreshTTL      time.Duration // Refresh token lifetime for remember-me sessions (default: 720h)
	VerificationTTL time.Duration // Email verification token lifetime (default: 24h)
	ResetTTL        time.Duration // Password reset token lifetime (default: 30m)

	DatabaseFile string // Path to SQLite database file (default: ./auth.db)
	PepperFile   string // Path to pepper file for password hashing (default: ./pepper)

	CookieDomain string // Cookie Domain attribute (default: empty, host-only)
	CookieSecure bool   // Cookie Secure attribute (default: true outside dev)

	BaseURL  string // Public web app origin used in email links
	SMTPHost string // SMTP relay host; empty means log emails instead of sending
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// ErrMissingSigningSecret is returned when AUTH_SIGNING_SECRET is unset.
var ErrMissingSigningSecret = errors.New("AUTH_SIGNING_SECRET must be set")

func LoadConfig() (Config, error) {
	cfg := Config{
		Issuer:        getEnvOrDefault("AUTH_ISSUER", "ledgerdash-auth"),
		Audience:      getEnvOrDefault("AUTH_AUDIENCE", "ledgerdash-web"),
		SigningSecret: os.Getenv("AUTH_SIGNING_SECRET"),

		AccessTTL:       getEnvDurationOrDefault("AUTH_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:      getEnvDurationOrDefault("AUTH_REFRESH_TTL", 30*24*time.Hour),
		VerificationTTL: getEnvDurationOrDefault("AUTH_VERIFICATION_TTL", 24*time.Hour),
		ResetTTL:        getEnvDurationOrDefault("AUTH_RESET_TTL", 30*time.Minute),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		CookieDomain: os.Getenv("AUTH_COOKIE_DOMAIN"),

		BaseURL:  getEnvOrDefault("APP_BASE_URL", "http://localhost:3000"),
		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: getEnvOrDefault("SMTP_FROM", "no-reply@ledgerdash.io"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	// Secure cookies everywhere except local dev, unless explicitly forced.
	if v := os.Getenv("AUTH_COOKIE_SECURE"); v != "" {
		cfg.CookieSecure = v == "true" || v == "1"
	} else {
		cfg.CookieSecure = cfg.Env != "dev"
	}

	if cfg.SigningSecret == "" {
		return Config{}, ErrMissingSigningSecret
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer values are taken as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultAllowedAttachmentTypes is the MIME allow-list for contact-form uploads
var DefaultAllowedAttachmentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	APIPort   int
	ClientURL string

	// Storage
	AttachmentStoragePath string

	// Logging
	LogLevel string

	// Calendar zone for date filters, analytics buckets and export timestamps
	Timezone string

	// Security
	JWTSecret      string
	AllowedOrigins string
	AppEnv         string
	// Reverse proxies allowed to set X-Forwarded-For (CIDRs or IPs)
	TrustedProxies []string

	// API-wide throttle
	RateLimitRequests float64
	RateLimitBurst    int

	// Contact form
	ContactRateLimit       int
	ContactRateWindow      time.Duration
	MaxAttachments         int
	MaxAttachmentSize      int64
	AllowedAttachmentTypes []string
	RecaptchaSecret        string
	RecaptchaMinScore      float64

	// Notification mail
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	SMTPFrom              string
	SMTPSecurity          string // starttls, tls or none
	NotificationQueueSize int
	NotificationWorkers   int

	// Export
	ExportMaxRows int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	if cfg.APIPort, err = intEnv("API_PORT", 8080); err != nil {
		return nil, err
	}
	cfg.ClientURL = stringEnv("CLIENT_URL", "http://localhost:3000")

	cfg.AttachmentStoragePath = stringEnv("ATTACHMENT_STORAGE_PATH", "./uploads/contact")
	cfg.LogLevel = stringEnv("LOG_LEVEL", "info")
	cfg.Timezone = stringEnv("APP_TIMEZONE", "Local")

	// Security configuration
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = stringEnv("APP_ENV", "development")
	cfg.TrustedProxies = listEnv("TRUSTED_PROXIES", nil)

	// API-wide throttle; unparsable values fall back to the defaults
	cfg.RateLimitRequests = 10.0
	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimitRequests = v
		}
	}
	cfg.RateLimitBurst = 20
	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimitBurst = v
		}
	}

	// Contact form
	if cfg.ContactRateLimit, err = intEnv("CONTACT_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.ContactRateWindow, err = durationEnv("CONTACT_RATE_WINDOW", time.Hour); err != nil {
		return nil, err
	}
	if cfg.MaxAttachments, err = intEnv("MAX_ATTACHMENTS", 5); err != nil {
		return nil, err
	}
	maxSize, err := intEnv("MAX_ATTACHMENT_SIZE", 5*1024*1024)
	if err != nil {
		return nil, err
	}
	cfg.MaxAttachmentSize = int64(maxSize)
	cfg.AllowedAttachmentTypes = listEnv("ALLOWED_ATTACHMENT_TYPES", DefaultAllowedAttachmentTypes)
	cfg.RecaptchaSecret = os.Getenv("RECAPTCHA_SECRET")
	cfg.RecaptchaMinScore = 0.5
	if score := os.Getenv("RECAPTCHA_MIN_SCORE"); score != "" {
		v, err := strconv.ParseFloat(score, 64)
		if err != nil {
			return nil, fmt.Errorf("RECAPTCHA_MIN_SCORE must be a valid number: %w", err)
		}
		cfg.RecaptchaMinScore = v
	}

	// Notification mail
	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.SMTPPort, err = intEnv("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPFrom = stringEnv("SMTP_FROM", "noreply@localhost")
	cfg.SMTPSecurity = strings.ToLower(stringEnv("SMTP_SECURITY", "starttls"))
	if cfg.NotificationQueueSize, err = intEnv("NOTIFICATION_QUEUE_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.NotificationWorkers, err = intEnv("NOTIFICATION_WORKERS", 2); err != nil {
		return nil, err
	}

	if cfg.ExportMaxRows, err = intEnv("EXPORT_MAX_ROWS", 10000); err != nil {
		return nil, err
	}

	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return d, nil
}

// listEnv splits a comma-separated variable, dropping empty entries
func listEnv(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.IsProduction() {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MailEnabled reports whether notification mail can be sent
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTPPort must be between 1 and 65535")
	}
	switch c.SMTPSecurity {
	case "", "starttls", "tls", "none":
	default:
		return fmt.Errorf("SMTP_SECURITY must be starttls, tls or none")
	}
	if c.AttachmentStoragePath == "" {
		return fmt.Errorf("AttachmentStoragePath cannot be empty")
	}
	if c.ContactRateLimit <= 0 {
		return fmt.Errorf("ContactRateLimit must be positive")
	}
	if c.ContactRateWindow <= 0 {
		return fmt.Errorf("ContactRateWindow must be positive")
	}
	if c.MaxAttachments < 0 {
		return fmt.Errorf("MaxAttachments cannot be negative")
	}
	if c.MaxAttachmentSize <= 0 {
		return fmt.Errorf("MaxAttachmentSize must be positive")
	}
	if c.NotificationQueueSize <= 0 || c.NotificationWorkers <= 0 {
		return fmt.Errorf("notification queue size and workers must be positive")
	}
	if c.ExportMaxRows <= 0 {
		return fmt.Errorf("ExportMaxRows must be positive")
	}
	for _, proxy := range c.TrustedProxies {
		if !validProxy(proxy) {
			return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", proxy)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func validProxy(entry string) bool {
	if strings.Contains(entry, "/") {
		_, _, err := net.ParseCIDR(entry)
		return err == nil
	}
	return net.ParseIP(entry) != nil
}

// Location resolves Timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE is not a known zone: %w", err)
	}
	return loc, nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	// Check for wildcard in production
	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	return nil
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("client_url", c.ClientURL),
		slog.String("storage_path", c.AttachmentStoragePath),
		slog.String("log_level", c.LogLevel),
		slog.String("timezone", c.Timezone),
		slog.String("app_env", c.AppEnv),
		slog.Bool("jwt_secret_set", c.JWTSecret != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Any("trusted_proxies", c.TrustedProxies),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
		slog.Int("contact_rate_limit", c.ContactRateLimit),
		slog.Duration("contact_rate_window", c.ContactRateWindow),
		slog.Int("max_attachments", c.MaxAttachments),
		slog.Int64("max_attachment_size", c.MaxAttachmentSize),
		slog.Bool("recaptcha_enabled", c.RecaptchaSecret != ""),
		slog.Bool("mail_enabled", c.MailEnabled()),
		slog.String("smtp_host", c.SMTPHost),
		slog.Int("smtp_port", c.SMTPPort),
		slog.String("smtp_security", c.SMTPSecurity),
		slog.Int("export_max_rows", c.ExportMaxRows),
	)
}

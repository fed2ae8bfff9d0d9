// Package config provides configuration management and environment variable handling for the application
package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ymgch/mitsumori/utils"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Server     ServerConfig     `json:"server"`
	Security   SecurityConfig   `json:"security"`
	Line       LineConfig       `json:"line"`
	Session    SessionConfig    `json:"session"`
	Rates      RateTableConfig  `json:"rates"`
	Ledger     LedgerConfig     `json:"ledger"`
	Forms      FormsConfig      `json:"forms"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Deployment DeploymentConfig `json:"deployment"`
}

type ServerConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	WriteTimeout      time.Duration `json:"write_timeout"`
	IdleTimeout       time.Duration `json:"idle_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout"`
	BodyLimit         int           `json:"body_limit"`
	TrustedProxies    []string      `json:"trusted_proxies"`
	ProxyHeader       string        `json:"proxy_header"`
	EnableCompression bool          `json:"enable_compression"`
	CompressionLevel  int           `json:"compression_level"` // fiber compress level, 0-2
}

type SecurityConfig struct {
	// CORS
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	CORSMaxAge       int      `json:"cors_max_age"`

	// Rate Limiting
	GlobalRateLimit int           `json:"global_rate_limit"` // requests per window
	FormRateLimit   int           `json:"form_rate_limit"`   // form submissions per window
	RateLimitWindow time.Duration `json:"rate_limit_window"`

	// Content Security
	CSPPolicy           string `json:"csp_policy"`
	XFrameOptions       string `json:"x_frame_options"`
	XContentTypeOptions string `json:"x_content_type_options"`
	XSSProtection       string `json:"xss_protection"`
	ReferrerPolicy      string `json:"referrer_policy"`
}

// LineConfig carries the Messaging API credentials and endpoints.
type LineConfig struct {
	ChannelSecret string        `json:"channel_secret"`
	ChannelToken  string        `json:"channel_token"`
	APIBaseURL    string        `json:"api_base_url"`
	Timeout       time.Duration `json:"timeout"`
	LiffID        string        `json:"liff_id"`
	ImageBaseURL  string        `json:"image_base_url"`
}

// SessionConfig selects and tunes the quote-session store.
type SessionConfig struct {
	Backend         string        `json:"backend"` // memory, redis
	RedisURL        string        `json:"redis_url"`
	RedisDB         int           `json:"redis_db"`
	IdleTTL         time.Duration `json:"idle_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// RateTableConfig points at the price table files loaded on startup.
type RateTableConfig struct {
	Path        string `json:"path"`
	PatternPath string `json:"pattern_path"`
}

// LedgerConfig locates the order-ledger workbook.
type LedgerConfig struct {
	Path string `json:"path"`
}

// FormsConfig covers the public web forms and their one-time tokens.
type FormsConfig struct {
	PublicBaseURL string        `json:"public_base_url"`
	TokenSecret   string        `json:"token_secret"`
	TokenTTL      time.Duration `json:"token_ttl"`
}

type LoggingConfig struct {
	Output     string `json:"output"` // stdout, file, both
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type DeploymentConfig struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Load environment variables from .env file
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Server: ServerConfig{
			Host:              getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:              getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:       getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:   getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:         getEnvInt("SERVER_BODY_LIMIT", 1*1024*1024), // 1MB
			TrustedProxies:    getEnvStringSlice("SERVER_TRUSTED_PROXIES", []string{"127.0.0.1"}),
			ProxyHeader:       getEnvString("SERVER_PROXY_HEADER", "X-Real-IP"),
			EnableCompression: getEnvBool("SERVER_ENABLE_COMPRESSION", true),
			CompressionLevel:  getEnvInt("SERVER_COMPRESSION_LEVEL", 1),
		},
		Security: SecurityConfig{
			AllowedOrigins:      getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{}),
			AllowedMethods:      getEnvStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders:      getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}),
			AllowCredentials:    getEnvBool("CORS_ALLOW_CREDENTIALS", false),
			CORSMaxAge:          getEnvInt("CORS_MAX_AGE", utils.CORSMaxAge),
			GlobalRateLimit:     getEnvInt("GLOBAL_RATE_LIMIT", 600),
			FormRateLimit:       getEnvInt("FORM_RATE_LIMIT", 20),
			RateLimitWindow:     getEnvDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
			// The forms load the LIFF SDK and call the postal-code API, so
			// the default policy admits both.
			CSPPolicy:           getEnvString("CSP_POLICY", "default-src 'self'; script-src 'self' 'unsafe-inline' https://static.line-scdn.net; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; connect-src 'self' https:"),
			XFrameOptions:       getEnvString("X_FRAME_OPTIONS", "SAMEORIGIN"),
			XContentTypeOptions: getEnvString("X_CONTENT_TYPE_OPTIONS", "nosniff"),
			XSSProtection:       getEnvString("XSS_PROTECTION", "1; mode=block"),
			ReferrerPolicy:      getEnvString("REFERRER_POLICY", "strict-origin-when-cross-origin"),
		},
		Line: LineConfig{
			ChannelSecret: getEnvString("LINE_CHANNEL_SECRET", ""),
			ChannelToken:  getEnvString("LINE_CHANNEL_TOKEN", ""),
			APIBaseURL:    getEnvString("LINE_API_BASE_URL", "https://api.line.me"),
			Timeout:       getEnvDuration("LINE_TIMEOUT", 10*time.Second),
			LiffID:        getEnvString("LINE_LIFF_ID", ""),
			ImageBaseURL:  getEnvString("LINE_IMAGE_BASE_URL", ""),
		},
		Session: SessionConfig{
			Backend:         getEnvString("SESSION_BACKEND", "memory"),
			RedisURL:        getEnvString("SESSION_REDIS_URL", "redis://localhost:6379"),
			RedisDB:         getEnvInt("SESSION_REDIS_DB", 0),
			IdleTTL:         getEnvDuration("SESSION_IDLE_TTL", utils.SessionIdleTTL),
			CleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", utils.SessionCleanupInterval),
		},
		Rates: RateTableConfig{
			Path:        getEnvString("RATE_TABLE_PATH", "data/rates.json"),
			PatternPath: getEnvString("PATTERN_RATE_TABLE_PATH", "data/pattern_rates.json"),
		},
		Ledger: LedgerConfig{
			Path: getEnvString("LEDGER_PATH", "data/orders.xlsx"),
		},
		Forms: FormsConfig{
			PublicBaseURL: getEnvString("FORMS_PUBLIC_BASE_URL", "http://localhost:8080"),
			TokenSecret:   getEnvString("FORMS_TOKEN_SECRET", ""),
			TokenTTL:      getEnvDuration("FORMS_TOKEN_TTL", utils.FormTokenTTL),
		},
		Logging: LoggingConfig{
			Output:     getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:   getEnvString("LOG_FILE_PATH", "logs/app.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Deployment: DeploymentConfig{
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
		},
	}

	// Validate the loaded configuration
	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment reports whether the deployment runs in development mode.
func (c *ProductionConfig) IsDevelopment() bool {
	return c.Deployment.Environment == "development"
}

// loadEnvFile loads environment variables from .env file if it exists
func loadEnvFile() error {
	envFile := ".env"

	// Check if .env file exists
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		// .env file doesn't exist, continue with environment variables
		return nil
	}

	// Open .env file
	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	// Read file line by line
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key=value pairs
		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				// Remove quotes if present
				if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
					(strings.HasPrefix(value, `'`) && strings.HasSuffix(value, `'`)) {
					value = value[1 : len(value)-1]
				}

				// Set environment variable if not already set
				if os.Getenv(key) == "" {
					os.Setenv(key, value)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errors = append(errors, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errors = append(errors, "SERVER_WRITE_TIMEOUT must be positive")
	}
	if cfg.Server.IdleTimeout <= 0 {
		errors = append(errors, "SERVER_IDLE_TIMEOUT must be positive")
	}
	if cfg.Server.BodyLimit <= 0 {
		errors = append(errors, "SERVER_BODY_LIMIT must be positive")
	}

	// Validate LINE credentials; development runs without them so the
	// forms and pricing can be exercised locally.
	if !cfg.IsDevelopment() {
		if cfg.Line.ChannelSecret == "" {
			errors = append(errors, "LINE_CHANNEL_SECRET is required")
		}
		if cfg.Line.ChannelToken == "" {
			errors = append(errors, "LINE_CHANNEL_TOKEN is required")
		}
	}
	if cfg.Line.APIBaseURL == "" {
		errors = append(errors, "LINE_API_BASE_URL is required")
	} else if _, err := url.Parse(cfg.Line.APIBaseURL); err != nil {
		errors = append(errors, "LINE_API_BASE_URL must be a valid URL")
	}
	if cfg.Line.Timeout <= 0 {
		errors = append(errors, "LINE_TIMEOUT must be positive")
	}

	// Validate session configuration
	switch cfg.Session.Backend {
	case "memory":
	case "redis":
		if cfg.Session.RedisURL == "" {
			errors = append(errors, "SESSION_REDIS_URL is required for the redis backend")
		}
	default:
		errors = append(errors, "SESSION_BACKEND must be one of: memory, redis")
	}
	if cfg.Session.IdleTTL <= 0 {
		errors = append(errors, "SESSION_IDLE_TTL must be positive")
	}
	if cfg.Session.CleanupInterval <= 0 {
		errors = append(errors, "SESSION_CLEANUP_INTERVAL must be positive")
	}

	// Validate data file configuration
	if cfg.Rates.Path == "" {
		errors = append(errors, "RATE_TABLE_PATH is required")
	}
	if cfg.Rates.PatternPath == "" {
		errors = append(errors, "PATTERN_RATE_TABLE_PATH is required")
	}
	if cfg.Ledger.Path == "" {
		errors = append(errors, "LEDGER_PATH is required")
	}

	// Validate forms configuration
	if cfg.Forms.PublicBaseURL == "" {
		errors = append(errors, "FORMS_PUBLIC_BASE_URL is required")
	} else if _, err := url.Parse(cfg.Forms.PublicBaseURL); err != nil {
		errors = append(errors, "FORMS_PUBLIC_BASE_URL must be a valid URL")
	}
	if !cfg.IsDevelopment() {
		if cfg.Forms.TokenSecret == "" {
			errors = append(errors, "FORMS_TOKEN_SECRET is required")
		} else if len(cfg.Forms.TokenSecret) < 32 {
			errors = append(errors, "FORMS_TOKEN_SECRET must be at least 32 characters long")
		}
	}
	if cfg.Forms.TokenTTL <= 0 {
		errors = append(errors, "FORMS_TOKEN_TTL must be positive")
	}

	// Validate logging configuration
	switch cfg.Logging.Output {
	case "stdout", "file", "both":
	default:
		errors = append(errors, "LOG_OUTPUT must be one of: stdout, file, both")
	}
	if cfg.Logging.Output != "stdout" && cfg.Logging.FilePath == "" {
		errors = append(errors, "LOG_FILE_PATH is required when logging to a file")
	}

	// Return validation errors if any
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Stripe   StripeConfig   `json:"stripe"`
	SMTP     SMTPConfig     `json:"smtp"`
	Redis    RedisConfig    `json:"redis"`
	Vault    VaultConfig    `json:"vault"`
	Logging  LoggingConfig  `json:"logging"`
	Admin    AdminConfig    `json:"admin"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int    `json:"port"`
	Host            string `json:"host"`
	AllowedOrigins  string `json:"allowed_origins"` // CORS allowed origins
	TLSEnabled      bool   `json:"tls_enabled"`
	TLSCertFile     string `json:"tls_cert_file"`
	TLSKeyFile      string `json:"tls_key_file"`
	ReadTimeout     int    `json:"read_timeout"`     // Seconds
	WriteTimeout    int    `json:"write_timeout"`    // Seconds
	ShutdownTimeout int    `json:"shutdown_timeout"` // Seconds
	RateLimitPerMin int    `json:"rate_limit_per_min"`
}

// DatabaseConfig holds PostgreSQL configuration. URL takes precedence over
// the discrete fields when set.
type DatabaseConfig struct {
	URL      string `json:"url"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
	SSLMode  string `json:"ssl_mode"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret                string        `json:"jwt_secret"`
	AccessTokenDuration      time.Duration `json:"access_token_duration"`
	RefreshTokenDuration     time.Duration `json:"refresh_token_duration"`
	MinPasswordLength        int           `json:"min_password_length"`
	RequireEmailVerification bool          `json:"require_email_verification"`
	SessionCleanupInterval   time.Duration `json:"session_cleanup_interval"`
	MaxSessionsPerUser       int           `json:"max_sessions_per_user"`
}

// StripeConfig holds Stripe billing configuration
type StripeConfig struct {
	Enabled       bool   `json:"enabled"`
	SecretKey     string `json:"secret_key"`
	WebhookSecret string `json:"webhook_secret"`
	SuccessURL    string `json:"success_url"`
	CancelURL     string `json:"cancel_url"`
}

// SMTPConfig holds outbound email configuration
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
	FromName string `json:"from_name"`
}

// RedisConfig holds Redis configuration for caching
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// VaultConfig holds HashiCorp Vault configuration
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`  // KV secrets engine mount path
	SecretPath string `json:"secret_path"` // Path prefix for app secrets
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

// LoggingConfig holds zerolog configuration
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Output string `json:"output"` // stdout, stderr, or file path
	Pretty bool   `json:"pretty"` // Console writer instead of JSON
}

// AdminConfig holds seeded admin credentials
type AdminConfig struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Load reads config.json if present, then applies environment overrides.
// Environment variables always take precedence over the file.
func Load() (*Config, error) {
	cfg, err := loadFromFile("config.json")
	if err != nil {
		cfg = &Config{}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Server config
	cfg.Server.Port = getEnvIntOrDefault("WEB_PORT", 8080)
	cfg.Server.Host = getEnvOrDefault("WEB_HOST", "0.0.0.0")
	cfg.Server.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", "*")
	cfg.Server.TLSEnabled = getEnvOrDefault("SERVER_TLS_ENABLED", "false") == "true"
	cfg.Server.TLSCertFile = getEnvOrDefault("SERVER_TLS_CERT", cfg.Server.TLSCertFile)
	cfg.Server.TLSKeyFile = getEnvOrDefault("SERVER_TLS_KEY", cfg.Server.TLSKeyFile)
	cfg.Server.ReadTimeout = getEnvIntOrDefault("SERVER_READ_TIMEOUT", 30)
	cfg.Server.WriteTimeout = getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 30)
	cfg.Server.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10)
	cfg.Server.RateLimitPerMin = getEnvIntOrDefault("SERVER_RATE_LIMIT_PER_MIN", 120)

	// Database config
	cfg.Database.URL = getEnvOrDefault("DATABASE_URL", cfg.Database.URL)
	cfg.Database.Host = getEnvOrDefault("DB_HOST", defaultString(cfg.Database.Host, "localhost"))
	cfg.Database.Port = getEnvIntOrDefault("DB_PORT", defaultInt(cfg.Database.Port, 5432))
	cfg.Database.User = getEnvOrDefault("DB_USER", defaultString(cfg.Database.User, "postgres"))
	cfg.Database.Password = getEnvOrDefault("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnvOrDefault("DB_NAME", defaultString(cfg.Database.Name, "smart_stock_trader"))
	cfg.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", defaultString(cfg.Database.SSLMode, "disable"))

	// Auth config
	cfg.Auth.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.AccessTokenDuration = getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_DURATION", 15*time.Minute)
	cfg.Auth.RefreshTokenDuration = getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_DURATION", 7*24*time.Hour)
	cfg.Auth.MinPasswordLength = getEnvIntOrDefault("AUTH_MIN_PASSWORD_LENGTH", 8)
	cfg.Auth.RequireEmailVerification = getEnvOrDefault("AUTH_REQUIRE_EMAIL_VERIFICATION", "false") == "true"
	cfg.Auth.SessionCleanupInterval = getEnvDurationOrDefault("AUTH_SESSION_CLEANUP_INTERVAL", 1*time.Hour)
	cfg.Auth.MaxSessionsPerUser = getEnvIntOrDefault("AUTH_MAX_SESSIONS_PER_USER", 10)

	// Stripe config
	cfg.Stripe.Enabled = getEnvOrDefault("STRIPE_ENABLED", "false") == "true"
	cfg.Stripe.SecretKey = getEnvOrDefault("STRIPE_SECRET_KEY", cfg.Stripe.SecretKey)
	cfg.Stripe.WebhookSecret = getEnvOrDefault("STRIPE_WEBHOOK_SECRET", cfg.Stripe.WebhookSecret)
	cfg.Stripe.SuccessURL = getEnvOrDefault("STRIPE_SUCCESS_URL", defaultString(cfg.Stripe.SuccessURL, "http://localhost:3000/payment-success?session_id={CHECKOUT_SESSION_ID}"))
	cfg.Stripe.CancelURL = getEnvOrDefault("STRIPE_CANCEL_URL", defaultString(cfg.Stripe.CancelURL, "http://localhost:3000/pricing"))

	// SMTP config
	cfg.SMTP.Host = getEnvOrDefault("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = getEnvOrDefault("SMTP_PORT", defaultString(cfg.SMTP.Port, "587"))
	cfg.SMTP.Username = getEnvOrDefault("SMTP_USERNAME", cfg.SMTP.Username)
	cfg.SMTP.Password = getEnvOrDefault("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.From = getEnvOrDefault("SMTP_FROM", cfg.SMTP.From)
	cfg.SMTP.FromName = getEnvOrDefault("SMTP_FROM_NAME", cfg.SMTP.FromName)

	// Redis config
	cfg.Redis.Enabled = getEnvOrDefault("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Address = getEnvOrDefault("REDIS_ADDRESS", defaultString(cfg.Redis.Address, "localhost:6379"))
	cfg.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvIntOrDefault("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", defaultInt(cfg.Redis.PoolSize, 10))

	// Vault config
	cfg.Vault.Enabled = getEnvOrDefault("VAULT_ENABLED", "false") == "true"
	cfg.Vault.Address = getEnvOrDefault("VAULT_ADDR", defaultString(cfg.Vault.Address, "http://localhost:8200"))
	cfg.Vault.Token = getEnvOrDefault("VAULT_TOKEN", cfg.Vault.Token)
	cfg.Vault.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", defaultString(cfg.Vault.MountPath, "secret"))
	cfg.Vault.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", defaultString(cfg.Vault.SecretPath, "smart-stock-trader"))
	cfg.Vault.TLSEnabled = getEnvOrDefault("VAULT_TLS_ENABLED", "false") == "true"
	cfg.Vault.CACert = getEnvOrDefault("VAULT_CACERT", cfg.Vault.CACert)

	// Logging config
	cfg.Logging.Level = getEnvOrDefault("LOG_LEVEL", defaultString(cfg.Logging.Level, "info"))
	cfg.Logging.Output = getEnvOrDefault("LOG_OUTPUT", defaultString(cfg.Logging.Output, "stdout"))
	cfg.Logging.Pretty = getEnvOrDefault("LOG_PRETTY", "false") == "true"

	// Admin config
	cfg.Admin.Email = getEnvOrDefault("ADMIN_EMAIL", cfg.Admin.Email)
	cfg.Admin.Password = getEnvOrDefault("ADMIN_PASSWORD", cfg.Admin.Password)
}

// Validate reports configuration errors that prevent startup
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if c.Database.URL == "" && c.Database.Name == "" {
		return fmt.Errorf("database configuration is required")
	}
	return nil
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func defaultString(current, fallback string) string {
	if current != "" {
		return current
	}
	return fallback
}

func defaultInt(current, fallback int) int {
	if current != 0 {
		return current
	}
	return fallback
}

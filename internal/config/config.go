package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const minJWTSecretLen = 32

type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSecret            string        `mapstructure:"JWT_SECRET"`
	JWTTTLHours          int           `mapstructure:"JWT_TTL_HOURS"`
	AuthDevTokens        bool          `mapstructure:"AUTH_DEV_TOKENS"`
	DefaultRole          string        `mapstructure:"DEFAULT_ROLE"`
	RedisURL             string        `mapstructure:"REDIS_URL"`
	PrincipalCacheTTL    time.Duration `mapstructure:"PRINCIPAL_CACHE_TTL"`
	CORSOrigins          []string      `mapstructure:"-"`
	RateLimitRPS         float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst       int           `mapstructure:"RATE_LIMIT_BURST"`
	StorageDir           string        `mapstructure:"STORAGE_DIR"`
	StoragePublicURL     string        `mapstructure:"STORAGE_PUBLIC_URL"`
	ChatbotWebhookURL    string        `mapstructure:"CHATBOT_WEBHOOK_URL"`
	ChatbotWebhookSecret string        `mapstructure:"CHATBOT_WEBHOOK_SECRET"`
	ReportWorkdayMinutes int           `mapstructure:"REPORT_WORKDAY_MINUTES"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"JWT_SECRET", "JWT_TTL_HOURS", "AUTH_DEV_TOKENS", "DEFAULT_ROLE",
	"REDIS_URL", "PRINCIPAL_CACHE_TTL",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"STORAGE_DIR", "STORAGE_PUBLIC_URL",
	"CHATBOT_WEBHOOK_URL", "CHATBOT_WEBHOOK_SECRET",
	"REPORT_WORKDAY_MINUTES",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("JWT_TTL_HOURS", 12)
	v.SetDefault("AUTH_DEV_TOKENS", false)
	v.SetDefault("DEFAULT_ROLE", "recepcionista")
	v.SetDefault("PRINCIPAL_CACHE_TTL", "5m")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("STORAGE_DIR", "./storage")
	v.SetDefault("STORAGE_PUBLIC_URL", "/arquivos")
	v.SetDefault("REPORT_WORKDAY_MINUTES", 480)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DevTokensActive reports whether dev:<empresa_id> bearer tokens are honoured.
func (c *Config) DevTokensActive() bool {
	return c.AuthDevTokens && c.IsDev()
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// Validate checks that the configuration is safe to run. Outside development a
// JWT secret of at least 32 bytes is required and dev tokens must be off.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.AuthDevTokens {
			return fmt.Errorf("AUTH_DEV_TOKENS may only be enabled when ENV=development (current ENV=%q)", c.Env)
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
		}
		if len(c.JWTSecret) < minJWTSecretLen {
			return fmt.Errorf("JWT_SECRET must be at least %d bytes, got %d", minJWTSecretLen, len(c.JWTSecret))
		}
	}
	if c.JWTTTLHours <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive, got %d", c.JWTTTLHours)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	if c.ReportWorkdayMinutes <= 0 || c.ReportWorkdayMinutes > 24*60 {
		return fmt.Errorf("REPORT_WORKDAY_MINUTES must be between 1 and 1440, got %d", c.ReportWorkdayMinutes)
	}
	return nil
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Moneybird MoneybirdConfig
	Finance   FinanceConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds token signing settings
type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds router settings
type HTTPConfig struct {
	CORSAllowOrigins []string
}

// MoneybirdConfig holds settings for the external accounting API
type MoneybirdConfig struct {
	BaseURL  string
	Timeout  time.Duration
	PerPage  int
	MaxPages int
}

// FinanceConfig bounds aggregation requests
type FinanceConfig struct {
	MaxRangeDays int // 0 disables the cap
}

// Load reads configs/.env (if present) and the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// A missing file is fine, the environment may carry everything.
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("port"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("jwt.secret"),
			AccessTokenTTL: v.GetDuration("jwt.access_token_ttl"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			CORSAllowOrigins: splitList(v.GetString("cors.allow_origins")),
		},
		Moneybird: MoneybirdConfig{
			BaseURL:  strings.TrimRight(v.GetString("moneybird.base_url"), "/"),
			Timeout:  v.GetDuration("moneybird.timeout"),
			PerPage:  v.GetInt("moneybird.per_page"),
			MaxPages: v.GetInt("moneybird.max_pages"),
		},
		Finance: FinanceConfig{
			MaxRangeDays: v.GetInt("finance.max_range_days"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bizledger")
	v.SetDefault("app.env", "development")
	v.SetDefault("port", "8080")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "postgres")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("jwt.access_token_ttl", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("cors.allow_origins", "http://localhost:5173,http://127.0.0.1:5173")

	v.SetDefault("moneybird.base_url", "https://moneybird.com/api/v2")
	v.SetDefault("moneybird.timeout", 20*time.Second)
	v.SetDefault("moneybird.per_page", 100)
	v.SetDefault("moneybird.max_pages", 20)

	v.SetDefault("finance.max_range_days", 1830)
}

// Validate checks the loaded configuration and fills development fallbacks.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.JWT.Secret = "default_super_secret_key" // development fallback only
	}
	if c.Moneybird.BaseURL == "" {
		return fmt.Errorf("MONEYBIRD_BASE_URL must not be empty")
	}
	if c.Moneybird.PerPage <= 0 || c.Moneybird.PerPage > 100 {
		c.Moneybird.PerPage = 100
	}
	if c.Moneybird.MaxPages <= 0 {
		c.Moneybird.MaxPages = 1
	}
	if c.Moneybird.Timeout <= 0 {
		c.Moneybird.Timeout = 20 * time.Second
	}
	if c.Finance.MaxRangeDays < 0 {
		c.Finance.MaxRangeDays = 0
	}
	if c.JWT.AccessTokenTTL <= 0 {
		c.JWT.AccessTokenTTL = 24 * time.Hour
	}
	return nil
}

// IsProduction reports whether the app runs with APP_ENV=production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN builds the postgres connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

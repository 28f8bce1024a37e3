package config

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port               int           `yaml:"port" env:"HTTP_PORT, overwrite"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	HandlerTimeout     time.Duration `yaml:"handler_timeout"`
	CORSOrigins        []string      `yaml:"cors_origins" env:"HTTP_CORS_ORIGINS, overwrite"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	DefaultLanguage    string        `yaml:"default_language" env:"HTTP_DEFAULT_LANGUAGE, overwrite"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL, overwrite"` // trace|debug|info|warn|error
	Format   string `yaml:"format"`                          // json|console
	Sampling bool   `yaml:"sampling"`                        // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url" env:"DATABASE_URL, overwrite"`
	MaxConns int32  `yaml:"max_conns"`
	Migrate  bool   `yaml:"migrate"`
}

// RedisConfig is optional; an empty URL disables caching and login throttling.
type RedisConfig struct {
	URL      string        `yaml:"url" env:"REDIS_URL, overwrite"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD, overwrite"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret" env:"JWT_SECRET, overwrite"`
	AccessTTL        time.Duration `yaml:"access_ttl"`
	RefreshTTL       time.Duration `yaml:"refresh_ttl"`
	VerificationCode string        `yaml:"verification_code" env:"VERIFICATION_CODE, overwrite"`
	LoginAttempts    int           `yaml:"login_attempts"`
	LoginWindow      time.Duration `yaml:"login_window"`
}

type AdminConfig struct {
	APIKey string `yaml:"api_key" env:"ADMIN_API_KEY, overwrite"`
}

type ImportConfig struct {
	BarcodeNamePrefix string `yaml:"barcode_name_prefix"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Admin    AdminConfig    `yaml:"admin"`
	Import   ImportConfig   `yaml:"import"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig parses -config and -dev from the command line and loads the file.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()
	return Load(configPath, dev)
}

// Load reads .env (if present), then the YAML file (if present), then lets
// environment variables override individual fields.
func Load(path string, dev bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only deployment
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	cfg.HTTP.ReadTimeout = orDuration(cfg.HTTP.ReadTimeout, 10*time.Second)
	cfg.HTTP.WriteTimeout = orDuration(cfg.HTTP.WriteTimeout, 15*time.Second)
	cfg.HTTP.HandlerTimeout = orDuration(cfg.HTTP.HandlerTimeout, 10*time.Second)
	if cfg.HTTP.RateLimitPerMinute <= 0 {
		cfg.HTTP.RateLimitPerMinute = 120
	}
	if cfg.HTTP.DefaultLanguage == "" {
		cfg.HTTP.DefaultLanguage = "tr"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = orDuration(cfg.Redis.TTL, time.Hour)
	cfg.Auth.AccessTTL = orDuration(cfg.Auth.AccessTTL, time.Hour)
	cfg.Auth.RefreshTTL = orDuration(cfg.Auth.RefreshTTL, 7*24*time.Hour)
	if cfg.Auth.VerificationCode == "" {
		cfg.Auth.VerificationCode = "123456"
	}
	if cfg.Auth.LoginAttempts <= 0 {
		cfg.Auth.LoginAttempts = 5
	}
	cfg.Auth.LoginWindow = orDuration(cfg.Auth.LoginWindow, 15*time.Minute)
	if cfg.Import.BarcodeNamePrefix == "" {
		cfg.Import.BarcodeNamePrefix = "Campaign Barcode"
	}
}

// Validate checks the fields without which nothing can start.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	return nil
}

func orDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

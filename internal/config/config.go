package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int           `yaml:"port"`
	MetricsPort int           `yaml:"metrics_port"`
	JWTSecret   string        `yaml:"jwt_secret"`
	SessionTTL  time.Duration `yaml:"session_ttl"` // JWT + snapshot lifetime
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RouteConfig is the static routing/translation metadata for one payment
// type. Never mutated at runtime.
type RouteConfig struct {
	TranslationPrefix string `yaml:"translation_prefix"`
	IDField           string `yaml:"id_field"`
	SuccessRoute      string `yaml:"success_route"`
	ErrorRoute        string `yaml:"error_route"`
}

type PaymentConfig struct {
	// PollInterval is the fixed cadence between status checks; PollTimeout
	// bounds the whole polling window. Both are deliberately short: the
	// provider callback is the primary signal, polling is the safety net.
	PollInterval time.Duration `yaml:"poll_interval"`
	PollTimeout  time.Duration `yaml:"poll_timeout"`

	// Two equivalent app schemes; both trigger every deep-link pattern.
	Scheme       string `yaml:"scheme"`
	LegacyScheme string `yaml:"legacy_scheme"`

	Order    RouteConfig `yaml:"order"`
	Recharge RouteConfig `yaml:"recharge"`
}

type NotifierConfig struct {
	TelegramToken string `yaml:"telegram_token"`
	ChatID        int64  `yaml:"chat_id"`
}

type I18nConfig struct {
	DefaultLocale string `yaml:"default_locale"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Backend  BackendConfig  `yaml:"backend"`
	Payment  PaymentConfig  `yaml:"payment"`
	Notifier NotifierConfig `yaml:"notifier"`
	I18n     I18nConfig     `yaml:"i18n"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	DefaultPollInterval = 3 * time.Second
	DefaultPollTimeout  = 10 * time.Second
)

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Backend.BaseURL == "" {
		return nil, errors.New("backend.base_url is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Server.JWTSecret == "" {
		return nil, errors.New("server.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 9090
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = 30 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 8 * time.Second
	}
	if cfg.Payment.PollInterval <= 0 {
		cfg.Payment.PollInterval = DefaultPollInterval
	}
	if cfg.Payment.PollTimeout <= 0 {
		cfg.Payment.PollTimeout = DefaultPollTimeout
	}
	if cfg.Payment.Scheme == "" {
		cfg.Payment.Scheme = "com.brainnel.app"
	}
	if cfg.Payment.LegacyScheme == "" {
		cfg.Payment.LegacyScheme = "brainnel"
	}
	if cfg.Payment.Order.TranslationPrefix == "" {
		cfg.Payment.Order = RouteConfig{
			TranslationPrefix: "order",
			IDField:           "orderId",
			SuccessRoute:      "PaymentSuccessScreen",
			ErrorRoute:        "PayError",
		}
	}
	if cfg.Payment.Recharge.TranslationPrefix == "" {
		cfg.Payment.Recharge = RouteConfig{
			TranslationPrefix: "recharge",
			IDField:           "rechargeId",
			SuccessRoute:      "RechargeSuccessScreen",
			ErrorRoute:        "RechargeError",
		}
	}
	if cfg.I18n.DefaultLocale == "" {
		cfg.I18n.DefaultLocale = "fr"
	}
}

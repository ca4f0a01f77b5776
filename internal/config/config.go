// Package config loads service settings from an optional YAML file and the
// environment. Environment keys are the dotted keys upper-cased with '.'
// replaced by '_', e.g. store.redis.addr -> STORE_REDIS_ADDR.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const minSecretLen = 32

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Service string `mapstructure:"-"`

	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Cart    CartConfig    `mapstructure:"cart"`
	Store   StoreConfig   `mapstructure:"store"`
	Shop    ShopConfig    `mapstructure:"shop"`
	Gateway GatewayConfig `mapstructure:"gateway"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

func (h HTTPConfig) Addr() string { return ":" + h.Port }

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

type CatalogConfig struct {
	// Source is a JSON file path or an http(s) URL.
	Source string `mapstructure:"source"`
}

type CartConfig struct {
	CatalogURL string `mapstructure:"catalog_url"`
	KeyPrefix  string `mapstructure:"key_prefix"`
	PruneStale bool   `mapstructure:"prune_stale"`

	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	CookieName    string        `mapstructure:"cookie_name"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`

	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
}

type StoreConfig struct {
	Driver   string         `mapstructure:"driver"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type ShopConfig struct {
	Name         string `mapstructure:"name"`
	Phone        string `mapstructure:"phone"`
	MessagingURL string `mapstructure:"messaging_url"`
}

type GatewayConfig struct {
	CatalogURL string `mapstructure:"catalog_url"`
	CartURL    string `mapstructure:"cart_url"`
}

var defaultPorts = map[string]string{
	"gateway": "8080",
	"catalog": "8082",
	"cart":    "8083",
}

// Load reads CONFIG_FILE when set, otherwise config.yaml from . or ./etc if
// present, then applies the environment on top.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// PORT is what most container platforms inject.
	_ = v.BindEnv("http.port", "HTTP_PORT", "PORT")

	v.SetConfigType("yaml")
	explicit := strings.TrimSpace(v.GetString("config_file"))
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./etc")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Service = service

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	port, ok := defaultPorts[service]
	if !ok {
		port = "8080"
	}

	v.SetDefault("config_file", "")
	v.SetDefault("http.port", port)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.token", "")

	v.SetDefault("catalog.source", "data/products.json")

	v.SetDefault("cart.catalog_url", "http://localhost:8082")
	v.SetDefault("cart.key_prefix", "cart")
	v.SetDefault("cart.prune_stale", false)
	v.SetDefault("cart.session_secret", "")
	v.SetDefault("cart.session_ttl", "720h")
	v.SetDefault("cart.cookie_name", "cart_session")
	v.SetDefault("cart.cookie_secure", false)
	v.SetDefault("cart.rate_limit", 120)
	v.SetDefault("cart.rate_window", "1m")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.ttl", "720h")
	v.SetDefault("store.postgres.dsn", "")

	v.SetDefault("shop.name", "")
	v.SetDefault("shop.phone", "")
	v.SetDefault("shop.messaging_url", "https://wa.me")

	v.SetDefault("gateway.catalog_url", "http://localhost:8082")
	v.SetDefault("gateway.cart_url", "http://localhost:8083")
}

// Validate checks only what the configured service uses.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Port) == "" {
		return fmt.Errorf("%w: http.port is empty", ErrInvalid)
	}
	if c.Metrics.Enabled && c.Metrics.Token == "" {
		return fmt.Errorf("%w: metrics.token is required when metrics are enabled", ErrInvalid)
	}

	switch c.Service {
	case "catalog":
		if strings.TrimSpace(c.Catalog.Source) == "" {
			return fmt.Errorf("%w: catalog.source is empty", ErrInvalid)
		}
	case "cart":
		if len(c.Cart.SessionSecret) < minSecretLen {
			return fmt.Errorf("%w: cart.session_secret must be at least %d bytes", ErrInvalid, minSecretLen)
		}
		if c.Cart.CatalogURL == "" {
			return fmt.Errorf("%w: cart.catalog_url is empty", ErrInvalid)
		}
		if c.Cart.RateLimit > 0 && c.Cart.RateWindow <= 0 {
			return fmt.Errorf("%w: cart.rate_window must be positive", ErrInvalid)
		}
	case "gateway":
		if c.Gateway.CatalogURL == "" || c.Gateway.CartURL == "" {
			return fmt.Errorf("%w: gateway upstream urls are required", ErrInvalid)
		}
	}
	return nil
}

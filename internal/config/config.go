// Package config loads the storefront configuration from a YAML file with
// STOREFRONT_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const envPrefix = "STOREFRONT_"

type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

type WebConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Secret string `yaml:"secret"`
	// SessionMaxAge is the cookie lifetime in seconds.
	SessionMaxAge int `yaml:"session_max_age"`
}

type StorageConfig struct {
	// Type is "bolt" or "postgres".
	Type        string        `yaml:"type"`
	BoltPath    string        `yaml:"bolt_path"`
	PostgresURL string        `yaml:"postgres_url"`
	SaveTimeout time.Duration `yaml:"save_timeout"`
}

type CatalogConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type CartConfig struct {
	Currency      string        `yaml:"currency"`
	IdleTTL       time.Duration `yaml:"idle_ttl"`
	EvictSchedule string        `yaml:"evict_schedule"`
}

type TrackingConfig struct {
	// Endpoint receives beacons; empty means page views are only logged.
	Endpoint string `yaml:"endpoint"`
	Workers  int    `yaml:"workers"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system"`
	Web      WebConfig      `yaml:"web"`
	Storage  StorageConfig  `yaml:"storage"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Cart     CartConfig     `yaml:"cart"`
	Tracking TrackingConfig `yaml:"tracking"`
	Logger   LogConfig      `yaml:"logger"`
}

var DefaultAppConfig = AppConfig{
	System: SysConfig{
		Appid:    "storefront",
		Location: "UTC",
		Workdir:  "/var/storefront",
	},
	Web: WebConfig{
		Host:          "0.0.0.0",
		Port:          8080,
		Secret:        "storefront-dev-secret-change-me",
		SessionMaxAge: 30 * 24 * 3600,
	},
	Storage: StorageConfig{
		Type:        "bolt",
		BoltPath:    "storefront.db",
		SaveTimeout: 3 * time.Second,
	},
	Catalog: CatalogConfig{
		BaseURL: "https://fakestoreapi.com",
		Timeout: 10 * time.Second,
	},
	Cart: CartConfig{
		Currency:      "USD",
		IdleTTL:       30 * time.Minute,
		EvictSchedule: "@every 5m",
	},
	Tracking: TrackingConfig{
		Workers: 4,
	},
	Logger: LogConfig{
		Mode:     "development",
		Filename: "storefront.log",
	},
}

// LoadConfig reads cfgfile on top of the defaults and applies environment
// overrides. An empty or missing cfgfile yields the defaults.
func LoadConfig(cfgfile string) (*AppConfig, error) {
	cfg := DefaultAppConfig

	if cfgfile != "" {
		data, err := os.ReadFile(cfgfile)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("os.ReadFile: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("yaml.Unmarshal[%s]: %w", cfgfile, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	var errs []error
	conv := func(key string, set func(string) error) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("env %s%s: %w", envPrefix, key, err))
			}
		}
	}
	toInt := func(dst *int) func(string) error {
		return func(v string) (err error) {
			*dst, err = cast.ToIntE(v)
			return err
		}
	}
	toBool := func(dst *bool) func(string) error {
		return func(v string) (err error) {
			*dst, err = cast.ToBoolE(v)
			return err
		}
	}
	toDuration := func(dst *time.Duration) func(string) error {
		return func(v string) (err error) {
			*dst, err = cast.ToDurationE(v)
			return err
		}
	}

	str("SYSTEM_LOCATION", &c.System.Location)
	str("SYSTEM_WORKDIR", &c.System.Workdir)
	conv("SYSTEM_DEBUG", toBool(&c.System.Debug))

	str("WEB_HOST", &c.Web.Host)
	conv("WEB_PORT", toInt(&c.Web.Port))
	str("WEB_SECRET", &c.Web.Secret)
	conv("WEB_SESSION_MAX_AGE", toInt(&c.Web.SessionMaxAge))

	str("STORAGE_TYPE", &c.Storage.Type)
	str("STORAGE_BOLT_PATH", &c.Storage.BoltPath)
	str("STORAGE_POSTGRES_URL", &c.Storage.PostgresURL)
	conv("STORAGE_SAVE_TIMEOUT", toDuration(&c.Storage.SaveTimeout))

	str("CATALOG_BASE_URL", &c.Catalog.BaseURL)
	conv("CATALOG_TIMEOUT", toDuration(&c.Catalog.Timeout))

	str("CART_CURRENCY", &c.Cart.Currency)
	conv("CART_IDLE_TTL", toDuration(&c.Cart.IdleTTL))
	str("CART_EVICT_SCHEDULE", &c.Cart.EvictSchedule)

	str("TRACKING_ENDPOINT", &c.Tracking.Endpoint)
	conv("TRACKING_WORKERS", toInt(&c.Tracking.Workers))

	str("LOGGER_MODE", &c.Logger.Mode)
	conv("LOGGER_FILE_ENABLE", toBool(&c.Logger.FileEnable))
	str("LOGGER_FILENAME", &c.Logger.Filename)

	return errors.Join(errs...)
}

func (c *AppConfig) Validate() error {
	switch c.Storage.Type {
	case "bolt":
		if c.Storage.BoltPath == "" {
			return errors.New("storage.bolt_path is empty")
		}
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return errors.New("storage.postgres_url is empty")
		}
	default:
		return fmt.Errorf("storage.type %q is not supported", c.Storage.Type)
	}

	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port %d is out of range", c.Web.Port)
	}
	if c.Catalog.BaseURL == "" {
		return errors.New("catalog.base_url is empty")
	}

	return nil
}

func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ClientConfig — конфигурация клиента с переключением между двумя серверами.
type ClientConfig struct {
	Env         string              `yaml:"env" env:"ENV" env-default:"local"`
	Servers     ServersConfig       `yaml:"servers"`
	Preferences PreferencesConfig   `yaml:"preferences"`
	Timeouts    ClientTimeoutConfig `yaml:"timeouts"`
}

// ServersConfig — два кандидата: локальный (включён всегда) и облачный (опционально).
type ServersConfig struct {
	Local LocalServerConfig `yaml:"local"`
	Cloud CloudServerConfig `yaml:"cloud"`
}

// LocalServerConfig — локальный/офлайн сервер.
type LocalServerConfig struct {
	APIBaseURL  string `yaml:"api_base_url" env:"LOCAL_API_BASE_URL" env-default:"http://localhost:3000/api"`
	BaseURL     string `yaml:"base_url" env:"LOCAL_BASE_URL" env-default:"http://localhost:3000"`
	DisplayName string `yaml:"display_name" env:"LOCAL_DISPLAY_NAME" env-default:"Local server"`
}

// CloudServerConfig — облачный запасной сервер.
type CloudServerConfig struct {
	APIBaseURL  string `yaml:"api_base_url" env:"CLOUD_API_BASE_URL"`
	BaseURL     string `yaml:"base_url" env:"CLOUD_BASE_URL"`
	DisplayName string `yaml:"display_name" env:"CLOUD_DISPLAY_NAME" env-default:"Cloud server"`
	Enabled     bool   `yaml:"enabled" env:"CLOUD_ENABLED" env-default:"false"`
}

// PreferencesConfig — где хранится выбранный сервер.
// Пустой RedisURL — выбор живёт только в памяти процесса.
type PreferencesConfig struct {
	RedisURL string `yaml:"redis_url" env:"PREFERENCES_REDIS_URL"`
	Key      string `yaml:"key" env:"PREFERENCES_KEY" env-default:"webthreads:active_server"`
}

// ClientTimeoutConfig — таймауты исходящих вызовов.
type ClientTimeoutConfig struct {
	Request time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"30s"`
	Health  time.Duration `yaml:"health" env:"HEALTH_TIMEOUT" env-default:"5s"`
}

// MustLoadClient — обёртка над LoadClient с panic при ошибке.
func MustLoadClient(path string) *ClientConfig {
	cfg, err := LoadClient(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// LoadClient загружает конфигурацию клиента по тому же приоритету, что и Load.
func LoadClient(path string) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := load(path, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *ClientConfig) validate() error {
	if err := validateURL("servers.local.api_base_url", c.Servers.Local.APIBaseURL); err != nil {
		return err
	}

	if err := validateURL("servers.local.base_url", c.Servers.Local.BaseURL); err != nil {
		return err
	}

	if c.Servers.Cloud.Enabled {
		if err := validateURL("servers.cloud.api_base_url", c.Servers.Cloud.APIBaseURL); err != nil {
			return err
		}

		if err := validateURL("servers.cloud.base_url", c.Servers.Cloud.BaseURL); err != nil {
			return err
		}
	}

	if strings.TrimSpace(c.Preferences.Key) == "" {
		return fmt.Errorf("preferences.key is required")
	}

	if c.Timeouts.Request <= 0 {
		return fmt.Errorf("timeouts.request must be > 0")
	}

	if c.Timeouts.Health <= 0 {
		return fmt.Errorf("timeouts.health must be > 0")
	}

	return nil
}

func validateURL(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s is required", field)
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", field, raw)
	}

	return nil
}

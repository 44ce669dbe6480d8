// config реализует конфигурацию webthreads: загрузка из YAML/ENV с предсказуемым приоритетом.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. только переменные окружения.
//
// После чтения файла ENV-переменные накладываются поверх значений из YAML.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// DefaultUpdateRetries совпадает с env-default для limits.update_retries.
const DefaultUpdateRetries = 16

// Config — корневая конфигурация сервера комментариев.
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	DB       DBConfig      `yaml:"db"`
	Kafka    KafkaConfig   `yaml:"kafka"`
	Limits   LimitsConfig  `yaml:"limits"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// HTTPConfig — публичный HTTP-сервер.
// BasePath — префикс API-маршрутов; /health, /livez, /healthz, /metrics живут на корне.
type HTTPConfig struct {
	Host     string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"HTTP_PORT" env-default:"3000"`
	BasePath string `yaml:"base_path" env:"HTTP_BASE_PATH" env-default:"/api"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// DBConfig — хранилище комментариев.
// Driver=memory поднимает автономный сервер без внешней БД (локальный/офлайн режим).
type DBConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"mongo"`
	URL    string `yaml:"url" env:"DATABASE_URL"`
}

// KafkaConfig — публикация доменных событий. Пустой Brokers отключает публикацию.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"webthreads.events"`
}

// Enabled сообщает, настроена ли публикация событий.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// LimitsConfig — ограничения на входные данные и на конкурентные обновления.
type LimitsConfig struct {
	// Максимальная длина текста комментария/ответа в рунах.
	MaxTextLength int `yaml:"max_text_length" env:"MAX_TEXT_LENGTH" env-default:"5000"`
	// Число попыток условной записи документа при конкурентных изменениях
	// (между попытками пауза с джиттером).
	UpdateRetries int `yaml:"update_retries" env:"UPDATE_RETRIES" env-default:"16"`
}

// TimeoutConfig — общий дедлайн обработки запроса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию сервера по приоритету источников.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := load(path, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// load читает cfg из первого доступного источника: path, CONFIG_PATH, ./local.yaml, ENV.
func load(path string, cfg any) error {
	// чтение файла + overlay ENV.
	tryRead := func(p string) error {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, cfg); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(cfg); err != nil {
			return fmt.Errorf("failed to overlay env: %w", err)
		}

		return nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverMongo:
		if strings.TrimSpace(c.DB.URL) == "" {
			return fmt.Errorf("db.url is required for driver %q", DriverMongo)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("db.driver must be %q or %q, got %q", DriverMongo, DriverMemory, c.DB.Driver)
	}

	if c.HTTP.BasePath != "" && !strings.HasPrefix(c.HTTP.BasePath, "/") {
		return fmt.Errorf("http.base_path must start with '/'")
	}

	if c.Limits.MaxTextLength <= 0 {
		return fmt.Errorf("limits.max_text_length must be > 0")
	}

	if c.Limits.UpdateRetries <= 0 {
		return fmt.Errorf("limits.update_retries must be > 0")
	}

	if c.Kafka.Enabled() && strings.TrimSpace(c.Kafka.Topic) == "" {
		return fmt.Errorf("kafka.topic is required when kafka.brokers is set")
	}

	return nil
}

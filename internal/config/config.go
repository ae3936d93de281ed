// Package config загружает настройки клиента из YAML файла, переменных
// окружения HOTELDESK_* и флагов командной строки (в порядке возрастания приоритета).
package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfigPath переменная окружения с путем к YAML файлу
const EnvConfigPath = "HOTELDESK_CONFIG"

type Config struct {
	Server          string        `yaml:"server" env:"HOTELDESK_SERVER" env-default:"http://localhost:8000"`
	DBPath          string        `yaml:"db" env:"HOTELDESK_DB" env-default:"hoteldesk.db"`
	CachePath       string        `yaml:"cache_db" env:"HOTELDESK_CACHE_DB" env-default:"hoteldesk-cache.db"`
	StorePassphrase string        `yaml:"-" env:"HOTELDESK_STORE_PASSPHRASE"`
	LogLevel        string        `yaml:"log_level" env:"HOTELDESK_LOG_LEVEL" env-default:"warn"`
	Paths           Paths         `yaml:"paths"`
	Timeout         time.Duration `yaml:"timeout" env:"HOTELDESK_TIMEOUT" env-default:"30s"`
	RefreshTimeout  time.Duration `yaml:"refresh_timeout" env:"HOTELDESK_REFRESH_TIMEOUT" env-default:"15s"`
	CleaningWindow  time.Duration `yaml:"cleaning_window" env:"HOTELDESK_CLEANING_WINDOW" env-default:"2h"`
	ShowVersion     bool          `yaml:"-"`
}

// Paths пути эндпоинтов API
type Paths struct {
	Login           string `yaml:"login" env:"HOTELDESK_PATH_LOGIN" env-default:"/api/login/"`
	Refresh         string `yaml:"refresh" env:"HOTELDESK_PATH_REFRESH" env-default:"/api/token/refresh/"`
	Reservations    string `yaml:"reservations" env:"HOTELDESK_PATH_RESERVATIONS" env-default:"/api/reservas/"`
	DashboardStream string `yaml:"dashboard_stream" env:"HOTELDESK_PATH_STREAM" env-default:"/api/dashboard/stream/"`
}

// Load разбирает флаги из args, читает файл и окружение и применяет
// явно заданные флаги поверх. Возвращает оставшиеся позиционные аргументы.
func Load(args []string, output io.Writer) (*Config, []string, error) {
	fs := flag.NewFlagSet("hoteldesk", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}

	configPath := fs.String("config", os.Getenv(EnvConfigPath), "Path to YAML config file")
	showVersion := fs.Bool("version", false, "Show version information")
	server := fs.String("server", "", "Server URL")
	dbPath := fs.String("db", "", "Path to local credentials database")
	cachePath := fs.String("cache-db", "", "Path to local reservations cache")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	timeout := fs.Duration("timeout", 0, "HTTP request timeout")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg, err := read(*configPath)
	if err != nil {
		return nil, nil, err
	}

	// Флаги переопределяют только если заданы явно
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.Server = *server
		case "db":
			cfg.DBPath = *dbPath
		case "cache-db":
			cfg.CachePath = *cachePath
		case "log-level":
			cfg.LogLevel = *logLevel
		case "timeout":
			cfg.Timeout = *timeout
		}
	})
	cfg.ShowVersion = *showVersion

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, fs.Args(), nil
}

func read(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Validate проверяет и нормализует значения
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL %q: must be http(s)://host", c.Server)
	}
	c.Server = strings.TrimRight(c.Server, "/")

	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Timeout < 0 || c.RefreshTimeout < 0 || c.CleaningWindow < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db path cannot be empty")
	}
	return nil
}

// SlogLevel возвращает уровень логирования
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Usage печатает описание флагов и переменных окружения
func Usage(w io.Writer) {
	var cfg Config
	header := "Environment variables:"
	cleanenv.FUsage(w, &cfg, &header)()
}

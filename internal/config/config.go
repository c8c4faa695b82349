package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Freeeeeet/coderelay_bot/internal/mailbox"
	"github.com/Freeeeeet/coderelay_bot/internal/ratelimit"
)

type Config struct {
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	Environment   string `mapstructure:"ENV"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`

	DBDriver string `mapstructure:"DB_DRIVER"`
	DBDSN    string `mapstructure:"DB_DSN"`

	// EncryptionKey парольная фраза хранилища; пустая означает чтение из keyring
	EncryptionKey string `mapstructure:"ENCRYPTION_KEY"`
	Keyring       KeyringConfig

	ProvidersFile string `mapstructure:"PROVIDERS_FILE"`
	Mailbox       MailboxConfig

	RateLimits     map[ratelimit.Action]ratelimit.Policy
	RateLimitSweep time.Duration `mapstructure:"RATE_LIMIT_SWEEP_INTERVAL"`
	HealthAddr     string        `mapstructure:"HEALTH_ADDR"`
}

// KeyringConfig где искать парольную фразу, если ENCRYPTION_KEY не задан
type KeyringConfig struct {
	Backend  string `mapstructure:"KEYRING_BACKEND"`
	Dir      string `mapstructure:"KEYRING_DIR"`
	Password string `mapstructure:"KEYRING_PASSWORD"`
}

type MailboxConfig struct {
	ConnectTimeout time.Duration `mapstructure:"MAILBOX_CONNECT_TIMEOUT"`
	SessionTimeout time.Duration `mapstructure:"MAILBOX_SESSION_TIMEOUT"`
	MaxMessages    int           `mapstructure:"MAILBOX_MAX_MESSAGES"`
	MaxAge         time.Duration `mapstructure:"MAILBOX_MAX_AGE"`
	ScanBody       bool          `mapstructure:"MAILBOX_SCAN_BODY"`
}

// Options параметры поиска кода для mailbox.Retriever
func (m MailboxConfig) Options() mailbox.Options {
	return mailbox.Options{
		MaxMessages: m.MaxMessages,
		MaxAge:      m.MaxAge,
		ScanBody:    m.ScanBody,
	}
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфигурацию из переменных окружения
func FromEnv(getenv func(string) string) (*Config, error) {
	e := &env{getenv: getenv}
	defaults := mailbox.DefaultOptions()

	cfg := &Config{
		TelegramToken: e.str("TELEGRAM_TOKEN", ""),
		Environment:   e.str("ENV", "development"),
		LogLevel:      e.str("LOG_LEVEL", ""),
		DBDriver:      strings.ToLower(e.str("DB_DRIVER", "postgres")),
		DBDSN:         e.str("DB_DSN", ""),
		EncryptionKey: getenv("ENCRYPTION_KEY"),
		Keyring: KeyringConfig{
			Backend:  e.str("KEYRING_BACKEND", "file"),
			Dir:      e.str("KEYRING_DIR", ""),
			Password: getenv("KEYRING_PASSWORD"),
		},
		ProvidersFile: e.str("PROVIDERS_FILE", ""),
		Mailbox: MailboxConfig{
			ConnectTimeout: e.duration("MAILBOX_CONNECT_TIMEOUT", 10*time.Second),
			SessionTimeout: e.duration("MAILBOX_SESSION_TIMEOUT", 30*time.Second),
			MaxMessages:    e.integer("MAILBOX_MAX_MESSAGES", defaults.MaxMessages),
			MaxAge:         e.duration("MAILBOX_MAX_AGE", defaults.MaxAge),
			ScanBody:       e.boolean("MAILBOX_SCAN_BODY", defaults.ScanBody),
		},
		RateLimitSweep: e.duration("RATE_LIMIT_SWEEP_INTERVAL", time.Hour),
		HealthAddr:     e.str("HEALTH_ADDR", ""),
	}

	cfg.RateLimits = ratelimit.DefaultPolicies()
	for action := range cfg.RateLimits {
		name := "RATE_LIMIT_" + strings.ToUpper(string(action))
		raw := strings.TrimSpace(getenv(name))
		if raw == "" {
			continue
		}
		p, err := ParsePolicy(raw)
		if err != nil {
			e.fail(name, err)
			continue
		}
		cfg.RateLimits[action] = p
	}

	if e.err != nil {
		return nil, e.err
	}

	// Проверяем обязательные поля
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}
	if cfg.Mailbox.MaxMessages < 1 {
		return nil, fmt.Errorf("MAILBOX_MAX_MESSAGES must be positive")
	}

	return cfg, nil
}

// ParsePolicy разбирает "5/1m": не больше 5 запросов за минуту
func ParsePolicy(raw string) (ratelimit.Policy, error) {
	maxPart, windowPart, ok := strings.Cut(raw, "/")
	if !ok {
		return ratelimit.Policy{}, fmt.Errorf("expected N/duration, got %q", raw)
	}

	n, err := strconv.Atoi(strings.TrimSpace(maxPart))
	if err != nil || n < 1 {
		return ratelimit.Policy{}, fmt.Errorf("invalid request count %q", maxPart)
	}
	window, err := time.ParseDuration(strings.TrimSpace(windowPart))
	if err != nil || window <= 0 {
		return ratelimit.Policy{}, fmt.Errorf("invalid window %q", windowPart)
	}

	return ratelimit.Policy{Max: n, Window: window}, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// env читает переменные и запоминает первую ошибку разбора
type env struct {
	getenv func(string) string
	err    error
}

func (e *env) fail(name string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s: %w", name, err)
	}
}

func (e *env) str(name, def string) string {
	if v := strings.TrimSpace(e.getenv(name)); v != "" {
		return v
	}
	return def
}

func (e *env) duration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(name))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, err)
		return def
	}
	return d
}

func (e *env) integer(name string, def int) int {
	v := strings.TrimSpace(e.getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(name, err)
		return def
	}
	return n
}

func (e *env) boolean(name string, def bool) bool {
	v := strings.TrimSpace(e.getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(name, err)
		return def
	}
	return b
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	// SecretToken is echoed by Telegram in X-Telegram-Bot-Api-Secret-Token.
	SecretToken string `yaml:"secret_token" envconfig:"WEBHOOK_SECRET_TOKEN"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// StorageConfig selects and configures the document store backend.
type StorageConfig struct {
	Driver   string         `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	Dir      string         `yaml:"dir" envconfig:"STORAGE_DIR"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// PostgresConfig holds database connection settings.
type PostgresConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	URL    string `yaml:"url" envconfig:"REDIS_URL"`
	Prefix string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
}

// SessionConfig configures the ephemeral conversation session store.
type SessionConfig struct {
	Backend string        `yaml:"backend" envconfig:"SESSION_BACKEND"`
	IdleTTL time.Duration `yaml:"idle_ttl" envconfig:"SESSION_IDLE_TTL"`
}

// ConversationConfig bounds event processing.
type ConversationConfig struct {
	HandlerTimeout time.Duration `yaml:"handler_timeout" envconfig:"CONVERSATION_HANDLER_TIMEOUT"`
	MailboxSize    int           `yaml:"mailbox_size"`
	MailboxIdle    time.Duration `yaml:"mailbox_idle"`
	// AdminLang renders replies to the admin until a language is chosen.
	AdminLang string `yaml:"admin_lang" envconfig:"CONVERSATION_ADMIN_LANG"`
}

// ShopConfig carries storefront details rendered on the About screen.
type ShopConfig struct {
	Hours string `yaml:"hours" envconfig:"SHOP_HOURS"`
	Phone string `yaml:"phone" envconfig:"SHOP_PHONE"`
}

// SeedConfig points at an optional catalog seed file.
type SeedConfig struct {
	CatalogFile string `yaml:"catalog_file" envconfig:"SEED_CATALOG_FILE"`
}

// HTTPConfig configures the ops endpoint; empty Listen disables it.
type HTTPConfig struct {
	Listen string `yaml:"listen" envconfig:"HTTP_LISTEN"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
	StorageMemory   = "memory"

	SessionMemory   = "memory"
	SessionBigcache = "bigcache"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the application configuration.
type Config struct {
	Telegram     TelegramConfig     `yaml:"telegram"`
	Webhook      WebhookConfig      `yaml:"webhook"`
	Logging      LoggingConfig      `yaml:"logging"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Storage      StorageConfig      `yaml:"storage"`
	Session      SessionConfig      `yaml:"session"`
	Conversation ConversationConfig `yaml:"conversation"`
	Shop         ShopConfig         `yaml:"shop"`
	Seed         SeedConfig         `yaml:"seed"`
	HTTP         HTTPConfig         `yaml:"http"`
}

// CoreConfig returns the configuration itself so *Config satisfies carrier interfaces.
func (c *Config) CoreConfig() *Config { return c }

// Load reads configuration from a YAML file, an optional .env file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	// .env is optional in production
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Telegram.AdminID <= 0 {
		return fmt.Errorf("telegram.admin_id must be > 0")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if err := normalizeStorage(&cfg.Storage); err != nil {
		return err
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	switch backend {
	case "":
		backend = SessionMemory
	case SessionMemory, SessionBigcache:
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, bigcache", cfg.Session.Backend)
	}
	cfg.Session.Backend = backend
	if cfg.Session.IdleTTL < 0 {
		return fmt.Errorf("session.idle_ttl must be >= 0")
	}
	if cfg.Session.IdleTTL == 0 {
		cfg.Session.IdleTTL = 24 * time.Hour
	}

	if cfg.Conversation.HandlerTimeout <= 0 {
		cfg.Conversation.HandlerTimeout = 10 * time.Second
	}
	if cfg.Conversation.MailboxSize <= 0 {
		cfg.Conversation.MailboxSize = 16
	}
	if cfg.Conversation.MailboxIdle <= 0 {
		cfg.Conversation.MailboxIdle = time.Minute
	}
	lang := strings.ToLower(strings.TrimSpace(cfg.Conversation.AdminLang))
	switch lang {
	case "":
		lang = "ru"
	case "uz", "ru":
	default:
		return fmt.Errorf("invalid conversation.admin_lang %q; allowed: uz, ru", cfg.Conversation.AdminLang)
	}
	cfg.Conversation.AdminLang = lang

	return nil
}

func normalizeStorage(s *StorageConfig) error {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	if driver == "" {
		driver = StorageFile
	}
	switch driver {
	case StorageFile:
		if strings.TrimSpace(s.Dir) == "" {
			s.Dir = "data"
		}
	case StoragePostgres:
		if s.Postgres.Host == "" || s.Postgres.Name == "" {
			return fmt.Errorf("storage.postgres.host and storage.postgres.name are required for the postgres driver")
		}
		if s.Postgres.Port == "" {
			s.Postgres.Port = "5432"
		}
		if s.Postgres.SSLMode == "" {
			s.Postgres.SSLMode = "disable"
		}
		if s.Postgres.MaxConnections <= 0 {
			s.Postgres.MaxConnections = 5
		}
	case StorageRedis:
		if strings.TrimSpace(s.Redis.URL) == "" {
			return fmt.Errorf("storage.redis.url is required for the redis driver")
		}
		if s.Redis.Prefix == "" {
			s.Redis.Prefix = "shopbot"
		}
	case StorageMemory:
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: file, postgres, redis, memory", s.Driver)
	}
	s.Driver = driver
	return nil
}

// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
	"serotonyl.ru/airdrop-bot/internal/features/admin"
	"serotonyl.ru/airdrop-bot/internal/features/airdrop"
)

// Бэкенды хранилища.
const (
	BackendPostgres = "postgres"
	BackendLevelDB  = "leveldb"
	BackendMemory   = "memory"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	// ID основного чата сообщества. 0 — личные сообщения без проверки членства
	CommunityChatID int64 `envconfig:"COMMUNITY_CHAT_ID" default:"0"`

	// --- Storage ---
	StoreBackend string `envconfig:"STORE_BACKEND" default:"postgres"`
	LevelDBPath  string `envconfig:"LEVELDB_PATH" default:"data/airdrop"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"airdrop"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`
	// Адрес HTTP-сервера метрик Prometheus. Пусто — сервер не запускается
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash    string        `envconfig:"ADMIN_PASSWORD_HASH"`
	AdminInitRequireAuth bool          `envconfig:"ADMIN_INIT_REQUIRE_AUTH" default:"true"`
	AdminSessionTTL      time.Duration `envconfig:"ADMIN_SESSION_TTL" default:"24h"`

	// --- Airdrop ---
	AirdropModeRaw           string `envconfig:"AIRDROP_MODE" default:"token"`
	AirdropPointsCap         int64  `envconfig:"AIRDROP_POINTS_CAP" default:"5"`
	AirdropDefaultRewardsRaw string `envconfig:"AIRDROP_DEFAULT_REWARDS" default:""`
	// Аккаунт, с которого платятся награды; его согласие даёт процесс бота
	AirdropDistributor string `envconfig:"AIRDROP_DISTRIBUTOR" default:"treasury"`
	AirdropTokenSymbol string `envconfig:"AIRDROP_TOKEN_SYMBOL" default:""`
	LowBalanceRaw      string `envconfig:"AIRDROP_LOW_BALANCE" default:"0"`

	// --- Jobs ---
	SummaryCron      string `envconfig:"SUMMARY_CRON" default:"0 21 * * *"`
	BalanceCheckCron string `envconfig:"BALANCE_CHECK_CRON" default:"0 * * * *"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// Разобранные значения (заполняются в Load)
	AirdropMode    airdrop.Mode                `envconfig:"-"`
	DefaultRewards map[actions.Action]*big.Int `envconfig:"-"`
	LowBalance     *big.Int                    `envconfig:"-"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Distributor возвращает аккаунт-распределитель.
func (c *Config) Distributor() auth.Principal {
	return auth.Principal(strings.TrimSpace(c.AirdropDistributor))
}

// Validate проверяет настройки, общие для бота и airdropctl.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD обязателен для STORE_BACKEND=postgres")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
		}
	case BackendLevelDB:
		if strings.TrimSpace(c.LevelDBPath) == "" {
			return fmt.Errorf("LEVELDB_PATH не задан")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("неизвестный STORE_BACKEND %q (postgres|leveldb|memory)", c.StoreBackend)
	}
	if c.Distributor().IsZero() {
		return fmt.Errorf("AIRDROP_DISTRIBUTOR не задан")
	}
	if c.AirdropPointsCap <= 0 {
		return fmt.Errorf("AIRDROP_POINTS_CAP должен быть > 0")
	}
	return nil
}

// ValidateBot проверяет настройки, нужные только Telegram-боту.
func (c *Config) ValidateBot() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN не задан")
	}
	if c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH не задан")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("некорректные RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.parse(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) parse() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))

	mode, err := airdrop.ParseMode(c.AirdropModeRaw)
	if err != nil {
		return fmt.Errorf("AIRDROP_MODE: %w", err)
	}
	c.AirdropMode = mode

	rewards, err := admin.ParseRewards(c.AirdropDefaultRewardsRaw)
	if err != nil {
		return fmt.Errorf("AIRDROP_DEFAULT_REWARDS: %w", err)
	}
	c.DefaultRewards = rewards

	low, err := common.ParseAmount(c.LowBalanceRaw)
	if err != nil {
		return fmt.Errorf("AIRDROP_LOW_BALANCE: %w", err)
	}
	c.LowBalance = low
	return nil
}

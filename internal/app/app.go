// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: открывает хранилище, создаёт сервисы, обработчики,
// фильтры и собирает всё в один объект Bot. Сервисы без Telegram
// (NewServices) использует и airdropctl.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/bot"
	"serotonyl.ru/airdrop-bot/internal/bot/filters"
	"serotonyl.ru/airdrop-bot/internal/config"
	"serotonyl.ru/airdrop-bot/internal/features/admin"
	"serotonyl.ru/airdrop-bot/internal/features/airdrop"
	"serotonyl.ru/airdrop-bot/internal/features/economy"
	"serotonyl.ru/airdrop-bot/internal/features/members"
	"serotonyl.ru/airdrop-bot/internal/jobs"
	"serotonyl.ru/airdrop-bot/internal/metrics"
	"serotonyl.ru/airdrop-bot/internal/store"
	"serotonyl.ru/airdrop-bot/internal/store/leveldb"
	"serotonyl.ru/airdrop-bot/internal/store/postgres"
)

// Services — ядро аирдропа поверх одного хранилища.
type Services struct {
	Store   store.Store
	Oracle  auth.Oracle
	Admin   *admin.Service
	Economy *economy.Service
	Airdrop *airdrop.Service
	Members *members.Service
}

// OpenStore открывает хранилище по STORE_BACKEND.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
			DSN:      cfg.DatabaseDSN(),
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		return postgres.New(pool), nil

	case config.BackendLevelDB:
		st, err := leveldb.Open(cfg.LevelDBPath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", cfg.LevelDBPath).Info("Хранилище LevelDB открыто")
		return st, nil

	case config.BackendMemory:
		st, err := leveldb.OpenMem()
		if err != nil {
			return nil, err
		}
		log.Warn("Хранилище в памяти: данные пропадут после остановки")
		return st, nil

	default:
		return nil, fmt.Errorf("неизвестный STORE_BACKEND %q", cfg.StoreBackend)
	}
}

// NewServices создаёт сервисы ядра.
func NewServices(cfg *config.Config, st store.Store) *Services {
	oracle := auth.NewContextOracle()

	adminService := admin.NewService(st, oracle, admin.Options{
		PasswordHash:    cfg.AdminPasswordHash,
		RequireInitAuth: cfg.AdminInitRequireAuth,
		DefaultRewards:  cfg.DefaultRewards,
		SessionTTL:      cfg.AdminSessionTTL,
	})
	economyService := economy.NewService(st, economy.NewLedger(oracle))
	airdropService := airdrop.NewService(st, adminService, economyService.Ledger(), oracle, airdrop.Options{
		Mode:      cfg.AirdropMode,
		PointsCap: big.NewInt(cfg.AirdropPointsCap),
	})

	return &Services{
		Store:   st,
		Oracle:  oracle,
		Admin:   adminService,
		Economy: economyService,
		Airdrop: airdropService,
		Members: members.NewService(st),
	}
}

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Services  *Services
	BotAPI    *tgbotapi.BotAPI
	Metrics   *http.Server // nil, если METRICS_ADDR пуст
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.ValidateBot(); err != nil {
		return nil, err
	}

	// === 1. Хранилище ===
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Сервисы ===
	svc := NewServices(cfg, st)

	// === 4. Обработчики ===
	// Баллы показываются в /balance только в режиме points
	var points economy.PointsReader
	if cfg.AirdropMode == airdrop.ModePoints {
		points = svc.Airdrop
	}
	memberHandler := members.NewHandler(svc.Members)
	adminHandler := admin.NewHandler(svc.Admin, botAPI, cfg.AirdropTokenSymbol)
	airdropHandler := airdrop.NewHandler(svc.Airdrop, svc.Admin, botAPI, cfg.Distributor(), cfg.AirdropTokenSymbol)
	economyHandler := economy.NewHandler(svc.Economy, svc.Admin, points, botAPI, cfg.AirdropTokenSymbol)

	// === 5. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.CommunityChatID, svc.Members, botAPI, botAPI)

	// === 6. Собираем бота ===
	b := bot.New(
		botAPI, botAPI, cfg,
		svc.Members, memberHandler,
		svc.Admin, adminHandler,
		airdropHandler,
		economyHandler,
		chatFilter,
	)

	// === 7. Планировщик задач ===
	loc, err := time.LoadLocation(cfg.AppTimezone)
	if err != nil {
		log.WithError(err).Warnf("Не удалось загрузить %s, используем Europe/Moscow", cfg.AppTimezone)
		loc = nil
	}
	scheduler := jobs.NewScheduler(svc.Airdrop, svc.Admin, svc.Economy, b.SendMessageToUser, jobs.Options{
		Location:         loc,
		SummaryCron:      cfg.SummaryCron,
		BalanceCheckCron: cfg.BalanceCheckCron,
		Distributor:      cfg.Distributor(),
		LowBalance:       cfg.LowBalance,
		Mode:             cfg.AirdropMode,
		Symbol:           cfg.AirdropTokenSymbol,
	})

	// === 8. Метрики ===
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Services:  svc,
		BotAPI:    botAPI,
		Metrics:   metricsServer,
	}, nil
}

// StartMetrics запускает HTTP-сервер метрик в фоне.
func (a *App) StartMetrics() {
	if a.Metrics == nil {
		return
	}
	go func() {
		log.WithField("addr", a.Metrics.Addr).Info("Метрики Prometheus доступны на /metrics")
		if err := a.Metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Сервер метрик остановился")
		}
	}()
}

// Close останавливает сервер метрик и закрывает хранилище.
func (a *App) Close(ctx context.Context) {
	if a.Metrics != nil {
		if err := a.Metrics.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Ошибка остановки сервера метрик")
		}
	}
	if err := a.Services.Store.Close(); err != nil {
		log.WithError(err).Warn("Ошибка закрытия хранилища")
	}
}

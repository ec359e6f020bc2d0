// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневную сводку аирдропа
// администратору и ежечасную проверку баланса распределителя.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
	"serotonyl.ru/airdrop-bot/internal/features/airdrop"
)

// StatsSource — статистика выдач (airdrop.Service).
type StatsSource interface {
	Stats(ctx context.Context) ([]airdrop.ActionStats, error)
}

// Registry — реестр администратора (admin.Service).
type Registry interface {
	Admin(ctx context.Context) (auth.Principal, error)
	CurrentToken(ctx context.Context) (string, error)
}

// BalanceSource — балансы токенов (economy.Service).
type BalanceSource interface {
	GetBalance(ctx context.Context, token string, account auth.Principal) (*big.Int, error)
}

// Options — расписание и пороги.
type Options struct {
	Location         *time.Location
	SummaryCron      string
	BalanceCheckCron string
	Distributor      auth.Principal
	// LowBalance — порог предупреждения; 0 отключает проверку
	LowBalance *big.Int
	Mode       airdrop.Mode
	Symbol     string
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	stats    StatsSource
	registry Registry
	balances BalanceSource
	sendFunc func(userID int64, text string)
	opts     Options

	mu         sync.Mutex
	lastCounts map[uint32]int64 // счётчики на момент прошлой сводки
}

// NewScheduler создаёт планировщик задач. Без Location — Europe/Moscow.
func NewScheduler(stats StatsSource, registry Registry, balances BalanceSource, sendFunc func(userID int64, text string), opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = common.MoscowLocation()
	}
	if opts.SummaryCron == "" {
		opts.SummaryCron = "0 21 * * *"
	}
	if opts.BalanceCheckCron == "" {
		opts.BalanceCheckCron = "0 * * * *"
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(opts.Location)),
		stats:      stats,
		registry:   registry,
		balances:   balances,
		sendFunc:   sendFunc,
		opts:       opts,
		lastCounts: make(map[uint32]int64),
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.opts.SummaryCron, func() {
		log.Info("[CRON] Ежедневная сводка аирдропа")
		if err := s.SendDailySummary(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка сводки")
		}
	})
	if err != nil {
		return fmt.Errorf("расписание сводки %q: %w", s.opts.SummaryCron, err)
	}

	if s.opts.Mode == airdrop.ModeToken {
		_, err = s.cron.AddFunc(s.opts.BalanceCheckCron, func() {
			log.Debug("[CRON] Проверка баланса распределителя")
			if err := s.CheckDistributorBalance(ctx); err != nil {
				log.WithError(err).Error("[CRON] Ошибка проверки баланса")
			}
		})
		if err != nil {
			return fmt.Errorf("расписание проверки баланса %q: %w", s.opts.BalanceCheckCron, err)
		}
	}

	s.cron.Start()
	log.WithField("tz", s.opts.Location.String()).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// SendDailySummary отправляет администратору сводку: выдачи за период и всего.
func (s *Scheduler) SendDailySummary(ctx context.Context) error {
	adminID, ok, err := s.adminChat(ctx)
	if err != nil || !ok {
		return err
	}

	stats, err := s.stats.Stats(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📈 Сводка аирдропа на %s\n", time.Now().In(s.opts.Location).Format("02.01.2006")))
	var periodTotal int64
	for _, st := range stats {
		delta := st.Count - s.lastCounts[st.Action.Code()]
		periodTotal += delta
		sb.WriteString(fmt.Sprintf("• %s: +%d (всего %d %s, %s)\n",
			st.Action.Title(), delta, st.Count, common.PluralizeClaims(st.Count), s.formatAmount(st.Total)))
	}
	sb.WriteString(fmt.Sprintf("За период: %d %s", periodTotal, common.PluralizeClaims(periodTotal)))

	s.sendFunc(adminID, sb.String())
	for _, st := range stats {
		s.lastCounts[st.Action.Code()] = st.Count
	}
	return nil
}

// CheckDistributorBalance предупреждает администратора, когда баланс
// распределителя опускается ниже порога.
func (s *Scheduler) CheckDistributorBalance(ctx context.Context) error {
	if s.opts.LowBalance == nil || s.opts.LowBalance.Sign() <= 0 {
		return nil
	}
	token, err := s.registry.CurrentToken(ctx)
	if err != nil || token == "" {
		return err
	}

	balance, err := s.balances.GetBalance(ctx, token, s.opts.Distributor)
	if err != nil {
		return err
	}
	if balance.Cmp(s.opts.LowBalance) >= 0 {
		return nil
	}

	log.WithFields(log.Fields{
		"distributor": s.opts.Distributor,
		"balance":     balance.String(),
		"threshold":   s.opts.LowBalance.String(),
	}).Warn("Баланс распределителя ниже порога")

	adminID, ok, err := s.adminChat(ctx)
	if err != nil || !ok {
		return err
	}
	s.sendFunc(adminID, fmt.Sprintf("⚠️ На счёте %s осталось %s (порог %s)",
		s.opts.Distributor, s.formatAmount(balance), s.formatAmount(s.opts.LowBalance)))
	return nil
}

// adminChat возвращает чат администратора. Если админ не назначен или
// не Telegram-пользователь, слать некому — ok == false без ошибки.
func (s *Scheduler) adminChat(ctx context.Context) (int64, bool, error) {
	admin, err := s.registry.Admin(ctx)
	if errors.Is(err, common.ErrNotInitialized) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, ok := admin.TelegramID()
	return id, ok, nil
}

func (s *Scheduler) formatAmount(v *big.Int) string {
	if s.opts.Mode == airdrop.ModePoints {
		return common.FormatAmount(v, "")
	}
	return common.FormatAmount(v, s.opts.Symbol)
}

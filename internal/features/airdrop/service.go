// Package airdrop — service.go содержит основную логику выдачи наград.
//
// Проверка «уже выдано», чтение награды, перевод и запись о выдаче
// выполняются в одной транзакции хранилища: либо всё, либо ничего.
package airdrop

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
	"serotonyl.ru/airdrop-bot/internal/metrics"
	"serotonyl.ru/airdrop-bot/internal/store"
)

// RewardSource — откуда берутся награда и токен (реестр администратора).
type RewardSource interface {
	RewardAmount(r store.Reader, a actions.Action) (*big.Int, error)
	Token(r store.Reader) (string, error)
}

// Transferer — сервис переводов токенов.
type Transferer interface {
	Transfer(ctx context.Context, tx store.Tx, token string, from, to auth.Principal, amount *big.Int) error
}

// Service — журнал выдач.
type Service struct {
	store   store.Store
	rewards RewardSource
	ledger  Transferer
	oracle  auth.Oracle
	opts    Options
	now     func() time.Time
}

// NewService создаёт журнал выдач.
func NewService(st store.Store, rewards RewardSource, ledger Transferer, oracle auth.Oracle, opts Options) *Service {
	if opts.Mode == "" {
		opts.Mode = ModeToken
	}
	if opts.PointsCap == nil || opts.PointsCap.Sign() <= 0 {
		opts.PointsCap = big.NewInt(DefaultPointsCap)
	}
	return &Service{
		store:   st,
		rewards: rewards,
		ledger:  ledger,
		oracle:  oracle,
		opts:    opts,
		now:     time.Now,
	}
}

// Mode возвращает режим начисления.
func (s *Service) Mode() Mode { return s.opts.Mode }

// Distribute выдаёт recipient награду за действие a за счёт sender.
//
// Ошибки:
//   - ErrUnauthorized: sender не подтвердил вызов
//   - ErrAlreadyClaimed: награда за (recipient, a) уже выдана
//   - ErrActionNotRewarded: награда за действие не назначена
//   - ErrTransferFailed: перевод не прошёл (причина завёрнута)
//
// При любой ошибке хранилище не меняется.
func (s *Service) Distribute(ctx context.Context, sender, recipient auth.Principal, a actions.Action) (*ClaimRecord, error) {
	rec, err := s.distribute(ctx, sender, recipient, a)
	metrics.Airdrop().ObserveClaim(a.String(), claimResult(err))
	if err != nil {
		log.WithFields(log.Fields{
			"sender":    sender,
			"recipient": recipient,
			"action":    a.String(),
		}).WithError(err).Debug("Выдача отклонена")
		return nil, err
	}

	metrics.Airdrop().ObserveDistributed(a.String(), rec.Amount)
	log.WithFields(log.Fields{
		"claim_id":  rec.ID,
		"sender":    sender,
		"recipient": recipient,
		"action":    a.String(),
		"amount":    rec.Amount.String(),
		"mode":      rec.Mode,
	}).Info("Награда выдана")
	return rec, nil
}

func (s *Service) distribute(ctx context.Context, sender, recipient auth.Principal, a actions.Action) (*ClaimRecord, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownAction, a)
	}
	if recipient.IsZero() {
		return nil, fmt.Errorf("%w: пустой получатель", common.ErrUserNotFound)
	}
	if err := s.oracle.RequireAuth(ctx, sender); err != nil {
		return nil, err
	}

	var rec *ClaimRecord
	err := s.store.Update(ctx, func(tx store.Tx) error {
		claimed, err := tx.Has(claimKey(recipient, a))
		if err != nil {
			return err
		}
		if claimed {
			return common.ErrAlreadyClaimed
		}

		amount, err := s.rewards.RewardAmount(tx, a)
		if err != nil {
			return err
		}
		if amount.Sign() <= 0 {
			return common.ErrActionNotRewarded
		}

		rec = &ClaimRecord{
			ID:        uuid.New(),
			Recipient: recipient,
			Sender:    sender,
			Action:    a,
			Amount:    amount,
			Mode:      s.opts.Mode,
			ClaimedAt: s.now().UTC(),
		}

		switch s.opts.Mode {
		case ModePoints:
			if err := s.creditPoints(tx, recipient, amount); err != nil {
				return err
			}
		default:
			token, err := s.rewards.Token(tx)
			if err != nil {
				return err
			}
			rec.Token = token
			if err := s.ledger.Transfer(ctx, tx, token, sender, recipient, amount); err != nil {
				return fmt.Errorf("%w: %w", common.ErrTransferFailed, err)
			}
		}

		if err := writeClaim(tx, rec); err != nil {
			return err
		}
		return addStats(tx, a, amount)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// creditPoints начисляет баллы с потолком: min(баланс+награда, потолок).
func (s *Service) creditPoints(tx store.Tx, user auth.Principal, amount *big.Int) error {
	balance, err := readPoints(tx, user)
	if err != nil {
		return err
	}
	next := new(big.Int).Add(balance, amount)
	if next.Cmp(s.opts.PointsCap) > 0 {
		next.Set(s.opts.PointsCap)
	}
	return writePoints(tx, user, next)
}

// IsClaimed проверяет, выдана ли награда за действие.
func (s *Service) IsClaimed(ctx context.Context, user auth.Principal, a actions.Action) (bool, error) {
	if !a.Valid() {
		return false, fmt.Errorf("%w: %s", common.ErrUnknownAction, a)
	}
	var claimed bool
	err := s.store.View(ctx, func(r store.Reader) error {
		var err error
		claimed, err = r.Has(claimKey(user, a))
		return err
	})
	return claimed, err
}

// GetStatus возвращает действие с наибольшим кодом среди полученных
// наград или actions.None, если наград не было.
func (s *Service) GetStatus(ctx context.Context, user auth.Principal) (actions.Action, error) {
	status := actions.None
	err := s.store.View(ctx, func(r store.Reader) error {
		for i := len(actions.All) - 1; i >= 0; i-- {
			a := actions.All[i]
			claimed, err := r.Has(claimKey(user, a))
			if err != nil {
				return err
			}
			if claimed {
				status = a
				return nil
			}
		}
		return nil
	})
	return status, err
}

// Claims возвращает все выдачи пользователя в порядке кодов действий.
func (s *Service) Claims(ctx context.Context, user auth.Principal) ([]*ClaimRecord, error) {
	var out []*ClaimRecord
	err := s.store.View(ctx, func(r store.Reader) error {
		for _, a := range actions.All {
			rec, err := readClaim(r, user, a)
			if err != nil {
				return err
			}
			if rec != nil {
				out = append(out, rec)
			}
		}
		return nil
	})
	return out, err
}

// Points возвращает баланс баллов пользователя.
func (s *Service) Points(ctx context.Context, user auth.Principal) (*big.Int, error) {
	var points *big.Int
	err := s.store.View(ctx, func(r store.Reader) error {
		var err error
		points, err = readPoints(r, user)
		return err
	})
	return points, err
}

// Stats возвращает статистику по всем действиям.
func (s *Service) Stats(ctx context.Context) ([]ActionStats, error) {
	out := make([]ActionStats, 0, len(actions.All))
	err := s.store.View(ctx, func(r store.Reader) error {
		for _, a := range actions.All {
			stats, err := readStats(r, a)
			if err != nil {
				return err
			}
			out = append(out, *stats)
		}
		return nil
	})
	return out, err
}

// claimResult — метка результата для метрик.
func claimResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, common.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, common.ErrActionNotRewarded):
		return "not_rewarded"
	case errors.Is(err, common.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, common.ErrUnknownAction):
		return "unknown_action"
	default:
		return "error"
	}
}

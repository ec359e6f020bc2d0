// Package economy — сервис переводов токенов.
// Ledger списывает у отправителя и начисляет получателю внутри
// переданной транзакции хранилища; сам перевод требует подтверждения
// отправителя через auth.Oracle.
package economy

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
	"serotonyl.ru/airdrop-bot/internal/store"
)

// Ledger — сервис переводов токенов.
type Ledger struct {
	oracle auth.Oracle
}

// NewLedger создаёт сервис переводов.
func NewLedger(oracle auth.Oracle) *Ledger {
	return &Ledger{oracle: oracle}
}

// Balance возвращает баланс аккаунта в токене.
func (l *Ledger) Balance(r store.Reader, token string, account auth.Principal) (*big.Int, error) {
	return readBalance(r, token, account)
}

// Transfer переводит amount токена token от from к to.
// Выполняет проверки:
//   - Отправитель подтвердил перевод
//   - Сумма положительная и в диапазоне int128
//   - У отправителя достаточно токенов
//
// Перевод самому себе допустим и баланс не меняет.
func (l *Ledger) Transfer(ctx context.Context, tx store.Tx, token string, from, to auth.Principal, amount *big.Int) error {
	if strings.TrimSpace(token) == "" {
		return common.ErrTokenNotConfigured
	}
	if err := l.oracle.RequireAuth(ctx, from); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 || !common.InInt128(amount) {
		return common.ErrInvalidAmount
	}

	senderBalance, err := readBalance(tx, token, from)
	if err != nil {
		return err
	}
	if senderBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: нужно %s, есть %s", common.ErrInsufficientBalance, amount, senderBalance)
	}
	if from == to {
		return nil
	}

	recipientBalance, err := readBalance(tx, token, to)
	if err != nil {
		return err
	}
	credited := new(big.Int).Add(recipientBalance, amount)
	if !common.InInt128(credited) {
		return fmt.Errorf("%w: баланс получателя вне диапазона int128", common.ErrInvalidAmount)
	}

	if err := writeBalance(tx, token, from, new(big.Int).Sub(senderBalance, amount)); err != nil {
		return err
	}
	return writeBalance(tx, token, to, credited)
}

// Mint начисляет токены аккаунту без отправителя. Это операторская
// операция пополнения распределителя, в аирдропе не используется.
func (l *Ledger) Mint(tx store.Tx, token string, to auth.Principal, amount *big.Int) error {
	if strings.TrimSpace(token) == "" {
		return common.ErrTokenNotConfigured
	}
	if amount == nil || amount.Sign() <= 0 {
		return common.ErrInvalidAmount
	}
	current, err := readBalance(tx, token, to)
	if err != nil {
		return err
	}
	next := new(big.Int).Add(current, amount)
	if !common.InInt128(next) {
		return fmt.Errorf("%w: баланс вне диапазона int128", common.ErrInvalidAmount)
	}
	return writeBalance(tx, token, to, next)
}

// Service — обёртка над Ledger для вызовов вне транзакции аирдропа.
type Service struct {
	store  store.Store
	ledger *Ledger
}

// NewService создаёт сервис экономики.
func NewService(st store.Store, ledger *Ledger) *Service {
	return &Service{store: st, ledger: ledger}
}

// Ledger возвращает сервис переводов (для аирдропа).
func (s *Service) Ledger() *Ledger { return s.ledger }

// GetBalance возвращает текущий баланс аккаунта.
func (s *Service) GetBalance(ctx context.Context, token string, account auth.Principal) (*big.Int, error) {
	var balance *big.Int
	err := s.store.View(ctx, func(r store.Reader) error {
		var err error
		balance, err = s.ledger.Balance(r, token, account)
		return err
	})
	return balance, err
}

// Mint пополняет баланс аккаунта (операторская команда).
func (s *Service) Mint(ctx context.Context, token string, to auth.Principal, amount *big.Int) error {
	err := s.store.Update(ctx, func(tx store.Tx) error {
		return s.ledger.Mint(tx, token, to, amount)
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"token":  token,
		"to":     to,
		"amount": amount.String(),
	}).Info("Токены начислены")
	return nil
}

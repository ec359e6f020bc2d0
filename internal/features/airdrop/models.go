// Package airdrop — журнал выдач: однократная награда за каждое действие.
// models.go описывает запись о выдаче, режимы начисления и статистику.
package airdrop

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
)

// Mode — способ начисления награды. Фиксирован на всё развёртывание.
type Mode string

const (
	// ModeToken — перевод токена от распределителя получателю
	ModeToken Mode = "token"
	// ModePoints — внутренние баллы с потолком
	ModePoints Mode = "points"
)

// ParseMode разбирает режим из конфигурации.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeToken, "":
		return ModeToken, nil
	case ModePoints:
		return ModePoints, nil
	default:
		return "", fmt.Errorf("неизвестный режим аирдропа %q (token|points)", s)
	}
}

// DefaultPointsCap — потолок баланса баллов по умолчанию.
const DefaultPointsCap = 5

// ClaimRecord — запись о выдаче. Создаётся один раз и больше не меняется.
type ClaimRecord struct {
	ID        uuid.UUID      `json:"id"`
	Recipient auth.Principal `json:"recipient"`
	Sender    auth.Principal `json:"sender"`
	Action    actions.Action `json:"action"`
	Amount    *big.Int       `json:"amount"`
	Token     string         `json:"token,omitempty"`
	Mode      Mode           `json:"mode"`
	ClaimedAt time.Time      `json:"claimed_at"`
}

// ActionStats — сколько раз и на какую сумму выдана награда за действие.
type ActionStats struct {
	Action actions.Action `json:"action"`
	Count  int64          `json:"count"`
	Total  *big.Int       `json:"total"`
}

// Options — настройки журнала выдач.
type Options struct {
	Mode Mode
	// PointsCap — потолок баланса баллов (только ModePoints)
	PointsCap *big.Int
}

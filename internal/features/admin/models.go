// Package admin — реестр администратора аирдропа.
// models.go описывает конфигурацию наград и сессии администратора.
package admin

import (
	"math/big"
	"time"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
)

// Config — конфигурация наград.
type Config struct {
	Token   string                      // Идентификатор токена для выплат
	Rewards map[actions.Action]*big.Int // Награда за действие; нет записи или 0 — награды нет
}

// AdminSession — активная сессия администратора в боте.
type AdminSession struct {
	Token           string         `json:"token"`
	UserID          auth.Principal `json:"user_id"`
	AuthenticatedAt time.Time      `json:"authenticated_at"`
	ExpiresAt       time.Time      `json:"expires_at"`
}

// loginAttempts — неудачные попытки входа (для защиты от brute-force).
type loginAttempts struct {
	Failures []time.Time `json:"failures"`
}

// Options — настройки реестра.
type Options struct {
	// PasswordHash — Argon2id-хеш пароля администратора
	PasswordHash string
	// RequireInitAuth — initialize требует подтверждения от назначаемого администратора
	RequireInitAuth bool
	// DefaultRewards записываются вместе с администратором при инициализации
	DefaultRewards map[actions.Action]*big.Int
	// SessionTTL — время жизни сессии (24 часа по умолчанию)
	SessionTTL time.Duration
	// MaxAttempts — неудачных попыток за час до блокировки (3 по умолчанию)
	MaxAttempts int
}

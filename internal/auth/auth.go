// Package auth — проверка того, что вызов действительно подтверждён аккаунтом.
//
// Граница вызова (бот, CLI) кладёт в контекст список аккаунтов, чьё согласие
// доказано: Telegram-пользователь, написавший команду; аккаунт-распределитель,
// ключ которого держит процесс; администратор с активной сессией.
// Ядро только спрашивает Oracle и никогда само не решает, кто есть кто.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"serotonyl.ru/airdrop-bot/internal/common"
)

// Principal — идентификатор аккаунта. Используется и для проверки прав,
// и как часть ключей в хранилище.
type Principal string

// String реализует fmt.Stringer.
func (p Principal) String() string { return string(p) }

// IsZero — пустой идентификатор.
func (p Principal) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

// TelegramUser возвращает идентификатор аккаунта Telegram-пользователя.
func TelegramUser(userID int64) Principal {
	return Principal("tg:" + strconv.FormatInt(userID, 10))
}

// TelegramID возвращает Telegram user ID, если аккаунт — Telegram-пользователь.
func (p Principal) TelegramID() (int64, bool) {
	rest, ok := strings.CutPrefix(string(p), "tg:")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ParsePrincipal нормализует строковый идентификатор. Чистое число трактуется
// как Telegram user ID.
func ParsePrincipal(s string) (Principal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("пустой идентификатор аккаунта")
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return TelegramUser(id), nil
	}
	return Principal(s), nil
}

// Oracle подтверждает, что вызов авторизован аккаунтом.
type Oracle interface {
	// RequireAuth возвращает common.ErrUnauthorized, если согласие principal не доказано.
	RequireAuth(ctx context.Context, principal Principal) error
}

type principalsKey struct{}

// WithPrincipals возвращает контекст, в котором доказано согласие указанных аккаунтов
// (в дополнение к уже доказанным).
func WithPrincipals(ctx context.Context, principals ...Principal) context.Context {
	prev, _ := ctx.Value(principalsKey{}).(map[Principal]struct{})
	set := make(map[Principal]struct{}, len(prev)+len(principals))
	for p := range prev {
		set[p] = struct{}{}
	}
	for _, p := range principals {
		if p.IsZero() {
			continue
		}
		set[p] = struct{}{}
	}
	return context.WithValue(ctx, principalsKey{}, set)
}

// Principals возвращает аккаунты, подтверждённые в контексте.
func Principals(ctx context.Context) []Principal {
	set, _ := ctx.Value(principalsKey{}).(map[Principal]struct{})
	out := make([]Principal, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	return out
}

// ContextOracle проверяет аккаунты, положенные в контекст через WithPrincipals.
type ContextOracle struct{}

// NewContextOracle создаёт оракул.
func NewContextOracle() *ContextOracle { return &ContextOracle{} }

// RequireAuth реализует Oracle.
func (ContextOracle) RequireAuth(ctx context.Context, principal Principal) error {
	if principal.IsZero() {
		return common.ErrUnauthorized
	}
	set, _ := ctx.Value(principalsKey{}).(map[Principal]struct{})
	if _, ok := set[principal]; !ok {
		return fmt.Errorf("%w: %s", common.ErrUnauthorized, principal)
	}
	return nil
}

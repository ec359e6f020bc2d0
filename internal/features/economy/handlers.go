// Package economy — handlers.go обрабатывает команду /balance.
package economy

import (
	"context"
	"fmt"
	"math/big"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
)

// TokenSource возвращает текущий токен выплат.
type TokenSource interface {
	CurrentToken(ctx context.Context) (string, error)
}

// PointsReader читает баллы (режим points).
type PointsReader interface {
	Points(ctx context.Context, user auth.Principal) (*big.Int, error)
}

// Handler обрабатывает команды экономики.
type Handler struct {
	service *Service
	tokens  TokenSource
	points  PointsReader // nil: режим token
	sender  common.MessageSender
	symbol  string
}

// NewHandler создаёт обработчик. points передаётся только в режиме баллов.
func NewHandler(service *Service, tokens TokenSource, points PointsReader, sender common.MessageSender, symbol string) *Handler {
	return &Handler{
		service: service,
		tokens:  tokens,
		points:  points,
		sender:  sender,
		symbol:  symbol,
	}
}

// HandleBalance обрабатывает /balance: показывает баланс.
//
// Формат ответа:
//
//	💰 Баланс: 20 000 000 ZI
func (h *Handler) HandleBalance(ctx context.Context, chatID int64, userID int64) {
	user := auth.TelegramUser(userID)

	if h.points != nil {
		points, err := h.points.Points(ctx, user)
		if err != nil {
			log.WithError(err).Error("Ошибка получения баллов")
			common.SendText(h.sender, chatID, "❌ Ошибка получения баланса")
			return
		}
		common.SendText(h.sender, chatID, fmt.Sprintf("💰 Баллы: %s", common.FormatNumber(points)))
		return
	}

	token, err := h.tokens.CurrentToken(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения токена")
		common.SendText(h.sender, chatID, "❌ Ошибка получения баланса")
		return
	}
	if token == "" {
		common.SendText(h.sender, chatID, "❌ Токен выплат ещё не настроен")
		return
	}

	balance, err := h.service.GetBalance(ctx, token, user)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		common.SendText(h.sender, chatID, "❌ Ошибка получения баланса")
		return
	}

	symbol := h.symbol
	if symbol == "" {
		symbol = token
	}
	common.SendText(h.sender, chatID, fmt.Sprintf("💰 Баланс: %s", common.FormatAmount(balance, symbol)))
}

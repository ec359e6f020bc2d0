// Package airdrop — handlers.go обрабатывает команды:
// /claim (получить награду), /claimed (проверить), /status, /reward.
package airdrop

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
)

// RewardReader — публичное чтение наград (реестр администратора).
type RewardReader interface {
	GetRewardAmount(ctx context.Context, a actions.Action) (*big.Int, error)
}

// Handler обрабатывает команды аирдропа.
type Handler struct {
	service     *Service
	rewards     RewardReader
	sender      common.MessageSender
	distributor auth.Principal // Аккаунт, с которого платятся награды
	symbol      string         // Символ токена в сообщениях
}

// NewHandler создаёт обработчик команд аирдропа.
func NewHandler(service *Service, rewards RewardReader, sender common.MessageSender, distributor auth.Principal, symbol string) *Handler {
	return &Handler{
		service:     service,
		rewards:     rewards,
		sender:      sender,
		distributor: distributor,
		symbol:      symbol,
	}
}

// HandleClaim обрабатывает /claim <действие>.
// Отправитель — распределитель, получатель — автор команды.
//
// Ответ при успехе:
//
//	🎁 Награда за «Вращение куба»: 20 000 000 ZI
func (h *Handler) HandleClaim(ctx context.Context, chatID int64, userID int64, args []string) {
	a, ok := h.parseAction(chatID, "/claim", args)
	if !ok {
		return
	}

	rec, err := h.service.Distribute(ctx, h.distributor, auth.TelegramUser(userID), a)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAlreadyClaimed):
			h.send(chatID, fmt.Sprintf("✋ Награда за «%s» уже получена", a.Title()))
		case errors.Is(err, common.ErrActionNotRewarded):
			h.send(chatID, fmt.Sprintf("🤷 За «%s» награда не предусмотрена", a.Title()))
		case errors.Is(err, common.ErrTransferFailed):
			log.WithError(err).WithField("user_id", userID).Warn("Перевод награды не прошёл")
			h.send(chatID, "❌ Не удалось перевести награду, попробуйте позже")
		default:
			log.WithError(err).WithField("user_id", userID).Error("Ошибка выдачи награды")
			h.send(chatID, "❌ Ошибка выдачи награды")
		}
		return
	}

	h.send(chatID, fmt.Sprintf("🎁 Награда за «%s»: %s", a.Title(), h.formatAmount(rec)))
}

// HandleClaimed обрабатывает /claimed <действие>.
func (h *Handler) HandleClaimed(ctx context.Context, chatID int64, userID int64, args []string) {
	a, ok := h.parseAction(chatID, "/claimed", args)
	if !ok {
		return
	}

	claimed, err := h.service.IsClaimed(ctx, auth.TelegramUser(userID), a)
	if err != nil {
		log.WithError(err).Error("Ошибка проверки выдачи")
		h.send(chatID, "❌ Ошибка проверки")
		return
	}
	if claimed {
		h.send(chatID, fmt.Sprintf("✅ Награда за «%s» получена", a.Title()))
		return
	}
	h.send(chatID, fmt.Sprintf("⏳ Награда за «%s» ещё не получена", a.Title()))
}

// HandleStatus обрабатывает /status: показывает все полученные награды.
//
// Формат ответа:
//
//	📊 Статус: Смена темы
//	• Вращение куба: 2 (01.02.2026 15:04)
//	Всего: 2 выдачи
func (h *Handler) HandleStatus(ctx context.Context, chatID int64, userID int64) {
	user := auth.TelegramUser(userID)
	status, err := h.service.GetStatus(ctx, user)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статуса")
		h.send(chatID, "❌ Ошибка получения статуса")
		return
	}
	if status == actions.None {
		h.send(chatID, "📊 Наград пока нет. Команда: /claim <действие>")
		return
	}

	claims, err := h.service.Claims(ctx, user)
	if err != nil {
		log.WithError(err).Error("Ошибка получения выдач")
		h.send(chatID, "❌ Ошибка получения статуса")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 Статус: %s\n", status.Title()))
	for _, rec := range claims {
		sb.WriteString(fmt.Sprintf("• %s — %s (%s)\n",
			rec.Action.Title(), h.formatAmount(rec), common.FormatDateTime(rec.ClaimedAt)))
	}
	n := int64(len(claims))
	sb.WriteString(fmt.Sprintf("Всего: %d %s", n, common.PluralizeClaims(n)))

	if h.service.Mode() == ModePoints {
		if points, err := h.service.Points(ctx, user); err == nil {
			sb.WriteString(fmt.Sprintf("\nБаллы: %s", common.FormatNumber(points)))
		}
	}
	h.send(chatID, sb.String())
}

// HandleReward обрабатывает /reward <действие>: текущая награда.
func (h *Handler) HandleReward(ctx context.Context, chatID int64, args []string) {
	a, ok := h.parseAction(chatID, "/reward", args)
	if !ok {
		return
	}

	amount, err := h.rewards.GetRewardAmount(ctx, a)
	if err != nil {
		log.WithError(err).Error("Ошибка получения награды")
		h.send(chatID, "❌ Ошибка получения награды")
		return
	}
	if amount.Sign() <= 0 {
		h.send(chatID, fmt.Sprintf("🤷 За «%s» награда не назначена", a.Title()))
		return
	}
	h.send(chatID, fmt.Sprintf("🎁 «%s»: %s", a.Title(), common.FormatAmount(amount, h.unit())))
}

func (h *Handler) parseAction(chatID int64, cmd string, args []string) (actions.Action, bool) {
	if len(args) < 1 {
		h.send(chatID, fmt.Sprintf("❌ Формат: %s <действие>\n%s", cmd, ActionsHelp()))
		return actions.None, false
	}
	a, err := actions.ParseName(args[0])
	if err != nil {
		h.send(chatID, fmt.Sprintf("❌ Неизвестное действие %q\n%s", args[0], ActionsHelp()))
		return actions.None, false
	}
	return a, true
}

func (h *Handler) formatAmount(rec *ClaimRecord) string {
	if rec.Mode == ModePoints {
		return common.FormatAmount(rec.Amount, "")
	}
	return common.FormatAmount(rec.Amount, h.unit())
}

func (h *Handler) unit() string {
	if h.service.Mode() == ModePoints {
		return ""
	}
	return h.symbol
}

func (h *Handler) send(chatID int64, text string) {
	common.SendText(h.sender, chatID, text)
}

// ActionsHelp — подсказка со списком действий.
func ActionsHelp() string {
	var sb strings.Builder
	sb.WriteString("Действия:")
	for _, a := range actions.All {
		sb.WriteString(fmt.Sprintf("\n  %d — %s (%s)", a.Code(), a.String(), a.Title()))
	}
	return sb.String()
}

// Package admin — handlers.go обрабатывает команды администратора в личных сообщениях.
// Поток: /init или /login с паролем → сессия на 24 часа → команды настройки.
// Пока сессия активна, бот добавляет администратора к подтверждённым аккаунтам вызова.
package admin

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service *Service
	sender  common.MessageSender
	symbol  string // Символ токена в сообщениях
}

// NewHandler создаёт обработчик админ-команд.
func NewHandler(service *Service, sender common.MessageSender, symbol string) *Handler {
	return &Handler{service: service, sender: sender, symbol: symbol}
}

// HandleInit обрабатывает /init <пароль>: первый, кто знает пароль, становится администратором.
func (h *Handler) HandleInit(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) < 1 {
		h.send(chatID, "❌ Формат: /init <пароль>")
		return
	}
	user := auth.TelegramUser(userID)

	if err := h.service.VerifyPassword(ctx, user, strings.Join(args, " ")); err != nil {
		h.send(chatID, fmt.Sprintf("❌ %s", err.Error()))
		return
	}

	err := h.service.Initialize(auth.WithPrincipals(ctx, user), user)
	switch {
	case err == nil:
		h.send(chatID, "✅ Вы назначены администратором аирдропа. Сессия открыта на 24 часа.")
	case errors.Is(err, common.ErrAlreadyInitialized):
		h.send(chatID, "❌ Администратор уже назначен")
	default:
		log.WithError(err).WithField("user_id", userID).Error("Ошибка инициализации")
		h.send(chatID, "❌ Ошибка инициализации")
	}
}

// HandleLogin обрабатывает /login <пароль>.
func (h *Handler) HandleLogin(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) < 1 {
		h.send(chatID, "🔐 Формат: /login <пароль>")
		return
	}
	user := auth.TelegramUser(userID)

	admin, err := h.service.Admin(ctx)
	if err != nil {
		h.send(chatID, fmt.Sprintf("❌ %s", err.Error()))
		return
	}
	if admin != user {
		h.send(chatID, "❌ Вы не администратор")
		return
	}

	if err := h.service.VerifyPassword(ctx, user, strings.Join(args, " ")); err != nil {
		h.send(chatID, fmt.Sprintf("❌ %s", err.Error()))
		return
	}
	h.send(chatID, "✅ Аутентификация успешна! Команды: /settoken, /setreward, /config, /logout")
}

// HandleLogout обрабатывает /logout.
func (h *Handler) HandleLogout(ctx context.Context, chatID int64, userID int64) {
	if err := h.service.Logout(ctx, auth.TelegramUser(userID)); err != nil {
		log.WithError(err).Error("Ошибка завершения сессии")
		h.send(chatID, "❌ Ошибка завершения сессии")
		return
	}
	h.send(chatID, "👋 Сессия завершена")
}

// HandleSetToken обрабатывает /settoken <идентификатор токена>.
func (h *Handler) HandleSetToken(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		h.send(chatID, "❌ Формат: /settoken <токен>")
		return
	}
	if err := h.service.SetToken(ctx, args[0]); err != nil {
		h.sendConfigError(chatID, err)
		return
	}
	h.send(chatID, fmt.Sprintf("✅ Токен выплат: %s", args[0]))
}

// HandleSetReward обрабатывает /setreward <действие> <сумма>. Сумма 0 снимает награду.
func (h *Handler) HandleSetReward(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		h.send(chatID, "❌ Формат: /setreward <действие> <сумма>")
		return
	}
	a, err := actions.ParseName(args[0])
	if err != nil {
		h.send(chatID, fmt.Sprintf("❌ Неизвестное действие %q", args[0]))
		return
	}
	amount, err := common.ParseAmount(strings.Join(args[1:], ""))
	if err != nil {
		h.send(chatID, "❌ Сумма должна быть целым неотрицательным числом")
		return
	}

	if err := h.service.SetRewardAmount(ctx, a, amount); err != nil {
		h.sendConfigError(chatID, err)
		return
	}
	if amount.Sign() == 0 {
		h.send(chatID, fmt.Sprintf("✅ Награда за «%s» снята", a.Title()))
		return
	}
	h.send(chatID, fmt.Sprintf("✅ Награда за «%s»: %s", a.Title(), common.FormatAmount(amount, h.symbol)))
}

// HandleConfig обрабатывает /config: текущие токен и награды.
func (h *Handler) HandleConfig(ctx context.Context, chatID int64) {
	cfg, err := h.service.Config(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения конфигурации")
		h.send(chatID, "❌ Ошибка чтения конфигурации")
		return
	}
	h.send(chatID, FormatConfig(cfg, h.symbol))
}

// FormatConfig — текстовое представление конфигурации для сообщений и CLI.
func FormatConfig(cfg *Config, symbol string) string {
	var sb strings.Builder
	token := cfg.Token
	if token == "" {
		token = "не задан"
	}
	sb.WriteString(fmt.Sprintf("⚙️ Токен: %s\n", token))
	if len(cfg.Rewards) == 0 {
		sb.WriteString("Награды не назначены")
		return sb.String()
	}

	keys := make([]actions.Action, 0, len(cfg.Rewards))
	for a := range cfg.Rewards {
		keys = append(keys, a)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	sb.WriteString("Награды:")
	for _, a := range keys {
		sb.WriteString(fmt.Sprintf("\n  %s — %s", a.Title(), common.FormatAmount(cfg.Rewards[a], symbol)))
	}
	return sb.String()
}

// ParseRewards разбирает список вида "spin_cube=2,create_particles=2".
func ParseRewards(s string) (map[actions.Action]*big.Int, error) {
	out := make(map[actions.Action]*big.Int)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, value, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("ожидается действие=сумма: %q", item)
		}
		a, err := actions.ParseName(name)
		if err != nil {
			return nil, err
		}
		amount, err := common.ParseAmount(value)
		if err != nil {
			return nil, err
		}
		if amount.Sign() < 0 {
			return nil, fmt.Errorf("%w: отрицательная награда за %s", common.ErrInvalidAmount, a)
		}
		out[a] = amount
	}
	return out, nil
}

func (h *Handler) sendConfigError(chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrNotInitialized):
		h.send(chatID, "❌ Администратор ещё не назначен: /init <пароль>")
	case errors.Is(err, common.ErrUnauthorized):
		h.send(chatID, "🔐 Нет прав. Войдите: /login <пароль>")
	case errors.Is(err, common.ErrInvalidAmount), errors.Is(err, common.ErrTokenNotConfigured):
		h.send(chatID, fmt.Sprintf("❌ %s", err.Error()))
	default:
		log.WithError(err).Error("Ошибка изменения конфигурации")
		h.send(chatID, "❌ Ошибка изменения конфигурации")
	}
}

func (h *Handler) send(chatID int64, text string) {
	common.SendText(h.sender, chatID, text)
}

// Package bot содержит главный модуль бота — приём апдейтов и маршрутизацию команд.
// bot.go подключает обработчики и определяет, чьё согласие доказано для каждого вызова.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/bot/filters"
	"serotonyl.ru/airdrop-bot/internal/bot/middleware"
	"serotonyl.ru/airdrop-bot/internal/common"
	"serotonyl.ru/airdrop-bot/internal/config"
	"serotonyl.ru/airdrop-bot/internal/features/admin"
	"serotonyl.ru/airdrop-bot/internal/features/airdrop"
	"serotonyl.ru/airdrop-bot/internal/features/economy"
	"serotonyl.ru/airdrop-bot/internal/features/members"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api    *tgbotapi.BotAPI
	sender common.MessageSender
	cfg    *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	memberService *members.Service
	memberHandler *members.Handler
	adminService  *admin.Service
	adminHandler  *admin.Handler

	airdropHandler *airdrop.Handler
	economyHandler *economy.Handler

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
// sender обычно тот же *tgbotapi.BotAPI; api нужен только для polling.
func New(
	api *tgbotapi.BotAPI,
	sender common.MessageSender,
	cfg *config.Config,
	memberService *members.Service,
	memberHandler *members.Handler,
	adminService *admin.Service,
	adminHandler *admin.Handler,
	airdropHandler *airdrop.Handler,
	economyHandler *economy.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:            api,
		sender:         sender,
		cfg:            cfg,
		chatFilter:     chatFilter,
		rateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		memberService:  memberService,
		memberHandler:  memberHandler,
		adminService:   adminService,
		adminHandler:   adminHandler,
		airdropHandler: airdropHandler,
		economyHandler: economyHandler,
		parser:         NewCommandParser(),
		inflight:       make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram. Возвращается после отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	defer b.rateLimiter.Close()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
		"mode":         b.cfg.AirdropMode,
	}).Info("Бот запущен и ожидает сообщения...")

	b.serve(ctx, updates)
	b.api.StopReceivingUpdates()
}

// serve раздаёт апдейты обработчикам, пока не отменён ctx или не закрыт канал.
func (b *Bot) serve(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма; при остановке не ждём освобождения слота
			select {
			case b.inflight <- struct{}{}:
			case <-ctx.Done():
				log.WithField("update_id", update.UpdateID).Info("Бот останавливается, апдейт пропущен")
				return
			}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	// Вступление в основной чат — регистрируем участников
	if update.Message != nil && update.Message.NewChatMembers != nil {
		if update.Message.Chat != nil && b.cfg.CommunityChatID != 0 && update.Message.Chat.ID == b.cfg.CommunityChatID {
			b.memberHandler.HandleNewChatMembers(ctx, update.Message.NewChatMembers)
		}
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	b.handleMessage(ctx, update.Message)
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	middleware.LogMessage(message)

	// Проверяем доступ (основной чат или личка участника)
	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	// Сообщение в основном чате — подтверждение членства
	if b.cfg.CommunityChatID != 0 && chatID == b.cfg.CommunityChatID {
		if err := b.memberService.EnsureMember(ctx, userID,
			message.From.UserName, message.From.FirstName, message.From.LastName,
		); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("EnsureMember failed")
		}
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}
	log.WithFields(log.Fields{
		"cmd":     cmd,
		"args":    len(args),
		"user_id": userID,
	}).Debug("parsed command")

	b.routeCommand(b.invocationContext(ctx, userID), chatID, userID, message.Chat.IsPrivate(), cmd, args)
}

// invocationContext добавляет в ctx аккаунты, чьё согласие доказано:
// распределитель (его ключ держит процесс бота) и сам пользователь,
// если он подтвердил личность паролем и сессия ещё активна.
func (b *Bot) invocationContext(ctx context.Context, userID int64) context.Context {
	principals := []auth.Principal{b.cfg.Distributor()}
	user := auth.TelegramUser(userID)
	if b.adminService.HasActiveSession(ctx, user) {
		principals = append(principals, user)
	}
	return auth.WithPrincipals(ctx, principals...)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, private bool, cmd string, args []string) {
	switch cmd {
	case "start", "help", "помощь":
		b.sendMessage(chatID, helpText(private))

	// --- Награды ---
	case "claim", "награда":
		b.airdropHandler.HandleClaim(ctx, chatID, userID, args)
	case "claimed", "получено":
		b.airdropHandler.HandleClaimed(ctx, chatID, userID, args)
	case "status", "статус":
		b.airdropHandler.HandleStatus(ctx, chatID, userID)
	case "reward", "сколько":
		b.airdropHandler.HandleReward(ctx, chatID, args)
	case "balance", "баланс":
		b.economyHandler.HandleBalance(ctx, chatID, userID)

	// --- Администратор (только в личке: там вводится пароль) ---
	case "init", "login", "logout", "settoken", "setreward", "config":
		if !private {
			b.sendMessage(chatID, "🔐 Команды администратора — только в личных сообщениях")
			return
		}
		b.routeAdminCommand(ctx, chatID, userID, cmd, args)
	}
}

func (b *Bot) routeAdminCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	switch cmd {
	case "init":
		b.adminHandler.HandleInit(ctx, chatID, userID, args)
	case "login":
		b.adminHandler.HandleLogin(ctx, chatID, userID, args)
	case "logout":
		b.adminHandler.HandleLogout(ctx, chatID, userID)
	case "settoken":
		b.adminHandler.HandleSetToken(ctx, chatID, args)
	case "setreward":
		b.adminHandler.HandleSetReward(ctx, chatID, args)
	case "config":
		b.adminHandler.HandleConfig(ctx, chatID)
	}
}

func helpText(private bool) string {
	var sb strings.Builder
	sb.WriteString("🎁 Награды за действия — каждая выдаётся один раз.\n\n")
	sb.WriteString("/claim <действие> — получить награду\n")
	sb.WriteString("/claimed <действие> — проверить, получена ли\n")
	sb.WriteString("/reward <действие> — размер награды\n")
	sb.WriteString("/status — ваши награды\n")
	sb.WriteString("/balance — баланс\n\n")
	sb.WriteString(airdrop.ActionsHelp())
	if private {
		sb.WriteString("\n\nАдминистратор: /init, /login, /logout, /settoken, /setreward, /config")
	}
	return sb.String()
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	common.SendText(b.sender, chatID, text)
}

// SendMessageToUser отправляет сообщение пользователю (для сводок планировщика).
func (b *Bot) SendMessageToUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.sender.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
		return
	}
	log.WithField("user_id", userID).Debug("message sent")
}

// CommandParser парсит команды с префиксами /, ! и .
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"/", "!", "."},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс "@имя_бота" у команды в группах отбрасывается: /claim@zi_bot → claim.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command, _, _ := strings.Cut(parts[0], "@")
	command = strings.ToLower(command)
	if command == "" {
		return "", nil, false
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}

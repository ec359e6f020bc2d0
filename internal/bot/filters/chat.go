// Package filters решает, какие сообщения бот вообще обрабатывает.
// Команды аирдропа доступны в основном чате сообщества и в личке участников.
package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/airdrop-bot/internal/common"
)

// MemberRegistry — реестр участников (members.Service).
type MemberRegistry interface {
	IsMember(ctx context.Context, userID int64) (bool, error)
	EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error
}

// ChatMemberGetter проверяет членство через Telegram API (*tgbotapi.BotAPI).
type ChatMemberGetter interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

type ChatFilter struct {
	communityChatID int64
	members         MemberRegistry
	telegram        ChatMemberGetter
	sender          common.MessageSender
}

// NewChatFilter создаёт фильтр. communityChatID == 0 отключает проверку членства:
// тогда разрешены все личные сообщения.
func NewChatFilter(communityChatID int64, members MemberRegistry, telegram ChatMemberGetter, sender common.MessageSender) *ChatFilter {
	return &ChatFilter{
		communityChatID: communityChatID,
		members:         members,
		telegram:        telegram,
		sender:          sender,
	}
}

func (f *ChatFilter) CheckAccess(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component":         "ChatFilter",
		"chat_id":           chatID,
		"chat_type":         message.Chat.Type,
		"user_id":           userID,
		"community_chat_id": f.communityChatID,
	})

	// 1) Основной чат
	if f.communityChatID != 0 && chatID == f.communityChatID {
		logger.Debug("allow: community chat")
		return true
	}

	if !message.Chat.IsPrivate() {
		logger.Info("deny: not community chat and not private")
		return false
	}

	// 2) Личка без проверки членства
	if f.communityChatID == 0 {
		logger.Debug("allow: private (membership gating disabled)")
		return true
	}

	// 3) Личка — сначала быстро по реестру
	isMember, err := f.members.IsMember(ctx, userID)
	if err != nil {
		logger.WithError(err).Error("member check failed (store)")
		return false
	}
	if isMember {
		logger.Debug("allow: private (known member)")
		return true
	}

	// 3.1) Реестр не знает пользователя — проверяем членство через Telegram API
	cm, err := f.telegram.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: f.communityChatID,
			UserID: userID,
		},
	})
	if err != nil {
		logger.WithError(err).Error("member check failed (telegram GetChatMember)")
		return false
	}

	switch cm.Status {
	case "creator", "administrator", "member", "restricted":
		if err := f.members.EnsureMember(
			ctx, userID,
			message.From.UserName,
			message.From.FirstName,
			message.From.LastName,
		); err != nil {
			logger.WithError(err).Warn("failed to backfill member (allowing anyway)")
		}
		logger.WithField("tg_status", cm.Status).Info("allow: private (telegram member, backfilled)")
		return true

	default:
		logger.WithField("tg_status", cm.Status).Info("deny: private (not a chat member)")
		common.SendText(f.sender, chatID, "❌ Награды доступны только участникам сообщества")
		return false
	}
}

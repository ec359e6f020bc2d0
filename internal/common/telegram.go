// Package common — telegram.go содержит общий интерфейс отправки сообщений.
// Обработчики зависят от него, а не от *tgbotapi.BotAPI, поэтому их можно
// проверять без сети.
package common

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// MessageSender — то, что умеет отправлять сообщения в Telegram.
// *tgbotapi.BotAPI ему удовлетворяет.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SendText отправляет простое текстовое сообщение и логирует ошибку.
func SendText(sender MessageSender, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := sender.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

package economy

import (
	"context"
	"math/big"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/airdrop-bot/internal/auth"
)

type staticToken string

func (t staticToken) CurrentToken(context.Context) (string, error) { return string(t), nil }

type staticPoints int64

func (p staticPoints) Points(context.Context, auth.Principal) (*big.Int, error) {
	return big.NewInt(int64(p)), nil
}

type lastSender struct{ text string }

func (s *lastSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.text = msg.Text
	}
	return tgbotapi.Message{}, nil
}

func TestHandleBalance(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Mint(context.Background(), token, auth.TelegramUser(42), big.NewInt(20_000_000)))
	out := &lastSender{}

	NewHandler(svc, staticToken(token), nil, out, "").HandleBalance(context.Background(), 42, 42)
	assert.Equal(t, "💰 Баланс: 20 000 000 ZI", out.text)

	NewHandler(svc, staticToken(""), nil, out, "").HandleBalance(context.Background(), 42, 42)
	assert.Contains(t, out.text, "не настроен")

	NewHandler(svc, staticToken(token), staticPoints(4), out, "").HandleBalance(context.Background(), 42, 42)
	assert.Equal(t, "💰 Баллы: 4", out.text)
}

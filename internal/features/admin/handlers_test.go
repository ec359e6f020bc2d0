package admin

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
)

type lastSender struct{ text string }

func (s *lastSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.text = msg.Text
	}
	return tgbotapi.Message{}, nil
}

func TestHandlerInitAndConfigure(t *testing.T) {
	svc := newTestService(t, Options{
		PasswordHash:    HashPassword("secret", []byte("saltsaltsaltsalt")),
		RequireInitAuth: true,
	})
	out := &lastSender{}
	h := NewHandler(svc, out, "ZI")
	ctx := context.Background()

	h.HandleInit(ctx, 1, 1, []string{"wrong"})
	assert.Contains(t, out.text, common.ErrWrongPassword.Error())

	h.HandleInit(ctx, 1, 1, []string{"secret"})
	assert.Contains(t, out.text, "назначены администратором")

	h.HandleInit(ctx, 2, 2, []string{"secret"})
	assert.Contains(t, out.text, "уже назначен")

	// Без админа в контексте настройка запрещена
	h.HandleSetReward(ctx, 1, []string{"spin_cube", "10"})
	assert.Contains(t, out.text, "Нет прав")

	adminCtx := auth.WithPrincipals(ctx, auth.TelegramUser(1))
	h.HandleSetReward(adminCtx, 1, []string{"spin_cube", "20_000_000"})
	assert.Contains(t, out.text, "20 000 000 ZI")

	h.HandleSetReward(adminCtx, 1, []string{"spin_cube", "-1"})
	assert.Contains(t, out.text, "неотрицательным")

	h.HandleSetToken(adminCtx, 1, []string{"ZI"})
	assert.Contains(t, out.text, "Токен выплат: ZI")

	h.HandleConfig(ctx, 1)
	assert.Contains(t, out.text, "Токен: ZI")
	assert.Contains(t, out.text, "Вращение куба")

	h.HandleLogin(ctx, 2, 2, []string{"secret"})
	assert.Contains(t, out.text, "не администратор")
}

func TestParseRewards(t *testing.T) {
	rewards, err := ParseRewards("spin_cube=2, create_particles=2,3=1")
	require.NoError(t, err)
	require.Len(t, rewards, 3)
	assert.Equal(t, "1", rewards[actions.ChangeTheme].String())

	_, err = ParseRewards("spin_cube")
	require.Error(t, err)
	_, err = ParseRewards("fly=1")
	require.ErrorIs(t, err, common.ErrUnknownAction)
	_, err = ParseRewards("spin_cube=-3")
	require.ErrorIs(t, err, common.ErrInvalidAmount)

	empty, err := ParseRewards("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

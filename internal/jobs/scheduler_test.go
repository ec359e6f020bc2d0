package jobs

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
	"serotonyl.ru/airdrop-bot/internal/features/airdrop"
)

type fakeStats struct{ stats []airdrop.ActionStats }

func (f *fakeStats) Stats(context.Context) ([]airdrop.ActionStats, error) { return f.stats, nil }

type fakeRegistry struct {
	admin auth.Principal
	token string
}

func (f fakeRegistry) Admin(context.Context) (auth.Principal, error) {
	if f.admin == "" {
		return "", common.ErrNotInitialized
	}
	return f.admin, nil
}

func (f fakeRegistry) CurrentToken(context.Context) (string, error) { return f.token, nil }

type fakeBalances struct{ balance int64 }

func (f fakeBalances) GetBalance(context.Context, string, auth.Principal) (*big.Int, error) {
	return big.NewInt(f.balance), nil
}

type outbox struct {
	to    []int64
	texts []string
}

func (o *outbox) send(userID int64, text string) {
	o.to = append(o.to, userID)
	o.texts = append(o.texts, text)
}

func TestDailySummaryReportsDelta(t *testing.T) {
	stats := &fakeStats{stats: []airdrop.ActionStats{
		{Action: actions.SpinCube, Count: 3, Total: big.NewInt(60)},
		{Action: actions.ChangeTheme, Count: 1, Total: big.NewInt(5)},
	}}
	out := &outbox{}
	s := NewScheduler(stats, fakeRegistry{admin: auth.TelegramUser(7), token: "ZI"}, fakeBalances{},
		out.send, Options{Mode: airdrop.ModeToken, Symbol: "ZI", Location: time.UTC})

	require.NoError(t, s.SendDailySummary(context.Background()))
	require.Len(t, out.texts, 1)
	assert.Equal(t, int64(7), out.to[0])
	assert.Contains(t, out.texts[0], "За период: 4 выдачи")
	assert.Contains(t, out.texts[0], "60 ZI")

	stats.stats[0].Count = 5
	require.NoError(t, s.SendDailySummary(context.Background()))
	assert.Contains(t, out.texts[1], "За период: 2 выдачи")
}

func TestDailySummarySkipsWithoutAdmin(t *testing.T) {
	out := &outbox{}
	s := NewScheduler(&fakeStats{}, fakeRegistry{}, fakeBalances{}, out.send, Options{})
	require.NoError(t, s.SendDailySummary(context.Background()))

	s = NewScheduler(&fakeStats{}, fakeRegistry{admin: "treasury"}, fakeBalances{}, out.send, Options{})
	require.NoError(t, s.SendDailySummary(context.Background()))
	assert.Empty(t, out.texts)
}

func TestCheckDistributorBalance(t *testing.T) {
	out := &outbox{}
	opts := Options{Distributor: "treasury", LowBalance: big.NewInt(100), Mode: airdrop.ModeToken, Symbol: "ZI"}
	reg := fakeRegistry{admin: auth.TelegramUser(7), token: "ZI"}

	require.NoError(t, NewScheduler(&fakeStats{}, reg, fakeBalances{balance: 150}, out.send, opts).
		CheckDistributorBalance(context.Background()))
	assert.Empty(t, out.texts)

	require.NoError(t, NewScheduler(&fakeStats{}, reg, fakeBalances{balance: 40}, out.send, opts).
		CheckDistributorBalance(context.Background()))
	require.Len(t, out.texts, 1)
	assert.Contains(t, out.texts[0], "40 ZI")

	opts.LowBalance = new(big.Int)
	require.NoError(t, NewScheduler(&fakeStats{}, reg, fakeBalances{balance: 0}, out.send, opts).
		CheckDistributorBalance(context.Background()))
	assert.Len(t, out.texts, 1)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&fakeStats{}, fakeRegistry{}, fakeBalances{}, (&outbox{}).send,
		Options{SummaryCron: "not a cron", Location: time.UTC})
	require.Error(t, s.Start(context.Background()))

	s = NewScheduler(&fakeStats{}, fakeRegistry{}, fakeBalances{}, (&outbox{}).send, Options{Location: time.UTC})
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

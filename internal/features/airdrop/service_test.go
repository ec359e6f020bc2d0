package airdrop

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
	"serotonyl.ru/airdrop-bot/internal/features/admin"
	"serotonyl.ru/airdrop-bot/internal/features/economy"
	"serotonyl.ru/airdrop-bot/internal/store"
	"serotonyl.ru/airdrop-bot/internal/store/leveldb"
)

const (
	adminUser   auth.Principal = "tg:1"
	user        auth.Principal = "tg:42"
	otherUser   auth.Principal = "tg:43"
	distributor auth.Principal = "treasury"
	token                      = "ZI"
)

type fixture struct {
	store   store.Store
	admin   *admin.Service
	economy *economy.Service
	airdrop *Service
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	st, err := leveldb.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	oracle := auth.NewContextOracle()
	adm := admin.NewService(st, oracle, admin.Options{})
	eco := economy.NewService(st, economy.NewLedger(oracle))
	f := &fixture{
		store:   st,
		admin:   adm,
		economy: eco,
		airdrop: NewService(st, adm, eco.Ledger(), oracle, opts),
	}

	require.NoError(t, adm.Initialize(context.Background(), adminUser))
	return f
}

func (f *fixture) setReward(t *testing.T, a actions.Action, amount int64) {
	t.Helper()
	ctx := auth.WithPrincipals(context.Background(), adminUser)
	require.NoError(t, f.admin.SetRewardAmount(ctx, a, big.NewInt(amount)))
}

func (f *fixture) fund(t *testing.T, account auth.Principal, amount int64) {
	t.Helper()
	ctx := auth.WithPrincipals(context.Background(), adminUser)
	require.NoError(t, f.admin.SetToken(ctx, token))
	require.NoError(t, f.economy.Mint(context.Background(), token, account, big.NewInt(amount)))
}

func (f *fixture) balance(t *testing.T, account auth.Principal) string {
	t.Helper()
	bal, err := f.economy.GetBalance(context.Background(), token, account)
	require.NoError(t, err)
	return bal.String()
}

func signed(p ...auth.Principal) context.Context {
	return auth.WithPrincipals(context.Background(), p...)
}

func TestDistributeEndToEnd(t *testing.T) {
	f := newFixture(t, Options{Mode: ModeToken})
	f.setReward(t, actions.SpinCube, 20_000_000)
	f.fund(t, distributor, 50_000_000)

	rec, err := f.airdrop.Distribute(signed(distributor), distributor, user, actions.SpinCube)
	require.NoError(t, err)
	assert.Equal(t, "20000000", rec.Amount.String())
	assert.Equal(t, token, rec.Token)
	assert.Equal(t, ModeToken, rec.Mode)
	assert.Equal(t, "20000000", f.balance(t, user))
	assert.Equal(t, "30000000", f.balance(t, distributor))

	claimed, err := f.airdrop.IsClaimed(context.Background(), user, actions.SpinCube)
	require.NoError(t, err)
	assert.True(t, claimed)

	_, err = f.airdrop.Distribute(signed(distributor), distributor, user, actions.SpinCube)
	require.ErrorIs(t, err, common.ErrAlreadyClaimed)
	assert.Equal(t, "20000000", f.balance(t, user))
	assert.Equal(t, "30000000", f.balance(t, distributor))
}

func TestDistributeSelfFundedRecordsClaim(t *testing.T) {
	f := newFixture(t, Options{Mode: ModeToken})
	f.setReward(t, actions.SpinCube, 20_000_000)
	f.fund(t, user, 20_000_000)

	_, err := f.airdrop.Distribute(signed(user), user, user, actions.SpinCube)
	require.NoError(t, err)
	assert.Equal(t, "20000000", f.balance(t, user))

	_, err = f.airdrop.Distribute(signed(user), user, user, actions.SpinCube)
	require.ErrorIs(t, err, common.ErrAlreadyClaimed)
}

func TestDistributeRequiresSenderAuth(t *testing.T) {
	f := newFixture(t, Options{Mode: ModeToken})
	f.setReward(t, actions.SpinCube, 10)
	f.fund(t, distributor, 100)

	// Согласие получателя не заменяет согласие отправителя
	_, err := f.airdrop.Distribute(signed(user), distributor, user, actions.SpinCube)
	require.ErrorIs(t, err, common.ErrUnauthorized)

	claimed, err := f.airdrop.IsClaimed(context.Background(), user, actions.SpinCube)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, "100", f.balance(t, distributor))
}

func TestDistributeZeroRewardGuard(t *testing.T) {
	f := newFixture(t, Options{Mode: ModeToken})
	f.fund(t, distributor, 100)

	_, err := f.airdrop.Distribute(signed(distributor), distributor, user, actions.CreateParticles)
	require.ErrorIs(t, err, common.ErrActionNotRewarded)

	claimed, err := f.airdrop.IsClaimed(context.Background(), user, actions.CreateParticles)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestDistributeTransferFailureLeavesNoTrace(t *testing.T) {
	f := newFixture(t, Options{Mode: ModeToken})
	f.setReward(t, actions.SpinCube, 10)
	f.fund(t, distributor, 5)

	_, err := f.airdrop.Distribute(signed(distributor), distributor, user, actions.SpinCube)
	require.ErrorIs(t, err, common.ErrTransferFailed)
	require.ErrorIs(t, err, common.ErrInsufficientBalance)

	claimed, err := f.airdrop.IsClaimed(context.Background(), user, actions.SpinCube)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, "5", f.balance(t, distributor))
	assert.Equal(t, "0", f.balance(t, user))

	stats, err := f.airdrop.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats[0].Count)

	// После пополнения выдача проходит
	require.NoError(t, f.economy.Mint(context.Background(), token, distributor, big.NewInt(5)))
	_, err = f.airdrop.Distribute(signed(distributor), distributor, user, actions.SpinCube)
	require.NoError(t, err)
}

type failingLedger struct{}

func (failingLedger) Transfer(context.Context, store.Tx, string, auth.Principal, auth.Principal, *big.Int) error {
	return errors.New("сеть недоступна")
}

func TestDistributeWrapsTransferError(t *testing.T) {
	f := newFixture(t, Options{Mode: ModeToken})
	f.setReward(t, actions.SpinCube, 10)
	svc := NewService(f.store, f.admin, failingLedger{}, auth.NewContextOracle(), Options{})

	_, err := svc.Distribute(signed(distributor), distributor, user, actions.SpinCube)
	require.ErrorIs(t, err, common.ErrTransferFailed)

	claimed, err := svc.IsClaimed(context.Background(), user, actions.SpinCube)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestDistributeUsesAmountAtCallTime(t *testing.T) {
	f := newFixture(t, Options{Mode: ModeToken})
	f.setReward(t, actions.SpinCube, 10)
	f.fund(t, distributor, 100)

	first, err := f.airdrop.Distribute(signed(distributor), distributor, user, actions.SpinCube)
	require.NoError(t, err)

	f.setReward(t, actions.SpinCube, 20)
	second, err := f.airdrop.Distribute(signed(distributor), distributor, otherUser, actions.SpinCube)
	require.NoError(t, err)

	assert.Equal(t, "10", first.Amount.String())
	assert.Equal(t, "20", second.Amount.String())
	assert.Equal(t, "10", f.balance(t, user))
	assert.Equal(t, "20", f.balance(t, otherUser))

	claims, err := f.airdrop.Claims(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "10", claims[0].Amount.String())
	assert.Equal(t, first.ID, claims[0].ID)
}

func TestDistributeRejectsUnknownAction(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.airdrop.Distribute(signed(distributor), distributor, user, actions.Action(7))
	require.ErrorIs(t, err, common.ErrUnknownAction)

	_, err = f.airdrop.IsClaimed(context.Background(), user, actions.Action(0))
	require.ErrorIs(t, err, common.ErrUnknownAction)
}

func TestPointsModeCapped(t *testing.T) {
	f := newFixture(t, Options{Mode: ModePoints, PointsCap: big.NewInt(5)})
	f.setReward(t, actions.SpinCube, 2)
	f.setReward(t, actions.CreateParticles, 2)
	f.setReward(t, actions.ChangeTheme, 1)
	ctx := signed(distributor)

	expected := []string{"2", "4", "5"}
	for i, a := range actions.All {
		rec, err := f.airdrop.Distribute(ctx, distributor, user, a)
		require.NoError(t, err)
		assert.Equal(t, ModePoints, rec.Mode)
		assert.Empty(t, rec.Token)

		points, err := f.airdrop.Points(context.Background(), user)
		require.NoError(t, err)
		assert.Equal(t, expected[i], points.String(), a.String())
	}

	for _, a := range actions.All {
		_, err := f.airdrop.Distribute(ctx, distributor, user, a)
		require.ErrorIs(t, err, common.ErrAlreadyClaimed)
	}
	points, err := f.airdrop.Points(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "5", points.String())
}

func TestPointsModeDefaultsCap(t *testing.T) {
	f := newFixture(t, Options{Mode: ModePoints})
	f.setReward(t, actions.SpinCube, 100)

	_, err := f.airdrop.Distribute(signed(distributor), distributor, user, actions.SpinCube)
	require.NoError(t, err)

	points, err := f.airdrop.Points(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "5", points.String())
}

func TestGetStatus(t *testing.T) {
	f := newFixture(t, Options{Mode: ModePoints})
	f.setReward(t, actions.SpinCube, 1)
	f.setReward(t, actions.CreateParticles, 1)
	ctx := signed(distributor)

	status, err := f.airdrop.GetStatus(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, actions.None, status)

	_, err = f.airdrop.Distribute(ctx, distributor, user, actions.CreateParticles)
	require.NoError(t, err)
	_, err = f.airdrop.Distribute(ctx, distributor, user, actions.SpinCube)
	require.NoError(t, err)

	status, err = f.airdrop.GetStatus(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, actions.CreateParticles, status)
}

func TestConcurrentClaimsPayOnce(t *testing.T) {
	f := newFixture(t, Options{Mode: ModeToken})
	f.setReward(t, actions.SpinCube, 10)
	f.fund(t, distributor, 1_000)
	ctx := signed(distributor)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		repeats   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.airdrop.Distribute(ctx, distributor, user, actions.SpinCube)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, common.ErrAlreadyClaimed):
				repeats++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, repeats)
	assert.Equal(t, "10", f.balance(t, user))
	assert.Equal(t, "990", f.balance(t, distributor))

	stats, err := f.airdrop.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[0].Count)
	assert.Equal(t, "10", stats[0].Total.String())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeToken, m)

	m, err = ParseMode(" Points ")
	require.NoError(t, err)
	assert.Equal(t, ModePoints, m)

	_, err = ParseMode("blend")
	require.Error(t, err)
}

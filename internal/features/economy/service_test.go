package economy

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
	"serotonyl.ru/airdrop-bot/internal/store"
	"serotonyl.ru/airdrop-bot/internal/store/leveldb"
)

const (
	token                   = "ZI"
	treasury auth.Principal = "treasury"
	user     auth.Principal = "tg:42"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := leveldb.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st, NewLedger(auth.NewContextOracle()))
}

func TestMintAndTransfer(t *testing.T) {
	svc := newTestService(t)
	ctx := auth.WithPrincipals(context.Background(), treasury)

	require.NoError(t, svc.Mint(ctx, token, treasury, big.NewInt(100)))

	err := svc.store.Update(ctx, func(tx store.Tx) error {
		return svc.Ledger().Transfer(ctx, tx, token, treasury, user, big.NewInt(30))
	})
	require.NoError(t, err)

	bal, err := svc.GetBalance(ctx, token, treasury)
	require.NoError(t, err)
	assert.Equal(t, "70", bal.String())
	bal, err = svc.GetBalance(ctx, token, user)
	require.NoError(t, err)
	assert.Equal(t, "30", bal.String())
}

func TestTransferChecks(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Mint(context.Background(), token, treasury, big.NewInt(10)))

	transfer := func(ctx context.Context, tok string, amount *big.Int) error {
		return svc.store.Update(ctx, func(tx store.Tx) error {
			return svc.Ledger().Transfer(ctx, tx, tok, treasury, user, amount)
		})
	}
	authed := auth.WithPrincipals(context.Background(), treasury)

	require.ErrorIs(t, transfer(context.Background(), token, big.NewInt(1)), common.ErrUnauthorized)
	require.ErrorIs(t, transfer(auth.WithPrincipals(context.Background(), user), token, big.NewInt(1)), common.ErrUnauthorized)
	require.ErrorIs(t, transfer(authed, "", big.NewInt(1)), common.ErrTokenNotConfigured)
	require.ErrorIs(t, transfer(authed, token, big.NewInt(0)), common.ErrInvalidAmount)
	require.ErrorIs(t, transfer(authed, token, big.NewInt(-5)), common.ErrInvalidAmount)
	require.ErrorIs(t, transfer(authed, token, big.NewInt(11)), common.ErrInsufficientBalance)

	bal, err := svc.GetBalance(context.Background(), token, treasury)
	require.NoError(t, err)
	assert.Equal(t, "10", bal.String())
}

func TestTransferToSelfKeepsBalance(t *testing.T) {
	svc := newTestService(t)
	ctx := auth.WithPrincipals(context.Background(), treasury)
	require.NoError(t, svc.Mint(ctx, token, treasury, big.NewInt(10)))

	err := svc.store.Update(ctx, func(tx store.Tx) error {
		return svc.Ledger().Transfer(ctx, tx, token, treasury, treasury, big.NewInt(4))
	})
	require.NoError(t, err)

	bal, err := svc.GetBalance(ctx, token, treasury)
	require.NoError(t, err)
	assert.Equal(t, "10", bal.String())
}

func TestMintRejectsOverflow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Mint(ctx, token, user, common.MaxInt128))
	require.ErrorIs(t, svc.Mint(ctx, token, user, big.NewInt(1)), common.ErrInvalidAmount)
	require.ErrorIs(t, svc.Mint(ctx, "", user, big.NewInt(1)), common.ErrTokenNotConfigured)
}

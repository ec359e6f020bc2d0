package app

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/config"
	"serotonyl.ru/airdrop-bot/internal/features/airdrop"
)

func TestServicesOverLevelDB(t *testing.T) {
	cfg := &config.Config{
		StoreBackend:       config.BackendLevelDB,
		LevelDBPath:        t.TempDir(),
		AirdropDistributor: "treasury",
		AirdropMode:        airdrop.ModePoints,
		AirdropPointsCap:   5,
		DefaultRewards: map[actions.Action]*big.Int{
			actions.SpinCube:        big.NewInt(2),
			actions.CreateParticles: big.NewInt(2),
			actions.ChangeTheme:     big.NewInt(1),
		},
	}
	ctx := context.Background()

	st, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	svc := NewServices(cfg, st)

	require.NoError(t, svc.Admin.Initialize(ctx, "operator"))
	signed := auth.WithPrincipals(ctx, cfg.Distributor())
	for _, a := range actions.All {
		_, err := svc.Airdrop.Distribute(signed, cfg.Distributor(), "tg:42", a)
		require.NoError(t, err)
	}
	require.NoError(t, st.Close())

	// Данные переживают переоткрытие
	st, err = OpenStore(ctx, cfg)
	require.NoError(t, err)
	defer st.Close()
	svc = NewServices(cfg, st)

	points, err := svc.Airdrop.Points(ctx, "tg:42")
	require.NoError(t, err)
	assert.Equal(t, "5", points.String())

	status, err := svc.Airdrop.GetStatus(ctx, "tg:42")
	require.NoError(t, err)
	assert.Equal(t, actions.ChangeTheme, status)
}

func TestOpenStoreRejectsUnknownBackend(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Config{StoreBackend: "redis"})
	require.Error(t, err)
}

package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/airdrop-bot/internal/store"
)

// newTestStore подключается к TEST_DATABASE_DSN; без него тесты пропускаются.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN не задан")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, PoolConfig{DSN: dsn, MaxConns: 8, MinConns: 1})
	require.NoError(t, err)
	require.NoError(t, RunMigrations(ctx, pool))

	s := New(pool)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresUpdateAndRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := uuid.NewString()
	key := store.NewKey(store.TierInstance, "test", run, uint32(1))

	boom := errors.New("boom")
	err := s.Update(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Set(key, []byte("x")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(r store.Reader) error {
		ok, err := r.Has(key)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return tx.Set(key, []byte("y"))
	}))
	require.NoError(t, s.View(ctx, func(r store.Reader) error {
		val, found, err := r.Get(key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("y"), val)
		return nil
	}))
}

func TestPostgresUpdateSerializes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := store.NewKey(store.TierInstance, "test", uuid.NewString(), "once")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(ctx, func(tx store.Tx) error {
				ok, err := tx.Has(key)
				if err != nil || ok {
					return err
				}
				mu.Lock()
				winners++
				mu.Unlock()
				return tx.Set(key, []byte{1})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

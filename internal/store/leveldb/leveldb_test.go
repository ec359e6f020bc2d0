package leveldb

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/airdrop-bot/internal/store"
)

func newMem(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpdateCommitsAndViewReads(t *testing.T) {
	s := newMem(t)
	ctx := context.Background()
	key := store.NewKey(store.TierConfig, "admin")

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		ok, err := tx.Has(key)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, tx.Set(key, []byte("tg:1")))

		// Запись видна внутри транзакции
		val, found, err := tx.Get(key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("tg:1"), val)
		return nil
	}))

	require.NoError(t, s.View(ctx, func(r store.Reader) error {
		val, found, err := r.Get(key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("tg:1"), val)
		return nil
	}))
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := newMem(t)
	ctx := context.Background()
	key := store.NewKey(store.TierInstance, "claim", "tg:1", uint32(1))
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
}

func TestUpdateIsSerialized(t *testing.T) {
	s := newMem(t)
	ctx := context.Background()
	key := store.NewKey(store.TierConfig, "counter")

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			err := s.Update(ctx, func(tx store.Tx) error {
				val, _, err := tx.Get(key)
				if err != nil {
					return err
				}
				return tx.Set(key, append(val, 'x'))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.NoError(t, s.View(ctx, func(r store.Reader) error {
		val, _, err := r.Get(key)
		require.NoError(t, err)
		assert.Len(t, val, workers)
		return nil
	}))
}

func TestClosedStore(t *testing.T) {
	s, err := OpenMem()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	err = s.Update(context.Background(), func(store.Tx) error { return nil })
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestOpenFilePersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	ctx := context.Background()
	key := store.NewKey(store.TierConfig, "token")

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error { return tx.Set(key, []byte("ZI")) }))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.View(ctx, func(r store.Reader) error {
		val, found, err := r.Get(key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "ZI", string(val))
		return nil
	}))
}

// Package postgres — postgres.go реализует store.Store поверх таблицы kv_state.
//
// Каждая Update-транзакция сначала берёт pg_advisory_xact_lock с общим
// идентификатором, поэтому записывающие вызовы выполняются строго по одному,
// а блокировка снимается вместе с COMMIT/ROLLBACK.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/airdrop-bot/internal/store"
)

// DefaultLockID — идентификатор advisory-блокировки записывающих транзакций.
const DefaultLockID int64 = 0x41495244524f50 // "AIRDROP"

// Store — хранилище в PostgreSQL.
type Store struct {
	db     *pgxpool.Pool
	lockID int64
}

// New создаёт хранилище поверх готового пула. Миграции должны быть применены.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db, lockID: DefaultLockID}
}

// View читает в read-only транзакции (согласованный снимок).
func (s *Store) View(ctx context.Context, fn func(r store.Reader) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(pgTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update выполняет fn в транзакции под advisory-блокировкой.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	// Откатываем транзакцию, если что-то пошло не так
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, s.lockID); err != nil {
		return fmt.Errorf("ошибка блокировки: %w", err)
	}

	if err := fn(pgTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// Close закрывает пул.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

type pgTx struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t pgTx) Get(key store.Key) ([]byte, bool, error) {
	var value []byte
	err := t.tx.QueryRow(t.ctx, `SELECT value FROM kv_state WHERE key = $1`, []byte(key)).Scan(&value)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("ошибка чтения %s: %w", key, err)
	}
	return value, true, nil
}

func (t pgTx) Has(key store.Key) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(t.ctx,
		`SELECT EXISTS(SELECT 1 FROM kv_state WHERE key = $1)`, []byte(key),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка чтения %s: %w", key, err)
	}
	return exists, nil
}

func (t pgTx) Set(key store.Key, value []byte) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO kv_state (key, tier, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, []byte(key), int16(key.Tier()), value)
	if err != nil {
		return fmt.Errorf("ошибка записи %s: %w", key, err)
	}
	return nil
}

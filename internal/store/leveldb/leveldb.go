// Package leveldb — встраиваемый бэкенд хранилища на goleveldb.
// Подходит для одиночного экземпляра бота и для тестов (OpenMem).
//
// Update-транзакции goleveldb эксклюзивны: пока одна открыта,
// следующая OpenTransaction ждёт. Это и есть сериализация вызовов.
package leveldb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"serotonyl.ru/airdrop-bot/internal/store"
)

// Store — хранилище поверх *leveldb.DB.
type Store struct {
	db     *leveldb.DB
	mu     sync.RWMutex
	closed bool
}

// Open открывает (или создаёт) базу в каталоге path.
func Open(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("не задан путь к leveldb")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("ошибка пути leveldb: %w", err)
	}
	db, err := leveldb.OpenFile(abs, nil)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть leveldb: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenMem открывает хранилище в памяти. Данные живут до Close.
func OpenMem() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть leveldb в памяти: %w", err)
	}
	return &Store{db: db}, nil
}

// View читает из снимка базы.
func (s *Store) View(ctx context.Context, fn func(r store.Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	snap, err := s.db.GetSnapshot()
	if err != nil {
		return fmt.Errorf("ошибка снимка leveldb: %w", err)
	}
	defer snap.Release()

	return fn(snapshotReader{snap: snap})
}

// Update выполняет fn в транзакции leveldb.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tr, err := s.db.OpenTransaction()
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	// Discard после Commit ничего не делает
	defer tr.Discard()

	if err := fn(txn{tr: tr}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tr.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// Close закрывает базу. Повторный вызов безопасен.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type snapshotReader struct {
	snap *leveldb.Snapshot
}

func (r snapshotReader) Get(key store.Key) ([]byte, bool, error) {
	val, err := r.snap.Get(key, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("ошибка чтения %s: %w", key, err)
	}
	return val, true, nil
}

func (r snapshotReader) Has(key store.Key) (bool, error) {
	ok, err := r.snap.Has(key, nil)
	if err != nil {
		return false, fmt.Errorf("ошибка чтения %s: %w", key, err)
	}
	return ok, nil
}

type txn struct {
	tr *leveldb.Transaction
}

func (t txn) Get(key store.Key) ([]byte, bool, error) {
	val, err := t.tr.Get(key, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("ошибка чтения %s: %w", key, err)
	}
	return val, true, nil
}

func (t txn) Has(key store.Key) (bool, error) {
	ok, err := t.tr.Has(key, nil)
	if err != nil {
		return false, fmt.Errorf("ошибка чтения %s: %w", key, err)
	}
	return ok, nil
}

func (t txn) Set(key store.Key, value []byte) error {
	if err := t.tr.Put(key, value, nil); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", key, err)
	}
	return nil
}

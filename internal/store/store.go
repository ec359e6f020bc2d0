// Package store описывает постоянное хранилище состояния аирдропа.
//
// Хранилище — это key-value карта с составными ключами (см. keys.go).
// Все изменения делаются внутри Update: либо фиксируется весь вызов
// (чтения, перевод, запись выдачи), либо ничего. Бэкенды сериализуют
// Update-транзакции, поэтому два одновременных запроса на одну и ту же
// выдачу упорядочиваются, и второй увидит запись первого.
package store

import (
	"context"
	"errors"
)

// ErrClosed возвращается при обращении к закрытому хранилищу.
var ErrClosed = errors.New("хранилище закрыто")

// Reader — операции чтения.
type Reader interface {
	// Get возвращает значение и признак наличия ключа.
	Get(key Key) ([]byte, bool, error)
	// Has проверяет наличие ключа.
	Has(key Key) (bool, error)
}

// Tx — транзакция записи. Изменения видны внутри транзакции сразу,
// снаружи — только после фиксации.
type Tx interface {
	Reader
	Set(key Key, value []byte) error
}

// Store — постоянное хранилище.
type Store interface {
	// View выполняет fn над согласованным снимком состояния.
	View(ctx context.Context, fn func(r Reader) error) error
	// Update выполняет fn в одной транзакции. Если fn вернула ошибку,
	// ни одно изменение не фиксируется.
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

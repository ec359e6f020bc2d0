// Package economy — repository.go хранит балансы токенов в общем хранилище.
// Баланс — десятичная строка под ключом (config, "balance", token, account).
// Все функции принимают store.Reader/store.Tx, поэтому перевод выполняется
// в той же транзакции, что и запись о выдаче.
package economy

import (
	"fmt"
	"math/big"

	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/store"
)

func balanceKey(token string, account auth.Principal) store.Key {
	return store.NewKey(store.TierConfig, "balance", token, account)
}

// readBalance возвращает баланс; отсутствие записи = 0.
func readBalance(r store.Reader, token string, account auth.Principal) (*big.Int, error) {
	raw, found, err := r.Get(balanceKey(token, account))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	if !found {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, fmt.Errorf("повреждённый баланс %s: %q", account, raw)
	}
	return v, nil
}

func writeBalance(tx store.Tx, token string, account auth.Principal, amount *big.Int) error {
	if err := tx.Set(balanceKey(token, account), []byte(amount.String())); err != nil {
		return fmt.Errorf("ошибка записи баланса: %w", err)
	}
	return nil
}

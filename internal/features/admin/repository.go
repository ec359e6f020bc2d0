// Package admin — repository.go читает и пишет записи реестра в хранилище.
//
// Ключи:
//   - (config, "admin")                   → идентификатор администратора
//   - (config, "token")                   → идентификатор токена
//   - (config, "reward", action)          → награда, десятичная строка
//   - (instance, "admin_session", user)   → JSON AdminSession
//   - (instance, "admin_attempts", user)  → JSON loginAttempts
package admin

import (
	"encoding/json"
	"fmt"
	"math/big"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/store"
)

var (
	keyAdmin = store.NewKey(store.TierConfig, "admin")
	keyToken = store.NewKey(store.TierConfig, "token")
)

func rewardKey(a actions.Action) store.Key {
	return store.NewKey(store.TierConfig, "reward", a.Code())
}

func sessionKey(user auth.Principal) store.Key {
	return store.NewKey(store.TierInstance, "admin_session", user)
}

func attemptsKey(user auth.Principal) store.Key {
	return store.NewKey(store.TierInstance, "admin_attempts", user)
}

func readAdmin(r store.Reader) (auth.Principal, bool, error) {
	raw, found, err := r.Get(keyAdmin)
	if err != nil || !found {
		return "", false, err
	}
	return auth.Principal(raw), true, nil
}

func readToken(r store.Reader) (string, error) {
	raw, _, err := r.Get(keyToken)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func readReward(r store.Reader, a actions.Action) (*big.Int, error) {
	raw, found, err := r.Get(rewardKey(a))
	if err != nil {
		return nil, err
	}
	if !found {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, fmt.Errorf("повреждённая награда за %s: %q", a, raw)
	}
	return v, nil
}

func writeReward(tx store.Tx, a actions.Action, amount *big.Int) error {
	return tx.Set(rewardKey(a), []byte(amount.String()))
}

func readJSON(r store.Reader, key store.Key, dst any) (bool, error) {
	raw, found, err := r.Get(key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("повреждённая запись %s: %w", key, err)
	}
	return true, nil
}

func writeJSON(tx store.Tx, key store.Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Set(key, raw)
}

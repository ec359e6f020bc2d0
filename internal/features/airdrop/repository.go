// Package airdrop — repository.go хранит записи о выдачах, баллы и статистику.
//
// Ключи:
//   - (instance, "claim", recipient, action) → JSON ClaimRecord
//   - (config, "points", user)               → баллы, десятичная строка
//   - (config, "stats", action)              → JSON ActionStats
package airdrop

import (
	"encoding/json"
	"fmt"
	"math/big"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/store"
)

func claimKey(recipient auth.Principal, a actions.Action) store.Key {
	return store.NewKey(store.TierInstance, "claim", recipient, a.Code())
}

func pointsKey(user auth.Principal) store.Key {
	return store.NewKey(store.TierConfig, "points", user)
}

func statsKey(a actions.Action) store.Key {
	return store.NewKey(store.TierConfig, "stats", a.Code())
}

func readClaim(r store.Reader, recipient auth.Principal, a actions.Action) (*ClaimRecord, error) {
	raw, found, err := r.Get(claimKey(recipient, a))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения выдачи: %w", err)
	}
	if !found {
		return nil, nil
	}
	var rec ClaimRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("повреждённая запись о выдаче %s/%s: %w", recipient, a, err)
	}
	return &rec, nil
}

func writeClaim(tx store.Tx, rec *ClaimRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := tx.Set(claimKey(rec.Recipient, rec.Action), raw); err != nil {
		return fmt.Errorf("ошибка записи выдачи: %w", err)
	}
	return nil
}

func readPoints(r store.Reader, user auth.Principal) (*big.Int, error) {
	raw, found, err := r.Get(pointsKey(user))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения баллов: %w", err)
	}
	if !found {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, fmt.Errorf("повреждённые баллы %s: %q", user, raw)
	}
	return v, nil
}

func writePoints(tx store.Tx, user auth.Principal, v *big.Int) error {
	return tx.Set(pointsKey(user), []byte(v.String()))
}

func readStats(r store.Reader, a actions.Action) (*ActionStats, error) {
	stats := &ActionStats{Action: a, Total: new(big.Int)}
	raw, found, err := r.Get(statsKey(a))
	if err != nil || !found {
		return stats, err
	}
	if err := json.Unmarshal(raw, stats); err != nil {
		return nil, fmt.Errorf("повреждённая статистика %s: %w", a, err)
	}
	if stats.Total == nil {
		stats.Total = new(big.Int)
	}
	return stats, nil
}

func addStats(tx store.Tx, a actions.Action, amount *big.Int) error {
	stats, err := readStats(tx, a)
	if err != nil {
		return err
	}
	stats.Count++
	stats.Total.Add(stats.Total, amount)
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return tx.Set(statsKey(a), raw)
}

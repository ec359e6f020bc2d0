// Package members — repository.go хранит участников в общем хранилище
// под ключом (config, "member", user_id) в виде JSON.
package members

import (
	"encoding/json"
	"fmt"

	"serotonyl.ru/airdrop-bot/internal/store"
)

func memberKey(userID int64) store.Key {
	return store.NewKey(store.TierConfig, "member", userID)
}

func readMember(r store.Reader, userID int64) (*Member, error) {
	raw, found, err := r.Get(memberKey(userID))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения участника (user_id=%d): %w", userID, err)
	}
	if !found {
		return nil, nil
	}
	var m Member
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("повреждённая запись участника (user_id=%d): %w", userID, err)
	}
	return &m, nil
}

func writeMember(tx store.Tx, m *Member) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := tx.Set(memberKey(m.UserID), raw); err != nil {
		return fmt.Errorf("ошибка записи участника: %w", err)
	}
	return nil
}

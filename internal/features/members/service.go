// Package members — service.go содержит логику регистрации участников
// и проверки членства.
package members

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/airdrop-bot/internal/common"
	"serotonyl.ru/airdrop-bot/internal/store"
)

// Service управляет реестром участников.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService создаёт новый сервис участников.
func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// HandleNewMember регистрирует участника. Если он уже известен (перезашёл) —
// обновляет имя и username, дата вступления сохраняется.
func (s *Service) HandleNewMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	now := s.now().UTC()
	created := false
	err := s.store.Update(ctx, func(tx store.Tx) error {
		m, err := readMember(tx, userID)
		if err != nil {
			return err
		}
		if m == nil {
			m = &Member{UserID: userID, JoinedAt: now}
			created = true
		}
		m.Username = username
		m.FirstName = firstName
		m.LastName = lastName
		m.UpdatedAt = now
		return writeMember(tx, m)
	})
	if err != nil {
		return fmt.Errorf("ошибка регистрации участника: %w", err)
	}

	if created {
		log.WithFields(log.Fields{
			"user_id":  userID,
			"username": username,
		}).Info("Новый участник зарегистрирован")
	} else {
		log.WithField("user_id", userID).Debug("Данные участника обновлены")
	}
	return nil
}

// IsMember проверяет, известен ли пользователь как участник.
func (s *Service) IsMember(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.store.View(ctx, func(r store.Reader) error {
		var err error
		exists, err = r.Has(memberKey(userID))
		return err
	})
	return exists, err
}

// GetByUserID возвращает участника или ErrUserNotFound.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	var m *Member
	err := s.store.View(ctx, func(r store.Reader) error {
		var err error
		m, err = readMember(r, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w (user_id=%d)", common.ErrUserNotFound, userID)
	}
	return m, nil
}

// EnsureMember гарантирует, что пользователь есть в реестре.
func (s *Service) EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	exists, err := s.IsMember(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.HandleNewMember(ctx, userID, username, firstName, lastName)
}

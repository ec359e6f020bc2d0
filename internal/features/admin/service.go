// Package admin — service.go содержит логику реестра администратора:
// однократную инициализацию, изменение конфигурации наград только
// администратором и парольные сессии для Telegram-панели.
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
	"serotonyl.ru/airdrop-bot/internal/metrics"
	"serotonyl.ru/airdrop-bot/internal/store"
)

// Service управляет реестром администратора.
type Service struct {
	store  store.Store
	oracle auth.Oracle
	opts   Options
	now    func() time.Time
}

// NewService создаёт сервис реестра.
func NewService(st store.Store, oracle auth.Oracle, opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	return &Service{store: st, oracle: oracle, opts: opts, now: time.Now}
}

// Initialize назначает администратора. Повторный вызов — ErrAlreadyInitialized.
// Кто первым записал, тот и администратор; при RequireInitAuth вызов ещё и
// должен быть подтверждён самим admin.
func (s *Service) Initialize(ctx context.Context, admin auth.Principal) error {
	if admin.IsZero() {
		return fmt.Errorf("%w: пустой администратор", common.ErrUnauthorized)
	}
	if s.opts.RequireInitAuth {
		if err := s.oracle.RequireAuth(ctx, admin); err != nil {
			return err
		}
	}

	err := s.store.Update(ctx, func(tx store.Tx) error {
		exists, err := tx.Has(keyAdmin)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrAlreadyInitialized
		}
		if err := tx.Set(keyAdmin, []byte(admin)); err != nil {
			return err
		}
		for a, amount := range s.opts.DefaultRewards {
			if err := validateReward(a, amount); err != nil {
				return err
			}
			if err := writeReward(tx, a, amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.Airdrop().ObserveConfigChange("initialize")
	log.WithField("admin", admin).Info("Аирдроп инициализирован")
	return nil
}

// SetConfig меняет токен (если задан) и перечисленные награды.
// Награды, не упомянутые в cfg, остаются как были.
func (s *Service) SetConfig(ctx context.Context, cfg Config) error {
	token := strings.TrimSpace(cfg.Token)

	err := s.store.Update(ctx, func(tx store.Tx) error {
		// Права проверяются раньше содержимого: чужой вызов всегда ErrUnauthorized
		if err := s.requireAdmin(ctx, tx); err != nil {
			return err
		}
		for a, amount := range cfg.Rewards {
			if err := validateReward(a, amount); err != nil {
				return err
			}
		}
		if token != "" {
			if err := tx.Set(keyToken, []byte(token)); err != nil {
				return err
			}
		}
		for a, amount := range cfg.Rewards {
			if err := writeReward(tx, a, amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.Airdrop().ObserveConfigChange("config")
	log.WithFields(log.Fields{
		"token":   token,
		"rewards": len(cfg.Rewards),
	}).Info("Конфигурация аирдропа обновлена")
	return nil
}

// SetToken меняет только токен выплат.
func (s *Service) SetToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return common.ErrTokenNotConfigured
	}
	return s.SetConfig(ctx, Config{Token: token})
}

// SetRewardAmount задаёт награду за действие. 0 — награды нет.
func (s *Service) SetRewardAmount(ctx context.Context, a actions.Action, amount *big.Int) error {
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := s.requireAdmin(ctx, tx); err != nil {
			return err
		}
		if err := validateReward(a, amount); err != nil {
			return err
		}
		return writeReward(tx, a, amount)
	})
	if err != nil {
		return err
	}

	metrics.Airdrop().ObserveConfigChange("reward")
	log.WithFields(log.Fields{
		"action": a.String(),
		"amount": amount.String(),
	}).Info("Награда изменена")
	return nil
}

// GetRewardAmount возвращает награду за действие; 0, если не настроена.
func (s *Service) GetRewardAmount(ctx context.Context, a actions.Action) (*big.Int, error) {
	var amount *big.Int
	err := s.store.View(ctx, func(r store.Reader) error {
		var err error
		amount, err = s.RewardAmount(r, a)
		return err
	})
	return amount, err
}

// RewardAmount читает награду внутри чужой транзакции.
func (s *Service) RewardAmount(r store.Reader, a actions.Action) (*big.Int, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownAction, a)
	}
	return readReward(r, a)
}

// Token читает токен выплат внутри чужой транзакции.
func (s *Service) Token(r store.Reader) (string, error) {
	return readToken(r)
}

// CurrentToken возвращает токен выплат ("" — не задан).
func (s *Service) CurrentToken(ctx context.Context) (string, error) {
	var token string
	err := s.store.View(ctx, func(r store.Reader) error {
		var err error
		token, err = readToken(r)
		return err
	})
	return token, err
}

// Admin возвращает администратора или ErrNotInitialized.
func (s *Service) Admin(ctx context.Context) (auth.Principal, error) {
	var admin auth.Principal
	err := s.store.View(ctx, func(r store.Reader) error {
		a, found, err := readAdmin(r)
		if err != nil {
			return err
		}
		if !found {
			return common.ErrNotInitialized
		}
		admin = a
		return nil
	})
	return admin, err
}

// Config возвращает текущую конфигурацию: токен и все заданные ненулевые награды.
func (s *Service) Config(ctx context.Context) (*Config, error) {
	cfg := &Config{Rewards: make(map[actions.Action]*big.Int)}
	err := s.store.View(ctx, func(r store.Reader) error {
		token, err := readToken(r)
		if err != nil {
			return err
		}
		cfg.Token = token
		for _, a := range actions.All {
			amount, err := readReward(r, a)
			if err != nil {
				return err
			}
			if amount.Sign() != 0 {
				cfg.Rewards[a] = amount
			}
		}
		return nil
	})
	return cfg, err
}

// requireAdmin проверяет, что администратор назначен и подтвердил вызов.
func (s *Service) requireAdmin(ctx context.Context, r store.Reader) error {
	admin, found, err := readAdmin(r)
	if err != nil {
		return err
	}
	if !found {
		return common.ErrNotInitialized
	}
	return s.oracle.RequireAuth(ctx, admin)
}

func validateReward(a actions.Action, amount *big.Int) error {
	if !a.Valid() {
		return fmt.Errorf("%w: %s", common.ErrUnknownAction, a)
	}
	if amount == nil || amount.Sign() < 0 || !common.InInt128(amount) {
		return fmt.Errorf("%w: награда за %s", common.ErrInvalidAmount, a)
	}
	return nil
}

// --- Сессии администратора ---

// VerifyPassword проверяет пароль администратора с использованием Argon2id.
// Включает защиту от brute-force: MaxAttempts неудачных попыток = блокировка на 1 час.
// При успехе создаёт сессию на SessionTTL.
func (s *Service) VerifyPassword(ctx context.Context, user auth.Principal, password string) error {
	now := s.now()
	wrong := false
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var attempts loginAttempts
		if _, err := readJSON(tx, attemptsKey(user), &attempts); err != nil {
			return err
		}
		attempts.Failures = recentFailures(attempts.Failures, now.Add(-time.Hour))
		if len(attempts.Failures) >= s.opts.MaxAttempts {
			return common.ErrTooManyAttempts
		}

		if !verifyArgon2id(password, s.opts.PasswordHash) {
			attempts.Failures = append(attempts.Failures, now)
			if err := writeJSON(tx, attemptsKey(user), attempts); err != nil {
				return err
			}
			// Попытку надо зафиксировать, поэтому транзакция не откатывается
			wrong = true
			return nil
		}

		if err := writeJSON(tx, attemptsKey(user), loginAttempts{}); err != nil {
			return err
		}
		session := AdminSession{
			Token:           uuid.NewString(),
			UserID:          user,
			AuthenticatedAt: now,
			ExpiresAt:       now.Add(s.opts.SessionTTL),
		}
		return writeJSON(tx, sessionKey(user), session)
	})
	if err != nil {
		return err
	}
	if wrong {
		log.WithField("user", user).Warn("Неверный пароль администратора")
		return common.ErrWrongPassword
	}

	log.WithField("user", user).Info("Сессия администратора открыта")
	return nil
}

// HasActiveSession проверяет, есть ли у пользователя активная сессия.
func (s *Service) HasActiveSession(ctx context.Context, user auth.Principal) bool {
	var session AdminSession
	found := false
	err := s.store.View(ctx, func(r store.Reader) error {
		var err error
		found, err = readJSON(r, sessionKey(user), &session)
		return err
	})
	return err == nil && found && s.now().Before(session.ExpiresAt)
}

// Logout завершает сессию.
func (s *Service) Logout(ctx context.Context, user auth.Principal) error {
	return s.store.Update(ctx, func(tx store.Tx) error {
		return writeJSON(tx, sessionKey(user), AdminSession{UserID: user})
	})
}

func recentFailures(failures []time.Time, since time.Time) []time.Time {
	out := failures[:0]
	for _, t := range failures {
		if t.After(since) {
			out = append(out, t)
		}
	}
	return out
}

// --- Криптографические утилиты ---

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравниваем в постоянном времени (защита от timing attack)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

// HashPassword строит Argon2id-хеш в формате, который понимает VerifyPassword.
func HashPassword(password string, salt []byte) string {
	const (
		memory      uint32 = 64 * 1024
		iterations  uint32 = 3
		parallelism uint8  = 2
		keyLength   uint32 = 32
	)
	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

// Package cli — password.go содержит команду hash-password.
package cli

import (
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"

	"serotonyl.ru/airdrop-bot/internal/features/admin"
)

// newHashPasswordCommand печатает Argon2id-хеш для ADMIN_PASSWORD_HASH.
// Хранилище не открывается.
func newHashPasswordCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Сгенерировать ADMIN_PASSWORD_HASH (Argon2id)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			salt := make([]byte, 16)
			if _, err := rand.Read(salt); err != nil {
				return fmt.Errorf("ошибка генерации соли: %w", err)
			}
			hash := admin.HashPassword(args[0], salt)
			return opts.printResult(cmd, map[string]string{"hash": hash}, func() string {
				return hash
			})
		},
	}
}

// Package cli — root.go собирает операторскую утилиту airdropctl.
// Команды работают напрямую с хранилищем; --as подтверждает согласие
// указанных аккаунтов (оператор держит их ключи).
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"serotonyl.ru/airdrop-bot/internal/app"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/config"
)

// Env — открытое окружение команды.
type Env struct {
	Config   *config.Config
	Services *app.Services
}

// Opener открывает окружение. Возвращаемая функция закрывает его.
type Opener func(ctx context.Context) (*Env, func(), error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string   // "json" | "text"
	As     []string // Аккаунты, чьё согласие подтверждает оператор
	open   Opener
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand создаёт корневую команду с окружением из переменных окружения.
func NewRootCommand() *cobra.Command {
	return newRootCommand(openFromEnv)
}

func newRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "airdropctl",
		Short: "airdropctl — управление аирдропом",
		Long: `Операторская утилита аирдропа: назначение администратора, настройка наград,
выдача и проверка наград, балансы. Хранилище задаётся теми же переменными
окружения, что и у бота (STORE_BACKEND, DB_*, LEVELDB_PATH).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringSliceVar(&opts.As, "as", nil, "подтвердить согласие аккаунтов (через запятую)")

	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newSetConfigCommand(opts))
	cmd.AddCommand(newSetRewardCommand(opts))
	cmd.AddCommand(newRewardCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))
	cmd.AddCommand(newDistributeCommand(opts))
	cmd.AddCommand(newClaimedCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newBalanceCommand(opts))
	cmd.AddCommand(newMintCommand(opts))
	cmd.AddCommand(newHashPasswordCommand(opts))

	return cmd
}

// withEnv открывает окружение, выполняет fn и закрывает его.
// В контекст fn уже добавлены аккаунты из --as.
func (o *RootOptions) withEnv(cmd *cobra.Command, fn func(ctx context.Context, env *Env) error) error {
	env, closeEnv, err := o.open(cmd.Context())
	if err != nil {
		return err
	}
	defer closeEnv()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	principals := make([]auth.Principal, 0, len(o.As))
	for _, raw := range o.As {
		p, err := auth.ParsePrincipal(raw)
		if err != nil {
			return fmt.Errorf("--as: %w", err)
		}
		principals = append(principals, p)
	}
	return fn(auth.WithPrincipals(ctx, principals...), env)
}

func openFromEnv(ctx context.Context) (*Env, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	env := &Env{Config: cfg, Services: app.NewServices(cfg, st)}
	return env, func() { _ = st.Close() }, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

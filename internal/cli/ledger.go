// Package cli — ledger.go содержит команды баланса токенов: balance и mint.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
)

// tokenOrCurrent возвращает --token или текущий токен выплат.
func tokenOrCurrent(ctx context.Context, env *Env, flag string) (string, error) {
	if token := strings.TrimSpace(flag); token != "" {
		return token, nil
	}
	token, err := env.Services.Admin.CurrentToken(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", common.ErrTokenNotConfigured
	}
	return token, nil
}

func newBalanceCommand(opts *RootOptions) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Баланс аккаунта в токене выплат",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := auth.ParsePrincipal(args[0])
			if err != nil {
				return err
			}
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				tok, err := tokenOrCurrent(ctx, env, token)
				if err != nil {
					return err
				}
				balance, err := env.Services.Economy.GetBalance(ctx, tok, account)
				if err != nil {
					return err
				}
				view := map[string]string{"account": account.String(), "token": tok, "balance": balance.String()}
				return opts.printResult(cmd, view, func() string {
					return fmt.Sprintf("%s: %s", account, common.FormatAmount(balance, tok))
				})
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "токен (по умолчанию текущий токен выплат)")
	return cmd
}

func newMintCommand(opts *RootOptions) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:     "mint <account> <amount>",
		Short:   "Пополнить баланс аккаунта (например, распределителя)",
		Example: `  airdropctl mint treasury 1_000_000_000`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := auth.ParsePrincipal(args[0])
			if err != nil {
				return err
			}
			amount, err := common.ParseAmount(args[1])
			if err != nil {
				return err
			}
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				tok, err := tokenOrCurrent(ctx, env, token)
				if err != nil {
					return err
				}
				if err := env.Services.Economy.Mint(ctx, tok, account, amount); err != nil {
					return err
				}
				balance, err := env.Services.Economy.GetBalance(ctx, tok, account)
				if err != nil {
					return err
				}
				view := map[string]string{"account": account.String(), "token": tok, "balance": balance.String()}
				return opts.printResult(cmd, view, func() string {
					return fmt.Sprintf("Начислено. %s: %s", account, common.FormatAmount(balance, tok))
				})
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "токен (по умолчанию текущий токен выплат)")
	return cmd
}

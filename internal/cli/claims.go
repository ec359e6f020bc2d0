// Package cli — claims.go содержит команды выдачи и проверки наград:
// distribute, claimed и status.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
	"serotonyl.ru/airdrop-bot/internal/features/airdrop"
)

func newDistributeCommand(opts *RootOptions) *cobra.Command {
	var senderRaw, recipientRaw string

	cmd := &cobra.Command{
		Use:   "distribute --recipient <account> <action>",
		Short: "Выдать награду за действие",
		Long: `Выдать награду за действие. Каждая пара (получатель, действие) оплачивается
один раз. Отправитель (по умолчанию AIRDROP_DISTRIBUTOR) должен быть в --as.

Example:
  airdropctl distribute --recipient tg:42 spin_cube --as treasury`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := actions.ParseName(args[0])
			if err != nil {
				return err
			}
			recipient, err := auth.ParsePrincipal(recipientRaw)
			if err != nil {
				return fmt.Errorf("--recipient: %w", err)
			}
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				sender := env.Config.Distributor()
				if strings.TrimSpace(senderRaw) != "" {
					if sender, err = auth.ParsePrincipal(senderRaw); err != nil {
						return fmt.Errorf("--sender: %w", err)
					}
				}

				rec, err := env.Services.Airdrop.Distribute(ctx, sender, recipient, a)
				if err != nil {
					return err
				}
				return opts.printResult(cmd, rec, func() string {
					return fmt.Sprintf("Выдано %s → %s за %s: %s (id %s)",
						rec.Sender, rec.Recipient, rec.Action.Title(),
						common.FormatAmount(rec.Amount, rec.Token), rec.ID)
				})
			})
		},
	}

	cmd.Flags().StringVar(&senderRaw, "sender", "", "аккаунт-отправитель (по умолчанию AIRDROP_DISTRIBUTOR)")
	cmd.Flags().StringVar(&recipientRaw, "recipient", "", "аккаунт-получатель")
	_ = cmd.MarkFlagRequired("recipient")

	return cmd
}

func newClaimedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "claimed <account> <action>",
		Short: "Проверить, выдана ли награда",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := auth.ParsePrincipal(args[0])
			if err != nil {
				return err
			}
			a, err := actions.ParseName(args[1])
			if err != nil {
				return err
			}
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				claimed, err := env.Services.Airdrop.IsClaimed(ctx, user, a)
				if err != nil {
					return err
				}
				view := map[string]any{"account": user.String(), "action": a.String(), "claimed": claimed}
				return opts.printResult(cmd, view, func() string {
					return fmt.Sprintf("%s / %s: %t", user, a, claimed)
				})
			})
		},
	}
}

type statusView struct {
	Account string                 `json:"account"`
	Status  string                 `json:"status"`
	Code    uint32                 `json:"code"`
	Claims  []*airdrop.ClaimRecord `json:"claims"`
	Points  string                 `json:"points,omitempty"`
}

func newStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <account>",
		Short: "Статус аккаунта: старшее полученное действие и все выдачи",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := auth.ParsePrincipal(args[0])
			if err != nil {
				return err
			}
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				status, err := env.Services.Airdrop.GetStatus(ctx, user)
				if err != nil {
					return err
				}
				claims, err := env.Services.Airdrop.Claims(ctx, user)
				if err != nil {
					return err
				}
				view := statusView{Account: user.String(), Status: status.String(), Code: status.Code(), Claims: claims}
				if env.Services.Airdrop.Mode() == airdrop.ModePoints {
					points, err := env.Services.Airdrop.Points(ctx, user)
					if err != nil {
						return err
					}
					view.Points = points.String()
				}

				return opts.printResult(cmd, view, func() string {
					var sb strings.Builder
					sb.WriteString(fmt.Sprintf("%s: %s (%d)", user, status, status.Code()))
					for _, rec := range claims {
						sb.WriteString(fmt.Sprintf("\n  %s — %s, %s",
							rec.Action, rec.Amount, common.FormatDateTime(rec.ClaimedAt)))
					}
					if view.Points != "" {
						sb.WriteString("\n  баллы: " + view.Points)
					}
					return sb.String()
				})
			})
		},
	}
}

// Package cli — admin.go содержит команды реестра администратора:
// init, set-config, set-reward, reward и config.
package cli

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"serotonyl.ru/airdrop-bot/internal/actions"
	"serotonyl.ru/airdrop-bot/internal/auth"
	"serotonyl.ru/airdrop-bot/internal/common"
	"serotonyl.ru/airdrop-bot/internal/features/admin"
)

func newInitCommand(opts *RootOptions) *cobra.Command {
	var adminRaw string

	cmd := &cobra.Command{
		Use:   "init --admin <account>",
		Short: "Назначить администратора (один раз)",
		Long: `Назначить администратора аирдропа. Повторный вызов завершается ошибкой.
При ADMIN_INIT_REQUIRE_AUTH=true (по умолчанию) нужно подтвердить согласие
самого администратора: --as <account>.

Example:
  airdropctl init --admin tg:12345 --as tg:12345`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adminID, err := auth.ParsePrincipal(adminRaw)
			if err != nil {
				return fmt.Errorf("--admin: %w", err)
			}
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				if err := env.Services.Admin.Initialize(ctx, adminID); err != nil {
					return err
				}
				return opts.printResult(cmd, map[string]string{"admin": adminID.String()}, func() string {
					return fmt.Sprintf("Администратор назначен: %s", adminID)
				})
			})
		},
	}

	cmd.Flags().StringVar(&adminRaw, "admin", "", "аккаунт администратора")
	_ = cmd.MarkFlagRequired("admin")

	return cmd
}

// rewardsFile — формат файла для set-config.
//
//	token: ZI
//	rewards:
//	  spin_cube: 20_000_000
//	  change_theme: 0
type rewardsFile struct {
	Token   string            `yaml:"token"`
	Rewards map[string]string `yaml:"rewards"`
}

// loadRewardsFile читает YAML с токеном и наградами.
func loadRewardsFile(path string) (admin.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return admin.Config{}, err
	}
	var file rewardsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return admin.Config{}, fmt.Errorf("ошибка разбора %s: %w", path, err)
	}

	cfg := admin.Config{Token: file.Token, Rewards: make(map[actions.Action]*big.Int, len(file.Rewards))}
	for name, value := range file.Rewards {
		a, err := actions.ParseName(name)
		if err != nil {
			return admin.Config{}, err
		}
		amount, err := common.ParseAmount(value)
		if err != nil {
			return admin.Config{}, fmt.Errorf("награда %s: %w", name, err)
		}
		cfg.Rewards[a] = amount
	}
	return cfg, nil
}

func newSetConfigCommand(opts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "set-config --file <rewards.yaml>",
		Short: "Задать токен и награды из YAML-файла",
		Long: `Задать токен и награды из YAML-файла. Награды, не упомянутые в файле,
остаются как были; 0 снимает награду. Требует --as <администратор>.

Example:
  airdropctl set-config --file rewards.yaml --as tg:12345`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRewardsFile(file)
			if err != nil {
				return err
			}
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				if err := env.Services.Admin.SetConfig(ctx, cfg); err != nil {
					return err
				}
				return showConfig(ctx, cmd, opts, env)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML-файл с токеном и наградами")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newSetRewardCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "set-reward <action> <amount>",
		Short:   "Задать награду за действие (0 — снять)",
		Example: `  airdropctl set-reward spin_cube 20_000_000 --as tg:12345`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := actions.ParseName(args[0])
			if err != nil {
				return err
			}
			amount, err := common.ParseAmount(args[1])
			if err != nil {
				return err
			}
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				if err := env.Services.Admin.SetRewardAmount(ctx, a, amount); err != nil {
					return err
				}
				return printReward(cmd, opts, a, amount)
			})
		},
	}
}

func newRewardCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reward <action>",
		Short: "Показать награду за действие",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := actions.ParseName(args[0])
			if err != nil {
				return err
			}
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				amount, err := env.Services.Admin.GetRewardAmount(ctx, a)
				if err != nil {
					return err
				}
				return printReward(cmd, opts, a, amount)
			})
		},
	}
}

func newConfigCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Показать администратора, токен и награды",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				return showConfig(ctx, cmd, opts, env)
			})
		},
	}
}

type configView struct {
	Admin   string            `json:"admin"`
	Token   string            `json:"token"`
	Rewards map[string]string `json:"rewards"`
}

func showConfig(ctx context.Context, cmd *cobra.Command, opts *RootOptions, env *Env) error {
	adminID, err := env.Services.Admin.Admin(ctx)
	if err != nil {
		return err
	}
	cfg, err := env.Services.Admin.Config(ctx)
	if err != nil {
		return err
	}

	view := configView{Admin: adminID.String(), Token: cfg.Token, Rewards: make(map[string]string)}
	for a, amount := range cfg.Rewards {
		view.Rewards[a.String()] = amount.String()
	}
	return opts.printResult(cmd, view, func() string {
		return fmt.Sprintf("Администратор: %s\n%s", adminID, admin.FormatConfig(cfg, env.Config.AirdropTokenSymbol))
	})
}

func printReward(cmd *cobra.Command, opts *RootOptions, a actions.Action, amount *big.Int) error {
	view := map[string]string{"action": a.String(), "amount": amount.String()}
	return opts.printResult(cmd, view, func() string {
		return fmt.Sprintf("%s (%d): %s", a.Title(), a.Code(), amount)
	})
}

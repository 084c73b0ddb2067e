// Package servecmder provides the serve command with subcommands for running services.
package servecmder

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docent/cmd/docent/bootstrap"
	apicmder "github.com/papercomputeco/docent/cmd/docent/serve/api"
	telegramcmder "github.com/papercomputeco/docent/cmd/docent/serve/telegram"
	"github.com/papercomputeco/docent/pkg/config"
)

type serveCommander struct {
	factory  bootstrap.Factory
	telegram bool
}

const serveLongDesc string = `Run docent services.

Use subcommands to run individual services or all services together:
  docent serve             Run the API server
  docent serve --telegram  Run the API server and the Telegram bot together
  docent serve api         Run just the API server
  docent serve telegram    Run just the Telegram bot`

const serveShortDesc string = "Run docent services"

func NewServeCmd() *cobra.Command {
	return newServeCmd(bootstrap.DefaultFactory)
}

func newServeCmd(factory bootstrap.Factory) *cobra.Command {
	cmder := &serveCommander{factory: factory}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddCommonFlags(cmd)
	config.AddFlags(cmd, config.ServeFlags)
	cmd.Flags().BoolVar(&cmder.telegram, "telegram", false, "Also run the Telegram bot")

	cmd.AddCommand(apicmder.NewAPICmd())
	cmd.AddCommand(telegramcmder.NewTelegramCmd())

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	env, err := bootstrap.Load(cmd, config.CommonFlags, config.ServeFlags)
	if err != nil {
		return err
	}

	var token string
	if c.telegram {
		if token, err = telegramcmder.Token(env); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := c.factory(ctx, env)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := apicmder.Build(env, a)
	if err != nil {
		return err
	}
	defer svc.Close()

	if c.telegram {
		bot, err := telegramcmder.NewBotForApp(env, a, token)
		if err != nil {
			return err
		}
		go bot.Start(ctx)
	}

	return svc.Serve(ctx)
}

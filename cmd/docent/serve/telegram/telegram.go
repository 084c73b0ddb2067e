// Package telegramcmder provides the serve telegram command and the Telegram
// bot front end it runs.
package telegramcmder

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docent/cmd/docent/bootstrap"
	"github.com/papercomputeco/docent/pkg/app"
	"github.com/papercomputeco/docent/pkg/config"
)

type telegramCommander struct {
	factory bootstrap.Factory
}

const telegramLongDesc string = `Run the Telegram bot on its own.

Every chat is a session. Plain messages are answered from the ingested
documents, /web <question> searches the web and /help prints usage.

The bot token is read from credentials.toml (docent auth telegram) or the
TELEGRAM_BOT_TOKEN environment variable.`

const telegramShortDesc string = "Run the Telegram bot"

func NewTelegramCmd() *cobra.Command {
	return newTelegramCmd(bootstrap.DefaultFactory)
}

func newTelegramCmd(factory bootstrap.Factory) *cobra.Command {
	cmder := &telegramCommander{factory: factory}

	cmd := &cobra.Command{
		Use:   "telegram",
		Short: telegramShortDesc,
		Long:  telegramLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddCommonFlags(cmd)

	return cmd
}

func (c *telegramCommander) run(cmd *cobra.Command) error {
	env, err := bootstrap.Load(cmd, config.CommonFlags)
	if err != nil {
		return err
	}

	// fail on a missing token before any model or store is opened
	token, err := Token(env)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := c.factory(ctx, env)
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := NewBotForApp(env, a, token)
	if err != nil {
		return err
	}

	b.Start(ctx)
	env.Logger.Info("telegram bot stopped")
	return nil
}

// Token resolves the bot token from the credentials store or environment.
func Token(env *bootstrap.Env) (string, error) {
	token, err := env.Keys.Resolve("telegram")
	if err != nil {
		return "", fmt.Errorf("resolving telegram token: %w", err)
	}
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// NewBotForApp builds a bot answering through the app's pipeline.
func NewBotForApp(env *bootstrap.Env, a *app.App, token string) (*Bot, error) {
	return NewBot(BotConfig{
		Token:  token,
		Asker:  a.Pipeline,
		Logger: env.Logger,
	})
}

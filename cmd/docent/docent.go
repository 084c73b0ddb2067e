// Package docentcmder is the root docent command.
package docentcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/docent/cmd/docent/ask"
	authcmder "github.com/papercomputeco/docent/cmd/docent/auth"
	"github.com/papercomputeco/docent/cmd/docent/bootstrap"
	chatcmder "github.com/papercomputeco/docent/cmd/docent/chat"
	configcmder "github.com/papercomputeco/docent/cmd/docent/config"
	exportcmder "github.com/papercomputeco/docent/cmd/docent/export"
	ingestcmder "github.com/papercomputeco/docent/cmd/docent/ingest"
	initcmder "github.com/papercomputeco/docent/cmd/docent/init"
	searchcmder "github.com/papercomputeco/docent/cmd/docent/search"
	servecmder "github.com/papercomputeco/docent/cmd/docent/serve"
	watchcmder "github.com/papercomputeco/docent/cmd/docent/watch"
	versioncmder "github.com/papercomputeco/docent/cmd/version"
)

const docentLongDesc string = `Docent answers questions about your documents.

Ingest documents, then ask about them:
  docent ingest ./handbook
  docent ask "What is the refund policy?"
  docent chat

Run services using:
  docent serve             Run the API server (add --telegram for the bot)
  docent serve api         Run just the API server
  docent serve telegram    Run just the Telegram bot`

const docentShortDesc string = "Docent - document question answering"

func NewDocentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "docent",
		Short:         docentShortDesc,
		Long:          docentLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	bootstrap.AddPersistentFlags(cmd)

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(exportcmder.NewExportCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

// Package configcmder provides the config command for managing persistent
// docent configuration stored in the .docent/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent docent configuration.

Configuration is stored as config.toml in the .docent/ directory and provides
default values for command flags. DOCENT_* environment variables override the
file, and CLI flags override both.

Keys use dotted notation matching the TOML section structure, for example
llm.model, embedding.dimensions, retrieval.top_k or websearch.provider.

Use subcommands to get, set, or list configuration values:
  docent config set <key> <value>    Set a configuration value
  docent config get <key>            Get a configuration value
  docent config list                 List all configuration values

Examples:
  docent config set llm.provider openai
  docent config set retrieval.score_threshold 0.25
  docent config get vector_store.provider
  docent config list`

const configShortDesc string = "Manage persistent docent configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

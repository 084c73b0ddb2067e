// Package versioncmder provides the version command.
package versioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docent/pkg/cliui"
	"github.com/papercomputeco/docent/pkg/utils"
)

// Info is the build metadata of the binary.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Sha       string `json:"sha" yaml:"sha"`
	Buildtime string `json:"built_at" yaml:"built_at"`
}

// Current returns the metadata stamped into the binary at build time.
func Current() Info {
	return Info{Version: utils.Version, Sha: utils.Sha, Buildtime: utils.Buildtime}
}

func NewVersionCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version, commit and build time of this CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cliui.ParseOutput(output)
			if err != nil {
				return err
			}

			info := Current()
			w := cmd.OutOrStdout()
			if format != cliui.OutputPretty {
				return cliui.Encode(w, format, info)
			}

			fmt.Fprintf(w, "Version: %s\nSha: %s\nBuilt at: %s\n", info.Version, info.Sha, info.Buildtime)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format (pretty, json, yaml)")

	return cmd
}

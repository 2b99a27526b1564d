package cmd

import (
	"github.com/brogergvhs/noveld/internal/config"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured sources and the strategy serving each",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Options{})
		if err != nil {
			return err
		}
		if err := a.withSources(); err != nil {
			return err
		}

		return writeJSON(cmd.OutOrStdout(), a.registry.Describe())
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the noveld version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeJSON(cmd.OutOrStdout(), map[string]string{
			"version": Version,
			"go":      runtime.Version(),
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

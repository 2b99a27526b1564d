package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/brogergvhs/noveld/internal/config"

	"github.com/spf13/cobra"
)

// Profile commands talk to the user on stderr and print one JSON document
// on stdout like every other command.

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the settings profiles of noveld",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, used, err := config.LoadMerged(config.Options{
			IgnoreConfig: flagIgnoreConfig,
			Debug:        flagDebug,
			DownloadsDir: flagDownloadsDir,
			SourcesFile:  flagConfig,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Loaded config from:\n  %s\n\n", used)
		cfg.Print(os.Stderr)

		return writeJSON(cmd.OutOrStdout(), map[string]string{"config": used})
	},
}

func confirm(in io.Reader, prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)

	resp, _ := bufio.NewReader(in).ReadString('\n')
	resp = strings.TrimSpace(strings.ToLower(resp))

	return resp == "y" || resp == "yes"
}

type profileResult struct {
	Label  string `json:"label,omitempty"`
	Path   string `json:"path,omitempty"`
	Action string `json:"action"`
	OK     bool   `json:"ok"`
}

func init() {
	var yes bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the Default config and make it active",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprintln(os.Stderr, "Default configuration:")
				config.DefaultConfig().Print(os.Stderr)
				if !confirm(cmd.InOrStdin(), "\nCreate Default config? [y/N]: ") {
					return writeJSON(cmd.OutOrStdout(), profileResult{Action: "init"})
				}
			}

			path, err := config.InitDefaultConfig()
			if errors.Is(err, os.ErrExist) {
				fmt.Fprintf(os.Stderr, "Configuration already exists at %s, use `noveld config reset` to recreate it.\n", path)
				return writeJSON(cmd.OutOrStdout(), profileResult{Label: "Default", Path: path, Action: "init", OK: true})
			}
			if err != nil {
				return fmt.Errorf("failed to create the Default config: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Config created at %s and is now active.\n", path)
			return writeJSON(cmd.OutOrStdout(), profileResult{Label: "Default", Path: path, Action: "init", OK: true})
		},
	}
	initCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the active config to default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ActiveConfigPath()
			if err != nil {
				return err
			}

			if err := config.SaveYAML(config.DefaultConfig(), path); err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), profileResult{Path: path, Action: "reset", OK: true})
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit [label]",
		Short: "Open the active or the given config in $EDITOR",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, err := labelOrActive(args)
			if err != nil {
				return err
			}

			path, err := config.ConfigPathByLabel(label)
			if err != nil {
				return fmt.Errorf("failed to get config path: %w", err)
			}

			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = "nvim"
			}

			run := exec.CommandContext(cmd.Context(), editor, path)
			run.Stdin = os.Stdin
			run.Stdout = os.Stderr
			run.Stderr = os.Stderr
			if err := run.Run(); err != nil {
				return fmt.Errorf("failed to open editor: %w", err)
			}

			return writeJSON(cmd.OutOrStdout(), profileResult{Label: label, Path: path, Action: "edit", OK: true})
		},
	}

	configCmd.AddCommand(initCmd, resetCmd, editCmd)
	rootCmd.AddCommand(configCmd)
}

func labelOrActive(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	label, err := config.CurrentLabel()
	if err != nil {
		return "", fmt.Errorf("failed to get current config label: %w", err)
	}

	return label, nil
}

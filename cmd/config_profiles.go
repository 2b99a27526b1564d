package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/brogergvhs/noveld/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

type profileInfo struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	Active bool   `json:"active"`
}

// stderrCloser hands promptui a terminal it may close without closing stderr.
type stderrCloser struct{}

func (stderrCloser) Write(p []byte) (int, error) { return os.Stderr.Write(p) }
func (stderrCloser) Close() error                { return nil }

func init() {
	addCmd := &cobra.Command{
		Use:   "add [label]",
		Short: "Create a new config filled with defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var label string
			if len(args) == 1 {
				label = args[0]
			} else {
				fmt.Fprint(os.Stderr, "Enter label for new config: ")
				label, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			}

			label = strings.TrimSpace(label)
			if label == "" {
				return errors.New("label cannot be empty")
			}

			path, err := config.CreateConfig(label)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Created new config: %s\n", path)
			return writeJSON(cmd.OutOrStdout(), profileResult{Label: label, Path: path, Action: "add", OK: true})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all available configs",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := config.ListConfigs()
			if err != nil {
				return fmt.Errorf("cannot read configs directory: %w", err)
			}

			out := make([]profileInfo, 0, len(list))
			for _, c := range list {
				out = append(out, profileInfo{Label: c.Label, Path: c.Path, Active: c.Active})
			}

			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	switchCmd := &cobra.Command{
		Use:   "switch [label]",
		Short: "Switch to a different configuration profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var label string

			if len(args) == 1 {
				label = args[0]
			} else {
				list, err := config.ListConfigs()
				if err != nil {
					return err
				}
				if len(list) == 0 {
					return errors.New("no configs available")
				}

				items := make([]string, 0, len(list))
				for _, c := range list {
					if c.Active {
						items = append(items, c.Label+"  (active)")
					} else {
						items = append(items, c.Label)
					}
				}

				prompt := promptui.Select{
					Label:  "Select config",
					Items:  items,
					Stdout: stderrCloser{},
				}

				idx, _, err := prompt.Run()
				if err != nil {
					return errors.New("selection cancelled")
				}

				label = list[idx].Label
			}

			if err := config.SwitchConfig(label); err != nil {
				return err
			}

			fmt.Fprintln(os.Stderr, "Switched to:", label)
			return writeJSON(cmd.OutOrStdout(), profileResult{Label: label, Action: "switch", OK: true})
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <old_label> <new_label>",
		Short: "Rename an existing labeled config",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.RenameConfig(args[0], args[1]); err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Renamed config %q to %q\n", args[0], args[1])
			return writeJSON(cmd.OutOrStdout(), profileResult{Label: args[1], Action: "rename", OK: true})
		},
	}

	var force bool

	removeCmd := &cobra.Command{
		Use:   "remove <label>",
		Short: "Remove a config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := args[0]

			if active, _ := config.CurrentLabel(); label == active && !force {
				prompt := fmt.Sprintf("Config %q is currently active. Remove it anyway? [y/N]: ", label)
				if !confirm(cmd.InOrStdin(), prompt) {
					return writeJSON(cmd.OutOrStdout(), profileResult{Label: label, Action: "remove"})
				}
			}

			if err := config.RemoveConfig(label); err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Removed configuration %q\n", label)
			return writeJSON(cmd.OutOrStdout(), profileResult{Label: label, Action: "remove", OK: true})
		},
	}
	removeCmd.Flags().BoolVarP(&force, "force", "f", false, "remove the active config without asking")

	configCmd.AddCommand(addCmd, listCmd, switchCmd, renameCmd, removeCmd)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/state"

	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect downloads and send pause, resume, cancel or stop requests",
}

type stateAction struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	OK     bool   `json:"ok"`
}

func storeFromFlags() (*state.Store, error) {
	a, err := newApp(config.Options{})
	if err != nil {
		return nil, err
	}

	return a.store, nil
}

// warnFinished notes requests sent to a run that already ended.
func warnFinished(store *state.Store, id string) {
	if st, err := store.Read(id); err == nil && st.Status.Terminal() {
		fmt.Fprintf(os.Stderr, "download %s already finished (%s)\n", id, st.Status)
	}
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every download, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFromFlags()
			if err != nil {
				return err
			}

			list, err := store.List()
			if err != nil {
				return err
			}
			if list == nil {
				list = []state.State{}
			}

			return writeJSON(cmd.OutOrStdout(), list)
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFromFlags()
			if err != nil {
				return err
			}

			st, err := store.Read(args[0])
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), st)
		},
	}

	stateCmd.AddCommand(listCmd, getCmd)

	actions := []struct {
		name   string
		short  string
		signal bool
		run    func(*state.Store, string) error
	}{
		{"pause", "Pause a download before its next chapter", true, (*state.Store).RequestPause},
		{"resume", "Resume a paused download", true, (*state.Store).RequestResume},
		{"cancel", "Cancel a download before its next chapter", true, (*state.Store).RequestCancel},
		{"stop", "Stop a download before its next chapter", true, (*state.Store).RequestStop},
		{"clear", "Remove every pending request of a download", false, (*state.Store).Clear},
		{"delete", "Remove the state and requests of a download", false, (*state.Store).Delete},
	}

	for _, act := range actions {
		stateCmd.AddCommand(&cobra.Command{
			Use:   act.name + " <id>",
			Short: act.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := storeFromFlags()
				if err != nil {
					return err
				}

				if act.signal {
					warnFinished(store, args[0])
				}
				if err := act.run(store, args[0]); err != nil {
					return err
				}

				return writeJSON(cmd.OutOrStdout(), stateAction{ID: args[0], Action: act.name, OK: true})
			},
		})
	}

	rootCmd.AddCommand(stateCmd)
}

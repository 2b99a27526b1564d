package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/brogergvhs/noveld/internal/ui"
	"github.com/brogergvhs/noveld/internal/util"

	"github.com/spf13/cobra"
)

var (
	flagConfig       string
	flagDownloadsDir string
	flagIgnoreConfig bool
	flagDebug        bool
	flagProgressBar  bool
)

var rootCmd = &cobra.Command{
	Use:           "noveld",
	Short:         "Novel and manga downloader for the reader library",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "sources JSON file (default sources.json)")
	rootCmd.PersistentFlags().StringVar(&flagDownloadsDir, "downloads-dir", "", "directory of download state and control files")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")
	rootCmd.PersistentFlags().BoolVar(&flagProgressBar, "progress-bar", false, "render a progress bar on stderr")
}

func Execute() {
	ctx, cancel := util.InterruptContext(context.Background(), func(s os.Signal) {
		fmt.Fprintf(os.Stderr, "received %s, stopping after the current chapter\n", s)
	})

	err := executeGuarded(ctx, rootCmd)
	cancel()

	if code := report(os.Stdout, err); code != 0 {
		os.Exit(code)
	}
}

// executeGuarded runs c and turns a panic anywhere below it into an error.
func executeGuarded(ctx context.Context, c *cobra.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ui.NewLogger(flagDebug).Errorf("panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	return c.ExecuteContext(ctx)
}

// report writes the error document unless one is already out and returns
// the exit status.
func report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	var reported *reportedError
	if !errors.As(err, &reported) {
		_ = writeJSON(w, errorDoc{Error: err.Error()})
	}

	return 1
}

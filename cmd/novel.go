package cmd

import (
	"errors"
	"time"

	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/downloader"
	"github.com/brogergvhs/noveld/internal/library"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/state"
	"github.com/brogergvhs/noveld/internal/util"

	"github.com/spf13/cobra"
)

var errNoBook = errors.New("either --url or --name (with --source) required")

type bookFlags struct {
	url    string
	name   string
	source string
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "url", "", "novel URL")
	cmd.Flags().StringVar(&f.name, "name", "", "novel name, converted to a URL by the source")
	cmd.Flags().StringVar(&f.source, "source", "", "source name from the sources file")
}

// resolve returns the source and the book URL named by the flags.
func (f *bookFlags) resolve(a *app) (config.Source, providers.NovelStrategy, string, error) {
	if f.source == "" || (f.url == "" && f.name == "") {
		return config.Source{}, nil, "", errNoBook
	}

	src, strategy, err := a.registry.Novel(f.source)
	if err != nil {
		return config.Source{}, nil, "", err
	}

	if f.url != "" {
		return src, strategy, f.url, nil
	}

	return src, strategy, strategy.BookURL(f.name), nil
}

func init() {
	var query, source string

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search novels on one or every enabled source",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if query == "" {
				_ = writeJSON(out, []providers.SearchResult{})
				return &reportedError{err: errors.New("missing --query")}
			}

			a, err := newApp(config.Options{})
			if err != nil {
				return err
			}
			if err := a.withSources(); err != nil {
				return err
			}

			names := []string{source}
			if source == "" {
				names = names[:0]
				for _, s := range a.registry.Describe() {
					if s.Enabled && s.Novels {
						names = append(names, s.Name)
					}
				}
			}

			results := []providers.SearchResult{}
			for _, name := range names {
				src, strategy, err := a.registry.Novel(name)
				if err != nil {
					return err
				}

				found, err := a.scraper(src, strategy).Search(cmd.Context(), query)
				if err != nil {
					if source != "" {
						return err
					}
					a.log.Warnf("search %s: %v", name, err)
					continue
				}
				results = append(results, found...)
			}

			return writeJSON(out, results)
		},
	}
	searchCmd.Flags().StringVar(&query, "query", "", "search query")
	searchCmd.Flags().StringVar(&source, "source", "", "limit the search to one source")

	rootCmd.AddCommand(searchCmd)
}

func init() {
	var book bookFlags

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show the metadata of a novel",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(config.Options{})
			if err != nil {
				return err
			}
			if err := a.withSources(); err != nil {
				return err
			}

			src, strategy, bookURL, err := book.resolve(a)
			if err != nil {
				return err
			}

			info, err := a.scraper(src, strategy).Info(cmd.Context(), bookURL)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), info)
		},
	}
	book.register(infoCmd)

	rootCmd.AddCommand(infoCmd)
}

func init() {
	var (
		book   bookFlags
		output string
		start  int
		end    int
		id     string
	)

	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download a novel chapter range into the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id != "" {
				if err := state.CheckID(id); err != nil {
					return err
				}
			}

			a, err := newApp(config.Options{NovelOutput: output})
			if err != nil {
				return err
			}
			if id != "" {
				a.clearStop(id)
			}
			if err := a.withSources(); err != nil {
				return err
			}

			src, strategy, bookURL, err := book.resolve(a)
			if err != nil {
				return err
			}

			scr := a.scraper(src, strategy)
			a.log.Infof("getting novel information from %s", bookURL)

			info, err := scr.Info(cmd.Context(), bookURL)
			if err != nil {
				if id != "" {
					_ = a.store.Write(&state.State{ID: id, ContentType: "novel", Status: state.Failed, LastError: err.Error()})
				}
				return err
			}

			if id == "" {
				id = state.GenerateID("novel", info.Title, time.Now())
			}

			chaptersDir := library.ChaptersDir(library.NovelDir(a.cfg.NovelOutput, info.Title))
			if n := util.CleanupTempFiles(chaptersDir); n > 0 {
				a.log.Infof("removed %d unfinished chapter files", n)
			}

			o := a.orchestrator()
			res, err := o.DownloadNovel(cmd.Context(), downloader.NovelJob{
				ID:      id,
				Info:    info,
				Fetcher: scr,
				Output:  a.cfg.NovelOutput,
				Start:   start,
				End:     end,
			})

			return a.finishRun(cmd.OutOrStdout(), o, res, err)
		},
	}
	book.register(downloadCmd)
	downloadCmd.Flags().StringVar(&output, "output", "", "library directory (default Novels)")
	downloadCmd.Flags().IntVar(&start, "start", 1, "first chapter")
	downloadCmd.Flags().IntVar(&end, "end", -1, "last chapter, -1 for all")
	downloadCmd.Flags().StringVar(&id, "download-id", "", "id of the state and control files")

	rootCmd.AddCommand(downloadCmd)
}

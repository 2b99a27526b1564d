package cmd

import (
	"errors"
	"time"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/downloader"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/state"

	"github.com/spf13/cobra"
)

const defaultMangaSource = "MangaDex"

var mangaCmd = &cobra.Command{
	Use:   "manga",
	Short: "Search and download manga, manhwa and manhua",
}

func init() {
	rootCmd.AddCommand(mangaCmd)
}

func mangaApp(o config.Options, source string) (*app, providers.MangaSource, error) {
	a, err := newApp(o)
	if err != nil {
		return nil, nil, err
	}
	if err := a.withSources(); err != nil {
		return nil, nil, err
	}

	_, src, err := a.registry.Manga(source)
	if err != nil {
		return nil, nil, err
	}

	return a, src, nil
}

func init() {
	var query, source string

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search a manga source",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				_ = writeJSON(cmd.OutOrStdout(), []providers.MangaInfo{})
				return &reportedError{err: errors.New("missing --query")}
			}

			_, src, err := mangaApp(config.Options{}, source)
			if err != nil {
				return err
			}

			found, err := src.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			if found == nil {
				found = []providers.MangaInfo{}
			}

			return writeJSON(cmd.OutOrStdout(), found)
		},
	}
	searchCmd.Flags().StringVar(&query, "query", "", "search query")
	searchCmd.Flags().StringVar(&source, "source", defaultMangaSource, "source name")

	mangaCmd.AddCommand(searchCmd)
}

type mangaDetails struct {
	providers.MangaInfo
	Chapters []providers.MangaChapter `json:"chapters"`
}

func init() {
	var id, source string

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show a manga and its chapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return errors.New("missing --id")
			}

			_, src, err := mangaApp(config.Options{}, source)
			if err != nil {
				return err
			}

			info, err := src.Info(cmd.Context(), id)
			if err != nil {
				return err
			}
			list, err := src.Chapters(cmd.Context(), id)
			if err != nil {
				return err
			}
			if list == nil {
				list = []providers.MangaChapter{}
			}

			return writeJSON(cmd.OutOrStdout(), mangaDetails{MangaInfo: info, Chapters: list})
		},
	}
	infoCmd.Flags().StringVar(&id, "id", "", "manga id or series URL")
	infoCmd.Flags().StringVar(&source, "source", defaultMangaSource, "source name")

	mangaCmd.AddCommand(infoCmd)
}

func init() {
	var (
		id, source, output string
		selection, lang    string
		start, end         int
		downloadID         string
	)

	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download manga chapters as page images",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return errors.New("missing --id")
			}

			var only []int
			if selection != "" {
				var err error
				if only, err = chapters.ParseSelection(selection); err != nil {
					return err
				}
			}

			if downloadID != "" {
				if err := state.CheckID(downloadID); err != nil {
					return err
				}
			}

			a, src, err := mangaApp(config.Options{MangaOutput: output, Language: lang}, source)
			if err != nil {
				return err
			}

			if downloadID == "" {
				downloadID = state.GenerateID("manga", id, time.Now())
			} else {
				a.clearStop(downloadID)
			}

			o := a.orchestrator()
			res, err := o.DownloadManga(cmd.Context(), downloader.MangaJob{
				ID:       downloadID,
				Source:   src,
				MangaID:  id,
				Output:   a.cfg.MangaOutput,
				Start:    start,
				End:      end,
				Only:     only,
				Language: a.cfg.Language,
			})

			return a.finishRun(cmd.OutOrStdout(), o, res, err)
		},
	}
	downloadCmd.Flags().StringVar(&id, "id", "", "manga id or series URL")
	downloadCmd.Flags().StringVar(&source, "source", defaultMangaSource, "source name")
	downloadCmd.Flags().StringVar(&output, "output", "", "library directory (default Manga)")
	downloadCmd.Flags().IntVar(&start, "start", 1, "first chapter")
	downloadCmd.Flags().IntVar(&end, "end", -1, "last chapter, -1 for all")
	downloadCmd.Flags().StringVar(&selection, "chapters", "", "only these chapters, e.g. 1,3,10-12")
	downloadCmd.Flags().StringVar(&lang, "language", "", "preferred translation language (default en)")
	downloadCmd.Flags().StringVar(&downloadID, "download-id", "", "id of the state and control files")

	mangaCmd.AddCommand(downloadCmd)
}

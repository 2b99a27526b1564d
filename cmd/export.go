package cmd

import (
	"errors"

	"github.com/brogergvhs/noveld/internal/export"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Pack downloaded chapters into EPUB or CBZ files",
}

type exportResult struct {
	Files []string `json:"files"`
}

func init() {
	var novelDir, mangaDir, out string

	epubCmd := &cobra.Command{
		Use:   "epub",
		Short: "Write a novel or manga directory as one EPUB",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				path string
				err  error
			)
			switch {
			case novelDir != "":
				path, err = export.NovelEPUB(novelDir, out)
			case mangaDir != "":
				path, err = export.MangaEPUB(mangaDir, out)
			default:
				return errors.New("either --novel-dir or --manga-dir required")
			}
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), exportResult{Files: []string{path}})
		},
	}
	epubCmd.Flags().StringVar(&novelDir, "novel-dir", "", "novel directory holding chapters/")
	epubCmd.Flags().StringVar(&mangaDir, "manga-dir", "", "manga directory holding Chapter_NNN dirs")
	epubCmd.Flags().StringVar(&out, "out", "", "output file (default <dir>.epub)")
	epubCmd.MarkFlagsMutuallyExclusive("novel-dir", "manga-dir")

	var chapterDir, cbzMangaDir, cbzOut string

	cbzCmd := &cobra.Command{
		Use:   "cbz",
		Short: "Write one manga chapter, or every complete chapter, as CBZ",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case chapterDir != "":
				path, err := export.ChapterCBZ(chapterDir, cbzOut)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), exportResult{Files: []string{path}})

			case cbzMangaDir != "":
				files, err := export.MangaCBZ(cbzMangaDir, cbzOut)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), exportResult{Files: files})
			}

			return errors.New("either --chapter-dir or --manga-dir required")
		},
	}
	cbzCmd.Flags().StringVar(&chapterDir, "chapter-dir", "", "Chapter_NNN directory")
	cbzCmd.Flags().StringVar(&cbzMangaDir, "manga-dir", "", "manga directory, one archive per complete chapter")
	cbzCmd.Flags().StringVar(&cbzOut, "out", "", "output file, or output dir with --manga-dir")
	cbzCmd.MarkFlagsMutuallyExclusive("chapter-dir", "manga-dir")

	exportCmd.AddCommand(epubCmd, cbzCmd)
	rootCmd.AddCommand(exportCmd)
}

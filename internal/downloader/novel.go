package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/library"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/state"
)

// ChapterFetcher returns one cleaned chapter of a book.
type ChapterFetcher interface {
	Chapter(ctx context.Context, bookURL string, n int) (library.ChapterRecord, error)
}

type NovelJob struct {
	ID      string
	Info    providers.ContentInfo
	Fetcher ChapterFetcher
	Output  string
	Start   int
	End     int
}

// DownloadNovel writes chapters Start..End of a novel below Output. Chapters
// already on disk are skipped without a fetch.
func (o *Orchestrator) DownloadNovel(ctx context.Context, job NovelJob) (res Result, err error) {
	st := &state.State{
		ID:            job.ID,
		ContentName:   job.Info.Title,
		ContentType:   "novel",
		TotalChapters: job.Info.TotalChapters,
		Status:        state.Starting,
	}
	res = Result{ID: job.ID, Start: job.Start, End: job.End}
	defer o.guard(st, &res, &err)

	o.write(st)

	if job.Info.Title == "" {
		return res, o.fail(st, &res, ErrNoTitle)
	}

	rng, err := chapters.Resolve(job.Start, job.End, job.Info.TotalChapters)
	if err != nil {
		return res, o.fail(st, &res, err)
	}
	res.Start, res.End = rng.Start, rng.End
	st.TotalChapters = rng.End

	novelDir := library.NovelDir(job.Output, job.Info.Title)
	chaptersDir := library.ChaptersDir(novelDir)
	if err := os.MkdirAll(chaptersDir, 0o755); err != nil {
		return res, o.fail(st, &res, fmt.Errorf("failed to create %s: %w", chaptersDir, err))
	}
	res.OutputDir = novelDir
	o.log.Infof("created directory: %s", novelDir)

	coverPath := filepath.Join(novelDir, library.CoverFile)
	if job.Info.CoverURL != "" {
		if _, err := o.fetchImage(ctx, job.Info.CoverURL, coverPath, job.Info.URL); err != nil {
			o.log.Warnf("cover: %v", err)
		}
	}

	o.upsert(job, coverPath, chaptersDir)

	o.log.Infof("downloading chapters %d to %d", rng.Start, rng.End)
	o.reporter.Start(job.Info.Title, rng.End)

	successes := 0
	for n := rng.Start; n <= rng.End; n++ {
		if o.control(ctx, st) {
			return res, o.finish(ctx, st, &res, state.Stopped)
		}

		done := n - rng.Start + 1

		if library.HasChapter(chaptersDir, n) {
			o.log.Debugf("chapter %d already exists, skipping", n)
			res.Skipped++
			o.stats.Skipped.Add(1)
			o.tick(st, n, done, rng.Len(), rng.End, fmt.Sprintf("Chapter %d", n))
			continue
		}

		rec, err := job.Fetcher.Chapter(ctx, job.Info.URL, n)
		if err == nil {
			err = library.WriteChapter(chaptersDir, rec)
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			o.log.Warnf("chapter %d: %v", n, err)
			res.Failed++
			o.stats.Failed.Add(1)
			st.LastError = fmt.Sprintf("chapter %d: %v", n, err)
			o.tick(st, n, done, rng.Len(), rng.End, fmt.Sprintf("Chapter %d (failed)", n))
			continue
		}

		res.Downloaded++
		successes++
		o.stats.Downloaded.Add(1)
		o.log.Infof("downloaded chapter %d: %s", n, rec.Title)
		o.tick(st, n, done, rng.Len(), rng.End, rec.Title)

		if n < rng.End {
			o.rateLimit(ctx, successes, o.set.NovelBatchDelay)
		}
	}

	if ctx.Err() != nil {
		return res, o.finish(ctx, st, &res, state.Stopped)
	}

	o.upsert(job, coverPath, chaptersDir)

	if res.Failed > 0 {
		return res, o.finish(ctx, st, &res, state.Partial)
	}

	return res, o.finish(ctx, st, &res, state.Complete)
}

func (o *Orchestrator) upsert(job NovelJob, coverPath, chaptersDir string) {
	err := library.UpsertNovel(job.Output, library.NovelEntry{
		Name:               job.Info.Title,
		AuthorName:         job.Info.Author,
		CoverPath:          coverPath,
		Synopsis:           job.Info.Description,
		TotalChapters:      job.Info.TotalChapters,
		DownloadedChapters: len(library.ChapterNumbers(chaptersDir)),
	})
	if err != nil {
		o.log.Warnf("%v", err)
	}
}

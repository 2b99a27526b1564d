package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/library"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/state"
	"github.com/brogergvhs/noveld/internal/util"
)

type MangaJob struct {
	ID      string
	Source  providers.MangaSource
	MangaID string
	Output  string
	Start   int
	End     int
	// Only restricts the run to these chapter numbers when set.
	Only     []int
	Language string
}

// DownloadManga writes the page images of the selected chapters below
// Output/<title>/Chapter_<NNN>. A chapter counts as done only when its
// metadata.json is written, which happens after every page succeeded.
func (o *Orchestrator) DownloadManga(ctx context.Context, job MangaJob) (res Result, err error) {
	st := &state.State{
		ID:          job.ID,
		ContentType: "manga",
		Status:      state.Starting,
	}
	res = Result{ID: job.ID, Start: job.Start, End: job.End}
	defer o.guard(st, &res, &err)

	o.write(st)

	lang := job.Language
	if lang == "" {
		lang = o.set.Language
	}

	info, err := job.Source.Info(ctx, job.MangaID)
	if err != nil {
		return res, o.fail(st, &res, fmt.Errorf("failed to load manga %s: %w", job.MangaID, err))
	}
	if info.Title == "" {
		return res, o.fail(st, &res, ErrNoTitle)
	}
	st.ContentName = info.Title

	list, err := job.Source.Chapters(ctx, job.MangaID)
	if err != nil {
		return res, o.fail(st, &res, fmt.Errorf("failed to list chapters: %w", err))
	}
	if len(list) == 0 {
		return res, o.fail(st, &res, ErrNoChapters)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Number < list[j].Number })

	rng, err := chapters.Resolve(job.Start, job.End, list[len(list)-1].Number)
	if err != nil {
		return res, o.fail(st, &res, err)
	}
	res.Start, res.End = rng.Start, rng.End

	selected := selectChapters(list, rng, job.Only)
	if len(selected) == 0 {
		return res, o.fail(st, &res, fmt.Errorf("%w in %d-%d", ErrNoChapters, rng.Start, rng.End))
	}
	st.TotalChapters = rng.End

	mangaDir := library.MangaDir(job.Output, info.Title)
	if err := os.MkdirAll(mangaDir, 0o755); err != nil {
		return res, o.fail(st, &res, fmt.Errorf("failed to create %s: %w", mangaDir, err))
	}
	res.OutputDir = mangaDir

	err = library.WriteSeries(mangaDir, library.Series{
		ID:          info.ID,
		Title:       info.Title,
		Author:      info.Author,
		Description: info.Description,
		CoverURL:    info.CoverURL,
		Source:      job.Source.Name(),
		URL:         info.URL,
	})
	if err != nil {
		o.log.Warnf("series: %v", err)
	}

	if info.CoverURL != "" {
		if _, err := o.fetchImage(ctx, info.CoverURL, filepath.Join(mangaDir, library.CoverFile), info.URL); err != nil {
			o.log.Warnf("cover: %v", err)
		}
	}

	o.log.Infof("downloading %d chapters of %s (%d to %d)", len(selected), info.Title, rng.Start, rng.End)
	o.reporter.Start(info.Title, rng.End)

	successes := 0
	for i, ch := range selected {
		if o.control(ctx, st) {
			return res, o.finish(ctx, st, &res, state.Stopped)
		}

		done := i + 1
		title := ch.Title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", ch.Number)
		}

		dir := library.MangaChapterDir(mangaDir, ch.Number)
		if library.ChapterComplete(dir) {
			o.log.Debugf("chapter %d already complete, skipping", ch.Number)
			res.Skipped++
			o.stats.Skipped.Add(1)
			o.tick(st, ch.Number, done, len(selected), rng.End, title)
			continue
		}

		if err := o.mangaChapter(ctx, job.Source, ch, dir, lang, info.URL); err != nil {
			if ctx.Err() != nil {
				continue
			}
			o.log.Warnf("chapter %d: %v", ch.Number, err)
			res.Failed++
			o.stats.Failed.Add(1)
			st.LastError = fmt.Sprintf("chapter %d: %v", ch.Number, err)
			o.tick(st, ch.Number, done, len(selected), rng.End, title+" (failed)")
			continue
		}

		res.Downloaded++
		successes++
		o.stats.Downloaded.Add(1)
		o.log.Infof("downloaded chapter %d: %s", ch.Number, title)
		o.tick(st, ch.Number, done, len(selected), rng.End, title)

		if i < len(selected)-1 {
			o.rateLimit(ctx, successes, o.set.MangaBatchDelay)
		}
	}

	if ctx.Err() != nil {
		return res, o.finish(ctx, st, &res, state.Stopped)
	}
	if res.Failed > 0 {
		return res, o.finish(ctx, st, &res, state.Partial)
	}

	return res, o.finish(ctx, st, &res, state.Complete)
}

func (o *Orchestrator) mangaChapter(ctx context.Context, src providers.MangaSource, ch providers.MangaChapter, dir, lang, referer string) error {
	p, ok := providers.BestProvider(ch.Providers, lang)
	if !ok {
		return fmt.Errorf("no provider for chapter %d", ch.Number)
	}

	pages, err := src.Pages(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no pages from %s", p.Name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	failed, err := o.downloadPages(ctx, pages, dir, referer)
	if err == nil && failed > 0 {
		err = fmt.Errorf("failed %d/%d pages", failed, len(pages))
	}
	if err != nil {
		util.RemoveIfEmpty(dir)
		return err
	}

	return library.WriteMetadata(dir, library.MangaMetadata{
		ChapterNumber: ch.Number,
		Title:         ch.Title,
		PageCount:     len(pages),
		Provider:      p.Name,
		Language:      p.Language,
	})
}

// selectChapters keeps chapters inside rng, and inside only when set.
// Entries sharing a number are merged so their providers compete.
func selectChapters(list []providers.MangaChapter, rng chapters.Range, only []int) []providers.MangaChapter {
	want := map[int]bool{}
	for _, n := range only {
		want[n] = true
	}

	index := map[int]int{}
	var out []providers.MangaChapter
	for _, ch := range list {
		if !rng.Contains(ch.Number) {
			continue
		}
		if len(want) > 0 && !want[ch.Number] {
			continue
		}
		if i, ok := index[ch.Number]; ok {
			out[i].Providers = append(out[i].Providers, ch.Providers...)
			continue
		}
		index[ch.Number] = len(out)
		ch.Providers = append([]providers.Provider(nil), ch.Providers...)
		out = append(out, ch)
	}

	return out
}

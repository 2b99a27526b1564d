package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/downloader"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/providers/registry"
	"github.com/brogergvhs/noveld/internal/scraper"
	"github.com/brogergvhs/noveld/internal/state"
	"github.com/brogergvhs/noveld/internal/ui"
	"github.com/brogergvhs/noveld/internal/util"
)

// app carries what a command needs, built once per invocation.
type app struct {
	cfg      *config.Config
	log      *ui.Logger
	store    *state.Store
	client   *http.Client
	registry *registry.Registry
}

// newApp merges the global flags with the command overrides into the active
// profile.
func newApp(o config.Options) (*app, error) {
	o.IgnoreConfig = flagIgnoreConfig
	o.Debug = o.Debug || flagDebug
	o.ProgressBar = o.ProgressBar || flagProgressBar
	if o.DownloadsDir == "" {
		o.DownloadsDir = flagDownloadsDir
	}
	if o.SourcesFile == "" {
		o.SourcesFile = flagConfig
	}

	cfg, used, err := config.LoadMerged(o)
	if err != nil {
		return nil, err
	}

	log := ui.NewLogger(cfg.Debug)
	log.Debugf("config: %s", used)

	return &app{
		cfg:   cfg,
		log:   log,
		store: state.NewStore(cfg.DownloadsDir),
	}, nil
}

// clearStop drops a stop request left from an earlier run of id. Pause and
// cancel requests made before the run starts must survive.
func (a *app) clearStop(id string) {
	if err := a.store.ClearStop(id); err != nil {
		a.log.Warnf("clear stop request of %s: %v", id, err)
	}
}

// withSources builds the HTTP client and resolves every configured source.
func (a *app) withSources() error {
	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:     a.cfg.Timeout,
		UserAgent:   util.PickUserAgent(a.cfg.UserAgent),
		Cookie:      a.cfg.Cookie,
		CookieFile:  a.cfg.CookieFile,
		DebugLogger: a.log.With("http"),
	})
	if err != nil {
		return err
	}

	sources, err := config.LoadSources(a.cfg.SourcesFile)
	if err != nil {
		return err
	}

	a.client = client
	a.registry = registry.New(sources, client, a.log, registry.Defaults{
		NovelChapters: a.cfg.DefaultNovelChapters,
		Chapters:      a.cfg.DefaultChapters,
	})

	return nil
}

func (a *app) scraper(src config.Source, strategy providers.NovelStrategy) *scraper.Scraper {
	return scraper.New(a.client, src, strategy, a.log.With(src.Name), scraper.Options{
		DefaultChapters:  a.registry.ChapterFallback(src),
		MinContentLength: a.cfg.MinContentLength,
	})
}

func (a *app) reporter() ui.Reporter {
	lines := ui.NewLineReporter(os.Stderr)
	if !a.cfg.ProgressBar {
		return lines
	}

	return ui.MultiReporter{lines, ui.NewBarReporter(os.Stderr)}
}

func (a *app) orchestrator() *downloader.Orchestrator {
	return downloader.New(a.client, a.store, a.reporter(), a.log.With("download"), downloader.SettingsFrom(a.cfg))
}

// finishRun prints the result and turns a failed run into exit status 1.
func (a *app) finishRun(w io.Writer, o *downloader.Orchestrator, res downloader.Result, err error) error {
	stats := o.Stats()
	a.log.Infof("summary: %d done (%d downloaded, %d skipped), %d failed, %d images, %s",
		stats.Successes(), stats.Downloaded.Load(), stats.Skipped.Load(), stats.Failed.Load(),
		stats.Images.Load(), util.Human(stats.Bytes.Load()))

	if werr := writeJSON(w, res); werr != nil {
		return werr
	}

	if err != nil {
		return &reportedError{err: err}
	}
	if res.Status == state.Failed {
		return &reportedError{err: fmt.Errorf("download %s failed", res.ID)}
	}

	return nil
}

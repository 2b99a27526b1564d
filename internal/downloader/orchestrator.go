// Package downloader runs chapter downloads: one unit at a time, honouring
// pause and cancel requests between units and publishing progress to the
// state store.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/state"
	"github.com/brogergvhs/noveld/internal/ui"
)

var (
	ErrNoTitle    = errors.New("could not extract title")
	ErrNoChapters = errors.New("no chapters to download")
)

type Settings struct {
	ChapterDelay    time.Duration
	BatchSize       int
	NovelBatchDelay time.Duration
	MangaBatchDelay time.Duration
	PausePoll       time.Duration
	ImageRetries    int
	ImageWorkers    int
	RetryBackoff    time.Duration
	ImageTimeout    time.Duration
	Language        string
}

func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		ChapterDelay:    cfg.ChapterDelay,
		BatchSize:       cfg.BatchSize,
		NovelBatchDelay: cfg.NovelBatchDelay,
		MangaBatchDelay: cfg.MangaBatchDelay,
		PausePoll:       cfg.PausePoll,
		ImageRetries:    cfg.ImageRetries,
		ImageWorkers:    cfg.ImageWorkers,
		RetryBackoff:    cfg.RetryBackoff,
		ImageTimeout:    cfg.Timeout,
		Language:        cfg.Language,
	}
}

// Result summarises one run.
type Result struct {
	ID         string       `json:"id"`
	Status     state.Status `json:"status"`
	Downloaded int          `json:"downloaded"`
	Skipped    int          `json:"skipped"`
	Failed     int          `json:"failed"`
	Start      int          `json:"start"`
	End        int          `json:"end"`
	OutputDir  string       `json:"output_dir"`
	Error      string       `json:"error,omitempty"`
}

type Orchestrator struct {
	client   *http.Client
	store    *state.Store
	reporter ui.Reporter
	log      *ui.Logger
	set      Settings
	stats    ui.Stats

	sleep func(ctx context.Context, d time.Duration) error
}

func New(c *http.Client, store *state.Store, reporter ui.Reporter, log *ui.Logger, set Settings) *Orchestrator {
	if set.PausePoll <= 0 {
		set.PausePoll = time.Second
	}
	if set.ImageRetries < 1 {
		set.ImageRetries = 1
	}
	if set.Language == "" {
		set.Language = "en"
	}

	return &Orchestrator{
		client:   c,
		store:    store,
		reporter: reporter,
		log:      log,
		set:      set,
		sleep:    sleepCtx,
	}
}

// Stats exposes the counters of every run of this orchestrator.
func (o *Orchestrator) Stats() *ui.Stats { return &o.stats }

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (o *Orchestrator) write(st *state.State) {
	if err := o.store.Write(st); err != nil {
		o.log.Warnf("state: %v", err)
	}
}

// control handles pending requests before a unit and reports whether the
// run must stop. A pause blocks until the sentinel is removed, a cancel or
// stop arrives, or ctx is done.
func (o *Orchestrator) control(ctx context.Context, st *state.State) bool {
	for {
		if ctx.Err() != nil {
			return true
		}

		switch o.store.Signal(st.ID) {
		case state.Cancel:
			o.log.Infof("cancel requested for %s", st.ID)
			return true

		case state.Pause:
			if st.Status != state.Paused {
				o.log.Infof("paused %s", st.ID)
				st.Status = state.Paused
				o.write(st)
			}
			if o.sleep(ctx, o.set.PausePoll) != nil {
				return true
			}

		default:
			if st.Status == state.Paused {
				o.log.Infof("resumed %s", st.ID)
			}
			if st.Status != state.Downloading {
				st.Status = state.Downloading
				o.write(st)
			}
			return false
		}
	}
}

// rateLimit waits after the n-th successful unit: the batch delay on every
// BatchSize-th success, the chapter delay otherwise.
func (o *Orchestrator) rateLimit(ctx context.Context, n int, batch time.Duration) {
	d := o.set.ChapterDelay
	if o.set.BatchSize > 0 && n%o.set.BatchSize == 0 {
		o.log.Infof("downloaded %d chapters, waiting %s", n, batch)
		d = batch
	}

	_ = o.sleep(ctx, d)
}

func (o *Orchestrator) tick(st *state.State, n, done, total, end int, title string) {
	st.CurrentChapter = n
	st.Progress = ui.Percent(done, total)
	o.write(st)
	o.reporter.Progress(n, end, title)
}

func (o *Orchestrator) finish(ctx context.Context, st *state.State, res *Result, status state.Status) error {
	st.Status = status
	if status == state.Complete {
		st.Progress = 100
	}
	o.write(st)

	res.Status = status
	o.reporter.Done()

	o.log.Infof("%s: %s (%d downloaded, %d skipped, %d failed)",
		st.ID, status, res.Downloaded, res.Skipped, res.Failed)

	if status == state.Stopped && ctx.Err() != nil {
		return fmt.Errorf("interrupted: %w", ctx.Err())
	}

	return nil
}

func (o *Orchestrator) fail(st *state.State, res *Result, err error) error {
	st.Status = state.Failed
	st.LastError = err.Error()
	o.write(st)

	res.Status = state.Failed
	res.Error = err.Error()
	o.log.Errorf("%s failed: %v", st.ID, err)

	return err
}

// guard turns a panic inside a run into a Failed state.
func (o *Orchestrator) guard(st *state.State, res *Result, err *error) {
	r := recover()
	if r == nil {
		return
	}

	o.log.Errorf("panic in %s: %v\n%s", st.ID, r, debug.Stack())
	*err = o.fail(st, res, fmt.Errorf("unexpected error: %v", r))
}

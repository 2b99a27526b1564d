package ui

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brogergvhs/noveld/internal/util"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Reporter receives progress of a download run.
type Reporter interface {
	Start(label string, total int)
	Progress(done, total int, title string)
	Bytes(n int64)
	Done()
}

// LineReporter prints the "Progress: <done>/<total> (<pct>%) - <title>"
// lines external callers parse.
type LineReporter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

func (r *LineReporter) Start(string, int) {}
func (r *LineReporter) Bytes(int64)       {}
func (r *LineReporter) Done()             {}

func (r *LineReporter) Progress(done, total int, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintln(r.w, ProgressLine(done, total, title))
}

func ProgressLine(done, total int, title string) string {
	return fmt.Sprintf("Progress: %d/%d (%.1f%%) - %s", done, total, Percent(done, total), title)
}

func Percent(done, total int) float64 {
	if total <= 0 {
		return 0
	}

	return float64(done) / float64(total) * 100
}

// MultiReporter fans out to several reporters.
type MultiReporter []Reporter

func (m MultiReporter) Start(label string, total int) {
	for _, r := range m {
		r.Start(label, total)
	}
}

func (m MultiReporter) Progress(done, total int, title string) {
	for _, r := range m {
		r.Progress(done, total, title)
	}
}

func (m MultiReporter) Bytes(n int64) {
	for _, r := range m {
		r.Bytes(n)
	}
}

func (m MultiReporter) Done() {
	for _, r := range m {
		r.Done()
	}
}

// BarReporter renders an mpb bar, one per run.
type BarReporter struct {
	pm     *MPBProgressManager
	handle *ProgressHandle
}

func NewBarReporter(w io.Writer) *BarReporter {
	return &BarReporter{pm: NewProgressManager(w)}
}

func (b *BarReporter) Start(label string, total int) {
	b.handle = b.pm.Register(label)
	b.handle.SetTotal(total)
}

func (b *BarReporter) Progress(done, total int, _ string) {
	if b.handle != nil {
		b.handle.Update(done, total)
	}
}

func (b *BarReporter) Bytes(n int64) {
	if b.handle != nil {
		b.handle.AddBytes(n)
	}
}

func (b *BarReporter) Done() {
	if b.handle != nil {
		b.handle.MarkDone()
	}
	b.pm.Close()
}

type MPBProgressManager struct {
	p *mpb.Progress
}

func NewProgressManager(w io.Writer) *MPBProgressManager {
	p := mpb.New(
		mpb.WithWidth(52),
		mpb.WithOutput(w),
		mpb.WithRefreshRate(120*time.Millisecond),
	)
	return &MPBProgressManager{p: p}
}

func (pm *MPBProgressManager) Close() {
	pm.p.Wait()
}

func (pm *MPBProgressManager) Register(prefix string) *ProgressHandle {
	h := &ProgressHandle{
		pm:     pm,
		prefix: prefix,
	}
	h.initBar()
	return h
}

type ProgressHandle struct {
	pm     *MPBProgressManager
	prefix string
	bar    *mpb.Bar

	total atomic.Int64
	bytes atomic.Int64

	start   time.Time
	elapsed atomic.Int64
	final   atomic.Bool
}

func (h *ProgressHandle) initBar() {
	h.start = time.Now()

	h.bar = h.pm.p.New(
		0,
		mpb.BarStyle().Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(h.prefix+"  "),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncWidth),
			decor.CountersNoUnit(" | %d/%d chapters", decor.WCSyncWidth),
			decor.Any(func(_ decor.Statistics) string {
				if n := h.bytes.Load(); n > 0 {
					return " | " + util.Human(n)
				}
				return ""
			}),
			decor.Any(func(_ decor.Statistics) string {
				if h.final.Load() {
					return fmt.Sprintf(" | %ds", h.elapsed.Load())
				}
				return fmt.Sprintf(" | %ds", int(time.Since(h.start).Seconds()))
			}),
		),
	)
}

func (h *ProgressHandle) SetTotal(total int) {
	if h.final.Load() {
		return
	}

	h.total.Store(int64(total))
	h.bar.SetTotal(int64(total), false)
}

func (h *ProgressHandle) Update(done, total int) {
	if h.final.Load() {
		return
	}

	if total > 0 && int64(total) != h.total.Load() {
		h.SetTotal(total)
	}
	h.bar.SetCurrent(int64(done))
}

func (h *ProgressHandle) AddBytes(n int64) {
	h.bytes.Add(n)
}

func (h *ProgressHandle) MarkDone() {
	if h.final.Swap(true) {
		return
	}

	h.elapsed.Store(int64(time.Since(h.start).Seconds()))
	h.bar.SetTotal(h.total.Load(), true)
}

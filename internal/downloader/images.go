package downloader

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/util"

	_ "golang.org/x/image/webp"
)

var formatExts = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// pageJob is one page image of a chapter.
type pageJob struct {
	index int
	url   string
}

// downloadPages fetches every page into dir with up to workers in flight.
// Pages already on disk are kept. It returns the number of failed pages.
func (o *Orchestrator) downloadPages(ctx context.Context, urls []string, dir, referer string) (int, error) {
	workers := o.set.ImageWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(urls) && len(urls) > 0 {
		workers = len(urls)
	}

	var mu sync.Mutex
	var errs []error

	jobs := make(chan pageJob)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for j := range jobs {
			base := filepath.Join(dir, chapters.PageName(j.index+1))
			if existingPage(base) != "" {
				continue
			}

			if _, err := o.fetchImageWithRetry(ctx, j.url, base, referer, o.set.ImageRetries); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("page %d: %w", j.index+1, err))
				mu.Unlock()
				continue
			}
			o.stats.Images.Add(1)
		}
	}

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go worker()
	}

	for i, u := range urls {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return len(urls), ctx.Err()
		case jobs <- pageJob{index: i, url: u}:
		}
	}

	close(jobs)
	wg.Wait()

	for _, err := range errs {
		o.log.Warnf("%v", err)
	}

	return len(errs), nil
}

func existingPage(base string) string {
	for _, ext := range formatExts {
		if util.Exists(base + ext) {
			return base + ext
		}
	}

	return ""
}

// fetchImageWithRetry waits RetryBackoff*2^attempt between attempts.
func (o *Orchestrator) fetchImageWithRetry(ctx context.Context, u, base, referer string, attempts int) (string, error) {
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := o.set.RetryBackoff * time.Duration(1<<(attempt-1))
			if serr := o.sleep(ctx, wait); serr != nil {
				return "", serr
			}
		}

		var out string
		out, err = o.fetchImage(ctx, u, base, referer)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		o.log.Debugf("attempt %d for %s: %v", attempt+1, u, err)
	}

	return "", err
}

// fetchImage writes the image at u to base plus an extension picked from
// its decoded format. A base that already carries an extension is used as
// is.
func (o *Orchestrator) fetchImage(ctx context.Context, u, base, referer string) (string, error) {
	if o.set.ImageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.set.ImageTimeout)
		defer cancel()
	}

	h := http.Header{}
	if referer != "" {
		h.Set("Referer", referer)
	}
	h.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")

	resp, err := util.Get(ctx, o.client, u, h)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); !strings.HasPrefix(mt, "image/") && mt != "application/octet-stream" {
			return "", fmt.Errorf("unexpected MIME: %s", ct)
		}
	}

	var buf bytes.Buffer
	var last int64
	_, err = copyWithProgress(&buf, resp.Body, func(done int64) {
		o.reporter.Bytes(done - last)
		last = done
	})
	if err != nil {
		return "", err
	}
	o.stats.Bytes.Add(int64(buf.Len()))

	out := base
	if filepath.Ext(base) == "" {
		out = base + imageExt(buf.Bytes(), u)
	}

	if err := util.WriteFileAtomic(out, buf.Bytes()); err != nil {
		return "", err
	}

	return out, nil
}

// imageExt prefers the decoded format over the URL suffix.
func imageExt(b []byte, rawURL string) string {
	if _, format, err := image.DecodeConfig(bytes.NewReader(b)); err == nil {
		if ext, ok := formatExts[format]; ok {
			return ext
		}
	}

	if pu, err := url.Parse(rawURL); err == nil {
		ext := strings.ToLower(path.Ext(pu.Path))
		if ext == ".jpeg" {
			ext = ".jpg"
		}
		for _, known := range formatExts {
			if ext == known {
				return ext
			}
		}
	}

	return ".jpg"
}

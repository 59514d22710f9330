// Package downloader drains the post queue with a bounded worker pool,
// verifies what it fetched and hands the bytes to a Sink.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/silverfox-dev/boorudl/booru"
	"github.com/silverfox-dev/boorudl/utils"
)

const (
	defaultConcurrent = 5
	defaultTimeout    = 5 * time.Minute
	defaultRetry      = 3

	retryBase = 2 * time.Second
	retryCap  = 30 * time.Second
)

type nopLog struct{}

func (nopLog) Printf(string, ...interface{}) {}

// DownloadOption configures a Downloader.
type DownloadOption func(*Downloader)

// Downloader runs a fixed pool of workers over the post channel. The
// pool size bounds in-flight requests; together with the channel
// capacity it gives the pipeline its backpressure.
type Downloader struct {
	maxConcurrent int
	timeout       time.Duration
	retry         int
	useID         bool
	annotate      bool
	seqDigits     int
	client        *http.Client
	rateLimiter   *utils.RateLimiter
	log           booru.Log

	progress *Progress
}

func NewDownloader(options ...DownloadOption) *Downloader {
	d := &Downloader{
		maxConcurrent: defaultConcurrent,
		timeout:       defaultTimeout,
		retry:         defaultRetry,
		client:        http.DefaultClient,
		log:           nopLog{},
		progress:      NewProgress(),
	}
	for _, option := range options {
		option(d)
	}
	if d.maxConcurrent < 1 {
		d.maxConcurrent = 1
	}
	return d
}

// MaxConcurrent sets the worker pool size.
func MaxConcurrent(n int) DownloadOption {
	return func(d *Downloader) { d.maxConcurrent = n }
}

// Timeout bounds one post's download, headers to last byte.
func Timeout(timeout time.Duration) DownloadOption {
	return func(d *Downloader) { d.timeout = timeout }
}

// Retry sets the attempt count for retryable media failures.
func Retry(n int) DownloadOption {
	return func(d *Downloader) { d.retry = n }
}

// UseID names files by post id even when the MD5 is known.
func UseID(on bool) DownloadOption {
	return func(d *Downloader) { d.useID = on }
}

// Annotate writes a .txt sidecar with the post's tags next to each file.
func Annotate(on bool) DownloadOption {
	return func(d *Downloader) { d.annotate = on }
}

// Sequential names files by zero-padded post id so pools sort in order.
func Sequential(digits int) DownloadOption {
	return func(d *Downloader) { d.seqDigits = digits }
}

// WithClient sets the HTTP client, typically from NewClient.
func WithClient(client *http.Client) DownloadOption {
	return func(d *Downloader) { d.client = client }
}

// RateLimit caps media requests per second.
func RateLimit(perSecond int) DownloadOption {
	return func(d *Downloader) { d.rateLimiter = utils.NewRateLimiter(perSecond) }
}

// SetLog sets the log.
func SetLog(log booru.Log) DownloadOption {
	return func(d *Downloader) { d.log = log }
}

// Progress exposes the run counters.
func (d *Downloader) Progress() *Progress { return d.progress }

// QueueCapacity is the post channel capacity matching this pool: four
// posts of lookahead per worker.
func (d *Downloader) QueueCapacity() int { return d.maxConcurrent * 4 }

// Run consumes posts until the channel closes or a fatal error hits.
// Per-post failures (missing media, corrupt bytes) are counted and
// logged but do not stop the run.
func (d *Downloader) Run(ctx context.Context, posts <-chan booru.Post, sink Sink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		once  sync.Once
		fatal error
	)
	abort := func(err error) {
		once.Do(func() {
			fatal = err
			cancel()
		})
	}

	for i := 0; i < d.maxConcurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range posts {
				err := d.handle(ctx, p, sink)
				if err == nil {
					continue
				}
				var be *booru.Error
				if errors.As(err, &be) && !be.Fatal() {
					d.progress.Fail()
					d.log.Printf("post %d failed: %v", p.ID, err)
					continue
				}
				if errors.Is(err, context.Canceled) {
					return
				}
				abort(err)
				return
			}
		}()
	}
	wg.Wait()

	if fatal != nil {
		return fatal
	}
	return context.Cause(ctx)
}

func (d *Downloader) handle(ctx context.Context, p booru.Post, sink Sink) error {
	d.progress.Accept()

	name := d.fileName(p)
	if sink.Contains(p, name) {
		d.progress.Skip()
		d.log.Printf("%s already exists, skip", name)
		return nil
	}

	data, err := d.fetch(ctx, p)
	if err != nil {
		return err
	}

	// A known MD5 gets verified; a mismatch earns exactly one fresh
	// download before the post is declared corrupt.
	if booru.ValidMD5(p.MD5) && utils.MD5Bytes(data) != p.MD5 {
		d.log.Printf("md5 mismatch for post %d, downloading again", p.ID)
		data, err = d.fetch(ctx, p)
		if err != nil {
			return err
		}
		if utils.MD5Bytes(data) != p.MD5 {
			return &booru.Error{Kind: booru.KindCorrupt, Site: p.Site, PostID: p.ID,
				Err: errors.New("md5 mismatch after re-download")}
		}
	}

	if err := sink.Store(p, name, data); err != nil {
		if errors.Is(err, ErrDuplicate) {
			d.progress.Skip()
			return nil
		}
		return &booru.Error{Kind: booru.KindIO, Site: p.Site, PostID: p.ID, Err: err}
	}
	d.progress.Download(len(data))
	d.log.Printf("saved %s", name)

	if d.annotate {
		caption := strings.Join(p.Tags, ", ") + "\n"
		sidecar := d.baseName(p) + ".txt"
		if err := sink.Store(p, sidecar, []byte(caption)); err != nil && !errors.Is(err, ErrDuplicate) {
			return &booru.Error{Kind: booru.KindIO, Site: p.Site, PostID: p.ID, Err: err}
		}
	}
	return nil
}

func (d *Downloader) fileName(p booru.Post) string {
	if d.seqDigits > 0 {
		return p.SeqFileName(d.seqDigits)
	}
	return p.FileName(d.useID)
}

func (d *Downloader) baseName(p booru.Post) string {
	if d.seqDigits > 0 {
		return fmt.Sprintf("%0*d", d.seqDigits, p.ID)
	}
	return p.Name(d.useID)
}

type transient struct {
	kind booru.Kind
	err  error
}

func (t *transient) Error() string { return t.err.Error() }
func (t *transient) Unwrap() error { return t.err }

// fetch GETs the post's media. 429 and 5xx back off and retry, 404/410
// become a non-fatal NotFound, everything else fails the post outright.
func (d *Downloader) fetch(ctx context.Context, p booru.Post) ([]byte, error) {
	if d.rateLimiter != nil {
		d.rateLimiter.Token()
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, http.NoBody)
			if err != nil {
				return &booru.Error{Kind: booru.KindNetwork, Site: p.Site, PostID: p.ID, Err: err}
			}
			req.Header.Set("User-Agent", p.Site.UserAgent())

			resp, err := d.client.Do(req)
			if err != nil {
				return &transient{kind: booru.KindNetwork, err: err}
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
				return &booru.Error{Kind: booru.KindNotFound, Site: p.Site, PostID: p.ID,
					Err: fmt.Errorf("status %d", resp.StatusCode)}
			case resp.StatusCode == http.StatusTooManyRequests:
				return &transient{kind: booru.KindRateLimited, err: fmt.Errorf("status %d", resp.StatusCode)}
			case resp.StatusCode >= 500:
				return &transient{kind: booru.KindNetwork, err: fmt.Errorf("status %d", resp.StatusCode)}
			case resp.StatusCode != http.StatusOK:
				return &booru.Error{Kind: booru.KindNetwork, Site: p.Site, PostID: p.ID,
					Err: fmt.Errorf("status %d", resp.StatusCode)}
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return &transient{kind: booru.KindNetwork, err: err}
			}
			return nil
		},
		retry.Attempts(uint(d.retry)),
		retry.Delay(retryBase),
		retry.MaxDelay(retryCap),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			d.log.Printf("retrying post %d after error (attempt %d): %v", p.ID, n+1, err)
		}),
		retry.RetryIf(func(err error) bool {
			var t *transient
			return errors.As(err, &t)
		}),
	)
	if err != nil {
		var t *transient
		if errors.As(err, &t) {
			return nil, &booru.Error{Kind: t.kind, Site: p.Site, PostID: p.ID, Err: t.err}
		}
		return nil, err
	}
	return body, nil
}

package booru

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// pageCap is the hard pagination stop. It guards against hammering a
// site's API on huge tag queries and is deliberately not configurable.
const pageCap = 100

// Log is the minimal logging surface the pipeline components share.
type Log interface {
	Printf(format string, v ...interface{})
}

type nopLog struct{}

func (nopLog) Printf(string, ...interface{}) {}

// Credential authenticates API requests via HTTP Basic. Empty strings
// mean anonymous access.
type Credential struct {
	Login  string
	APIKey string
}

// Anonymous reports whether no credentials were supplied.
func (c Credential) Anonymous() bool { return c.Login == "" && c.APIKey == "" }

// Extractor paginates one site's search API, normalizes the results
// and feeds accepted posts into a channel. One extractor drives one
// query; it is not reused.
type Extractor struct {
	Site      Site
	Tags      []string
	Client    *http.Client
	Auth      Credential
	StartPage int
	Limit     int
	Filter    *Filter
	Log       Log

	// SearchURL overrides the site endpoint, used by tests and the
	// CORS-proxy front-end path.
	BaseOverride func(page, limit int) string
}

func (e *Extractor) log() Log {
	if e.Log == nil {
		return nopLog{}
	}
	return e.Log
}

func (e *Extractor) filter() *Filter {
	if e.Filter == nil {
		e.Filter = NewFilter()
	}
	return e.Filter
}

func (e *Extractor) client() *http.Client {
	if e.Client == nil {
		return http.DefaultClient
	}
	return e.Client
}

func (e *Extractor) fail(kind Kind, err error) *Error {
	return &Error{Kind: kind, Site: e.Site, Tags: e.Tags, Err: err}
}

// Search walks the paginated API from StartPage until one of the stop
// conditions hits: a short or empty page, Limit accepted posts, or the
// page cap. Accepted posts are sent to out in API order. The channel
// is always closed on return, fatal error included, so the consumer
// can never deadlock. Returns the number of accepted posts and the
// highest accepted id.
func (e *Extractor) Search(ctx context.Context, out chan<- Post) (count, highest uint64, err error) {
	defer close(out)

	if limit := e.Site.TagLimit(); limit > 0 && len(e.Tags) > limit && e.Auth.Anonymous() {
		return 0, 0, e.fail(KindInsufficientAuth,
			fmt.Errorf("%s allows at most %d tags without an account, got %d", e.Site, limit, len(e.Tags)))
	}

	start := e.StartPage
	if start < 1 {
		start = 1
	}

	pageSize := e.Site.PageSize()
	for page := 0; page < pageCap; page++ {
		e.log().Printf("scanning page %d", start+page)

		u := e.Site.SearchURL(e.Tags, start+page, pageSize)
		if e.BaseOverride != nil {
			u = e.BaseOverride(start+page, pageSize)
		}
		body, err := e.fetch(ctx, u)
		if err != nil {
			return count, highest, err
		}

		posts, err := parsePage(e.Site, body)
		if err != nil {
			return count, highest, e.fail(KindAPIShape, err)
		}
		if len(posts) == 0 {
			break
		}

		for _, p := range posts {
			if !e.filter().Accept(p) {
				continue
			}
			select {
			case out <- p:
			case <-ctx.Done():
				return count, highest, ctx.Err()
			}
			count++
			if p.ID > highest {
				highest = p.ID
			}
			if e.Limit > 0 && count >= uint64(e.Limit) {
				return count, highest, nil
			}
		}

		if len(posts) < pageSize {
			break
		}
	}
	return count, highest, nil
}

// transientError marks a response worth retrying with backoff.
type transientError struct {
	kind Kind
	err  error
}

func (t *transientError) Error() string { return t.err.Error() }
func (t *transientError) Unwrap() error { return t.err }

const (
	retryBase      = 2 * time.Second
	retryCap       = 30 * time.Second
	httpAttempts   = 5
	transportTries = 3
)

// fetch GETs one API page. 429 and 5xx back off exponentially (base
// 2s, cap 30s, 5 attempts); transport errors get 3 tries; 401/403 and
// schema-level failures are not retried.
func (e *Extractor) fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	var netTries int

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
			if err != nil {
				return e.fail(KindNetwork, err)
			}
			req.Header.Set("User-Agent", e.Site.UserAgent())
			if !e.Auth.Anonymous() {
				req.SetBasicAuth(e.Auth.Login, e.Auth.APIKey)
			}

			resp, err := e.client().Do(req)
			if err != nil {
				netTries++
				return &transientError{kind: KindNetwork, err: err}
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return e.fail(KindAuthFailed, fmt.Errorf("status %d", resp.StatusCode))
			case resp.StatusCode == http.StatusTooManyRequests:
				return &transientError{kind: KindRateLimited, err: fmt.Errorf("status %d", resp.StatusCode)}
			case resp.StatusCode >= 500:
				return &transientError{kind: KindNetwork, err: fmt.Errorf("status %d", resp.StatusCode)}
			case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
				return &Error{Kind: KindNotFound, Site: e.Site, Err: fmt.Errorf("status %d", resp.StatusCode)}
			case resp.StatusCode != http.StatusOK:
				return e.fail(KindNetwork, fmt.Errorf("status %d", resp.StatusCode))
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				netTries++
				return &transientError{kind: KindNetwork, err: err}
			}
			return nil
		},
		retry.Attempts(httpAttempts),
		retry.Delay(retryBase),
		retry.MaxDelay(retryCap),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			e.log().Printf("retrying %s after error (attempt %d): %v", url, n+1, err)
		}),
		retry.RetryIf(func(err error) bool {
			var t *transientError
			if !errors.As(err, &t) {
				return false
			}
			if t.kind == KindNetwork && netTries >= transportTries {
				return false
			}
			return true
		}),
	)
	if err != nil {
		var t *transientError
		if errors.As(err, &t) {
			return nil, e.fail(t.kind, t.err)
		}
		return nil, err
	}
	return body, nil
}

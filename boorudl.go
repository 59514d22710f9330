// Package boorudl wires the extractor, the bounded post queue, the
// download workers and a sink into one run.
package boorudl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/silverfox-dev/boorudl/booru"
	"github.com/silverfox-dev/boorudl/downloader"
	"github.com/silverfox-dev/boorudl/summary"
	"github.com/silverfox-dev/boorudl/utils"
)

type mode int

const (
	modeSearch mode = iota
	modePosts
	modePool
)

// poolDigits pads sequential pool filenames so they sort in order.
const poolDigits = 6

// Option configures a Pipeline.
type Option func(*Pipeline)

// Pipeline is one configured run: a query against one site, drained
// into one sink.
type Pipeline struct {
	site      booru.Site
	tags      []string
	mode      mode
	ids       []uint64
	poolID    uint64
	output    string
	cbz       bool
	update    bool
	safeMode  bool
	startPage int
	limit     int
	auth      booru.Credential
	global    []string
	siteTags  []string
	client    *http.Client
	log       booru.Log

	dlOptions []downloader.DownloadOption
}

// WithSite sets the imageboard to query.
func WithSite(site booru.Site) Option {
	return func(p *Pipeline) { p.site = site }
}

// WithTags sets the search tags.
func WithTags(tags ...string) Option {
	return func(p *Pipeline) { p.tags = tags }
}

// WithPosts switches the run to fetching individual post ids.
func WithPosts(ids ...uint64) Option {
	return func(p *Pipeline) {
		p.mode = modePosts
		p.ids = ids
	}
}

// WithPool switches the run to downloading a curated pool in order.
func WithPool(id uint64) Option {
	return func(p *Pipeline) {
		p.mode = modePool
		p.poolID = id
	}
}

// WithOutput sets the output root directory.
func WithOutput(dir string) Option {
	return func(p *Pipeline) { p.output = dir }
}

// WithCBZ collects the run into a comic archive instead of a folder tree.
func WithCBZ(on bool) Option {
	return func(p *Pipeline) { p.cbz = on }
}

// WithUpdate resumes from the previous run's checkpoint, downloading
// only posts newer than its highest id.
func WithUpdate(on bool) Option {
	return func(p *Pipeline) { p.update = on }
}

// WithSafeMode restricts the run to Safe-rated posts.
func WithSafeMode(on bool) Option {
	return func(p *Pipeline) { p.safeMode = on }
}

// WithStartPage sets the first API page to scan.
func WithStartPage(page int) Option {
	return func(p *Pipeline) { p.startPage = page }
}

// WithLimit caps the number of accepted posts.
func WithLimit(n int) Option {
	return func(p *Pipeline) { p.limit = n }
}

// WithAuth sets the site credentials.
func WithAuth(auth booru.Credential) Option {
	return func(p *Pipeline) { p.auth = auth }
}

// WithBlacklists sets the global and per-site tag exclusion lists.
func WithBlacklists(global, site []string) Option {
	return func(p *Pipeline) {
		p.global = global
		p.siteTags = site
	}
}

// WithClient sets the HTTP client for API and media requests.
func WithClient(client *http.Client) Option {
	return func(p *Pipeline) { p.client = client }
}

// WithLog sets the log shared by the extractor and the workers.
func WithLog(log booru.Log) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithDownloadOptions passes options through to the download pool.
func WithDownloadOptions(options ...downloader.DownloadOption) Option {
	return func(p *Pipeline) { p.dlOptions = append(p.dlOptions, options...) }
}

// New validates and assembles a pipeline. Flag conflicts surface here
// as Config errors, before anything touches the network.
func New(options ...Option) (*Pipeline, error) {
	p := &Pipeline{client: http.DefaultClient}
	for _, option := range options {
		option(p)
	}
	if p.cbz && p.update {
		return nil, &booru.Error{Kind: booru.KindConfig,
			Err: errors.New("--cbz cannot be combined with --update: archives cannot be resumed")}
	}
	if p.mode == modeSearch && len(p.tags) == 0 {
		return nil, &booru.Error{Kind: booru.KindConfig,
			Err: errors.New("no search tags given")}
	}
	if p.update && p.mode != modeSearch {
		return nil, &booru.Error{Kind: booru.KindConfig,
			Err: errors.New("--update only applies to tag searches")}
	}
	if p.output == "" {
		p.output = "."
	}
	return p, nil
}

// queryName is the per-query directory (or archive) base name.
func (p *Pipeline) queryName() string {
	switch p.mode {
	case modePool:
		return fmt.Sprintf("pool_%d", p.poolID)
	case modePosts:
		return "posts"
	}
	return utils.QueryDir(p.tags)
}

func (p *Pipeline) queryDir() string {
	return filepath.Join(p.output, p.site.String(), p.queryName())
}

func (p *Pipeline) sink(dir string) (downloader.Sink, error) {
	if p.cbz {
		return downloader.NewCBZSink(dir+".cbz", p.site, p.tags)
	}
	return downloader.NewFolderSink(dir), nil
}

// Run executes the pipeline. It returns the final counters along with
// the first fatal error, if any. The update checkpoint is written only
// after a fully successful, uncancelled run.
func (p *Pipeline) Run(parent context.Context) (downloader.Snapshot, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	dir := p.queryDir()

	var prior *summary.Summary
	filterOptions := []booru.FilterOption{
		booru.SafeMode(p.safeMode),
		booru.GlobalBlacklist(p.global),
		booru.SiteBlacklist(p.siteTags),
	}
	if p.update {
		if prior = summary.Load(dir); prior != nil {
			filterOptions = append(filterOptions, booru.Cutoff(prior.HighestID))
		}
	}

	dlOptions := []downloader.DownloadOption{downloader.WithClient(p.client)}
	if p.log != nil {
		dlOptions = append(dlOptions, downloader.SetLog(p.log))
	}
	dlOptions = append(dlOptions, p.dlOptions...)
	if p.mode == modePool {
		dlOptions = append(dlOptions, downloader.Sequential(poolDigits))
	}
	dl := downloader.NewDownloader(dlOptions...)

	ex := &booru.Extractor{
		Site:      p.site,
		Tags:      p.tags,
		Client:    p.client,
		Auth:      p.auth,
		StartPage: p.startPage,
		Limit:     p.limit,
		Filter:    booru.NewFilter(filterOptions...),
		Log:       p.log,
	}

	sink, err := p.sink(dir)
	if err != nil {
		return downloader.Snapshot{}, &booru.Error{Kind: booru.KindIO, Site: p.site, Err: err}
	}

	queue := make(chan booru.Post, dl.QueueCapacity())

	var (
		wg      sync.WaitGroup
		highest uint64
		exErr   error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		switch p.mode {
		case modePosts:
			_, highest, exErr = ex.Posts(ctx, p.ids, queue)
		case modePool:
			_, highest, exErr = ex.Pool(ctx, p.poolID, queue)
		default:
			_, highest, exErr = ex.Search(ctx, queue)
		}
	}()

	dlErr := dl.Run(ctx, queue, sink)
	// Unblock the producer if the workers bailed out mid-queue.
	cancel()
	wg.Wait()

	closeErr := sink.Close()
	snap := dl.Progress().Snapshot()

	switch {
	case dlErr != nil && !errors.Is(dlErr, context.Canceled):
		return snap, dlErr
	case exErr != nil && !errors.Is(exErr, context.Canceled):
		return snap, exErr
	case parent.Err() != nil:
		return snap, parent.Err()
	case closeErr != nil:
		return snap, &booru.Error{Kind: booru.KindIO, Site: p.site, Err: closeErr}
	}

	if p.mode == modeSearch && !p.cbz {
		s := summary.New(p.site, p.tags, highest, snap.Downloaded, prior)
		if err := s.Save(dir); err != nil {
			return snap, &booru.Error{Kind: booru.KindIO, Site: p.site, Err: err}
		}
	}
	return snap, nil
}

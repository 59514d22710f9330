//go:build js && wasm

// Command wasm exposes the link extractor to browser JavaScript. Only
// the metadata side runs here: the page gets post links and lets the
// browser do the fetching.
package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"syscall/js"

	"github.com/silverfox-dev/boorudl/booru"
)

func main() {
	js.Global().Set("fetch_links", js.FuncOf(fetchLinks))
	js.Global().Set("fetch_links_proxy", js.FuncOf(fetchLinksProxy))
	select {}
}

// fetch_links(site, tags, limit) -> Promise<[{id, rating, tags,
// post_url, direct_url, site}]>
func fetchLinks(_ js.Value, args []js.Value) interface{} {
	return promise(func() (interface{}, error) {
		site, tags, limit, err := parseArgs(args)
		if err != nil {
			return nil, err
		}
		return collect(site, tags, limit, "")
	})
}

// fetch_links_proxy adds a CORS proxy prefix as the fourth argument,
// for sites that do not send permissive headers.
func fetchLinksProxy(_ js.Value, args []js.Value) interface{} {
	return promise(func() (interface{}, error) {
		site, tags, limit, err := parseArgs(args)
		if err != nil {
			return nil, err
		}
		if len(args) < 4 {
			return nil, fmt.Errorf("missing proxy prefix")
		}
		return collect(site, tags, limit, args[3].String())
	})
}

func parseArgs(args []js.Value) (booru.Site, []string, int, error) {
	if len(args) < 3 {
		return 0, nil, 0, fmt.Errorf("expected (site, tags, limit)")
	}
	site, err := booru.ParseSite(args[0].String())
	if err != nil {
		return 0, nil, 0, err
	}
	tags := strings.Fields(args[1].String())
	return site, tags, args[2].Int(), nil
}

func collect(site booru.Site, tags []string, limit int, proxyPrefix string) ([]interface{}, error) {
	ex := &booru.Extractor{
		Site:  site,
		Tags:  tags,
		Limit: limit,
	}
	if proxyPrefix != "" {
		ex.BaseOverride = func(page, pageSize int) string {
			return proxyPrefix + url.QueryEscape(site.SearchURL(tags, page, pageSize))
		}
	}

	out := make(chan booru.Post, 64)
	done := make(chan error, 1)
	go func() {
		_, _, err := ex.Search(context.Background(), out)
		done <- err
	}()

	links := []interface{}{}
	for p := range out {
		tagList := make([]interface{}, len(p.Tags))
		for i, t := range p.Tags {
			tagList[i] = t
		}
		links = append(links, map[string]interface{}{
			"id":         float64(p.ID),
			"rating":     p.Rating.String(),
			"tags":       tagList,
			"post_url":   p.PostURL,
			"direct_url": p.URL,
			"site":       p.Site.String(),
		})
	}
	if err := <-done; err != nil {
		return nil, err
	}
	return links, nil
}

// promise wraps fn into a JS Promise, running it off the event loop.
func promise(fn func() (interface{}, error)) js.Value {
	handler := js.FuncOf(func(_ js.Value, args []js.Value) interface{} {
		resolve, reject := args[0], args[1]
		go func() {
			v, err := fn()
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(js.ValueOf(v))
		}()
		return nil
	})
	return js.Global().Get("Promise").New(handler)
}

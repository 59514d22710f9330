package booru

import (
	"fmt"
	"net/url"
	"strings"
)

// Site identifies one of the supported imageboards. The set is closed:
// adding a site means adding a variant here plus its page parser.
type Site int

const (
	Danbooru Site = iota
	E621
	Gelbooru
	Rule34
	Konachan
	Realbooru
)

var siteNames = map[Site]string{
	Danbooru:  "danbooru",
	E621:      "e621",
	Gelbooru:  "gelbooru",
	Rule34:    "rule34",
	Konachan:  "konachan",
	Realbooru: "realbooru",
}

func (s Site) String() string {
	if n, ok := siteNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseSite resolves a user-supplied imageboard name.
func ParseSite(name string) (Site, error) {
	for s, n := range siteNames {
		if n == strings.ToLower(name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("invalid imageboard %q", name)
}

// Domain is the site's canonical host, used to absolutize relative media
// URLs and to build post page links.
func (s Site) Domain() string {
	switch s {
	case Danbooru:
		return "danbooru.donmai.us"
	case E621:
		return "e621.net"
	case Gelbooru:
		return "gelbooru.com"
	case Rule34:
		return "rule34.xxx"
	case Konachan:
		return "konachan.com"
	case Realbooru:
		return "realbooru.com"
	}
	return ""
}

// PageSize is the maximum post count per API page the site accepts.
func (s Site) PageSize() int {
	switch s {
	case Danbooru:
		return 200
	case E621:
		return 320
	case Rule34, Realbooru:
		return 1000
	default:
		return 100
	}
}

// TagLimit is the maximum number of search tags an anonymous query may
// carry. Zero means unlimited.
func (s Site) TagLimit() int {
	switch s {
	case Danbooru, Konachan:
		return 2
	default:
		return 0
	}
}

// gelbooruFamily groups the sites speaking the Gelbooru DAPI dialect.
func (s Site) gelbooruFamily() bool {
	return s == Gelbooru || s == Rule34 || s == Realbooru
}

// SearchURL builds the paginated tag-search endpoint. Gelbooru-family
// pages are zero-based ("pid"), the others start at 1.
func (s Site) SearchURL(tags []string, page, limit int) string {
	tagString := url.QueryEscape(strings.Join(tags, " "))
	switch s {
	case Danbooru:
		return fmt.Sprintf("https://danbooru.donmai.us/posts.json?tags=%s&page=%d&limit=%d", tagString, page, limit)
	case E621:
		return fmt.Sprintf("https://e621.net/posts.json?tags=%s&page=%d&limit=%d", tagString, page, limit)
	case Konachan:
		return fmt.Sprintf("https://konachan.com/post.json?tags=%s&page=%d&limit=%d", tagString, page, limit)
	case Gelbooru:
		return fmt.Sprintf("https://gelbooru.com/index.php?page=dapi&s=post&q=index&json=1&tags=%s&pid=%d&limit=%d", tagString, page-1, limit)
	case Rule34:
		return fmt.Sprintf("https://api.rule34.xxx/index.php?page=dapi&s=post&q=index&json=1&tags=%s&pid=%d&limit=%d", tagString, page-1, limit)
	case Realbooru:
		return fmt.Sprintf("https://realbooru.com/index.php?page=dapi&s=post&q=index&json=1&tags=%s&pid=%d&limit=%d", tagString, page-1, limit)
	}
	return ""
}

// PostByIDURL builds the endpoint returning a single post by id.
func (s Site) PostByIDURL(id uint64) string {
	switch s {
	case Danbooru:
		return fmt.Sprintf("https://danbooru.donmai.us/posts/%d.json", id)
	case E621:
		return fmt.Sprintf("https://e621.net/posts/%d.json", id)
	case Konachan:
		return fmt.Sprintf("https://konachan.com/post.json?tags=id:%d", id)
	default:
		return fmt.Sprintf("https://%s/index.php?page=dapi&s=post&q=index&json=1&id=%d", s.apiHost(), id)
	}
}

// PoolURL builds the pool metadata endpoint. Only Danbooru and e621
// expose pools over JSON.
func (s Site) PoolURL(id uint64) string {
	switch s {
	case Danbooru:
		return fmt.Sprintf("https://danbooru.donmai.us/pools/%d.json", id)
	case E621:
		return fmt.Sprintf("https://e621.net/pools/%d.json", id)
	}
	return ""
}

func (s Site) apiHost() string {
	if s == Rule34 {
		return "api.rule34.xxx"
	}
	return s.Domain()
}

// PostPageURL is the human-facing page for a post, used for UI linking.
func (s Site) PostPageURL(id uint64) string {
	if s.gelbooruFamily() {
		return fmt.Sprintf("https://%s/index.php?page=post&s=view&id=%d", s.Domain(), id)
	}
	if s == Konachan {
		return fmt.Sprintf("https://%s/post/show/%d", s.Domain(), id)
	}
	return fmt.Sprintf("https://%s/posts/%d", s.Domain(), id)
}

// UserAgent identifies the client to the site. Danbooru and e621 ask
// API consumers to name themselves.
func (s Site) UserAgent() string {
	const app = "boorudl/1.0"
	switch s {
	case Danbooru, E621:
		return app + " (bulk downloader)"
	default:
		return app
	}
}

// absolutize fixes protocol-relative and root-relative media URLs some
// Gelbooru-family and Moebooru responses return.
func (s Site) absolutize(u string) string {
	switch {
	case u == "":
		return u
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case strings.HasPrefix(u, "/"):
		return "https://" + s.Domain() + u
	default:
		return u
	}
}

package booru

import (
	"encoding/json"
	"strings"
)

type konachanPost struct {
	ID      uint64 `json:"id"`
	MD5     string `json:"md5"`
	FileURL string `json:"file_url"`
	Rating  string `json:"rating"`
	Tags    string `json:"tags"`
}

// Moebooru (Konachan) responses carry no file_ext field and often a
// protocol-relative file_url.
func (raw konachanPost) post() Post {
	u := Konachan.absolutize(raw.FileURL)
	return Post{
		ID:        raw.ID,
		Site:      Konachan,
		MD5:       strings.ToLower(raw.MD5),
		URL:       u,
		Extension: extensionFromURL(u),
		Rating:    ParseRating(raw.Rating),
		Tags:      normalizeTags(strings.Fields(raw.Tags)),
		PostURL:   Konachan.PostPageURL(raw.ID),
	}
}

func parseKonachanPage(data []byte) ([]Post, error) {
	var raws []konachanPost
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(raws))
	for _, raw := range raws {
		posts = append(posts, raw.post())
	}
	return posts, nil
}

// parsePage dispatches a search page to the site's parser.
func parsePage(site Site, data []byte) ([]Post, error) {
	switch site {
	case Danbooru:
		return parseDanbooruPage(data)
	case E621:
		return parseE621Page(data)
	case Konachan:
		return parseKonachanPage(data)
	default:
		return parseGelbooruPage(site, data)
	}
}

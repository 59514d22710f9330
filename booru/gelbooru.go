package booru

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// The Gelbooru DAPI dialect (Gelbooru, Rule34, Realbooru) is the
// loosest of the APIs: the top level is either a bare array or a
// {"post": [...]} wrapper, numeric fields occasionally arrive as
// strings, and Realbooru omits file_url entirely. Fields are therefore
// decoded as generic maps and coerced.
func parseGelbooruPage(site Site, data []byte) ([]Post, error) {
	raws, err := gelbooruEntries(data)
	if err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(raws))
	for _, raw := range raws {
		posts = append(posts, gelbooruPost(site, raw))
	}
	return posts, nil
}

func gelbooruEntries(data []byte) ([]map[string]any, error) {
	var arr []map[string]any
	if err := json.Unmarshal(data, &arr); err == nil {
		return arr, nil
	}
	var top struct {
		Post []map[string]any `json:"post"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	return top.Post, nil
}

func gelbooruPost(site Site, raw map[string]any) Post {
	md5 := strings.ToLower(cast.ToString(raw["hash"]))
	if md5 == "" {
		md5 = strings.ToLower(cast.ToString(raw["md5"]))
	}

	image := cast.ToString(raw["image"])
	ext := extensionFromURL(image)

	fileURL := cast.ToString(raw["file_url"])
	if fileURL == "" && site == Realbooru && md5 != "" && ext != "" {
		// Realbooru's JSON carries no file_url; the media path is
		// derived from the directory hash prefix.
		fileURL = fmt.Sprintf("https://realbooru.com/images/%s/%s.%s",
			cast.ToString(raw["directory"]), md5, ext)
	}
	fileURL = site.absolutize(fileURL)
	if ext == "" {
		ext = extensionFromURL(fileURL)
	}

	id := cast.ToUint64(raw["id"])
	return Post{
		ID:        id,
		Site:      site,
		MD5:       md5,
		URL:       fileURL,
		Extension: ext,
		Rating:    ParseRating(cast.ToString(raw["rating"])),
		Tags:      normalizeTags(strings.Fields(cast.ToString(raw["tags"]))),
		PostURL:   site.PostPageURL(id),
	}
}

package booru

import (
	"encoding/json"
	"strings"
)

type danbooruPost struct {
	ID           uint64 `json:"id"`
	MD5          string `json:"md5"`
	FileURL      string `json:"file_url"`
	LargeFileURL string `json:"large_file_url"`
	FileExt      string `json:"file_ext"`
	Rating       string `json:"rating"`
	TagString    string `json:"tag_string"`
}

func (raw danbooruPost) post() Post {
	p := Post{
		ID:        raw.ID,
		Site:      Danbooru,
		MD5:       strings.ToLower(raw.MD5),
		URL:       raw.FileURL,
		Extension: strings.ToLower(raw.FileExt),
		Tags:      normalizeTags(strings.Fields(raw.TagString)),
		PostURL:   Danbooru.PostPageURL(raw.ID),
	}
	if p.URL == "" {
		p.URL = raw.LargeFileURL
	}
	if p.Extension == "" {
		p.Extension = extensionFromURL(p.URL)
	}
	// Danbooru kept "s" meaning Sensitive after introducing "g" for
	// General, so "s" is not Safe there.
	if raw.Rating == "s" {
		p.Rating = RatingQuestionable
	} else {
		p.Rating = ParseRating(raw.Rating)
	}
	return p
}

func parseDanbooruPage(data []byte) ([]Post, error) {
	var raws []danbooruPost
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(raws))
	for _, raw := range raws {
		posts = append(posts, raw.post())
	}
	return posts, nil
}

func parseDanbooruPost(data []byte) (Post, error) {
	var raw danbooruPost
	if err := json.Unmarshal(data, &raw); err != nil {
		return Post{}, err
	}
	return raw.post(), nil
}
